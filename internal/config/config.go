package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	KYCBucketName  string

	JWTPublicKeyPath string

	TOTPIssuer string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	RequestTimeout time.Duration
	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	TierProfiles   string
	FeatureGates   string
	TierHistory    string
	Verifications  string
	TwoFactor      string
	RewardAccounts string
	RewardLedger   string
	Redemptions    string
	Referrals      string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			TierProfiles:   getEnv("DYNAMO_TABLE_TIER_PROFILES", "tier_profiles"),
			FeatureGates:   getEnv("DYNAMO_TABLE_FEATURE_GATES", "feature_gates"),
			TierHistory:    getEnv("DYNAMO_TABLE_TIER_HISTORY", "tier_access_history"),
			Verifications:  getEnv("DYNAMO_TABLE_VERIFICATIONS", "verification_codes"),
			TwoFactor:      getEnv("DYNAMO_TABLE_TWO_FACTOR", "twofactor_enrollments"),
			RewardAccounts: getEnv("DYNAMO_TABLE_REWARD_ACCOUNTS", "reward_accounts"),
			RewardLedger:   getEnv("DYNAMO_TABLE_REWARD_LEDGER", "reward_transactions"),
			Redemptions:    getEnv("DYNAMO_TABLE_REDEMPTIONS", "redemptions"),
			Referrals:      getEnv("DYNAMO_TABLE_REFERRALS", "referrals"),
		},
		KYCBucketName: getEnv("KYC_BUCKET_NAME", "tiergate-kyc-documents"),

		JWTPublicKeyPath: getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),

		TOTPIssuer: getEnv("TOTP_ISSUER", "Eloity"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@eloity.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 10)) * time.Second,
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
