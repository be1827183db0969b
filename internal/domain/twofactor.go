package domain

import "time"

// TwoFactorMethodType identifies how a second factor is delivered.
type TwoFactorMethodType string

const (
	MethodEmail TwoFactorMethodType = "email"
	MethodSMS   TwoFactorMethodType = "sms"
	MethodTOTP  TwoFactorMethodType = "totp"
)

// TwoFactorStatus tracks an enrollment through its lifecycle:
// pending right after setup, confirmed once the client acknowledged the
// secret/QR, verified after a successful code round trip.
type TwoFactorStatus string

const (
	StatusPending   TwoFactorStatus = "pending"
	StatusConfirmed TwoFactorStatus = "confirmed"
	StatusVerified  TwoFactorStatus = "verified"
)

// TwoFactorEnrollment is one persisted (user, method) enrollment.
// PK: user_id, SK: method. The TOTP secret is stored as-is (the column is
// never logged or returned after setup); backup codes are stored as
// bcrypt hashes and removed one by one as they are consumed.
type TwoFactorEnrollment struct {
	UserID           string              `json:"user_id" dynamodbav:"user_id"`
	Method           TwoFactorMethodType `json:"method" dynamodbav:"method"`
	Status           TwoFactorStatus     `json:"status" dynamodbav:"status"`
	Secret           string              `json:"-" dynamodbav:"secret"`
	BackupCodeHashes []string            `json:"-" dynamodbav:"backup_code_hashes"`
	Enabled          bool                `json:"enabled" dynamodbav:"enabled"`
	CreatedAt        time.Time           `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" dynamodbav:"updated_at"`
}

// TwoFactorSetup is returned once, at setup time. It is the only moment
// the secret and plaintext backup codes leave the service.
type TwoFactorSetup struct {
	Method      TwoFactorMethodType `json:"method"`
	Status      TwoFactorStatus     `json:"status"`
	Secret      string              `json:"secret,omitempty"`
	QRCode      string              `json:"qr_code,omitempty"` // data URL of the otpauth QR
	BackupCodes []string            `json:"backup_codes,omitempty"`
}

// TwoFactorMethodState is the caller-visible slice of an enrollment used
// by setup validation.
type TwoFactorMethodState struct {
	Method   TwoFactorMethodType `json:"method"`
	Enabled  bool                `json:"enabled"`
	Verified bool                `json:"verified"`
}

// VerificationCode is a short-lived delivered code (email or SMS).
// PK: user_id, SK: purpose. ExpiresAt doubles as the DynamoDB TTL.
type VerificationCode struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"` // "2fa_email" | "2fa_sms"
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // Unix seconds
}

// AttemptPenalty is the escalating cool-down applied to repeated failed
// verification attempts. The boundaries (3 failures -> 60s, 5 -> 300s and
// locked) are contract values, not tuning knobs.
type AttemptPenalty struct {
	PenaltySeconds int  `json:"penalty_seconds"`
	Locked         bool `json:"locked"`
}
