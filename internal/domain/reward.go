package domain

import "time"

// TrustLevel buckets a trust score into a multiplier band.
type TrustLevel string

const (
	TrustBronze   TrustLevel = "bronze"
	TrustSilver   TrustLevel = "silver"
	TrustGold     TrustLevel = "gold"
	TrustPlatinum TrustLevel = "platinum"
	TrustDiamond  TrustLevel = "diamond"
)

// TrustLevelForScore maps a 0-100 trust score to its level.
func TrustLevelForScore(score float64) TrustLevel {
	switch {
	case score >= 90:
		return TrustDiamond
	case score >= 75:
		return TrustPlatinum
	case score >= 60:
		return TrustGold
	case score >= 40:
		return TrustSilver
	default:
		return TrustBronze
	}
}

// Multiplier returns the reward multiplier for the level.
func (l TrustLevel) Multiplier() float64 {
	switch l {
	case TrustSilver:
		return 1.2
	case TrustGold:
		return 1.5
	case TrustPlatinum:
		return 2.0
	case TrustDiamond:
		return 3.0
	default:
		return 1.0
	}
}

// MonthlyRedemptionCap returns the per-month redemption ceiling in points
// for the level.
func (l TrustLevel) MonthlyRedemptionCap() float64 {
	switch l {
	case TrustSilver:
		return 5000
	case TrustGold:
		return 10000
	case TrustPlatinum:
		return 25000
	case TrustDiamond:
		return 50000
	default:
		return 2000
	}
}

// RewardAccount is a user's points balance and trust standing.
type RewardAccount struct {
	UserID        string     `json:"user_id" dynamodbav:"user_id"`
	Balance       float64    `json:"balance" dynamodbav:"balance"`
	TotalEarned   float64    `json:"total_earned" dynamodbav:"total_earned"`
	TrustScore    float64    `json:"trust_score" dynamodbav:"trust_score"`
	TrustLevel    TrustLevel `json:"trust_level" dynamodbav:"trust_level"`
	ReferralCount int        `json:"referral_count" dynamodbav:"referral_count"`
	CreatedAt     time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// RewardTransaction is one point-earning (or penalty) ledger entry.
type RewardTransaction struct {
	TransactionID string                 `json:"transaction_id" dynamodbav:"transaction_id"`
	UserID        string                 `json:"user_id" dynamodbav:"user_id"`
	ActionType    string                 `json:"action_type" dynamodbav:"action_type"`
	Amount        float64                `json:"amount" dynamodbav:"amount"`
	BalanceAfter  float64                `json:"balance_after" dynamodbav:"balance_after"`
	Multiplier    float64                `json:"multiplier" dynamodbav:"multiplier"`
	Metadata      map[string]interface{} `json:"metadata,omitempty" dynamodbav:"metadata"`
	CreatedAt     time.Time              `json:"created_at" dynamodbav:"created_at"`
}

// AwardResult is the outcome of one award attempt. An unsuccessful
// result carries a human-readable message; the HTTP layer never converts
// it to an error status.
type AwardResult struct {
	Success bool    `json:"success"`
	Amount  float64 `json:"amount"`
	Message string  `json:"message"`
}

// RewardRule defines how much one action earns and how often it may be
// repeated. Rules are a closed in-code table; an unknown action type
// earns nothing.
type RewardRule struct {
	ActionType        string
	BasePoints        float64
	DailyLimit        int // 0 = unlimited
	MinimumTrustScore float64
}

// SpamVerdict is the pre-award gate result. A true verdict must suppress
// the award entirely, never award-then-reverse.
type SpamVerdict struct {
	IsSpam bool   `json:"is_spam"`
	Reason string `json:"reason,omitempty"`
}

// Redemption is a pending payout request.
type Redemption struct {
	RedemptionID  string                 `json:"redemption_id" dynamodbav:"redemption_id"`
	UserID        string                 `json:"user_id" dynamodbav:"user_id"`
	Amount        float64                `json:"amount" dynamodbav:"amount"`
	PayoutMethod  string                 `json:"payout_method" dynamodbav:"payout_method"`
	PayoutDetails map[string]interface{} `json:"payout_details,omitempty" dynamodbav:"payout_details"`
	Status        string                 `json:"status" dynamodbav:"status"` // "pending"
	CreatedAt     time.Time              `json:"created_at" dynamodbav:"created_at"`
}

// RedemptionResult reports whether a redemption request was accepted.
type RedemptionResult struct {
	Success      bool   `json:"success"`
	RedemptionID string `json:"redemption_id,omitempty"`
	Message      string `json:"message"`
}

// Referral links a referee to the referrer who brought them in. One
// referral per referee, ever.
type Referral struct {
	RefereeID    string    `json:"referee_id" dynamodbav:"referee_id"`
	ReferrerID   string    `json:"referrer_id" dynamodbav:"referrer_id"`
	ReferralCode string    `json:"referral_code" dynamodbav:"referral_code"`
	RewardEarned float64   `json:"reward_earned" dynamodbav:"reward_earned"`
	Status       string    `json:"status" dynamodbav:"status"` // "pending" | "completed"
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}

// MinimumRedeemableBalance is the floor below which no redemption is
// accepted, matching the platform's payout policy.
const MinimumRedeemableBalance = 500.0
