package domain

import "time"

// Tier is a coarse access level. Tier 1 is the default for every new
// account; tier 2 is unlocked by KYC verification and is terminal; no
// downgrade path exists.
type Tier string

const (
	Tier1 Tier = "tier_1"
	Tier2 Tier = "tier_2"
)

// AtLeast reports whether t satisfies a minimum-tier requirement.
func (t Tier) AtLeast(min Tier) bool {
	if min == Tier1 {
		return true
	}
	return t == Tier2
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t == Tier1 || t == Tier2
}

// KYCStatus tracks a user's progress through identity verification.
type KYCStatus string

const (
	KYCNone     KYCStatus = "none"
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// TierProfile is the per-user row backing all access decisions.
// Provisioned externally at account creation; this service only ever
// moves it from tier 1 to tier 2.
type TierProfile struct {
	UserID           string     `json:"user_id" dynamodbav:"user_id"`
	TierLevel        Tier       `json:"tier_level" dynamodbav:"tier_level"`
	KYCVerified      bool       `json:"kyc_verified" dynamodbav:"kyc_verified"`
	KYCStatus        KYCStatus  `json:"kyc_status" dynamodbav:"kyc_status"`
	KYCTriggerReason string     `json:"kyc_trigger_reason,omitempty" dynamodbav:"kyc_trigger_reason"`
	KYCDocumentKey   string     `json:"-" dynamodbav:"kyc_document_key"`
	TierUpgradedAt   *time.Time `json:"tier_upgraded_at,omitempty" dynamodbav:"tier_upgraded_at"`
	CreatedAt        time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" dynamodbav:"updated_at"`
}

// TierInfo is the evaluator's read model of a profile.
type TierInfo struct {
	UserID         string     `json:"user_id"`
	TierLevel      Tier       `json:"tier_level"`
	KYCVerified    bool       `json:"kyc_verified"`
	TierUpgradedAt *time.Time `json:"tier_upgraded_at,omitempty"`
}

// AccessDecision is the result of a feature-gate check. A denial is a
// normal outcome, not an error: Reason explains which condition failed
// and RequiresKYC tells the caller whether a KYC flow would fix it.
type AccessDecision struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
	RequiresKYC bool   `json:"requires_kyc,omitempty"`
}

// TierChange is one audit row in the tier history table.
type TierChange struct {
	ChangeID   string    `json:"change_id" dynamodbav:"change_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	FromTier   Tier      `json:"from_tier" dynamodbav:"from_tier"`
	ToTier     Tier      `json:"to_tier" dynamodbav:"to_tier"`
	ActionType string    `json:"action_type" dynamodbav:"action_type"` // "upgrade"
	Reason     string    `json:"reason,omitempty" dynamodbav:"reason"`
	CreatedAt  time.Time `json:"created_at" dynamodbav:"created_at"`
}

// AccessSummary partitions the full gate set for one user, for bulk UI
// rendering of a feature-gating page.
type AccessSummary struct {
	UserID             string              `json:"user_id"`
	CurrentTier        Tier                `json:"current_tier"`
	KYCVerified        bool                `json:"kyc_verified"`
	AccessibleFeatures []string            `json:"accessible_features"`
	RestrictedFeatures []RestrictedFeature `json:"restricted_features"`
}

// RestrictedFeature names a gate the user cannot pass and whether KYC
// would open it.
type RestrictedFeature struct {
	Name        string `json:"name"`
	RequiresKYC bool   `json:"requires_kyc"`
}
