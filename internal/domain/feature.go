package domain

// FeatureGate is the static rule for one feature name. Gates live in
// their own table so product can flip access without a deploy; the
// evaluator fails closed when a queried name has no gate.
type FeatureGate struct {
	FeatureName string `json:"feature_name" dynamodbav:"feature_name"`
	Description string `json:"description,omitempty" dynamodbav:"description"`
	Tier1Access bool   `json:"tier_1_access" dynamodbav:"tier_1_access"`
	Tier2Access bool   `json:"tier_2_access" dynamodbav:"tier_2_access"`
	RequiresKYC bool   `json:"requires_kyc" dynamodbav:"requires_kyc"`
}

// MinimumTier derives the lowest tier the gate admits.
func (g FeatureGate) MinimumTier() Tier {
	if g.Tier1Access {
		return Tier1
	}
	return Tier2
}

// AllowsTier reports whether the gate admits the given tier at all.
func (g FeatureGate) AllowsTier(t Tier) bool {
	if t == Tier1 {
		return g.Tier1Access
	}
	return g.Tier2Access
}

// FeatureGateInput is the admin upsert payload.
type FeatureGateInput struct {
	Description string `json:"description"`
	Tier1Access *bool  `json:"tier_1_access" validate:"required"`
	Tier2Access *bool  `json:"tier_2_access" validate:"required"`
	RequiresKYC *bool  `json:"requires_kyc" validate:"required"`
}

// DefaultFeatureGates is the seed set installed at bootstrap. Matches the
// production gate table: tier-1 users get the read/consume surfaces, every
// money-out or sell-side surface requires KYC.
func DefaultFeatureGates() []FeatureGate {
	return []FeatureGate{
		{FeatureName: "social_posting", Description: "Create posts and stories", Tier1Access: true, Tier2Access: true},
		{FeatureName: "marketplace_buy", Description: "Purchase marketplace listings", Tier1Access: true, Tier2Access: true},
		{FeatureName: "marketplace_sell", Description: "List products for sale", Tier2Access: true, RequiresKYC: true},
		{FeatureName: "crypto_view", Description: "View crypto prices and portfolios", Tier1Access: true, Tier2Access: true},
		{FeatureName: "crypto_trade", Description: "Trade crypto assets", Tier2Access: true, RequiresKYC: true},
		{FeatureName: "crypto_p2p", Description: "Peer-to-peer crypto transfers", Tier2Access: true, RequiresKYC: true},
		{FeatureName: "freelance_apply", Description: "Apply to freelance jobs", Tier1Access: true, Tier2Access: true},
		{FeatureName: "freelance_offer", Description: "Post freelance job offers", Tier2Access: true, RequiresKYC: true},
		{FeatureName: "withdraw_earnings", Description: "Withdraw earned balance", Tier2Access: true, RequiresKYC: true},
		{FeatureName: "creator_fund", Description: "Join the creator fund", Tier2Access: true, RequiresKYC: true},
		{FeatureName: "premium_badges", Description: "Display premium profile badges", Tier2Access: true},
		{FeatureName: "premium_subscription", Description: "Access premium subscription features", Tier2Access: true},
	}
}
