package tier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eloity/tiergate/internal/domain"
	"github.com/eloity/tiergate/internal/pkg/id"
)

// ProfileStore is the persistence the evaluator needs for profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*domain.TierProfile, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	UpgradeToTier2(ctx context.Context, userID string) error
}

// GateStore looks up feature gate rules.
type GateStore interface {
	Get(ctx context.Context, featureName string) (*domain.FeatureGate, error)
	List(ctx context.Context) ([]domain.FeatureGate, error)
}

// HistoryStore records tier changes.
type HistoryStore interface {
	Put(ctx context.Context, c *domain.TierChange) error
}

// Service evaluates feature access against a user's tier and runs the
// one legal tier transition.
type Service interface {
	GetUserTierInfo(ctx context.Context, userID string) (*domain.TierInfo, error)
	CanAccessFeature(ctx context.Context, userID, featureName string) (*domain.AccessDecision, error)
	GetTierAccessSummary(ctx context.Context, userID string) (*domain.AccessSummary, error)
	UpgradeTierAfterKYC(ctx context.Context, userID string) (bool, error)
	IsTier2Verified(ctx context.Context, userID string) (bool, error)
	RecordKYCTrigger(ctx context.Context, userID, reason string)
}

type service struct {
	profiles ProfileStore
	gates    GateStore
	history  HistoryStore
}

func NewService(profiles ProfileStore, gates GateStore, history HistoryStore) Service {
	return &service{profiles: profiles, gates: gates, history: history}
}

// GetUserTierInfo reads the evaluator's view of a profile. A missing
// profile surfaces as ErrNotFound; "not provisioned" is a distinct
// outcome from any access denial.
func (s *service) GetUserTierInfo(ctx context.Context, userID string) (*domain.TierInfo, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier := p.TierLevel
	if !tier.Valid() {
		tier = domain.Tier1
	}
	return &domain.TierInfo{
		UserID:         p.UserID,
		TierLevel:      tier,
		KYCVerified:    p.KYCVerified,
		TierUpgradedAt: p.TierUpgradedAt,
	}, nil
}

// CanAccessFeature decides whether the user passes the feature's gate.
// A denial is a normal result carrying the failed condition; only a
// missing profile or an upstream failure is an error. An unknown feature
// name fails closed with its own reason.
func (s *service) CanAccessFeature(ctx context.Context, userID, featureName string) (*domain.AccessDecision, error) {
	info, err := s.GetUserTierInfo(ctx, userID)
	if err != nil {
		return nil, err
	}

	gate, err := s.gates.Get(ctx, featureName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.AccessDecision{
				Allowed: false,
				Reason:  fmt.Sprintf("unknown feature %q", featureName),
			}, nil
		}
		return nil, err
	}

	return decide(info, gate), nil
}

// decide applies the gate predicate: the tier must be admitted and, when
// the gate demands KYC, the profile must be verified.
func decide(info *domain.TierInfo, gate *domain.FeatureGate) *domain.AccessDecision {
	if !gate.AllowsTier(info.TierLevel) {
		if gate.RequiresKYC {
			return &domain.AccessDecision{
				Allowed:     false,
				Reason:      "this feature requires KYC verification",
				RequiresKYC: true,
			}
		}
		return &domain.AccessDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("this feature requires %s", gate.MinimumTier()),
		}
	}
	if gate.RequiresKYC && !info.KYCVerified {
		return &domain.AccessDecision{
			Allowed:     false,
			Reason:      "this feature requires KYC verification",
			RequiresKYC: true,
		}
	}
	return &domain.AccessDecision{Allowed: true}
}

// GetTierAccessSummary partitions the full gate set for one user using
// the same predicate as CanAccessFeature.
func (s *service) GetTierAccessSummary(ctx context.Context, userID string) (*domain.AccessSummary, error) {
	info, err := s.GetUserTierInfo(ctx, userID)
	if err != nil {
		return nil, err
	}
	gates, err := s.gates.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.AccessSummary{
		UserID:             info.UserID,
		CurrentTier:        info.TierLevel,
		KYCVerified:        info.KYCVerified,
		AccessibleFeatures: []string{},
		RestrictedFeatures: []domain.RestrictedFeature{},
	}
	for i := range gates {
		gate := &gates[i]
		if decide(info, gate).Allowed {
			summary.AccessibleFeatures = append(summary.AccessibleFeatures, gate.FeatureName)
		} else {
			summary.RestrictedFeatures = append(summary.RestrictedFeatures, domain.RestrictedFeature{
				Name:        gate.FeatureName,
				RequiresKYC: gate.RequiresKYC,
			})
		}
	}
	return summary, nil
}

// UpgradeTierAfterKYC promotes the user to tier 2. The write is a single
// conditional update, so duplicate triggers (a retried KYC webhook, a
// double-submitted review) race safely: the loser observes the conflict
// and lands on the same no-op success. Returns false only when the user
// was already tier 2.
func (s *service) UpgradeTierAfterKYC(ctx context.Context, userID string) (bool, error) {
	info, err := s.GetUserTierInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	if info.TierLevel == domain.Tier2 {
		return false, nil
	}

	if err := s.profiles.UpgradeToTier2(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the race to a concurrent upgrade; same end state.
			return false, nil
		}
		return false, err
	}

	s.logTierChange(ctx, userID, domain.Tier1, domain.Tier2, "KYC verification completed")
	return true, nil
}

// logTierChange writes the audit row. Best-effort: a logging outage must
// never block or roll back a legitimate upgrade.
func (s *service) logTierChange(ctx context.Context, userID string, from, to domain.Tier, reason string) {
	change := &domain.TierChange{
		ChangeID:   id.New(),
		UserID:     userID,
		FromTier:   from,
		ToTier:     to,
		ActionType: "upgrade",
		Reason:     reason,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.history.Put(ctx, change); err != nil {
		slog.Error("failed to write tier change audit row", "user_id", userID, "from", from, "to", to, "err", err)
		return
	}
	slog.Info("tier change logged", "user_id", userID, "from", from, "to", to)
}

// IsTier2Verified is a convenience predicate for middleware.
func (s *service) IsTier2Verified(ctx context.Context, userID string) (bool, error) {
	info, err := s.GetUserTierInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	return info.TierLevel == domain.Tier2, nil
}

// RecordKYCTrigger notes the first feature that nudged a tier-1 user
// toward KYC. Best-effort and first-write-wins; the denial it decorates
// has already been issued.
func (s *service) RecordKYCTrigger(ctx context.Context, userID, reason string) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil || p.TierLevel != domain.Tier1 || p.KYCTriggerReason != "" {
		return
	}
	err = s.profiles.Update(ctx, userID, map[string]interface{}{
		"kyc_trigger_reason": reason,
	})
	if err != nil {
		slog.Warn("failed to record kyc trigger reason", "user_id", userID, "err", err)
	}
}
