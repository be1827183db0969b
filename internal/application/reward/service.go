package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/eloity/tiergate/internal/domain"
	"github.com/eloity/tiergate/internal/pkg/id"
)

// Store is the persistence surface of the reward subsystem.
type Store interface {
	GetAccount(ctx context.Context, userID string) (*domain.RewardAccount, error)
	PutAccount(ctx context.Context, a *domain.RewardAccount) error
	UpdateAccount(ctx context.Context, userID string, updates map[string]interface{}) error
	PutTransaction(ctx context.Context, t *domain.RewardTransaction) error
	CountTransactionsSince(ctx context.Context, userID, actionType string, since time.Time) (int, error)
	PutRedemption(ctx context.Context, r *domain.Redemption) error
	SumRedemptionsSince(ctx context.Context, userID string, since time.Time) (float64, error)
	GetReferral(ctx context.Context, refereeID string) (*domain.Referral, error)
	PutReferral(ctx context.Context, r *domain.Referral) error
	UpdateReferral(ctx context.Context, refereeID string, updates map[string]interface{}) error
}

// Service is the reward/trust ledger. Callers are expected to run
// CheckForSpam before AwardPoints and skip the award on a spam verdict;
// there is no award-then-reverse path.
type Service interface {
	AwardPoints(ctx context.Context, userID, actionType string, metadata map[string]interface{}) *domain.AwardResult
	UpdateTrustScore(ctx context.Context, userID string, delta float64, reason, activityType string) bool
	RequestRedemption(ctx context.Context, userID string, amount float64, payoutMethod string, payoutDetails map[string]interface{}) *domain.RedemptionResult
	CheckForSpam(ctx context.Context, userID, actionType string) *domain.SpamVerdict
	ProcessReferral(ctx context.Context, referrerID, refereeID, referralCode string) *domain.RedemptionResult
	GetAccount(ctx context.Context, userID string) (*domain.RewardAccount, error)
}

type service struct {
	store Store
}

func NewService(store Store) Service {
	return &service{store: store}
}

// getOrCreateAccount lazily provisions a reward account on first earn.
func (s *service) getOrCreateAccount(ctx context.Context, userID string) (*domain.RewardAccount, error) {
	a, err := s.store.GetAccount(ctx, userID)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	a = &domain.RewardAccount{
		UserID:     userID,
		TrustScore: 50,
		TrustLevel: domain.TrustLevelForScore(50),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.PutAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// AwardPoints records one earning action. Failures return nil; the
// contract is "no award occurred", never a thrown error; callers render
// an unsuccessful result, they do not retry here.
func (s *service) AwardPoints(ctx context.Context, userID, actionType string, metadata map[string]interface{}) *domain.AwardResult {
	rule, ok := rewardRules[actionType]
	if !ok {
		return &domain.AwardResult{Success: false, Message: "no reward rule for this action"}
	}

	account, err := s.getOrCreateAccount(ctx, userID)
	if err != nil {
		slog.Error("award: failed to load reward account", "user_id", userID, "err", err)
		return nil
	}

	if account.TrustScore < rule.MinimumTrustScore {
		return &domain.AwardResult{
			Success: false,
			Message: fmt.Sprintf("trust score too low: need %.0f, have %.0f", rule.MinimumTrustScore, account.TrustScore),
		}
	}

	if rule.DailyLimit > 0 {
		dayStart := time.Now().UTC().Truncate(24 * time.Hour)
		count, err := s.store.CountTransactionsSince(ctx, userID, actionType, dayStart)
		if err != nil {
			slog.Error("award: failed to count daily activity", "user_id", userID, "action", actionType, "err", err)
			return nil
		}
		if count >= rule.DailyLimit {
			return &domain.AwardResult{Success: false, Message: "daily limit reached for this action"}
		}
	}

	multiplier := account.TrustLevel.Multiplier()
	amount := math.Round(rule.BasePoints*multiplier*100) / 100
	newBalance := account.Balance + amount

	err = s.store.UpdateAccount(ctx, userID, map[string]interface{}{
		"balance":      newBalance,
		"total_earned": account.TotalEarned + amount,
	})
	if err != nil {
		slog.Error("award: failed to update balance", "user_id", userID, "err", err)
		return nil
	}

	txn := &domain.RewardTransaction{
		TransactionID: id.New(),
		UserID:        userID,
		ActionType:    actionType,
		Amount:        amount,
		BalanceAfter:  newBalance,
		Multiplier:    multiplier,
		Metadata:      metadata,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.PutTransaction(ctx, txn); err != nil {
		slog.Error("award: failed to write ledger row", "user_id", userID, "err", err)
		return nil
	}

	return &domain.AwardResult{Success: true, Amount: amount, Message: fmt.Sprintf("earned %.2f points", amount)}
}

// UpdateTrustScore applies a delta, clamps to [0,100], rebuckets the
// level and persists. Returns false on any failure.
func (s *service) UpdateTrustScore(ctx context.Context, userID string, delta float64, reason, activityType string) bool {
	account, err := s.getOrCreateAccount(ctx, userID)
	if err != nil {
		slog.Error("trust: failed to load reward account", "user_id", userID, "err", err)
		return false
	}
	newScore := math.Max(0, math.Min(100, account.TrustScore+delta))
	newLevel := domain.TrustLevelForScore(newScore)
	err = s.store.UpdateAccount(ctx, userID, map[string]interface{}{
		"trust_score": newScore,
		"trust_level": string(newLevel),
	})
	if err != nil {
		slog.Error("trust: failed to update score", "user_id", userID, "err", err)
		return false
	}

	// Trust history rides the same ledger as point earns; zero-amount
	// rows never collide with per-action activity counts.
	txn := &domain.RewardTransaction{
		TransactionID: id.New(),
		UserID:        userID,
		ActionType:    "trust_adjustment",
		Amount:        0,
		BalanceAfter:  account.Balance,
		Multiplier:    1,
		Metadata: map[string]interface{}{
			"delta":    delta,
			"score":    newScore,
			"reason":   reason,
			"activity": activityType,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.PutTransaction(ctx, txn); err != nil {
		slog.Warn("trust: failed to write history row", "user_id", userID, "err", err)
	}

	slog.Info("trust score updated", "user_id", userID, "delta", delta, "score", newScore, "level", newLevel, "reason", reason, "activity", activityType)
	return true
}

// RequestRedemption validates the payout request against the account
// balance, the minimum redeemable floor and the trust-level monthly cap,
// then records a pending redemption. The balance check lives here so no
// calling layer can ever submit an over-balance request.
func (s *service) RequestRedemption(ctx context.Context, userID string, amount float64, payoutMethod string, payoutDetails map[string]interface{}) *domain.RedemptionResult {
	account, err := s.store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.RedemptionResult{Success: false, Message: "no reward account"}
		}
		slog.Error("redeem: failed to load reward account", "user_id", userID, "err", err)
		return &domain.RedemptionResult{Success: false, Message: "could not process redemption"}
	}

	if amount <= 0 {
		return &domain.RedemptionResult{Success: false, Message: "redemption amount must be positive"}
	}
	if account.Balance < domain.MinimumRedeemableBalance {
		return &domain.RedemptionResult{
			Success: false,
			Message: fmt.Sprintf("minimum balance of %.0f points required for redemption", domain.MinimumRedeemableBalance),
		}
	}
	if amount > account.Balance {
		return &domain.RedemptionResult{
			Success: false,
			Message: fmt.Sprintf("insufficient balance: available %.2f", account.Balance),
		}
	}

	monthStart := time.Date(time.Now().UTC().Year(), time.Now().UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	redeemed, err := s.store.SumRedemptionsSince(ctx, userID, monthStart)
	if err != nil {
		slog.Error("redeem: failed to sum monthly redemptions", "user_id", userID, "err", err)
		return &domain.RedemptionResult{Success: false, Message: "could not process redemption"}
	}
	monthlyCap := account.TrustLevel.MonthlyRedemptionCap()
	if redeemed+amount > monthlyCap {
		return &domain.RedemptionResult{
			Success: false,
			Message: fmt.Sprintf("monthly redemption cap for your trust level is %.0f points", monthlyCap),
		}
	}

	red := &domain.Redemption{
		RedemptionID:  id.New(),
		UserID:        userID,
		Amount:        amount,
		PayoutMethod:  payoutMethod,
		PayoutDetails: payoutDetails,
		Status:        "pending",
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.PutRedemption(ctx, red); err != nil {
		slog.Error("redeem: failed to write redemption", "user_id", userID, "err", err)
		return &domain.RedemptionResult{Success: false, Message: "could not process redemption"}
	}

	err = s.store.UpdateAccount(ctx, userID, map[string]interface{}{
		"balance": account.Balance - amount,
	})
	if err != nil {
		slog.Error("redeem: failed to deduct balance", "user_id", userID, "redemption_id", red.RedemptionID, "err", err)
		return &domain.RedemptionResult{Success: false, Message: "could not process redemption"}
	}

	return &domain.RedemptionResult{Success: true, RedemptionID: red.RedemptionID, Message: "redemption request submitted"}
}

// CheckForSpam is the pre-award gate: it counts the last hour's activity
// for (user, action) against the per-action threshold. A spam verdict
// also costs a trust penalty. Errors fail open; a broken spam check
// must not block legitimate earning.
func (s *service) CheckForSpam(ctx context.Context, userID, actionType string) *domain.SpamVerdict {
	hourAgo := time.Now().Add(-time.Hour)
	count, err := s.store.CountTransactionsSince(ctx, userID, actionType, hourAgo)
	if err != nil {
		slog.Error("spam check failed", "user_id", userID, "action", actionType, "err", err)
		return &domain.SpamVerdict{IsSpam: false}
	}

	threshold, ok := spamThresholds[actionType]
	if !ok {
		threshold = defaultSpamThreshold
	}
	if count <= threshold {
		return &domain.SpamVerdict{IsSpam: false}
	}

	reason := fmt.Sprintf("excessive %s activity (%d in the last hour)", actionType, count)
	s.UpdateTrustScore(ctx, userID, spamTrustPenalty, "spam detection: "+reason, actionType)
	return &domain.SpamVerdict{IsSpam: true, Reason: reason}
}

// ProcessReferral credits the referrer for bringing in refereeID. One
// referral per referee, ever.
func (s *service) ProcessReferral(ctx context.Context, referrerID, refereeID, referralCode string) *domain.RedemptionResult {
	if _, err := s.store.GetReferral(ctx, refereeID); err == nil {
		return &domain.RedemptionResult{Success: false, Message: "user already referred"}
	} else if !errors.Is(err, domain.ErrNotFound) {
		slog.Error("referral: lookup failed", "referee_id", refereeID, "err", err)
		return &domain.RedemptionResult{Success: false, Message: "could not process referral"}
	}

	ref := &domain.Referral{
		RefereeID:    refereeID,
		ReferrerID:   referrerID,
		ReferralCode: referralCode,
		Status:       "pending",
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.PutReferral(ctx, ref); err != nil {
		slog.Error("referral: failed to write referral", "referee_id", refereeID, "err", err)
		return &domain.RedemptionResult{Success: false, Message: "could not process referral"}
	}

	result := s.AwardPoints(ctx, referrerID, "refer_user", map[string]interface{}{
		"referee_id":    refereeID,
		"referral_code": referralCode,
	})
	if result == nil || !result.Success {
		msg := "failed to award referral reward"
		if result != nil {
			msg = result.Message
		}
		return &domain.RedemptionResult{Success: false, Message: msg}
	}

	err := s.store.UpdateReferral(ctx, refereeID, map[string]interface{}{
		"status":        "completed",
		"reward_earned": result.Amount,
	})
	if err != nil {
		slog.Warn("referral: failed to mark completed", "referee_id", refereeID, "err", err)
	}

	account, err := s.store.GetAccount(ctx, referrerID)
	if err == nil {
		_ = s.store.UpdateAccount(ctx, referrerID, map[string]interface{}{
			"referral_count": account.ReferralCount + 1,
		})
	}

	return &domain.RedemptionResult{Success: true, Message: fmt.Sprintf("referral successful, earned %.2f points", result.Amount)}
}

func (s *service) GetAccount(ctx context.Context, userID string) (*domain.RewardAccount, error) {
	return s.store.GetAccount(ctx, userID)
}
