package reward

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eloity/tiergate/internal/domain"
)

// --- mock ---

type mockStore struct{ mock.Mock }

func (m *mockStore) GetAccount(ctx context.Context, userID string) (*domain.RewardAccount, error) {
	args := m.Called(ctx, userID)
	if a, _ := args.Get(0).(*domain.RewardAccount); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) PutAccount(ctx context.Context, a *domain.RewardAccount) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockStore) UpdateAccount(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}

func (m *mockStore) PutTransaction(ctx context.Context, t *domain.RewardTransaction) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockStore) CountTransactionsSince(ctx context.Context, userID, actionType string, since time.Time) (int, error) {
	args := m.Called(ctx, userID, actionType, since)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) PutRedemption(ctx context.Context, r *domain.Redemption) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) SumRedemptionsSince(ctx context.Context, userID string, since time.Time) (float64, error) {
	args := m.Called(ctx, userID, since)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockStore) GetReferral(ctx context.Context, refereeID string) (*domain.Referral, error) {
	args := m.Called(ctx, refereeID)
	if r, _ := args.Get(0).(*domain.Referral); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) PutReferral(ctx context.Context, r *domain.Referral) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) UpdateReferral(ctx context.Context, refereeID string, updates map[string]interface{}) error {
	return m.Called(ctx, refereeID, updates).Error(0)
}

func silverAccount(userID string, balance float64) *domain.RewardAccount {
	return &domain.RewardAccount{
		UserID:     userID,
		Balance:    balance,
		TrustScore: 50,
		TrustLevel: domain.TrustSilver,
	}
}

// --- AwardPoints ---

func TestAwardPoints_UnknownAction(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)

	result := svc.AwardPoints(context.Background(), "u1", "blink", nil)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	store.AssertNotCalled(t, "UpdateAccount", mock.Anything, mock.Anything, mock.Anything)
}

func TestAwardPoints_TrustTooLow(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(&domain.RewardAccount{
		UserID: "u1", TrustScore: 10, TrustLevel: domain.TrustBronze,
	}, nil)

	result := svc.AwardPoints(context.Background(), "u1", "complete_sale", nil)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "trust score too low")
}

func TestAwardPoints_DailyLimitReached(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(silverAccount("u1", 0), nil)
	store.On("CountTransactionsSince", mock.Anything, "u1", "daily_login", mock.Anything).Return(1, nil)

	result := svc.AwardPoints(context.Background(), "u1", "daily_login", nil)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "daily limit")
}

func TestAwardPoints_AppliesTrustMultiplier(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(silverAccount("u1", 100), nil)
	store.On("CountTransactionsSince", mock.Anything, "u1", "like_post", mock.Anything).Return(0, nil)
	// like_post base 0.5 at the silver 1.2x multiplier.
	store.On("UpdateAccount", mock.Anything, "u1", map[string]interface{}{
		"balance":      100.6,
		"total_earned": 0.6,
	}).Return(nil)
	store.On("PutTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.RewardTransaction) bool {
		return tx.UserID == "u1" && tx.ActionType == "like_post" && tx.Amount == 0.6 && tx.Multiplier == 1.2
	})).Return(nil)

	result := svc.AwardPoints(context.Background(), "u1", "like_post", nil)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	assert.Equal(t, 0.6, result.Amount)
	store.AssertExpectations(t)
}

func TestAwardPoints_FirstEarnProvisionsAccount(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "fresh").Return(nil, domain.ErrNotFound)
	store.On("PutAccount", mock.Anything, mock.MatchedBy(func(a *domain.RewardAccount) bool {
		return a.UserID == "fresh" && a.TrustScore == 50 && a.TrustLevel == domain.TrustSilver
	})).Return(nil)
	store.On("CountTransactionsSince", mock.Anything, "fresh", "daily_login", mock.Anything).Return(0, nil)
	store.On("UpdateAccount", mock.Anything, "fresh", mock.Anything).Return(nil)
	store.On("PutTransaction", mock.Anything, mock.Anything).Return(nil)

	result := svc.AwardPoints(context.Background(), "fresh", "daily_login", nil)
	require.NotNil(t, result)
	assert.True(t, result.Success)
	store.AssertExpectations(t)
}

func TestAwardPoints_InfraError_ReturnsNil(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(nil, assert.AnError)

	result := svc.AwardPoints(context.Background(), "u1", "daily_login", nil)
	assert.Nil(t, result)
}

// --- UpdateTrustScore ---

func TestUpdateTrustScore_ClampsToHundred(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(&domain.RewardAccount{
		UserID: "u1", TrustScore: 99, TrustLevel: domain.TrustDiamond,
	}, nil)
	store.On("UpdateAccount", mock.Anything, "u1", map[string]interface{}{
		"trust_score": 100.0,
		"trust_level": string(domain.TrustDiamond),
	}).Return(nil)
	store.On("PutTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.RewardTransaction) bool {
		return tx.ActionType == "trust_adjustment" && tx.Amount == 0
	})).Return(nil)

	ok := svc.UpdateTrustScore(context.Background(), "u1", 5, "quality content", "post_content")
	assert.True(t, ok)
	store.AssertExpectations(t)
}

func TestUpdateTrustScore_ClampsToZero_AndRebuckets(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(&domain.RewardAccount{
		UserID: "u1", TrustScore: 41, TrustLevel: domain.TrustSilver,
	}, nil)
	store.On("UpdateAccount", mock.Anything, "u1", map[string]interface{}{
		"trust_score": 0.0,
		"trust_level": string(domain.TrustBronze),
	}).Return(nil)
	store.On("PutTransaction", mock.Anything, mock.Anything).Return(nil)

	ok := svc.UpdateTrustScore(context.Background(), "u1", -50, "abuse", "comment_post")
	assert.True(t, ok)
	store.AssertExpectations(t)
}

// --- RequestRedemption ---

func TestRequestRedemption_BelowMinimumBalance(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(silverAccount("u1", 300), nil)

	result := svc.RequestRedemption(context.Background(), "u1", 100, "bank_transfer", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "minimum balance")
	store.AssertNotCalled(t, "PutRedemption", mock.Anything, mock.Anything)
}

func TestRequestRedemption_OverBalance(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(silverAccount("u1", 600), nil)

	result := svc.RequestRedemption(context.Background(), "u1", 700, "bank_transfer", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "insufficient balance")
}

func TestRequestRedemption_OverMonthlyCap(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	// Silver caps at 5000/month.
	store.On("GetAccount", mock.Anything, "u1").Return(silverAccount("u1", 6000), nil)
	store.On("SumRedemptionsSince", mock.Anything, "u1", mock.Anything).Return(4900.0, nil)

	result := svc.RequestRedemption(context.Background(), "u1", 200, "bank_transfer", nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "monthly redemption cap")
	store.AssertNotCalled(t, "PutRedemption", mock.Anything, mock.Anything)
}

func TestRequestRedemption_HappyPath_DeductsBalance(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetAccount", mock.Anything, "u1").Return(silverAccount("u1", 1000), nil)
	store.On("SumRedemptionsSince", mock.Anything, "u1", mock.Anything).Return(0.0, nil)
	store.On("PutRedemption", mock.Anything, mock.MatchedBy(func(r *domain.Redemption) bool {
		return r.UserID == "u1" && r.Amount == 600 && r.Status == "pending"
	})).Return(nil)
	store.On("UpdateAccount", mock.Anything, "u1", map[string]interface{}{
		"balance": 400.0,
	}).Return(nil)

	result := svc.RequestRedemption(context.Background(), "u1", 600, "bank_transfer", nil)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.RedemptionID)
	store.AssertExpectations(t)
}

// --- CheckForSpam ---

func TestCheckForSpam_UnderThreshold(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("CountTransactionsSince", mock.Anything, "u1", "post_content", mock.Anything).Return(3, nil)

	verdict := svc.CheckForSpam(context.Background(), "u1", "post_content")
	assert.False(t, verdict.IsSpam)
}

func TestCheckForSpam_OverThreshold_PenalizesTrust(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	// post_content threshold is 5/hour.
	store.On("CountTransactionsSince", mock.Anything, "u1", "post_content", mock.Anything).Return(6, nil)
	store.On("GetAccount", mock.Anything, "u1").Return(silverAccount("u1", 0), nil)
	store.On("UpdateAccount", mock.Anything, "u1", map[string]interface{}{
		"trust_score": 48.0,
		"trust_level": string(domain.TrustSilver),
	}).Return(nil)
	store.On("PutTransaction", mock.Anything, mock.MatchedBy(func(tx *domain.RewardTransaction) bool {
		return tx.ActionType == "trust_adjustment"
	})).Return(nil)

	verdict := svc.CheckForSpam(context.Background(), "u1", "post_content")
	assert.True(t, verdict.IsSpam)
	assert.Contains(t, verdict.Reason, "post_content")
	store.AssertExpectations(t)
}

func TestCheckForSpam_CountError_FailsOpen(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("CountTransactionsSince", mock.Anything, "u1", "like_post", mock.Anything).Return(0, assert.AnError)

	verdict := svc.CheckForSpam(context.Background(), "u1", "like_post")
	assert.False(t, verdict.IsSpam)
}

// --- ProcessReferral ---

func TestProcessReferral_DuplicateReferee(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetReferral", mock.Anything, "bob").Return(&domain.Referral{RefereeID: "bob"}, nil)

	result := svc.ProcessReferral(context.Background(), "alice", "bob", "ALICE10")
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "already referred")
	store.AssertNotCalled(t, "PutReferral", mock.Anything, mock.Anything)
}

func TestProcessReferral_HappyPath(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	store.On("GetReferral", mock.Anything, "bob").Return(nil, domain.ErrNotFound)
	store.On("PutReferral", mock.Anything, mock.MatchedBy(func(r *domain.Referral) bool {
		return r.RefereeID == "bob" && r.ReferrerID == "alice"
	})).Return(nil)
	// refer_user needs trust >= 30; silver at 50 qualifies.
	store.On("GetAccount", mock.Anything, "alice").Return(silverAccount("alice", 0), nil)
	store.On("UpdateAccount", mock.Anything, "alice", mock.Anything).Return(nil)
	store.On("PutTransaction", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateReferral", mock.Anything, "bob", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["status"] == "completed"
	})).Return(nil)

	result := svc.ProcessReferral(context.Background(), "alice", "bob", "ALICE10")
	assert.True(t, result.Success)
	store.AssertExpectations(t)
}
