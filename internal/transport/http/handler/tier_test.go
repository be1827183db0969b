package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eloity/tiergate/internal/domain"
	jwtinfra "github.com/eloity/tiergate/internal/infrastructure/jwt"
	"github.com/eloity/tiergate/internal/transport/http/middleware"
)

// --- mock ---

type mockTierSvc struct{ mock.Mock }

func (m *mockTierSvc) GetUserTierInfo(ctx context.Context, userID string) (*domain.TierInfo, error) {
	args := m.Called(ctx, userID)
	if i, _ := args.Get(0).(*domain.TierInfo); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTierSvc) CanAccessFeature(ctx context.Context, userID, featureName string) (*domain.AccessDecision, error) {
	args := m.Called(ctx, userID, featureName)
	if d, _ := args.Get(0).(*domain.AccessDecision); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTierSvc) GetTierAccessSummary(ctx context.Context, userID string) (*domain.AccessSummary, error) {
	args := m.Called(ctx, userID)
	if s, _ := args.Get(0).(*domain.AccessSummary); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTierSvc) UpgradeTierAfterKYC(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTierSvc) IsTier2Verified(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockTierSvc) RecordKYCTrigger(ctx context.Context, userID, reason string) {
	m.Called(ctx, userID, reason)
}

// withClaims injects bearer claims for userID into the request context.
func withClaims(r *http.Request, userID, role string) *http.Request {
	claims := &jwtinfra.Claims{UserID: userID, Role: role}
	return r.WithContext(context.WithValue(r.Context(), middleware.ClaimsKey, claims))
}

// --- Current ---

func TestTierCurrent_MissingClaims(t *testing.T) {
	h := NewTierHandler(&mockTierSvc{})
	r := httptest.NewRequest(http.MethodGet, "/v1/tier/current", nil)
	rr := httptest.NewRecorder()
	h.Current(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTierCurrent_MissingProfile_NotFound(t *testing.T) {
	svc := &mockTierSvc{}
	svc.On("GetUserTierInfo", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	h := NewTierHandler(svc)

	r := withClaims(httptest.NewRequest(http.MethodGet, "/v1/tier/current", nil), "ghost", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Current(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTierCurrent_HappyPath(t *testing.T) {
	svc := &mockTierSvc{}
	svc.On("GetUserTierInfo", mock.Anything, "u1").Return(&domain.TierInfo{
		UserID: "u1", TierLevel: domain.Tier1,
	}, nil)
	h := NewTierHandler(svc)

	r := withClaims(httptest.NewRequest(http.MethodGet, "/v1/tier/current", nil), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Current(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Success bool            `json:"success"`
		Data    domain.TierInfo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, domain.Tier1, resp.Data.TierLevel)
	svc.AssertExpectations(t)
}

// --- CheckAccess ---

func TestCheckAccess_MissingFeatureName(t *testing.T) {
	h := NewTierHandler(&mockTierSvc{})
	body := []byte(`{}`)
	r := withClaims(httptest.NewRequest(http.MethodPost, "/v1/tier/check-access", bytes.NewReader(body)), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.CheckAccess(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckAccess_InvalidBody(t *testing.T) {
	h := NewTierHandler(&mockTierSvc{})
	r := withClaims(httptest.NewRequest(http.MethodPost, "/v1/tier/check-access", bytes.NewBufferString("not-json")), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.CheckAccess(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckAccess_Denied_IsStillOK(t *testing.T) {
	svc := &mockTierSvc{}
	svc.On("CanAccessFeature", mock.Anything, "u1", "crypto_trade").Return(&domain.AccessDecision{
		Allowed: false, Reason: "this feature requires KYC verification", RequiresKYC: true,
	}, nil)
	h := NewTierHandler(svc)

	body, _ := json.Marshal(map[string]string{"featureName": "crypto_trade"})
	r := withClaims(httptest.NewRequest(http.MethodPost, "/v1/tier/check-access", bytes.NewReader(body)), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.CheckAccess(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Feature     string `json:"feature"`
			Allowed     bool   `json:"allowed"`
			Reason      string `json:"reason"`
			RequiresKYC bool   `json:"requires_kyc"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Data.Allowed)
	assert.True(t, resp.Data.RequiresKYC)
	assert.Equal(t, "crypto_trade", resp.Data.Feature)
	svc.AssertExpectations(t)
}

// --- UpgradeAfterKYC ---

func TestUpgradeAfterKYC_Idempotent(t *testing.T) {
	svc := &mockTierSvc{}
	svc.On("UpgradeTierAfterKYC", mock.Anything, "u2").Return(false, nil)
	svc.On("GetUserTierInfo", mock.Anything, "u2").Return(&domain.TierInfo{
		UserID: "u2", TierLevel: domain.Tier2, KYCVerified: true,
	}, nil)
	h := NewTierHandler(svc)

	r := withClaims(httptest.NewRequest(http.MethodPost, "/v1/tier/upgrade-after-kyc", nil), "u2", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.UpgradeAfterKYC(rr, r)

	// Already upgraded is still a success, not an error.
	assert.Equal(t, http.StatusOK, rr.Code)
	var resp SuccessEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "tier already upgraded", resp.Message)
}

func TestUpgradeAfterKYC_MissingProfile(t *testing.T) {
	svc := &mockTierSvc{}
	svc.On("UpgradeTierAfterKYC", mock.Anything, "ghost").Return(false, domain.ErrNotFound)
	h := NewTierHandler(svc)

	r := withClaims(httptest.NewRequest(http.MethodPost, "/v1/tier/upgrade-after-kyc", nil), "ghost", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.UpgradeAfterKYC(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- Features ---

func TestFeatures_FlatShape(t *testing.T) {
	svc := &mockTierSvc{}
	svc.On("GetTierAccessSummary", mock.Anything, "u1").Return(&domain.AccessSummary{
		UserID:             "u1",
		CurrentTier:        domain.Tier1,
		AccessibleFeatures: []string{"social_posting"},
		RestrictedFeatures: []domain.RestrictedFeature{{Name: "crypto_trade", RequiresKYC: true}},
	}, nil)
	h := NewTierHandler(svc)

	r := withClaims(httptest.NewRequest(http.MethodGet, "/v1/tier/features", nil), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Features(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "tier_1", resp.Data["current_tier"])
	assert.Len(t, resp.Data["accessible"], 1)
	assert.Len(t, resp.Data["restricted"], 1)
}

// --- error mapping ---

func TestHTTPError_UpstreamFailure_IsGeneric(t *testing.T) {
	svc := &mockTierSvc{}
	svc.On("GetUserTierInfo", mock.Anything, "u1").Return(nil, assert.AnError)
	h := NewTierHandler(svc)

	r := withClaims(httptest.NewRequest(http.MethodGet, "/v1/tier/current", nil), "u1", domain.RoleUser)
	rr := httptest.NewRecorder()
	h.Current(rr, r)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp ErrorEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "internal server error", resp.Error)
}
