package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eloity/tiergate/internal/application/tier"
	"github.com/eloity/tiergate/internal/pkg/validate"
	"github.com/eloity/tiergate/internal/transport/http/middleware"
)

// TierHandler exposes the tier evaluator. Every route derives the target
// user from the bearer token; no endpoint accepts a user id in the
// request, so one user can never probe another's gates.
type TierHandler struct {
	svc tier.Service
}

func NewTierHandler(svc tier.Service) *TierHandler { return &TierHandler{svc: svc} }

// Current returns the caller's tier info. A missing profile is 404, a
// distinct outcome from any denial.
func (h *TierHandler) Current(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	info, err := h.svc.GetUserTierInfo(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, info)
}

// AccessSummary returns the accessible/restricted partition of every gate.
func (h *TierHandler) AccessSummary(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.svc.GetTierAccessSummary(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

type checkAccessRequest struct {
	FeatureName string `json:"featureName" validate:"required"`
}

// CheckAccess evaluates one named gate for the caller. A denial is a 200
// with allowed:false; only a missing featureName is a 400.
func (h *TierHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req checkAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "featureName is required")
		return
	}
	decision, err := h.svc.CanAccessFeature(r.Context(), claims.UserID, req.FeatureName)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"feature":      req.FeatureName,
		"allowed":      decision.Allowed,
		"reason":       decision.Reason,
		"requires_kyc": decision.RequiresKYC,
	})
}

// UpgradeAfterKYC runs the tier-1 to tier-2 transition. An already
// upgraded user gets the same success response; only a missing profile
// or an upstream failure is an error.
func (h *TierHandler) UpgradeAfterKYC(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	upgraded, err := h.svc.UpgradeTierAfterKYC(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	info, err := h.svc.GetUserTierInfo(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	msg := "tier already upgraded"
	if upgraded {
		msg = "tier upgraded to tier_2"
	}
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true, Message: msg, Data: info})
}

// Features returns the same partition as AccessSummary in the flat shape
// the settings page consumes.
func (h *TierHandler) Features(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	summary, err := h.svc.GetTierAccessSummary(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{
		"current_tier": summary.CurrentTier,
		"accessible":   summary.AccessibleFeatures,
		"restricted":   summary.RestrictedFeatures,
		"kyc_verified": summary.KYCVerified,
	})
}
