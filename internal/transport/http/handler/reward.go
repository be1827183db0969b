package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eloity/tiergate/internal/application/reward"
	"github.com/eloity/tiergate/internal/pkg/validate"
	"github.com/eloity/tiergate/internal/transport/http/middleware"
)

// RewardHandler exposes the reward/trust ledger.
type RewardHandler struct {
	svc reward.Service
}

func NewRewardHandler(svc reward.Service) *RewardHandler { return &RewardHandler{svc: svc} }

type earnRequest struct {
	ActionType string                 `json:"action_type" validate:"required"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// Earn records one earning action. The spam gate runs first; a spam
// verdict skips the award entirely, there is no award-then-reverse path.
func (h *RewardHandler) Earn(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req earnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "action_type is required")
		return
	}

	verdict := h.svc.CheckForSpam(r.Context(), claims.UserID, req.ActionType)
	if verdict.IsSpam {
		writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true, Data: map[string]interface{}{
			"success": false,
			"message": "activity flagged as spam: " + verdict.Reason,
		}})
		return
	}

	result := h.svc.AwardPoints(r.Context(), claims.UserID, req.ActionType, req.Metadata)
	if result == nil {
		writeError(w, http.StatusInternalServerError, "could not process award")
		return
	}
	writeData(w, http.StatusOK, result)
}

type redeemRequest struct {
	Amount        float64                `json:"amount" validate:"required,gt=0"`
	PayoutMethod  string                 `json:"payout_method" validate:"required"`
	PayoutDetails map[string]interface{} `json:"payout_details"`
}

// Redeem submits a payout request against the caller's balance.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "amount and payout_method are required")
		return
	}
	result := h.svc.RequestRedemption(r.Context(), claims.UserID, req.Amount, req.PayoutMethod, req.PayoutDetails)
	writeData(w, http.StatusOK, result)
}

type referralRequest struct {
	RefereeID    string `json:"referee_id" validate:"required"`
	ReferralCode string `json:"referral_code"`
}

// Referral credits the caller for bringing in referee_id. One referral
// per referee, ever.
func (h *RewardHandler) Referral(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req referralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "referee_id is required")
		return
	}
	result := h.svc.ProcessReferral(r.Context(), claims.UserID, req.RefereeID, req.ReferralCode)
	writeData(w, http.StatusOK, result)
}

// Summary returns the caller's reward account.
func (h *RewardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	account, err := h.svc.GetAccount(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, account)
}
