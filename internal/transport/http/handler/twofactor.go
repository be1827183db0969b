package handler

import (
	"encoding/json"
	"net/http"

	"github.com/eloity/tiergate/internal/application/twofactor"
	"github.com/eloity/tiergate/internal/domain"
	"github.com/eloity/tiergate/internal/pkg/validate"
	"github.com/eloity/tiergate/internal/transport/http/middleware"
)

// TwoFactorHandler exposes the 2FA enrollment and challenge flows.
type TwoFactorHandler struct {
	svc twofactor.Service
}

func NewTwoFactorHandler(svc twofactor.Service) *TwoFactorHandler {
	return &TwoFactorHandler{svc: svc}
}

type setupRequest struct {
	Method      string `json:"method" validate:"required,oneof=email sms totp"`
	Destination string `json:"destination"`
}

// Setup starts an enrollment. TOTP returns the secret, QR and backup
// codes exactly once; email/SMS deliver the first code to destination.
func (h *TwoFactorHandler) Setup(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req setupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "method must be one of email, sms, totp")
		return
	}

	method := domain.TwoFactorMethodType(req.Method)
	if method == domain.MethodTOTP {
		setup, err := h.svc.EnrollTOTP(r.Context(), claims.UserID, claims.Email)
		if err != nil {
			httpError(w, err)
			return
		}
		writeData(w, http.StatusCreated, setup)
		return
	}

	if req.Destination == "" {
		writeError(w, http.StatusBadRequest, "destination is required for delivered methods")
		return
	}
	if err := h.svc.EnrollDelivered(r.Context(), claims.UserID, method, req.Destination); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessEnvelope{Success: true, Message: "verification code sent"})
}

type methodRequest struct {
	Method string `json:"method" validate:"required,oneof=email sms totp"`
}

// Confirm acknowledges that the client stored the secret, moving the
// enrollment from pending to confirmed.
func (h *TwoFactorHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req methodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "method must be one of email, sms, totp")
		return
	}
	if err := h.svc.Confirm(r.Context(), claims.UserID, domain.TwoFactorMethodType(req.Method)); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true, Message: "enrollment confirmed"})
}

type challengeRequest struct {
	Method      string `json:"method" validate:"required,oneof=email sms"`
	Destination string `json:"destination" validate:"required"`
}

// Challenge issues a fresh delivered code for email/SMS methods.
func (h *TwoFactorHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "method and destination are required")
		return
	}
	if err := h.svc.Challenge(r.Context(), claims.UserID, domain.TwoFactorMethodType(req.Method), req.Destination); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true, Message: "verification code sent"})
}

type verifyRequest struct {
	Method string `json:"method" validate:"required,oneof=email sms totp"`
	Code   string `json:"code" validate:"required"`
}

// Verify checks a presented code. A wrong code is a 200 with
// verified:false, not an error; the client renders the penalty state.
func (h *TwoFactorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "method and code are required")
		return
	}
	ok, err := h.svc.VerifyChallenge(r.Context(), claims.UserID, domain.TwoFactorMethodType(req.Method), req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"verified": ok})
}

type backupCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// BackupCode consumes one recovery code. A used or unknown code is
// verified:false; the code is removed on first successful use.
func (h *TwoFactorHandler) BackupCode(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req backupCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	ok, err := h.svc.UseBackupCode(r.Context(), claims.UserID, req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"verified": ok})
}

// Methods returns the caller's enrollment states plus the overall setup
// validity.
func (h *TwoFactorHandler) Methods(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	states, err := h.svc.MethodStates(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	validation := twofactor.Validate2FASetup(states)
	writeData(w, http.StatusOK, map[string]interface{}{
		"methods":    states,
		"validation": validation,
	})
}
