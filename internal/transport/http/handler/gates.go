package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eloity/tiergate/internal/application/tier"
	"github.com/eloity/tiergate/internal/domain"
	"github.com/eloity/tiergate/internal/pkg/validate"
)

// GateWriter is the admin-side gate store. It extends the evaluator's
// read-only view with upserts.
type GateWriter interface {
	tier.GateStore
	Put(ctx context.Context, g *domain.FeatureGate) error
}

// FeatureGateHandler is the admin CRUD surface for gate rules. Changes
// take effect on the next evaluation, no deploy needed.
type FeatureGateHandler struct {
	gates GateWriter
}

func NewFeatureGateHandler(gates GateWriter) *FeatureGateHandler {
	return &FeatureGateHandler{gates: gates}
}

func (h *FeatureGateHandler) List(w http.ResponseWriter, r *http.Request) {
	gates, err := h.gates.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, gates)
}

func (h *FeatureGateHandler) Get(w http.ResponseWriter, r *http.Request) {
	g, err := h.gates.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, g)
}

// Upsert creates or replaces the rule for one feature name.
func (h *FeatureGateHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req domain.FeatureGateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "tier_1_access, tier_2_access and requires_kyc are required")
		return
	}
	g := &domain.FeatureGate{
		FeatureName: name,
		Description: req.Description,
		Tier1Access: *req.Tier1Access,
		Tier2Access: *req.Tier2Access,
		RequiresKYC: *req.RequiresKYC,
	}
	if err := h.gates.Put(r.Context(), g); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, g)
}
