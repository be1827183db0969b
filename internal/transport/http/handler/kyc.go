package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eloity/tiergate/internal/application/kyc"
	"github.com/eloity/tiergate/internal/transport/http/middleware"
)

// maxDocumentSize caps KYC document uploads at 10 MiB.
const maxDocumentSize = 10 << 20

// KYCHandler exposes the document submission and review flow.
type KYCHandler struct {
	svc kyc.Service
}

func NewKYCHandler(svc kyc.Service) *KYCHandler { return &KYCHandler{svc: svc} }

// SubmitDocument accepts a multipart identity document from the caller
// and queues it for review.
func (h *KYCHandler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxDocumentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("document")
	if err != nil {
		writeError(w, http.StatusBadRequest, "document file is required")
		return
	}
	defer file.Close()

	docType := r.FormValue("document_type")
	if docType == "" {
		docType = "id"
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.svc.SubmitDocument(r.Context(), claims.UserID, docType, contentType, file); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessEnvelope{Success: true, Message: "document submitted for review"})
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

// Review settles a pending submission. Admin only; approval triggers
// the tier upgrade.
func (h *KYCHandler) Review(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.Review(r.Context(), userID, req.Approve, req.Note); err != nil {
		httpError(w, err)
		return
	}
	msg := "kyc rejected"
	if req.Approve {
		msg = "kyc approved"
	}
	writeJSON(w, http.StatusOK, SuccessEnvelope{Success: true, Message: msg})
}

// DocumentURL returns a short-lived presigned link to a user's document.
// Admin only.
func (h *KYCHandler) DocumentURL(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	url, err := h.svc.DocumentURL(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"url": url})
}
