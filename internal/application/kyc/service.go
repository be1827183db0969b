package kyc

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/eloity/tiergate/internal/domain"
	"github.com/eloity/tiergate/internal/pkg/id"
)

// DocumentStore holds submitted identity documents.
type DocumentStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// ProfileStore is the slice of the profile table KYC needs.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*domain.TierProfile, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// Upgrader runs the tier transition once a review approves.
type Upgrader interface {
	UpgradeTierAfterKYC(ctx context.Context, userID string) (bool, error)
}

// reviewURLTTL bounds how long a reviewer's document link stays live.
const reviewURLTTL = 15 * time.Minute

// Service drives the KYC document flow: submit -> pending -> review ->
// approved (tier upgrade) or rejected.
type Service interface {
	SubmitDocument(ctx context.Context, userID, docType, contentType string, data io.Reader) error
	Review(ctx context.Context, userID string, approve bool, note string) error
	DocumentURL(ctx context.Context, userID string) (string, error)
}

type service struct {
	docs     DocumentStore
	profiles ProfileStore
	upgrader Upgrader
}

func NewService(docs DocumentStore, profiles ProfileStore, upgrader Upgrader) Service {
	return &service{docs: docs, profiles: profiles, upgrader: upgrader}
}

// SubmitDocument stores the document and moves the profile to pending
// review. Resubmission after a rejection overwrites the previous state.
func (s *service) SubmitDocument(ctx context.Context, userID, docType, contentType string, data io.Reader) error {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p.KYCStatus == domain.KYCApproved {
		return fmt.Errorf("kyc already approved: %w", domain.ErrConflict)
	}
	if p.KYCStatus == domain.KYCPending {
		return fmt.Errorf("kyc review already pending: %w", domain.ErrConflict)
	}

	key := fmt.Sprintf("kyc/%s/%s-%s", userID, id.New(), docType)
	if err := s.docs.Upload(ctx, key, data, contentType); err != nil {
		return err
	}
	return s.profiles.Update(ctx, userID, map[string]interface{}{
		"kyc_status":       string(domain.KYCPending),
		"kyc_document_key": key,
	})
}

// Review settles a pending submission. Approval hands off to the tier
// upgrader; rejection records the reviewer's note so the user can fix
// and resubmit.
func (s *service) Review(ctx context.Context, userID string, approve bool, note string) error {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p.KYCStatus != domain.KYCPending {
		return fmt.Errorf("no pending kyc review: %w", domain.ErrConflict)
	}

	if !approve {
		return s.profiles.Update(ctx, userID, map[string]interface{}{
			"kyc_status":         string(domain.KYCRejected),
			"kyc_trigger_reason": note,
		})
	}

	_, err = s.upgrader.UpgradeTierAfterKYC(ctx, userID)
	return err
}

// DocumentURL returns a short-lived presigned link to the submitted
// document for a reviewer.
func (s *service) DocumentURL(ctx context.Context, userID string) (string, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if p.KYCDocumentKey == "" {
		return "", fmt.Errorf("no kyc document on file: %w", domain.ErrNotFound)
	}
	return s.docs.PresignedURL(ctx, p.KYCDocumentKey, reviewURLTTL)
}
