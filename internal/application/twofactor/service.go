package twofactor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eloity/tiergate/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// EnrollmentStore is the persistence the service needs for enrollments.
type EnrollmentStore interface {
	Put(ctx context.Context, e *domain.TwoFactorEnrollment) error
	Get(ctx context.Context, userID string, method domain.TwoFactorMethodType) (*domain.TwoFactorEnrollment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.TwoFactorEnrollment, error)
	Update(ctx context.Context, userID string, method domain.TwoFactorMethodType, updates map[string]interface{}) error
}

// CodeStore persists delivered email/SMS codes.
type CodeStore interface {
	Put(ctx context.Context, v *domain.VerificationCode) error
	Get(ctx context.Context, userID, purpose string) (*domain.VerificationCode, error)
	Delete(ctx context.Context, userID, purpose string) error
}

// Mailer delivers email codes.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

// SMSSender delivers SMS codes.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Service runs the persisted enrollment flow on top of the pure
// code/TOTP helpers. Pending -> confirmed -> verified; only a verified
// enrollment counts toward a valid 2FA setup.
type Service interface {
	EnrollTOTP(ctx context.Context, userID, email string) (*domain.TwoFactorSetup, error)
	EnrollDelivered(ctx context.Context, userID string, method domain.TwoFactorMethodType, destination string) error
	Confirm(ctx context.Context, userID string, method domain.TwoFactorMethodType) error
	Challenge(ctx context.Context, userID string, method domain.TwoFactorMethodType, destination string) error
	VerifyChallenge(ctx context.Context, userID string, method domain.TwoFactorMethodType, code string) (bool, error)
	UseBackupCode(ctx context.Context, userID, code string) (bool, error)
	MethodStates(ctx context.Context, userID string) ([]domain.TwoFactorMethodState, error)
}

type service struct {
	enrollments EnrollmentStore
	codes       CodeStore
	mailer      Mailer
	sms         SMSSender
	issuer      string
}

// ServiceDeps bundles the service's collaborators.
type ServiceDeps struct {
	Enrollments EnrollmentStore
	Codes       CodeStore
	Mailer      Mailer
	SMS         SMSSender
	TOTPIssuer  string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		enrollments: deps.Enrollments,
		codes:       deps.Codes,
		mailer:      deps.Mailer,
		sms:         deps.SMS,
		issuer:      deps.TOTPIssuer,
	}
}

// EnrollTOTP creates a pending TOTP enrollment. The secret and plaintext
// backup codes are returned once; only bcrypt hashes of the codes are
// persisted.
func (s *service) EnrollTOTP(ctx context.Context, userID, email string) (*domain.TwoFactorSetup, error) {
	setup, err := SetupTOTP(s.issuer, email)
	if err != nil {
		return nil, err
	}

	hashes := make([]string, len(setup.BackupCodes))
	for i, code := range setup.BackupCodes {
		h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash backup code: %w", err)
		}
		hashes[i] = string(h)
	}

	now := time.Now().UTC()
	enrollment := &domain.TwoFactorEnrollment{
		UserID:           userID,
		Method:           domain.MethodTOTP,
		Status:           domain.StatusPending,
		Secret:           setup.Secret,
		BackupCodeHashes: hashes,
		Enabled:          false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.enrollments.Put(ctx, enrollment); err != nil {
		return nil, err
	}
	return setup, nil
}

// EnrollDelivered starts an email or SMS enrollment by sending the first
// code to the destination address/number.
func (s *service) EnrollDelivered(ctx context.Context, userID string, method domain.TwoFactorMethodType, destination string) error {
	if method != domain.MethodEmail && method != domain.MethodSMS {
		return fmt.Errorf("method %s does not use delivered codes: %w", method, domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	enrollment := &domain.TwoFactorEnrollment{
		UserID:    userID,
		Method:    method,
		Status:    domain.StatusPending,
		Enabled:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.enrollments.Put(ctx, enrollment); err != nil {
		return err
	}
	return s.Challenge(ctx, userID, method, destination)
}

// Confirm acknowledges that the client has stored the secret/QR,
// moving a pending enrollment to confirmed.
func (s *service) Confirm(ctx context.Context, userID string, method domain.TwoFactorMethodType) error {
	e, err := s.enrollments.Get(ctx, userID, method)
	if err != nil {
		return err
	}
	if e.Status != domain.StatusPending {
		return fmt.Errorf("enrollment is %s, not pending: %w", e.Status, domain.ErrConflict)
	}
	return s.enrollments.Update(ctx, userID, method, map[string]interface{}{
		"status": string(domain.StatusConfirmed),
	})
}

// Challenge issues and delivers a fresh code for email/SMS methods.
// TOTP needs no challenge; the authenticator generates codes locally.
func (s *service) Challenge(ctx context.Context, userID string, method domain.TwoFactorMethodType, destination string) error {
	if method == domain.MethodTOTP {
		return fmt.Errorf("totp does not use delivered challenges: %w", domain.ErrBadRequest)
	}
	sc, err := GenerateSecureCode()
	if err != nil {
		return err
	}
	v := &domain.VerificationCode{
		UserID:    userID,
		Purpose:   codePurpose(method),
		Code:      sc.Code,
		ExpiresAt: sc.ExpiresAt.Unix(),
	}
	if err := s.codes.Put(ctx, v); err != nil {
		return err
	}

	msg := "Your Eloity verification code: " + sc.Code
	switch method {
	case domain.MethodEmail:
		return s.mailer.SendEmail(destination, "Your verification code", msg)
	default:
		return s.sms.SendSMS(ctx, destination, msg)
	}
}

// VerifyChallenge checks a presented code. TOTP tokens are validated
// against the stored secret with the drift window; delivered codes are
// compared against the stored row and consumed. A first success promotes
// the enrollment to verified and enables it.
func (s *service) VerifyChallenge(ctx context.Context, userID string, method domain.TwoFactorMethodType, code string) (bool, error) {
	e, err := s.enrollments.Get(ctx, userID, method)
	if err != nil {
		return false, err
	}

	var ok bool
	switch method {
	case domain.MethodTOTP:
		ok = VerifyTOTP(e.Secret, code)
	default:
		v, err := s.codes.Get(ctx, userID, codePurpose(method))
		if err != nil {
			return false, err
		}
		if v.ExpiresAt < time.Now().Unix() {
			return false, nil
		}
		ok = v.Code == code
		if ok {
			if err := s.codes.Delete(ctx, userID, codePurpose(method)); err != nil {
				slog.Warn("failed to delete consumed verification code", "user_id", userID, "err", err)
			}
		}
	}

	if ok && e.Status != domain.StatusVerified {
		err := s.enrollments.Update(ctx, userID, method, map[string]interface{}{
			"status":  string(domain.StatusVerified),
			"enabled": true,
		})
		if err != nil {
			return false, err
		}
	}
	return ok, nil
}

// UseBackupCode consumes one recovery code. Codes are stored as bcrypt
// hashes; a matched hash is removed so the code can never be replayed.
func (s *service) UseBackupCode(ctx context.Context, userID, code string) (bool, error) {
	e, err := s.enrollments.Get(ctx, userID, domain.MethodTOTP)
	if err != nil {
		return false, err
	}
	matchIdx := -1
	for i, h := range e.BackupCodeHashes {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(code)) == nil {
			matchIdx = i
			break
		}
	}
	if matchIdx < 0 {
		return false, nil
	}
	remaining := append([]string{}, e.BackupCodeHashes[:matchIdx]...)
	remaining = append(remaining, e.BackupCodeHashes[matchIdx+1:]...)
	err = s.enrollments.Update(ctx, userID, domain.MethodTOTP, map[string]interface{}{
		"backup_code_hashes": remaining,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// MethodStates returns the caller-visible view of every enrollment, in
// the shape Validate2FASetup consumes.
func (s *service) MethodStates(ctx context.Context, userID string) ([]domain.TwoFactorMethodState, error) {
	enrollments, err := s.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	states := make([]domain.TwoFactorMethodState, len(enrollments))
	for i, e := range enrollments {
		states[i] = domain.TwoFactorMethodState{
			Method:   e.Method,
			Enabled:  e.Enabled,
			Verified: e.Status == domain.StatusVerified,
		}
	}
	return states, nil
}

func codePurpose(method domain.TwoFactorMethodType) string {
	return "2fa_" + string(method)
}
