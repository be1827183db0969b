package twofactor

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/eloity/tiergate/internal/domain"
)

// DefaultCodeExpiry is how long a delivered verification code stays valid.
const DefaultCodeExpiry = 10 * time.Minute

// DefaultBackupCodeCount is how many recovery codes a setup issues.
const DefaultBackupCodeCount = 10

// GenerateVerificationCode returns a 6-digit numeric code, uniformly
// distributed over 000000-999999 and left-padded.
func GenerateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// SecureCode pairs a verification code with its expiry.
type SecureCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerateSecureCode returns a fresh code expiring DefaultCodeExpiry from now.
func GenerateSecureCode() (SecureCode, error) {
	code, err := GenerateVerificationCode()
	if err != nil {
		return SecureCode{}, err
	}
	return SecureCode{Code: code, ExpiresAt: time.Now().Add(DefaultCodeExpiry)}, nil
}

// IsCodeExpired reports whether a code generated at generatedAt has
// outlived expiryMinutes. The comparison is strict: a code presented at
// exactly the boundary is still valid.
func IsCodeExpired(generatedAt time.Time, expiryMinutes int) bool {
	return IsCodeExpiredAt(generatedAt, expiryMinutes, time.Now())
}

// IsCodeExpiredAt is IsCodeExpired evaluated at an explicit instant.
func IsCodeExpiredAt(generatedAt time.Time, expiryMinutes int, now time.Time) bool {
	deadline := generatedAt.Add(time.Duration(expiryMinutes) * time.Minute)
	return now.After(deadline)
}

// GenerateBackupCodes returns count single-use recovery codes, each 8
// uppercase hex characters from a cryptographically strong source.
// Backup codes are the recovery path of last resort, so unpredictability
// here is a hard requirement.
func GenerateBackupCodes(count int) ([]string, error) {
	if count <= 0 {
		count = DefaultBackupCodeCount
	}
	codes := make([]string, count)
	buf := make([]byte, 4)
	for i := range codes {
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate backup code: %w", err)
		}
		codes[i] = strings.ToUpper(hex.EncodeToString(buf))
	}
	return codes, nil
}

// VerifyBackupCode checks code against the supplied list. On a match it
// returns valid=true and a remaining list with that one code removed; on
// no match the remaining list equals the input. The input slice is never
// mutated; the caller owns persistence of the returned list, which is
// what makes each code single-use.
func VerifyBackupCode(code string, backupCodes []string) (valid bool, remaining []string) {
	matchIdx := -1
	for i, c := range backupCodes {
		if subtle.ConstantTimeCompare([]byte(c), []byte(code)) == 1 {
			matchIdx = i
			break
		}
	}
	if matchIdx < 0 {
		return false, backupCodes
	}
	remaining = make([]string, 0, len(backupCodes)-1)
	remaining = append(remaining, backupCodes[:matchIdx]...)
	remaining = append(remaining, backupCodes[matchIdx+1:]...)
	return true, remaining
}

// CalculateAttemptPenalty maps a failed-attempt count to its cool-down.
// Under 3 failures there is no penalty; 3-4 failures cost a 60 second
// cool-down; at 5 the account is locked behind a 300 second one.
func CalculateAttemptPenalty(failedAttempts int) domain.AttemptPenalty {
	switch {
	case failedAttempts >= 5:
		return domain.AttemptPenalty{PenaltySeconds: 300, Locked: true}
	case failedAttempts >= 3:
		return domain.AttemptPenalty{PenaltySeconds: 60, Locked: false}
	default:
		return domain.AttemptPenalty{}
	}
}

// SetupValidation reports whether a user's 2FA configuration is usable.
type SetupValidation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validate2FASetup accepts a configuration iff at least one method is
// both enabled and verified.
func Validate2FASetup(methods []domain.TwoFactorMethodState) SetupValidation {
	for _, m := range methods {
		if m.Enabled && m.Verified {
			return SetupValidation{Valid: true}
		}
	}
	return SetupValidation{Valid: false, Reason: "no enabled and verified two-factor method"}
}
