package twofactor

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eloity/tiergate/internal/domain"
)

func TestGenerateVerificationCode_SixDigits(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}
}

func TestIsCodeExpiredAt_Boundary(t *testing.T) {
	generated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// One second inside the window.
	assert.False(t, IsCodeExpiredAt(generated, 10, generated.Add(9*time.Minute+59*time.Second)))
	// Exactly at the deadline is still valid (strict comparison).
	assert.False(t, IsCodeExpiredAt(generated, 10, generated.Add(10*time.Minute)))
	// One second past.
	assert.True(t, IsCodeExpiredAt(generated, 10, generated.Add(10*time.Minute+1*time.Second)))
}

func TestGenerateBackupCodes_Format(t *testing.T) {
	codes, err := GenerateBackupCodes(10)
	require.NoError(t, err)
	require.Len(t, codes, 10)

	re := regexp.MustCompile(`^[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for _, c := range codes {
		assert.Regexp(t, re, c)
		seen[c] = true
	}
	// 32 bits of entropy per code: collisions across 10 draws would
	// indicate a broken source.
	assert.Len(t, seen, 10)
}

func TestGenerateBackupCodes_DefaultsCount(t *testing.T) {
	codes, err := GenerateBackupCodes(0)
	require.NoError(t, err)
	assert.Len(t, codes, DefaultBackupCodeCount)
}

func TestVerifyBackupCode_SingleUse(t *testing.T) {
	codes := []string{"AAAA1111", "BBBB2222"}

	valid, remaining := VerifyBackupCode("AAAA1111", codes)
	assert.True(t, valid)
	assert.Equal(t, []string{"BBBB2222"}, remaining)

	// The input list is caller-owned and never mutated, so replaying the
	// same code against the original list still matches.
	valid, _ = VerifyBackupCode("AAAA1111", codes)
	assert.True(t, valid)
	assert.Equal(t, []string{"AAAA1111", "BBBB2222"}, codes)

	// Against the updated list the code is spent.
	valid, rest := VerifyBackupCode("AAAA1111", remaining)
	assert.False(t, valid)
	assert.Equal(t, remaining, rest)
}

func TestVerifyBackupCode_NoMatch(t *testing.T) {
	codes := []string{"AAAA1111"}
	valid, remaining := VerifyBackupCode("CCCC3333", codes)
	assert.False(t, valid)
	assert.Equal(t, codes, remaining)
}

func TestCalculateAttemptPenalty_Tiers(t *testing.T) {
	assert.Equal(t, domain.AttemptPenalty{PenaltySeconds: 0, Locked: false}, CalculateAttemptPenalty(0))
	assert.Equal(t, domain.AttemptPenalty{PenaltySeconds: 0, Locked: false}, CalculateAttemptPenalty(2))
	assert.Equal(t, domain.AttemptPenalty{PenaltySeconds: 60, Locked: false}, CalculateAttemptPenalty(3))
	assert.Equal(t, domain.AttemptPenalty{PenaltySeconds: 60, Locked: false}, CalculateAttemptPenalty(4))
	assert.Equal(t, domain.AttemptPenalty{PenaltySeconds: 300, Locked: true}, CalculateAttemptPenalty(5))
	assert.Equal(t, domain.AttemptPenalty{PenaltySeconds: 300, Locked: true}, CalculateAttemptPenalty(12))
}

func TestValidate2FASetup(t *testing.T) {
	ok := Validate2FASetup([]domain.TwoFactorMethodState{
		{Method: domain.MethodTOTP, Enabled: true, Verified: true},
	})
	assert.True(t, ok.Valid)

	// Enabled but unverified does not count.
	bad := Validate2FASetup([]domain.TwoFactorMethodState{
		{Method: domain.MethodEmail, Enabled: true, Verified: false},
		{Method: domain.MethodTOTP, Enabled: false, Verified: true},
	})
	assert.False(t, bad.Valid)
	assert.NotEmpty(t, bad.Reason)

	empty := Validate2FASetup(nil)
	assert.False(t, empty.Valid)
}
