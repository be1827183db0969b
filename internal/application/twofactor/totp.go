package twofactor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/eloity/tiergate/internal/domain"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// totpPeriod is the standard 30-second TOTP time step.
const totpPeriod = 30

// totpSkew is the accepted clock-drift window in time steps. Two steps
// either side (±60s) keeps false rejections on skewed client clocks rare
// without widening the guess window meaningfully.
const totpSkew = 2

// SetupTOTP generates a fresh TOTP secret for the user and renders the
// otpauth QR as a PNG data URL. The issuer and the account label (the
// user's email) are what authenticator apps display, so both must be
// set. The returned setup is the only time the secret and plaintext
// backup codes leave the service.
func SetupTOTP(issuer, email string) (*domain.TwoFactorSetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: email,
		Period:      totpPeriod,
		SecretSize:  32,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("generate totp key: %w", err)
	}

	img, err := key.Image(256, 256)
	if err != nil {
		return nil, fmt.Errorf("render totp qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode totp qr: %w", err)
	}

	backupCodes, err := GenerateBackupCodes(DefaultBackupCodeCount)
	if err != nil {
		return nil, err
	}

	return &domain.TwoFactorSetup{
		Method:      domain.MethodTOTP,
		Status:      domain.StatusPending,
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		BackupCodes: backupCodes,
	}, nil
}

// VerifyTOTP checks a token against the secret, accepting tokens within
// ±totpSkew time steps of now.
func VerifyTOTP(secret, token string) bool {
	return VerifyTOTPAt(secret, token, time.Now())
}

// VerifyTOTPAt is VerifyTOTP evaluated at an explicit instant.
func VerifyTOTPAt(secret, token string, at time.Time) bool {
	ok, err := totp.ValidateCustom(token, secret, at, totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
