// Package totp generates and verifies time-based one-time-password secrets
// compatible with standard authenticator apps.
//
// Verification uses github.com/pquerna/otp with SHA1, 6 digits, and a
// 30-second period, which is what the apps expect. The wall clock is injected
// so tests can pin verification to a known instant.
package totp

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"image/png"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	ptotp "github.com/pquerna/otp/totp"
)

// base32Alphabet is the RFC 4648 alphabet authenticator apps expect secrets
// to be drawn from.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// Clock supplies the current time for code verification.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant. For tests.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Service generates secrets, verifies codes, and renders provisioning data.
type Service struct {
	clock Clock
}

// New creates a Service backed by the system clock.
func New() *Service {
	return &Service{clock: SystemClock{}}
}

// NewWithClock creates a Service with an injected clock.
func NewWithClock(c Clock) *Service {
	return &Service{clock: c}
}

// GenerateSecret returns a random base32 secret of the given length in
// characters. The length must be a positive multiple of 8 so the secret
// decodes cleanly without padding.
func (s *Service) GenerateSecret(length int) (string, error) {
	if length <= 0 || length%8 != 0 {
		return "", fmt.Errorf("secret length %d: must be a positive multiple of 8", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	// 32 divides 256, so the modulo introduces no bias
	for i, b := range buf {
		buf[i] = base32Alphabet[int(b)%len(base32Alphabet)]
	}
	return string(buf), nil
}

// Verify reports whether code is valid for secret at the clock's current
// time, allowing one period of skew either way.
func (s *Service) Verify(secret, code string) bool {
	ok, err := ptotp.ValidateCustom(code, secret, s.clock.Now().UTC(), validateOpts())
	return err == nil && ok
}

// ProvisioningURL builds the otpauth:// URL an authenticator app enrolls
// from. Issuer and account are caller-supplied display strings.
func (s *Service) ProvisioningURL(secret, issuer, account string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")
	v.Set("period", "30")

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + issuer + ":" + account,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// QRCodePNG renders the provisioning URL as a PNG QR code of the given
// dimensions.
func (s *Service) QRCodePNG(secret, issuer, account string, width, height int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(s.ProvisioningURL(secret, issuer, account))
	if err != nil {
		return nil, fmt.Errorf("qr: parse key: %w", err)
	}

	img, err := key.Image(width, height)
	if err != nil {
		return nil, fmt.Errorf("qr: render: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("qr: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func validateOpts() ptotp.ValidateOpts {
	return ptotp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
