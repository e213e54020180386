// Package webhook authenticates signed provider pushes.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	ErrSecretNotConfigured = errors.New("webhook secret is not configured")
	ErrMissingSignature    = errors.New("webhook signature is missing")
	ErrInvalidSignature    = errors.New("webhook signature is invalid")
)

// SignatureVerifier checks an HMAC-SHA256 over the raw request body, sent as
// lowercase hex.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Sign returns the hex signature the provider would send for body.
func (v *SignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time. Uppercase hex is rejected along with any
// other mismatch.
func (v *SignatureVerifier) Verify(body []byte, signature string) error {
	if len(v.secret) == 0 {
		return ErrSecretNotConfigured
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return ErrMissingSignature
	}

	expected := v.Sign(body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}
