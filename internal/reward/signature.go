package reward

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SignaturePrefix is prepended to the hex HMAC in the X-Signature header
const SignaturePrefix = "sha256="

// Sign computes the X-Signature header value for a claim request.
// The signed payload is {timestamp}.{idempotency_key}.{canonical_body} so the issuer can
// reject replays and verify the body with the shared secret.
func Sign(secret []byte, timestamp int64, idempotencyKey string, body []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write(fmt.Appendf(nil, "%d.%s.", timestamp, idempotencyKey))
	h.Write(body)
	return SignaturePrefix + hex.EncodeToString(h.Sum(nil))
}

// Verify checks a signature produced by Sign in constant time
func Verify(secret []byte, timestamp int64, idempotencyKey string, body []byte, signature string) bool {
	expected := Sign(secret, timestamp, idempotencyKey, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// DecodeSecret decodes the hex encoded shared secret from configuration
func DecodeSecret(hexSecret string) ([]byte, error) {
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, fmt.Errorf("token issuer secret must be hex encoded: %w", err)
	}
	return secret, nil
}
