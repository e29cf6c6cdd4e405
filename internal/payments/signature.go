package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign returns the checkout signature for an order/payment pair:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureVerifier checks checkout callbacks against the provider key secret
type SignatureVerifier struct {
	secret string
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: secret}
}

// Verify reports whether signature matches the expected signature for the pair.
// Empty identifiers, an empty signature or an unset secret never verify.
func (v *SignatureVerifier) Verify(orderID, paymentID, signature string) bool {
	if v.secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := Sign(v.secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
