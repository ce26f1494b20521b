package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}

type hmacVerifierImpl struct {
	secret string
}

func NewSignatureVerifier(secret string) SignatureVerifier {
	return &hmacVerifierImpl{secret: secret}
}

func (v *hmacVerifierImpl) Verify(orderID, paymentID, signature string) bool {
	return VerifySignature(orderID, paymentID, signature, v.secret)
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID", as the gateway computes it.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
