package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign_KnownVector(t *testing.T) {
	// echo -n "order_1|pay_1" | openssl dgst -sha256 -hmac secret
	got := Sign("order_1", "pay_1", "secret")
	assert.Equal(t, "52115a0d3400de9e86aade1f1b6eba9e8974604f4e267a9e9a16633a4c8dd2cb", got)
	assert.NotEqual(t, got, Sign("order_1", "pay_1", "other"))
}

func TestVerifySignature(t *testing.T) {
	const secret = "rzp_test_secret"
	sig := Sign("order_Nx1", "pay_Ab9", secret)

	assert.True(t, VerifySignature("order_Nx1", "pay_Ab9", sig, secret))

	t.Run("mutated signature", func(t *testing.T) {
		for i := range sig {
			b := []byte(sig)
			if b[i] == 'a' {
				b[i] = 'b'
			} else {
				b[i] = 'a'
			}
			assert.False(t, VerifySignature("order_Nx1", "pay_Ab9", string(b), secret), "position %d", i)
		}
	})

	t.Run("mutated ids", func(t *testing.T) {
		assert.False(t, VerifySignature("order_Nx2", "pay_Ab9", sig, secret))
		assert.False(t, VerifySignature("order_Nx1", "pay_Ab8", sig, secret))
		assert.False(t, VerifySignature("pay_Ab9", "order_Nx1", sig, secret))
	})

	t.Run("missing fields", func(t *testing.T) {
		assert.False(t, VerifySignature("", "pay_Ab9", sig, secret))
		assert.False(t, VerifySignature("order_Nx1", "", sig, secret))
		assert.False(t, VerifySignature("order_Nx1", "pay_Ab9", "", secret))
		assert.False(t, VerifySignature("order_Nx1", "pay_Ab9", sig, ""))
	})

	t.Run("uppercase hex is rejected", func(t *testing.T) {
		upper := []byte(sig)
		for i, c := range upper {
			if c >= 'a' && c <= 'f' {
				upper[i] = c - 32
			}
		}
		if string(upper) != sig {
			assert.False(t, VerifySignature("order_Nx1", "pay_Ab9", string(upper), secret))
		}
	})
}

func TestSignatureVerifier(t *testing.T) {
	v := NewSignatureVerifier("k")
	assert.True(t, v.Verify("o", "p", Sign("o", "p", "k")))
	assert.False(t, v.Verify("o", "p", Sign("o", "p", "x")))
}
