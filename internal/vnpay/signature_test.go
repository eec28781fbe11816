package vnpay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSign_LowercaseHexSHA512(t *testing.T) {
	digest := Sign("vnp_Amount=100&vnp_TxnRef=1", "secret")

	require.Len(t, digest, 128) // 512 bits as hex
	assert.Equal(t, strings.ToLower(digest), digest)
}

func TestSign_DifferentSecretsDiverge(t *testing.T) {
	data := "vnp_Amount=100&vnp_TxnRef=1"

	assert.NotEqual(t, Sign(data, "secret-a"), Sign(data, "secret-b"))
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	data := EncodeParams(map[string]string{
		"vnp_TxnRef": "1001",
		"vnp_Amount": "5000000",
	})

	digest := Sign(data, "secret")

	assert.True(t, VerifySignature(data, "secret", digest))
}

func TestVerifySignature_AcceptsUppercaseDigest(t *testing.T) {
	digest := Sign("data", "secret")

	assert.True(t, VerifySignature("data", "secret", strings.ToUpper(digest)))
}

func TestVerifySignature_SingleCharacterMutationFails(t *testing.T) {
	data := "vnp_Amount=5000000&vnp_TxnRef=1001"
	digest := Sign(data, "secret")

	for i := 0; i < len(data); i++ {
		mutated := data[:i] + "x" + data[i+1:]
		if mutated == data {
			continue
		}
		assert.False(t, VerifySignature(mutated, "secret", digest),
			"mutation at position %d must invalidate the signature", i)
	}
}

func TestVerifySignature_EmptyOrMalformedDigest(t *testing.T) {
	assert.False(t, VerifySignature("data", "secret", ""))
	assert.False(t, VerifySignature("data", "secret", "not-hex"))
	assert.False(t, VerifySignature("data", "secret", "abc")) // odd length
}

func TestVerifySignature_TruncatedDigestFails(t *testing.T) {
	digest := Sign("data", "secret")

	assert.False(t, VerifySignature("data", "secret", digest[:64]))
}
