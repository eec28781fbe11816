package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// Sign computes the HMAC-SHA512 digest of data keyed with secret and
// returns it as lowercase hex, the form the gateway expects in
// vnp_SecureHash.
func Sign(data, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature recomputes the digest of data and compares it against
// provided in constant time. An empty or malformed digest is false, not
// an error; verification failure is an ordinary value at this boundary.
func VerifySignature(data, secret, provided string) bool {
	if provided == "" {
		return false
	}
	want, err := hex.DecodeString(strings.ToLower(provided))
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hmac.Equal(mac.Sum(nil), want)
}
