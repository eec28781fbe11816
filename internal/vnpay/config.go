package vnpay

import (
	"errors"
	"fmt"
)

var ErrMissingConfig = errors.New("missing gateway configuration")

// Config holds the merchant credentials and endpoint for the VNPay
// gateway. It is built once at startup and shared read-only; handlers
// never look configuration up from ambient state.
type Config struct {
	TmnCode    string // merchant terminal code issued by the gateway
	HashSecret string // shared secret keying vnp_SecureHash
	PayURL     string // gateway payment endpoint, e.g. the sandbox URL
}

// Validate reports the first missing field. Called at startup so a
// misconfigured process refuses to serve rather than failing per request.
func (c Config) Validate() error {
	switch {
	case c.TmnCode == "":
		return fmt.Errorf("%w: tmn code", ErrMissingConfig)
	case c.HashSecret == "":
		return fmt.Errorf("%w: hash secret", ErrMissingConfig)
	case c.PayURL == "":
		return fmt.Errorf("%w: pay url", ErrMissingConfig)
	}
	return nil
}
