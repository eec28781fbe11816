package vnpay

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidSignature = errors.New("invalid callback signature")

// Gateway parameter names shared by the redirect and callback surfaces.
const (
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
	FieldResponseCode   = "vnp_ResponseCode"
	FieldTxnRef         = "vnp_TxnRef"
	FieldTransactionNo  = "vnp_TransactionNo"
	FieldAmount         = "vnp_Amount"
)

// ResponseCodeSuccess is the gateway outcome code for an approved
// payment; every other code is a decline.
const ResponseCodeSuccess = "00"

// CallbackResult is the classified outcome of a signature-valid
// callback. A decline is a result, not an error.
type CallbackResult struct {
	Success       bool
	ResponseCode  string
	OrderID       string
	TransactionID string
	Amount        decimal.Decimal // major units, scaled back from vnp_Amount
}

// ValidateCallback authenticates an inbound gateway callback and
// classifies its outcome. The signature fields are stripped before the
// remaining parameters are re-encoded with the same canonical encoder
// used for signing; a missing or empty vnp_SecureHash fails immediately.
// The method is a pure predicate: it never mutates state and never
// panics past this boundary.
func (c *Client) ValidateCallback(params map[string]string) (*CallbackResult, error) {
	provided := params[FieldSecureHash]
	if provided == "" {
		return nil, ErrInvalidSignature
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if k == FieldSecureHash || k == FieldSecureHashType {
			continue
		}
		signed[k] = v
	}

	query := EncodeParams(signed)
	if !VerifySignature(query, c.cfg.HashSecret, provided) {
		return nil, ErrInvalidSignature
	}

	code := params[FieldResponseCode]
	result := &CallbackResult{
		Success:       code == ResponseCodeSuccess,
		ResponseCode:  code,
		OrderID:       params[FieldTxnRef],
		TransactionID: params[FieldTransactionNo],
	}
	if raw := params[FieldAmount]; raw != "" {
		if minor, err := decimal.NewFromString(raw); err == nil {
			result.Amount = minor.Div(decimal.NewFromInt(minorUnitFactor))
		}
	}
	return result, nil
}
