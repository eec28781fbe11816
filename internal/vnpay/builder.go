package vnpay

import (
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid payment amount")

const (
	protocolVersion = "2.1.0"
	commandPay      = "pay"
	currencyCode    = "VND"
	orderType       = "other"
	locale          = "vn"
	createDateFmt   = "20060102150405" // yyyyMMddHHmmss

	// minorUnitFactor scales a major-unit amount into the integer
	// vnp_Amount field on the wire.
	minorUnitFactor = 100
)

// Client builds signed payment URLs and validates gateway callbacks.
// It holds only immutable configuration and is safe for concurrent use.
type Client struct {
	cfg Config
	now func() time.Time
}

// NewClient validates cfg and returns a gateway client. A missing
// merchant field is surfaced here so callers can refuse to start.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, now: time.Now}, nil
}

// PaymentRequest carries the per-order inputs for a redirect URL.
type PaymentRequest struct {
	OrderID   string
	Amount    decimal.Decimal // major currency units
	OrderInfo string
	ReturnURL string
	ClientIP  string
}

// BuildPaymentURL assembles the gateway parameter set, signs its
// canonical encoding with the shared secret, and returns the redirect
// URL with vnp_SecureHash appended.
func (c *Client) BuildPaymentURL(req PaymentRequest) (string, error) {
	minor, err := toMinorUnits(req.Amount)
	if err != nil {
		return "", err
	}

	params := map[string]string{
		"vnp_Version":    protocolVersion,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    c.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(minor, 10),
		"vnp_CurrCode":   currencyCode,
		"vnp_TxnRef":     req.OrderID,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  orderType,
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  req.ReturnURL,
		"vnp_CreateDate": c.now().Format(createDateFmt),
		"vnp_IpAddr":     req.ClientIP,
	}

	query := EncodeParams(params)
	digest := Sign(query, c.cfg.HashSecret)
	return c.cfg.PayURL + "?" + query + "&" + FieldSecureHash + "=" + digest, nil
}

// toMinorUnits scales a major-unit amount by 100 and rejects anything
// that is not a positive whole number of minor units.
func toMinorUnits(amount decimal.Decimal) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(decimal.NewFromInt(minorUnitFactor))
	if !minor.IsInteger() {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}
