package email

import (
	"fmt"
	"net/smtp"

	"github.com/shopspring/decimal"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendPaymentReceipt sends a receipt after a payment is recorded
func (s *Service) SendPaymentReceipt(to, orderID, transactionID string, amount decimal.Decimal) error {
	subject := fmt.Sprintf("Payment received for order %s", shortID(orderID))
	body := BuildPaymentReceiptBody(orderID, transactionID, amount)
	return s.send(to, subject, body)
}

// SendOrderCancelled notifies the customer their order was cancelled
func (s *Service) SendOrderCancelled(to, orderID, reason string) error {
	subject := fmt.Sprintf("Order %s cancelled", shortID(orderID))
	body := BuildOrderCancelledBody(orderID, reason)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
