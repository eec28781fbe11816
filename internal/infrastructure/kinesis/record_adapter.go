package kinesis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/shopspring/decimal"

	"github.com/example/bookstore-payments/internal/domain/payment"
	"github.com/example/bookstore-payments/internal/event"
)

// ConvertFromKinesisRecord converts a Kinesis record (DynamoDB Streams
// format) from the payments table into a PaymentRecorded envelope.
// The DynamoDB Kinesis integration sends records in DynamoDB Streams
// format; only INSERTs matter, since the ledger is append-only.
func ConvertFromKinesisRecord(record events.KinesisEventRecord) (*event.Envelope, error) {
	var streamRecord events.DynamoDBEventRecord
	if err := json.Unmarshal(record.Kinesis.Data, &streamRecord); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DynamoDB record: %w", err)
	}

	return ConvertFromDynamoDBStreamRecord(streamRecord)
}

// ConvertFromDynamoDBStreamRecord converts a DynamoDB Stream record to
// a PaymentRecorded envelope. Used directly in tests.
func ConvertFromDynamoDBStreamRecord(record events.DynamoDBEventRecord) (*event.Envelope, error) {
	if record.EventName != "INSERT" {
		return nil, nil
	}
	return convertDynamoDBImage(record.Change.NewImage)
}

// convertDynamoDBImage extracts a payment row from DynamoDB attribute
// values and rewraps it as the event the Kafka path would have carried.
func convertDynamoDBImage(image map[string]events.DynamoDBAttributeValue) (*event.Envelope, error) {
	if image == nil {
		return nil, fmt.Errorf("DynamoDB image is nil")
	}

	recorded := payment.Recorded{}
	if v, ok := image["id"]; ok {
		recorded.PaymentID = v.String()
	}
	if v, ok := image["order_id"]; ok {
		recorded.OrderID = v.String()
	}
	if v, ok := image["transaction_id"]; ok {
		recorded.TransactionID = v.String()
	}
	if v, ok := image["payment_method"]; ok {
		recorded.Method = v.String()
	}
	if v, ok := image["amount"]; ok {
		amount, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}
		recorded.Amount = amount
	}
	if v, ok := image["paid_at"]; ok {
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse paid_at: %w", err)
		}
		recorded.PaidAt = t
	}

	if recorded.PaymentID == "" || recorded.OrderID == "" || recorded.TransactionID == "" {
		return nil, fmt.Errorf("missing required fields: payment_id=%s, order_id=%s, transaction_id=%s",
			recorded.PaymentID, recorded.OrderID, recorded.TransactionID)
	}

	return event.New(event.TypePaymentRecorded, recorded.OrderID, recorded)
}

// BatchConvertFromKinesisEvent converts all records from a Kinesis
// event. Returns successfully converted envelopes and any errors
// encountered.
func BatchConvertFromKinesisEvent(kinesisEvent events.KinesisEvent) ([]*event.Envelope, []error) {
	var envelopes []*event.Envelope
	var errs []error

	for _, record := range kinesisEvent.Records {
		env, err := ConvertFromKinesisRecord(record)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %s: %w", record.EventID, err))
			continue
		}
		if env != nil {
			envelopes = append(envelopes, env)
		}
	}

	return envelopes, errs
}
