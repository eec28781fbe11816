package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"

	"github.com/example/bookstore-payments/internal/domain/payment"
)

// DynamoPaymentStore stores the payment ledger in DynamoDB, keyed by
// transaction_id. A conditional put on attribute_not_exists gives the
// same atomic idempotency guarantee as the PostgreSQL unique index:
// the second writer for a transaction id fails the condition check and
// is treated as "already recorded". Items stream to Kinesis via the
// table's Kinesis integration, which drives the lambda notifier.
type DynamoPaymentStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoPayment represents the DynamoDB item structure
type dynamoPayment struct {
	TransactionID string `dynamodbav:"transaction_id"`
	ID            string `dynamodbav:"id"`
	OrderID       string `dynamodbav:"order_id"`
	Method        string `dynamodbav:"payment_method"`
	Amount        string `dynamodbav:"amount"` // decimal string, exactness over number type
	Status        string `dynamodbav:"status"`
	PaidAt        string `dynamodbav:"paid_at"`
	GSI1PK        string `dynamodbav:"gsi1pk"` // fixed value for GSI1 to enable List
}

func NewDynamoPaymentStore(client *dynamodb.Client, tableName string) *DynamoPaymentStore {
	return &DynamoPaymentStore{client: client, tableName: tableName}
}

func (ds *DynamoPaymentStore) Insert(ctx context.Context, p *payment.Payment) (bool, error) {
	av, err := attributevalue.MarshalMap(toDynamoPayment(p))
	if err != nil {
		return false, fmt.Errorf("failed to marshal payment: %w", err)
	}

	_, err = ds.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(ds.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(transaction_id)"),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return false, nil // transaction already recorded
		}
		return false, fmt.Errorf("failed to put payment: %w", err)
	}
	return true, nil
}

func (ds *DynamoPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, bool, error) {
	return ds.queryOne(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(ds.tableName),
		IndexName:              aws.String("GSI2"),
		KeyConditionExpression: aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: id},
		},
		Limit: aws.Int32(1),
	})
}

func (ds *DynamoPaymentStore) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, bool, error) {
	result, err := ds.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ds.tableName),
		Key: map[string]types.AttributeValue{
			"transaction_id": &types.AttributeValueMemberS{Value: transactionID},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get payment: %w", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	p, err := fromDynamoItem(result.Item)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (ds *DynamoPaymentStore) GetByOrderID(ctx context.Context, orderID string) (*payment.Payment, bool, error) {
	return ds.queryOne(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(ds.tableName),
		IndexName:              aws.String("GSI3"),
		KeyConditionExpression: aws.String("order_id = :oid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":oid": &types.AttributeValueMemberS{Value: orderID},
		},
		ScanIndexForward: aws.Bool(false), // latest paid_at first
		Limit:            aws.Int32(1),
	})
}

func (ds *DynamoPaymentStore) List(ctx context.Context) ([]*payment.Payment, error) {
	result, err := ds.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(ds.tableName),
		IndexName:              aws.String("GSI1"),
		KeyConditionExpression: aws.String("gsi1pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "PAYMENTS"},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*payment.Payment, 0, len(result.Items))
	for _, item := range result.Items {
		p, err := fromDynamoItem(item)
		if err != nil {
			continue
		}
		payments = append(payments, p)
	}
	return payments, nil
}

func (ds *DynamoPaymentStore) queryOne(ctx context.Context, input *dynamodb.QueryInput) (*payment.Payment, bool, error) {
	result, err := ds.client.Query(ctx, input)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query payment: %w", err)
	}
	if len(result.Items) == 0 {
		return nil, false, nil
	}

	p, err := fromDynamoItem(result.Items[0])
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func toDynamoPayment(p *payment.Payment) dynamoPayment {
	return dynamoPayment{
		TransactionID: p.TransactionID,
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        p.Method,
		Amount:        p.Amount.String(),
		Status:        string(p.Status),
		PaidAt:        p.PaidAt.Format(time.RFC3339Nano),
		GSI1PK:        "PAYMENTS",
	}
}

func fromDynamoItem(item map[string]types.AttributeValue) (*payment.Payment, error) {
	var dp dynamoPayment
	if err := attributevalue.UnmarshalMap(item, &dp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payment: %w", err)
	}

	amount, err := decimal.NewFromString(dp.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse payment amount: %w", err)
	}
	paidAt, _ := time.Parse(time.RFC3339Nano, dp.PaidAt)

	return &payment.Payment{
		ID:            dp.ID,
		OrderID:       dp.OrderID,
		Method:        dp.Method,
		Amount:        amount,
		TransactionID: dp.TransactionID,
		Status:        payment.Status(dp.Status),
		PaidAt:        paidAt,
	}, nil
}
