package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"storefront-chat/internal/domain"
)

const (
	pkPrefixExchange = "EXCHANGE#"
	skPrefixAt       = "AT#"
	ttlDuration      = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client writes chat exchange audit records to a DynamoDB table.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func exchangePK(id string) string {
	return pkPrefixExchange + id
}

func exchangeSK(ts time.Time) string {
	return skPrefixAt + ts.UTC().Format(time.RFC3339Nano)
}

// SaveExchange persists one exchange record. Records are write-once.
func (c *Client) SaveExchange(ctx context.Context, ex domain.Exchange) error {
	if strings.TrimSpace(ex.ID) == "" {
		return errors.New("repository: SaveExchange: id is required")
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = c.now()
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                exchangeItem(ex, ex.CreatedAt.Add(ttlDuration).Unix()),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveExchange: %w", err)
	}
	return nil
}

func exchangeItem(ex domain.Exchange, ttl int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: exchangePK(ex.ID)},
		"SK":             &types.AttributeValueMemberS{Value: exchangeSK(ex.CreatedAt)},
		"exchangeId":     &types.AttributeValueMemberS{Value: ex.ID},
		"messageLength":  &types.AttributeValueMemberN{Value: strconv.Itoa(ex.MessageLength)},
		"success":        &types.AttributeValueMemberBOOL{Value: ex.Success},
		"outcome":        &types.AttributeValueMemberS{Value: ex.Outcome},
		"upstreamStatus": &types.AttributeValueMemberN{Value: strconv.Itoa(ex.UpstreamStatus)},
		"durationMs":     &types.AttributeValueMemberN{Value: strconv.FormatInt(ex.Duration.Milliseconds(), 10)},
		"createdAt":      &types.AttributeValueMemberS{Value: ex.CreatedAt.UTC().Format(time.RFC3339)},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(ttl, 10)},
	}
}
