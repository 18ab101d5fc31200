package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"storefront-chat/internal/domain"
)

type fakeDynamo struct {
	putErr       error
	lastPutInput *dynamodb.PutItemInput
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func mustNewClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "test-table")
	require.NoError(t, err)
	return c
}

func sAttr(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q is not a string", key)
	return v.Value
}

func nAttr(t *testing.T, item map[string]types.AttributeValue, key string) int64 {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberN)
	require.True(t, ok, "attribute %q is not a number", key)
	n, err := strconv.ParseInt(v.Value, 10, 64)
	require.NoError(t, err)
	return n
}

func TestNew_Validates(t *testing.T) {
	_, err := New(nil, "t")
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")

	_, err = New(&fakeDynamo{}, " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "table name")
}

func TestSaveExchange_HappyPath(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := c.SaveExchange(context.Background(), domain.Exchange{
		ID:             "abc",
		MessageLength:  42,
		Success:        false,
		Outcome:        "UPSTREAM_STATUS",
		UpstreamStatus: 500,
		Duration:       1500 * time.Millisecond,
		CreatedAt:      at,
	})
	require.NoError(t, err)

	in := db.lastPutInput
	require.NotNil(t, in)
	require.Equal(t, "test-table", *in.TableName)
	require.Equal(t, "attribute_not_exists(PK)", *in.ConditionExpression)

	item := in.Item
	require.Equal(t, "EXCHANGE#abc", sAttr(t, item, "PK"))
	require.Equal(t, "AT#2026-03-01T12:00:00Z", sAttr(t, item, "SK"))
	require.Equal(t, "UPSTREAM_STATUS", sAttr(t, item, "outcome"))
	require.EqualValues(t, 42, nAttr(t, item, "messageLength"))
	require.EqualValues(t, 500, nAttr(t, item, "upstreamStatus"))
	require.EqualValues(t, 1500, nAttr(t, item, "durationMs"))
	require.Equal(t, at.Add(ttlDuration).Unix(), nAttr(t, item, "ttl"))

	success, ok := item["success"].(*types.AttributeValueMemberBOOL)
	require.True(t, ok)
	require.False(t, success.Value)

	_, hasText := item["text"]
	require.False(t, hasText, "message text must never be persisted")
}

func TestSaveExchange_DefaultsCreatedAt(t *testing.T) {
	db := &fakeDynamo{}
	c := mustNewClient(t, db)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	require.NoError(t, c.SaveExchange(context.Background(), domain.Exchange{ID: "x", Success: true, Outcome: "OK"}))
	require.Equal(t, "2026-01-02T03:04:05Z", sAttr(t, db.lastPutInput.Item, "createdAt"))
}

func TestSaveExchange_RequiresID(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{})
	err := c.SaveExchange(context.Background(), domain.Exchange{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "id is required")
}

func TestSaveExchange_PutError(t *testing.T) {
	c := mustNewClient(t, &fakeDynamo{putErr: errors.New("throttled")})
	err := c.SaveExchange(context.Background(), domain.Exchange{ID: "x"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "throttled")
}
