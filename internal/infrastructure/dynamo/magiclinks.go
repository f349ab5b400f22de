package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hivedesk/api/internal/domain"
)

// MagicLinkRepo manages single-use sign-in credentials.
// PK: link_id; token-index GSI for exact-token lookup; email-created_at-index
// GSI for latest-code lookup. expires_at doubles as the table TTL attribute.
type MagicLinkRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMagicLinkRepo(client *dynamodb.Client, tableName string) *MagicLinkRepo {
	return &MagicLinkRepo{client: client, tableName: tableName}
}

func (r *MagicLinkRepo) Put(ctx context.Context, m *domain.MagicLink) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal magic link: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// GetByToken fetches a link via exact token match on the token GSI.
func (r *MagicLinkRepo) GetByToken(ctx context.Context, token string) (*domain.MagicLink, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("token-index"),
		KeyConditionExpression: aws.String("#t = :t"),
		ExpressionAttributeNames: map[string]string{"#t": "token"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberS{Value: token},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("magic link not found: %w", domain.ErrNotFound)
	}
	var m domain.MagicLink
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetLatestByEmailCode returns the most recently created unconsumed link for
// (email, code). The email GSI is sorted by created_at, so the query walks
// newest-first and returns the first match.
func (r *MagicLinkRepo) GetLatestByEmailCode(ctx context.Context, email, code string) (*domain.MagicLink, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-created_at-index"),
		KeyConditionExpression: aws.String("email = :e"),
		FilterExpression:       aws.String("code = :c AND attribute_not_exists(used_at)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":c": &types.AttributeValueMemberS{Value: code},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("magic link not found: %w", domain.ErrNotFound)
	}
	var m domain.MagicLink
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Consume marks the link used at now, conditionally on it being unconsumed
// and unexpired. The condition closes the race where two concurrent verify
// calls both read a valid record: exactly one UpdateItem wins.
func (r *MagicLinkRepo) Consume(ctx context.Context, linkID string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("link_id", linkID),
		UpdateExpression:    aws.String("SET used_at = :now"),
		ConditionExpression: aws.String("attribute_not_exists(used_at) AND expires_at > :nowSec"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":    &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
			":nowSec": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("magic link already used or expired: %w", domain.ErrInvalidOrExpired)
	}
	return err
}
