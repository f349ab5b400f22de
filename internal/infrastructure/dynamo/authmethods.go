package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hivedesk/api/internal/domain"
)

// AuthMethodRepo manages auth method rows.
// PK: user_id, SK: provider; a provider-provider_id GSI enforces the
// system-wide uniqueness lookup for (provider, provider_id).
type AuthMethodRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAuthMethodRepo(client *dynamodb.Client, tableName string) *AuthMethodRepo {
	return &AuthMethodRepo{client: client, tableName: tableName}
}

// Put inserts an auth method. The condition expression rejects a duplicate
// (user_id, provider) row so first-login races cannot create two EMAIL rows.
func (r *AuthMethodRepo) Put(ctx context.Context, m *domain.AuthMethod) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal auth method: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("auth method exists: %w", domain.ErrAlreadyExists)
	}
	return err
}

func (r *AuthMethodRepo) Get(ctx context.Context, userID, provider string) (*domain.AuthMethod, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("user_id", userID, "provider", provider),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("auth method not found: %w", domain.ErrNotFound)
	}
	var m domain.AuthMethod
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByProviderID looks up an auth method by (provider, provider_id) through
// the uniqueness GSI.
func (r *AuthMethodRepo) GetByProviderID(ctx context.Context, provider, providerID string) (*domain.AuthMethod, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("provider-provider_id-index"),
		KeyConditionExpression: aws.String("provider = :p AND provider_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: provider},
			":pid": &types.AttributeValueMemberS{Value: providerID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("auth method not found: %w", domain.ErrNotFound)
	}
	var m domain.AuthMethod
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *AuthMethodRepo) ListByUser(ctx context.Context, userID string) ([]domain.AuthMethod, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, err
	}
	var methods []domain.AuthMethod
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &methods); err != nil {
		return nil, err
	}
	return methods, nil
}
