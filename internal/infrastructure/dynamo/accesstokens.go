package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/hivedesk/api/internal/domain"
	"github.com/hivedesk/api/internal/infrastructure/token"
)

// AccessTokenRepo is the shared access-token store backend. It makes opaque
// bearer tokens validated on one instance valid on every instance of a
// multi-instance deployment. PK: token; expires_at is the table TTL attribute,
// so stale records are also purged by DynamoDB itself.
type AccessTokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

var _ token.Store = (*AccessTokenRepo)(nil)

func NewAccessTokenRepo(client *dynamodb.Client, tableName string) *AccessTokenRepo {
	return &AccessTokenRepo{client: client, tableName: tableName}
}

func (r *AccessTokenRepo) Save(ctx context.Context, rec token.Record) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal access token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *AccessTokenRepo) Get(ctx context.Context, tok string) (token.Record, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", tok),
	})
	if err != nil {
		return token.Record{}, err
	}
	if out.Item == nil {
		return token.Record{}, fmt.Errorf("access token not found: %w", domain.ErrNotFound)
	}
	var rec token.Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return token.Record{}, err
	}
	return rec, nil
}

func (r *AccessTokenRepo) Delete(ctx context.Context, tok string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("token", tok),
	})
	return err
}
