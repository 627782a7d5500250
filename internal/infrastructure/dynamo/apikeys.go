package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/blockprotocol/hub-api/internal/domain"
)

// APIKeyRepo manages hashed API keys. PK: key_id; GSIs on public_id and user_id.
type APIKeyRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAPIKeyRepo(client *dynamodb.Client, tableName string) *APIKeyRepo {
	return &APIKeyRepo{client: client, tableName: tableName}
}

func (r *APIKeyRepo) Put(ctx context.Context, k *domain.APIKey) error {
	item, err := attributevalue.MarshalMap(k)
	if err != nil {
		return fmt.Errorf("marshal api key: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldKeyID},
	})
	return conditionFailed(err, "api key already exists", domain.ErrConflict)
}

func (r *APIKeyRepo) GetByPublicID(ctx context.Context, publicID string) (*domain.APIKey, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexPublicID),
		KeyConditionExpression:    aws.String("#p = :p"),
		ExpressionAttributeNames:  map[string]string{"#p": fieldPublicID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":p": &types.AttributeValueMemberS{Value: publicID}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, notFound("api key")
	}
	var k domain.APIKey
	if err := attributevalue.UnmarshalMap(out.Items[0], &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// ListByUser returns the user's keys, newest first.
func (r *APIKeyRepo) ListByUser(ctx context.Context, userID string) ([]domain.APIKey, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserID),
		KeyConditionExpression:    aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: userID}},
	})
	keys := []domain.APIKey{}
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.APIKey
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].CreatedAt.After(keys[j].CreatedAt) })
	return keys, nil
}

func (r *APIKeyRepo) Revoke(ctx context.Context, userID, publicID string, at time.Time) (int64, error) {
	keys, err := r.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return r.revokeEach(ctx, keys, at, func(k domain.APIKey) bool { return k.PublicID == publicID })
}

func (r *APIKeyRepo) RevokeAllByUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	keys, err := r.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return r.revokeEach(ctx, keys, at, func(domain.APIKey) bool { return true })
}

// revokeEach stamps revoked_at on matching keys that are not yet revoked.
// The condition keeps an earlier revocation time intact.
func (r *APIKeyRepo) revokeEach(ctx context.Context, keys []domain.APIKey, at time.Time, match func(domain.APIKey) bool) (int64, error) {
	ts, err := attributevalue.Marshal(at)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, k := range keys {
		if k.RevokedAt != nil || !match(k) {
			continue
		}
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 aws.String(r.tableName),
			Key:                       strKey(fieldKeyID, k.KeyID),
			UpdateExpression:          aws.String("SET #r = :r"),
			ConditionExpression:       aws.String("attribute_not_exists(#r)"),
			ExpressionAttributeNames:  map[string]string{"#r": fieldRevokedAt},
			ExpressionAttributeValues: map[string]types.AttributeValue{":r": ts},
		})
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			continue
		}
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (r *APIKeyRepo) UpdateDisplayName(ctx context.Context, userID, publicID, displayName string) error {
	k, err := r.GetByPublicID(ctx, publicID)
	if err != nil {
		return err
	}
	if k.UserID != userID {
		return notFound("api key")
	}
	ue, err := buildUpdateExpr(map[string]interface{}{fieldDisplayName: displayName})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldKeyID, k.KeyID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *APIKeyRepo) RecordUse(ctx context.Context, keyID string, at time.Time, origin string) error {
	ts, err := attributevalue.Marshal(at)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey(fieldKeyID, keyID),
		UpdateExpression: aws.String("ADD #c :one SET #at = :at, #o = :o"),
		ExpressionAttributeNames: map[string]string{
			"#c":  fieldUseCount,
			"#at": fieldLastUsedAt,
			"#o":  fieldLastUsedOrigin,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":at":  ts,
			":o":   &types.AttributeValueMemberS{Value: origin},
		},
	})
	return err
}
