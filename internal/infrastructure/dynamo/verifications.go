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

	"github.com/blockprotocol/hub-api/internal/domain"
)

// VerificationCodeRepo manages emailed verification codes.
// PK: code_id; GSI user_id + created_at for rate limiting. Items carry a
// prune_at TTL attribute.
type VerificationCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationCodeRepo(client *dynamodb.Client, tableName string) *VerificationCodeRepo {
	return &VerificationCodeRepo{client: client, tableName: tableName}
}

func (r *VerificationCodeRepo) Put(ctx context.Context, c *domain.VerificationCode) error {
	c.PruneAt = c.CreatedAt.Add(domain.VerificationCodePruneAge)
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *VerificationCodeRepo) Get(ctx context.Context, codeID string) (*domain.VerificationCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldCodeID, codeID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, notFound("verification code")
	}
	var c domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *VerificationCodeRepo) IncrementAttempts(ctx context.Context, codeID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldCodeID, codeID),
		UpdateExpression:    aws.String("ADD #a :one"),
		ConditionExpression: aws.String("attribute_exists(#id) AND #a < :max"),
		ExpressionAttributeNames: map[string]string{
			"#a":  fieldAttempts,
			"#id": fieldCodeID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
			":max": &types.AttributeValueMemberN{Value: strconv.Itoa(domain.VerificationCodeMaxAttempts)},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return nil
	}
	return err
}

func (r *VerificationCodeRepo) MarkUsed(ctx context.Context, codeID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldCodeID, codeID),
		UpdateExpression:    aws.String("SET #u = :t"),
		ConditionExpression: aws.String("#u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u": fieldUsed,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	return conditionFailed(err, "verification code already used", domain.ErrConflict)
}

// ListSince returns the user's codes of a variant created after since,
// oldest first.
func (r *VerificationCodeRepo) ListSince(ctx context.Context, userID string, variant domain.VerificationCodeVariant, since time.Time) ([]domain.VerificationCode, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexUserCreatedAt),
		KeyConditionExpression: aws.String("#uid = :uid AND #c > :since"),
		FilterExpression:       aws.String("#v = :v"),
		ExpressionAttributeNames: map[string]string{
			"#uid": fieldUserID,
			"#c":   fieldCreatedAt,
			"#v":   fieldVariant,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid":   &types.AttributeValueMemberS{Value: userID},
			":since": &types.AttributeValueMemberN{Value: strconv.FormatInt(since.Unix(), 10)},
			":v":     &types.AttributeValueMemberS{Value: string(variant)},
		},
		ScanIndexForward: aws.Bool(true),
	})

	var codes []domain.VerificationCode
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.VerificationCode
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		codes = append(codes, batch...)
	}
	return codes, nil
}
