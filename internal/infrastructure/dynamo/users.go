package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/blockprotocol/hub-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
// GSIs cannot enforce uniqueness, so email and shortname are checked through
// their indexes before writes.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	if _, err := r.GetByEmail(ctx, u.Email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": fieldUserID,
		},
	})
	return conditionFailed(err, "user already exists", domain.ErrConflict)
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, notFound("user")
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, indexEmail, fieldEmail, email)
}

func (r *UserRepo) GetByShortname(ctx context.Context, shortname string) (*domain.User, error) {
	return r.queryGSI(ctx, indexShortname, fieldShortname, shortname)
}

func (r *UserRepo) Update(ctx context.Context, userID string, upd domain.UserUpdate) (*domain.User, error) {
	updates := map[string]interface{}{fieldUpdatedAt: time.Now().UTC()}
	if upd.HasVerifiedEmail != nil {
		updates[fieldHasVerifiedEmail] = *upd.HasVerifiedEmail
	}
	if upd.Shortname != nil {
		if other, err := r.GetByShortname(ctx, *upd.Shortname); err == nil && other.UserID != userID {
			return nil, fmt.Errorf("shortname already taken: %w", domain.ErrConflict)
		}
		updates[fieldShortname] = *upd.Shortname
	}
	if upd.PreferredName != nil {
		updates[fieldPreferredName] = *upd.PreferredName
	}

	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	ue.Names["#id"] = fieldUserID
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, conditionFailed(err, "user not found", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Attributes, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddWordpressInstanceURL adds the URL to the user's string set.
func (r *UserRepo) AddWordpressInstanceURL(ctx context.Context, userID, instanceURL string) error {
	now, err := attributevalue.Marshal(time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldUserID, userID),
		UpdateExpression:    aws.String("ADD #w :w SET #u = :u"),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#w":  fieldWordpressURLs,
			"#u":  fieldUpdatedAt,
			"#id": fieldUserID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":w": &types.AttributeValueMemberSS{Value: []string{instanceURL}},
			":u": now,
		},
	})
	return conditionFailed(err, "user not found", domain.ErrNotFound)
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, notFound("user")
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
