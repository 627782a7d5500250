package dynamo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/blockprotocol/hub-api/internal/domain"
)

// typeItem is the table layout of one type version.
// PK: base_url, SK: version.
type typeItem[S any] struct {
	BaseURL          string                     `dynamodbav:"base_url"`
	Version          int                        `dynamodbav:"version"`
	RecordKey        string                     `dynamodbav:"record_key"`
	UserID           string                     `dynamodbav:"user_id"`
	TypeWithMetadata domain.TypeWithMetadata[S] `dynamodbav:"type_with_metadata"`
	CreatedAt        time.Time                  `dynamodbav:"created_at"`
}

func (it typeItem[S]) record() domain.TypeRecord[S] {
	return domain.TypeRecord[S]{
		RecordKey:        it.RecordKey,
		RecordID:         domain.RecordID{BaseURL: it.BaseURL, Version: it.Version},
		TypeWithMetadata: it.TypeWithMetadata,
		UserID:           it.UserID,
		CreatedAt:        it.CreatedAt,
	}
}

// TypeRepo stores the versions of one ontology kind.
type TypeRepo[S any] struct {
	client    *dynamodb.Client
	tableName string
}

func NewTypeRepo[S any](client *dynamodb.Client, tableName string) *TypeRepo[S] {
	return &TypeRepo[S]{client: client, tableName: tableName}
}

// Insert stores a new version; the key condition makes a second writer of
// the same version fail with ErrConflict.
func (r *TypeRepo[S]) Insert(ctx context.Context, rec *domain.TypeRecord[S]) error {
	item, err := attributevalue.MarshalMap(typeItem[S]{
		BaseURL:          rec.RecordID.BaseURL,
		Version:          rec.RecordID.Version,
		RecordKey:        rec.RecordKey,
		UserID:           rec.UserID,
		TypeWithMetadata: rec.TypeWithMetadata,
		CreatedAt:        rec.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal type: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#b)"),
		ExpressionAttributeNames: map[string]string{"#b": fieldBaseURL},
	})
	return conditionFailed(err, "type version already exists", domain.ErrConflict)
}

func (r *TypeRepo[S]) GetVersion(ctx context.Context, baseURL string, version int) (*domain.TypeRecord[S], error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       typeKey(baseURL, version),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, notFound("type")
	}
	var it typeItem[S]
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, err
	}
	rec := it.record()
	return &rec, nil
}

func (r *TypeRepo[S]) GetLatest(ctx context.Context, baseURL string) (*domain.TypeRecord[S], error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    aws.String("#b = :b"),
		ExpressionAttributeNames:  map[string]string{"#b": fieldBaseURL},
		ExpressionAttributeValues: map[string]types.AttributeValue{":b": &types.AttributeValueMemberS{Value: baseURL}},
		ScanIndexForward:          aws.Bool(false),
		ConsistentRead:            aws.Bool(true),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, notFound("type")
	}
	var it typeItem[S]
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return nil, err
	}
	rec := it.record()
	return &rec, nil
}

// List scans the table, or queries the user index when an author is given.
func (r *TypeRepo[S]) List(ctx context.Context, filter domain.TypeFilter) ([]domain.TypeRecord[S], error) {
	var items []map[string]types.AttributeValue
	if filter.UserID != "" {
		p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(indexUserID),
			KeyConditionExpression:    aws.String("#u = :u"),
			ExpressionAttributeNames:  map[string]string{"#u": fieldUserID},
			ExpressionAttributeValues: map[string]types.AttributeValue{":u": &types.AttributeValueMemberS{Value: filter.UserID}},
		})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			items = append(items, page.Items...)
		}
	} else {
		p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			items = append(items, page.Items...)
		}
	}

	var its []typeItem[S]
	if err := attributevalue.UnmarshalListOfMaps(items, &its); err != nil {
		return nil, err
	}
	recs := make([]domain.TypeRecord[S], 0, len(its))
	for _, it := range its {
		recs = append(recs, it.record())
	}
	if filter.LatestOnly {
		recs = latestPerBaseURL(recs)
	}
	sortRecords(recs)
	return recs, nil
}

// latestPerBaseURL groups records by base URL and keeps the max version of
// each group.
func latestPerBaseURL[S any](recs []domain.TypeRecord[S]) []domain.TypeRecord[S] {
	byBase := make(map[string][]domain.TypeRecord[S])
	for _, rec := range recs {
		byBase[rec.RecordID.BaseURL] = append(byBase[rec.RecordID.BaseURL], rec)
	}
	out := make([]domain.TypeRecord[S], 0, len(byBase))
	for _, versions := range byBase {
		latest := versions[0]
		for _, v := range versions[1:] {
			if v.RecordID.Version > latest.RecordID.Version {
				latest = v
			}
		}
		out = append(out, latest)
	}
	return out
}

func sortRecords[S any](recs []domain.TypeRecord[S]) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i].RecordID, recs[j].RecordID
		if a.BaseURL != b.BaseURL {
			return a.BaseURL < b.BaseURL
		}
		return a.Version < b.Version
	})
}
