package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/config"
)

const (
	indexEmail         = "email-index"
	indexShortname     = "shortname-index"
	indexUserID        = "user_id-index"
	indexUserCreatedAt = "user_id-created_at-index"
	indexPublicID      = "public_id-index"
)

// Bootstrap creates all DynamoDB tables and GSIs if they don't already exist.
// Safe to call on every startup; existing tables are skipped.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables, logger *zerolog.Logger) {
	b := bootstrapper{client: client, logger: logger}

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldUserID, types.ScalarAttributeTypeS),
			attr(fieldEmail, types.ScalarAttributeTypeS),
			attr(fieldShortname, types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldUserID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexEmail, fieldEmail, ""),
			gsi(indexShortname, fieldShortname, ""),
		},
	})

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Sessions),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldSessionID, types.ScalarAttributeTypeS),
			attr(fieldUserID, types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldSessionID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserID, fieldUserID, ""),
		},
	})
	b.enableTTL(ctx, tables.Sessions, fieldExpiresAt)

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.VerificationCodes),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldCodeID, types.ScalarAttributeTypeS),
			attr(fieldUserID, types.ScalarAttributeTypeS),
			attr(fieldCreatedAt, types.ScalarAttributeTypeN),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldCodeID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexUserCreatedAt, fieldUserID, fieldCreatedAt),
		},
	})
	b.enableTTL(ctx, tables.VerificationCodes, fieldPruneAt)

	b.createTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.APIKeys),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldKeyID, types.ScalarAttributeTypeS),
			attr(fieldPublicID, types.ScalarAttributeTypeS),
			attr(fieldUserID, types.ScalarAttributeTypeS),
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(fieldKeyID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexPublicID, fieldPublicID, ""),
			gsi(indexUserID, fieldUserID, ""),
		},
	})

	for _, table := range []string{tables.EntityTypes, tables.PropertyTypes} {
		b.createTable(ctx, &dynamodb.CreateTableInput{
			TableName:   aws.String(table),
			BillingMode: types.BillingModePayPerRequest,
			AttributeDefinitions: []types.AttributeDefinition{
				attr(fieldBaseURL, types.ScalarAttributeTypeS),
				attr(fieldVersion, types.ScalarAttributeTypeN),
				attr(fieldUserID, types.ScalarAttributeTypeS),
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(fieldBaseURL), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(fieldVersion), KeyType: types.KeyTypeRange},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
				gsi(indexUserID, fieldUserID, ""),
			},
		})
	}
}

type bootstrapper struct {
	client *dynamodb.Client
	logger *zerolog.Logger
}

func attr(name string, t types.ScalarAttributeType) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: t}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKey, sortKey string) types.GlobalSecondaryIndex {
	ks := []types.KeySchemaElement{
		{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
	}
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func (b bootstrapper) createTable(ctx context.Context, input *dynamodb.CreateTableInput) {
	_, err := b.client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			b.logger.Warn().Err(err).Str("table", *input.TableName).Msg("could not create table")
		}
		return
	}
	b.logger.Info().Str("table", *input.TableName).Msg("created table")
}

func (b bootstrapper) enableTTL(ctx context.Context, tableName, ttlAttr string) {
	_, err := b.client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		b.logger.Warn().Err(err).Str("table", tableName).Msg("could not enable TTL")
	}
}
