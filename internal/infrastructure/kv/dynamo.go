package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// sortKeyLayout is fixed width so sort keys order lexically by time.
const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

// DynamoBackend keeps values in one table (partition key item_key) and log
// entries in another (partition key stream, sort key sk). With the log
// table's Kinesis streaming enabled, every append reaches the Lambda notifier.
type DynamoBackend struct {
	client   *dynamodb.Client
	kvTable  string
	logTable string
}

type dynamoValue struct {
	Key       string `dynamodbav:"item_key"`
	Value     string `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// DynamoLogItem is the item layout of the log table. The Kinesis adapter
// decodes stream records with the same attribute names.
type DynamoLogItem struct {
	Stream    string `dynamodbav:"stream"`
	SortKey   string `dynamodbav:"sk"`
	Value     string `dynamodbav:"value"`
	CreatedAt string `dynamodbav:"created_at"`
}

// NewDynamoBackend loads the default AWS configuration for region.
func NewDynamoBackend(ctx context.Context, region, kvTable, logTable string) (*DynamoBackend, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDynamoBackendWithClient(dynamodb.NewFromConfig(cfg), kvTable, logTable), nil
}

func NewDynamoBackendWithClient(client *dynamodb.Client, kvTable, logTable string) *DynamoBackend {
	return &DynamoBackend{client: client, kvTable: kvTable, logTable: logTable}
}

func (b *DynamoBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.kvTable),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"item_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get item: %w", err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	var item dynamoValue
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return []byte(item.Value), true, nil
}

func (b *DynamoBackend) Set(ctx context.Context, key string, value []byte) error {
	av, err := attributevalue.MarshalMap(dynamoValue{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.kvTable),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

func (b *DynamoBackend) Remove(ctx context.Context, key string) error {
	_, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.kvTable),
		Key: map[string]types.AttributeValue{
			"item_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// Append writes a new log item. The sort key combines a fixed-width
// timestamp with a random suffix, and the conditional write refuses to
// overwrite an existing entry.
func (b *DynamoBackend) Append(ctx context.Context, stream string, value []byte) error {
	now := time.Now().UTC()
	av, err := attributevalue.MarshalMap(DynamoLogItem{
		Stream:    stream,
		SortKey:   now.Format(sortKeyLayout) + "#" + uuid.New().String(),
		Value:     string(value),
		CreatedAt: now.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal log item: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(b.logTable),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(sk)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put log item: %w", err)
	}
	return nil
}

func (b *DynamoBackend) Range(ctx context.Context, stream string) ([][]byte, error) {
	paginator := dynamodb.NewQueryPaginator(b.client, &dynamodb.QueryInput{
		TableName:              aws.String(b.logTable),
		KeyConditionExpression: aws.String("#stream = :s"),
		ExpressionAttributeNames: map[string]string{
			"#stream": "stream",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: stream},
		},
		ConsistentRead:   aws.Bool(true),
		ScanIndexForward: aws.Bool(true),
	})

	var out [][]byte
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query log: %w", err)
		}
		for _, raw := range page.Items {
			var item DynamoLogItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal log item: %w", err)
			}
			out = append(out, []byte(item.Value))
		}
	}
	return out, nil
}

func (b *DynamoBackend) Close() error { return nil }
