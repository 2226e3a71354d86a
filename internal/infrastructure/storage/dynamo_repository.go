package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"AWSNewsBot/internal/domain"
	"AWSNewsBot/internal/ports"
)

// DynamoAPI is the slice of the DynamoDB client the repository needs.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoRepository keeps processed news in a table keyed by the string attribute "id".
type DynamoRepository struct {
	api   DynamoAPI
	table string
}

var _ ports.ProcessedStore = (*DynamoRepository)(nil)

type dynamoRecord struct {
	ID          string `dynamodbav:"id"`
	Title       string `dynamodbav:"title"`
	Link        string `dynamodbav:"link"`
	ProcessedAt string `dynamodbav:"processed_at"`
	Summary     string `dynamodbav:"summary,omitempty"`
}

// NewDynamoRepository wires a DynamoDB client and table name.
func NewDynamoRepository(api DynamoAPI, table string) *DynamoRepository {
	return &DynamoRepository{api: api, table: table}
}

// IsEmpty probes the table with a one-item scan.
func (r *DynamoRepository) IsEmpty(ctx context.Context) (bool, error) {
	out, err := r.api.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.table),
		Limit:     aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("scan %s: %w", r.table, err)
	}
	return out.Count == 0 && len(out.Items) == 0, nil
}

// Exists looks the id up by key.
func (r *DynamoRepository) Exists(ctx context.Context, id string) (bool, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.table),
		Key:                  keyFor(id),
		ProjectionExpression: aws.String("id"),
	})
	if err != nil {
		return false, fmt.Errorf("get item %s: %w", id, err)
	}
	return len(out.Item) > 0, nil
}

// Save writes the record; an existing item with the same id is replaced.
func (r *DynamoRepository) Save(ctx context.Context, record domain.ProcessedRecord) error {
	item, err := attributevalue.MarshalMap(dynamoRecord{
		ID:          record.ID,
		Title:       record.Title,
		Link:        record.Link,
		ProcessedAt: record.ProcessedAt.UTC().Format(time.RFC3339),
		Summary:     record.Summary,
	})
	if err != nil {
		return fmt.Errorf("marshal item %s: %w", record.ID, err)
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item %s: %w", record.ID, err)
	}
	return nil
}

func keyFor(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}
