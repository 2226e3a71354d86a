package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AWSNewsBot/internal/domain"
)

// fakeDynamo is a map-backed table honouring the three calls the repository makes.
type fakeDynamo struct {
	items map[string]map[string]types.AttributeValue
	err   error
	scans []*dynamodb.ScanInput
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func (f *fakeDynamo) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := params.Key["id"].(*types.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[id]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := params.Item["id"].(*types.AttributeValueMemberS).Value
	f.items[id] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.scans = append(f.scans, params)
	if f.err != nil {
		return nil, f.err
	}
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
		out.Count++
		if out.Count == aws.ToInt32(params.Limit) {
			break
		}
	}
	return out, nil
}

func TestDynamoRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := newFakeDynamo()
	repo := NewDynamoRepository(api, "ProcessedNews")

	empty, err := repo.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)
	require.Len(t, api.scans, 1)
	assert.Equal(t, int32(1), aws.ToInt32(api.scans[0].Limit))
	assert.Equal(t, "ProcessedNews", aws.ToString(api.scans[0].TableName))

	rec := domain.ProcessedRecord{
		ID:          "abc",
		Title:       "Amazon S3 update",
		Link:        "https://example.com/s3",
		ProcessedAt: time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Save(ctx, rec))

	stored := api.items["abc"]
	assert.Equal(t, "2025-06-09T12:00:00Z", stored["processed_at"].(*types.AttributeValueMemberS).Value)
	_, hasSummary := stored["summary"]
	assert.False(t, hasSummary)

	exists, err := repo.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	empty, err = repo.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	rec.Summary = "🎉 summary"
	require.NoError(t, repo.Save(ctx, rec))
	assert.Equal(t, "🎉 summary", api.items["abc"]["summary"].(*types.AttributeValueMemberS).Value)
}

func TestDynamoRepositoryErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	api := newFakeDynamo()
	api.err = errors.New("ResourceNotFoundException")
	repo := NewDynamoRepository(api, "ProcessedNews")

	_, err := repo.IsEmpty(ctx)
	require.Error(t, err)

	_, err = repo.Exists(ctx, "abc")
	require.Error(t, err)

	require.Error(t, repo.Save(ctx, domain.ProcessedRecord{ID: "abc"}))
}
