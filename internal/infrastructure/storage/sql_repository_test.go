package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AWSNewsBot/internal/domain"
	"AWSNewsBot/internal/logging"
)

func openTestSQL(t *testing.T) *SQLRepository {
	t.Helper()

	dsn := "sqlite://" + filepath.Join(t.TempDir(), "news.db")
	repo, err := OpenSQLRepository(context.Background(), dsn, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := openTestSQL(t)

	empty, err := repo.IsEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, empty)

	item := domain.NewsItem{Title: "Amazon EC2 update", Link: "https://example.com/ec2"}
	rec := domain.NewProcessedRecord(item, "", time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, rec))

	exists, err := repo.Exists(ctx, item.ID())
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, domain.NewsID("https://example.com/other"))
	require.NoError(t, err)
	assert.False(t, exists)

	empty, err = repo.IsEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, empty)

	var summary *string
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT summary FROM processed_news WHERE id = ?`, rec.ID).Scan(&summary))
	assert.Nil(t, summary)

	rec.Summary = "🎉 요약"
	require.NoError(t, repo.Save(ctx, rec))

	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT summary FROM processed_news WHERE id = ?`, rec.ID).Scan(&summary))
	require.NotNil(t, summary)
	assert.Equal(t, "🎉 요약", *summary)

	var count int
	require.NoError(t, repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_news`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLRepositoryReopenKeepsSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "news.db")

	first, err := OpenSQLRepository(ctx, dsn, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, domain.ProcessedRecord{ID: "a", Title: "t", Link: "l", ProcessedAt: time.Now()}))
	require.NoError(t, first.Close())

	second, err := OpenSQLRepository(ctx, dsn, logging.Discard())
	require.NoError(t, err)
	defer second.Close()

	exists, err := second.Exists(ctx, "a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSplitDSN(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		dsn     string
		dialect string
		source  string
		wantErr bool
	}{
		"sqlite":    {dsn: "sqlite:///tmp/news.db", dialect: dialectSQLite, source: "/tmp/news.db"},
		"postgres":  {dsn: "postgres://u:p@localhost:5432/news", dialect: dialectPostgres, source: "postgres://u:p@localhost:5432/news"},
		"unknown":   {dsn: "mysql://u@h/db", wantErr: true},
		"no scheme": {dsn: "news.db", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			dialect, source, err := splitDSN(tc.dsn)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.dialect, dialect)
			assert.Equal(t, tc.source, source)
		})
	}
}

func TestSQLRepositoryPlaceholdersPerDialect(t *testing.T) {
	t.Parallel()

	rec := domain.NewProcessedRecord(
		domain.NewsItem{Title: "AWS Lambda update", Link: "https://example.com/lambda"},
		"summary",
		time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
	)

	cases := []struct {
		dialect string
		lookup  string
		values  string
	}{
		{dialect: dialectPostgres, lookup: "WHERE id = $1", values: "VALUES ($1,$2,$3,$4,$5)"},
		{dialect: dialectSQLite, lookup: "WHERE id = ?", values: "VALUES (?,?,?,?,?)"},
	}

	for _, tc := range cases {
		t.Run(tc.dialect, func(t *testing.T) {
			repo := NewSQLRepository(nil, tc.dialect)

			query, args, err := repo.lookupQuery(rec.ID)
			require.NoError(t, err)
			assert.Contains(t, query, tc.lookup)
			assert.Equal(t, []interface{}{rec.ID}, args)

			query, args, err = repo.upsertQuery(rec)
			require.NoError(t, err)
			assert.Contains(t, query, tc.values)
			assert.Contains(t, query, "ON CONFLICT (id) DO UPDATE")
			assert.Len(t, args, 5)
		})
	}
}
