package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"AWSNewsBot/internal/domain"
	"AWSNewsBot/internal/ports"
)

const displayDateLayout = "2006-01-02"

// Reader fetches the announcement feed and normalizes its entries.
type Reader struct {
	url       string
	userAgent string
	client    *http.Client
	parser    *gofeed.Parser
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.FeedSource = (*Reader)(nil)

// NewReader wires an HTTP client; a nil client gets one bounded by timeout.
func NewReader(url, userAgent string, client *http.Client, timeout time.Duration, logger *slog.Logger) *Reader {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		url:       url,
		userAgent: userAgent,
		client:    client,
		parser:    gofeed.NewParser(),
		logger:    logger,
		now:       time.Now,
	}
}

// Fetch returns the feed entries in feed order. Entries missing a title or
// link are skipped individually.
func (r *Reader) Fetch(ctx context.Context) ([]domain.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	parsed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(parsed.Items))
	for i, entry := range parsed.Items {
		item, err := r.normalize(entry)
		if err != nil {
			r.logger.Warn("skip feed entry", "index", i, "error", err)
			continue
		}
		items = append(items, item)
	}

	r.logger.Info("feed fetched", "url", r.url, "entries", len(parsed.Items), "items", len(items))
	return items, nil
}

func (r *Reader) normalize(entry *gofeed.Item) (domain.NewsItem, error) {
	if entry == nil {
		return domain.NewsItem{}, fmt.Errorf("empty entry")
	}

	title := strings.TrimSpace(entry.Title)
	link := strings.TrimSpace(entry.Link)
	if title == "" {
		return domain.NewsItem{}, fmt.Errorf("entry has no title")
	}
	if link == "" {
		return domain.NewsItem{}, fmt.Errorf("entry %q has no link", title)
	}

	publishedAt := r.now().UTC()
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.UTC()
	}

	return domain.NewsItem{
		Title:         title,
		Link:          link,
		PublishedDate: publishedAt.Format(displayDateLayout),
		PublishedAt:   publishedAt,
	}, nil
}
