package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// NewsItem is a single announcement read from the feed.
type NewsItem struct {
	Title         string
	Link          string
	PublishedDate string
	PublishedAt   time.Time
}

// ID derives the deduplication key of the item.
func (n NewsItem) ID() string {
	return NewsID(n.Link)
}

// NewsID returns the hex MD5 digest of the link. Records written by earlier
// deployments use the same key, so the algorithm must not change.
func NewsID(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])
}

// ProcessedRecord is persisted once per news id for deduplication and audit.
type ProcessedRecord struct {
	ID          string
	Title       string
	Link        string
	ProcessedAt time.Time
	Summary     string
}

// NewProcessedRecord stamps a record for the item; summary may be empty.
func NewProcessedRecord(item NewsItem, summary string, now time.Time) ProcessedRecord {
	return ProcessedRecord{
		ID:          item.ID(),
		Title:       item.Title,
		Link:        item.Link,
		ProcessedAt: now.UTC(),
		Summary:     summary,
	}
}

// SummaryResult is the deliverable text for one item. Text is a fallback
// message when Success is false.
type SummaryResult struct {
	Success bool
	Text    string
}

// RunOutcome tells which terminal state a run reached.
type RunOutcome string

const (
	OutcomeNoNews    RunOutcome = "no_news"
	OutcomeFirstRun  RunOutcome = "first_run"
	OutcomeProcessed RunOutcome = "processed"
)

// RunReport aggregates one pipeline execution.
type RunReport struct {
	RunID          string
	Outcome        RunOutcome
	Fetched        int
	Recorded       int
	NewCount       int
	SummarySuccess int
	NotifySuccess  int
}

// Message renders the human-readable body returned to the invoker.
func (r RunReport) Message() string {
	switch r.Outcome {
	case OutcomeNoNews:
		return "No news found"
	case OutcomeFirstRun:
		return fmt.Sprintf("Initial run completed - recorded %d news items", r.Recorded)
	default:
		return fmt.Sprintf("Processing complete - new: %d, summaries succeeded: %d, notifications sent: %d",
			r.NewCount, r.SummarySuccess, r.NotifySuccess)
	}
}

// ShortTitle trims a title for log lines.
func ShortTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= 50 {
		return title
	}
	return string(runes[:50]) + "..."
}
