package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"AWSNewsBot/internal/domain"
	"AWSNewsBot/internal/ports"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Source          ports.FeedSource
	Store           ports.ProcessedStore
	Extractor       ports.ContentExtractor
	Summarizer      *Summarizer
	Notifier        ports.Notifier
	Logger          *slog.Logger
	InitialDelay    time.Duration
	ProcessingDelay time.Duration
	Sleep           SleepFunc
	NewRunID        func() string
}

// Pipeline relays new feed items to the chat destination, strictly one item
// at a time in feed order. The pauses between model calls are the rate-limit
// policy for the shared model endpoint.
type Pipeline struct {
	source          ports.FeedSource
	dedup           *Deduplicator
	extractor       ports.ContentExtractor
	summarizer      *Summarizer
	notifier        ports.Notifier
	logger          *slog.Logger
	initialDelay    time.Duration
	processingDelay time.Duration
	sleep           SleepFunc
	newRunID        func() string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	newRunID := deps.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	var dedup *Deduplicator
	if deps.Store != nil {
		dedup = NewDeduplicator(deps.Store, logger.With("component", "dedup"))
	}

	return &Pipeline{
		source:          deps.Source,
		dedup:           dedup,
		extractor:       deps.Extractor,
		summarizer:      deps.Summarizer,
		notifier:        deps.Notifier,
		logger:          logger,
		initialDelay:    deps.InitialDelay,
		processingDelay: deps.ProcessingDelay,
		sleep:           sleep,
		newRunID:        newRunID,
	}
}

// Run executes one pass over the feed. Upstream failures degrade into empty
// or fallback results; the returned error is reserved for misconfiguration
// and context cancellation.
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{RunID: p.newRunID()}
	if p.source == nil || p.dedup == nil || p.extractor == nil || p.summarizer == nil || p.notifier == nil {
		return report, fmt.Errorf("pipeline is not fully configured")
	}

	log := p.logger.With("run_id", report.RunID)
	log.Info("run started")

	items, err := p.source.Fetch(ctx)
	if err != nil {
		log.Error("feed fetch failed", "error", err)
		items = nil
	}
	report.Fetched = len(items)

	if len(items) == 0 {
		log.Warn("no news in feed")
		report.Outcome = domain.OutcomeNoNews
		return report, nil
	}

	if p.dedup.FirstRun(ctx) {
		return p.recordAll(ctx, log, items, report), nil
	}

	report.Outcome = domain.OutcomeProcessed
	if err := p.processSequentially(ctx, log, items, &report); err != nil {
		return report, err
	}

	log.Info("run finished",
		"new", report.NewCount,
		"summaries_succeeded", report.SummarySuccess,
		"notifications_sent", report.NotifySuccess)
	return report, nil
}

// recordAll primes the store on first deployment without notifying anyone.
func (p *Pipeline) recordAll(ctx context.Context, log *slog.Logger, items []domain.NewsItem, report domain.RunReport) domain.RunReport {
	log.Info("first run detected, recording items without notifications", "items", len(items))

	for _, item := range items {
		p.dedup.Record(ctx, item, "")
	}

	report.Outcome = domain.OutcomeFirstRun
	report.Recorded = len(items)
	return report
}

func (p *Pipeline) processSequentially(ctx context.Context, log *slog.Logger, items []domain.NewsItem, report *domain.RunReport) error {
	waitedInitial := false

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}

		id := item.ID()
		if p.dedup.Seen(ctx, id) {
			continue
		}

		report.NewCount++
		itemLog := log.With("news_id", id)
		itemLog.Info("processing new item", "n", report.NewCount, "title", domain.ShortTitle(item.Title))

		body, err := p.extractor.Extract(ctx, item.Link)
		if err != nil {
			itemLog.Error("content extraction failed", "url", item.Link, "error", err)
			body = ""
		}
		if body == "" {
			itemLog.Warn("no body, recording without notification", "title", item.Title)
			p.dedup.Record(ctx, item, "")
			continue
		}

		if !waitedInitial {
			waitedInitial = true
			itemLog.Info("waiting before first model call", "delay", p.initialDelay)
			if err := p.sleep(ctx, p.initialDelay); err != nil {
				return fmt.Errorf("initial delay: %w", err)
			}
		}

		result := p.summarizer.Summarize(ctx, item, body)
		if result.Success {
			report.SummarySuccess++
		} else {
			itemLog.Warn("delivering fallback message", "title", domain.ShortTitle(item.Title))
		}

		if err := p.notifier.Notify(ctx, result.Text); err != nil {
			itemLog.Error("notification failed", "error", err)
		} else {
			report.NotifySuccess++
		}

		p.dedup.Record(ctx, item, result.Text)

		itemLog.Info("pausing before next item", "delay", p.processingDelay)
		if err := p.sleep(ctx, p.processingDelay); err != nil {
			return fmt.Errorf("processing delay: %w", err)
		}
	}

	return nil
}
