package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"AWSNewsBot/internal/config"
	"AWSNewsBot/internal/handler"
	"AWSNewsBot/internal/infrastructure/feed"
	"AWSNewsBot/internal/infrastructure/httpapi"
	"AWSNewsBot/internal/infrastructure/llm"
	"AWSNewsBot/internal/infrastructure/parser"
	"AWSNewsBot/internal/infrastructure/scheduler"
	"AWSNewsBot/internal/infrastructure/storage"
	"AWSNewsBot/internal/infrastructure/webhook"
	"AWSNewsBot/internal/logging"
	"AWSNewsBot/internal/ports"
	"AWSNewsBot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration. It is
// built once per process and reused across warm invocations.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	handler  *handler.Handler
	closers  []func() error
}

// New builds the AWS clients, the selected store and the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.openStore(ctx, func() storage.DynamoAPI { return dynamodb.NewFromConfig(awsCfg) })
	if err != nil {
		return nil, err
	}

	// Retries are owned by the summarizer, so the SDK makes a single attempt.
	bedrock := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		o.RetryMaxAttempts = 1
	})

	a.assemble(store, llm.NewBedrockClient(bedrock, cfg.Bedrock))
	return a, nil
}

func (a *Application) openStore(ctx context.Context, dynamo func() storage.DynamoAPI) (ports.ProcessedStore, error) {
	switch a.cfg.Store.Backend {
	case config.BackendSQL:
		repo, err := storage.OpenSQLRepository(ctx, a.cfg.Store.DSN, a.logger.With("component", "store.sql"))
		if err != nil {
			return nil, fmt.Errorf("open sql store: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		return storage.NewDynamoRepository(dynamo(), a.cfg.Store.Table), nil
	}
}

func (a *Application) assemble(store ports.ProcessedStore, model ports.Model) {
	cfg := a.cfg
	timeout := cfg.Pipeline.RequestTimeoutDuration()

	source := feed.NewReader(cfg.Feed.URL, cfg.Feed.UserAgent, nil, timeout, a.logger.With("component", "feed"))
	extractor := parser.NewContentExtractor(nil, timeout, cfg.Summary.ContentMaxLength, cfg.Feed.UserAgent,
		a.logger.With("component", "extractor"))
	notifier := webhook.NewNotifier(cfg.Slack.WebhookURL, cfg.Slack.MaxLength, timeout, a.logger.With("component", "slack"))

	summarizer := usecase.NewSummarizer(model, usecase.SummarizerConfig{
		Language:       cfg.Summary.Language,
		MaxRetries:     cfg.Summary.MaxRetries,
		RetryDelayBase: cfg.Summary.RetryDelayBase,
		RetryOffset:    usecase.DefaultRetryOffset,
	}, a.logger.With("component", "summarizer"))

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Source:          source,
		Store:           store,
		Extractor:       extractor,
		Summarizer:      summarizer,
		Notifier:        notifier,
		Logger:          a.logger.With("component", "pipeline"),
		InitialDelay:    cfg.Pipeline.InitialDelayDuration(),
		ProcessingDelay: cfg.Pipeline.ProcessingDelayDuration(),
	})
	a.handler = handler.New(a.pipeline, a.logger.With("component", "handler"))
}

// Handler is the invocation entry point.
func (a *Application) Handler() *handler.Handler {
	return a.handler
}

// RunOnce executes a single pass and returns the invoker response.
func (a *Application) RunOnce(ctx context.Context) handler.Response {
	resp, _ := a.handler.Handle(ctx, nil)
	return resp
}

// Scheduler returns a cron-driven runner; an empty spec uses the configured one.
func (a *Application) Scheduler(spec string) *usecase.Scheduler {
	if spec == "" {
		spec = a.cfg.Scheduler.CronExpression
	}
	driver := scheduler.NewCronScheduler(spec, a.cfg.Scheduler.Location(), a.logger.With("component", "scheduler"))
	return usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "schedule"))
}

// HTTPServer exposes the handler on addr; an empty addr uses the configured one.
func (a *Application) HTTPServer(addr string) *http.Server {
	if addr == "" {
		addr = a.cfg.HTTP.Addr
	}
	router := httpapi.NewRouter(a.handler, a.logger.With("component", "http"))
	return httpapi.NewServer(addr, router)
}

// Close releases store connections.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
