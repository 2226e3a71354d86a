package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"AWSNewsBot/internal/app"
	"AWSNewsBot/internal/config"
	"AWSNewsBot/internal/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, errHelp) {
		return
	}
	if err != nil {
		slog.Error("invalid arguments", "error", err)
		os.Exit(2)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(opts, cfg, logger); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}

func run(opts options, cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	logger.Info("newsbot starting", "mode", opts.Mode, "store", cfg.Store.Backend, "feed", cfg.Feed.URL)

	switch opts.Mode {
	case modeLambda:
		lambda.StartWithOptions(application.Handler().Handle, lambda.WithContext(ctx))
		return nil
	case modeOnce:
		resp := application.RunOnce(ctx)
		fmt.Println(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return errors.New(resp.Body)
		}
		return nil
	case modeCron:
		return serveCron(ctx, application, opts.Cron, logger)
	case modeHTTP:
		return serveHTTP(ctx, application, opts.Listen, logger)
	default:
		return fmt.Errorf("unknown mode %q", opts.Mode)
	}
}

func serveCron(ctx context.Context, application *app.Application, spec string, logger *slog.Logger) error {
	sched := application.Scheduler(spec)
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return sched.Stop(shutdownCtx)
}

func serveHTTP(ctx context.Context, application *app.Application, addr string, logger *slog.Logger) error {
	server := application.HTTPServer(addr)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
