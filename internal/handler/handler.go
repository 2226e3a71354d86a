package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"AWSNewsBot/internal/domain"
)

// Runner performs one relay pass.
type Runner interface {
	Run(ctx context.Context) (domain.RunReport, error)
}

// Response is the result document returned to the invoker.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Handler is the entry point shared by the Lambda runtime, the HTTP surface
// and the local modes. The trigger payload is ignored.
type Handler struct {
	runner Runner
	logger *slog.Logger
}

// New builds a handler around an already wired runner.
func New(runner Runner, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, logger: logger}
}

// Handle runs the pipeline once. It never returns an error: failures are
// reported through a 500 response so the invoker sees a result document.
func (h *Handler) Handle(ctx context.Context, _ json.RawMessage) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("run panicked", "panic", r)
			resp = failure(fmt.Errorf("panic: %v", r))
			err = nil
		}
	}()

	if h.runner == nil {
		return failure(fmt.Errorf("runner is not configured")), nil
	}

	report, runErr := h.runner.Run(ctx)
	if runErr != nil {
		h.logger.Error("run failed", "run_id", report.RunID, "error", runErr)
		return failure(runErr), nil
	}

	msg := report.Message()
	h.logger.Info("run completed", "run_id", report.RunID, "outcome", report.Outcome, "result", msg)
	return Response{StatusCode: http.StatusOK, Body: msg}, nil
}

func failure(err error) Response {
	return Response{StatusCode: http.StatusInternalServerError, Body: "run failed: " + err.Error()}
}
