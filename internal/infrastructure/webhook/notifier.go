package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"AWSNewsBot/internal/ports"
)

// TruncationMarker ends every message cut down to the length limit.
const TruncationMarker = "...\n(message truncated)"

// StatusError is returned for non-2xx webhook responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned %d: %s", e.StatusCode, e.Body)
}

// Notifier posts messages to a Slack-compatible incoming webhook.
type Notifier struct {
	url       string
	maxLength int
	client    *http.Client
	logger    *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook endpoint and message limit.
func NewNotifier(url string, maxLength int, timeout time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		url:       url,
		maxLength: maxLength,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Notify posts {"text": …}, truncating the text to the configured limit.
func (n *Notifier) Notify(ctx context.Context, text string) error {
	if n.url == "" || n.client == nil {
		return fmt.Errorf("webhook notifier misconfigured")
	}

	if length := len([]rune(text)); length > n.maxLength {
		n.logger.Warn("message too long, truncating", "length", length, "max_length", n.maxLength)
		text = Truncate(text, n.maxLength)
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	n.logger.Info("message delivered")
	return nil
}

// Truncate cuts text so that the result, marker included, has at most max characters.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	keep := max - len([]rune(TruncationMarker))
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + TruncationMarker
}
