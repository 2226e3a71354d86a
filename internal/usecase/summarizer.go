package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"AWSNewsBot/internal/domain"
	"AWSNewsBot/internal/ports"
)

// DefaultRetryOffset is added to every rate-limit backoff.
const DefaultRetryOffset = 5 * time.Second

const promptTemplate = `The following is an AWS announcement about a new service or feature update. Summarize it as a chat message.
Write the whole message in %[1]s.

Structure the message as follows:

1. First line: 🎉 emoji followed by the news headline (one concise line)
2. Second line: 🗓 followed by the announcement date
3. Below that, one or two sentences summarizing the announcement (what it does, why it matters, expected benefits)
4. A line with ✨ introducing the key features
5. The key features, each in this format:

1️⃣ Feature title (one line)
- What the feature does and why it is useful (1-2 lines)

2️⃣ ...
- ...

List 2 to 3 features in total and use the actual number emojis (1️⃣, 2️⃣, 3️⃣).
Do not use markdown; keep the message natural and clear.
The entire response must be in %[1]s.

The last line must be: 🔗 %[2]s: (news URL)
---

Title: %[3]s
Announced: %[4]s
Article:
%[5]s
Link: %[6]s`

type localizedText struct {
	failureNotice string
	readMore      string
}

var localized = map[string]localizedText{
	"korean":  {failureNotice: "요약 생성에 실패했습니다.", readMore: "자세히 보기"},
	"english": {failureNotice: "Summary generation failed.", readMore: "Read more"},
}

func textFor(language string) localizedText {
	if t, ok := localized[strings.ToLower(strings.TrimSpace(language))]; ok {
		return t
	}
	return localized["english"]
}

// SummarizerConfig tunes the prompt and the rate-limit retry policy.
type SummarizerConfig struct {
	Language       string
	MaxRetries     int
	RetryDelayBase int
	RetryOffset    time.Duration
	// RetryUnit scales the exponential term; zero means one second.
	RetryUnit time.Duration
}

// maxBackoffUnits caps the exponential term so large bases cannot overflow.
const maxBackoffUnits = 900

// Summarizer turns an article body into a chat-ready message.
type Summarizer struct {
	model  ports.Model
	cfg    SummarizerConfig
	logger *slog.Logger

	// onBackoff observes every wait chosen by the retry loop.
	onBackoff func(time.Duration)
}

// NewSummarizer wires the model.
func NewSummarizer(model ports.Model, cfg SummarizerConfig, logger *slog.Logger) *Summarizer {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryDelayBase < 2 {
		cfg.RetryDelayBase = 2
	}
	if cfg.RetryUnit <= 0 {
		cfg.RetryUnit = time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{model: model, cfg: cfg, logger: logger}
}

// Summarize asks the model for a summary. Rate-limited attempts are retried
// with exponential backoff; any other failure stops at once. When no summary
// can be produced the result carries the fallback message with Success false.
func (s *Summarizer) Summarize(ctx context.Context, item domain.NewsItem, body string) domain.SummaryResult {
	prompt := BuildPrompt(s.cfg.Language, item, body)
	log := s.logger.With("news_id", item.ID())

	attempt := 0
	text, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		text, err := s.model.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		log.Error("model call failed", "attempt", attempt, "max_retries", s.cfg.MaxRetries, "error", err)
		if !errors.Is(err, ports.ErrRateLimited) {
			return "", backoff.Permanent(err)
		}
		return "", err
	},
		backoff.WithBackOff(&rateLimitBackOff{s: s}),
		backoff.WithMaxTries(uint(s.cfg.MaxRetries)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(_ error, delay time.Duration) {
			log.Info("rate limited, backing off", "delay", delay)
			if s.onBackoff != nil {
				s.onBackoff(delay)
			}
		}),
	)
	if err == nil {
		log.Info("summary generated", "title", domain.ShortTitle(item.Title), "attempt", attempt)
		return domain.SummaryResult{Success: true, Text: text}
	}

	log.Error("summary failed, using fallback", "title", item.Title, "error", err)
	return domain.SummaryResult{Success: false, Text: FallbackMessage(s.cfg.Language, item)}
}

// Backoff returns base^(attempt+1) units plus the fixed offset for a
// 0-based attempt. The exponential term is capped at maxBackoffUnits.
func (s *Summarizer) Backoff(attempt int) time.Duration {
	units := 1
	for i := 0; i <= attempt; i++ {
		units *= s.cfg.RetryDelayBase
		if units >= maxBackoffUnits {
			units = maxBackoffUnits
			break
		}
	}
	return time.Duration(units)*s.cfg.RetryUnit + s.cfg.RetryOffset
}

// rateLimitBackOff feeds Summarizer.Backoff into backoff.Retry.
type rateLimitBackOff struct {
	s       *Summarizer
	attempt int
}

func (b *rateLimitBackOff) NextBackOff() time.Duration {
	d := b.s.Backoff(b.attempt)
	b.attempt++
	return d
}

func (b *rateLimitBackOff) Reset() { b.attempt = 0 }

// BuildPrompt renders the single user turn sent to the model.
func BuildPrompt(language string, item domain.NewsItem, body string) string {
	if strings.TrimSpace(language) == "" {
		language = "English"
	}
	return fmt.Sprintf(promptTemplate,
		language,
		textFor(language).readMore,
		item.Title,
		item.PublishedDate,
		body,
		item.Link)
}

// FallbackMessage is delivered when the model could not summarize the item.
func FallbackMessage(language string, item domain.NewsItem) string {
	t := textFor(language)
	return fmt.Sprintf("🎉 %s\n🗓 %s\n\n%s\n\n🔗 %s: %s",
		item.Title, item.PublishedDate, t.failureNotice, t.readMore, item.Link)
}
