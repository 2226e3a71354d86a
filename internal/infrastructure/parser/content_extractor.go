package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"AWSNewsBot/internal/ports"
)

const (
	minCandidateLength = 100
	truncationSuffix   = "..."
)

// Selectors tried in order; the first one with visible text wins.
var primarySelectors = []string{"main", "article"}

// Fallback content areas, scanned in document order.
const candidateSelector = "div.content, div.main-content, div.post-content"

var invisibleElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// ContentExtractor pulls the announcement body out of an article page.
type ContentExtractor struct {
	client    *http.Client
	timeout   time.Duration
	maxLength int
	userAgent string
	logger    *slog.Logger
}

var _ ports.ContentExtractor = (*ContentExtractor)(nil)

// NewContentExtractor wires an HTTP client; maxLength caps the result in characters.
func NewContentExtractor(client *http.Client, timeout time.Duration, maxLength int, userAgent string, logger *slog.Logger) *ContentExtractor {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentExtractor{
		client:    client,
		timeout:   timeout,
		maxLength: maxLength,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Extract fetches the page and returns its main text. A page without a
// recognisable body yields an empty string and no error.
func (e *ContentExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	doc, err := e.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}

	text := ExtractText(doc)
	if text == "" {
		e.logger.Warn("no body found", "url", pageURL)
		return "", nil
	}

	capped, truncated := truncate(text, e.maxLength)
	if truncated {
		e.logger.Info("body capped", "url", pageURL, "max_length", e.maxLength)
	}
	return capped, nil
}

func (e *ContentExtractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// ExtractText applies the selector priority to a parsed page.
func ExtractText(doc *goquery.Document) string {
	for _, selector := range primarySelectors {
		if text := visibleText(doc.Find(selector).First()); text != "" {
			return text
		}
	}

	var found string
	doc.Find(candidateSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := visibleText(s)
		if len([]rune(text)) > minCandidateLength {
			found = text
			return false
		}
		return true
	})
	return found
}

// visibleText joins trimmed text nodes with newlines, dropping empty ones.
func visibleText(sel *goquery.Selection) string {
	var blocks []string
	for _, n := range sel.Nodes {
		collectText(n, &blocks)
	}
	return strings.Join(blocks, "\n")
}

func collectText(n *html.Node, blocks *[]string) {
	switch n.Type {
	case html.TextNode:
		if t := strings.TrimSpace(n.Data); t != "" {
			*blocks = append(*blocks, t)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if _, skip := invisibleElements[n.Data]; skip {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, blocks)
	}
}

func truncate(text string, max int) (string, bool) {
	if max <= 0 {
		return text, false
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text, false
	}
	return string(runes[:max]) + truncationSuffix, true
}
