package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AWSNewsBot/internal/logging"
)

func parseHTML(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	require.NoError(t, err)
	return doc
}

func TestExtractTextSelectorPriority(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Amazon Bedrock now supports more regions. ", 4)

	tests := map[string]struct {
		html string
		want string
	}{
		"main only": {
			html: `<main>Test main content</main>`,
			want: "Test main content",
		},
		"main preferred over article": {
			html: `<article>article text</article><main><h1> Title </h1><p>Body  </p></main>`,
			want: "Title\nBody",
		},
		"empty main falls back to article": {
			html: `<main>   <script>var x = 1;</script></main><article><p>From article</p></article>`,
			want: "From article",
		},
		"first long candidate wins": {
			html: `<div class="content">too short</div>
			       <div class="post-content"><p>` + long + `</p></div>
			       <div class="main-content"><p>later ` + long + `</p></div>`,
			want: strings.TrimSpace(long),
		},
		"short candidates only": {
			html: `<div class="content">short</div><div class="main-content">also short</div>`,
			want: "",
		},
		"nothing recognisable": {
			html: `<body><div class="sidebar">links</div></body>`,
			want: "",
		},
		"style and comments are invisible": {
			html: `<main><style>p{}</style><!-- hidden --><p>Shown</p></main>`,
			want: "Shown",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractText(parseHTML(t, tc.html)))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	got, cut := truncate("abcdef", 3)
	assert.True(t, cut)
	assert.Equal(t, "abc...", got)

	got, cut = truncate("abc", 3)
	assert.False(t, cut)
	assert.Equal(t, "abc", got)

	got, cut = truncate("아마존웹서비스", 3)
	assert.True(t, cut)
	assert.Equal(t, "아마존...", got)
}

func TestContentExtractorExtract(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><main><p>` + strings.Repeat("x", 50) + `</p></main></body></html>`))
		case "/empty":
			_, _ = w.Write([]byte(`<html><body><nav>menu</nav></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	extractor := NewContentExtractor(server.Client(), time.Second, 20, "AWSNewsBot/test", logging.Discard())
	ctx := context.Background()

	text, err := extractor.Extract(ctx, server.URL+"/news")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", 20)+"...", text)

	text, err = extractor.Extract(ctx, server.URL+"/empty")
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = extractor.Extract(ctx, server.URL+"/missing")
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestContentExtractorTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	extractor := NewContentExtractor(nil, time.Second, 3000, "", logging.Discard())
	text, err := extractor.Extract(context.Background(), url)
	require.Error(t, err)
	assert.Empty(t, text)
}
