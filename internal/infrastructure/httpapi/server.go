package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"AWSNewsBot/internal/handler"
)

const maxTriggerBody = 64 << 10

// Invoker is the handler entry point exposed over HTTP.
type Invoker interface {
	Handle(ctx context.Context, event json.RawMessage) (handler.Response, error)
}

// NewRouter exposes the run trigger and a health probe.
func NewRouter(invoker Invoker, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	r.POST("/run", func(c *gin.Context) {
		raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTriggerBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.Response{StatusCode: http.StatusBadRequest, Body: "read trigger: " + err.Error()})
			return
		}
		if len(raw) == 0 {
			raw = []byte("{}")
		}

		resp, err := invoker.Handle(c.Request.Context(), json.RawMessage(raw))
		if err != nil {
			resp = handler.Response{StatusCode: http.StatusInternalServerError, Body: "run failed: " + err.Error()}
		}
		c.JSON(resp.StatusCode, resp)
	})

	return r
}

// NewServer wraps the router in an http.Server with conservative timeouts.
// The write timeout is left open since one run can take minutes.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP())
	}
}
