package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adrayandaleandrew/baring-construction/internal/clientid"
	"github.com/adrayandaleandrew/baring-construction/internal/config"
	"github.com/adrayandaleandrew/baring-construction/internal/handlers"
	"github.com/adrayandaleandrew/baring-construction/internal/models"
	"github.com/adrayandaleandrew/baring-construction/internal/submission"
)

// Pinger is a dependency checked by /ready.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the pipelines and readiness checks served by the router.
type Deps struct {
	Contact *submission.Pipeline[models.ContactSubmission]
	Quote   *submission.Pipeline[models.QuoteSubmission]
	// Ready maps a dependency name to its check. Empty means always ready.
	Ready map[string]Pinger
}

// NewRouter wires public endpoints and the form APIs.
// Probes: /health, /ready
// Forms: /contact, /quote, also served under /api
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the shared rate limit ledger is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		for name, p := range deps.Ready {
			if err := p.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "dependency": name, "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Multipart parts beyond this stay on disk instead of in memory.
	r.MaxMultipartMemory = 8 << 20

	for _, prefix := range []string{"/", "/api"} {
		forms := r.Group(prefix)
		forms.Use(clientid.Middleware(), limitBody(cfg.MaxBodyBytes))

		handlers.RegisterContactRoutes(forms, deps.Contact)
		handlers.RegisterQuoteRoutes(forms, deps.Quote)
	}

	return r
}

// limitBody caps how much of a request body handlers may read.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client", clientid.FromHeader(c.GetHeader("X-Forwarded-For")),
		)
	}
}
