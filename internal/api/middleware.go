package api

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Veraticus/rulesmith/internal/common"
)

const requestIDHeader = "X-Request-ID"

// requestLogger tags each request with an id, stores a request-scoped logger
// on the request context and logs the outcome once the handler returns.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := slog.Default().With("request_id", requestID)
		c.Request = c.Request.WithContext(common.WithLogger(c.Request.Context(), logger))

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		)
	}
}

// recovery turns a handler panic into the generic internal error response.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		respondInternal(c, fmt.Errorf("panic: %v", recovered))
	})
}

// CORSOptions mirrors the server.cors_* configuration keys.
type CORSOptions struct {
	Origins          []string
	Methods          []string
	Headers          []string
	AllowCredentials bool
}

func corsMiddleware(opts CORSOptions) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     opts.Methods,
		AllowHeaders:     opts.Headers,
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	}

	if len(opts.Origins) == 0 || containsWildcard(opts.Origins) {
		// Echo any origin so credentials keep working with a wildcard.
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = opts.Origins
	}
	return cors.New(cfg)
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}
