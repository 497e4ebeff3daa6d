// Package handler provides HTTP handlers for the prompt front-end.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hpn/modular-ai/internal/session"
)

// Context keys set by middleware and handlers.
const (
	ctxSessionID  = "session_id"
	ctxController = "controller"
	ctxServedBy   = "served_by"
	ctxDegraded   = "degraded"
)

// CORSMiddleware returns a middleware that enables permissive CORS.
// It is mounted on the JSON API only; the page routes are same-origin.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// LoggingMiddleware returns a middleware that logs request details in JSON format.
// It records the session and, for generation calls, which provider served the result.
func LoggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		sessionID := c.GetString(ctxSessionID)
		servedBy := c.GetString(ctxServedBy)
		degraded := c.GetBool(ctxDegraded)

		logger.Info("request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", latency),
			slog.String("client_ip", c.ClientIP()),
			slog.String("session", shortID(sessionID)),
			slog.String("served_by", servedBy),
			slog.Bool("degraded", degraded),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// RecoveryMiddleware returns a middleware that recovers from panics.
// It logs the error and returns a 500 response in the JSON error envelope.
func RecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("path", c.Request.URL.Path),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("server_error", "Internal server error"))
			}
		}()

		c.Next()
	}
}

// SessionMiddleware attaches the caller's controller, creating a session when the
// request has none or an expired one. The cookie is re-issued on every request so
// its Max-Age slides with the store's TTL.
func SessionMiddleware(store *session.Store, cookieName string, maxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		existing, _ := c.Cookie(cookieName)

		id, ctrl := store.GetOrCreate(existing)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookieName, id, int(maxAge.Seconds()), "/", "", false, true)

		c.Set(ctxSessionID, id)
		c.Set(ctxController, ctrl)
		c.Next()
	}
}

// controllerFrom returns the controller attached by SessionMiddleware.
func controllerFrom(c *gin.Context) *session.Controller {
	return c.MustGet(ctxController).(*session.Controller)
}

// shortID returns the first 8 characters of a session id for logging.
// The full id is a bearer credential for the session.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
