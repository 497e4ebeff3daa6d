package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hpn/modular-ai/internal/dispatch"
	"github.com/hpn/modular-ai/internal/domain"
	"github.com/hpn/modular-ai/internal/session"
	"github.com/hpn/modular-ai/internal/view"
)

const (
	// DefaultCookieName is the session cookie used when none is configured.
	DefaultCookieName = "modular_ai_session"

	// DefaultHeartbeat is the interval of keep-alive events on /events.
	DefaultHeartbeat = 15 * time.Second

	// StateEvent is the SSE event name carrying state updates.
	StateEvent = "state"
)

// Dispatcher resolves stateless generation requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, prompt string, provider domain.ProviderID) (domain.AIResponse, error)
	Stats() dispatch.Stats
}

// PrimaryInfo describes the primary provider for the health endpoint.
type PrimaryInfo struct {
	Model         string
	HasCredential bool
}

// AppHandler serves the prompt page, its session endpoints and the JSON API.
type AppHandler struct {
	store      *session.Store
	dispatcher Dispatcher
	renderer   *view.Renderer
	logger     *slog.Logger
	cookieName string
	cookieTTL  time.Duration
	heartbeat  time.Duration
	primary    PrimaryInfo
}

// AppHandlerOption is a functional option for configuring AppHandler.
type AppHandlerOption func(*AppHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) AppHandlerOption {
	return func(h *AppHandler) {
		h.logger = logger
	}
}

// WithCookie sets the session cookie name and lifetime.
func WithCookie(name string, ttl time.Duration) AppHandlerOption {
	return func(h *AppHandler) {
		if name != "" {
			h.cookieName = name
		}
		if ttl > 0 {
			h.cookieTTL = ttl
		}
	}
}

// WithHeartbeat sets the keep-alive interval of the event stream.
func WithHeartbeat(d time.Duration) AppHandlerOption {
	return func(h *AppHandler) {
		if d > 0 {
			h.heartbeat = d
		}
	}
}

// WithPrimaryInfo sets what /health reports about the primary provider.
func WithPrimaryInfo(info PrimaryInfo) AppHandlerOption {
	return func(h *AppHandler) {
		h.primary = info
	}
}

// NewAppHandler creates a new AppHandler.
func NewAppHandler(
	store *session.Store,
	dispatcher Dispatcher,
	renderer *view.Renderer,
	opts ...AppHandlerOption,
) *AppHandler {
	h := &AppHandler{
		store:      store,
		dispatcher: dispatcher,
		renderer:   renderer,
		logger:     slog.Default(),
		cookieName: DefaultCookieName,
		cookieTTL:  session.DefaultSessionTTL,
		heartbeat:  DefaultHeartbeat,
		primary:    PrimaryInfo{Model: string(domain.DefaultProvider)},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register mounts all routes on router.
func (h *AppHandler) Register(router *gin.Engine) {
	router.SetHTMLTemplate(h.renderer.Template())

	router.GET("/health", h.HandleHealth)

	pages := router.Group("/", SessionMiddleware(h.store, h.cookieName, h.cookieTTL))
	{
		pages.GET("/", h.HandlePage)
		pages.POST("/submit", h.HandleSubmit)
		pages.GET("/state", h.HandleState)
		pages.GET("/events", h.HandleEvents)
		pages.POST("/reset", h.HandleReset)
	}

	api := router.Group("/api", CORSMiddleware())
	{
		api.POST("/generate", h.HandleGenerate)
		api.GET("/providers", h.HandleProviders)
		api.OPTIONS("/*path", func(c *gin.Context) {})
	}
}

// submitRequest is the form (or JSON) body of POST /submit.
type submitRequest struct {
	Prompt   string `form:"prompt" json:"prompt"`
	Provider string `form:"provider" json:"provider"`
}

// generateRequest is the body of POST /api/generate.
type generateRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Provider string `json:"provider"`
}

// stateResponse is a state snapshot plus the rendered result area.
type stateResponse struct {
	session.State
	HTML string `json:"html"`
}

// HandlePage handles GET /
func (h *AppHandler) HandlePage(c *gin.Context) {
	s := controllerFrom(c).Snapshot()
	page := view.NewPage(s.Prompt, s.Provider, s.IsLoading, view.Derive(s.IsLoading, s.Error, s.Response))
	c.HTML(http.StatusOK, view.PageTemplate, page)
}

// HandleSubmit handles POST /submit.
// It stores the prompt and provider in the session and starts a request.
// The result arrives on /events; the response only carries the loading state.
func (h *AppHandler) HandleSubmit(c *gin.Context) {
	ctrl := controllerFrom(c)

	var req submitRequest
	if err := c.ShouldBind(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
		return
	}

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	if err := ctrl.SetPrompt(req.Prompt); err != nil {
		h.sendState(c, http.StatusConflict, ctrl.Snapshot())
		return
	}
	if err := ctrl.SetProvider(provider); err != nil {
		h.sendState(c, http.StatusConflict, ctrl.Snapshot())
		return
	}

	tk, err := ctrl.Submit(c.Request.Context())
	switch {
	case domain.IsValidationError(err):
		h.sendState(c, http.StatusBadRequest, ctrl.Snapshot())
		return
	case errors.Is(err, session.ErrSubmitInFlight):
		h.sendState(c, http.StatusConflict, ctrl.Snapshot())
		return
	case err != nil:
		h.sendError(c, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	h.logger.Debug("prompt submitted",
		slog.String("session", shortID(c.GetString(ctxSessionID))),
		slog.Uint64("token", tk.Token),
		slog.String("provider", string(provider)),
	)

	h.sendState(c, http.StatusAccepted, ctrl.Snapshot())
}

// HandleState handles GET /state
func (h *AppHandler) HandleState(c *gin.Context) {
	h.sendState(c, http.StatusOK, controllerFrom(c).Snapshot())
}

// HandleReset handles POST /reset
func (h *AppHandler) HandleReset(c *gin.Context) {
	ctrl := controllerFrom(c)
	if err := ctrl.Reset(); err != nil {
		h.sendState(c, http.StatusConflict, ctrl.Snapshot())
		return
	}
	h.sendState(c, http.StatusOK, ctrl.Snapshot())
}

// HandleEvents handles GET /events.
// It streams a "state" event for the current snapshot and after every change.
func (h *AppHandler) HandleEvents(c *gin.Context) {
	ctrl := controllerFrom(c)
	updates, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	if !h.writeEvent(c, ctrl.Snapshot()) {
		return
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case s := <-updates:
			return h.writeEvent(c, s)
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// HandleGenerate handles POST /api/generate.
// It dispatches one prompt without touching any session.
func (h *AppHandler) HandleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
		return
	}

	if err := domain.ValidatePrompt(req.Prompt); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	provider, err := domain.ParseProvider(req.Provider)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	resp, err := h.dispatcher.Dispatch(c.Request.Context(), req.Prompt, provider)
	if err != nil {
		h.logger.Error("generation failed",
			slog.String("provider", string(provider)),
			slog.String("error", err.Error()),
		)
		h.sendError(c, http.StatusBadGateway, "upstream_error", session.FailurePrefix+err.Error())
		return
	}

	c.Set(ctxServedBy, string(resp.Provider))
	c.Set(ctxDegraded, resp.Degraded)
	c.JSON(http.StatusOK, resp)
}

// HandleProviders handles GET /api/providers
func (h *AppHandler) HandleProviders(c *gin.Context) {
	providers := domain.Providers()
	data := make([]gin.H, 0, len(providers))
	for _, p := range providers {
		data = append(data, gin.H{
			"id":      p,
			"label":   p.Label(),
			"default": p == domain.DefaultProvider,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   data,
	})
}

// HandleHealth handles GET /health
func (h *AppHandler) HandleHealth(c *gin.Context) {
	status := "healthy"
	if !h.primary.HasCredential {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"primary": gin.H{
			"model":      h.primary.Model,
			"credential": h.primary.HasCredential,
		},
		"sessions": h.store.Len(),
		"dispatch": h.dispatcher.Stats(),
	})
}

// render builds the state payload, falling back to the bare error text if the
// template fails.
func (h *AppHandler) render(s session.State) stateResponse {
	html, err := h.renderer.Result(view.Derive(s.IsLoading, s.Error, s.Response))
	if err != nil {
		h.logger.Error("render failed", slog.String("error", err.Error()))
		html = ""
	}
	return stateResponse{State: s, HTML: html}
}

func (h *AppHandler) sendState(c *gin.Context, status int, s session.State) {
	c.JSON(status, h.render(s))
}

// writeEvent writes one state event. It reports false once the client is gone.
func (h *AppHandler) writeEvent(c *gin.Context, s session.State) bool {
	if c.Request.Context().Err() != nil {
		return false
	}
	c.SSEvent(StateEvent, h.render(s))
	return true
}

// sendError sends an error response in the {"error": {...}} envelope.
func (h *AppHandler) sendError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, errorBody(errType, message))
}

func errorBody(errType, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"message": message,
			"type":    errType,
		},
	}
}
