// Package main is the entry point for the modular-ai server and CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/hpn/modular-ai/internal/adapter"
	"github.com/hpn/modular-ai/internal/config"
	"github.com/hpn/modular-ai/internal/dispatch"
	"github.com/hpn/modular-ai/internal/domain"
	"github.com/hpn/modular-ai/internal/handler"
	"github.com/hpn/modular-ai/internal/security"
	"github.com/hpn/modular-ai/internal/session"
	"github.com/hpn/modular-ai/internal/ui"
	"github.com/hpn/modular-ai/internal/view"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().Run(ctx, os.Args); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newRootCommand returns the top-level CLI command. Without a subcommand it serves.
func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "modular-ai",
		Usage:   "Prompt front-end with Gemini and a mock fallback provider",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: search ./, ./configs)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before the config",
				Value: ".env",
			},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			newServeCommand(),
			newAskCommand(),
		},
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Start the HTTP server",
		Action: runServe,
	}
}

func newAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one prompt and print the response",
		ArgsUsage: "<prompt>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   "Provider id (gemini-2.5-flash or groq-mock)",
				Value:   string(domain.DefaultProvider),
			},
		},
		Action: runAsk,
	}
}

// loadConfig loads the env file named by --env-file and then the configuration.
func loadConfig(cmd *cli.Command) (*config.Configuration, error) {
	if err := config.LoadDotEnv(cmd.String("env-file")); err != nil {
		return nil, err
	}
	return config.Load(cmd.String("config"))
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// =========================================================================
	// 1. Structured logger with key redaction
	// =========================================================================
	logger := setupLogger(cfg, os.Stdout)

	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.String("model", cfg.Provider.Model),
		slog.Bool("credential", cfg.HasCredential()),
		slog.Duration("mock_latency", cfg.MockLatency()),
	)

	if !cfg.HasCredential() {
		logger.Warn("no Gemini API key configured; primary requests will fall back to groq-mock",
			slog.String("env", config.EnvGeminiAPIKey),
		)
	}

	// =========================================================================
	// 2. Providers, dispatcher, sessions and routes
	// =========================================================================
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(cfg, logger, observeDispatch)
	if err != nil {
		return err
	}
	defer a.Close()

	// =========================================================================
	// 3. HTTP server with graceful shutdown
	// =========================================================================
	addr := cfg.Address()

	// Event streams never go idle; cancelling their base context lets Shutdown finish.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	srv.RegisterOnShutdown(cancelBase)

	ui.PrintBanner(version)
	ui.PrintStartupInfo(addr, cfg.Provider.Model, cfg.HasCredential(), cfg.MockLatency())

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	ui.PrintShutdown()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye()
	return nil
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	prompt := strings.Join(cmd.Args().Slice(), " ")
	if err := domain.ValidatePrompt(prompt); err != nil {
		ui.PrintError(err.Error())
		return fmt.Errorf("usage: modular-ai ask [--provider id] <prompt>")
	}

	provider, err := domain.ParseProvider(cmd.String("provider"))
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := setupLogger(cfg, os.Stderr)

	d := newDispatcher(cfg, logger, nil)
	resp, err := d.Dispatch(ctx, prompt, provider)
	if err != nil {
		ui.PrintError(session.FailurePrefix + err.Error())
		return err
	}

	ui.PrintResponse(resp.Result, string(resp.Provider), resp.Degraded)
	return nil
}

// app holds the wired server components.
type app struct {
	router     *gin.Engine
	store      *session.Store
	dispatcher *dispatch.Dispatcher
}

// newApp wires providers, dispatcher, session store and routes for cfg.
func newApp(cfg *config.Configuration, logger *slog.Logger, observer func(dispatch.Outcome)) (*app, error) {
	d := newDispatcher(cfg, logger, observer)

	store := session.NewStore(func() *session.Controller {
		return session.NewController(d, session.WithControllerLogger(logger))
	},
		session.WithSessionTTL(cfg.SessionTTL()),
		session.WithStoreLogger(logger),
	)

	renderer, err := view.NewRenderer()
	if err != nil {
		store.Close()
		return nil, err
	}

	h := handler.NewAppHandler(store, d, renderer,
		handler.WithLogger(logger),
		handler.WithCookie(cfg.Session.CookieName, cfg.SessionTTL()),
		handler.WithPrimaryInfo(handler.PrimaryInfo{
			Model:         cfg.Provider.Model,
			HasCredential: cfg.HasCredential(),
		}),
	)

	router := gin.New()
	router.Use(handler.RecoveryMiddleware(logger))
	router.Use(handler.LoggingMiddleware(logger))
	h.Register(router)

	return &app{router: router, store: store, dispatcher: d}, nil
}

// Close stops the session cleanup loop.
func (a *app) Close() {
	a.store.Close()
}

func newDispatcher(cfg *config.Configuration, logger *slog.Logger, observer func(dispatch.Outcome)) *dispatch.Dispatcher {
	gemini := adapter.NewGeminiAdapter(cfg.Provider.APIKey,
		adapter.WithModel(cfg.Provider.Model),
		adapter.WithBaseURL(cfg.Provider.BaseURL),
		adapter.WithTimeout(cfg.ProviderTimeout()),
	)
	mock := adapter.NewMockAdapter(
		adapter.WithLatency(cfg.MockLatency()),
		adapter.WithMockLogger(logger),
	)

	opts := []dispatch.Option{dispatch.WithLogger(logger)}
	if observer != nil {
		opts = append(opts, dispatch.WithObserver(observer))
	}
	return dispatch.New(gemini, mock, opts...)
}

// observeDispatch prints one console line per resolved dispatch.
func observeDispatch(o dispatch.Outcome) {
	ui.PrintDispatch(string(o.Requested), string(o.Response.Provider), o.Response.Degraded, o.Latency, o.Err)
}

// setupLogger creates a structured logger from config, wrapped so the API key never reaches output.
func setupLogger(cfg *config.Configuration, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	}

	var inner slog.Handler
	if cfg.Logging.Format == "text" {
		inner = slog.NewTextHandler(w, opts)
	} else {
		inner = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(security.NewRedactedHandler(inner, cfg.Provider.APIKey))

	// Set as default logger
	slog.SetDefault(logger)

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
