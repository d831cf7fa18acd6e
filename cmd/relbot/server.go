package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/relbot/internal/api"
	"github.com/kalambet/relbot/internal/config"
	"github.com/kalambet/relbot/internal/session"
)

const (
	shutdownTimeout = 5 * time.Second
	purgeInterval   = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", cfg.Addr())
		if err != nil {
			return fmt.Errorf("listening on %s: %w", cfg.Addr(), err)
		}
		return runServer(ctx, cfg, ln, newLogger(cfg))
	},
}

// runServer serves on ln until ctx is canceled or the server fails.
func runServer(ctx context.Context, cfg config.Config, ln net.Listener, logger zerolog.Logger) error {
	logger.Info().Str("version", version).Str("addr", ln.Addr().String()).Bool("debug", cfg.Debug()).Msg("relbot starting")

	sessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := sessions.close(); err != nil {
			logger.Warn().Err(err).Msg("closing session store")
		}
	}()
	logger.Info().Str("backend", cfg.Session.Backend).Dur("ttl", cfg.Session.TTL).Msg("session store ready")

	if cfg.Server.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.Server.MaxConnections)
	}
	if cfg.Sheets.ScriptURL == "" {
		logger.Warn().Msg("GOOGLE_SCRIPT_URL is not set, interactions will not be logged")
	}

	handler := api.NewHandler(api.Deps{
		Assistant: newAssistant(cfg, logger),
		Sessions:  session.NewManager(sessions.backend, cfg.Session.SecretKey, cfg.Session.TTL, cfg.Session.CookieSecure),
		Logger:    logger,
	})
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if sessions.sqlite != nil {
		g.Go(func() error {
			purgeSessions(gctx, sessions.sqlite, logger)
			return nil
		})
	}

	return g.Wait()
}

func purgeSessions(ctx context.Context, b *session.SQLiteBackend, logger zerolog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.Purge(ctx)
			if err != nil {
				logger.Warn().Err(err).Msg("purging expired sessions")
				continue
			}
			if n > 0 {
				logger.Debug().Int64("removed", n).Msg("purged expired sessions")
			}
		}
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}
		showStatus(cmd.Context(), cfg, serverURLFor(cfg))
		return nil
	},
}

func serverURLFor(cfg config.Config) string {
	if serverURL != "" {
		return serverURL
	}
	return localURL(cfg)
}

func showStatus(ctx context.Context, cfg config.Config, base string) {
	if ctx == nil {
		ctx = context.Background()
	}
	health := &apiClient{baseURL: base, httpClient: &http.Client{Timeout: 2 * time.Second}}
	if resp, err := health.get(ctx, "/health"); err != nil {
		printStatus("Server", "stopped")
	} else {
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(resp, &body); err != nil {
			printStatus("Server", "error (%v)", err)
		} else {
			printStatus("Server", "running at %s (%s)", base, body.Status)
		}
	}

	printStatus("Model", "%s at %s", cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	if cfg.OpenAI.APIKey == "" {
		printStatus("API key", "not set")
	} else {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		models, err := newCompletionClient(cfg).ListModels(checkCtx)
		cancel()
		if err != nil {
			printStatus("API key", "rejected (%v)", err)
		} else {
			printStatus("API key", "valid, %d models available", len(models))
		}
	}

	if _, err := os.Stat(cfg.Dataset.CSVFile); err != nil {
		printStatus("Dataset", "missing (%s)", cfg.Dataset.CSVFile)
	} else {
		printStatus("Dataset", "%s", cfg.Dataset.CSVFile)
	}

	if cfg.Sheets.ScriptURL == "" {
		printStatus("Sheets", "not configured")
	} else {
		printStatus("Sheets", "configured")
	}
	printStatus("Sessions", "%s (ttl %s, secure cookie %t)", cfg.Session.Backend, cfg.Session.TTL, cfg.Session.CookieSecure)
	if err := cfg.Validate(); err != nil {
		printWarning("config is not valid for serving: %v", err)
		return
	}
	printSuccess("config is valid for serving")
}
