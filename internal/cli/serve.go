package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/commentboard/internal/auth"
	"github.com/evcraddock/commentboard/internal/config"
	"github.com/evcraddock/commentboard/internal/lock"
	"github.com/evcraddock/commentboard/internal/logging"
	"github.com/evcraddock/commentboard/internal/metrics"
	"github.com/evcraddock/commentboard/internal/web"
)

// sessionCleanupInterval is how often expired SQLite sessions are purged.
const sessionCleanupInterval = 10 * time.Minute

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the comment board",
		Long:  "Start the HTTP server for the public board and the admin area.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return runServe(cmd, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides server.port)")

	return cmd
}

// backends are the shared stores for sessions and admission locks.
type backends struct {
	sessions auth.SessionStore
	locker   lock.Locker
	cleanup  func(ctx context.Context) error
	close    func() error
}

func runServe(cmd *cobra.Command, cfg *config.Config) error {
	if err := logging.Setup(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		DevMode: cfg.Server.DevMode,
	}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(database)

	be, err := newBackends(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			slog.Warn("closing redis client", "error", err)
		}
	}()

	moderator, err := newModerator(cmd, cfg)
	if err != nil {
		return err
	}
	if !moderator.Available() {
		slog.Warn("moderation is not configured; every comment will be admitted", "provider", cfg.Moderation.Provider)
	}

	authenticator := auth.NewAuthenticator(auth.Config{
		Password:     cfg.Admin.Password,
		PasswordHash: cfg.Admin.PasswordHash,
	}, be.sessions)
	if !authenticator.Enabled() {
		slog.Warn("no admin password configured; admin login is disabled")
	}

	srv, err := web.NewServer(database, web.Config{
		Auth:      authenticator,
		Moderator: moderator,
		Locker:    be.locker,
		Metrics:   metrics.New(),
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           logging.RequestLogger(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", httpServer.Addr, "dev_mode", cfg.Server.DevMode)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		slog.Info("shutting down server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	})

	if be.cleanup != nil {
		g.Go(func() error {
			ticker := time.NewTicker(sessionCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if err := be.cleanup(gctx); err != nil {
						slog.Warn("cleaning up sessions", "error", err)
					}
				}
			}
		})
	}

	return g.Wait()
}

// newBackends picks Redis when redis.url is set, so several instances
// can share sessions and locks, and SQLite otherwise.
func newBackends(ctx context.Context, cfg *config.Config, database *sql.DB) (*backends, error) {
	if cfg.Redis.URL == "" {
		sessions := auth.NewSQLiteSessionStore(database)
		return &backends{
			sessions: sessions,
			locker:   lock.NewSQLiteLocker(database),
			cleanup:  sessions.Cleanup,
			close:    func() error { return nil },
		}, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis.url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	slog.Info("using redis for sessions and admission locks", "addr", opts.Addr)
	return &backends{
		sessions: auth.NewRedisSessionStore(client),
		locker:   lock.NewRedisLocker(client),
		close:    client.Close,
	}, nil
}
