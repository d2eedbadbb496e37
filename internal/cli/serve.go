package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"studenthelp/backend/internal/config"
	"studenthelp/backend/internal/database"
	"studenthelp/backend/internal/hub"
	"studenthelp/backend/internal/ratelimit"
	"studenthelp/backend/internal/relay"
	"studenthelp/backend/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "listen port (overrides PORT)")

	return cmd
}

func serve(ctx context.Context, opts *ServeOptions) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Port != 0 {
		cfg.Port = opts.Port
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	gin.SetMode(cfg.GinMode)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	local := hub.NewHub()
	events, closeRelay := startRelay(cfg, local)
	defer closeRelay()

	limiter, closeLimiter := startLimiter(ctx, cfg)
	defer closeLimiter()

	engine := router.Setup(router.Options{
		DB:                          db,
		Hub:                         local,
		Events:                      events,
		Limiter:                     limiter,
		Logger:                      slog.Default().With("component", "http"),
		MessagingRequiresConnection: cfg.MessagingRequiresConnection,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server is running", "addr", srv.Addr, "mode", cfg.GinMode)
		slog.Info("Swagger UI is available", "url", fmt.Sprintf("http://localhost:%d/swagger/index.html", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

// startRelay connects the NATS relay when NATS_URL is set. Otherwise events go
// straight to the local hub.
func startRelay(cfg *config.Config, local *hub.Hub) (hub.Publisher, func()) {
	if cfg.NATSURL == "" {
		return local, func() {}
	}

	nc, err := relay.Connect(cfg.NATSURL)
	if err != nil {
		slog.Warn("NATS unavailable, live events stay on this instance", "error", err)
		return local, func() {}
	}

	r := relay.New(nc, cfg.NATSSubject, local)
	if err := r.Start(); err != nil {
		slog.Warn("NATS subscribe failed, live events stay on this instance", "error", err)
		nc.Close()
		return local, func() {}
	}
	slog.Info("Relaying live events over NATS", "subject", cfg.NATSSubject)
	return r, r.Close
}

// startLimiter connects the redis rate limiter when REDIS_ADDR is set.
func startLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func()) {
	if cfg.RedisAddr == "" || cfg.RateLimitPerMinute <= 0 {
		return ratelimit.Noop{}, func() {}
	}

	client := ratelimit.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Warn("Redis unavailable, rate limiting disabled", "error", err)
		_ = client.Close()
		return ratelimit.Noop{}, func() {}
	}

	slog.Info("Rate limiting enabled", "perMinute", cfg.RateLimitPerMinute)
	return ratelimit.NewRedisLimiter(client, cfg.RateLimitPerMinute, time.Minute), func() { _ = client.Close() }
}
