package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Stachugit-s/teamtaskmanager2/internal/config"
	"github.com/Stachugit-s/teamtaskmanager2/internal/metrics"
	"github.com/Stachugit-s/teamtaskmanager2/router"
	"github.com/Stachugit-s/teamtaskmanager2/services"
	"github.com/Stachugit-s/teamtaskmanager2/store"
)

const shutdownTimeout = 10 * time.Second

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.App
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := newApp(ctx, &cfg, logger, autoMigrate)
		if err != nil {
			return err
		}
		defer app.Close()

		return app.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", true, "Apply pending migrations before serving")
}

// app is the fully wired server and the connections it owns
type app struct {
	server *http.Server
	db     *sql.DB
	redis  *redis.Client
	logger *logrus.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger, migrate bool) (*app, error) {
	a := &app{logger: logger}

	st, err := a.openStore(ctx, cfg, migrate)
	if err != nil {
		return nil, err
	}

	cache, err := a.identityCache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if a.db != nil {
		registry.MustRegister(collectors.NewDBStatsCollector(a.db, cfg.DatabaseDriver))
	}

	gin.SetMode(cfg.GinMode)
	handler := router.NewGinRouter(router.Deps{
		Store:         st,
		DB:            a.db,
		Redis:         a.redis,
		Tokens:        services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
		IdentityCache: cache,
		Metrics:       metrics.NewMetrics(registry),
		Logger:        logger,
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, cfg *config.Config, migrate bool) (*store.Store, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		a.logger.Warn("Using the in-memory store; data is lost on exit")
		return store.NewMemoryStore(), nil
	}

	conn, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = conn

	if migrate {
		applied, err := store.Migrate(ctx, conn, cfg.DatabaseDriver)
		if err != nil {
			conn.Close()
			return nil, err
		}
		for _, version := range applied {
			a.logger.WithField("version", version).Info("Migration applied")
		}
	}
	return store.NewSQLStore(conn), nil
}

func (a *app) identityCache(ctx context.Context, cfg *config.Config) (services.IdentityCache, error) {
	if cfg.RedisURL == "" {
		return services.NewMemoryIdentityCache(cfg.IdentityCacheSize, cfg.IdentityCacheTTL), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis_url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redis = client
	return services.NewRedisIdentityCache(client, cfg.IdentityCacheTTL), nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (a *app) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.WithField("addr", a.server.Addr).Info("HTTP server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close redis client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close database")
		}
	}
}
