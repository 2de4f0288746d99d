package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"oldphonedeals/internal/cache"
	"oldphonedeals/internal/config"
	httpx "oldphonedeals/internal/http"
	"oldphonedeals/internal/logging"
	"oldphonedeals/internal/marketplace"
	"oldphonedeals/internal/metrics"
	"oldphonedeals/internal/services/notify"
	"oldphonedeals/internal/services/views"
	"oldphonedeals/internal/session"
	"oldphonedeals/internal/store/memory"
	"oldphonedeals/internal/store/postgres"
	"oldphonedeals/internal/store/repositories"
)

const maxDBConns = 10

var rootCmd = &cobra.Command{
	Use:           "oldphonedeals",
	Short:         "OldPhoneDeals list view gateway",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		logging.Setup(cfg.App.LogLevel, cfg.App.LogFormat)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the view preference tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DB.DSN == "" {
			return errors.New("DB_DSN is required to migrate")
		}
		pool, err := postgres.Open(cmd.Context(), cfg.DB.DSN, 2)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.NewRepo(pool).Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

var cfg config.Cfg

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	m := metrics.New()
	client := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout)

	// Sessions and collection cache
	var (
		sessions  session.Store = session.NewMemoryStore(cfg.Views.SessionTTL)
		collCache cache.Cache   = cache.Nop{}
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		sessions = session.NewRedisStore(rdb, cfg.Views.SessionTTL)
		collCache = cache.NewRedis(rdb, "oldphonedeals:")
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, using in-memory sessions and no collection cache")
	}

	// View preferences
	var prefs repositories.PreferenceRepository = memory.NewPreferenceRepo()
	if cfg.DB.DSN != "" {
		pool, err := postgres.Open(ctx, cfg.DB.DSN, maxDBConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		prefs = postgres.NewRepo(pool)
	} else {
		log.Warn().Msg("DB_DSN not set, view preferences are kept in memory")
	}

	manager := views.NewManager(views.Deps{
		Market:        client,
		Cache:         collCache,
		CacheTTL:      cfg.Views.CacheTTL,
		Observer:      m,
		CacheObserver: m,
		PageSize:      cfg.Views.PageSize,
	}, prefs, m)
	inbox := notify.NewInbox(notify.DefaultInboxSize)

	r := httpx.NewRouter(httpx.RouterDependencies{
		Config:   cfg,
		Auth:     client,
		Sessions: sessions,
		Views:    manager,
		Inbox:    inbox,
		Metrics:  m.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Notify.ServiceToken != "" {
		poller := notify.NewPoller(client, inbox, cfg.Notify.ServiceToken, cfg.Notify.PollEvery)
		g.Go(func() error {
			poller.Run(gctx)
			return nil
		})
	} else {
		log.Info().Msg("NOTIFY_SERVICE_TOKEN not set, order notifications disabled")
	}

	sweeper := views.NewSweeper(manager, sessions, cfg.Views.SweepEvery)
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Msgf("OldPhoneDeals API listening on :%s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		log.Info().Msg("server stopped")
		return err
	})

	return g.Wait()
}
