package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Arturia169/my-homepage/internal/bilibili"
	"github.com/Arturia169/my-homepage/internal/config"
	"github.com/Arturia169/my-homepage/internal/db"
	"github.com/Arturia169/my-homepage/internal/livestatus"
	"github.com/Arturia169/my-homepage/internal/server"
	"github.com/Arturia169/my-homepage/internal/youtube"
)

// App owns every long-lived dependency of the live API.
type App struct {
	cfg *config.Config
	log *zap.Logger

	Aggregator *livestatus.Aggregator
	Targets    livestatus.TargetSource
	Snapshots  *livestatus.RedisStore

	pool *pgxpool.Pool
	rdb  *redis.Client
}

// NewLogger returns a production logger in production and a development logger
// otherwise, at the given level.
func NewLogger(appEnv, level string) (*zap.Logger, error) {
	var zc zap.Config
	if appEnv == "production" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// New wires the clients and the optional registry and snapshot stores. Redis and
// Postgres are only connected when configured; a failed connection is logged and
// that feature is disabled.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		log.Warn("config: " + w)
	}

	a := &App{cfg: cfg, log: log}

	bili := bilibili.New(cfg.UpstreamTimeout)
	var channels *livestatus.ChannelAdapter
	if cfg.YTAPIKey != "" {
		channels = livestatus.NewChannelAdapter(youtube.New(cfg.YTAPIKey, cfg.UpstreamTimeout), cfg.YTMaxResults, log.Named("youtube"))
	} else if len(cfg.YTChannels) > 0 {
		log.Warn("config: YT_CHANNELS set without YT_API_KEY, youtube lookups disabled")
	}

	a.Aggregator = livestatus.NewAggregator(livestatus.Options{
		Rooms:         livestatus.NewRoomAdapter(bili, log.Named("bilibili")),
		Channels:      channels,
		Classifier:    livestatus.NewClassifier(cfg.PlaceholderKeywords, cfg.PlaceholderCutoffYear),
		SchemaVersion: cfg.SchemaVersion,
		Logger:        log.Named("aggregate"),
	})

	a.Targets = livestatus.StaticTargets(cfg.Targets())
	if cfg.DatabaseURL != "" {
		pool, err := connectRegistry(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("registry: disabled", zap.Error(err))
		} else {
			a.pool = pool
			a.Targets = livestatus.RegistryTargets{
				Base:     cfg.Targets(),
				Registry: db.Registry{Pool: pool},
				Timeout:  cfg.UpstreamTimeout,
				Log:      log.Named("targets"),
			}
		}
	}

	if cfg.RedisURL != "" {
		rdb, err := NewRedisClient(cfg.RedisURL, cfg.RedisPassword)
		if err != nil {
			log.Warn("snapshots: disabled", zap.Error(err))
		} else {
			a.rdb = rdb
			a.Snapshots = &livestatus.RedisStore{Client: rdb, TTL: cfg.SnapshotTTL}
		}
	}
	return a, nil
}

func connectRegistry(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func NewRedisClient(redisURL, redisPassword string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if redisPassword != "" {
		opt.Password = redisPassword
	}
	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Once runs a single aggregation over the current targets.
func (a *App) Once(ctx context.Context) (livestatus.AggregateResult, error) {
	return a.Aggregator.Aggregate(ctx, a.Targets.Targets(ctx))
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context, version string) error {
	opts := server.Options{
		Aggregator:     a.Aggregator,
		Targets:        a.Targets,
		PublishTimeout: a.cfg.UpstreamTimeout,
		ImageProxy:     server.NewImageProxy(a.cfg.ImageHosts, a.cfg.UpstreamTimeout, a.log.Named("img")),
		Logger:         a.log.Named("http"),
		Version:        version,
	}
	if a.Snapshots != nil {
		opts.Publisher = a.Snapshots
	}
	s := server.New(opts)

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http: listening", zap.String("addr", srv.Addr),
			zap.Int("rooms", len(a.cfg.BilibiliRooms)),
			zap.Int("channels", len(a.cfg.YTChannels)),
			zap.Bool("youtube", a.cfg.YTAPIKey != ""),
			zap.Bool("registry", a.pool != nil),
			zap.Bool("snapshots", a.Snapshots != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("http: shutting down", zap.Error(ctx.Err()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.Close()
	return nil
}

func (a *App) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
