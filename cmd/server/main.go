package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/infra"
	qinfra "github.com/lgsantiago/social-icebreaker-api/question/infra"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.logLevel, cfg.logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d := deps{
		logger: logger,
		completer: qinfra.NewOpenAIClient(qinfra.Config{
			BaseURL: cfg.openAIBaseURL,
			APIKey:  cfg.openAIKey,
			Model:   cfg.openAIModel,
		}, qinfra.WithLogger(logger)),
	}

	var memStats *infra.MemoryStatsStore
	if cfg.rateEnabled {
		rdb, err := newRedis(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		err = rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			// sobe mesmo assim: o FailMode decide enquanto o Redis não volta
			logger.Warn("redis ping failed", zap.Error(err), zap.String("fail_mode", string(cfg.failMode)))
		}

		fallback := infra.NewWindowStore(cfg.shortWindow)
		fallback.StartJanitor(ctx)

		d.rdb = rdb
		d.counter = infra.NewRedisCounter(rdb)
		d.fallback = fallback

		if cfg.rateStatsEnabled {
			switch cfg.rateStatsBackend {
			case "memory":
				memStats = infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.rateStatsTrackKeys))
				d.stats = memStats
			default:
				d.stats = infra.NewRedisStatsStore(
					rdb,
					infra.WithStatsPrefix(cfg.rateStatsPrefix),
					infra.WithStatsTTL(cfg.rateStatsTTL),
					infra.WithStatsBucket(cfg.rateStatsBucket),
					infra.WithStatsTrackKeys(cfg.rateStatsTrackKeys),
				)
			}
		}
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           newRouter(cfg, d),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.completionTimeout + 20*time.Second,
		IdleTimeout:       90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("server listening",
		zap.String("addr", cfg.listenAddr),
		zap.String("model", cfg.openAIModel),
		zap.Bool("openai_key_present", cfg.openAIKey != ""),
		zap.Duration("completion_timeout", cfg.completionTimeout),
	)
	logger.Info("rate limit",
		zap.Bool("enabled", cfg.rateEnabled),
		zap.Int64("short_limit", cfg.shortWindow.Limit),
		zap.Duration("short_window", cfg.shortWindow.Period),
		zap.Int64("long_limit", cfg.longWindow.Limit),
		zap.Duration("long_window", cfg.longWindow.Period),
		zap.String("fail_mode", string(cfg.failMode)),
		zap.String("key_source", cfg.keySource),
		zap.Bool("stats", cfg.rateStatsEnabled),
		zap.String("stats_backend", cfg.rateStatsBackend),
	)
	logger.Info("concurrency", zap.Int("max", cfg.concurrencyMax), zap.Duration("acquire_timeout", cfg.concurrencyTimeout))

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.WithMessage(err, "listen and serve")
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.completionTimeout+5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}

	if memStats != nil {
		total := memStats.Total()
		logger.Info("rate limit stats",
			zap.Int64("allowed", total.Allowed),
			zap.Int64("denied", total.Denied),
			zap.Int64("degraded", total.Degraded),
		)
	}
	return nil
}

func newRedis(cfg config) (redis.UniversalClient, error) {
	if strings.TrimSpace(cfg.redisURL) != "" {
		opts, err := redis.ParseURL(cfg.redisURL)
		if err != nil {
			return nil, errors.WithMessage(err, "invalid REDIS_URL")
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.redisAddr,
		Password: cfg.redisPassword,
		DB:       cfg.redisDB,
	}), nil
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid LOG_LEVEL %q", level)
	}

	zcfg := zap.NewProductionConfig()
	if strings.EqualFold(format, "console") {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
