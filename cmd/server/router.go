package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lgsantiago/social-icebreaker-api/httperrors"
	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit"
	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/domain"
	"github.com/lgsantiago/social-icebreaker-api/middleware/requestlog"
	"github.com/lgsantiago/social-icebreaker-api/question"
	"github.com/lgsantiago/social-icebreaker-api/question/application"
	qdomain "github.com/lgsantiago/social-icebreaker-api/question/domain"
)

type deps struct {
	logger    *zap.Logger
	rdb       redis.UniversalClient
	counter   domain.WindowCounter
	fallback  domain.LimiterStore
	stats     domain.StatsStore
	completer qdomain.Completer
}

func newRouter(cfg config, d deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestlog.Middleware(d.logger))
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		_ = httperrors.New(http.StatusNotFound, "Not found", nil).WriteError(w)
	})
	r.MethodNotAllowed(question.MethodNotAllowed)

	r.Get("/healthz", healthHandler(d.rdb))

	gen := application.Generator{Completer: d.completer, Timeout: cfg.completionTimeout}
	h := question.NewHandler(gen, application.ParseRequest, d.logger)

	var guards []func(http.Handler) http.Handler
	if cfg.rateEnabled {
		guards = append(guards, ratelimit.Middleware(ratelimit.Options{
			Counter:             d.counter,
			Windows:             cfg.windows(),
			Fallback:            d.fallback,
			FailMode:            cfg.failMode,
			Stats:               d.stats,
			KeyFn:               keyFunc(cfg),
			AddRateLimitHeaders: cfg.addHeaders,
			Logger:              d.logger,
		}))
	}
	guards = append(guards, ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.concurrencyMax,
		AcquireTimeout: cfg.concurrencyTimeout,
		Logger:         d.logger,
	}))

	r.With(guards...).Post("/generate-question", h.Generate)
	r.Get("/generate-question", question.MethodNotAllowed)

	return r
}

func keyFunc(cfg config) ratelimit.KeyFunc {
	if cfg.keySource == "remote" {
		return ratelimit.DefaultKeyFunc(cfg.rateKeyHeader, false)
	}
	return ratelimit.ForwardedForKeyFunc()
}

func healthHandler(rdb redis.UniversalClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				_ = httperrors.New(http.StatusServiceUnavailable, "Counter store unavailable", err).WriteError(w)
				return
			}
		}
		_ = httperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
