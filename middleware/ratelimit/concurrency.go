package ratelimit

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/lgsantiago/social-icebreaker-api/httperrors"
	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/application"
	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/infra"
	"github.com/lgsantiago/social-icebreaker-api/middleware/requestlog"
)

const ServiceUnavailableMessage = "Service unavailable"

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	Logger         *zap.Logger
}

// ConcurrencyMiddleware limita quantas requisições ficam dentro de next ao mesmo tempo.
// Max <= 0 desliga o limite.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}

	svc := application.ConcurrencyService{
		Pool:           infra.NewChanPool(opts.Max),
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if errors.Is(err, application.ErrNoSlot) {
					requestlog.Logger(r.Context(), opts.Logger).Warn("no concurrency slot available", zap.Int("max", opts.Max))
				}
				_ = httperrors.New(opts.RejectStatus, ServiceUnavailableMessage, err).WriteError(w)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
