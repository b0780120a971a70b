package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lgsantiago/social-icebreaker-api/httperrors"
	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/application"
	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/domain"
	"github.com/lgsantiago/social-icebreaker-api/middleware/requestlog"
)

const RateLimitExceededMessage = "Rate limit exceeded"

type KeyFunc func(r *http.Request) domain.Key

type Options struct {
	Counter  domain.WindowCounter
	Windows  []domain.Window
	Fallback domain.LimiterStore
	FailMode domain.FailMode

	Stats               domain.StatsStore
	KeyFn               KeyFunc
	RejectStatus        int
	RejectMessage       string
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	Logger              *zap.Logger
}

// ForwardedForKeyFunc usa o primeiro endereço de X-Forwarded-For sem validar.
// Sem o header, todos caem na chave compartilhada "unknown".
func ForwardedForKeyFunc() KeyFunc {
	return func(r *http.Request) domain.Key {
		if ip := firstForwardedFor(r); ip != "" {
			return domain.Key(ip)
		}
		return domain.UnknownKey
	}
}

// DefaultKeyFunc tenta header configurado, depois X-Forwarded-For (se confiável)
// e por fim o RemoteAddr da conexão.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) domain.Key {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return domain.Key(v)
			}
		}

		if trustXFF {
			if ip := firstForwardedFor(r); ip != "" {
				return domain.Key(ip)
			}
		}

		// fallback: RemoteAddr
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return domain.Key(host)
		}
		if r.RemoteAddr != "" {
			return domain.Key(r.RemoteAddr)
		}
		return domain.UnknownKey
	}
}

// pega o primeiro IP do X-Forwarded-For (cliente original)
func firstForwardedFor(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff == "" {
		return ""
	}
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.RejectMessage == "" {
		opts.RejectMessage = RateLimitExceededMessage
	}
	if opts.RetryAfter == 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ForwardedForKeyFunc()
	}
	if opts.FailMode == "" {
		opts.FailMode = domain.FailLocal
	}

	svc := application.Service{
		Counter:    opts.Counter,
		Windows:    opts.Windows,
		Fallback:   opts.Fallback,
		FailMode:   opts.FailMode,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := requestlog.Logger(ctx, opts.Logger)
			key := opts.KeyFn(r)

			dec, err := svc.Decide(ctx, key)
			if err != nil {
				logger.Warn("window counter failed, applying fail mode",
					zap.String("fail_mode", string(opts.FailMode)),
					zap.Bool("allowed", dec.Allowed),
					zap.Error(err),
				)
			}

			if opts.Stats != nil {
				statsErr := opts.Stats.Record(ctx, domain.StatsEvent{
					Key:      key,
					Allowed:  dec.Allowed,
					Degraded: dec.Degraded,
					Method:   r.Method,
					Path:     r.URL.Path,
					At:       time.Now(),
				})
				if statsErr != nil {
					logger.Debug("rate limit stats not recorded", zap.Error(statsErr))
				}
			}

			if opts.AddRateLimitHeaders {
				setRateLimitHeaders(w, key, dec)
			}

			if !dec.Allowed {
				logger.Info("request rejected by rate limit", zap.String("key", string(key)))
				w.Header().Set("Retry-After", formatInt(int(dec.RetryAfter.Seconds())))
				_ = httperrors.New(opts.RejectStatus, opts.RejectMessage, nil).WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, key domain.Key, dec domain.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Key", string(key))
	for _, res := range dec.Windows {
		name := headerName(res.Window.Name)
		h.Set("X-RateLimit-Limit-"+name, formatInt64(res.Window.Limit))
		h.Set("X-RateLimit-Remaining-"+name, formatInt64(res.Remaining()))
		h.Set("X-RateLimit-Reset-"+name, formatInt(int(res.TTL.Seconds())))
	}
}

func headerName(window string) string {
	if window == "" {
		return "Default"
	}
	return strings.ToUpper(window[:1]) + strings.ToLower(window[1:])
}
