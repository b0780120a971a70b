// Package requestlog atribui um request id a cada requisição e registra o acesso com zap.
package requestlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-Id"

type ctxKey struct{}

type entry struct {
	id     string
	logger *zap.Logger
}

func Middleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)

			reqLogger := logger.With(zap.String("request_id", id))
			ctx := context.WithValue(r.Context(), ctxKey{}, entry{id: id, logger: reqLogger})

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLogger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Logger devolve o logger da requisição ou fallback quando o middleware não rodou.
func Logger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if e, ok := ctx.Value(ctxKey{}).(entry); ok {
		return e.logger
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

func RequestID(ctx context.Context) string {
	if e, ok := ctx.Value(ctxKey{}).(entry); ok {
		return e.id
	}
	return ""
}
