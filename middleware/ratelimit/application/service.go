package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/domain"
)

// Service concentra a regra de aplicação da admissão.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
// Não guarda estado: todo o estado fica no WindowCounter.
type Service struct {
	Counter domain.WindowCounter
	Windows []domain.Window

	// Fallback é consultado quando FailMode == FailLocal e o Counter falha.
	// Sem Fallback, FailLocal se comporta como FailClosed.
	Fallback domain.LimiterStore
	FailMode domain.FailMode

	// RetryAfter é usado quando não há TTL conhecido (ex: decisão degradada).
	RetryAfter time.Duration
}

// Decide incrementa todas as janelas em paralelo e só admite quando todas
// estão dentro do limite.
//
// Quando o Counter falha, a decisão segue o FailMode e o erro é devolvido junto
// para que o chamador possa logar; a Decision continua válida.
func (s Service) Decide(ctx context.Context, key domain.Key) (domain.Decision, error) {
	if s.Counter == nil || len(s.Windows) == 0 {
		return domain.Decision{Allowed: true}, nil
	}
	if s.RetryAfter <= 0 {
		s.RetryAfter = 1 * time.Second
	}

	results := make([]domain.WindowResult, len(s.Windows))

	g, gctx := errgroup.WithContext(ctx)
	for i, w := range s.Windows {
		i, w := i, w
		g.Go(func() error {
			wc, err := s.Counter.Increment(gctx, key, w)
			if err != nil {
				return errors.WithMessagef(err, "increment window %q", w.Name)
			}
			results[i] = domain.WindowResult{
				Window:  w,
				Count:   wc.Count,
				TTL:     wc.TTL,
				Allowed: wc.Count <= w.Limit,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.degraded(key), err
	}

	dec := domain.Decision{Allowed: true, Windows: results}
	for _, r := range results {
		if r.Allowed {
			continue
		}
		dec.Allowed = false
		if ra := retryAfter(r.TTL); ra > dec.RetryAfter {
			dec.RetryAfter = ra
		}
	}
	return dec, nil
}

func (s Service) degraded(key domain.Key) domain.Decision {
	dec := domain.Decision{Degraded: true}

	switch s.FailMode {
	case domain.FailOpen:
		dec.Allowed = true
	case domain.FailClosed:
		dec.Allowed = false
	default:
		if s.Fallback != nil {
			if lim := s.Fallback.Get(key); lim != nil {
				dec.Allowed = lim.Allow()
			}
		}
	}

	if !dec.Allowed {
		dec.RetryAfter = s.RetryAfter
	}
	return dec
}

// retryAfter arredonda para cima em segundos inteiros, mínimo 1s.
func retryAfter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 1 * time.Second
	}
	secs := (ttl + time.Second - 1) / time.Second
	return secs * time.Second
}
