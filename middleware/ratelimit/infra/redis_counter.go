package infra

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/domain"
)

// RedisCounter implementa domain.WindowCounter com janela fixa no Redis.
//
// A expiração só é definida quando a chave nasce; incrementos seguintes não
// estendem a janela.
type RedisCounter struct {
	rdb    redis.UniversalClient
	prefix string
}

type RedisCounterOption func(*RedisCounter)

func WithCounterPrefix(prefix string) RedisCounterOption {
	return func(c *RedisCounter) {
		c.prefix = strings.Trim(prefix, ":")
	}
}

func NewRedisCounter(rdb redis.UniversalClient, opts ...RedisCounterOption) *RedisCounter {
	c := &RedisCounter{
		rdb:    rdb,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ domain.WindowCounter = (*RedisCounter)(nil)

func (c *RedisCounter) Increment(ctx context.Context, key domain.Key, w domain.Window) (domain.WindowCount, error) {
	if c == nil || c.rdb == nil {
		return domain.WindowCount{}, errors.New("redis counter is not configured")
	}
	if w.Period <= 0 {
		return domain.WindowCount{}, errors.Errorf("window %q has no period", w.Name)
	}

	k := c.Key(key, w)

	pipe := c.rdb.TxPipeline()
	pipe.SetNX(ctx, k, 0, w.Period)
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.WindowCount{}, errors.WithMessage(err, "redis window increment")
	}

	out := domain.WindowCount{Count: incr.Val(), TTL: ttl.Val()}
	if out.TTL < 0 {
		// chave sem expiração (ex: criada fora deste código): recria a janela
		if err := c.rdb.PExpire(ctx, k, w.Period).Err(); err != nil {
			return domain.WindowCount{}, errors.WithMessage(err, "redis window expire")
		}
		out.TTL = w.Period
	}
	return out, nil
}

// Key monta "<prefix>:<janela>:<identidade>".
func (c *RedisCounter) Key(key domain.Key, w domain.Window) string {
	return c.prefix + ":" + w.Name + ":" + string(key)
}
