package infra

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/domain"
)

// RedisStatsStore grava contadores de decisão em hashes do Redis:
//
//	<prefix>:total               allowed|denied|degraded
//	<prefix>:minute:<yyyymmddHHMM> idem, com TTL
//	<prefix>:route               "<METHOD> <path>:<campo>"
//	<prefix>:key:<identidade>    idem total, opcional, com TTL
type RedisStatsStore struct {
	rdb redis.UniversalClient

	prefix string
	// ttl aplica apenas em chaves de série temporal / por key.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackKeys bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackKeys(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackKeys = track }
}

func NewRedisStatsStore(rdb redis.UniversalClient, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "ratelimit:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	fields := []string{"denied"}
	if ev.Allowed {
		fields[0] = "allowed"
	}
	if ev.Degraded {
		fields = append(fields, "degraded")
	}

	pipe := s.rdb.Pipeline()
	incr := func(key string, expire bool) {
		for _, f := range fields {
			pipe.HIncrBy(ctx, key, f, 1)
		}
		if expire && s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	incr(s.prefix+":total", false)

	if s.bucket == "minute" {
		incr(s.prefix+":minute:"+at.UTC().Format("200601021504"), true)
	}

	routeField := strings.TrimSpace(strings.TrimSpace(ev.Method) + " " + strings.TrimSpace(ev.Path))
	if routeField != "" {
		for _, f := range fields {
			pipe.HIncrBy(ctx, s.prefix+":route", routeField+":"+f, 1)
		}
	}

	if s.trackKeys {
		if k := strings.TrimSpace(string(ev.Key)); k != "" {
			incr(s.prefix+":key:"+k, true)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return errors.WithMessage(err, "redis stats record")
	}
	return nil
}
