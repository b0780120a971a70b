package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/domain"
	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/infra"
)

var testWindows = []domain.Window{
	{Name: "short", Limit: 5, Period: 60 * time.Second},
	{Name: "long", Limit: 100, Period: 3600 * time.Second},
}

func newCounter(t *testing.T) *infra.RedisCounter {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return infra.NewRedisCounter(rdb)
}

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
	})
}

func post(h http.Handler, xff string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "http://example/generate-question", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	if xff != "" {
		r.Header.Set("X-Forwarded-For", xff)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_SixthCallInMinuteIsRejected(t *testing.T) {
	require := require.New(t)
	calls := 0
	h := Middleware(Options{Counter: newCounter(t), Windows: testWindows})(okHandler(&calls))

	for i := 0; i < 5; i++ {
		w := post(h, "1.2.3.4")
		require.Equal(http.StatusOK, w.Code, "request %d", i+1)
	}

	w := post(h, "1.2.3.4")
	require.Equal(http.StatusTooManyRequests, w.Code)
	require.JSONEq(`{"error":"Rate limit exceeded"}`, w.Body.String())
	require.Equal("application/json", w.Header().Get("Content-Type"))
	require.Equal("60", w.Header().Get("Retry-After"))
	require.Equal(5, calls)
}

func TestMiddleware_CallersWithoutForwardedForShareBucket(t *testing.T) {
	require := require.New(t)
	calls := 0
	h := Middleware(Options{Counter: newCounter(t), Windows: testWindows})(okHandler(&calls))

	for i := 0; i < 5; i++ {
		post(h, "")
	}
	require.Equal(http.StatusTooManyRequests, post(h, "").Code)
	require.Equal(http.StatusOK, post(h, "9.9.9.9").Code)
}

func TestMiddleware_AddsRateLimitHeaders(t *testing.T) {
	require := require.New(t)
	calls := 0
	h := Middleware(Options{
		Counter:             newCounter(t),
		Windows:             testWindows,
		AddRateLimitHeaders: true,
	})(okHandler(&calls))

	post(h, "1.2.3.4")
	w := post(h, "1.2.3.4")

	require.Equal("1.2.3.4", w.Header().Get("X-RateLimit-Key"))
	require.Equal("5", w.Header().Get("X-RateLimit-Limit-Short"))
	require.Equal("3", w.Header().Get("X-RateLimit-Remaining-Short"))
	require.Equal("100", w.Header().Get("X-RateLimit-Limit-Long"))
	require.Equal("98", w.Header().Get("X-RateLimit-Remaining-Long"))
	require.Equal("60", w.Header().Get("X-RateLimit-Reset-Short"))
}

func TestMiddleware_RecordsStats(t *testing.T) {
	require := require.New(t)
	stats := infra.NewMemoryStatsStore()
	calls := 0
	h := Middleware(Options{
		Counter: newCounter(t),
		Windows: []domain.Window{{Name: "short", Limit: 1, Period: time.Minute}},
		Stats:   stats,
	})(okHandler(&calls))

	post(h, "1.2.3.4")
	post(h, "1.2.3.4")

	require.Equal(infra.Counters{Allowed: 1, Denied: 1}, stats.Total())
	require.Equal(infra.Counters{Allowed: 1, Denied: 1}, stats.ByRoute()["POST /generate-question"])
}

func TestMiddleware_CounterDownFailModes(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	counter := infra.NewRedisCounter(rdb)
	mr.Close()

	t.Run("local fallback admits up to the short window", func(t *testing.T) {
		calls := 0
		stats := infra.NewMemoryStatsStore()
		h := Middleware(Options{
			Counter:  counter,
			Windows:  testWindows,
			FailMode: domain.FailLocal,
			Fallback: infra.NewWindowStore(testWindows[0]),
			Stats:    stats,
		})(okHandler(&calls))

		for i := 0; i < 5; i++ {
			require.Equal(t, http.StatusOK, post(h, "1.2.3.4").Code, "request %d", i+1)
		}
		require.Equal(t, http.StatusTooManyRequests, post(h, "1.2.3.4").Code)
		require.EqualValues(t, 6, stats.Total().Degraded)
	})

	t.Run("closed rejects", func(t *testing.T) {
		calls := 0
		h := Middleware(Options{Counter: counter, Windows: testWindows, FailMode: domain.FailClosed})(okHandler(&calls))

		w := post(h, "1.2.3.4")
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		require.Equal(t, "1", w.Header().Get("Retry-After"))
		require.Zero(t, calls)
	})

	t.Run("open admits", func(t *testing.T) {
		calls := 0
		h := Middleware(Options{Counter: counter, Windows: testWindows, FailMode: domain.FailOpen})(okHandler(&calls))

		require.Equal(t, http.StatusOK, post(h, "1.2.3.4").Code)
		require.Equal(t, 1, calls)
	})
}
