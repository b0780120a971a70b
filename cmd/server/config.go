package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/lgsantiago/social-icebreaker-api/middleware/ratelimit/domain"
	"github.com/lgsantiago/social-icebreaker-api/question/infra"
)

type config struct {
	listenAddr string
	logLevel   string
	logFormat  string

	openAIKey         string
	openAIBaseURL     string
	openAIModel       string
	completionTimeout time.Duration

	redisURL      string
	redisAddr     string
	redisPassword string
	redisDB       int

	rateEnabled   bool
	shortWindow   domain.Window
	longWindow    domain.Window
	failMode      domain.FailMode
	keySource     string
	rateKeyHeader string
	addHeaders    bool

	rateStatsEnabled   bool
	rateStatsBackend   string
	rateStatsPrefix    string
	rateStatsTTL       time.Duration
	rateStatsBucket    string
	rateStatsTrackKeys bool

	concurrencyMax     int
	concurrencyTimeout time.Duration
}

func (c config) windows() []domain.Window {
	return []domain.Window{c.shortWindow, c.longWindow}
}

// readConfig lê o ambiente; um .env no diretório atual é carregado antes, sem
// sobrescrever variáveis já definidas.
func readConfig() (config, error) {
	_ = godotenv.Load()

	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.logLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.logFormat = getenvDefault("LOG_FORMAT", "json")

	cfg.openAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.openAIBaseURL = getenvDefault("OPENAI_BASE_URL", infra.DefaultBaseURL)
	cfg.openAIModel = getenvDefault("OPENAI_MODEL", infra.DefaultModel)
	cfg.completionTimeout = getenvDurationDefault("COMPLETION_TIMEOUT", 10*time.Second)

	cfg.redisURL = os.Getenv("REDIS_URL")
	cfg.redisAddr = os.Getenv("REDIS_ADDR")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)

	cfg.rateEnabled = getenvBoolDefault("RATE_ENABLED", true)
	cfg.shortWindow = domain.Window{
		Name:   "short",
		Limit:  int64(getenvIntDefault("RATE_SHORT_LIMIT", 5)),
		Period: getenvDurationDefault("RATE_SHORT_WINDOW", 60*time.Second),
	}
	cfg.longWindow = domain.Window{
		Name:   "long",
		Limit:  int64(getenvIntDefault("RATE_LONG_LIMIT", 100)),
		Period: getenvDurationDefault("RATE_LONG_WINDOW", 3600*time.Second),
	}
	cfg.keySource = strings.ToLower(getenvDefault("RATE_KEY_SOURCE", "forwarded"))
	cfg.rateKeyHeader = os.Getenv("RATE_KEY_HEADER")
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)

	failMode, ok := domain.ParseFailMode(getenvDefault("RATE_FAIL_MODE", string(domain.FailLocal)))
	if !ok {
		return config{}, errors.Errorf("RATE_FAIL_MODE must be one of local, open, closed (got %q)", os.Getenv("RATE_FAIL_MODE"))
	}
	cfg.failMode = failMode

	cfg.rateStatsEnabled = getenvBoolDefault("RATE_STATS_ENABLED", false)
	cfg.rateStatsBackend = strings.ToLower(getenvDefault("RATE_STATS_BACKEND", "redis"))
	cfg.rateStatsPrefix = getenvDefault("RATE_STATS_PREFIX", "ratelimit:stats")
	cfg.rateStatsTTL = getenvDurationDefault("RATE_STATS_TTL", 24*time.Hour)
	cfg.rateStatsBucket = getenvDefault("RATE_STATS_BUCKET", "minute")
	cfg.rateStatsTrackKeys = getenvBoolDefault("RATE_STATS_TRACK_KEYS", false)

	cfg.concurrencyMax = getenvIntDefault("CONCURRENCY_MAX", 100)
	cfg.concurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", 2*time.Second)

	if cfg.openAIKey == "" {
		return config{}, errors.New("OPENAI_API_KEY is required")
	}
	if cfg.rateEnabled && strings.TrimSpace(cfg.redisURL) == "" && strings.TrimSpace(cfg.redisAddr) == "" {
		return config{}, errors.New("REDIS_URL or REDIS_ADDR is required when RATE_ENABLED=true")
	}
	for _, w := range cfg.windows() {
		if w.Limit <= 0 || w.Period <= 0 {
			return config{}, errors.Errorf("rate window %q must have positive limit and period", w.Name)
		}
	}
	if cfg.keySource != "forwarded" && cfg.keySource != "remote" {
		return config{}, errors.Errorf("RATE_KEY_SOURCE must be forwarded or remote (got %q)", cfg.keySource)
	}
	if cfg.rateStatsBackend != "redis" && cfg.rateStatsBackend != "memory" {
		return config{}, errors.Errorf("RATE_STATS_BACKEND must be redis or memory (got %q)", cfg.rateStatsBackend)
	}
	if cfg.completionTimeout <= 0 {
		return config{}, errors.New("COMPLETION_TIMEOUT must be > 0")
	}
	if cfg.concurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
