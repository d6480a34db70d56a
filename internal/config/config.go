package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/gokatarajesh/quiz-engine/internal/quiz/scoring"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-engine" yaml:"name"`
	Env                     string        `env:"APP_ENV" envDefault:"development" yaml:"env"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080" yaml:"http_addr"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s" yaml:"graceful_shutdown_timeout"`

	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	Quiz     Quiz     `yaml:"quiz"`
	AI       AI       `yaml:"ai"`
	Results  Results  `yaml:"results"`
	Telegram Telegram `yaml:"telegram"`
}

// Postgres captures connection info for the SQL database. Persistence is
// disabled when Host is empty.
type Postgres struct {
	Host     string `env:"PG_HOST" yaml:"host"`
	Port     int    `env:"PG_PORT" envDefault:"5432" yaml:"port"`
	User     string `env:"PG_USER" yaml:"user"`
	Password string `env:"PG_PASSWORD" yaml:"password"`
	Database string `env:"PG_DATABASE" yaml:"database"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable" yaml:"ssl_mode"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10" yaml:"max_conns"`
}

// Enabled reports whether a database is configured.
func (p Postgres) Enabled() bool {
	return p.Host != ""
}

// DSN builds a libpq-style connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds cache configuration. Redis-backed features are disabled when
// Addr is empty.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" yaml:"addr"`
	DB       int    `env:"REDIS_DB" envDefault:"0" yaml:"db"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20" yaml:"pool_size"`
}

// Quiz groups session engine settings.
type Quiz struct {
	TimerPoolSize  int           `env:"QUIZ_TIMER_POOL_SIZE" envDefault:"32" yaml:"timer_pool_size"`
	TierTop        int           `env:"QUIZ_TIER_TOP_POINTS" envDefault:"25" yaml:"tier_top"`
	TierMiddle     int           `env:"QUIZ_TIER_MIDDLE_POINTS" envDefault:"15" yaml:"tier_middle"`
	SinkTimeout    time.Duration `env:"QUIZ_RESULT_SINK_TIMEOUT" envDefault:"5s" yaml:"sink_timeout"`
	SessionMarkTTL time.Duration `env:"QUIZ_SESSION_MARK_TTL" envDefault:"30m" yaml:"session_mark_ttl"`
	WSIdleTimeout  time.Duration `env:"QUIZ_WS_IDLE_TIMEOUT" envDefault:"120s" yaml:"ws_idle_timeout"`
}

// Tiers returns the result tier bands.
func (q Quiz) Tiers() scoring.TierConfig {
	cfg := scoring.DefaultTierConfig()
	if q.TierTop > 0 {
		cfg.Bands[0].MinPoints = q.TierTop
	}
	if q.TierMiddle > 0 {
		cfg.Bands[1].MinPoints = q.TierMiddle
	}
	return cfg
}

// AI configures the quiz text generator and fallbacks.
type AI struct {
	GeneratorURL     string        `env:"AI_GENERATOR_URL" yaml:"generator_url"`
	GeneratorKey     string        `env:"AI_GENERATOR_API_KEY" yaml:"generator_key"`
	HTTPTimeout      time.Duration `env:"AI_HTTP_TIMEOUT" envDefault:"20s" yaml:"http_timeout"`
	QuestionCount    int           `env:"AI_QUESTION_COUNT" envDefault:"5" yaml:"question_count"`
	CacheTTL         time.Duration `env:"AI_CACHE_TTL" envDefault:"30m" yaml:"cache_ttl"`
	OpenTDBFallback  bool          `env:"AI_OPENTDB_FALLBACK" envDefault:"true" yaml:"opentdb_fallback"`
	TriviaAPIKey     string        `env:"TRIVIA_API_KEY" yaml:"trivia_api_key"`
	PrefetchTopics   []string      `env:"AI_PREFETCH_TOPICS" envSeparator:"," yaml:"prefetch_topics"`
	PrefetchInterval time.Duration `env:"AI_PREFETCH_INTERVAL" envDefault:"15m" yaml:"prefetch_interval"`
}

// Results governs completed-result history.
type Results struct {
	HistorySize int           `env:"RESULTS_HISTORY_SIZE" envDefault:"20" yaml:"history_size"`
	HistoryTTL  time.Duration `env:"RESULTS_HISTORY_TTL" envDefault:"720h" yaml:"history_ttl"`
	TopN        int           `env:"RESULTS_TOP_N" envDefault:"50" yaml:"top_n"`
}

// Telegram configures the bot transport. It is disabled when Token is empty.
type Telegram struct {
	Token   string        `env:"TELEGRAM_BOT_TOKEN" yaml:"token"`
	Debug   bool          `env:"TELEGRAM_DEBUG" envDefault:"false" yaml:"debug"`
	Timeout time.Duration `env:"TELEGRAM_POLL_TIMEOUT" envDefault:"60s" yaml:"poll_timeout"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFile starts from the environment (and its defaults) and then applies the
// YAML file at path on top, so keys present in the file win.
func LoadFile(ctx context.Context, path string) (*App, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config file: %w", err)
	}
	return cfg, nil
}
