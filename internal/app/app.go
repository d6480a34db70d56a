package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-engine/internal/config"
	"github.com/gokatarajesh/quiz-engine/internal/db/repository"
	sqlcgen "github.com/gokatarajesh/quiz-engine/internal/db/sqlc"
	"github.com/gokatarajesh/quiz-engine/internal/logging"
	"github.com/gokatarajesh/quiz-engine/internal/question"
	"github.com/gokatarajesh/quiz-engine/internal/question/ai"
	"github.com/gokatarajesh/quiz-engine/internal/question/external"
	"github.com/gokatarajesh/quiz-engine/internal/quiz"
	"github.com/gokatarajesh/quiz-engine/internal/quiz/timer"
	"github.com/gokatarajesh/quiz-engine/internal/results"
	"github.com/gokatarajesh/quiz-engine/internal/server"
	"github.com/gokatarajesh/quiz-engine/internal/transport/telegram"
	ws "github.com/gokatarajesh/quiz-engine/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, engine, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool   *pgxpool.Pool
	redis  *redis.Client
	http   *http.Server
	engine *quiz.Engine

	prefetch  *question.PrefetchWorker
	bot       *telegram.Bot
	bgCancels []context.CancelFunc
}

// New bootstraps the logger, optional Postgres and Redis, the quiz engine and
// its transports.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger = logger.Level(logging.ParseLevel(cfg.LogLevel))
	logger.Info().Msg("starting application bootstrap")

	var pool *pgxpool.Pool
	if cfg.Postgres.Enabled() {
		connString := fmt.Sprintf("%s pool_max_conns=%d", cfg.Postgres.DSN(), cfg.Postgres.MaxConns)
		p, err := pgxpool.New(ctx, connString)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		pool = p
	} else {
		logger.Warn().Msg("postgres not configured; results are kept in redis only")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
	} else {
		logger.Warn().Msg("redis not configured; question cache and result history disabled")
	}

	// Question source
	var questionSvc *question.Service
	providers := buildProviders(cfg, logger)
	if len(providers) > 0 {
		var cache question.TextCache
		if redisClient != nil {
			cache = question.NewCache(redisClient, cfg.AI.CacheTTL)
		}
		questionSvc = question.NewService(cache, providers, question.ServiceOptions{
			QuestionCount: cfg.AI.QuestionCount,
		}, logger)
	}

	// Result history
	var resultSvc *results.Service
	if pool != nil || redisClient != nil {
		opts := results.ServiceOptions{
			HistorySize: cfg.Results.HistorySize,
			HistoryTTL:  cfg.Results.HistoryTTL,
			TopN:        cfg.Results.TopN,
		}
		if pool != nil {
			repo := repository.NewResultRepository(sqlcgen.New(pool))
			resultSvc = results.NewService(redisClient, repo, logger, opts)
		} else {
			resultSvc = results.NewService(redisClient, nil, logger, opts)
		}
	}

	// Engine
	scheduler := timer.NewScheduler(timer.Options{Capacity: cfg.Quiz.TimerPoolSize}, logger)
	var mirror quiz.Mirror
	if redisClient != nil {
		mirror = quiz.NewRedisMirror(redisClient, cfg.Quiz.SessionMarkTTL)
	}
	store := quiz.NewStore(scheduler, mirror, logger)
	notifiers := &quiz.Notifiers{}

	var (
		source quiz.QuestionSource
		sink   quiz.ResultSink
	)
	if questionSvc != nil {
		source = questionSvc
	}
	if resultSvc != nil {
		sink = resultSvc
	}
	engine := quiz.NewEngine(store, scheduler, source, sink, notifiers, quiz.EngineOptions{
		Tiers:       cfg.Quiz.Tiers(),
		SinkTimeout: cfg.Quiz.SinkTimeout,
	}, logger)

	// Transports
	wsHub := ws.NewHub(logger)
	wsHandler := quiz.NewHandler(engine, wsHub, cfg.Quiz.WSIdleTimeout, logger)
	notifiers.Add(wsHandler)

	var bot *telegram.Bot
	if cfg.Telegram.Token != "" {
		b, err := telegram.New(cfg.Telegram.Token, cfg.Telegram.Debug, cfg.Telegram.Timeout, engine, logger)
		if err != nil {
			return nil, err
		}
		notifiers.Add(b)
		bot = b
	}

	registrars := []server.RouteRegistrar{quiz.NewHTTPHandlers(engine, logger)}
	if resultSvc != nil {
		registrars = append(registrars, results.NewHTTPHandler(resultSvc, logger))
	}
	router := server.NewRouter(logger, pool, redisClient, wsHandler.HandleWebSocket, registrars...)

	var prefetch *question.PrefetchWorker
	if questionSvc != nil && len(cfg.AI.PrefetchTopics) > 0 {
		prefetch = question.NewPrefetchWorker(questionSvc, cfg.AI.PrefetchTopics, cfg.AI.PrefetchInterval, cfg.AI.HTTPTimeout, logger)
	}

	return &Application{
		cfg:       cfg,
		logger:    logger,
		pool:      pool,
		redis:     redisClient,
		http:      server.NewHTTPServer(cfg, router),
		engine:    engine,
		prefetch:  prefetch,
		bot:       bot,
		bgCancels: make([]context.CancelFunc, 0, 2),
	}, nil
}

func buildProviders(cfg *config.App, logger zerolog.Logger) []question.Provider {
	var providers []question.Provider
	if cfg.AI.GeneratorURL != "" {
		providers = append(providers, ai.NewGenerator(ai.Config{
			GeneratorURL: cfg.AI.GeneratorURL,
			GeneratorKey: cfg.AI.GeneratorKey,
			Timeout:      cfg.AI.HTTPTimeout,
		}, logger))
	}
	if cfg.AI.OpenTDBFallback {
		providers = append(providers, external.NewOpenTDBClient("", nil))
	}
	if cfg.AI.TriviaAPIKey != "" {
		providers = append(providers, external.NewTriviaAPIClient("", cfg.AI.TriviaAPIKey, nil))
	}
	return providers
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	// stops timers and flushes pending result writes before the backends close
	a.engine.Close()

	if a.pool != nil {
		a.pool.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.prefetch != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.prefetch.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("question prefetch worker stopped")
			}
		}()
	}

	if a.bot != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.bot.Run(bgCtx); err != nil && err != context.Canceled {
				a.logger.Warn().Err(err).Msg("telegram bot stopped")
			}
		}()
	}
}
