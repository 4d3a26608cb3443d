package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/ahrav/interview-gavel/infrastructure/judge"
	"github.com/ahrav/interview-gavel/infrastructure/llm"
	"github.com/ahrav/interview-gavel/infrastructure/middleware"
	"github.com/ahrav/interview-gavel/infrastructure/store"
	"github.com/ahrav/interview-gavel/internal/application"
	"github.com/ahrav/interview-gavel/internal/config"
	"github.com/ahrav/interview-gavel/internal/ports"
)

// app holds the wired evaluator and whatever must be released on exit.
type app struct {
	evaluator *application.Evaluator
	logger    *slog.Logger
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires the evaluator from configuration: LLM client and its
// middleware chain, judge and sampler fallbacks, sample cache, store and
// metrics.
func buildApp(ctx context.Context, cfg config.Config, scoringPath string, reg prometheus.Registerer) (*app, error) {
	logger := middleware.SetupLogger(cfg)
	a := &app{logger: logger}

	if scoringPath == "" {
		scoringPath = cfg.ScoringConfig
	}
	scoringCfg, err := application.LoadScoringConfig(scoringPath)
	if err != nil {
		return nil, err
	}
	scoringCfg.Judge.Timeout = cfg.JudgeTimeout
	scoringCfg.Sample.Timeout = cfg.SampleTimeout
	tables := scoringCfg.ScoringTables()

	metrics := middleware.NewPrometheusMetrics(reg)

	var redisClient *redis.Client
	if cfg.Driver() == config.StoreRedis {
		redisClient, err = store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
	}

	interviews, err := openStore(ctx, cfg, redisClient, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	local := judge.NewLocalJudge(tables)
	canned := judge.NewCannedSampler(tables)
	deps := application.Dependencies{
		Judge:   judge.NewFallbackJudge(nil, local, logger),
		Sampler: canned,
		Store:   interviews,
		Metrics: metrics,
	}

	if cfg.RemoteJudgeEnabled() {
		client, err := newLLMClient(cfg, metrics, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		remote, err := judge.NewRemoteJudge(client, tables, scoringCfg.Judge)
		if err != nil {
			a.Close()
			return nil, err
		}
		sampler, err := judge.NewRemoteSampler(client, scoringCfg.Sample)
		if err != nil {
			a.Close()
			return nil, err
		}
		deps.Judge = judge.NewFallbackJudge(remote, local, logger)
		// Only remote samples are cached, so a transient failure is not
		// pinned to the canned snippet for the whole TTL.
		var cache ports.CacheStore = store.NewMemoryCache()
		if redisClient != nil {
			cache = store.NewRedisCache(redisClient, "")
		}
		cached := judge.NewCachedSampler(sampler, cache, cfg.SampleCacheTTL, logger)
		deps.Sampler = judge.NewFallbackSampler(cached, canned, logger)
		deps.Questions = judge.NewQuestionGenerator(client, tables, logger)
		deps.RemoteJudge = true
	} else {
		logger.Info("no judge API key configured, evaluations are local")
	}

	evaluator, err := application.NewEvaluator(deps, scoringCfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.evaluator = evaluator
	return a, nil
}

func openStore(ctx context.Context, cfg config.Config, redisClient *redis.Client, a *app) (ports.InterviewStore, error) {
	switch cfg.Driver() {
	case config.StoreRedis:
		if redisClient == nil {
			return nil, errors.New("redis store requires a redis client")
		}
		return store.NewRedisStore(redisClient, ""), nil
	case config.StorePostgres:
		pool, err := store.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		pg := store.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate interview schema: %w", err)
		}
		return pg, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

// newLLMClient builds the provider client. The first middleware is the
// outermost; retries run inside the breaker, so one call is one breaker
// outcome, and each attempt is bounded by the judge timeout.
func newLLMClient(cfg config.Config, metrics *middleware.PrometheusMetrics, logger *slog.Logger) (*llm.Client, error) {
	provider := cfg.JudgeProvider
	return llm.NewClient(provider, llm.ClientConfig{
		APIKey:  cfg.APIKey(),
		Model:   cfg.JudgeModel,
		BaseURL: cfg.JudgeBaseURL,
		Middleware: []llm.Middleware{
			llm.TracingMiddleware(cfg.OTELServiceName),
			llm.LoggingMiddleware(logger),
			llm.MetricsMiddleware(provider, metrics),
			llm.CircuitBreakerMiddlewareWithMetrics(cfg.BreakerThreshold, cfg.BreakerCooldown, metrics.CircuitBreaker(provider)),
			llm.RateLimitMiddleware(rate.Limit(cfg.LLMRateLimit), cfg.LLMRateBurst),
			llm.RetryMiddleware(cfg.LLMMaxRetries, cfg.LLMRetryBaseDelay, cfg.LLMRetryMaxDelay),
			llm.TimeoutMiddleware(cfg.JudgeTimeout),
		},
	})
}
