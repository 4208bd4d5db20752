package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/EcommerceGo/storefront/internal/commerce"
	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/event"
	"github.com/utafrali/EcommerceGo/storefront/internal/payment"
	"github.com/utafrali/EcommerceGo/storefront/internal/postal"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository"
	"github.com/utafrali/EcommerceGo/storefront/internal/repository/memory"
	redisrepo "github.com/utafrali/EcommerceGo/storefront/internal/repository/redis"
	"github.com/utafrali/EcommerceGo/storefront/internal/service"
	"github.com/utafrali/EcommerceGo/storefront/pkg/database"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/httpclient"
	pkgkafka "github.com/utafrali/EcommerceGo/storefront/pkg/kafka"
	"github.com/utafrali/EcommerceGo/storefront/pkg/tracing"
)

// ServiceName labels the storefront client in logs, traces and events.
const ServiceName = "storefront"

// App wires together all dependencies of the storefront client.
type App struct {
	Coordinator *service.Coordinator
	Health      *health.Handler
	Payments    *payment.Generator

	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// notifier receives the customer-facing notices; nil drops them.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, notifier service.Notifier) (*App, error) {
	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(initCtx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	store, err := a.sessionStore(initCtx)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	// Initialize Kafka producer.
	var events event.Publisher = event.Nop{}
	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		events = event.NewProducer(a.producer, logger)
		logger.Debug("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// HTTP clients with a circuit breaker per remote service.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		MaxRetries:      cfg.HTTPMaxRetries,
		RetryWaitMin:    250 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 10,
	})
	api := commerce.NewClient(a.breaker(baseClient, commerce.ServiceName, commerce.CircuitOpenFallback), cfg.APIBaseURL, logger)
	lookup := postal.NewClient(a.breaker(baseClient, postal.ServiceName, postal.CircuitOpenFallback), cfg.PostalBaseURL, logger)

	a.Payments = payment.NewGenerator(cfg.PaymentTarget, payment.DefaultSize)
	a.Coordinator = service.NewCoordinator(
		store,
		api,
		lookup,
		a.Payments,
		events,
		notifier,
		logger,
		cfg.Timeouts(),
	)

	// Health checks.
	a.Health = health.NewHandler()
	a.Health.Register(commerce.ServiceName, api.Ping)
	a.Health.RegisterNonCritical(postal.ServiceName, lookup.Ping)
	if a.rdb != nil {
		a.Health.Register("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		a.Health.RegisterNonCritical("kafka", a.producer.Ping)
	}

	return a, nil
}

// sessionStore builds the configured session backend.
func (a *App) sessionStore(ctx context.Context) (repository.SessionStore, error) {
	if a.cfg.SessionBackend == config.BackendMemory {
		a.logger.Debug("using in-memory session store; the session ends with the process")
		return memory.NewSessionStore(), nil
	}

	rdb, err := database.NewRedisClientWithLogger(ctx, database.RedisConfig{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	a.logger.Debug("connected to Redis",
		slog.String("addr", a.cfg.RedisAddr),
		slog.Int("db", a.cfg.RedisDB),
		slog.String("namespace", a.cfg.SessionNamespace),
	)
	return redisrepo.NewSessionStore(rdb, a.cfg.SessionNamespace, a.cfg.SessionTTL()), nil
}

func (a *App) breaker(base *httpclient.Client, name string, fallback httpclient.FallbackFunc) *httpclient.CircuitBreakerClient {
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  a.cfg.CBMaxRequests,
		Interval:     time.Duration(a.cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(a.cfg.CBTimeout) * time.Second,
		FailureRatio: a.cfg.CBFailureRatio,
		MinRequests:  a.cfg.CBMinRequests,
	}
	return httpclient.NewCircuitBreakerClient(base, cbCfg, a.logger).
		WithFallback(fallback)
}

// Close releases every component in order: tracer, Kafka producer, Redis.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	// 1. Flush pending spans.
	if a.tracerShutdown != nil {
		tracerCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 2. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Redis client.
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
