package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/barkshad/fuliza/internal/application/usecase"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/internal/infrastructure/adapter"
	"github.com/barkshad/fuliza/internal/infrastructure/adapter/gemini"
	"github.com/barkshad/fuliza/internal/infrastructure/adapter/lipana"
	"github.com/barkshad/fuliza/internal/infrastructure/adapter/objectstore"
	rediscache "github.com/barkshad/fuliza/internal/infrastructure/cache/redis"
	"github.com/barkshad/fuliza/internal/infrastructure/config"
	"github.com/barkshad/fuliza/internal/infrastructure/kafka"
	"github.com/barkshad/fuliza/internal/infrastructure/metrics"
	pgrepo "github.com/barkshad/fuliza/internal/infrastructure/persistence/postgres"
	"github.com/barkshad/fuliza/internal/infrastructure/store"
	grpcpresentation "github.com/barkshad/fuliza/internal/presentation/grpc"
	"github.com/barkshad/fuliza/internal/presentation/rest"
	"github.com/barkshad/fuliza/pkg/auth"
	pkgkafka "github.com/barkshad/fuliza/pkg/kafka"
	"github.com/barkshad/fuliza/pkg/observability"
	pkgpostgres "github.com/barkshad/fuliza/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("boost-service exited", "error", err)
		os.Exit(1)
	}
	logger.Info("boost-service stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Info("starting boost-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"confirmation", cfg.Payment.Confirmation,
	)

	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    !cfg.TLS.Enabled(),
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics()
	if err != nil {
		return err
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()
	recorder := metrics.New(prometheus.DefaultRegisterer)

	// Durable store.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()
	pool, err := pkgpostgres.NewPool(dbCtx, cfg.DB)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	if err := pkgpostgres.RunMigrations(cfg.DB.DSN(), pgrepo.Migrations, pgrepo.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("connected to database")

	// Local tier and session hand-off.
	rdb, err := rediscache.NewClient(ctx, rediscache.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	profiles := store.NewTieredProfileStore(
		pgrepo.NewProfileRepo(pool),
		rediscache.NewProfileCache(rdb, cfg.Redis.ProfileTTL),
		logger,
	)
	projections := rediscache.NewProjectionStore(rdb, cfg.Redis.ProjectionTTL)
	applications := pgrepo.NewApplicationRepo(pool)
	checkouts := pgrepo.NewCheckoutRepo(pool)

	checks := map[string]rest.Check{
		"postgres": func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}

	// External collaborators.
	var documents port.DocumentHost
	if cfg.Objects.Endpoint != "" {
		objects, err := objectstore.New(ctx, objectstore.Config(cfg.Objects), logger)
		if err != nil {
			return err
		}
		checks["object_store"] = objects.Ping
		documents = objects
	} else {
		logger.Warn("object store not configured, keeping documents in memory")
		documents = adapter.NewMemoryDocumentHost("")
	}

	var scoring port.ScoringClient
	if cfg.Scoring.APIKey != "" {
		scoring, err = gemini.NewClient(ctx, gemini.Config{APIKey: cfg.Scoring.APIKey, Model: cfg.Scoring.Model}, recorder, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, assessments use the fallback score")
		scoring = adapter.UnconfiguredScoringClient{}
	}

	var gateway port.PushPaymentGateway
	if cfg.Payment.APIKey != "" {
		gateway = lipana.NewClient(lipana.Config{
			BaseURL: cfg.Payment.BaseURL,
			APIKey:  cfg.Payment.APIKey,
			Timeout: cfg.Payment.Timeout,
		}, recorder, logger)
	} else {
		logger.Warn("LIPANA_API_KEY not set, using stub push gateway")
		gateway = adapter.NewStubPushGateway()
	}

	// Events.
	var publisher port.EventPublisher = kafka.NopPublisher{Logger: logger}
	if cfg.Kafka.Enabled() {
		producer, err := pkgkafka.NewProducer(cfg.Kafka.Config)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer func() { _ = producer.Close() }()
		publisher = kafka.NewEventPublisher(pkgkafka.NewEventWriter(producer), cfg.Kafka.TopicPrefix, logger)
	} else {
		logger.Warn("KAFKA_BROKERS not set, domain events are only logged")
	}

	// Domain services.
	generator, err := service.NewTierGenerator(cfg.Tiers)
	if err != nil {
		return err
	}
	scorer := service.NewAssessmentScorer(scoring, cfg.Fallback, cfg.Scoring.Timeout)
	policy, err := usecase.ParseConfirmationPolicy(cfg.Payment.Confirmation)
	if err != nil {
		return err
	}

	// Use cases.
	confirmUC := usecase.NewConfirmCheckoutUseCase(checkouts, applications, profiles, publisher, recorder, logger)
	exportUC := usecase.NewExportMasterRecordUseCase(profiles, documents, logger)
	handler := grpcpresentation.NewBoostHandler(grpcpresentation.UseCases{
		ProjectLimit:    usecase.NewProjectLimitUseCase(service.NewLimitProjectionEngine(), projections, publisher, recorder, cfg.ProjectionCap, logger),
		RegisterProfile: usecase.NewRegisterProfileUseCase(profiles, projections, publisher, logger),
		GetProfile:      usecase.NewGetProfileUseCase(profiles),
		GetDashboard:    usecase.NewGetDashboardUseCase(profiles, applications),
		RunAssessment:   usecase.NewRunAssessmentUseCase(profiles, scorer, publisher, recorder, logger),
		ListPackages:    usecase.NewListPackagesUseCase(profiles, projections, generator),
		StartCheckout: usecase.NewStartCheckoutUseCase(profiles, projections, generator, checkouts, applications,
			gateway, publisher, recorder, cfg.Payment.Countdown, logger),
		AwaitCheckout: usecase.NewAwaitCheckoutUseCase(checkouts, applications, profiles, gateway, publisher,
			recorder, policy, cfg.Payment.PollInterval, logger),
		GetCheckout: usecase.NewGetCheckoutUseCase(checkouts, applications, profiles, gateway, publisher,
			recorder, policy, logger),
		Export: exportUC,
	})
	kycUC := usecase.NewSubmitKYCUseCase(profiles, documents, publisher, logger)

	jwtSvc, err := newJWTService(cfg.Auth)
	if err != nil {
		return err
	}

	// Servers.
	grpcServer, err := grpcpresentation.NewServer(grpcpresentation.ServerConfig{
		TLS:        cfg.TLS,
		Reflection: cfg.GRPCReflection,
	}, handler, jwtSvc, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: rest.NewRouter(
			rest.NewHealthHandler(cfg.ServiceName, checks, logger),
			rest.NewBoostHandler(kycUC, exportUC, confirmUC, cfg.Payment.CallbackSecret, logger),
			metricsHandler,
			jwtSvc,
			rest.NewRateLimiter(cfg.RateLimitPerMin),
			logger,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 3)

	if cfg.Kafka.Enabled() {
		consumer, err := pkgkafka.NewConsumer(cfg.Kafka.Config, cfg.Kafka.CallbackTopic, kafka.CallbackHandler(confirmUC), logger)
		if err != nil {
			return fmt.Errorf("create callback consumer: %w", err)
		}
		defer func() { _ = consumer.Close() }()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("callback consumer: %w", err)
			}
		}()
	}

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	return runErr
}

// newJWTService prefers RS256 keys from files and falls back to the shared
// secret.
func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.Issuer, Expiration: cfg.Expiration}
	switch {
	case cfg.PrivateKeyFile != "":
		key, err := auth.LoadKeyFromFile(cfg.PrivateKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PrivateKeyPEM = key
	case cfg.PublicKeyFile != "":
		key, err := auth.LoadKeyFromFile(cfg.PublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = key
	default:
		jwtCfg.Secret = cfg.Secret
	}
	svc, err := auth.NewJWTService(jwtCfg)
	if err != nil {
		return nil, fmt.Errorf("initialize JWT service: %w", err)
	}
	return svc, nil
}
