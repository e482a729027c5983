package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vowsmarket/settlement-service/internal/adapters/cache"
	eventadapter "github.com/vowsmarket/settlement-service/internal/adapters/events"
	grpcadapter "github.com/vowsmarket/settlement-service/internal/adapters/grpc"
	httpadapter "github.com/vowsmarket/settlement-service/internal/adapters/http"
	"github.com/vowsmarket/settlement-service/internal/adapters/postgres"
	processoradapter "github.com/vowsmarket/settlement-service/internal/adapters/processor"
	"github.com/vowsmarket/settlement-service/internal/adapters/security"
	"github.com/vowsmarket/settlement-service/internal/application"
	"github.com/vowsmarket/settlement-service/internal/ports"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener
	outbox     *eventadapter.OutboxWorker
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(ctx, db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	repos := postgres.NewRepositories(db)

	var closers []io.Closer
	var statusCache ports.Cache
	if cfg.RedisURL != "" {
		redisClient, redisErr := cache.Connect(ctx, cfg.RedisURL)
		if redisErr != nil {
			_ = sqlDB.Close()
			return nil, redisErr
		}
		statusCache = cache.NewRedisCache(redisClient, cfg.ServiceID+":")
		closers = append(closers, redisClient)
	} else {
		logger.WarnContext(ctx, "redis not configured, payment view cache disabled")
	}

	verifier, err := processoradapter.NewSignatureVerifier(cfg.WebhookSigningSecret, cfg.WebhookTolerance)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	tokenVerifier, err := security.NewJWTVerifier(cfg.JWTSecret)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	var proc ports.Processor
	if cfg.ProcessorBaseURL != "" && cfg.ProcessorAPIKey != "" {
		proc = processoradapter.NewClient(cfg.ProcessorBaseURL, cfg.ProcessorAPIKey, cfg.TransferTimeout)
	} else {
		logger.WarnContext(ctx, "processor credentials not configured, using in-memory fake")
		proc = processoradapter.NewFake()
	}

	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:      cfg.ServiceID,
			FeeBasisPoints:   cfg.FeeBasisPoints,
			DefaultCurrency:  cfg.DefaultCurrency,
			IntentTimeout:    cfg.IntentTimeout,
			TransferTimeout:  cfg.TransferTimeout,
			IdempotencyTTL:   cfg.IdempotencyTTL,
			EventDedupTTL:    cfg.EventDedupTTL,
			StatusCacheTTL:   cfg.StatusCacheTTL,
			ReconcilePending: cfg.ReconcilePending,
			WebhookTolerance: cfg.WebhookTolerance,
		},
		Logger:      logger,
		Payments:    repos.Payments,
		Holds:       repos.Holds,
		Ledger:      repos.Ledger,
		Transfers:   repos.Transfers,
		Invoices:    repos.Invoices,
		Vendors:     repos.Vendors,
		Outbox:      repos.Outbox,
		EventDedup:  repos.EventDedup,
		Idempotency: repos.Idempotency,
		Processor:   proc,
		Verifier:    verifier,
		Cache:       statusCache,
	})

	handler := httpadapter.NewHandler(service, logger)
	router := httpadapter.NewRouter(handler, tokenVerifier, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewSettlementInternalServer(service))
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		for _, closer := range closers {
			_ = closer.Close()
		}
		_ = sqlDB.Close()
		return nil, err
	}

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, nil)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			closers = append(closers, kafkaPublisher)
		}
	}
	outbox := eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize)

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		grpcServer: grpcServer,
		grpcLis:    lis,
		outbox:     outbox,
		cleanupFn: func(ctx context.Context) {
			for _, closer := range closers {
				_ = closer.Close()
			}
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(r.grpcLis); err != nil {
			errCh <- err
		}
	}()
	r.logger.InfoContext(ctx, "api started", "http_port", r.cfg.HTTPPort, "grpc_port", r.cfg.GRPCPort)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.cleanupFn(shutdownCtx)
	return nil
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	r.logger.InfoContext(ctx, "outbox worker started", "interval", r.cfg.OutboxPollInterval.String())

	select {
	case <-ctx.Done():
		r.cleanupFn(context.Background())
		return nil
	case err := <-errCh:
		r.cleanupFn(context.Background())
		return err
	}
}
