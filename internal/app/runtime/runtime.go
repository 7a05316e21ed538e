package runtime

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-scoring-service/internal/app/handlers"
	"credit-scoring-service/internal/app/router"
	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/cleanup"
	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/contract"
	"credit-scoring-service/internal/pkg/db"
	"credit-scoring-service/internal/pkg/eventsync"
	"credit-scoring-service/internal/pkg/kafka/producer"
	"credit-scoring-service/internal/pkg/loans"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/notification"
	"credit-scoring-service/internal/pkg/otel"
	"credit-scoring-service/internal/pkg/pubsub"
	"credit-scoring-service/internal/pkg/scoring"
	"credit-scoring-service/internal/pkg/startup"
	"credit-scoring-service/internal/pkg/store"
	"credit-scoring-service/internal/pkg/txmonitor"
	"credit-scoring-service/internal/pkg/utils/worker"
)

const serviceName = "credit-scoring-service"

// App holds every long-lived resource and wires the service graph together.
type App struct {
	Cfg *config.AppConfig

	Gateway      *contract.Gateway
	Cache        *cache.Cache
	Engine       *scoring.Engine
	Monitor      *txmonitor.Monitor
	Synchronizer *eventsync.Synchronizer
	LoanService  *loans.Service
	Orchestrator *startup.Orchestrator

	MongoClient     *db.MongoDB
	RedisClient     *db.RedisClient
	KafkaProducer   *producer.Producer
	PubSubPublisher *pubsub.PubSubPublisher
	WorkerPool      *worker.WorkerPool
	HTTPServer      *http.Server

	otelShutdown func(context.Context) error
	cancelLoops  context.CancelFunc
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadFromConfig()
	if err != nil {
		logger.CtxError(ctx, "Failed loading configuration", err)
		return nil, err
	}
	logger.Init(cfg.Logging.LogLevel)

	otelShutdown, err := otel.Setup(ctx, serviceName,
		config.GetEnvOrDefaultAsString("OTEL_COLLECTOR_URL", "localhost:4318"))
	if err != nil {
		logger.CtxError(ctx, "Failed setting up OTLP", err)
	}

	mongoClient, err := db.NewMongoDB(ctx, cfg.Mongo)
	if err != nil {
		logger.CtxError(ctx, "Failed to connect to MongoDB", err)
		return nil, err
	}
	mongoClient.CreateDbTtlIfNotExists(ctx)

	redisClient, err := db.ConnectToRedis(ctx, cfg.Redis, nil)
	if err != nil {
		logger.CtxError(ctx, "Failed to connect to Redis", err)
		return nil, err
	}

	kafkaProducer, err := producer.NewKafkaProducer(cfg.Kafka)
	if err != nil {
		logger.CtxError(ctx, "Failed to create Kafka producer", err)
		return nil, err
	}

	pubsubPublisher, err := pubsub.NewPubSubPublisher(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		logger.CtxError(ctx, "Failed to create PubSub publisher", err)
		return nil, err
	}

	signerKey := config.GetEnvOrDefaultAsString("SIGNER_PRIVATE_KEY", "")
	if signerKey == "" {
		return nil, fmt.Errorf("SIGNER_PRIVATE_KEY is not set: %w", consts.ErrorConfiguration)
	}
	signer, err := contract.NewLocalSigner(signerKey)
	if err != nil {
		return nil, err
	}

	backend, err := contract.Dial(ctx, cfg.Network.RPCURL)
	if err != nil {
		logger.CtxError(ctx, "Failed to dial chain RPC endpoint", err)
		return nil, err
	}

	gateway, err := contract.NewGateway(cfg.Network, backend, signer)
	if err != nil {
		return nil, err
	}

	cacheLayer := cache.New(cache.NewRedisStoreAdapter(redisClient.Client))
	engine := scoring.NewEngine(gateway, cacheLayer, cfg.Scoring)
	monitor := txmonitor.New(gateway, cfg.Monitor, cfg.Network.TxTimeout)
	workerPool := worker.NewWorkerPool(cfg.EventSync.WorkerCount)
	synchronizer := eventsync.New(gateway, cacheLayer, engine, workerPool, cfg.EventSync.PollInterval)

	notifier := notification.NewNotificationService(pubsubPublisher, cfg.PubSub.NotificationTopic)
	loanService := loans.NewService(
		gateway,
		engine,
		monitor,
		store.NewTransactionInProgressRepository(mongoClient),
		store.NewLoanApplicationRepository(mongoClient),
		kafkaProducer,
		notifier,
		synchronizer,
		cacheLayer,
		cfg.Scoring,
	)
	monitor.SetOnTerminal(loanService.HandleTransactionOutcome)

	orchestrator := startup.New(cfg.Network, cfg.Startup, gateway, loanService)

	return &App{
		Cfg:             cfg,
		Gateway:         gateway,
		Cache:           cacheLayer,
		Engine:          engine,
		Monitor:         monitor,
		Synchronizer:    synchronizer,
		LoanService:     loanService,
		Orchestrator:    orchestrator,
		MongoClient:     mongoClient,
		RedisClient:     redisClient,
		KafkaProducer:   kafkaProducer,
		PubSubPublisher: pubsubPublisher,
		WorkerPool:      workerPool,
		otelShutdown:    otelShutdown,
	}, nil
}

// Run executes the startup sequence, starts the background loops and the HTTP
// server, then blocks until a shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	if err := a.Orchestrator.Run(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	a.cancelLoops = cancel

	a.Cache.StartSweeper(consts.CacheSweepInterval)
	go a.Monitor.Start(loopCtx)
	go a.Synchronizer.Start(loopCtx)

	scoringHandler := handlers.NewScoringHandler(a.Engine)
	loansHandler := handlers.NewLoansHandler(a.LoanService, a.Monitor)
	systemHandler := handlers.NewSystemHandler(a.Cache, a.Orchestrator, a.Synchronizer)
	engine := router.SetupRouter(scoringHandler, loansHandler, systemHandler)

	a.HTTPServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.Cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.CtxError(ctx, "HTTP server failed", err)
		}
	}()
	logger.CtxInfo(ctx, "Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Shutdown(ctx)
	logger.CtxInfo(ctx, "Server exiting")
	return nil
}

// Shutdown stops background loops and closes every resource with bounded
// timeouts.
func (a *App) Shutdown(ctx context.Context) {
	if a.cancelLoops != nil {
		a.cancelLoops()
	}

	cleanup.CleanupResources(ctx,
		a.HTTPServer,
		a.Synchronizer,
		a.Monitor,
		a.Cache,
		a.WorkerPool,
		a.KafkaProducer,
		a.PubSubPublisher,
		a.MongoClient,
		a.RedisClient,
	)

	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			logger.CtxError(ctx, "Failed to shutdown OTLP exporter", err)
		}
	}
}
