package cleanup

import (
	"context"
	"net/http"
	"time"

	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/db"
	"credit-scoring-service/internal/pkg/eventsync"
	"credit-scoring-service/internal/pkg/kafka/producer"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/txmonitor"
	"credit-scoring-service/internal/pkg/utils/worker"
)

// CleanupResources closes everything the app opened, in dependency order:
// inbound traffic first, then background loops, then outbound connections.
// Nil resources are skipped so partial startups shut down cleanly.
func CleanupResources(
	ctx context.Context,
	server *http.Server,
	synchronizer *eventsync.Synchronizer,
	monitor *txmonitor.Monitor,
	cacheLayer *cache.Cache,
	workerPool *worker.WorkerPool,
	kafkaProducer *producer.Producer,
	pubsubPublisher interface{ Close() error },
	mongoClient *db.MongoDB,
	redisClient *db.RedisClient,
) {
	logger.CtxInfo(ctx, "Cleanup started")

	cleanupHTTPServer(ctx, server)
	cleanupSynchronizer(ctx, synchronizer)
	cleanupMonitor(ctx, monitor)
	cleanupWorkerPool(ctx, workerPool)
	cleanupCache(ctx, cacheLayer)
	cleanupKafkaResource(ctx, kafkaProducer)
	cleanupPubSubResource(ctx, pubsubPublisher)
	cleanupMongoResource(ctx, mongoClient)
	cleanupRedisResource(ctx, redisClient)

	logger.CtxInfo(ctx, "Cleanup completed")
}

func cleanupHTTPServer(ctx context.Context, server *http.Server) {
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.CtxError(ctx, "Failed to shutdown HTTP server", err)
	} else {
		logger.CtxInfo(ctx, "HTTP server shutdown successfully")
	}
}

func cleanupSynchronizer(ctx context.Context, synchronizer *eventsync.Synchronizer) {
	if synchronizer == nil {
		return
	}
	synchronizer.Stop()
	logger.CtxInfo(ctx, "Event synchronizer stopped")
}

func cleanupMonitor(ctx context.Context, monitor *txmonitor.Monitor) {
	if monitor == nil {
		return
	}
	monitor.Stop()
	logger.CtxInfo(ctx, "Transaction monitor stopped")
}

func cleanupWorkerPool(ctx context.Context, pool *worker.WorkerPool) {
	if pool == nil {
		return
	}
	pool.Stop()
	logger.CtxInfo(ctx, "Worker pool stopped")
}

func cleanupCache(ctx context.Context, cacheLayer *cache.Cache) {
	if cacheLayer == nil {
		return
	}
	cacheLayer.Stop()
	logger.CtxInfo(ctx, "Cache sweeper stopped")
}

func cleanupKafkaResource(ctx context.Context, kafkaProducer *producer.Producer) {
	if kafkaProducer == nil {
		return
	}
	kafkaProducer.Close()
	logger.CtxInfo(ctx, "Kafka producer closed successfully")
}

func cleanupPubSubResource(ctx context.Context, publisher interface{ Close() error }) {
	if publisher == nil {
		return
	}
	if err := publisher.Close(); err != nil {
		logger.CtxError(ctx, "Failed to close PubSub publisher", err)
	} else {
		logger.CtxInfo(ctx, "PubSub publisher closed successfully")
	}
}

func cleanupMongoResource(ctx context.Context, mongoClient *db.MongoDB) {
	if mongoClient == nil {
		return
	}
	mongoCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Close(mongoCtx); err != nil {
		logger.CtxError(mongoCtx, "Failed to disconnect MongoDB client", err)
	} else {
		logger.CtxInfo(mongoCtx, "MongoDB client disconnected successfully")
	}
}

func cleanupRedisResource(ctx context.Context, redisClient *db.RedisClient) {
	if redisClient == nil {
		return
	}
	if err := redisClient.Close(); err != nil {
		logger.CtxError(ctx, "Failed to close Redis client", err)
	} else {
		logger.CtxInfo(ctx, "Redis client closed successfully")
	}
}
