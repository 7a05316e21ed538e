package eventsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"
	"credit-scoring-service/internal/pkg/utils/worker"
)

// recentEventCount bounds the diagnostic ring buffer.
const recentEventCount = 50

// EventSource supplies chain events by block range. The contract gateway
// implements it.
type EventSource interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterEvents(ctx context.Context, fromBlock, toBlock uint64) ([]models.SyncEvent, error)
}

// BorrowerRefresher re-fetches a borrower profile after its cache entries
// were dropped. The scoring engine implements it.
type BorrowerRefresher interface {
	Borrower(ctx context.Context, nid string) (models.BorrowerRecord, error)
}

// Synchronizer keeps cached state aligned with the chain: it polls the
// contract's event logs, accepts internally published events, invalidates
// the affected cache entries, and schedules targeted re-fetches on the
// worker pool.
type Synchronizer struct {
	source    EventSource
	cache     *cache.Cache
	refresher BorrowerRefresher
	pool      *worker.WorkerPool

	pollInterval time.Duration
	lastBlock    uint64

	// internal publisher channel for events that do not originate on-chain
	published chan models.SyncEvent

	mu     sync.Mutex
	recent []models.SyncEvent

	stop     chan struct{}
	stopOnce sync.Once
}

func New(source EventSource, c *cache.Cache, refresher BorrowerRefresher, pool *worker.WorkerPool, pollInterval time.Duration) *Synchronizer {
	return &Synchronizer{
		source:       source,
		cache:        c,
		refresher:    refresher,
		pool:         pool,
		pollInterval: pollInterval,
		published:    make(chan models.SyncEvent, 64),
		stop:         make(chan struct{}),
	}
}

// Publish feeds an internally originated event (score change, network status
// flip) into the same dispatch path as chain events. Never blocks; a full
// queue drops the event with a warning.
func (s *Synchronizer) Publish(event models.SyncEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case s.published <- event:
	default:
		logger.Warn("Event queue full, dropping event", slog.String("type", event.Type))
	}
}

// Start runs the listener loop until Stop. Per-event failures are logged and
// never stop the loop.
func (s *Synchronizer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.pollChain(ctx); err != nil {
					logger.CtxWarn(ctx, "Chain event poll failed", slog.String("error", err.Error()))
				}
			case event := <-s.published:
				if err := s.HandleEvent(ctx, event); err != nil {
					logger.CtxWarn(ctx, "Event handling failed",
						slog.String("type", event.Type),
						slog.String("error", err.Error()))
				}
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the listener loop.
func (s *Synchronizer) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Close satisfies the shutdown cleanup contract.
func (s *Synchronizer) Close() error {
	s.Stop()
	return nil
}

func (s *Synchronizer) pollChain(ctx context.Context) error {
	head, err := s.source.BlockNumber(ctx)
	if err != nil {
		return err
	}
	if s.lastBlock == 0 {
		// first poll anchors at the current head; history is not replayed
		s.lastBlock = head
		return nil
	}
	if head <= s.lastBlock {
		return nil
	}

	events, err := s.source.FilterEvents(ctx, s.lastBlock+1, head)
	if err != nil {
		return err
	}
	s.lastBlock = head

	for _, event := range events {
		if err := s.HandleEvent(ctx, event); err != nil {
			logger.CtxWarn(ctx, "Event handling failed",
				slog.String("type", event.Type),
				slog.String("nid", event.NID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// HandleEvent dispatches one event: record it, drop the cache entries it
// staled, and trigger any follow-up re-fetch.
func (s *Synchronizer) HandleEvent(ctx context.Context, event models.SyncEvent) error {
	s.record(event)

	switch event.Type {
	case models.EventBorrowerUpdated:
		s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceBorrower, event.NID)
		s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceScore, event.NID)
		s.scheduleRefresh(event.NID)
	case models.EventCreditScoreChanged:
		s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceScore, event.NID)
	case models.EventLoanProcessed:
		s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceBorrower, event.NID)
		s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceScore, event.NID)
		s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceLoan, event.NID)
	case models.EventNetworkStatusChanged:
		s.cache.InvalidateNamespace(ctx, consts.CacheNamespaceNetwork)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
	return nil
}

func (s *Synchronizer) scheduleRefresh(nid string) {
	if s.refresher == nil || s.pool == nil {
		return
	}
	s.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.refresher.Borrower(ctx, nid); err != nil {
			logger.CtxWarn(ctx, "Borrower re-fetch failed",
				slog.String("nid", nid),
				slog.String("error", err.Error()))
		}
	})
}

func (s *Synchronizer) record(event models.SyncEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = append(s.recent, event)
	if len(s.recent) > recentEventCount {
		s.recent = s.recent[len(s.recent)-recentEventCount:]
	}
}

// Recent returns the retained event history, newest last.
func (s *Synchronizer) Recent() []models.SyncEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SyncEvent, len(s.recent))
	copy(out, s.recent)
	return out
}
