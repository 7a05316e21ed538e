package txmonitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"
)

// ReceiptChecker looks up whether a transaction has a receipt yet and
// whether it succeeded. The contract gateway implements it.
type ReceiptChecker interface {
	ReceiptStatus(ctx context.Context, txHash string) (found bool, succeeded bool, err error)
}

// Monitor drives every tracked hash through pending -> confirmed/failed.
// Terminal entries linger for a grace period so observers can react, then
// drop out of the set.
type Monitor struct {
	checker      ReceiptChecker
	pollInterval time.Duration
	timeout      time.Duration
	gracePeriod  time.Duration

	mu      sync.Mutex
	entries map[string]models.TransactionStatus

	// invoked once per transaction when it turns terminal
	onTerminal func(models.TransactionStatus)

	stop     chan struct{}
	stopOnce sync.Once

	now func() time.Time
}

func New(checker ReceiptChecker, monitorCfg config.MonitorConfig, txTimeout time.Duration) *Monitor {
	return &Monitor{
		checker:      checker,
		pollInterval: monitorCfg.PollInterval,
		timeout:      txTimeout,
		gracePeriod:  monitorCfg.GracePeriod,
		entries:      make(map[string]models.TransactionStatus),
		stop:         make(chan struct{}),
		now:          time.Now,
	}
}

// SetOnTerminal registers the terminal-transition callback. Must be called
// before Start.
func (m *Monitor) SetOnTerminal(fn func(models.TransactionStatus)) {
	m.onTerminal = fn
}

// Track registers a submitted hash as pending.
func (m *Monitor) Track(txHash, description string) models.TransactionStatus {
	status := models.TransactionStatus{
		Hash:        txHash,
		Description: description,
		SubmittedAt: m.now(),
		State:       models.TxStatePending,
	}

	m.mu.Lock()
	m.entries[txHash] = status
	m.mu.Unlock()
	return status
}

// Status reports the tracked state of a hash.
func (m *Monitor) Status(txHash string) (models.TransactionStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.entries[txHash]
	return status, ok
}

// All snapshots every tracked transaction.
func (m *Monitor) All() []models.TransactionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TransactionStatus, 0, len(m.entries))
	for _, status := range m.entries {
		out = append(out, status)
	}
	return out
}

// Start polls all pending hashes on the configured interval until Stop.
func (m *Monitor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.checkAll(ctx)
			case <-m.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the polling loop.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Close satisfies the shutdown cleanup contract.
func (m *Monitor) Close() error {
	m.Stop()
	return nil
}

// checkAll runs one poll pass. Each hash is checked independently; one
// failure never affects the others.
func (m *Monitor) checkAll(ctx context.Context) {
	now := m.now()

	m.mu.Lock()
	pending := make([]models.TransactionStatus, 0, len(m.entries))
	for hash, status := range m.entries {
		if status.IsTerminal() {
			if status.ConfirmedAt != nil && now.Sub(*status.ConfirmedAt) > m.gracePeriod {
				delete(m.entries, hash)
			}
			continue
		}
		pending = append(pending, status)
	}
	m.mu.Unlock()

	for _, status := range pending {
		m.checkOne(ctx, status, now)
	}
}

func (m *Monitor) checkOne(ctx context.Context, status models.TransactionStatus, now time.Time) {
	if now.Sub(status.SubmittedAt) > m.timeout {
		m.transition(ctx, status.Hash, models.TxStateFailed, "confirmation timeout", now)
		return
	}

	found, succeeded, err := m.checker.ReceiptStatus(ctx, status.Hash)
	if err != nil {
		// the verification call itself failed; record it rather than
		// silently retrying
		m.transition(ctx, status.Hash, models.TxStateFailed, err.Error(), now)
		return
	}
	if !found {
		return
	}
	if succeeded {
		m.transition(ctx, status.Hash, models.TxStateConfirmed, "", now)
	} else {
		m.transition(ctx, status.Hash, models.TxStateFailed, "transaction reverted", now)
	}
}

func (m *Monitor) transition(ctx context.Context, txHash, state, errMsg string, now time.Time) {
	m.mu.Lock()
	status, ok := m.entries[txHash]
	if !ok || status.IsTerminal() {
		m.mu.Unlock()
		return
	}
	status.State = state
	status.Error = errMsg
	confirmedAt := now
	status.ConfirmedAt = &confirmedAt
	m.entries[txHash] = status
	m.mu.Unlock()

	logger.CtxInfo(ctx, "Transaction reached terminal state",
		slog.String("tx_hash", txHash),
		slog.String("state", state),
		slog.String("error", errMsg))

	if m.onTerminal != nil {
		m.onTerminal(status)
	}
}
