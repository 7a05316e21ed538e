package startup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/contract"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"
)

// Phase names, in execution order.
const (
	PhaseConfigurationValidation = "configurationValidation"
	PhaseChainConnection         = "chainConnection"
	PhaseDemoBootstrap           = "demoBootstrap"
	PhaseVerification            = "verification"
	PhaseCompleted               = "completed"
)

// Chain is the slice of the contract gateway the orchestrator needs.
type Chain interface {
	Connect(ctx context.Context) error
	BlockNumber(ctx context.Context) (uint64, error)
	GetBorrower(ctx context.Context, nid string) (models.BorrowerRecord, error)
}

// Onboarder seeds the demo borrower during bootstrap.
type Onboarder interface {
	OnboardBorrower(ctx context.Context, req models.AddBorrowerRequest) (string, error)
}

// PhaseResult records one phase's outcome.
type PhaseResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration_ms"`
}

// Status is the queryable startup state.
type Status struct {
	Phase        string        `json:"phase"`
	Completed    bool          `json:"completed"`
	FallbackMode bool          `json:"fallback_mode"`
	Error        string        `json:"error,omitempty"`
	Phases       []PhaseResult `json:"phases"`
	StartedAt    time.Time     `json:"started_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// Orchestrator walks the fixed startup phase sequence. With fallback enabled a
// failing phase degrades the service instead of blocking it.
type Orchestrator struct {
	network   config.NetworkConfig
	cfg       config.StartupConfig
	chain     Chain
	onboarder Onboarder

	mu     sync.RWMutex
	status Status

	sleep func(time.Duration)
}

func New(network config.NetworkConfig, cfg config.StartupConfig, chain Chain, onboarder Onboarder) *Orchestrator {
	return &Orchestrator{
		network:   network,
		cfg:       cfg,
		chain:     chain,
		onboarder: onboarder,
		sleep:     time.Sleep,
	}
}

// Run executes every phase in order. A phase failure either flips the service
// into fallback mode or aborts startup with the phase name attached.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	o.status = Status{StartedAt: time.Now().UTC()}
	o.mu.Unlock()

	phases := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{PhaseConfigurationValidation, o.validateConfiguration},
		{PhaseChainConnection, o.connectChain},
		{PhaseDemoBootstrap, o.bootstrapDemoAccount},
		{PhaseVerification, o.verify},
	}

	for _, phase := range phases {
		o.setPhase(phase.name)
		started := time.Now()
		err := phase.run(ctx)
		duration := time.Since(started)

		if err == nil {
			o.recordPhase(PhaseResult{Name: phase.name, Status: "completed", Duration: duration})
			continue
		}

		o.recordPhase(PhaseResult{Name: phase.name, Status: "failed", Error: err.Error(), Duration: duration})

		if !o.cfg.EnableFallback {
			o.finish(false, false, err)
			return fmt.Errorf("startup phase %s: %w", phase.name, err)
		}

		logger.CtxWarn(ctx, "Startup phase failed, continuing in fallback mode",
			slog.String("phase", phase.name),
			slog.String("error", err.Error()))
		o.finish(true, true, err)
		return nil
	}

	o.finish(true, false, nil)
	logger.CtxInfo(ctx, "Startup completed")
	return nil
}

func (o *Orchestrator) validateConfiguration(context.Context) error {
	return config.ValidateNetworkConfig(o.network)
}

func (o *Orchestrator) connectChain(ctx context.Context) error {
	return o.chain.Connect(ctx)
}

// bootstrapDemoAccount seeds the demo borrower, retrying the create+verify
// sequence. Non-retryable chain errors abort the loop immediately.
func (o *Orchestrator) bootstrapDemoAccount(ctx context.Context) error {
	if o.cfg.DemoBorrowerNID == "" {
		return nil
	}

	attempts := o.cfg.BootstrapAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = o.bootstrapOnce(ctx)
		if lastErr == nil {
			return nil
		}
		if !contract.IsRetryable(lastErr) {
			return lastErr
		}
		logger.CtxWarn(ctx, "Demo bootstrap attempt failed",
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
		if attempt < attempts {
			o.sleep(o.cfg.BootstrapDelay)
		}
	}
	return fmt.Errorf("demo bootstrap failed after %d attempts: %w", attempts, lastErr)
}

func (o *Orchestrator) bootstrapOnce(ctx context.Context) error {
	nid := o.cfg.DemoBorrowerNID

	if _, err := o.chain.GetBorrower(ctx, nid); err == nil {
		return nil
	} else if !contract.IsNotFound(err) {
		return err
	}

	if _, err := o.onboarder.OnboardBorrower(ctx, demoBorrower(nid)); err != nil {
		return err
	}

	if _, err := o.chain.GetBorrower(ctx, nid); err != nil {
		return fmt.Errorf("demo borrower verification: %w", err)
	}
	return nil
}

func (o *Orchestrator) verify(ctx context.Context) error {
	if _, err := o.chain.BlockNumber(ctx); err != nil {
		return fmt.Errorf("chain verification: %w", err)
	}
	return nil
}

// Status returns a snapshot safe for concurrent readers.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()

	snapshot := o.status
	snapshot.Phases = append([]PhaseResult(nil), o.status.Phases...)
	return snapshot
}

func (o *Orchestrator) setPhase(name string) {
	o.mu.Lock()
	o.status.Phase = name
	o.mu.Unlock()
}

func (o *Orchestrator) recordPhase(result PhaseResult) {
	o.mu.Lock()
	o.status.Phases = append(o.status.Phases, result)
	o.mu.Unlock()
}

func (o *Orchestrator) finish(completed, fallback bool, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now().UTC()
	o.status.Completed = completed
	o.status.FallbackMode = fallback
	o.status.FinishedAt = &now
	if completed {
		o.status.Phase = PhaseCompleted
	}
	if err != nil {
		o.status.Error = err.Error()
	}
}

func demoBorrower(nid string) models.AddBorrowerRequest {
	return models.AddBorrowerRequest{
		NID:                 nid,
		Name:                "Demo Borrower",
		Profession:          "Software Engineer",
		AccountBalance:      50000,
		TotalTransactions:   120,
		OnTimePayments:      36,
		MissedPayments:      1,
		TotalRemainingLoan:  15000,
		CreditAgeMonths:     48,
		ProfessionRiskScore: 20,
	}
}
