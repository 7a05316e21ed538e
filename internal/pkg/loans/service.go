package loans

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"
	"credit-scoring-service/internal/pkg/utils"

	"github.com/google/uuid"
)

// LoanChain is the slice of the contract gateway the loan flow writes through.
type LoanChain interface {
	RequestLoan(ctx context.Context, nid string, amount uint64) (string, error)
	AddBorrower(ctx context.Context, b models.BorrowerRecord) (string, error)
}

// EligibilityChecker gates loan submission on a live quote.
type EligibilityChecker interface {
	Eligibility(ctx context.Context, req models.EligibilityRequest) (models.EligibilityAssessment, error)
}

// TransactionTracker registers submitted hashes for confirmation monitoring.
type TransactionTracker interface {
	Track(txHash, description string) models.TransactionStatus
}

// InProgressGuard prevents duplicate concurrent requests per borrower.
type InProgressGuard interface {
	IsInProgress(ctx context.Context, nid string) (bool, error)
	CreateEntry(ctx context.Context, nid string) error
	DeleteEntry(ctx context.Context, nid string) error
}

// AuditStore persists the loan application trail.
type AuditStore interface {
	Insert(ctx context.Context, loan models.LoanRecord) error
	UpdateOutcome(ctx context.Context, loan models.LoanRecord) error
	FindByTxHash(ctx context.Context, txHash string) (models.LoanRecord, error)
	FindByNID(ctx context.Context, nid string) ([]models.LoanRecord, error)
}

// RecordPublisher emits processed-loan records to the transaction stream.
type RecordPublisher interface {
	PublishLoanRecord(ctx context.Context, loan models.LoanRecord, retryCount int) error
}

// OutcomeNotifier tells the borrower how the application ended.
type OutcomeNotifier interface {
	NotifyLoanOutcome(ctx context.Context, loan models.LoanRecord) error
}

// EventPublisher feeds internally originated sync events to the cache
// synchronizer.
type EventPublisher interface {
	Publish(event models.SyncEvent)
}

// Service orchestrates the end-to-end loan request flow.
type Service struct {
	chain    LoanChain
	engine   EligibilityChecker
	monitor  TransactionTracker
	guard    InProgressGuard
	audit    AuditStore
	records  RecordPublisher
	notifier OutcomeNotifier
	events   EventPublisher
	cache    *cache.Cache
	cfg      config.ScoringConfig
}

func NewService(
	chain LoanChain,
	engine EligibilityChecker,
	monitor TransactionTracker,
	guard InProgressGuard,
	audit AuditStore,
	records RecordPublisher,
	notifier OutcomeNotifier,
	events EventPublisher,
	c *cache.Cache,
	cfg config.ScoringConfig,
) *Service {
	return &Service{
		chain:    chain,
		engine:   engine,
		monitor:  monitor,
		guard:    guard,
		audit:    audit,
		records:  records,
		notifier: notifier,
		events:   events,
		cache:    c,
		cfg:      cfg,
	}
}

// RequestLoan runs the full application flow: duplicate guard, eligibility
// gate, on-chain submission, monitor registration, audit record. A declined
// application is a normal outcome, not an error.
func (s *Service) RequestLoan(ctx context.Context, req models.LoanRequest) (models.LoanRecord, error) {
	if !utils.IsValidNID(req.NID) {
		return models.LoanRecord{}, fmt.Errorf("loan request %q: %w", req.NID, consts.ErrorNidFormatValidationFailed)
	}
	if req.RequestedAmount == 0 || req.MonthlyIncome == 0 {
		return models.LoanRecord{}, fmt.Errorf("loan request %s: %w", req.NID, consts.ErrorAmountValidationFailed)
	}

	inProgress, err := s.guard.IsInProgress(ctx, req.NID)
	if err != nil {
		return models.LoanRecord{}, fmt.Errorf("loan request %s: guard check: %w", req.NID, err)
	}
	if inProgress {
		return models.LoanRecord{}, fmt.Errorf("loan request %s: %w", req.NID, consts.ErrorTransactionInProgress)
	}
	if err := s.guard.CreateEntry(ctx, req.NID); err != nil {
		return models.LoanRecord{}, fmt.Errorf("loan request %s: guard entry: %w", req.NID, err)
	}
	defer func() {
		if err := s.guard.DeleteEntry(ctx, req.NID); err != nil {
			logger.CtxWarn(ctx, "Failed to release in-progress guard", slog.String("nid", req.NID))
		}
	}()

	assessment, err := s.engine.Eligibility(ctx, models.EligibilityRequest{
		NID:             req.NID,
		MonthlyIncome:   req.MonthlyIncome,
		RequestedAmount: req.RequestedAmount,
	})
	if err != nil {
		return models.LoanRecord{}, err
	}

	term := req.TermMonths
	if term == 0 {
		term = s.cfg.DefaultTermMonths
	}

	loan := models.LoanRecord{
		ID:              uuid.NewString(),
		NID:             req.NID,
		RequestedAmount: req.RequestedAmount,
		InterestRate:    assessment.InterestRate,
		TermMonths:      term,
		ApplicationDate: time.Now().UTC(),
	}

	if !assessment.IsEligible {
		loan.Status = models.LoanStatusDeclined
		if len(assessment.Reasons) > 0 {
			loan.FailureReason = assessment.Reasons[0]
		}
		if err := s.audit.Insert(ctx, loan); err != nil {
			logger.CtxWarn(ctx, "Loan audit insert failed", slog.String("loan_id", loan.ID))
		}
		s.finalize(ctx, loan)
		return loan, nil
	}

	txHash, err := s.chain.RequestLoan(ctx, req.NID, req.RequestedAmount)
	if err != nil {
		loan.Status = models.LoanStatusFailed
		loan.FailureReason = err.Error()
		if insertErr := s.audit.Insert(ctx, loan); insertErr != nil {
			logger.CtxWarn(ctx, "Loan audit insert failed", slog.String("loan_id", loan.ID))
		}
		s.finalize(ctx, loan)
		return models.LoanRecord{}, err
	}

	loan.Status = models.LoanStatusPending
	loan.TxHash = txHash
	loan.ApprovedAmount = req.RequestedAmount
	loan.MonthlyPayment = monthlyPayment(req.RequestedAmount, assessment.InterestRate, term)

	s.monitor.Track(txHash, fmt.Sprintf("requestLoan %s", req.NID))

	if err := s.audit.Insert(ctx, loan); err != nil {
		logger.CtxWarn(ctx, "Loan audit insert failed", slog.String("loan_id", loan.ID))
	}
	s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceLoan, req.NID)

	logger.CtxInfo(ctx, "Loan request submitted",
		slog.String("loan_id", loan.ID),
		slog.String("nid", req.NID),
		slog.String("tx_hash", txHash))
	return loan, nil
}

// HandleTransactionOutcome is wired as the monitor's terminal callback. It
// closes out the audit record, emits the processed record, notifies the
// borrower, and publishes the invalidation event.
func (s *Service) HandleTransactionOutcome(status models.TransactionStatus) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	loan, err := s.audit.FindByTxHash(ctx, status.Hash)
	if err != nil {
		// not every tracked transaction is a loan (borrower onboarding)
		return
	}

	switch status.State {
	case models.TxStateConfirmed:
		loan.Status = models.LoanStatusApproved
		now := time.Now().UTC()
		loan.DisbursementDate = &now
	case models.TxStateFailed:
		loan.Status = models.LoanStatusFailed
		loan.FailureReason = status.Error
		loan.ApprovedAmount = 0
	default:
		return
	}

	if err := s.audit.UpdateOutcome(ctx, loan); err != nil {
		logger.CtxWarn(ctx, "Loan audit outcome update failed", slog.String("loan_id", loan.ID))
	}
	s.finalize(ctx, loan)

	if s.events != nil {
		s.events.Publish(models.SyncEvent{
			Type:      models.EventLoanProcessed,
			NID:       loan.NID,
			TxHash:    status.Hash,
			Timestamp: time.Now().UTC(),
		})
	}
}

// finalize emits the outcome downstream; failures degrade to logs, the loan
// decision itself stands.
func (s *Service) finalize(ctx context.Context, loan models.LoanRecord) {
	if s.records != nil {
		if err := s.records.PublishLoanRecord(ctx, loan, 2); err != nil {
			logger.CtxWarn(ctx, "Loan record publish failed", slog.String("loan_id", loan.ID))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyLoanOutcome(ctx, loan); err != nil {
			logger.CtxWarn(ctx, "Loan outcome notification failed", slog.String("loan_id", loan.ID))
		}
	}
}

// OnboardBorrower writes a borrower profile on-chain and tracks the
// transaction.
func (s *Service) OnboardBorrower(ctx context.Context, req models.AddBorrowerRequest) (string, error) {
	if !utils.IsValidNID(req.NID) {
		return "", fmt.Errorf("onboard %q: %w", req.NID, consts.ErrorNidFormatValidationFailed)
	}

	txHash, err := s.chain.AddBorrower(ctx, models.BorrowerRecord{
		NID:                 req.NID,
		Name:                req.Name,
		Profession:          req.Profession,
		AccountBalance:      req.AccountBalance,
		TotalTransactions:   req.TotalTransactions,
		OnTimePayments:      req.OnTimePayments,
		MissedPayments:      req.MissedPayments,
		TotalRemainingLoan:  req.TotalRemainingLoan,
		CreditAgeMonths:     req.CreditAgeMonths,
		ProfessionRiskScore: req.ProfessionRiskScore,
	})
	if err != nil {
		return "", err
	}

	s.monitor.Track(txHash, fmt.Sprintf("addBorrower %s", req.NID))
	s.cache.InvalidatePrefix(ctx, consts.CacheNamespaceBorrower, req.NID)
	return txHash, nil
}

// History lists the borrower's loan applications, cached briefly.
func (s *Service) History(ctx context.Context, nid string) ([]models.LoanRecord, error) {
	if !utils.IsValidNID(nid) {
		return nil, fmt.Errorf("loan history %q: %w", nid, consts.ErrorNidFormatValidationFailed)
	}

	if cached, ok := cache.GetTyped[[]models.LoanRecord](ctx, s.cache, consts.CacheNamespaceLoan, nid); ok {
		return cached, nil
	}

	loans, err := s.audit.FindByNID(ctx, nid)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, consts.CacheNamespaceLoan, nid, loans, 0); err != nil {
		logger.CtxWarn(ctx, "Loan history cache write failed", slog.String("nid", nid))
	}
	return loans, nil
}

// monthlyPayment applies flat interest over the term.
func monthlyPayment(amount uint64, annualRate float64, termMonths uint64) float64 {
	if termMonths == 0 {
		return 0
	}
	principal := float64(amount)
	interest := principal * (annualRate / 100) * (float64(termMonths) / 12)
	return (principal + interest) / float64(termMonths)
}
