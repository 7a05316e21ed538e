package loans

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-scoring-service/internal/pkg/cache"
	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testNID  = "1234567890"
	testHash = "0x51e82456fe43b0bd26e7b6e0a5cd875e4ba2cc5d4dcbb7862a41b5f69ef7f602"
)

type fakeChain struct {
	txHash string
	err    error
	calls  int
}

func (f *fakeChain) RequestLoan(ctx context.Context, nid string, amount uint64) (string, error) {
	f.calls++
	return f.txHash, f.err
}

func (f *fakeChain) AddBorrower(ctx context.Context, b models.BorrowerRecord) (string, error) {
	f.calls++
	return f.txHash, f.err
}

type fakeChecker struct {
	assessment models.EligibilityAssessment
	err        error
}

func (f *fakeChecker) Eligibility(ctx context.Context, req models.EligibilityRequest) (models.EligibilityAssessment, error) {
	return f.assessment, f.err
}

type fakeTracker struct {
	tracked []string
}

func (f *fakeTracker) Track(txHash, description string) models.TransactionStatus {
	f.tracked = append(f.tracked, txHash)
	return models.TransactionStatus{Hash: txHash, State: models.TxStatePending}
}

type fakeGuard struct {
	inProgress bool
	created    []string
	deleted    []string
}

func (f *fakeGuard) IsInProgress(ctx context.Context, nid string) (bool, error) {
	return f.inProgress, nil
}

func (f *fakeGuard) CreateEntry(ctx context.Context, nid string) error {
	f.created = append(f.created, nid)
	return nil
}

func (f *fakeGuard) DeleteEntry(ctx context.Context, nid string) error {
	f.deleted = append(f.deleted, nid)
	return nil
}

type fakeAudit struct {
	inserted []models.LoanRecord
	updated  []models.LoanRecord
	byHash   map[string]models.LoanRecord
	findErr  error
}

func (f *fakeAudit) Insert(ctx context.Context, loan models.LoanRecord) error {
	f.inserted = append(f.inserted, loan)
	return nil
}

func (f *fakeAudit) UpdateOutcome(ctx context.Context, loan models.LoanRecord) error {
	f.updated = append(f.updated, loan)
	return nil
}

func (f *fakeAudit) FindByTxHash(ctx context.Context, txHash string) (models.LoanRecord, error) {
	if f.findErr != nil {
		return models.LoanRecord{}, f.findErr
	}
	loan, ok := f.byHash[txHash]
	if !ok {
		return models.LoanRecord{}, mongo.ErrNoDocuments
	}
	return loan, nil
}

func (f *fakeAudit) FindByNID(ctx context.Context, nid string) ([]models.LoanRecord, error) {
	var out []models.LoanRecord
	for _, loan := range f.inserted {
		if loan.NID == nid {
			out = append(out, loan)
		}
	}
	return out, nil
}

type fakeRecords struct {
	published []models.LoanRecord
}

func (f *fakeRecords) PublishLoanRecord(ctx context.Context, loan models.LoanRecord, retryCount int) error {
	f.published = append(f.published, loan)
	return nil
}

type fakeNotifier struct {
	notified []models.LoanRecord
}

func (f *fakeNotifier) NotifyLoanOutcome(ctx context.Context, loan models.LoanRecord) error {
	f.notified = append(f.notified, loan)
	return nil
}

type fakeEvents struct {
	events []models.SyncEvent
}

func (f *fakeEvents) Publish(event models.SyncEvent) {
	f.events = append(f.events, event)
}

type serviceFixture struct {
	service  *Service
	chain    *fakeChain
	checker  *fakeChecker
	tracker  *fakeTracker
	guard    *fakeGuard
	audit    *fakeAudit
	records  *fakeRecords
	notifier *fakeNotifier
	events   *fakeEvents
	cache    *cache.Cache
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	c := cache.New(cache.NewRedisStoreAdapter(client))
	t.Cleanup(c.Stop)

	f := &serviceFixture{
		chain: &fakeChain{txHash: testHash},
		checker: &fakeChecker{assessment: models.EligibilityAssessment{
			NID: testNID, IsEligible: true, CreditScore: 900,
			Rating: "A", MaxLoanAmount: 200000, InterestRate: 10.0,
		}},
		tracker:  &fakeTracker{},
		guard:    &fakeGuard{},
		audit:    &fakeAudit{byHash: map[string]models.LoanRecord{}},
		records:  &fakeRecords{},
		notifier: &fakeNotifier{},
		events:   &fakeEvents{},
		cache:    c,
	}
	f.service = NewService(f.chain, f.checker, f.tracker, f.guard, f.audit,
		f.records, f.notifier, f.events, c,
		config.ScoringConfig{BaseInterestRate: 13.5, DefaultTermMonths: 12})
	return f
}

func validRequest() models.LoanRequest {
	return models.LoanRequest{
		NID:             testNID,
		MonthlyIncome:   50000,
		RequestedAmount: 150000,
	}
}

func TestRequestLoan_EligibleSubmitsAndTracks(t *testing.T) {
	f := newFixture(t)

	loan, err := f.service.RequestLoan(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusPending, loan.Status)
	assert.Equal(t, testHash, loan.TxHash)
	assert.Equal(t, uint64(150000), loan.ApprovedAmount)
	assert.Equal(t, 10.0, loan.InterestRate)
	assert.InDelta(t, 13750.0, loan.MonthlyPayment, 0.001)

	assert.Equal(t, []string{testHash}, f.tracker.tracked)
	require.Len(t, f.audit.inserted, 1)
	assert.Equal(t, []string{testNID}, f.guard.created)
	assert.Equal(t, []string{testNID}, f.guard.deleted)
}

func TestRequestLoan_DeclinedIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.checker.assessment = models.EligibilityAssessment{
		NID: testNID, IsEligible: false,
		Reasons:      []string{"Credit score 250 is below the minimum of 300"},
		InterestRate: 13.5,
	}

	loan, err := f.service.RequestLoan(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, models.LoanStatusDeclined, loan.Status)
	assert.Contains(t, loan.FailureReason, "below the minimum")
	assert.Zero(t, f.chain.calls)
	assert.Empty(t, f.tracker.tracked)
	require.Len(t, f.records.published, 1)
	require.Len(t, f.notifier.notified, 1)
}

func TestRequestLoan_DuplicateRequestBlocked(t *testing.T) {
	f := newFixture(t)
	f.guard.inProgress = true

	_, err := f.service.RequestLoan(context.Background(), validRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, consts.ErrorTransactionInProgress)
	assert.Zero(t, f.chain.calls)
}

func TestRequestLoan_ChainFailureReleasesGuard(t *testing.T) {
	f := newFixture(t)
	f.chain.err = errors.New("connection refused")

	_, err := f.service.RequestLoan(context.Background(), validRequest())
	require.Error(t, err)

	assert.Equal(t, []string{testNID}, f.guard.deleted)
	require.Len(t, f.audit.inserted, 1)
	assert.Equal(t, models.LoanStatusFailed, f.audit.inserted[0].Status)
}

func TestRequestLoan_InvalidInputs(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(req *models.LoanRequest)
		wantErr error
	}{
		{
			name:    "bad nid",
			mutate:  func(req *models.LoanRequest) { req.NID = "abc" },
			wantErr: consts.ErrorNidFormatValidationFailed,
		},
		{
			name:    "zero amount",
			mutate:  func(req *models.LoanRequest) { req.RequestedAmount = 0 },
			wantErr: consts.ErrorAmountValidationFailed,
		},
		{
			name:    "zero income",
			mutate:  func(req *models.LoanRequest) { req.MonthlyIncome = 0 },
			wantErr: consts.ErrorAmountValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := f.service.RequestLoan(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandleTransactionOutcome_ConfirmedApprovesAndPublishes(t *testing.T) {
	f := newFixture(t)
	f.audit.byHash[testHash] = models.LoanRecord{
		ID: "loan-1", NID: testNID, TxHash: testHash,
		Status: models.LoanStatusPending,
	}

	now := time.Now()
	f.service.HandleTransactionOutcome(models.TransactionStatus{
		Hash:        testHash,
		State:       models.TxStateConfirmed,
		ConfirmedAt: &now,
	})

	require.Len(t, f.audit.updated, 1)
	assert.Equal(t, "loan-1", f.audit.updated[0].ID)
	assert.Equal(t, models.LoanStatusApproved, f.audit.updated[0].Status)
	require.NotNil(t, f.audit.updated[0].DisbursementDate)
	require.Len(t, f.records.published, 1)
	assert.Equal(t, models.LoanStatusApproved, f.records.published[0].Status)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.EventLoanProcessed, f.events.events[0].Type)
	assert.Equal(t, testNID, f.events.events[0].NID)
}

func TestHandleTransactionOutcome_FailedClearsApprovedAmount(t *testing.T) {
	f := newFixture(t)
	f.audit.byHash[testHash] = models.LoanRecord{
		ID: "loan-1", NID: testNID, TxHash: testHash,
		Status: models.LoanStatusPending, ApprovedAmount: 150000,
	}

	f.service.HandleTransactionOutcome(models.TransactionStatus{
		Hash:  testHash,
		State: models.TxStateFailed,
		Error: "confirmation timeout",
	})

	require.Len(t, f.records.published, 1)
	assert.Equal(t, models.LoanStatusFailed, f.records.published[0].Status)
	assert.Zero(t, f.records.published[0].ApprovedAmount)
	assert.Equal(t, "confirmation timeout", f.records.published[0].FailureReason)

	// the persisted record is closed out the same way, the submission-time
	// amount does not survive in the audit trail
	require.Len(t, f.audit.updated, 1)
	assert.Equal(t, models.LoanStatusFailed, f.audit.updated[0].Status)
	assert.Zero(t, f.audit.updated[0].ApprovedAmount)
	assert.Equal(t, "confirmation timeout", f.audit.updated[0].FailureReason)
}

func TestHandleTransactionOutcome_UnknownHashIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.service.HandleTransactionOutcome(models.TransactionStatus{
		Hash:  testHash,
		State: models.TxStateConfirmed,
	})

	assert.Empty(t, f.audit.updated)
	assert.Empty(t, f.records.published)
	assert.Empty(t, f.events.events)
}

func TestHistory_CachesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.RequestLoan(ctx, validRequest())
	require.NoError(t, err)

	loans, err := f.service.History(ctx, testNID)
	require.NoError(t, err)
	require.Len(t, loans, 1)

	// the audit store is bypassed while the cache entry is fresh
	f.audit.inserted = nil
	loans, err = f.service.History(ctx, testNID)
	require.NoError(t, err)
	assert.Len(t, loans, 1)
}

func TestOnboardBorrower_TracksTransaction(t *testing.T) {
	f := newFixture(t)

	txHash, err := f.service.OnboardBorrower(context.Background(), models.AddBorrowerRequest{
		NID:  testNID,
		Name: "Amina Rahman", Profession: "Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, testHash, txHash)
	assert.Equal(t, []string{testHash}, f.tracker.tracked)
}
