package store

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/db"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"
)

// LoanApplicationRepository is the audit trail of submitted loan requests and
// their outcomes.
type LoanApplicationRepository struct {
	repo *MongoRepository[models.LoanRecord]
}

func NewLoanApplicationRepository(mdb *db.MongoDB) *LoanApplicationRepository {
	collection := mdb.Database.Collection(consts.LoanApplicationsCollection)
	return &LoanApplicationRepository{repo: NewMongoRepository[models.LoanRecord](collection)}
}

func (r *LoanApplicationRepository) Insert(ctx context.Context, loan models.LoanRecord) error {
	if _, err := r.repo.Create(ctx, loan); err != nil {
		logger.CtxError(ctx, "LoanApplication: error while inserting", err, slog.String("loan_id", loan.ID))
		return fmt.Errorf("loan application insert: %w", err)
	}
	return nil
}

// UpdateOutcome closes out a pending application. The approved amount is
// always written so a failed transaction cannot leave the amount granted at
// submission time on record.
func (r *LoanApplicationRepository) UpdateOutcome(ctx context.Context, loan models.LoanRecord) error {
	if err := r.repo.Update(ctx, bson.M{"_id": loan.ID}, outcomeUpdate(loan)); err != nil {
		logger.CtxError(ctx, "LoanApplication: error while updating outcome", err, slog.String("loan_id", loan.ID))
		return fmt.Errorf("loan application outcome update: %w", err)
	}
	return nil
}

func outcomeUpdate(loan models.LoanRecord) bson.M {
	update := bson.M{
		"status":          loan.Status,
		"approved_amount": loan.ApprovedAmount,
	}
	if loan.FailureReason != "" {
		update["failure_reason"] = loan.FailureReason
	}
	if loan.DisbursementDate != nil {
		update["disbursement_date"] = *loan.DisbursementDate
	}
	return update
}

func (r *LoanApplicationRepository) FindByTxHash(ctx context.Context, txHash string) (models.LoanRecord, error) {
	return r.repo.Read(ctx, bson.M{"tx_hash": txHash})
}

func (r *LoanApplicationRepository) FindByNID(ctx context.Context, nid string) ([]models.LoanRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "application_date", Value: -1}})
	loans, err := r.repo.FindAll(ctx, bson.M{"nid": nid}, opts)
	if err != nil {
		logger.CtxError(ctx, "LoanApplication: error while listing", err, slog.String("nid", nid))
		return nil, fmt.Errorf("loan application list: %w", err)
	}
	return loans, nil
}
