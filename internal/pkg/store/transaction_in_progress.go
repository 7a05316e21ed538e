package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/db"
	"credit-scoring-service/internal/pkg/logger"
)

// TransactionInProgress guards against duplicate concurrent loan requests
// for the same borrower. The TTL index on createdAt clears abandoned guards.
type TransactionInProgress struct {
	NID       string    `bson:"nid"`
	CreatedAt time.Time `bson:"createdAt"`
}

type TransactionInProgressRepository struct {
	repo *MongoRepository[TransactionInProgress]
}

func NewTransactionInProgressRepository(mdb *db.MongoDB) *TransactionInProgressRepository {
	collection := mdb.Database.Collection(consts.TransactionsInProgressCollection)
	return &TransactionInProgressRepository{repo: NewMongoRepository[TransactionInProgress](collection)}
}

func (r *TransactionInProgressRepository) CreateEntry(ctx context.Context, nid string) error {
	_, err := r.repo.Create(ctx, TransactionInProgress{NID: nid, CreatedAt: time.Now().UTC()})
	if err != nil {
		logger.CtxError(ctx, "TransactionInProgress: error while inserting", err, slog.String("nid", nid))
		return fmt.Errorf("transaction in progress insert: %w", err)
	}
	return nil
}

func (r *TransactionInProgressRepository) DeleteEntry(ctx context.Context, nid string) error {
	if err := r.repo.Delete(ctx, bson.M{"nid": nid}); err != nil {
		logger.CtxError(ctx, "TransactionInProgress: error while deleting", err, slog.String("nid", nid))
		return fmt.Errorf("transaction in progress delete: %w", err)
	}
	return nil
}

func (r *TransactionInProgressRepository) IsInProgress(ctx context.Context, nid string) (bool, error) {
	_, err := r.repo.Read(ctx, bson.M{"nid": nid})
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, nil
		}
		logger.CtxError(ctx, "TransactionInProgress: error while querying", err, slog.String("nid", nid))
		return false, err
	}
	return true, nil
}
