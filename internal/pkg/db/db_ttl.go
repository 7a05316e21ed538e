package db

import (
	"context"
	"time"

	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateDbTtlIfNotExists sets up the TTL index on the in-progress guard
// collection so abandoned guard documents expire on their own. An existing
// index with a different expiry is replaced.
func (mdb *MongoDB) CreateDbTtlIfNotExists(ctx context.Context) {
	if mdb == nil || mdb.Database == nil {
		logger.CtxInfo(ctx, "Skipping TTL index setup: MongoDB is not connected")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	collection := mdb.Database.Collection(consts.TransactionsInProgressCollection)

	indexField := "createdAt"
	ttlDuration := int32(consts.LoanRequestTTLHours * 3600)

	indexesCursor, err := collection.Indexes().List(ctx)
	if err != nil {
		logger.CtxError(ctx, "Failed to list indexes", err)
		return
	}

	indexExists := false
	for indexesCursor.Next(ctx) {
		var index bson.M
		if err := indexesCursor.Decode(&index); err != nil {
			logger.CtxError(ctx, "Error decoding index information", err)
			continue
		}

		expiryValue, hasExpireOption := index["expireAfterSeconds"]
		if !hasExpireOption {
			continue
		}

		if expiry, ok := expiryValue.(int32); ok && expiry == ttlDuration {
			indexExists = true
			logger.CtxInfo(ctx, "TTL index already exists")
			break
		}

		if name, ok := index["name"].(string); ok {
			if _, err := collection.Indexes().DropOne(ctx, name); err != nil {
				logger.CtxError(ctx, "Could not drop stale TTL index", err)
			} else {
				logger.CtxInfo(ctx, "Stale TTL index deleted")
			}
		}
		break
	}

	if !indexExists {
		indexModel := mongo.IndexModel{
			Keys:    bson.D{{Key: indexField, Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(ttlDuration),
		}
		if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
			logger.CtxError(ctx, "Failed to create TTL index", err)
		} else {
			logger.CtxInfo(ctx, "TTL index created successfully")
		}
	}
}
