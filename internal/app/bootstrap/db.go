// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/docuchat/docuchat/internal/app/store/oauthstate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// EnsureSchema creates indexes and runs lightweight migrations.
//
// Index creation in MongoDB is idempotent, so this runs unconditionally on
// every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_users_email"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_users_status_created"),
			},
			{
				Keys:    bson.D{{Key: "name_ci", Value: 1}},
				Options: options.Index().SetName("idx_users_name_ci"),
			},
		},
		"admin_requests": {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_requests_user_status"),
			},
		},
		"notifications": {
			{
				Keys:    bson.D{{Key: "target_role", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_notifications_role_created"),
			},
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}},
				Options: options.Index().SetName("idx_notifications_user"),
			},
		},
		"threads": {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
				Options: options.Index().SetName("idx_threads_owner_updated"),
			},
		},
		"categories": {
			{
				Keys:    bson.D{{Key: "name_ci", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("idx_categories_name_ci"),
			},
		},
		"documents": {
			{
				Keys:    bson.D{{Key: "category_id", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_documents_category_created"),
			},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}

	if err := oauthstate.New(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("create oauth state indexes: %w", err)
	}

	if err := migrateRequesterID(ctx, db, logger); err != nil {
		return err
	}

	logger.Info("schema ensured")
	return nil
}

// migrateRequesterID backfills user_id on admin request documents written
// before the field was renamed. The old requester_id field is left in place
// so the cascade delete can still match documents either way.
func migrateRequesterID(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	res, err := db.Collection("admin_requests").UpdateMany(ctx,
		bson.M{
			"user_id":      bson.M{"$exists": false},
			"requester_id": bson.M{"$exists": true},
		},
		[]bson.M{{"$set": bson.M{"user_id": "$requester_id"}}},
	)
	if err != nil {
		return fmt.Errorf("backfill user_id on admin_requests: %w", err)
	}
	if res.ModifiedCount > 0 {
		logger.Info("backfilled user_id on legacy admin requests",
			zap.Int64("count", res.ModifiedCount))
	}
	return nil
}
