// internal/app/bootstrap/db_test.go
package bootstrap

import (
	"testing"
	"time"

	"github.com/docuchat/docuchat/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestMigrateRequesterID_BackfillsUserID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	legacyUser := primitive.NewObjectID()
	modernUser := primitive.NewObjectID()

	// A legacy doc has only requester_id; a modern one already has user_id.
	_, err := db.Collection("admin_requests").InsertMany(ctx, []interface{}{
		bson.M{
			"_id":          primitive.NewObjectID(),
			"requester_id": legacyUser,
			"status":       "pending",
			"requested_at": time.Now().UTC(),
		},
		bson.M{
			"_id":          primitive.NewObjectID(),
			"user_id":      modernUser,
			"status":       "pending",
			"requested_at": time.Now().UTC(),
		},
	})
	if err != nil {
		t.Fatalf("failed to insert fixtures: %v", err)
	}

	if err := migrateRequesterID(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("migrateRequesterID failed: %v", err)
	}

	var legacy bson.M
	err = db.Collection("admin_requests").
		FindOne(ctx, bson.M{"requester_id": legacyUser}).Decode(&legacy)
	if err != nil {
		t.Fatalf("failed to find legacy doc: %v", err)
	}
	if legacy["user_id"] != legacyUser {
		t.Errorf("user_id = %v, want %v", legacy["user_id"], legacyUser)
	}
	// The old field stays so either-field lookups keep working.
	if legacy["requester_id"] != legacyUser {
		t.Errorf("requester_id = %v, want %v", legacy["requester_id"], legacyUser)
	}

	// Running the migration again is a no-op.
	if err := migrateRequesterID(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second migrateRequesterID failed: %v", err)
	}

	n, err := db.Collection("admin_requests").CountDocuments(ctx, bson.M{"user_id": modernUser})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("modern doc count = %d, want 1", n)
	}
}
