package lifecycle

import (
	"context"
	"fmt"

	"github.com/docuchat/docuchat/internal/app/system/signals"
	"github.com/docuchat/docuchat/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// maxBatchOps bounds one bulk delete. Batches commit sequentially and the
// overall cascade is not atomic across them, so the order below deletes the
// user document last: a crash mid-cascade leaves dangling references pointing
// at a real, if stale, user rather than at nothing.
const maxBatchOps = 500

// ref is one document slated for deletion, keyed so the set can be deduped.
type ref struct {
	collection string
	id         primitive.ObjectID
}

// DeleteUser removes an account and every document that references it, then
// leaves a single USER_DELETED notification for admins. An absent target is
// a no-op success, which also makes a retried cascade idempotent: the re-run
// finds fewer or no references and completes without a second notification.
func (m *Manager) DeleteUser(ctx context.Context, actorID, targetID primitive.ObjectID) error {
	actor, err := m.actor(ctx, actorID, targetID)
	if err != nil {
		return err
	}

	target, err := m.users.GetByID(ctx, targetID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil
		}
		return err
	}
	targetLabel := target.Label()
	actorLabel := actor.Label()

	refs, err := m.collectRefs(ctx, targetID)
	if err != nil {
		return fmt.Errorf("enumerate references: %w", err)
	}

	// Group per collection, preserving order with the user doc last.
	byCollection := map[string][]primitive.ObjectID{}
	for _, r := range refs {
		byCollection[r.collection] = append(byCollection[r.collection], r.id)
	}
	for _, coll := range []string{"admin_requests", "notifications", "threads", "users"} {
		if err := m.deleteInBatches(ctx, coll, byCollection[coll]); err != nil {
			return fmt.Errorf("delete %s references: %w", coll, err)
		}
	}

	_, err = m.notes.Create(ctx, models.Notification{
		Type:       models.NotifyUserDeleted,
		Message:    fmt.Sprintf("User %s was deleted by %s", targetLabel, actorLabel),
		TargetRole: models.RoleAdmin,
		UserID:     &targetID,
		ActorID:    &actorID,
	})
	if err != nil {
		return fmt.Errorf("record deletion notification: %w", err)
	}

	m.log.Info("user deleted",
		zap.String("user_id", targetID.Hex()),
		zap.String("deleted_by", actorID.Hex()),
		zap.Int("references", len(refs)))

	m.hub.Publish(signals.Event{Topic: signals.PendingListChanged})
	return nil
}

// collectRefs enumerates every document referencing the target and dedupes
// the set so no document lands in two batches. Elevation requests are probed
// by both the canonical user_id and the legacy requester_id key; the two are
// not guaranteed consistent across historic write paths.
func (m *Manager) collectRefs(ctx context.Context, targetID primitive.ObjectID) ([]ref, error) {
	seen := map[ref]struct{}{}
	var out []ref
	add := func(collection string, id primitive.ObjectID) {
		r := ref{collection: collection, id: id}
		if _, dup := seen[r]; dup {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}

	reqIDs, err := m.findIDs(ctx, "admin_requests", bson.M{"$or": bson.A{
		bson.M{"user_id": targetID},
		bson.M{"requester_id": targetID},
	}})
	if err != nil {
		return nil, err
	}
	for _, id := range reqIDs {
		add("admin_requests", id)
	}

	noteIDs, err := m.findIDs(ctx, "notifications", bson.M{"$or": bson.A{
		bson.M{"user_id": targetID},
		bson.M{"actor_id": targetID},
	}})
	if err != nil {
		return nil, err
	}
	for _, id := range noteIDs {
		add("notifications", id)
	}

	threadIDs, err := m.findIDs(ctx, "threads", bson.M{"owner_id": targetID})
	if err != nil {
		return nil, err
	}
	for _, id := range threadIDs {
		add("threads", id)
	}

	add("users", targetID)
	return out, nil
}

func (m *Manager) findIDs(ctx context.Context, collection string, filter bson.M) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := m.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// deleteInBatches removes the given documents in ordered bulk writes of at
// most maxBatchOps each. Any batch failure aborts the remaining batches and
// propagates; no rollback is attempted.
func (m *Manager) deleteInBatches(ctx context.Context, collection string, ids []primitive.ObjectID) error {
	coll := m.db.Collection(collection)
	for start := 0; start < len(ids); start += maxBatchOps {
		end := start + maxBatchOps
		if end > len(ids) {
			end = len(ids)
		}
		writes := make([]mongo.WriteModel, 0, end-start)
		for _, id := range ids[start:end] {
			writes = append(writes, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": id}))
		}
		opts := options.BulkWrite().SetOrdered(true)
		if _, err := coll.BulkWrite(ctx, writes, opts); err != nil {
			return err
		}
	}
	return nil
}
