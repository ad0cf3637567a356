// Package threads persists chat conversations and their messages.
package threads

import (
	"context"
	"time"

	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("threads")}
}

// Create starts a new thread for a user. The RagID is the correlation key
// sent to the retrieval backend so it can scope conversation memory.
func (s *Store) Create(ctx context.Context, ownerID primitive.ObjectID, title string) (models.Thread, error) {
	now := time.Now()
	th := models.Thread{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Title:     title,
		RagID:     uuid.NewString(),
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, th); err != nil {
		return models.Thread{}, err
	}
	return th, nil
}

// GetOwned loads a thread only if it belongs to the given user. Returns
// mongo.ErrNoDocuments for both a missing thread and someone else's thread,
// so handlers cannot leak existence.
func (s *Store) GetOwned(ctx context.Context, id, ownerID primitive.ObjectID) (*models.Thread, error) {
	var th models.Thread
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&th); err != nil {
		return nil, err
	}
	return &th, nil
}

// ListByOwner returns a user's threads, most recently active first.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]models.Thread, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetProjection(bson.M{"messages": 0})
	cur, err := s.c.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ths []models.Thread
	if err := cur.All(ctx, &ths); err != nil {
		return nil, err
	}
	return ths, nil
}

// AppendMessages pushes messages onto an owned thread and bumps updated_at.
func (s *Store) AppendMessages(ctx context.Context, id, ownerID primitive.ObjectID, msgs ...models.Message) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{
			"$push": bson.M{"messages": bson.M{"$each": msgs}},
			"$set":  bson.M{"updated_at": time.Now()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Rename changes an owned thread's title.
func (s *Store) Rename(ctx context.Context, id, ownerID primitive.ObjectID, title string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$set": bson.M{"title": title, "updated_at": time.Now()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes an owned thread.
func (s *Store) Delete(ctx context.Context, id, ownerID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
