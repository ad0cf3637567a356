// Package adminrequests persists the audit trail of admin elevation
// requests. The users collection is the authority for which requests are
// still pending; records here are kept for history even after resolution.
package adminrequests

import (
	"context"
	"time"

	"github.com/docuchat/docuchat/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admin_requests")}
}

// Create records a new pending elevation request for a user.
func (s *Store) Create(ctx context.Context, user models.User) (models.AdminRequest, error) {
	req := models.AdminRequest{
		ID:             primitive.NewObjectID(),
		UserID:         user.ID,
		RequesterName:  user.Name,
		RequesterEmail: user.Email,
		Status:         models.RequestPending,
		RequestedAt:    time.Now(),
	}
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return models.AdminRequest{}, err
	}
	return req, nil
}

// MarkResolved stamps all pending requests for a user with the outcome.
// Resolving by user rather than by request ID keeps the trail consistent if
// duplicate pending records ever exist for one user.
func (s *Store) MarkResolved(ctx context.Context, userID, resolvedBy primitive.ObjectID, status, reason string) error {
	now := time.Now()
	set := bson.M{
		"status":      status,
		"resolved_by": resolvedBy,
		"resolved_at": now,
	}
	if reason != "" {
		set["reason"] = reason
	}
	_, err := s.c.UpdateMany(ctx,
		bson.M{"user_id": userID, "status": models.RequestPending},
		bson.M{"$set": set})
	return err
}

// ListByUser returns a user's requests, newest first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.AdminRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requested_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reqs []models.AdminRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ListRecent returns the most recent requests across all users, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]models.AdminRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "requested_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reqs []models.AdminRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// HasPending reports whether a user already has an open request.
func (s *Store) HasPending(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "status": models.RequestPending}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
