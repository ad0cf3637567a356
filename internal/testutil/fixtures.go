package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/docuchat/docuchat/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user with the given role and status.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role, status string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		Name:       name,
		NameCI:     text.Fold(name),
		Email:      email,
		AuthMethod: models.AuthPassword,
		Role:       role,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateAdminRequest inserts a pending elevation request for the user.
func (f *Fixtures) CreateAdminRequest(ctx context.Context, user models.User) models.AdminRequest {
	f.t.Helper()

	req := models.AdminRequest{
		ID:             primitive.NewObjectID(),
		UserID:         user.ID,
		RequesterName:  user.Name,
		RequesterEmail: user.Email,
		Status:         models.RequestPending,
		RequestedAt:    time.Now().UTC(),
	}

	if _, err := f.db.Collection("admin_requests").InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test admin request: %v", err)
	}
	return req
}

// CreateNotification inserts a notification, filling in ID and timestamp.
func (f *Fixtures) CreateNotification(ctx context.Context, n models.Notification) models.Notification {
	f.t.Helper()

	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()

	if _, err := f.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		f.t.Fatalf("failed to create test notification: %v", err)
	}
	return n
}

// CreateThread inserts an empty chat thread owned by the given user.
func (f *Fixtures) CreateThread(ctx context.Context, ownerID primitive.ObjectID, title string) models.Thread {
	f.t.Helper()

	now := time.Now().UTC()
	th := models.Thread{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Title:     title,
		RagID:     uuid.NewString(),
		Messages:  []models.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("threads").InsertOne(ctx, th); err != nil {
		f.t.Fatalf("failed to create test thread: %v", err)
	}
	return th
}

// CreateCategory inserts a document category.
func (f *Fixtures) CreateCategory(ctx context.Context, name string, createdBy primitive.ObjectID) models.Category {
	f.t.Helper()

	now := time.Now().UTC()
	cat := models.Category{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("categories").InsertOne(ctx, cat); err != nil {
		f.t.Fatalf("failed to create test category: %v", err)
	}
	return cat
}
