package userstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/docuchat/docuchat/internal/app/system/normalize"
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
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "user"|"admin"`)
	errBadStatus      = errors.New(`status must be "active"|"pending_admin"|"rejected_admin"|"blocked"`)
	errBadEmail       = errors.New("email must not be empty")
)

// Create inserts a new user after normalizing and validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.NameCI = text.Fold(u.Name)
	u.Email = normalize.Email(u.Email)
	u.Role = normalize.Role(u.Role)
	u.Status = normalize.Status(u.Status)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}

	switch u.Role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return models.User{}, errBadRole
	}
	switch u.Status {
	case models.StatusActive, models.StatusPendingAdmin, models.StatusRejectedAdmin, models.StatusBlocked:
	default:
		return models.User{}, errBadStatus
	}

	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// UpsertGoogle finds a user by email or creates one signed up through Google.
// A newly created Google user gets role "user" and status "active".
func (s *Store) UpsertGoogle(ctx context.Context, name, email string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}
	created, err := s.Create(ctx, models.User{
		Name:       name,
		Email:      email,
		AuthMethod: models.AuthGoogle,
	})
	if err != nil {
		if err == ErrDuplicateEmail {
			// Lost a race with a concurrent first login; load the winner.
			return s.GetByEmail(ctx, email)
		}
		return nil, err
	}
	return &created, nil
}

// UpdateName sets a user's display name.
func (s *Store) UpdateName(ctx context.Context, id primitive.ObjectID, name string) error {
	name = normalize.Name(name)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"updated_at": time.Now(),
	}})
	return err
}

// UpdateNameRole sets a user's display name and role. Used by the user
// management edit form.
func (s *Store) UpdateNameRole(ctx context.Context, id primitive.ObjectID, name, role string) error {
	role = normalize.Role(role)
	switch role {
	case models.RoleUser, models.RoleAdmin:
	default:
		return errBadRole
	}
	name = normalize.Name(name)
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":       name,
		"name_ci":    text.Fold(name),
		"role":       role,
		"updated_at": time.Now(),
	}})
	return err
}

// UpdateEmail sets a user's email address. The caller checks for conflicts
// first via EmailExistsForOther; the unique index still backstops a race,
// surfaced as ErrDuplicateEmail.
func (s *Store) UpdateEmail(ctx context.Context, id primitive.ObjectID, email string) error {
	email = normalize.Email(email)
	if email == "" {
		return errBadEmail
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"email":      email,
		"updated_at": time.Now(),
	}})
	if wafflemongo.IsDup(err) {
		return ErrDuplicateEmail
	}
	return err
}

// SetPasswordHash replaces a user's password hash.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now(),
	}})
	return err
}

// RecordLogin stamps last_login_at for a successful sign-in.
func (s *Store) RecordLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_login_at": time.Now(),
	}})
	return err
}

// ListPendingAdmins returns users awaiting admin approval, newest first.
// The users collection is the authority for the approvals queue; the
// admin_requests collection is the audit trail.
func (s *Store) ListPendingAdmins(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"status": models.StatusPendingAdmin}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CountPendingAdmins returns how many users are awaiting approval.
func (s *Store) CountPendingAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"status": models.StatusPendingAdmin})
}

// ListQuery filters and pages the user management table.
type ListQuery struct {
	Search string // matches name or email, case-insensitive
	Role   string
	Status string
	Sort   string // "name", "email", "created" (default), "last_login"
	Page   int    // 1-based
	PerPage int
}

func (q ListQuery) filter() bson.M {
	query := bson.M{}
	if q.Search != "" {
		pattern := regexp.QuoteMeta(text.Fold(q.Search))
		query["$or"] = bson.A{
			bson.M{"name_ci": bson.M{"$regex": pattern}},
			bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	if q.Role != "" {
		query["role"] = normalize.Role(q.Role)
	}
	if q.Status != "" {
		query["status"] = normalize.Status(q.Status)
	}
	return query
}

func (q ListQuery) sort() bson.D {
	switch q.Sort {
	case "name":
		return bson.D{{Key: "name_ci", Value: 1}}
	case "email":
		return bson.D{{Key: "email", Value: 1}}
	case "last_login":
		return bson.D{{Key: "last_login_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}}
	}
}

// List returns one page of users matching the query plus the total match count.
func (s *Store) List(ctx context.Context, q ListQuery) ([]models.User, int64, error) {
	filter := q.filter()

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = 15
	}
	page := q.Page
	if page < 1 {
		page = 1
	}

	opts := options.Find().
		SetSort(q.sort()).
		SetLimit(int64(perPage)).
		SetSkip(int64(page-1) * int64(perPage))

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email": normalize.Email(email),
		"_id":   bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
