// Package lifecycle owns the privileged transitions on user accounts:
// approving or rejecting admin elevation requests, blocking and unblocking,
// and cascading deletion. Every write path re-reads the target first, so two
// admins racing on the same request resolve to exactly one winner and one
// "already processed" outcome rather than a double apply.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/docuchat/docuchat/internal/app/store/adminrequests"
	"github.com/docuchat/docuchat/internal/app/store/notifications"
	userstore "github.com/docuchat/docuchat/internal/app/store/users"
	"github.com/docuchat/docuchat/internal/app/system/authz"
	"github.com/docuchat/docuchat/internal/app/system/signals"
	"github.com/docuchat/docuchat/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when the target user no longer exists.
	ErrNotFound = errors.New("user no longer exists")
	// ErrAlreadyResolved is returned when the target is not in a state the
	// operation can act on, typically because another admin got there first.
	ErrAlreadyResolved = errors.New("request already processed")
)

// Manager performs account lifecycle transitions.
type Manager struct {
	db       *mongo.Database
	users    *userstore.Store
	requests *adminrequests.Store
	notes    *notifications.Store
	hub      *signals.Hub
	log      *zap.Logger
}

func NewManager(db *mongo.Database, hub *signals.Hub, log *zap.Logger) *Manager {
	return &Manager{
		db:       db,
		users:    userstore.New(db),
		requests: adminrequests.New(db),
		notes:    notifications.New(db),
		hub:      hub,
		log:      log,
	}
}

// actor loads the acting user and checks they may administer the target.
// Reading the actor from the database here, rather than trusting the
// session, means a just-demoted admin cannot finish an in-flight action.
func (m *Manager) actor(ctx context.Context, actorID, targetID primitive.ObjectID) (*models.User, error) {
	a, err := m.users.GetByID(ctx, actorID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, authz.ErrNotAdmin
		}
		return nil, err
	}
	principal := authz.Principal{ID: a.ID, Role: a.EffectiveRole(), Status: a.EffectiveStatus()}
	if err := authz.CanAdminister(principal, targetID); err != nil {
		return nil, err
	}
	return a, nil
}

// Approve grants a pending elevation request. The target must still be in
// pending_admin when the write lands; otherwise ErrAlreadyResolved.
func (m *Manager) Approve(ctx context.Context, actorID, targetID primitive.ObjectID) error {
	actor, err := m.actor(ctx, actorID, targetID)
	if err != nil {
		return err
	}

	target, err := m.users.GetByID(ctx, targetID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if target.EffectiveStatus() != models.StatusPendingAdmin {
		return ErrAlreadyResolved
	}

	now := time.Now()
	_, err = m.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$set": bson.M{
			"role":        models.RoleAdmin,
			"status":      models.StatusActive,
			"approved_by": actorID,
			"approved_at": now,
			"updated_at":  now,
		}})
	if err != nil {
		return err
	}

	if err := m.requests.MarkResolved(ctx, targetID, actorID, models.RequestApproved, ""); err != nil {
		// The grant already landed; the trail can be reconciled later.
		m.log.Warn("approve: audit record not stamped",
			zap.String("user_id", targetID.Hex()), zap.Error(err))
	}

	m.log.Info("admin request approved",
		zap.String("user_id", targetID.Hex()),
		zap.String("approved_by", actor.ID.Hex()))

	m.hub.Publish(signals.Event{Topic: signals.RoleRefreshed, Subject: targetID.Hex()})
	m.hub.Publish(signals.Event{Topic: signals.PendingListChanged})
	return nil
}

// Reject declines a pending elevation request, leaving the account signed in
// as a regular user with status rejected_admin.
func (m *Manager) Reject(ctx context.Context, actorID, targetID primitive.ObjectID, reason string) error {
	actor, err := m.actor(ctx, actorID, targetID)
	if err != nil {
		return err
	}

	target, err := m.users.GetByID(ctx, targetID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if target.EffectiveStatus() != models.StatusPendingAdmin {
		return ErrAlreadyResolved
	}

	now := time.Now()
	set := bson.M{
		"status":      models.StatusRejectedAdmin,
		"rejected_by": actorID,
		"rejected_at": now,
		"updated_at":  now,
	}
	if reason != "" {
		set["reject_reason"] = reason
	}
	_, err = m.db.Collection("users").UpdateOne(ctx, bson.M{"_id": targetID}, bson.M{"$set": set})
	if err != nil {
		return err
	}

	if err := m.requests.MarkResolved(ctx, targetID, actorID, models.RequestRejected, reason); err != nil {
		m.log.Warn("reject: audit record not stamped",
			zap.String("user_id", targetID.Hex()), zap.Error(err))
	}

	m.log.Info("admin request rejected",
		zap.String("user_id", targetID.Hex()),
		zap.String("rejected_by", actor.ID.Hex()))

	m.hub.Publish(signals.Event{Topic: signals.RoleRefreshed, Subject: targetID.Hex()})
	m.hub.Publish(signals.Event{Topic: signals.PendingListChanged})
	return nil
}

// ToggleStatus flips an account between active and blocked. Pending and
// rejected statuses are resolved exclusively through Approve/Reject, so they
// report ErrAlreadyResolved here. Blocking is enough to revoke an admin's
// access: the role gate requires status active regardless of role.
func (m *Manager) ToggleStatus(ctx context.Context, actorID, targetID primitive.ObjectID) (string, error) {
	if _, err := m.actor(ctx, actorID, targetID); err != nil {
		return "", err
	}

	target, err := m.users.GetByID(ctx, targetID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrNotFound
		}
		return "", err
	}

	var next string
	switch target.EffectiveStatus() {
	case models.StatusActive:
		next = models.StatusBlocked
	case models.StatusBlocked:
		next = models.StatusActive
	default:
		return "", ErrAlreadyResolved
	}

	_, err = m.db.Collection("users").UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$set": bson.M{"status": next, "updated_at": time.Now()}})
	if err != nil {
		return "", err
	}

	m.log.Info("user status toggled",
		zap.String("user_id", targetID.Hex()),
		zap.String("status", next))

	m.hub.Publish(signals.Event{Topic: signals.RoleRefreshed, Subject: targetID.Hex()})
	return next, nil
}
