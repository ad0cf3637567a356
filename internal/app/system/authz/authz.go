// Package authz holds the single authorization predicate consumed by every
// mutating entry point. Handlers never re-derive "who can act" rules; they
// build a Principal from the session user and ask this package.
package authz

import (
	"errors"

	"github.com/docuchat/docuchat/internal/app/system/normalize"
	"github.com/docuchat/docuchat/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotAdmin is returned when the acting principal is not an active
	// admin. Enforced at the write boundary regardless of what the UI
	// offered.
	ErrNotAdmin = errors.New("acting principal is not an active admin")

	// ErrSelfAction is returned when an admin targets their own record
	// through an administrative operation (approve, reject, block,
	// delete). Self-service paths (profile editing) do not go through
	// CanAdminister.
	ErrSelfAction = errors.New("administrators cannot act on their own account")
)

// Principal identifies an acting user for authorization decisions.
type Principal struct {
	ID     primitive.ObjectID
	Role   string
	Status string
}

// Allowed is the role-gate predicate: a principal may enter a surface
// requiring the given role only when their role matches AND their status is
// active. Missing fields read through the documented defaults (role=user,
// status=active), so a record that predates the status field still gates
// correctly, and a blocked or demoted admin is denied without touching
// their role.
func Allowed(role, status, required string) bool {
	r := normalize.Role(role)
	if r == "" {
		r = models.RoleUser
	}
	s := normalize.Status(status)
	if s == "" {
		s = models.StatusActive
	}
	return r == normalize.Role(required) && s == models.StatusActive
}

// CanAdminister decides whether actor may perform an administrative write
// against the target user record. It returns nil to allow, ErrNotAdmin when
// the actor lacks an active admin role, and ErrSelfAction when the target
// is the actor's own record.
func CanAdminister(actor Principal, target primitive.ObjectID) error {
	if !Allowed(actor.Role, actor.Status, models.RoleAdmin) {
		return ErrNotAdmin
	}
	if actor.ID == target {
		return ErrSelfAction
	}
	return nil
}
