// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role values. There are exactly two; elevation from user to admin goes
// through the approval workflow, never through a direct write.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Status values for a user record.
//
//   - active:         normal account
//   - pending_admin:  signed up requesting admin; waiting on approval
//   - rejected_admin: elevation request rejected; terminal until re-request
//   - blocked:        access revoked by an admin; role is left untouched
const (
	StatusActive        = "active"
	StatusPendingAdmin  = "pending_admin"
	StatusRejectedAdmin = "rejected_admin"
	StatusBlocked       = "blocked"
)

// AuthMethod values.
const (
	AuthPassword = "password"
	AuthGoogle   = "google"
)

// User is the single record per principal. The lifecycle manager owns the
// role/status fields; the owning principal may edit name/email.
//
// Invariant: Role == admin implies Status == active. A demoted or blocked
// admin must not retain elevated access, which the role gate enforces by
// checking status alongside role.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	NameCI       string             `bson:"name_ci" json:"name_ci"` // lowercase, diacritics-stripped
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string             `bson:"auth_method,omitempty" json:"auth_method,omitempty"`
	Role         string             `bson:"role,omitempty" json:"role"`
	Status       string             `bson:"status,omitempty" json:"status"`

	// Audit stamps for elevation resolution. Set exactly once per
	// resolution; a second concurrent resolution observes the changed
	// status and becomes a no-op.
	ApprovedBy   *primitive.ObjectID `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time          `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	RejectedBy   *primitive.ObjectID `bson:"rejected_by,omitempty" json:"rejected_by,omitempty"`
	RejectedAt   *time.Time          `bson:"rejected_at,omitempty" json:"rejected_at,omitempty"`
	RejectReason string              `bson:"reject_reason,omitempty" json:"reject_reason,omitempty"`

	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	LastLoginAt *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

// EffectiveRole applies the single documented defaulting rule: a record
// missing its role field reads as a regular user.
func (u *User) EffectiveRole() string {
	if u.Role == "" {
		return RoleUser
	}
	return u.Role
}

// EffectiveStatus applies the single documented defaulting rule: a record
// missing its status field reads as active.
func (u *User) EffectiveStatus() string {
	if u.Status == "" {
		return StatusActive
	}
	return u.Status
}

// Label returns the human-readable identifier used in notification
// messages: email, else name, else the raw id.
func (u *User) Label() string {
	if u.Email != "" {
		return u.Email
	}
	if u.Name != "" {
		return u.Name
	}
	return u.ID.Hex()
}
