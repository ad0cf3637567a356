// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types.
const (
	NotifyUserDeleted = "USER_DELETED"
)

// Notification is an informational record fanned out to a role, not an
// individual; every admin sees admin-targeted notifications. Created as a
// side effect of destructive actions and never mutated afterwards.
//
// UserID references the subject of the notification (canonical key, same
// migration story as AdminRequest.UserID) so the cascading delete can sweep
// notifications about a removed user.
type Notification struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type       string              `bson:"type" json:"type"`
	Message    string              `bson:"message" json:"message"`
	TargetRole string              `bson:"target_role" json:"target_role"`
	UserID     *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ActorID    *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}
