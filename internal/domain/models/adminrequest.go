// internal/domain/models/adminrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminRequest status values. Resolution is terminal; a user who was
// rejected and asks again gets a fresh record.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// AdminRequest is the audit record for one elevation request. The user
// record's status field is the authority for whether a request is
// unresolved; this record exists so the approval surface can display
// requester details and so resolutions leave a trail.
//
// UserID is the canonical foreign key. Earlier write paths used
// requester_id and user_id interchangeably; EnsureSchema migrates legacy
// keys so lookups and the cascading delete use user_id alone.
type AdminRequest struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID  `bson:"user_id" json:"user_id"`
	RequesterName  string              `bson:"requester_name" json:"requester_name"`
	RequesterEmail string              `bson:"requester_email" json:"requester_email"`
	Status         string              `bson:"status" json:"status"`
	RequestedAt    time.Time           `bson:"requested_at" json:"requested_at"`
	ResolvedBy     *primitive.ObjectID `bson:"resolved_by,omitempty" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time          `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	Reason         string              `bson:"reason,omitempty" json:"reason,omitempty"`
}
