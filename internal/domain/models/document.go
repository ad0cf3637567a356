// internal/domain/models/document.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the metadata record for a file ingested into the retrieval
// backend. The file content itself lives with the backend; this record is
// what the dashboards list and what chat uses to scope questions.
type Document struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	NameCI      string              `bson:"name_ci" json:"name_ci"`
	CategoryID  *primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`
	UploadedBy  primitive.ObjectID  `bson:"uploaded_by" json:"uploaded_by"`
	Size        int64               `bson:"size" json:"size"`
	ContentType string              `bson:"content_type,omitempty" json:"content_type,omitempty"`
	ChunksAdded int                 `bson:"chunks_added" json:"chunks_added"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
}
