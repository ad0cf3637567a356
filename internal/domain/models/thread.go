// internal/domain/models/thread.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message roles within a thread transcript.
const (
	MessageUser      = "user"
	MessageAssistant = "assistant"
)

// Message is one entry in a thread transcript. Assistant messages may carry
// the sources the retrieval backend answered from. Backend errors are
// recorded verbatim as assistant messages, so the transcript is the full
// record of the conversation including failures.
type Message struct {
	Role    string   `bson:"role" json:"role"`
	Text    string   `bson:"text" json:"text"`
	Sources []Source `bson:"sources,omitempty" json:"sources,omitempty"`
	Ts      int64    `bson:"ts" json:"ts"` // unix millis
}

// Source is one citation returned by the retrieval backend.
type Source struct {
	Source  string `bson:"source" json:"source"`
	Page    int    `bson:"page,omitempty" json:"page,omitempty"`
	Snippet string `bson:"snippet,omitempty" json:"snippet,omitempty"`
}

// Thread is one chat conversation owned by a single user. RagID is the
// opaque conversation id handed to the retrieval backend; it is a UUID
// string, deliberately distinct from the store's ObjectID.
type Thread struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title     string             `bson:"title" json:"title"`
	RagID     string             `bson:"rag_id" json:"rag_id"`
	Messages  []Message          `bson:"messages" json:"messages"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
