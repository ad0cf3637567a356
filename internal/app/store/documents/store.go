// Package documents persists metadata for files ingested into the retrieval
// backend. The file content itself lives in the backend's index, not here.
package documents

import (
	"context"
	"time"

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
	return &Store{c: db.Collection("documents")}
}

// Create records an ingested document.
func (s *Store) Create(ctx context.Context, doc models.Document) (models.Document, error) {
	doc.ID = primitive.NewObjectID()
	doc.Name = normalize.Name(doc.Name)
	doc.NameCI = text.Fold(doc.Name)
	doc.CreatedAt = time.Now()
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// GetByID loads one document record.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents, optionally filtered to one category, newest first.
func (s *Store) List(ctx context.Context, categoryID *primitive.ObjectID) ([]models.Document, error) {
	filter := bson.M{}
	if categoryID != nil {
		filter["category_id"] = *categoryID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []models.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// CountByCategory reports how many documents are filed under a category.
func (s *Store) CountByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"category_id": categoryID})
}

// Delete removes a document record.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
