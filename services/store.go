package services

import (
	"context"
	"time"

	"deck-analysis-service/internal/apperr"
	"deck-analysis-service/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResultStore is the durable, append-only home of analysis records. The
// pipeline only inserts; listing exists for the export surface.
type ResultStore interface {
	Insert(ctx context.Context, analysis *models.Analysis) error
}

// MongoResultStore persists analyses to the analyses collection.
type MongoResultStore struct {
	collection *mongo.Collection
}

func NewMongoResultStore(client *mongo.Client, dbName string) *MongoResultStore {
	return &MongoResultStore{
		collection: client.Database(dbName).Collection("analyses"),
	}
}

// Insert appends one analysis record. Failures are surfaced as persistence
// errors and never retried here; retry policy belongs to the caller.
func (s *MongoResultStore) Insert(ctx context.Context, analysis *models.Analysis) error {
	if _, err := s.collection.InsertOne(ctx, analysis); err != nil {
		return apperr.Persistence(err, "failed to store analysis")
	}
	return nil
}

// ListRecent returns up to limit analyses, newest first.
func (s *MongoResultStore) ListRecent(ctx context.Context, limit int64) ([]models.Analysis, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to list analyses")
	}
	defer cursor.Close(ctx)

	var analyses []models.Analysis
	if err := cursor.All(ctx, &analyses); err != nil {
		return nil, apperr.Persistence(err, "failed to decode analyses")
	}
	return analyses, nil
}

// PurgeOlderThan deletes analyses created before the cutoff. Used by the
// worker's retention sweep.
func (s *MongoResultStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, apperr.Persistence(err, "retention sweep failed")
	}
	return res.DeletedCount, nil
}
