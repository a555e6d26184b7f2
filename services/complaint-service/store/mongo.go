package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"civic-complaint-system/services/complaint-service/engine"
	"civic-complaint-system/services/complaint-service/models"
)

const collectionName = "complaints"

// Mongo implements engine.Store on a MongoDB collection. Every mutation is a
// targeted $set patch so concurrent writers cannot clobber sibling fields.
type Mongo struct {
	col *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{col: db.Collection(collectionName)}
}

func (s *Mongo) Create(ctx context.Context, c *models.Complaint) error {
	if _, err := s.col.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to insert complaint: %w", err)
	}
	return nil
}

func (s *Mongo) Get(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, engine.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch complaint: %w", err)
	}
	return &c, nil
}

func (s *Mongo) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	update := bson.M{}
	for k, v := range fields {
		update[k] = v
	}

	result, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("failed to patch complaint: %w", err)
	}
	if result.MatchedCount == 0 {
		return engine.ErrNotFound
	}
	return nil
}

// List returns complaints matching the filter in collection order. The
// duplicate gate relies on that order being whatever the store yields; no
// sort is imposed here.
func (s *Mongo) List(ctx context.Context, f engine.Filter) ([]models.Complaint, error) {
	filter := bson.M{}
	if f.ReporterID != "" {
		filter["reporter_id"] = f.ReporterID
	}
	if f.AssignedWorkerID != "" {
		filter["assigned_worker_id"] = f.AssignedWorkerID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.OpenOnly {
		filter["status"] = bson.M{"$ne": models.StatusDone}
	}

	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer cursor.Close(ctx)

	var complaints []models.Complaint
	if err := cursor.All(ctx, &complaints); err != nil {
		return nil, fmt.Errorf("failed to decode complaints: %w", err)
	}
	return complaints, nil
}
