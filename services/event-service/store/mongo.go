package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"civic-complaint-system/services/event-service/ledger"
	"civic-complaint-system/services/event-service/models"
)

const collectionName = "volunteer_events"

// Mongo implements ledger.Store. Membership changes use $addToSet and $pull
// so concurrent join/leave by different actors converges without engine-side
// locking.
type Mongo struct {
	col *mongo.Collection
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{col: db.Collection(collectionName)}
}

func (s *Mongo) Create(ctx context.Context, e *models.VolunteerEvent) error {
	if _, err := s.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *Mongo) Get(ctx context.Context, id string) (*models.VolunteerEvent, error) {
	var e models.VolunteerEvent
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return &e, nil
}

func (s *Mongo) List(ctx context.Context) ([]models.VolunteerEvent, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := s.col.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.VolunteerEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

func (s *Mongo) AddParticipant(ctx context.Context, eventID, actorID string) error {
	result, err := s.col.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{"$addToSet": bson.M{"participants": actorID}},
	)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	if result.MatchedCount == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (s *Mongo) RemoveParticipant(ctx context.Context, eventID, actorID string) error {
	result, err := s.col.UpdateOne(ctx,
		bson.M{"_id": eventID},
		bson.M{"$pull": bson.M{"participants": actorID}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}
	if result.MatchedCount == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
