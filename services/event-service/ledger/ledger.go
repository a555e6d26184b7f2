package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"civic-complaint-system/pkg/geo"
	"civic-complaint-system/services/event-service/models"
)

// locationTimeout bounds how long event creation waits for a venue fix.
const locationTimeout = 10 * time.Second

var (
	// ErrNotFound is returned for unknown event ids.
	ErrNotFound = errors.New("event not found")

	// ErrMissingField marks a user-recoverable validation failure.
	ErrMissingField = errors.New("missing or invalid required field")

	// ErrLocationUnavailable aborts event creation when no fix is obtained.
	ErrLocationUnavailable = errors.New("current location unavailable")
)

// Position is a geolocation fix for the event venue.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
}

// Locator is the geolocation provider collaborator.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (Position, error) {
	return f(ctx)
}

// Store is the persistence contract for volunteer events. AddParticipant and
// RemoveParticipant must be atomic set operations at the storage layer so
// concurrent join/leave converges to correct membership; a blind overwrite of
// a cached participant list is not acceptable here.
type Store interface {
	Create(ctx context.Context, e *models.VolunteerEvent) error
	Get(ctx context.Context, id string) (*models.VolunteerEvent, error)
	List(ctx context.Context) ([]models.VolunteerEvent, error)
	AddParticipant(ctx context.Context, eventID, actorID string) error
	RemoveParticipant(ctx context.Context, eventID, actorID string) error
}

// Ledger owns volunteer event creation and the idempotent join/leave
// membership operations.
type Ledger struct {
	store Store

	now   func() time.Time
	newID func() string
}

func New(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// CreateInput carries the admin's event form.
type CreateInput struct {
	Title       string
	Description string
	Date        time.Time
}

// CreateEvent hosts a new clean-up drive at the admin's current location.
// Title and date are required; a failed fix aborts with nothing persisted.
func (l *Ledger) CreateEvent(ctx context.Context, locator Locator, in CreateInput) (*models.VolunteerEvent, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("%w: date", ErrMissingField)
	}

	locCtx, cancel := context.WithTimeout(ctx, locationTimeout)
	defer cancel()
	pos, err := locator.CurrentPosition(locCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	point := geo.Point{Latitude: pos.Latitude, Longitude: pos.Longitude}
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingField, err)
	}

	event := &models.VolunteerEvent{
		ID:           l.newID(),
		Title:        in.Title,
		Description:  in.Description,
		Date:         in.Date,
		Latitude:     point.Latitude,
		Longitude:    point.Longitude,
		Participants: []string{},
		CreatedAt:    l.now(),
	}

	if err := l.store.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist event: %w", err)
	}
	return event, nil
}

// Join adds the actor to the participant set. Joining twice is a no-op.
func (l *Ledger) Join(ctx context.Context, eventID, actorID string) (*models.VolunteerEvent, error) {
	if _, err := l.store.Get(ctx, eventID); err != nil {
		return nil, err
	}
	if err := l.store.AddParticipant(ctx, eventID, actorID); err != nil {
		return nil, fmt.Errorf("failed to join event: %w", err)
	}
	return l.store.Get(ctx, eventID)
}

// Leave removes the actor from the participant set. Leaving an event the
// actor never joined is a no-op.
func (l *Ledger) Leave(ctx context.Context, eventID, actorID string) (*models.VolunteerEvent, error) {
	if _, err := l.store.Get(ctx, eventID); err != nil {
		return nil, err
	}
	if err := l.store.RemoveParticipant(ctx, eventID, actorID); err != nil {
		return nil, fmt.Errorf("failed to leave event: %w", err)
	}
	return l.store.Get(ctx, eventID)
}

// List returns all events ordered by scheduled date ascending.
func (l *Ledger) List(ctx context.Context) ([]models.VolunteerEvent, error) {
	return l.store.List(ctx)
}

// Get returns one event by id.
func (l *Ledger) Get(ctx context.Context, id string) (*models.VolunteerEvent, error) {
	return l.store.Get(ctx, id)
}
