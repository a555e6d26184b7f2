package store

import (
	"context"
	"sort"
	"sync"

	"civic-complaint-system/services/event-service/ledger"
	"civic-complaint-system/services/event-service/models"
)

// InMemory is a mutex-guarded ledger.Store for unit tests and local
// development. Membership mutations hold the lock across the whole
// read-modify-write, mirroring the atomicity of the Mongo set operators.
type InMemory struct {
	mu   sync.RWMutex
	byID map[string]models.VolunteerEvent
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]models.VolunteerEvent)}
}

func (s *InMemory) Create(_ context.Context, e *models.VolunteerEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[e.ID] = *e
	return nil
}

func (s *InMemory) Get(_ context.Context, id string) (*models.VolunteerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return nil, ledger.ErrNotFound
	}

	e.Participants = append([]string(nil), e.Participants...)
	return &e, nil
}

func (s *InMemory) List(_ context.Context) ([]models.VolunteerEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]models.VolunteerEvent, 0, len(s.byID))
	for _, e := range s.byID {
		e.Participants = append([]string(nil), e.Participants...)
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events, nil
}

func (s *InMemory) AddParticipant(_ context.Context, eventID, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[eventID]
	if !ok {
		return ledger.ErrNotFound
	}
	if e.HasParticipant(actorID) {
		return nil
	}
	e.Participants = append(e.Participants, actorID)
	s.byID[eventID] = e
	return nil
}

func (s *InMemory) RemoveParticipant(_ context.Context, eventID, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[eventID]
	if !ok {
		return ledger.ErrNotFound
	}

	kept := e.Participants[:0]
	for _, p := range e.Participants {
		if p != actorID {
			kept = append(kept, p)
		}
	}
	e.Participants = kept
	s.byID[eventID] = e
	return nil
}
