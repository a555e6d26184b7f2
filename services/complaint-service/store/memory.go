package store

import (
	"context"
	"sync"

	"civic-complaint-system/services/complaint-service/engine"
	"civic-complaint-system/services/complaint-service/models"
)

// InMemory is a mutex-guarded engine.Store used by unit tests and local
// development. Listing preserves insertion order, matching the duplicate
// gate's tie-break contract.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[string]models.Complaint
	order []string
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]models.Complaint)}
}

func (s *InMemory) Create(_ context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byID[c.ID] = *c
	s.order = append(s.order, c.ID)
	return nil
}

func (s *InMemory) Get(_ context.Context, id string) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, engine.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) Patch(_ context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return engine.ErrNotFound
	}

	for k, v := range fields {
		switch k {
		case "status":
			c.Status = v.(models.ComplaintStatus)
		case "assigned_worker_id":
			workerID := v.(string)
			c.AssignedWorkerID = &workerID
		case "assigned_worker_name":
			name := v.(string)
			c.AssignedWorkerName = &name
		case "after_image":
			url := v.(string)
			c.AfterImage = &url
		case "feedback":
			rating := v.(models.FeedbackRating)
			c.Feedback = &rating
		}
	}

	s.byID[id] = c
	return nil
}

func (s *InMemory) List(_ context.Context, f engine.Filter) ([]models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Complaint
	for _, id := range s.order {
		c := s.byID[id]
		if f.ReporterID != "" && c.ReporterID != f.ReporterID {
			continue
		}
		if f.AssignedWorkerID != "" && (c.AssignedWorkerID == nil || *c.AssignedWorkerID != f.AssignedWorkerID) {
			continue
		}
		if f.Category != "" && c.Category != f.Category {
			continue
		}
		if f.OpenOnly && !c.Open() {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
