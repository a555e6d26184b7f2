package projector

import (
	"context"
	"log"
	"sync"

	"civic-complaint-system/services/complaint-service/models"
)

// View is a role-scoped subscription filter over the complaint collection:
// admins see everything, citizens their own reports, workers their
// assignments.
type View struct {
	Role    string
	ActorID string
}

// SnapshotFunc re-queries the full matching set for a view. The engine's
// Queue supplies it, so snapshots carry the engine's display ordering.
type SnapshotFunc func(ctx context.Context, view View) ([]models.Complaint, error)

// Subscription is one live consumer. C receives the full current matching
// set on every underlying change; if the consumer lags, older pending
// snapshots are replaced by the latest rather than queued behind it.
type Subscription struct {
	View View
	C    chan []models.Complaint
}

// Hub fans complaint changes out to role-scoped subscriptions. A single
// Changed call is one propagation round: every matching subscription sees
// the same logical write before the next round begins.
type Hub struct {
	mu       sync.RWMutex
	snapshot SnapshotFunc
	subs     map[*Subscription]bool
}

func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		snapshot: snapshot,
		subs:     make(map[*Subscription]bool),
	}
}

// Subscribe registers a view and immediately delivers its current snapshot.
func (h *Hub) Subscribe(ctx context.Context, view View) (*Subscription, error) {
	sub := &Subscription{
		View: view,
		C:    make(chan []models.Complaint, 1),
	}

	initial, err := h.snapshot(ctx, view)
	if err != nil {
		return nil, err
	}
	sub.C <- initial

	h.mu.Lock()
	h.subs[sub] = true
	count := len(h.subs)
	h.mu.Unlock()

	log.Printf("[INFO] Projection subscribed - role: %s (total subscriptions: %d)", view.Role, count)
	return sub, nil
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	count := len(h.subs)
	h.mu.Unlock()

	log.Printf("[INFO] Projection unsubscribed (total subscriptions: %d)", count)
}

// Changed runs one propagation round, pushing a fresh full snapshot to every
// live subscription.
func (h *Hub) Changed(ctx context.Context) {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		snapshot, err := h.snapshot(ctx, sub.View)
		if err != nil {
			log.Printf("[WARN] Projection snapshot failed for role %s: %v", sub.View.Role, err)
			continue
		}
		h.deliver(sub, snapshot)
	}
}

// deliver replaces any undrained snapshot with the latest one.
func (h *Hub) deliver(sub *Subscription, snapshot []models.Complaint) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.subs[sub] {
		return
	}

	for {
		select {
		case sub.C <- snapshot:
			return
		default:
			select {
			case <-sub.C:
			default:
			}
		}
	}
}
