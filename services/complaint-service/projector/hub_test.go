package projector_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civic-complaint-system/services/complaint-service/models"
	"civic-complaint-system/services/complaint-service/projector"
)

// snapshotStub serves canned per-view snapshots, like the engine's Queue
// would after filtering.
type snapshotStub struct {
	complaints []models.Complaint
}

func (s *snapshotStub) snapshot(_ context.Context, view projector.View) ([]models.Complaint, error) {
	if view.Role == "admin" {
		return append([]models.Complaint(nil), s.complaints...), nil
	}

	var out []models.Complaint
	for _, c := range s.complaints {
		switch view.Role {
		case "citizen":
			if c.ReporterID == view.ActorID {
				out = append(out, c)
			}
		case "worker":
			if c.AssignedWorkerID != nil && *c.AssignedWorkerID == view.ActorID {
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func receive(t *testing.T, sub *projector.Subscription) []models.Complaint {
	t.Helper()
	select {
	case snap := <-sub.C:
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestHubDeliversInitialSnapshot(t *testing.T) {
	stub := &snapshotStub{complaints: []models.Complaint{{ID: "c1", ReporterID: "u1"}}}
	hub := projector.NewHub(stub.snapshot)

	sub, err := hub.Subscribe(context.Background(), projector.View{Role: "admin"})
	require.NoError(t, err)
	defer hub.Unsubscribe(sub)

	snap := receive(t, sub)
	require.Len(t, snap, 1)
	assert.Equal(t, "c1", snap[0].ID)
}

func TestHubPropagationRound(t *testing.T) {
	workerID := "w1"
	stub := &snapshotStub{complaints: []models.Complaint{{ID: "c1", ReporterID: "u1"}}}
	hub := projector.NewHub(stub.snapshot)
	ctx := context.Background()

	adminSub, err := hub.Subscribe(ctx, projector.View{Role: "admin"})
	require.NoError(t, err)
	citizenSub, err := hub.Subscribe(ctx, projector.View{Role: "citizen", ActorID: "u1"})
	require.NoError(t, err)
	workerSub, err := hub.Subscribe(ctx, projector.View{Role: "worker", ActorID: workerID})
	require.NoError(t, err)
	otherCitizenSub, err := hub.Subscribe(ctx, projector.View{Role: "citizen", ActorID: "u2"})
	require.NoError(t, err)
	defer func() {
		hub.Unsubscribe(adminSub)
		hub.Unsubscribe(citizenSub)
		hub.Unsubscribe(workerSub)
		hub.Unsubscribe(otherCitizenSub)
	}()

	// Drain the initial snapshots.
	receive(t, adminSub)
	receive(t, citizenSub)
	receive(t, workerSub)
	receive(t, otherCitizenSub)

	// One logical write: c1 assigned to w1, plus a new complaint from u1.
	stub.complaints = []models.Complaint{
		{ID: "c1", ReporterID: "u1", AssignedWorkerID: &workerID},
		{ID: "c2", ReporterID: "u1"},
	}
	hub.Changed(ctx)

	assert.Len(t, receive(t, adminSub), 2)
	assert.Len(t, receive(t, citizenSub), 2)

	workerSnap := receive(t, workerSub)
	require.Len(t, workerSnap, 1)
	assert.Equal(t, "c1", workerSnap[0].ID)

	assert.Empty(t, receive(t, otherCitizenSub))
}

func TestHubReplacesStaleSnapshotForSlowConsumer(t *testing.T) {
	stub := &snapshotStub{complaints: []models.Complaint{{ID: "c1", ReporterID: "u1"}}}
	hub := projector.NewHub(stub.snapshot)
	ctx := context.Background()

	sub, err := hub.Subscribe(ctx, projector.View{Role: "admin"})
	require.NoError(t, err)
	defer hub.Unsubscribe(sub)

	// The consumer never drained the initial snapshot; two more rounds land.
	stub.complaints = append(stub.complaints, models.Complaint{ID: "c2", ReporterID: "u1"})
	hub.Changed(ctx)
	stub.complaints = append(stub.complaints, models.Complaint{ID: "c3", ReporterID: "u1"})
	hub.Changed(ctx)

	// Only the latest full set is pending.
	snap := receive(t, sub)
	assert.Len(t, snap, 3)

	select {
	case extra := <-sub.C:
		t.Fatalf("unexpected queued snapshot: %v", extra)
	default:
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	stub := &snapshotStub{}
	hub := projector.NewHub(stub.snapshot)

	sub, err := hub.Subscribe(context.Background(), projector.View{Role: "admin"})
	require.NoError(t, err)

	receive(t, sub)
	hub.Unsubscribe(sub)

	_, open := <-sub.C
	assert.False(t, open)
}
