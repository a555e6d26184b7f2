package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"civic-complaint-system/pkg/geo"
	"civic-complaint-system/services/complaint-service/models"
)

// locationTimeout bounds how long a creation waits for a fresh fix.
const locationTimeout = 10 * time.Second

// Actor is the authenticated participant performing an operation. Identity is
// supplied by the auth service and trusted here.
type Actor struct {
	ID   string
	Name string
	Role string
}

// Position is a geolocation fix. Each report acquires a fresh fix; stale
// fixes are never cached by the engine.
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
	Timestamp time.Time
}

func (p Position) Point() geo.Point {
	return geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Locator is the geolocation provider collaborator. It may fail or time out;
// either aborts the operation with ErrLocationUnavailable.
type Locator interface {
	CurrentPosition(ctx context.Context) (Position, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Position, error)

func (f LocatorFunc) CurrentPosition(ctx context.Context) (Position, error) {
	return f(ctx)
}

// Filter scopes a store listing. Zero values mean "no constraint".
type Filter struct {
	ReporterID       string
	AssignedWorkerID string
	Category         models.ComplaintCategory
	OpenOnly         bool
}

// Store is the persistence contract for complaints. Mutations are targeted
// field patches, never whole-document overwrites.
type Store interface {
	Create(ctx context.Context, c *models.Complaint) error
	Get(ctx context.Context, id string) (*models.Complaint, error)
	Patch(ctx context.Context, id string, fields map[string]interface{}) error
	List(ctx context.Context, f Filter) ([]models.Complaint, error)
}

// ImageStore is the image collaborator: opaque handle in, durable URL out.
type ImageStore interface {
	Upload(ctx context.Context, dataURL string, path string) (string, error)
}

// Worker is a field-worker record from the directory.
type Worker struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// WorkerDirectory resolves worker ids during assignment.
type WorkerDirectory interface {
	GetWorker(ctx context.Context, id string) (Worker, error)
}

// Publisher puts lifecycle events on the message bus. Publish failures are
// logged, not surfaced: the write already committed.
type Publisher interface {
	PublishComplaintEvent(ctx context.Context, routingKey string, evt models.ComplaintEvent) error
}

// Notifier is poked after every committed write so live projections can
// re-query and fan out fresh snapshots.
type Notifier interface {
	Changed(ctx context.Context)
}

// Engine owns every complaint state transition. Callers never write complaint
// fields directly; all preconditions are checked here so no presentation
// layer can force an invalid state.
type Engine struct {
	store     Store
	zones     *geo.ZoneSet
	images    ImageStore
	directory WorkerDirectory
	publisher Publisher
	notifier  Notifier

	now   func() time.Time
	newID func() string
}

type Config struct {
	Store     Store
	Zones     *geo.ZoneSet
	Images    ImageStore
	Directory WorkerDirectory
	Publisher Publisher
	Notifier  Notifier
}

func New(cfg Config) *Engine {
	return &Engine{
		store:     cfg.Store,
		zones:     cfg.Zones,
		images:    cfg.Images,
		directory: cfg.Directory,
		publisher: cfg.Publisher,
		notifier:  cfg.Notifier,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// CreateInput carries the citizen's report. Image is an opaque handle
// (base64 data URL); the engine never inspects image bytes.
type CreateInput struct {
	Category    models.ComplaintCategory
	Description string
	Image       string
}

// Create files a new complaint. Steps run in order and each may abort the
// whole operation: fresh location fix, duplicate gate, evidence upload,
// persist. A failure at any step leaves nothing persisted.
func (e *Engine) Create(ctx context.Context, actor Actor, locator Locator, in CreateInput) (*models.Complaint, error) {
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: category %q", ErrMissingField, in.Category)
	}
	if in.Image == "" {
		return nil, fmt.Errorf("%w: evidence image", ErrMissingField)
	}

	locCtx, cancel := context.WithTimeout(ctx, locationTimeout)
	defer cancel()
	pos, err := locator.CurrentPosition(locCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	point := pos.Point()
	if err := point.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingField, err)
	}

	if dup, err := e.findDuplicate(ctx, point, in.Category); err != nil {
		return nil, err
	} else if dup != nil {
		return nil, &DuplicateError{ExistingID: dup.ID}
	}

	id := e.newID()
	beforeURL, err := e.images.Upload(ctx, in.Image, fmt.Sprintf("complaints/%s/before.jpg", id))
	if err != nil {
		return nil, fmt.Errorf("failed to store evidence image: %w", err)
	}

	priority := models.PriorityNormal
	if e.zones.IsNearSensitive(point) {
		priority = models.PriorityHigh
	}

	complaint := &models.Complaint{
		ID:           id,
		ReporterID:   actor.ID,
		ReporterName: actor.Name,
		Category:     in.Category,
		Description:  in.Description,
		BeforeImage:  beforeURL,
		Latitude:     point.Latitude,
		Longitude:    point.Longitude,
		Status:       models.StatusSubmitted,
		Priority:     priority,
		CreatedAt:    e.now(),
	}

	if err := e.store.Create(ctx, complaint); err != nil {
		return nil, fmt.Errorf("failed to persist complaint: %w", err)
	}

	e.publish(ctx, "complaint.created", models.ComplaintEvent{
		Type:        models.EventComplaintCreated,
		ComplaintID: complaint.ID,
		Category:    complaint.Category,
		Status:      complaint.Status,
		Priority:    complaint.Priority,
		ReporterID:  complaint.ReporterID,
		Message:     "New complaint submitted",
		OccurredAt:  complaint.CreatedAt,
	})
	e.changed(ctx)

	return complaint, nil
}

// findDuplicate returns the first open complaint of the same category within
// the duplicate radius. Iteration order is whatever the store returns.
func (e *Engine) findDuplicate(ctx context.Context, point geo.Point, category models.ComplaintCategory) (*models.Complaint, error) {
	open, err := e.store.List(ctx, Filter{Category: category, OpenOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to scan open complaints: %w", err)
	}
	for i := range open {
		if geo.Distance(point, open[i].Location()) < geo.DuplicateRadiusMeters {
			return &open[i], nil
		}
	}
	return nil, nil
}

// Assign moves a submitted complaint to review, binding exactly one worker.
// Re-assignment of a review/done complaint is not a defined transition.
func (e *Engine) Assign(ctx context.Context, admin Actor, complaintID, workerID string) (*models.Complaint, error) {
	complaint, err := e.store.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status != models.StatusSubmitted {
		return nil, fmt.Errorf("%w: cannot assign complaint in status %q", ErrInvalidTransition, complaint.Status)
	}

	worker, err := e.directory.GetWorker(ctx, workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve worker %s: %w", workerID, err)
	}
	if worker.Role != "worker" {
		return nil, fmt.Errorf("%w: assignee %s has role %q, not worker", ErrInvalidTransition, workerID, worker.Role)
	}

	// Status and assignment move together in one patch.
	err = e.store.Patch(ctx, complaintID, map[string]interface{}{
		"status":               models.StatusReview,
		"assigned_worker_id":   worker.ID,
		"assigned_worker_name": worker.Name,
	})
	if err != nil {
		return nil, err
	}

	complaint.Status = models.StatusReview
	complaint.AssignedWorkerID = &worker.ID
	complaint.AssignedWorkerName = &worker.Name

	e.publish(ctx, "complaint.updated", models.ComplaintEvent{
		Type:             models.EventWorkerAssigned,
		ComplaintID:      complaint.ID,
		Category:         complaint.Category,
		Status:           complaint.Status,
		Priority:         complaint.Priority,
		ReporterID:       complaint.ReporterID,
		AssignedWorkerID: worker.ID,
		Message:          fmt.Sprintf("Assigned to %s", worker.Name),
		OccurredAt:       e.now(),
	})
	e.changed(ctx)

	return complaint, nil
}

// UploadProof records the worker's after-cleanup image. The complaint stays
// in review awaiting admin approval; it never auto-advances to done.
func (e *Engine) UploadProof(ctx context.Context, worker Actor, complaintID, image string) (*models.Complaint, error) {
	if image == "" {
		return nil, fmt.Errorf("%w: resolution proof image", ErrMissingField)
	}

	complaint, err := e.store.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status != models.StatusReview {
		return nil, fmt.Errorf("%w: proof requires status review, complaint is %q", ErrInvalidTransition, complaint.Status)
	}
	if complaint.AssignedWorkerID == nil || *complaint.AssignedWorkerID != worker.ID {
		return nil, fmt.Errorf("%w: complaint is not assigned to %s", ErrForbidden, worker.ID)
	}

	afterURL, err := e.images.Upload(ctx, image, fmt.Sprintf("complaints/%s/after.jpg", complaintID))
	if err != nil {
		return nil, fmt.Errorf("failed to store resolution proof: %w", err)
	}

	if err := e.store.Patch(ctx, complaintID, map[string]interface{}{
		"after_image": afterURL,
	}); err != nil {
		return nil, err
	}
	complaint.AfterImage = &afterURL

	e.publish(ctx, "complaint.updated", models.ComplaintEvent{
		Type:             models.EventProofUploaded,
		ComplaintID:      complaint.ID,
		Category:         complaint.Category,
		Status:           complaint.Status,
		Priority:         complaint.Priority,
		ReporterID:       complaint.ReporterID,
		AssignedWorkerID: worker.ID,
		Message:          "Resolution proof uploaded, awaiting approval",
		OccurredAt:       e.now(),
	})
	e.changed(ctx)

	return complaint, nil
}

// Approve closes a reviewed complaint. Approval without proof is rejected,
// and a second approval of a done complaint is rejected so a stale admin
// view learns it is stale.
func (e *Engine) Approve(ctx context.Context, admin Actor, complaintID string) (*models.Complaint, error) {
	complaint, err := e.store.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status != models.StatusReview {
		return nil, fmt.Errorf("%w: approval requires status review, complaint is %q", ErrInvalidTransition, complaint.Status)
	}
	if complaint.AfterImage == nil {
		return nil, fmt.Errorf("%w: cannot approve without resolution proof", ErrInvalidTransition)
	}

	if err := e.store.Patch(ctx, complaintID, map[string]interface{}{
		"status": models.StatusDone,
	}); err != nil {
		return nil, err
	}
	complaint.Status = models.StatusDone

	workerID := ""
	if complaint.AssignedWorkerID != nil {
		workerID = *complaint.AssignedWorkerID
	}
	e.publish(ctx, "complaint.updated", models.ComplaintEvent{
		Type:             models.EventResolutionApproved,
		ComplaintID:      complaint.ID,
		Category:         complaint.Category,
		Status:           complaint.Status,
		Priority:         complaint.Priority,
		ReporterID:       complaint.ReporterID,
		AssignedWorkerID: workerID,
		Message:          "Resolution approved, complaint closed",
		OccurredAt:       e.now(),
	})
	e.changed(ctx)

	return complaint, nil
}

// SubmitFeedback records the reporter's one-shot service rating on a done
// complaint. A second attempt is rejected, never overwritten.
func (e *Engine) SubmitFeedback(ctx context.Context, citizen Actor, complaintID string, rating models.FeedbackRating) (*models.Complaint, error) {
	if !rating.Valid() {
		return nil, fmt.Errorf("%w: rating %q", ErrMissingField, rating)
	}

	complaint, err := e.store.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.ReporterID != citizen.ID {
		return nil, fmt.Errorf("%w: only the reporter may rate", ErrForbidden)
	}
	if complaint.Status != models.StatusDone {
		return nil, fmt.Errorf("%w: feedback requires status done, complaint is %q", ErrInvalidTransition, complaint.Status)
	}
	if complaint.Feedback != nil {
		return nil, fmt.Errorf("%w: feedback already recorded", ErrInvalidTransition)
	}

	if err := e.store.Patch(ctx, complaintID, map[string]interface{}{
		"feedback": rating,
	}); err != nil {
		return nil, err
	}
	complaint.Feedback = &rating

	e.publish(ctx, "complaint.updated", models.ComplaintEvent{
		Type:        models.EventFeedbackSubmitted,
		ComplaintID: complaint.ID,
		Category:    complaint.Category,
		Status:      complaint.Status,
		Priority:    complaint.Priority,
		ReporterID:  complaint.ReporterID,
		Message:     fmt.Sprintf("Citizen rated service: %s", rating),
		OccurredAt:  e.now(),
	})
	e.changed(ctx)

	return complaint, nil
}

// Get returns one complaint by id.
func (e *Engine) Get(ctx context.Context, id string) (*models.Complaint, error) {
	return e.store.Get(ctx, id)
}

// Queue lists complaints for presentation: high priority first, then newest
// first within each tier, ties broken by id for a stable total order.
func (e *Engine) Queue(ctx context.Context, f Filter) ([]models.Complaint, error) {
	complaints, err := e.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(complaints, func(i, j int) bool {
		a, b := complaints[i], complaints[j]
		if (a.Priority == models.PriorityHigh) != (b.Priority == models.PriorityHigh) {
			return a.Priority == models.PriorityHigh
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return complaints, nil
}

// Stats summarizes the collection for the admin dashboard.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	all, err := e.store.List(ctx, Filter{})
	if err != nil {
		return Stats{}, err
	}

	var s Stats
	s.Total = len(all)
	for i := range all {
		if all[i].Open() {
			s.Pending++
		} else {
			s.Completed++
		}
	}
	return s, nil
}

func (e *Engine) publish(ctx context.Context, routingKey string, evt models.ComplaintEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishComplaintEvent(ctx, routingKey, evt); err != nil {
		log.Printf("[WARN] Complaint %s committed but event publish failed: %v", evt.ComplaintID, err)
	}
}

func (e *Engine) changed(ctx context.Context) {
	if e.notifier != nil {
		e.notifier.Changed(ctx)
	}
}
