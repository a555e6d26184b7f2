package models

import (
	"time"

	"civic-complaint-system/pkg/geo"
)

type ComplaintCategory string

const (
	CategoryGarbage ComplaintCategory = "garbage"
	CategoryRoad    ComplaintCategory = "road"
	CategoryWater   ComplaintCategory = "water"
	CategoryOther   ComplaintCategory = "other"
)

func (c ComplaintCategory) Valid() bool {
	switch c {
	case CategoryGarbage, CategoryRoad, CategoryWater, CategoryOther:
		return true
	}
	return false
}

type ComplaintStatus string

const (
	StatusSubmitted ComplaintStatus = "submitted"
	StatusReview    ComplaintStatus = "review"
	StatusDone      ComplaintStatus = "done"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type FeedbackRating string

const (
	FeedbackPoor FeedbackRating = "poor"
	FeedbackAvg  FeedbackRating = "avg"
	FeedbackGood FeedbackRating = "good"
)

func (f FeedbackRating) Valid() bool {
	switch f {
	case FeedbackPoor, FeedbackAvg, FeedbackGood:
		return true
	}
	return false
}

// Complaint is one reported civic issue tracked from submission to verified
// closure. Reporter, location, priority, and createdAt are immutable after
// creation; all other mutations go through the lifecycle engine.
type Complaint struct {
	ID                 string            `bson:"_id" json:"id"`
	ReporterID         string            `bson:"reporter_id" json:"reporter_id"`
	ReporterName       string            `bson:"reporter_name" json:"reporter_name"`
	Category           ComplaintCategory `bson:"category" json:"category"`
	Description        string            `bson:"description,omitempty" json:"description,omitempty"`
	BeforeImage        string            `bson:"before_image" json:"before_image"`
	AfterImage         *string           `bson:"after_image,omitempty" json:"after_image,omitempty"`
	Latitude           float64           `bson:"latitude" json:"latitude"`
	Longitude          float64           `bson:"longitude" json:"longitude"`
	Status             ComplaintStatus   `bson:"status" json:"status"`
	Priority           Priority          `bson:"priority" json:"priority"`
	AssignedWorkerID   *string           `bson:"assigned_worker_id,omitempty" json:"assigned_worker_id,omitempty"`
	AssignedWorkerName *string           `bson:"assigned_worker_name,omitempty" json:"assigned_worker_name,omitempty"`
	Feedback           *FeedbackRating   `bson:"feedback,omitempty" json:"feedback,omitempty"`
	CreatedAt          time.Time         `bson:"created_at" json:"created_at"`
}

// Location returns the complaint's immutable coordinates.
func (c *Complaint) Location() geo.Point {
	return geo.Point{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Open reports whether the complaint still counts for duplicate suppression.
func (c *Complaint) Open() bool {
	return c.Status != StatusDone
}

// Event types carried on the complaints exchange.
const (
	EventComplaintCreated   = "complaint_created"
	EventWorkerAssigned     = "worker_assigned"
	EventProofUploaded      = "proof_uploaded"
	EventResolutionApproved = "resolution_approved"
	EventFeedbackSubmitted  = "feedback_submitted"
)

// ComplaintEvent is the wire payload published after every successful
// lifecycle mutation.
type ComplaintEvent struct {
	Type             string            `json:"type"`
	ComplaintID      string            `json:"complaint_id"`
	Category         ComplaintCategory `json:"category"`
	Status           ComplaintStatus   `json:"status"`
	Priority         Priority          `json:"priority"`
	ReporterID       string            `json:"reporter_id"`
	AssignedWorkerID string            `json:"assigned_worker_id,omitempty"`
	Message          string            `json:"message"`
	OccurredAt       time.Time         `json:"occurred_at"`
}
