package models

import "time"

// VolunteerEvent is a scheduled clean-up drive. Everything except the
// participant set is immutable after creation; membership changes only
// through the participation ledger's join/leave.
type VolunteerEvent struct {
	ID           string    `bson:"_id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description,omitempty" json:"description,omitempty"`
	Date         time.Time `bson:"date" json:"date"`
	Latitude     float64   `bson:"latitude" json:"latitude"`
	Longitude    float64   `bson:"longitude" json:"longitude"`
	Participants []string  `bson:"participants" json:"participants"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// HasParticipant reports set membership.
func (e *VolunteerEvent) HasParticipant(actorID string) bool {
	for _, p := range e.Participants {
		if p == actorID {
			return true
		}
	}
	return false
}
