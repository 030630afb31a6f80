package models

import (
	"time"

	"github.com/google/uuid"
)

// Event status values.
const (
	EventStatusDraft     = "draft"
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
)

// Event represents an occasion (wedding, birthday, corporate event) guests are
// invited to. RSVPToken is the public token embedded in rsvp_link placeholders.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Status      string     `json:"status"`
	RSVPToken   string     `json:"rsvp_token"`
	CoverURL    string     `json:"cover_url,omitempty"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventSummary is an event with guest and RSVP counts for list views.
type EventSummary struct {
	Event
	GuestCount     int `json:"guest_count"`
	ConfirmedCount int `json:"confirmed_count"`
}
