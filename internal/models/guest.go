package models

import (
	"time"

	"github.com/google/uuid"
)

// Guest is an invitee of an event. Phone is E.164 and is the WhatsApp
// destination for dispatched messages.
type Guest struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	EventID     uuid.UUID  `json:"event_id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone_e164"`
	Email       string     `json:"email,omitempty"`
	Tag         string     `json:"tag,omitempty"`
	CompanionOf *uuid.UUID `json:"companion_of,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// RSVP status values.
const (
	RSVPStatusPending   = "pending"
	RSVPStatusConfirmed = "confirmed"
	RSVPStatusDeclined  = "declined"
)

// RSVP is a guest's attendance answer for an event.
type RSVP struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	GuestID   uuid.UUID `json:"guest_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
