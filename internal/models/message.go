package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message delivery status values.
const (
	MessageStatusSent   = "sent"
	MessageStatusFailed = "failed"
)

// Message records one dispatch attempt to one guest. Payload holds the
// rendered body plus provider response or error detail.
type Message struct {
	ID        uuid.UUID       `json:"id"`
	OrgID     uuid.UUID       `json:"org_id"`
	EventID   uuid.UUID       `json:"event_id"`
	GuestID   uuid.UUID       `json:"guest_id"`
	Status    string          `json:"status"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
