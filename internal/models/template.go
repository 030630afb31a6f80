package models

import (
	"time"

	"github.com/google/uuid"
)

// Template channels.
const (
	ChannelWhatsApp = "whatsapp"
)

// Template is a reusable message body with {{variable}} placeholders.
type Template struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Name      string    `json:"name"`
	BodyText  string    `json:"body_text"`
	Channel   string    `json:"channel"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
