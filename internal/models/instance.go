package models

import (
	"time"

	"github.com/google/uuid"
)

// WhatsApp instance connection states. The registry is a last-write-wins store:
// it records whatever state the provider last reported and never rejects a
// transition.
const (
	InstanceStateUninitialized = "uninitialized"
	InstanceStateConnecting    = "connecting"
	InstanceStateConnected     = "connected"
	InstanceStateDisconnected  = "disconnected"
	InstanceStateError         = "error"
)

// WhatsAppInstance is the per-organization handle to the Evolution API
// connection session. One instance per organization.
type WhatsAppInstance struct {
	ID         uuid.UUID `json:"id"`
	OrgID      uuid.UUID `json:"org_id"`
	InstanceID string    `json:"instance_id"`
	Status     string    `json:"status"`
	QRCode     string    `json:"qr_code,omitempty"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
