// Package webhooks ingests asynchronous callbacks from the Evolution API.
// Authentication is the shared webhook secret plus an org query parameter
// scoping each event to one organization's instance.
package webhooks

import (
	"context"
	"crypto/subtle"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/instances"
	"github.com/convivo/backend/pkg/response"
)

// Registry is the slice of the instance registry the ingestor mutates.
type Registry interface {
	ApplyConnectionState(ctx context.Context, orgID uuid.UUID, state string) error
	UpdateQRCode(ctx context.Context, orgID uuid.UUID, qrCode string) error
}

// Payload is the provider's webhook body.
type Payload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type connectionUpdateData struct {
	State  string `json:"state"`
	QRCode struct {
		Base64 string `json:"base64"`
	} `json:"qrcode"`
}

// Handler handles POST /webhooks/evolution.
type Handler struct {
	secret   string
	registry Registry
	logger   *zap.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(secret string, registry Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{secret: secret, registry: registry, logger: logger}
}

// Receive handles POST /webhooks/evolution?secret=...&org=... Responds 401 on
// any authentication mismatch before touching state, else 200 whether or not
// the event type is recognized (the provider sends types we do not model).
func (h *Handler) Receive(c *gin.Context) {
	secret := c.Query("secret")
	orgParam := c.Query("org")

	if h.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		response.Unauthorized(c, "invalid webhook secret")
		return
	}
	orgID, err := uuid.Parse(orgParam)
	if err != nil {
		response.Unauthorized(c, "invalid org")
		return
	}

	var body Payload
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	switch body.Event {
	case "connection.update":
		var data connectionUpdateData
		if err := json.Unmarshal(body.Data, &data); err != nil {
			response.BadRequest(c, "invalid connection.update data")
			return
		}
		state, ok := instances.MapProviderState(data.State)
		if !ok {
			h.logger.Warn("unmodeled connection state ignored",
				zap.String("org_id", orgID.String()), zap.String("state", data.State))
			break
		}
		if err := h.registry.ApplyConnectionState(c.Request.Context(), orgID, state); err != nil {
			h.logger.Error("apply connection state failed", zap.Error(err), zap.String("org_id", orgID.String()))
			response.Internal(c, "failed to apply connection state")
			return
		}
		if data.QRCode.Base64 != "" {
			if err := h.registry.UpdateQRCode(c.Request.Context(), orgID, data.QRCode.Base64); err != nil {
				h.logger.Warn("store qr code failed", zap.Error(err), zap.String("org_id", orgID.String()))
			}
		}

	case "messages.upsert":
		// Inbound guest messages; RSVP parsing is out of scope, ack and drop.
		h.logger.Debug("inbound message event ignored", zap.String("org_id", orgID.String()))

	default:
		// Forward compatibility: unknown event types are accepted and dropped.
		h.logger.Debug("unknown webhook event ignored",
			zap.String("org_id", orgID.String()), zap.String("event", body.Event))
	}

	response.OK(c, gin.H{"received": true})
}
