package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/instances"
	"github.com/convivo/backend/internal/middleware"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/pkg/response"
)

// MeResponse is the profile view: account, organization and WhatsApp
// connection state.
type MeResponse struct {
	User     models.UserPublic    `json:"user"`
	Org      *models.Organization `json:"org,omitempty"`
	Instance *InstanceStatus      `json:"instance,omitempty"`
}

// InstanceStatus is the instance slice exposed on /me.
type InstanceStatus struct {
	InstanceID string `json:"instance_id"`
	Status     string `json:"status"`
	QRCode     string `json:"qr_code,omitempty"`
}

// Me handles GET /me.
func (h *Handler) Me(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}

	out := MeResponse{User: user.ToPublic()}

	org, err := h.orgs.GetByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Warn("user has no organization", zap.String("user_id", userID.String()))
		response.OK(c, out)
		return
	}
	out.Org = org

	inst, err := h.registry.GetByOrg(c.Request.Context(), org.ID)
	if err != nil {
		if !errors.Is(err, instances.ErrNotFound) {
			h.logger.Error("instance lookup failed", zap.Error(err), zap.String("org_id", org.ID.String()))
		}
		response.OK(c, out)
		return
	}
	out.Instance = &InstanceStatus{
		InstanceID: inst.InstanceID,
		Status:     inst.Status,
		QRCode:     inst.QRCode,
	}
	response.OK(c, out)
}
