package guests

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/events"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/internal/organizations"
	"github.com/convivo/backend/pkg/response"
)

// Handler handles guest HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	logger    *zap.Logger
}

// NewHandler creates a guests handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, logger: logger}
}

// CreateRequest is the body for POST /guests.
type CreateRequest struct {
	EventID uuid.UUID `json:"event_id" binding:"required"`
	Name    string    `json:"name" binding:"required"`
	Phone   string    `json:"phone_e164" binding:"required"`
	Email   string    `json:"email"`
	Tag     string    `json:"tag"`
}

// Create handles POST /guests. The guest gets a default pending RSVP.
func (h *Handler) Create(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "event_id, name and phone_e164 are required")
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if !strings.HasPrefix(phone, "+") || len(phone) < 8 {
		response.BadRequest(c, "phone_e164 must be an E.164 number, e.g. +5511999990000")
		return
	}
	if _, err := h.eventRepo.GetByIDForOrg(c.Request.Context(), req.EventID, org.ID); err != nil {
		response.NotFound(c, "event not found")
		return
	}
	g := &models.Guest{
		OrgID:   org.ID,
		EventID: req.EventID,
		Name:    strings.TrimSpace(req.Name),
		Phone:   phone,
		Email:   strings.TrimSpace(req.Email),
		Tag:     strings.TrimSpace(req.Tag),
	}
	if err := h.repo.Create(c.Request.Context(), g); err != nil {
		h.logger.Error("create guest failed", zap.Error(err), zap.String("event_id", req.EventID.String()))
		response.Internal(c, "failed to create guest")
		return
	}
	response.Created(c, g)
}

// ListByEvent handles GET /events/:id/guests.
func (h *Handler) ListByEvent(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.eventRepo.GetByIDForOrg(c.Request.Context(), eventID, org.ID); err != nil {
		response.NotFound(c, "event not found")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load guests")
		return
	}
	response.OK(c, list)
}

// Delete handles DELETE /guests/:id.
func (h *Handler) Delete(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid guest id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id, org.ID); err != nil {
		response.Internal(c, "failed to delete guest")
		return
	}
	response.NoContent(c)
}
