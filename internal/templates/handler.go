package templates

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/internal/organizations"
	"github.com/convivo/backend/pkg/response"
)

// Handler handles message template HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a templates handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// CreateRequest is the body for POST /templates.
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	BodyText string `json:"body_text" binding:"required"`
	Channel  string `json:"channel"`
}

// UpdateRequest is the body for PATCH /templates/:id.
type UpdateRequest struct {
	Name     string `json:"name" binding:"required"`
	BodyText string `json:"body_text" binding:"required"`
}

// Create handles POST /templates.
func (h *Handler) Create(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and body_text are required")
		return
	}
	channel := strings.ToLower(strings.TrimSpace(req.Channel))
	if channel == "" {
		channel = models.ChannelWhatsApp
	}
	t := &models.Template{
		OrgID:    org.ID,
		Name:     strings.TrimSpace(req.Name),
		BodyText: req.BodyText,
		Channel:  channel,
	}
	if err := h.repo.Create(c.Request.Context(), t); err != nil {
		h.logger.Error("create template failed", zap.Error(err), zap.String("org_id", org.ID.String()))
		response.Internal(c, "failed to create template")
		return
	}
	response.Created(c, t)
}

// List handles GET /templates.
func (h *Handler) List(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	list, err := h.repo.ListByOrg(c.Request.Context(), org.ID)
	if err != nil {
		response.Internal(c, "failed to load templates")
		return
	}
	response.OK(c, list)
}

// Get handles GET /templates/:id. Includes the placeholder variables the body uses.
func (h *Handler) Get(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}
	t, err := h.repo.GetByIDForOrg(c.Request.Context(), id, org.ID)
	if err != nil || t == nil {
		response.NotFound(c, "template not found")
		return
	}
	response.OK(c, gin.H{"template": t, "variables": Variables(t.BodyText)})
}

// Update handles PATCH /templates/:id.
func (h *Handler) Update(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and body_text are required")
		return
	}
	if _, err := h.repo.GetByIDForOrg(c.Request.Context(), id, org.ID); err != nil {
		response.NotFound(c, "template not found")
		return
	}
	if err := h.repo.Update(c.Request.Context(), id, org.ID, strings.TrimSpace(req.Name), req.BodyText); err != nil {
		h.logger.Error("update template failed", zap.Error(err), zap.String("template_id", id.String()))
		response.Internal(c, "failed to update template")
		return
	}
	response.OK(c, gin.H{"updated": true})
}

// Delete handles DELETE /templates/:id.
func (h *Handler) Delete(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid template id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id, org.ID); err != nil {
		response.Internal(c, "failed to delete template")
		return
	}
	response.NoContent(c)
}
