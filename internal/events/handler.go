package events

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/middleware"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/internal/organizations"
	"github.com/convivo/backend/pkg/response"
	"github.com/convivo/backend/pkg/storage"
)

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an events handler. s3 may be nil; cover uploads are then disabled.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at" binding:"required"`
	EndsAt      *time.Time `json:"ends_at"`
}

// UpdateRequest is the body for PATCH /events/:id.
type UpdateRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	Status      string     `json:"status"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// Create handles POST /events. Mints the public RSVP token.
func (h *Handler) Create(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "title and starts_at are required")
		return
	}
	e := &models.Event{
		OrgID:       org.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      models.EventStatusActive,
		RSVPToken:   uuid.New().String(),
		CreatedBy:   userID,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err), zap.String("org_id", org.ID.String()))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// List handles GET /events. Returns events with guest/RSVP counts.
func (h *Handler) List(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	list, err := h.repo.ListByOrg(c.Request.Context(), org.ID)
	if err != nil {
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// Get handles GET /events/:id.
func (h *Handler) Get(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByIDForOrg(c.Request.Context(), id, org.ID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:id.
func (h *Handler) Update(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	existing, err := h.repo.GetByIDForOrg(c.Request.Context(), id, org.ID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	status := existing.Status
	if req.Status != "" {
		switch req.Status {
		case models.EventStatusDraft, models.EventStatusActive, models.EventStatusCompleted:
			status = req.Status
		default:
			response.BadRequest(c, "invalid status")
			return
		}
	}
	if err := h.repo.Update(c.Request.Context(), id, org.ID, strings.TrimSpace(req.Title), req.Description, req.Location, status, req.StartsAt, req.EndsAt); err != nil {
		h.logger.Error("update event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, gin.H{"updated": true})
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id, org.ID); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// UploadCover handles POST /events/:id/cover. Accepts a multipart "file" image
// and stores it in S3 as the event's cover.
func (h *Handler) UploadCover(c *gin.Context) {
	if h.s3 == nil {
		response.ServiceUnavailable(c, "media storage not configured")
		return
	}
	org := organizations.OrgFromContext(c)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.repo.GetByIDForOrg(c.Request.Context(), id, org.ID); err != nil {
		response.NotFound(c, "event not found")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxCoverFileSize {
		response.BadRequest(c, "file too large (max 5MB)")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateCoverType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type (jpeg, png, webp)")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read upload")
		return
	}
	defer f.Close()

	key := storage.CoverKey(id.String(), fileHeader.Filename)
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, f)
	if err != nil {
		h.logger.Error("cover upload failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to upload cover")
		return
	}
	if err := h.repo.UpdateCoverURL(c.Request.Context(), id, org.ID, url); err != nil {
		response.Internal(c, "failed to save cover url")
		return
	}
	response.OK(c, gin.H{"cover_url": url})
}
