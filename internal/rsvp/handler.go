package rsvp

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/events"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/pkg/response"
)

// Handler handles the public, unauthenticated RSVP endpoints.
type Handler struct {
	repo   *Repository
	events *events.Repository
	logger *zap.Logger
}

// NewHandler creates an RSVP handler.
func NewHandler(repo *Repository, eventsRepo *events.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, events: eventsRepo, logger: logger}
}

// PublicEvent is the event view exposed on the public RSVP page. Internal
// fields (org, creator, token internals) stay hidden.
type PublicEvent struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	CoverURL    string     `json:"cover_url,omitempty"`
}

// Show handles GET /public/rsvp/:token.
func (h *Handler) Show(c *gin.Context) {
	token := c.Param("token")
	event, err := h.events.GetByRSVPToken(c.Request.Context(), token)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, PublicEvent{
		Title:       event.Title,
		Description: event.Description,
		Location:    event.Location,
		StartsAt:    event.StartsAt,
		EndsAt:      event.EndsAt,
		CoverURL:    event.CoverURL,
	})
}

// ConfirmRequest is the body for POST /public/rsvp/confirm.
type ConfirmRequest struct {
	Token      string   `json:"token" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email"`
	Attending  *bool    `json:"attending"`
	Companions []string `json:"companions"`
}

// Confirm handles POST /public/rsvp/confirm. Registers the respondent (and
// companions when attending) against the event behind the token.
func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "token and name are required")
		return
	}
	event, err := h.events.GetByRSVPToken(c.Request.Context(), req.Token)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if event.Status != models.EventStatusActive {
		response.BadRequest(c, "event is not accepting responses")
		return
	}

	status := models.RSVPStatusConfirmed
	if req.Attending != nil && !*req.Attending {
		status = models.RSVPStatusDeclined
	}

	companions := make([]string, 0, len(req.Companions))
	for _, name := range req.Companions {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			companions = append(companions, trimmed)
		}
	}

	guest, err := h.repo.Confirm(c.Request.Context(), event, strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email), status, companions)
	if err != nil {
		h.logger.Error("rsvp confirm failed", zap.Error(err), zap.String("event_id", event.ID.String()))
		response.Internal(c, "failed to record response")
		return
	}

	h.logger.Info("rsvp recorded",
		zap.String("event_id", event.ID.String()),
		zap.String("guest_id", guest.ID.String()),
		zap.String("status", status),
		zap.Int("companions", len(companions)),
	)
	response.Created(c, gin.H{
		"guest_id":   guest.ID,
		"status":     status,
		"companions": len(companions),
	})
}
