package messages

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/dispatch"
	"github.com/convivo/backend/internal/events"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/internal/organizations"
	"github.com/convivo/backend/internal/templates"
	"github.com/convivo/backend/pkg/queue"
	"github.com/convivo/backend/pkg/response"
)

// Handler handles message dispatch and message log endpoints.
type Handler struct {
	repo         *Repository
	events       *events.Repository
	templates    *templates.Repository
	orchestrator *dispatch.Orchestrator
	queue        *queue.Queue
	logger       *zap.Logger
}

// NewHandler creates a messages handler.
func NewHandler(repo *Repository, eventsRepo *events.Repository, templatesRepo *templates.Repository, orch *dispatch.Orchestrator, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:         repo,
		events:       eventsRepo,
		templates:    templatesRepo,
		orchestrator: orch,
		queue:        q,
		logger:       logger,
	}
}

// SendRequest is the body for POST /messages/send.
type SendRequest struct {
	EventID    uuid.UUID   `json:"event_id" binding:"required"`
	TemplateID uuid.UUID   `json:"template_id" binding:"required"`
	GuestIDs   []uuid.UUID `json:"guest_ids" binding:"required"`
}

// SendResponse summarizes one dispatch call.
type SendResponse struct {
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Results []dispatch.Result `json:"results"`
}

// messagePayload is what gets persisted in the messages.payload column.
type messagePayload struct {
	TemplateID uuid.UUID `json:"template_id"`
	Body       string    `json:"body,omitempty"`
	MessageID  string    `json:"message_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Send handles POST /messages/send: renders the template per guest and fans
// out through the WhatsApp instance, recording one message row per guest.
func (h *Handler) Send(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "event_id, template_id and guest_ids are required")
		return
	}

	event, err := h.events.GetByIDForOrg(c.Request.Context(), req.EventID, org.ID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	tpl, err := h.templates.GetByIDForOrg(c.Request.Context(), req.TemplateID, org.ID)
	if err != nil {
		response.NotFound(c, "template not found")
		return
	}

	results, err := h.orchestrator.Dispatch(c.Request.Context(), event, tpl, req.GuestIDs)
	if err != nil {
		switch {
		case errors.Is(err, dispatch.ErrNoProvider):
			response.ServiceUnavailable(c, "WhatsApp provider not configured")
		case errors.Is(err, dispatch.ErrEmptyGuestList):
			response.BadRequest(c, "guest_ids must not be empty")
		case errors.Is(err, dispatch.ErrNoInstance):
			response.BadRequest(c, "WhatsApp instance not configured for this organization")
		case errors.Is(err, dispatch.ErrInstanceNotConnected):
			response.BadRequest(c, "WhatsApp instance is not connected")
		default:
			h.logger.Error("dispatch failed", zap.Error(err), zap.String("event_id", event.ID.String()))
			response.Internal(c, "failed to dispatch messages")
		}
		return
	}

	resp := SendResponse{Results: results}
	for _, r := range results {
		if r.Status == models.MessageStatusSent {
			resp.Sent++
		} else {
			resp.Failed++
		}
		h.persistResult(c, tpl.ID, event, r)
	}

	h.logger.Info("dispatch completed",
		zap.String("event_id", event.ID.String()),
		zap.Int("sent", resp.Sent),
		zap.Int("failed", resp.Failed),
	)
	response.OK(c, resp)
}

// persistResult records one dispatch outcome in the message log. Log failures
// must not fail the request; the sends already happened.
func (h *Handler) persistResult(c *gin.Context, templateID uuid.UUID, event *models.Event, r dispatch.Result) {
	payload, err := json.Marshal(messagePayload{
		TemplateID: templateID,
		Body:       r.Body,
		MessageID:  r.MessageID,
		Error:      r.Error,
	})
	if err != nil {
		payload = json.RawMessage("{}")
	}
	m := models.Message{
		OrgID:   event.OrgID,
		EventID: event.ID,
		GuestID: r.GuestID,
		Status:  r.Status,
		Payload: payload,
	}
	if err := h.repo.Create(c.Request.Context(), &m); err != nil {
		h.logger.Error("message log write failed",
			zap.Error(err), zap.String("guest_id", r.GuestID.String()))
	}
}

// RemindRequest is the body for POST /events/:id/reminders.
type RemindRequest struct {
	TemplateID uuid.UUID `json:"template_id" binding:"required"`
}

// Remind handles POST /events/:id/reminders: enqueues a background job that
// re-sends the template to every guest whose RSVP is still pending.
func (h *Handler) Remind(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req RemindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "template_id is required")
		return
	}
	if _, err := h.events.GetByIDForOrg(c.Request.Context(), eventID, org.ID); err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if _, err := h.templates.GetByIDForOrg(c.Request.Context(), req.TemplateID, org.ID); err != nil {
		response.NotFound(c, "template not found")
		return
	}

	if err := h.queue.EnqueueReminder(c.Request.Context(), queue.ReminderPayload{
		OrgID:      org.ID,
		EventID:    eventID,
		TemplateID: req.TemplateID,
	}); err != nil {
		h.logger.Error("enqueue reminder failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to queue reminders")
		return
	}
	response.OK(c, gin.H{"queued": true})
}

// ListByEvent handles GET /events/:id/messages.
func (h *Handler) ListByEvent(c *gin.Context) {
	org := organizations.OrgFromContext(c)
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.events.GetByIDForOrg(c.Request.Context(), eventID, org.ID); err != nil {
		response.NotFound(c, "event not found")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Internal(c, "failed to load messages")
		return
	}
	response.OK(c, list)
}
