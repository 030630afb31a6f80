package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/convivo/backend/internal/dispatch"
	"github.com/convivo/backend/internal/events"
	"github.com/convivo/backend/internal/guests"
	"github.com/convivo/backend/internal/messages"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/internal/templates"
	"github.com/convivo/backend/pkg/queue"
)

// ReminderProcessor consumes reminder jobs: for each job it re-dispatches the
// template to every guest of the event whose RSVP is still pending.
type ReminderProcessor struct {
	queue        *queue.Queue
	events       *events.Repository
	templates    *templates.Repository
	guests       *guests.Repository
	messagesRepo *messages.Repository
	orchestrator *dispatch.Orchestrator
	logger       *zap.Logger
}

// NewReminderProcessor creates a reminder processor.
func NewReminderProcessor(q *queue.Queue, eventsRepo *events.Repository, templatesRepo *templates.Repository, guestsRepo *guests.Repository, messagesRepo *messages.Repository, orch *dispatch.Orchestrator, logger *zap.Logger) *ReminderProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderProcessor{
		queue:        q,
		events:       eventsRepo,
		templates:    templatesRepo,
		guests:       guestsRepo,
		messagesRepo: messagesRepo,
		orchestrator: orch,
		logger:       logger,
	}
}

// Run blocks dequeuing jobs until ctx is cancelled.
func (p *ReminderProcessor) Run(ctx context.Context) {
	p.logger.Info("reminder worker started")
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reminder worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue failed", zap.Error(err))
			continue
		}
		if job == nil {
			continue
		}

		if err := p.process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.Error(err),
				zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
	}
}

func (p *ReminderProcessor) process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReminderDispatch {
		p.logger.Warn("unknown job type, dropping", zap.String("type", string(job.Type)))
		return nil
	}
	var payload queue.ReminderPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		p.logger.Warn("invalid reminder payload, dropping", zap.Error(err), zap.String("job_id", job.ID))
		return nil
	}

	event, err := p.events.GetByIDForOrg(ctx, payload.EventID, payload.OrgID)
	if err != nil {
		// Event deleted between enqueue and processing; nothing to do.
		p.logger.Warn("reminder event not found, dropping",
			zap.String("event_id", payload.EventID.String()))
		return nil
	}
	tpl, err := p.templates.GetByIDForOrg(ctx, payload.TemplateID, payload.OrgID)
	if err != nil {
		p.logger.Warn("reminder template not found, dropping",
			zap.String("template_id", payload.TemplateID.String()))
		return nil
	}

	pending, err := p.guests.ListPendingIDs(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("list pending guests: %w", err)
	}
	if len(pending) == 0 {
		p.logger.Info("no pending guests, reminder skipped",
			zap.String("event_id", event.ID.String()))
		return nil
	}

	results, err := p.orchestrator.Dispatch(ctx, event, tpl, pending)
	if err != nil {
		// Precondition failures (instance disconnected) are retryable: the
		// organizer may reconnect before the next attempt.
		return fmt.Errorf("dispatch: %w", err)
	}

	sent, failed := 0, 0
	for _, r := range results {
		if r.Status == models.MessageStatusSent {
			sent++
		} else {
			failed++
		}
		p.persistResult(ctx, tpl, event, r)
	}
	p.logger.Info("reminder dispatch completed",
		zap.String("event_id", event.ID.String()),
		zap.Int("sent", sent), zap.Int("failed", failed))
	return nil
}

func (p *ReminderProcessor) persistResult(ctx context.Context, tpl *models.Template, event *models.Event, r dispatch.Result) {
	payload, err := json.Marshal(map[string]any{
		"template_id": tpl.ID,
		"body":        r.Body,
		"message_id":  r.MessageID,
		"error":       r.Error,
		"reminder":    true,
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
	if err := p.messagesRepo.Create(ctx, &m); err != nil {
		p.logger.Error("message log write failed", zap.Error(err),
			zap.String("guest_id", r.GuestID.String()))
	}
}
