// Package dispatch fans a rendered message template out to the guests of an
// event through the WhatsApp provider, one bounded worker per send, collecting
// exactly one outcome per requested guest.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/instances"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/internal/templates"
)

// Sender is the slice of the provider client dispatch needs.
type Sender interface {
	SendText(ctx context.Context, instanceID, number, text string) (string, error)
}

// InstanceSource resolves an organization's WhatsApp instance.
type InstanceSource interface {
	GetByOrg(ctx context.Context, orgID uuid.UUID) (*models.WhatsAppInstance, error)
}

// GuestSource resolves guest IDs to guest records of one event.
type GuestSource interface {
	GetByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Guest, error)
}

// Config bounds the fan-out.
type Config struct {
	Workers       int           // concurrent sends per dispatch call
	SendTimeout   time.Duration // per-send provider timeout
	PublicBaseURL string        // base for rsvp_link bindings
}

// Result is the per-guest outcome of one dispatch. Exactly one Result is
// produced per requested guest ID, in input order.
type Result struct {
	GuestID   uuid.UUID `json:"guest_id"`
	GuestName string    `json:"guest_name,omitempty"`
	Status    string    `json:"status"` // models.MessageStatusSent or MessageStatusFailed
	MessageID string    `json:"message_id,omitempty"`
	Error     string    `json:"error,omitempty"`

	// Body is the rendered message text, kept for message-log persistence.
	Body string `json:"-"`
}

// Orchestrator renders and sends one message per guest concurrently.
type Orchestrator struct {
	guests    GuestSource
	instances InstanceSource
	sender    Sender
	cfg       Config
	logger    *zap.Logger
}

// NewOrchestrator creates a dispatch orchestrator.
func NewOrchestrator(guests GuestSource, instanceSrc InstanceSource, sender Sender, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{guests: guests, instances: instanceSrc, sender: sender, cfg: cfg, logger: logger}
}

// Dispatch renders the template for each guest and sends the result via the
// provider. Preconditions (non-empty guest set, a connected instance for the
// event's org) fail the whole call with zero sends attempted. Past the
// preconditions, every failure is per-guest data: an unresolved ID or a
// provider error becomes a failed Result, never an error return.
func (o *Orchestrator) Dispatch(ctx context.Context, event *models.Event, tpl *models.Template, guestIDs []uuid.UUID) ([]Result, error) {
	// The server runs without a provider client when the Evolution API is not
	// configured; the webhook path can still mark an instance connected, so the
	// gate must sit here rather than on instance state.
	if o.sender == nil {
		return nil, ErrNoProvider
	}
	if len(guestIDs) == 0 {
		return nil, ErrEmptyGuestList
	}

	inst, err := o.instances.GetByOrg(ctx, event.OrgID)
	if err != nil {
		if errors.Is(err, instances.ErrNotFound) {
			return nil, ErrNoInstance
		}
		return nil, err
	}
	if inst.Status != models.InstanceStateConnected {
		return nil, ErrInstanceNotConnected
	}

	resolved, err := o.guests.GetByIDs(ctx, event.ID, guestIDs)
	if err != nil {
		// Lookup failure past the gate degrades to per-guest failures rather
		// than aborting sends that were promised an outcome.
		o.logger.Error("guest resolution failed", zap.Error(err), zap.String("event_id", event.ID.String()))
		resolved = map[uuid.UUID]*models.Guest{}
	}

	// Snapshot of the template text; edits during a dispatch do not bleed in.
	bodyText := tpl.BodyText

	results := make([]Result, len(guestIDs))
	jobs := make(chan int)

	workers := o.cfg.Workers
	if workers > len(guestIDs) {
		workers = len(guestIDs)
	}

	done := make(chan struct{})
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				// Each worker owns its slot; no shared writes.
				results[i] = o.sendOne(ctx, inst.InstanceID, event, bodyText, guestIDs[i], resolved[guestIDs[i]])
				done <- struct{}{}
			}
		}()
	}

	go func() {
		for i := range guestIDs {
			jobs <- i
		}
		close(jobs)
	}()

	for range guestIDs {
		<-done
	}

	return results, nil
}

// sendOne produces exactly one Result for one guest.
func (o *Orchestrator) sendOne(ctx context.Context, instanceID string, event *models.Event, bodyText string, guestID uuid.UUID, guest *models.Guest) Result {
	if guest == nil {
		return Result{
			GuestID: guestID,
			Status:  models.MessageStatusFailed,
			Error:   "guest not found for this event",
		}
	}
	if guest.Phone == "" {
		return Result{
			GuestID:   guestID,
			GuestName: guest.Name,
			Status:    models.MessageStatusFailed,
			Error:     "guest has no phone number",
		}
	}

	body := templates.Render(bodyText, templates.Bindings(event, guest, o.cfg.PublicBaseURL))

	sendCtx, cancel := context.WithTimeout(ctx, o.cfg.SendTimeout)
	defer cancel()

	messageID, err := o.sender.SendText(sendCtx, instanceID, guest.Phone, body)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) || sendCtx.Err() != nil {
			detail = "provider send timed out after " + o.cfg.SendTimeout.String()
		}
		o.logger.Warn("send failed",
			zap.String("guest_id", guestID.String()),
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
		return Result{
			GuestID:   guestID,
			GuestName: guest.Name,
			Status:    models.MessageStatusFailed,
			Error:     detail,
			Body:      body,
		}
	}

	return Result{
		GuestID:   guestID,
		GuestName: guest.Name,
		Status:    models.MessageStatusSent,
		MessageID: messageID,
		Body:      body,
	}
}
