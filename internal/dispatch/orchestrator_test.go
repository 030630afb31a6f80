package dispatch

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convivo/backend/internal/instances"
	"github.com/convivo/backend/internal/models"
)

type fakeInstances struct {
	inst *models.WhatsAppInstance
	err  error
}

func (f *fakeInstances) GetByOrg(ctx context.Context, orgID uuid.UUID) (*models.WhatsAppInstance, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.inst, nil
}

type fakeGuests struct {
	guests map[uuid.UUID]*models.Guest
	err    error
}

func (f *fakeGuests) GetByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Guest, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[uuid.UUID]*models.Guest)
	for _, id := range ids {
		if g, ok := f.guests[id]; ok {
			out[id] = g
		}
	}
	return out, nil
}

// fakeSender records calls and fails for phone numbers listed in failFor.
type fakeSender struct {
	mu      sync.Mutex
	calls   int
	sent    []string
	failFor map[string]error
	delay   time.Duration
	next    int
}

func (f *fakeSender) SendText(ctx context.Context, instanceID, number, text string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.next++
	id := "wamid-" + strconv.Itoa(f.next)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err, ok := f.failFor[number]; ok {
		return "", err
	}
	f.mu.Lock()
	f.sent = append(f.sent, number)
	f.mu.Unlock()
	return id, nil
}

func connectedInstance(orgID uuid.UUID) *models.WhatsAppInstance {
	return &models.WhatsAppInstance{
		OrgID:      orgID,
		InstanceID: "org-" + orgID.String(),
		Status:     models.InstanceStateConnected,
	}
}

func testEvent() *models.Event {
	return &models.Event{
		ID:        uuid.New(),
		OrgID:     uuid.New(),
		Title:     "Aniversário da Lia",
		Location:  "Rio de Janeiro",
		StartsAt:  time.Date(2026, 11, 21, 16, 0, 0, 0, time.UTC),
		RSVPToken: "tok-abc",
	}
}

func testTemplate() *models.Template {
	return &models.Template{
		BodyText: "Oi {{name}}, você vem para {{event_title}}? {{rsvp_link}}",
		Channel:  models.ChannelWhatsApp,
	}
}

func makeGuests(event *models.Event, n int) ([]uuid.UUID, map[uuid.UUID]*models.Guest) {
	ids := make([]uuid.UUID, 0, n)
	byID := make(map[uuid.UUID]*models.Guest)
	for i := 0; i < n; i++ {
		g := &models.Guest{
			ID:      uuid.New(),
			EventID: event.ID,
			Name:    "Guest " + strconv.Itoa(i+1),
			Phone:   "+55119999900" + strconv.Itoa(10+i),
		}
		ids = append(ids, g.ID)
		byID[g.ID] = g
	}
	return ids, byID
}

func TestDispatchResultPerGuest(t *testing.T) {
	event := testEvent()
	ids, byID := makeGuests(event, 7)
	sender := &fakeSender{}
	o := NewOrchestrator(
		&fakeGuests{guests: byID},
		&fakeInstances{inst: connectedInstance(event.OrgID)},
		sender,
		Config{Workers: 3, SendTimeout: time.Second, PublicBaseURL: "https://app.example.com"},
		nil,
	)

	results, err := o.Dispatch(context.Background(), event, testTemplate(), ids)
	require.NoError(t, err)
	require.Len(t, results, len(ids))

	// one result per requested guest, in input order, each ID exactly once
	seen := make(map[uuid.UUID]bool)
	for i, r := range results {
		assert.Equal(t, ids[i], r.GuestID)
		assert.False(t, seen[r.GuestID], "duplicate result for %s", r.GuestID)
		seen[r.GuestID] = true
		assert.Equal(t, models.MessageStatusSent, r.Status)
		assert.NotEmpty(t, r.MessageID)
		assert.Contains(t, r.Body, byID[r.GuestID].Name)
		assert.Contains(t, r.Body, "https://app.example.com/public/rsvp/tok-abc")
	}
	assert.Equal(t, len(ids), sender.calls)
}

func TestDispatchPartialFailureIsolation(t *testing.T) {
	event := testEvent()
	ids, byID := makeGuests(event, 3)
	sender := &fakeSender{failFor: map[string]error{
		byID[ids[1]].Phone: errors.New("invalid number"),
	}}
	o := NewOrchestrator(
		&fakeGuests{guests: byID},
		&fakeInstances{inst: connectedInstance(event.OrgID)},
		sender,
		Config{Workers: 2, SendTimeout: time.Second},
		nil,
	)

	results, err := o.Dispatch(context.Background(), event, testTemplate(), ids)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, models.MessageStatusSent, results[0].Status)
	assert.Equal(t, models.MessageStatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "invalid number")
	assert.Empty(t, results[1].MessageID)
	assert.Equal(t, models.MessageStatusSent, results[2].Status)
	assert.NotEqual(t, results[0].MessageID, results[2].MessageID)
}

func TestDispatchUnresolvedGuestDoesNotBlockBatch(t *testing.T) {
	event := testEvent()
	ids, byID := makeGuests(event, 2)
	stranger := uuid.New()
	all := []uuid.UUID{ids[0], stranger, ids[1]}

	sender := &fakeSender{}
	o := NewOrchestrator(
		&fakeGuests{guests: byID},
		&fakeInstances{inst: connectedInstance(event.OrgID)},
		sender,
		Config{Workers: 4, SendTimeout: time.Second},
		nil,
	)

	results, err := o.Dispatch(context.Background(), event, testTemplate(), all)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, models.MessageStatusSent, results[0].Status)
	assert.Equal(t, models.MessageStatusFailed, results[1].Status)
	assert.Equal(t, stranger, results[1].GuestID)
	assert.Contains(t, results[1].Error, "not found")
	assert.Equal(t, models.MessageStatusSent, results[2].Status)
	assert.Equal(t, 2, sender.calls, "no send attempted for the unresolved id")
}

func TestDispatchPreconditions(t *testing.T) {
	event := testEvent()
	ids, byID := makeGuests(event, 2)

	t.Run("no provider configured", func(t *testing.T) {
		o := NewOrchestrator(&fakeGuests{guests: byID}, &fakeInstances{inst: connectedInstance(event.OrgID)}, nil, Config{}, nil)
		_, err := o.Dispatch(context.Background(), event, testTemplate(), ids)
		assert.ErrorIs(t, err, ErrNoProvider)
	})

	t.Run("empty guest list", func(t *testing.T) {
		sender := &fakeSender{}
		o := NewOrchestrator(&fakeGuests{guests: byID}, &fakeInstances{inst: connectedInstance(event.OrgID)}, sender, Config{}, nil)
		_, err := o.Dispatch(context.Background(), event, testTemplate(), nil)
		assert.ErrorIs(t, err, ErrEmptyGuestList)
		assert.Zero(t, sender.calls)
	})

	t.Run("no instance provisioned", func(t *testing.T) {
		sender := &fakeSender{}
		o := NewOrchestrator(&fakeGuests{guests: byID}, &fakeInstances{err: instances.ErrNotFound}, sender, Config{}, nil)
		_, err := o.Dispatch(context.Background(), event, testTemplate(), ids)
		assert.ErrorIs(t, err, ErrNoInstance)
		assert.Zero(t, sender.calls)
	})

	t.Run("instance not connected", func(t *testing.T) {
		sender := &fakeSender{}
		inst := connectedInstance(event.OrgID)
		inst.Status = models.InstanceStateConnecting
		o := NewOrchestrator(&fakeGuests{guests: byID}, &fakeInstances{inst: inst}, sender, Config{}, nil)
		_, err := o.Dispatch(context.Background(), event, testTemplate(), ids)
		assert.ErrorIs(t, err, ErrInstanceNotConnected)
		assert.Zero(t, sender.calls, "zero sends attempted on precondition failure")
	})
}

func TestDispatchSendTimeoutBecomesFailedResult(t *testing.T) {
	event := testEvent()
	ids, byID := makeGuests(event, 1)
	sender := &fakeSender{delay: 200 * time.Millisecond}
	o := NewOrchestrator(
		&fakeGuests{guests: byID},
		&fakeInstances{inst: connectedInstance(event.OrgID)},
		sender,
		Config{Workers: 1, SendTimeout: 20 * time.Millisecond},
		nil,
	)

	results, err := o.Dispatch(context.Background(), event, testTemplate(), ids)
	require.NoError(t, err, "a timed-out send is data, not a batch error")
	require.Len(t, results, 1)
	assert.Equal(t, models.MessageStatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "timed out")
}

func TestDispatchGuestWithoutPhoneFails(t *testing.T) {
	event := testEvent()
	ids, byID := makeGuests(event, 1)
	byID[ids[0]].Phone = ""
	sender := &fakeSender{}
	o := NewOrchestrator(
		&fakeGuests{guests: byID},
		&fakeInstances{inst: connectedInstance(event.OrgID)},
		sender,
		Config{},
		nil,
	)

	results, err := o.Dispatch(context.Background(), event, testTemplate(), ids)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, models.MessageStatusFailed, results[0].Status)
	assert.Contains(t, results[0].Error, "no phone number")
	assert.Zero(t, sender.calls)
}
