package webhooks

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/convivo/backend/internal/models"
)

const testSecret = "hook-secret"

// fakeRegistry mimics the idempotent last-write-wins registry: a state equal
// to the current one does not count as an apply.
type fakeRegistry struct {
	states  map[uuid.UUID]string
	applies int
	qrCodes map[uuid.UUID]string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{states: map[uuid.UUID]string{}, qrCodes: map[uuid.UUID]string{}}
}

func (f *fakeRegistry) ApplyConnectionState(ctx context.Context, orgID uuid.UUID, state string) error {
	if f.states[orgID] == state {
		return nil
	}
	f.states[orgID] = state
	f.applies++
	return nil
}

func (f *fakeRegistry) UpdateQRCode(ctx context.Context, orgID uuid.UUID, qrCode string) error {
	f.qrCodes[orgID] = qrCode
	return nil
}

func newTestRouter(reg *fakeRegistry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(testSecret, reg, nil)
	r.POST("/webhooks/evolution", h.Receive)
	return r
}

func post(r *gin.Engine, secret, org, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/evolution?secret="+secret+"&org="+org, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestReceiveRejectsBadSecret(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()

	w := post(r, "wrong-secret", orgID.String(), `{"event":"connection.update","data":{"state":"open"}}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, reg.states, "no state mutation on auth failure")
}

func TestReceiveRejectsMissingOrg(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)

	w := post(r, testSecret, "", `{"event":"connection.update","data":{"state":"open"}}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, reg.states)
}

func TestReceiveConnectionUpdate(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()

	w := post(r, testSecret, orgID.String(), `{"event":"connection.update","data":{"state":"open"}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.InstanceStateConnected, reg.states[orgID])
}

func TestReceiveConnectionUpdateIdempotent(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()
	body := `{"event":"connection.update","data":{"state":"open"}}`

	assert.Equal(t, http.StatusOK, post(r, testSecret, orgID.String(), body).Code)
	assert.Equal(t, http.StatusOK, post(r, testSecret, orgID.String(), body).Code)

	assert.Equal(t, models.InstanceStateConnected, reg.states[orgID])
	assert.Equal(t, 1, reg.applies, "duplicate event produces no second side effect")
}

func TestReceiveDisconnect(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()

	post(r, testSecret, orgID.String(), `{"event":"connection.update","data":{"state":"open"}}`)
	w := post(r, testSecret, orgID.String(), `{"event":"connection.update","data":{"state":"close"}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.InstanceStateDisconnected, reg.states[orgID])
}

func TestReceiveStoresQRCode(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()

	w := post(r, testSecret, orgID.String(),
		`{"event":"connection.update","data":{"state":"connecting","qrcode":{"base64":"data:image/png;base64,abc"}}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.InstanceStateConnecting, reg.states[orgID])
	assert.Equal(t, "data:image/png;base64,abc", reg.qrCodes[orgID])
}

func TestReceiveUnknownEventAcceptedAndIgnored(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()

	w := post(r, testSecret, orgID.String(), `{"event":"some.unmodeled.event","data":{}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, reg.states, "unknown event leaves instance state unchanged")
}

func TestReceiveMessagesUpsertAccepted(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()

	w := post(r, testSecret, orgID.String(), `{"event":"messages.upsert","data":{"key":{"id":"wamid-1"}}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, reg.states)
}

func TestReceiveUnmodeledStateIgnored(t *testing.T) {
	reg := newFakeRegistry()
	r := newTestRouter(reg)
	orgID := uuid.New()

	w := post(r, testSecret, orgID.String(), `{"event":"connection.update","data":{"state":"pairing"}}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, reg.states)
}
