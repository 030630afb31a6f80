package evolution

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookURL(t *testing.T) {
	c := NewHTTPClient(Config{
		WebhookSecret: "s3cret&value",
		WebhookBase:   "https://api.example.com/webhooks/evolution",
	}, nil)

	got := c.WebhookURL("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "https://api.example.com/webhooks/evolution?secret=s3cret%26value&org=11111111-2222-3333-4444-555555555555", got)
}

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody sendTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key":{"id":"wamid-123"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL, Token: "tok"}, nil)
	id, err := c.SendText(context.Background(), "org-abc", "+5511999990000", "Hi Ana")
	require.NoError(t, err)
	assert.Equal(t, "wamid-123", id)
	assert.Equal(t, "/message/sendText/org-abc", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "+5511999990000", gotBody.Number)
	assert.Equal(t, "Hi Ana", gotBody.Text)
}

func TestSendTextLegacyMessageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"messageId":"legacy-1"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL}, nil)
	id, err := c.SendText(context.Background(), "org-abc", "+5511999990000", "Hi")
	require.NoError(t, err)
	assert.Equal(t, "legacy-1", id)
}

func TestSendTextProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`instance unavailable`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL}, nil)
	_, err := c.SendText(context.Background(), "org-abc", "+5511999990000", "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
	assert.Contains(t, err.Error(), "instance unavailable")
}

func TestCreateInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manager/instance", r.URL.Path)
		var req createInstanceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "org-abc", req.InstanceName)
		assert.True(t, req.QRCode)
		w.Write([]byte(`{"instance":{"instanceName":"org-abc","connectionStatus":"connecting"},"qrcode":{"base64":"data:image/png;base64,AAA"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{BaseURL: srv.URL}, nil)
	inst, err := c.CreateInstance(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "org-abc", inst.InstanceID)
	assert.Equal(t, "connecting", inst.State)
	assert.Equal(t, "data:image/png;base64,AAA", inst.QRCode)
}
