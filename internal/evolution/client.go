// Package evolution is the HTTP client for the Evolution API, the external
// WhatsApp messaging provider. The provider is treated as an opaque,
// possibly-slow, possibly-failing black box; callers own timeouts and retries.
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// Config holds Evolution API connection settings.
type Config struct {
	BaseURL       string
	Token         string
	WebhookSecret string
	WebhookBase   string
}

// Instance is the provider's view of a newly created instance.
type Instance struct {
	InstanceID string
	State      string
	QRCode     string
}

// Client is the provider surface the rest of the system consumes. Defined here
// and narrowed by consumers (dispatch needs only SendText).
type Client interface {
	// CreateInstance creates a provider instance named after the org.
	CreateInstance(ctx context.Context, orgID string) (*Instance, error)
	// SetWebhook points the instance's event callbacks at url.
	SetWebhook(ctx context.Context, instanceID, url string) error
	// SendText sends a WhatsApp text message and returns the provider message ID.
	SendText(ctx context.Context, instanceID, number, text string) (string, error)
	// ConnectionState returns the provider's current connection state for the instance.
	ConnectionState(ctx context.Context, instanceID string) (string, error)
	// WebhookURL builds the callback URL to register for an org's instance.
	WebhookURL(orgID string) string
}

// HTTPClient implements Client against a live Evolution API deployment.
type HTTPClient struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewHTTPClient creates an Evolution API client. The http.Client carries no
// timeout of its own; every call site passes a bounded context.
func NewHTTPClient(cfg Config, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{cfg: cfg, http: &http.Client{}, logger: logger}
}

// WebhookURL returns the callback URL to register for an org's instance,
// carrying the shared secret and org scope as query parameters.
func (c *HTTPClient) WebhookURL(orgID string) string {
	return c.cfg.WebhookBase + "?secret=" + url.QueryEscape(c.cfg.WebhookSecret) + "&org=" + url.QueryEscape(orgID)
}

type createInstanceRequest struct {
	InstanceName string `json:"instanceName"`
	Token        string `json:"token"`
	QRCode       bool   `json:"qrcode"`
}

type createInstanceResponse struct {
	Instance struct {
		InstanceName     string `json:"instanceName"`
		ConnectionStatus string `json:"connectionStatus"`
	} `json:"instance"`
	QRCode struct {
		Base64 string `json:"base64"`
	} `json:"qrcode"`
}

// CreateInstance creates an instance named org-<orgID> with QR pairing enabled.
func (c *HTTPClient) CreateInstance(ctx context.Context, orgID string) (*Instance, error) {
	body := createInstanceRequest{
		InstanceName: "org-" + orgID,
		Token:        c.cfg.Token,
		QRCode:       true,
	}
	var out createInstanceResponse
	if err := c.post(ctx, "/manager/instance", body, &out); err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	return &Instance{
		InstanceID: out.Instance.InstanceName,
		State:      out.Instance.ConnectionStatus,
		QRCode:     out.QRCode.Base64,
	}, nil
}

// SetWebhook subscribes the instance to message and connection events.
func (c *HTTPClient) SetWebhook(ctx context.Context, instanceID, url string) error {
	body := map[string]any{
		"url":     url,
		"enabled": true,
		"events":  []string{"messages.upsert", "connection.update"},
	}
	if err := c.post(ctx, "/webhook/"+instanceID, body, nil); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// Evolution returns the message key; older deployments return messageId.
type sendTextResponse struct {
	Key struct {
		ID string `json:"id"`
	} `json:"key"`
	MessageID string `json:"messageId"`
}

// SendText sends a text message to a phone number via the instance.
func (c *HTTPClient) SendText(ctx context.Context, instanceID, number, text string) (string, error) {
	var out sendTextResponse
	if err := c.post(ctx, "/message/sendText/"+instanceID, sendTextRequest{Number: number, Text: text}, &out); err != nil {
		return "", fmt.Errorf("send text: %w", err)
	}
	if out.Key.ID != "" {
		return out.Key.ID, nil
	}
	return out.MessageID, nil
}

type connectionStateResponse struct {
	ConnectionStatus string `json:"connectionStatus"`
}

// ConnectionState returns the instance's current provider connection state.
func (c *HTTPClient) ConnectionState(ctx context.Context, instanceID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/instance/"+instanceID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("get connection state: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("get connection state: status %d", resp.StatusCode)
	}
	var out connectionStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode connection state: %w", err)
	}
	return out.ConnectionStatus, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider status %d: %s", resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
