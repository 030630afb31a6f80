package instances

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/convivo/backend/internal/models"
)

func TestMapProviderState(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"open", models.InstanceStateConnected, true},
		{"connecting", models.InstanceStateConnecting, true},
		{"close", models.InstanceStateDisconnected, true},
		{"closed", models.InstanceStateDisconnected, true},
		{"refused", models.InstanceStateError, true},
		{"connected", models.InstanceStateConnected, true},
		{"disconnected", models.InstanceStateDisconnected, true},
		{"error", models.InstanceStateError, true},
		{"uninitialized", models.InstanceStateUninitialized, true},
		{"qrcode.scanned", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := MapProviderState(tt.in)
		assert.Equal(t, tt.wantOK, ok, "state %q", tt.in)
		assert.Equal(t, tt.want, got, "state %q", tt.in)
	}
}
