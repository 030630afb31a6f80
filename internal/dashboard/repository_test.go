package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseRate(t *testing.T) {
	tests := []struct {
		name      string
		confirmed int
		guests    int
		want      float64
	}{
		{"no guests", 0, 0, 0},
		{"no confirmations", 0, 40, 0},
		{"half confirmed", 20, 40, 50},
		{"all confirmed", 12, 12, 100},
		{"negative guard", 3, -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, responseRate(tt.confirmed, tt.guests), 0.0001)
		})
	}
}
