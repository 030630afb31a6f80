package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/convivo/backend/internal/models"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		bindings map[string]string
		want     string
	}{
		{
			name:     "replaces known placeholders",
			body:     "Hi {{name}}, welcome to {{event_title}}!",
			bindings: map[string]string{"name": "Jo", "event_title": "Summer Party"},
			want:     "Hi Jo, welcome to Summer Party!",
		},
		{
			name:     "unknown placeholders pass through verbatim",
			body:     "Hi {{name}}, see {{missing}}",
			bindings: map[string]string{"name": "Jo"},
			want:     "Hi Jo, see {{missing}}",
		},
		{
			name:     "tolerates inner whitespace",
			body:     "Venue: {{ location }} at {{starts_at }}",
			bindings: map[string]string{"location": "Praia do Forte", "starts_at": "Sat, 10 Oct 2026 18:00"},
			want:     "Venue: Praia do Forte at Sat, 10 Oct 2026 18:00",
		},
		{
			name:     "empty bindings leave body untouched",
			body:     "RSVP: {{rsvp_link}}",
			bindings: nil,
			want:     "RSVP: {{rsvp_link}}",
		},
		{
			name:     "empty binding value replaces with empty string",
			body:     "Tag: [{{tag}}]",
			bindings: map[string]string{"tag": ""},
			want:     "Tag: []",
		},
		{
			name:     "no placeholders",
			body:     "plain text, no variables",
			bindings: map[string]string{"name": "Jo"},
			want:     "plain text, no variables",
		},
		{
			name:     "repeated placeholder replaced everywhere",
			body:     "{{name}} {{name}} {{name}}",
			bindings: map[string]string{"name": "Jo"},
			want:     "Jo Jo Jo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.body, tt.bindings))
		})
	}
}

func TestVariables(t *testing.T) {
	got := Variables("Hi {{name}}, {{ name }} is going to {{event_title}}")
	assert.Equal(t, []string{"name", "event_title"}, got)

	assert.Empty(t, Variables("no placeholders here"))
}

func TestBindings(t *testing.T) {
	ends := time.Date(2026, 10, 10, 23, 0, 0, 0, time.UTC)
	event := &models.Event{
		Title:       "Casamento Ana & Pedro",
		Description: "Black tie",
		Location:    "Salvador",
		StartsAt:    time.Date(2026, 10, 10, 18, 0, 0, 0, time.UTC),
		EndsAt:      &ends,
		RSVPToken:   "tok-123",
	}
	guest := &models.Guest{
		Name:  "Jo",
		Email: "jo@example.com",
		Phone: "+5511999990000",
		Tag:   "family",
	}

	b := Bindings(event, guest, "https://app.example.com")

	assert.Equal(t, "Casamento Ana & Pedro", b["event_title"])
	assert.Equal(t, "Salvador", b["location"])
	assert.Equal(t, "Sat, 10 Oct 2026 18:00", b["starts_at"])
	assert.Equal(t, "Sat, 10 Oct 2026 23:00", b["ends_at"])
	assert.Equal(t, "https://app.example.com/public/rsvp/tok-123", b["rsvp_link"])
	assert.Equal(t, "Jo", b["name"])
	assert.Equal(t, "family", b["tag"])

	// without guest, guest keys are absent so their placeholders pass through
	b = Bindings(event, nil, "https://app.example.com")
	_, ok := b["name"]
	assert.False(t, ok)
}
