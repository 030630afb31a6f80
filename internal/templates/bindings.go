package templates

import (
	"time"

	"github.com/convivo/backend/internal/models"
)

// Timestamps in message bodies are human-readable, not RFC3339.
const bindingTimeLayout = "Mon, 02 Jan 2006 15:04"

// Bindings builds the variable namespace for one guest of one event:
// event_title, event_description, location, starts_at, ends_at, rsvp_link from
// the event, plus name, email, phone, tag when a guest is given.
func Bindings(event *models.Event, guest *models.Guest, publicBaseURL string) map[string]string {
	b := map[string]string{
		"event_title":       event.Title,
		"event_description": event.Description,
		"location":          event.Location,
		"starts_at":         event.StartsAt.Format(bindingTimeLayout),
		"ends_at":           formatOptional(event.EndsAt),
		"rsvp_link":         "",
	}
	if event.RSVPToken != "" {
		b["rsvp_link"] = publicBaseURL + "/public/rsvp/" + event.RSVPToken
	}
	if guest != nil {
		b["name"] = guest.Name
		b["email"] = guest.Email
		b["phone"] = guest.Phone
		b["tag"] = guest.Tag
	}
	return b
}

func formatOptional(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(bindingTimeLayout)
}
