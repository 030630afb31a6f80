package dashboard

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convivo/backend/internal/models"
)

// Stats is the organization-level aggregate snapshot.
type Stats struct {
	TotalEvents    int     `json:"total_events"`
	ActiveEvents   int     `json:"active_events"`
	TotalGuests    int     `json:"total_guests"`
	MessagesSent   int     `json:"messages_sent"`
	ConfirmedRSVPs int     `json:"confirmed_rsvps"`
	ResponseRate   float64 `json:"response_rate"`
}

// Repository computes dashboard aggregates.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a dashboard repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetStats returns the organization's counters in a single query.
func (r *Repository) GetStats(ctx context.Context, orgID uuid.UUID) (*Stats, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM events WHERE org_id = $1),
		(SELECT COUNT(*) FROM events WHERE org_id = $1 AND status = 'active'),
		(SELECT COUNT(*) FROM guests WHERE org_id = $1),
		(SELECT COUNT(*) FROM messages WHERE org_id = $1 AND status = 'sent'),
		(SELECT COUNT(*) FROM rsvps r INNER JOIN events e ON e.id = r.event_id
			WHERE e.org_id = $1 AND r.status = 'confirmed')`
	var s Stats
	if err := r.pool.QueryRow(ctx, q, orgID).
		Scan(&s.TotalEvents, &s.ActiveEvents, &s.TotalGuests, &s.MessagesSent, &s.ConfirmedRSVPs); err != nil {
		return nil, err
	}
	s.ResponseRate = responseRate(s.ConfirmedRSVPs, s.TotalGuests)
	return &s, nil
}

// RecentEvents returns the organization's latest events with counts.
func (r *Repository) RecentEvents(ctx context.Context, orgID uuid.UUID, limit int) ([]models.EventSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	const q = `SELECT e.id, e.org_id, e.title, e.description, e.location, e.starts_at, e.ends_at, e.status, e.rsvp_token, COALESCE(e.cover_url,''), e.created_by, e.created_at, e.updated_at,
		COUNT(DISTINCT g.id),
		COUNT(DISTINCT r.id) FILTER (WHERE r.status = 'confirmed')
		FROM events e
		LEFT JOIN guests g ON g.event_id = e.id
		LEFT JOIN rsvps r ON r.event_id = e.id
		WHERE e.org_id = $1
		GROUP BY e.id
		ORDER BY e.created_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.EventSummary
	for rows.Next() {
		var s models.EventSummary
		if err := rows.Scan(&s.ID, &s.OrgID, &s.Title, &s.Description, &s.Location, &s.StartsAt, &s.EndsAt, &s.Status, &s.RSVPToken, &s.CoverURL, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
			&s.GuestCount, &s.ConfirmedCount); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// responseRate is confirmed/guests as a percentage, 0 when there are no guests.
func responseRate(confirmed, guests int) float64 {
	if guests <= 0 {
		return 0
	}
	return float64(confirmed) / float64(guests) * 100
}
