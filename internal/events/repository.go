package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convivo/backend/internal/models"
)

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new event. The RSVP token is minted by the caller.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, org_id, title, description, location, starts_at, ends_at, status, rsvp_token, created_by)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.OrgID, e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.Status, e.RSVPToken, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetByIDForOrg returns an event by ID scoped to the organization.
func (r *Repository) GetByIDForOrg(ctx context.Context, id, orgID uuid.UUID) (*models.Event, error) {
	const q = `SELECT id, org_id, title, description, location, starts_at, ends_at, status, rsvp_token, COALESCE(cover_url,''), created_by, created_at, updated_at
		FROM events WHERE id = $1 AND org_id = $2`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, id, orgID).
		Scan(&e.ID, &e.OrgID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.Status, &e.RSVPToken, &e.CoverURL, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByRSVPToken returns an event by its public RSVP token.
func (r *Repository) GetByRSVPToken(ctx context.Context, token string) (*models.Event, error) {
	const q = `SELECT id, org_id, title, description, location, starts_at, ends_at, status, rsvp_token, COALESCE(cover_url,''), created_by, created_at, updated_at
		FROM events WHERE rsvp_token = $1`
	var e models.Event
	err := r.pool.QueryRow(ctx, q, token).
		Scan(&e.ID, &e.OrgID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.Status, &e.RSVPToken, &e.CoverURL, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByOrg returns the organization's events with guest and confirmed-RSVP
// counts, newest first.
func (r *Repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.EventSummary, error) {
	const q = `SELECT e.id, e.org_id, e.title, e.description, e.location, e.starts_at, e.ends_at, e.status, e.rsvp_token, COALESCE(e.cover_url,''), e.created_by, e.created_at, e.updated_at,
		COUNT(DISTINCT g.id),
		COUNT(DISTINCT r.id) FILTER (WHERE r.status = 'confirmed')
		FROM events e
		LEFT JOIN guests g ON g.event_id = e.id
		LEFT JOIN rsvps r ON r.event_id = e.id
		WHERE e.org_id = $1
		GROUP BY e.id
		ORDER BY e.created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
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

// Update updates editable event fields.
func (r *Repository) Update(ctx context.Context, id, orgID uuid.UUID, title, description, location, status string, startsAt, endsAt *time.Time) error {
	const q = `UPDATE events SET title = $1, description = $2, location = $3, status = $4,
		starts_at = COALESCE($5, starts_at), ends_at = COALESCE($6, ends_at), updated_at = NOW()
		WHERE id = $7 AND org_id = $8`
	_, err := r.pool.Exec(ctx, q, title, description, location, status, startsAt, endsAt, id, orgID)
	return err
}

// UpdateCoverURL stores the S3 URL of the event's cover image.
func (r *Repository) UpdateCoverURL(ctx context.Context, id, orgID uuid.UUID, coverURL string) error {
	const q = `UPDATE events SET cover_url = $1, updated_at = NOW() WHERE id = $2 AND org_id = $3`
	_, err := r.pool.Exec(ctx, q, coverURL, id, orgID)
	return err
}

// Delete removes an event; guests, RSVPs and messages cascade.
func (r *Repository) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	const q = `DELETE FROM events WHERE id = $1 AND org_id = $2`
	_, err := r.pool.Exec(ctx, q, id, orgID)
	return err
}
