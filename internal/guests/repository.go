package guests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convivo/backend/internal/models"
)

// Repository handles guest and RSVP persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a guests repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a guest and a default pending RSVP.
func (r *Repository) Create(ctx context.Context, g *models.Guest) error {
	const q = `INSERT INTO guests (id, org_id, event_id, name, phone_e164, email, tag, companion_of)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''), NULLIF($6,''), $7)
		RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, g.OrgID, g.EventID, g.Name, g.Phone, g.Email, g.Tag, g.CompanionOf).
		Scan(&g.ID, &g.CreatedAt); err != nil {
		return err
	}
	const rq = `INSERT INTO rsvps (id, event_id, guest_id, status)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (event_id, guest_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, rq, g.EventID, g.ID, models.RSVPStatusPending)
	return err
}

// GetByIDs resolves guest IDs to guests of the given event. IDs that do not
// resolve are simply absent from the returned map.
func (r *Repository) GetByIDs(ctx context.Context, eventID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*models.Guest, error) {
	const q = `SELECT id, org_id, event_id, name, phone_e164, COALESCE(email,''), COALESCE(tag,''), companion_of, created_at
		FROM guests WHERE event_id = $1 AND id = ANY($2)`
	rows, err := r.pool.Query(ctx, q, eventID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*models.Guest, len(ids))
	for rows.Next() {
		var g models.Guest
		if err := rows.Scan(&g.ID, &g.OrgID, &g.EventID, &g.Name, &g.Phone, &g.Email, &g.Tag, &g.CompanionOf, &g.CreatedAt); err != nil {
			return nil, err
		}
		out[g.ID] = &g
	}
	return out, rows.Err()
}

// ListByEvent returns the event's guests with their RSVP status.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]GuestWithRSVP, error) {
	const q = `SELECT g.id, g.org_id, g.event_id, g.name, g.phone_e164, COALESCE(g.email,''), COALESCE(g.tag,''), g.companion_of, g.created_at,
		COALESCE(r.status, 'pending')
		FROM guests g
		LEFT JOIN rsvps r ON r.guest_id = g.id AND r.event_id = g.event_id
		WHERE g.event_id = $1
		ORDER BY g.created_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []GuestWithRSVP
	for rows.Next() {
		var g GuestWithRSVP
		if err := rows.Scan(&g.ID, &g.OrgID, &g.EventID, &g.Name, &g.Phone, &g.Email, &g.Tag, &g.CompanionOf, &g.CreatedAt, &g.RSVPStatus); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

// GuestWithRSVP is a guest joined with their RSVP status for list views.
type GuestWithRSVP struct {
	models.Guest
	RSVPStatus string `json:"rsvp_status"`
}

// ListPendingIDs returns IDs of the event's guests whose RSVP is still pending.
// Used by the reminder pipeline.
func (r *Repository) ListPendingIDs(ctx context.Context, eventID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT g.id FROM guests g
		INNER JOIN rsvps r ON r.guest_id = g.id AND r.event_id = g.event_id
		WHERE g.event_id = $1 AND r.status = $2
		ORDER BY g.created_at ASC`
	rows, err := r.pool.Query(ctx, q, eventID, models.RSVPStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes a guest (and their RSVP via FK cascade), org-scoped.
func (r *Repository) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	const q = `DELETE FROM guests WHERE id = $1 AND org_id = $2`
	_, err := r.pool.Exec(ctx, q, id, orgID)
	return err
}
