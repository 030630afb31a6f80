package messages

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convivo/backend/internal/models"
)

// Repository handles the per-guest message log.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a messages repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create records one dispatch outcome.
func (r *Repository) Create(ctx context.Context, m *models.Message) error {
	const q = `INSERT INTO messages (id, org_id, event_id, guest_id, status, payload)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	payload := m.Payload
	if payload == nil {
		payload = json.RawMessage("{}")
	}
	return r.pool.QueryRow(ctx, q, m.OrgID, m.EventID, m.GuestID, m.Status, payload).
		Scan(&m.ID, &m.CreatedAt)
}

// ListByEvent returns the event's message log, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Message, error) {
	const q = `SELECT id, org_id, event_id, guest_id, status, payload, created_at
		FROM messages WHERE event_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.OrgID, &m.EventID, &m.GuestID, &m.Status, &m.Payload, &m.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
