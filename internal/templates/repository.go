package templates

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convivo/backend/internal/models"
)

// Repository handles message template persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a templates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new template.
func (r *Repository) Create(ctx context.Context, t *models.Template) error {
	const q = `INSERT INTO message_templates (id, org_id, name, body_text, channel)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.OrgID, t.Name, t.BodyText, t.Channel).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByIDForOrg returns a template by ID scoped to the organization.
func (r *Repository) GetByIDForOrg(ctx context.Context, id, orgID uuid.UUID) (*models.Template, error) {
	const q = `SELECT id, org_id, name, body_text, channel, created_at, updated_at
		FROM message_templates WHERE id = $1 AND org_id = $2`
	var t models.Template
	err := r.pool.QueryRow(ctx, q, id, orgID).
		Scan(&t.ID, &t.OrgID, &t.Name, &t.BodyText, &t.Channel, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByOrg returns the organization's templates, newest first.
func (r *Repository) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]models.Template, error) {
	const q = `SELECT id, org_id, name, body_text, channel, created_at, updated_at
		FROM message_templates WHERE org_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Template
	for rows.Next() {
		var t models.Template
		if err := rows.Scan(&t.ID, &t.OrgID, &t.Name, &t.BodyText, &t.Channel, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

// Update updates name and body text.
func (r *Repository) Update(ctx context.Context, id, orgID uuid.UUID, name, bodyText string) error {
	const q = `UPDATE message_templates SET name = $1, body_text = $2, updated_at = NOW()
		WHERE id = $3 AND org_id = $4`
	_, err := r.pool.Exec(ctx, q, name, bodyText, id, orgID)
	return err
}

// Delete removes a template.
func (r *Repository) Delete(ctx context.Context, id, orgID uuid.UUID) error {
	const q = `DELETE FROM message_templates WHERE id = $1 AND org_id = $2`
	_, err := r.pool.Exec(ctx, q, id, orgID)
	return err
}
