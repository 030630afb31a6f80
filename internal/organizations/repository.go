package organizations

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convivo/backend/internal/models"
)

// Repository handles organization and membership persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an organizations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create creates an organization.
func (r *Repository) Create(ctx context.Context, org *models.Organization) error {
	const q = `INSERT INTO organizations (id, name, owner_id)
		VALUES (gen_random_uuid(), $1, $2)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, org.Name, org.OwnerID).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
}

// GetByID returns an organization by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	const q = `SELECT id, name, owner_id, created_at, updated_at FROM organizations WHERE id = $1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, id).Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// GetByUser returns the organization the user belongs to. Each organizer
// account belongs to exactly one organization (created at registration).
func (r *Repository) GetByUser(ctx context.Context, userID uuid.UUID) (*models.Organization, error) {
	const q = `SELECT o.id, o.name, o.owner_id, o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN org_members m ON m.org_id = o.id
		WHERE m.user_id = $1
		ORDER BY m.created_at ASC
		LIMIT 1`
	var org models.Organization
	err := r.pool.QueryRow(ctx, q, userID).Scan(&org.ID, &org.Name, &org.OwnerID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// AddMember adds a user to an organization with a role.
func (r *Repository) AddMember(ctx context.Context, orgID, userID uuid.UUID, role string) error {
	const q = `INSERT INTO org_members (id, org_id, user_id, role)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (org_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	_, err := r.pool.Exec(ctx, q, orgID, userID, role)
	return err
}

// IsMember returns true if the user belongs to the organization.
func (r *Repository) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	const q = `SELECT 1 FROM org_members WHERE org_id = $1 AND user_id = $2`
	var one int
	if err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&one); err != nil {
		return false, nil
	}
	return true, nil
}
