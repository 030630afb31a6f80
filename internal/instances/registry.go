// Package instances tracks the per-organization WhatsApp instance and its
// connection state. Dispatch reads it; the webhook ingestor writes it.
package instances

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/models"
)

// ErrNotFound means no WhatsApp instance is provisioned for the organization.
var ErrNotFound = errors.New("whatsapp instance not found")

// Registry is the Postgres-backed instance registry. Reads always observe a
// fully committed state; writes are last-write-wins with no transition
// validation (the provider owns connection semantics).
type Registry struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRegistry creates an instance registry.
func NewRegistry(pool *pgxpool.Pool, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{pool: pool, logger: logger}
}

// Create provisions the instance row for an organization (1:1).
func (r *Registry) Create(ctx context.Context, inst *models.WhatsAppInstance) error {
	const q = `INSERT INTO wa_instances (id, org_id, instance_id, status, qr_code, webhook_url)
		VALUES (gen_random_uuid(), $1, $2, $3, NULLIF($4,''), NULLIF($5,''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, inst.OrgID, inst.InstanceID, inst.Status, inst.QRCode, inst.WebhookURL).
		Scan(&inst.ID, &inst.CreatedAt, &inst.UpdatedAt)
}

// GetByOrg returns the organization's instance, or ErrNotFound.
func (r *Registry) GetByOrg(ctx context.Context, orgID uuid.UUID) (*models.WhatsAppInstance, error) {
	const q = `SELECT id, org_id, instance_id, status, COALESCE(qr_code,''), COALESCE(webhook_url,''), created_at, updated_at
		FROM wa_instances WHERE org_id = $1`
	var inst models.WhatsAppInstance
	err := r.pool.QueryRow(ctx, q, orgID).
		Scan(&inst.ID, &inst.OrgID, &inst.InstanceID, &inst.Status, &inst.QRCode, &inst.WebhookURL, &inst.CreatedAt, &inst.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// ApplyConnectionState records a provider-reported connection state for the
// organization's instance. Idempotent: re-applying the current state touches
// nothing. An unknown org is a no-op logged as a warning, since the webhook may
// race instance provisioning.
func (r *Registry) ApplyConnectionState(ctx context.Context, orgID uuid.UUID, state string) error {
	const q = `UPDATE wa_instances SET status = $2, updated_at = NOW()
		WHERE org_id = $1 AND status IS DISTINCT FROM $2`
	tag, err := r.pool.Exec(ctx, q, orgID, state)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		r.logger.Info("instance state updated",
			zap.String("org_id", orgID.String()), zap.String("state", state))
		return nil
	}
	// Either a duplicate event (same state) or an unprovisioned org.
	if _, err := r.GetByOrg(ctx, orgID); errors.Is(err, ErrNotFound) {
		r.logger.Warn("connection event for unknown org ignored",
			zap.String("org_id", orgID.String()), zap.String("state", state))
	}
	return nil
}

// UpdateQRCode stores the latest pairing QR code for the organization's instance.
func (r *Registry) UpdateQRCode(ctx context.Context, orgID uuid.UUID, qrCode string) error {
	const q = `UPDATE wa_instances SET qr_code = NULLIF($2,''), updated_at = NOW() WHERE org_id = $1`
	_, err := r.pool.Exec(ctx, q, orgID, qrCode)
	return err
}
