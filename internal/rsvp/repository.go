package rsvp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/convivo/backend/internal/models"
)

// Repository handles public RSVP persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an RSVP repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Confirm registers an attendee plus their companions in one transaction. The
// primary guest gets the given RSVP status; companions are only created when
// the primary confirms and carry a confirmed RSVP of their own.
func (r *Repository) Confirm(ctx context.Context, event *models.Event, name, phone, email, status string, companions []string) (*models.Guest, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	primary, err := insertGuest(ctx, tx, event, name, phone, email, nil, status)
	if err != nil {
		return nil, err
	}
	if status == models.RSVPStatusConfirmed {
		for _, companion := range companions {
			if companion == "" {
				continue
			}
			if _, err := insertGuest(ctx, tx, event, companion, "", "", &primary.ID, models.RSVPStatusConfirmed); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return primary, nil
}

func insertGuest(ctx context.Context, tx pgx.Tx, event *models.Event, name, phone, email string, companionOf *uuid.UUID, status string) (*models.Guest, error) {
	g := models.Guest{
		OrgID:       event.OrgID,
		EventID:     event.ID,
		Name:        name,
		Phone:       phone,
		Email:       email,
		CompanionOf: companionOf,
	}
	const q = `INSERT INTO guests (id, org_id, event_id, name, phone_e164, email, companion_of)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, NULLIF($5,''), $6)
		RETURNING id, created_at`
	if err := tx.QueryRow(ctx, q, g.OrgID, g.EventID, g.Name, g.Phone, g.Email, g.CompanionOf).
		Scan(&g.ID, &g.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert guest: %w", err)
	}
	const rq = `INSERT INTO rsvps (id, event_id, guest_id, status)
		VALUES (gen_random_uuid(), $1, $2, $3)`
	if _, err := tx.Exec(ctx, rq, g.EventID, g.ID, status); err != nil {
		return nil, fmt.Errorf("insert rsvp: %w", err)
	}
	return &g, nil
}
