package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant. Every event, guest, template, message and
// WhatsApp instance belongs to exactly one organization.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Organization member roles.
const (
	OrgRoleOwner  = "owner"
	OrgRoleMember = "member"
)

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}
