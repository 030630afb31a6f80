package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/convivo/backend/internal/middleware"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/pkg/response"
)

// ContextOrg is the gin context key for the caller's resolved organization.
const ContextOrg = "organization"

// RequireOrg resolves the authenticated user's organization and sets it in
// context. Call after the JWT middleware. A user without an organization
// cannot reach any org-scoped resource.
func RequireOrg(repo *Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		org, err := repo.GetByUser(c.Request.Context(), userID)
		if err != nil || org == nil {
			response.Forbidden(c, "no organization for this account")
			c.Abort()
			return
		}
		c.Set(ContextOrg, org)
		c.Next()
	}
}

// OrgFromContext returns the organization set by RequireOrg.
func OrgFromContext(c *gin.Context) *models.Organization {
	return c.MustGet(ContextOrg).(*models.Organization)
}
