package dashboard

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/organizations"
	"github.com/convivo/backend/pkg/response"
)

// Handler handles the dashboard endpoint.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a dashboard handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Get handles GET /dashboard: aggregate counters plus recent events.
func (h *Handler) Get(c *gin.Context) {
	org := organizations.OrgFromContext(c)

	stats, err := h.repo.GetStats(c.Request.Context(), org.ID)
	if err != nil {
		h.logger.Error("dashboard stats failed", zap.Error(err), zap.String("org_id", org.ID.String()))
		response.Internal(c, "failed to load dashboard")
		return
	}
	recent, err := h.repo.RecentEvents(c.Request.Context(), org.ID, 5)
	if err != nil {
		h.logger.Error("recent events failed", zap.Error(err), zap.String("org_id", org.ID.String()))
		response.Internal(c, "failed to load dashboard")
		return
	}

	response.OK(c, gin.H{
		"stats":         stats,
		"recent_events": recent,
	})
}
