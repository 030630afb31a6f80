package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/convivo/backend/internal/evolution"
	"github.com/convivo/backend/internal/instances"
	"github.com/convivo/backend/internal/models"
	"github.com/convivo/backend/internal/organizations"
	"github.com/convivo/backend/pkg/response"
	"github.com/convivo/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	OrgName  string `json:"org_name"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string               `json:"token"`
	User  models.UserPublic    `json:"user"`
	Org   *models.Organization `json:"org,omitempty"`
}

// Handler handles auth HTTP endpoints. Registration also bootstraps the
// organizer's organization and its WhatsApp instance.
type Handler struct {
	repo     *Repository
	orgs     *organizations.Repository
	registry *instances.Registry
	provider evolution.Client
	jwt      *JWTService
	logger   *zap.Logger
}

// NewHandler creates an auth handler. provider may be nil; instance
// provisioning is then skipped.
func NewHandler(repo *Repository, orgs *organizations.Repository, registry *instances.Registry, provider evolution.Client, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, orgs: orgs, registry: registry, provider: provider, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register. Creates the user, their organization
// and kicks off WhatsApp instance provisioning. Provisioning failures are
// logged but never fail registration; the instance stays uninitialized until
// the provider is reachable.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName)
	if err != nil {
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	orgName := strings.TrimSpace(req.OrgName)
	if orgName == "" {
		orgName = req.FullName
	}
	org := &models.Organization{Name: orgName, OwnerID: user.ID}
	if err := h.orgs.Create(c.Request.Context(), org); err != nil {
		h.logger.Error("create org failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to create organization")
		return
	}
	if err := h.orgs.AddMember(c.Request.Context(), org.ID, user.ID, models.OrgRoleOwner); err != nil {
		h.logger.Error("add owner membership failed", zap.Error(err), zap.String("org_id", org.ID.String()))
		response.Internal(c, "failed to create organization")
		return
	}

	h.provisionInstance(c, org)

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.Created(c, TokenResponse{Token: token, User: user.ToPublic(), Org: org})
}

// provisionInstance creates the org's provider instance, points its webhook at
// us and records it in the registry. Best effort only.
func (h *Handler) provisionInstance(c *gin.Context, org *models.Organization) {
	ctx := c.Request.Context()
	orgID := org.ID.String()

	inst := &models.WhatsAppInstance{
		OrgID:  org.ID,
		Status: models.InstanceStateUninitialized,
	}

	if h.provider == nil {
		if err := h.registry.Create(ctx, inst); err != nil {
			h.logger.Error("instance registry write failed", zap.Error(err), zap.String("org_id", orgID))
		}
		return
	}

	created, err := h.provider.CreateInstance(ctx, orgID)
	if err != nil {
		h.logger.Warn("instance provisioning failed, will stay uninitialized",
			zap.Error(err), zap.String("org_id", orgID))
		inst.InstanceID = "org-" + orgID
		if err := h.registry.Create(ctx, inst); err != nil {
			h.logger.Error("instance registry write failed", zap.Error(err), zap.String("org_id", orgID))
		}
		return
	}

	webhookURL := h.provider.WebhookURL(orgID)
	if err := h.provider.SetWebhook(ctx, created.InstanceID, webhookURL); err != nil {
		h.logger.Warn("webhook registration failed", zap.Error(err), zap.String("org_id", orgID))
	}

	inst.InstanceID = created.InstanceID
	inst.QRCode = created.QRCode
	inst.WebhookURL = webhookURL
	if state, ok := instances.MapProviderState(created.State); ok {
		inst.Status = state
	}
	if err := h.registry.Create(ctx, inst); err != nil {
		h.logger.Error("instance registry write failed", zap.Error(err), zap.String("org_id", orgID))
	}
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}
	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}
