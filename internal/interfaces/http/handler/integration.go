package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
	"github.com/fulfillhub/backend/internal/interfaces/http/dto"
	"github.com/fulfillhub/backend/internal/interfaces/http/middleware"
)

// IntegrationHandler manages a tenant's external-system connection
type IntegrationHandler struct {
	BaseHandler
	credentials syncdomain.CredentialStore
	tenants     tenant.Repository
	logger      *zap.Logger
}

// NewIntegrationHandler creates a new IntegrationHandler
func NewIntegrationHandler(credentials syncdomain.CredentialStore, tenants tenant.Repository, logger *zap.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		credentials: credentials,
		tenants:     tenants,
		logger:      logger.Named("integration_handler"),
	}
}

// RegisterRoutes registers integration routes on the API group
func (h *IntegrationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tenants := rg.Group("/tenants/:id")
	{
		tenants.PUT("/integration", h.Connect)
		tenants.GET("/integration", h.GetStatus)
		tenants.DELETE("/integration", h.Disconnect)
	}
}

// Connect links the tenant to an external system. A tenant holds at most
// one active connection; connecting a second family requires an explicit
// disconnect first, since no merge precedence exists between two live
// systems.
func (h *IntegrationHandler) Connect(c *gin.Context) {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return
	}

	var req dto.ConnectIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	creds := req.Credentials()
	if err := creds.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	tn, err := h.tenants.FindByID(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if tn.IsConnected() && tn.SystemFamily != nil && *tn.SystemFamily != creds.SystemFamily {
		h.Conflict(c, "tenant already connected to "+tn.SystemFamily.String()+"; disconnect first")
		return
	}

	if err := h.credentials.SetCredentials(c.Request.Context(), tenantID, creds); err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("integration connected",
		zap.String("tenant_id", tenantID.String()),
		zap.String("system_family", creds.SystemFamily.String()),
	)

	tn, err = h.tenants.FindByID(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewIntegrationStatusResponse(tn))
}

// GetStatus reports the tenant's connection state
func (h *IntegrationHandler) GetStatus(c *gin.Context) {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return
	}

	tn, err := h.tenants.FindByID(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewIntegrationStatusResponse(tn))
}

// Disconnect tears down the tenant's integration. Synced orders, products
// and inventory records are retained.
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return
	}

	if err := h.credentials.ClearCredentials(c.Request.Context(), tenantID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("integration disconnected", zap.String("tenant_id", tenantID.String()))
	h.NoContent(c)
}
