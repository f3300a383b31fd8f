package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/interfaces/http/dto"
)

// SyncService runs sync sessions and manages per-tenant credit budgets
type SyncService interface {
	RunSession(ctx context.Context, tenantID uuid.UUID) (*syncdomain.Session, error)
	ResetBudget(tenantID uuid.UUID) int
	BudgetRemaining(tenantID uuid.UUID) int
}

// SyncHandler handles sync session and status API endpoints
type SyncHandler struct {
	BaseHandler
	service  SyncService
	statuses syncdomain.StatusRepository
	logger   *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService, statuses syncdomain.StatusRepository, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		service:  service,
		statuses: statuses,
		logger:   logger.Named("sync_handler"),
	}
}

// RegisterRoutes registers sync routes on the API group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tenants := rg.Group("/tenants/:id")
	{
		tenants.POST("/sync", h.TriggerSync)
		tenants.GET("/sync/status", h.GetSyncStatus)
		tenants.GET("/sync/budget", h.GetBudget)
		tenants.POST("/sync/budget/reset", h.ResetBudget)
	}
}

// TriggerSync runs a sync session for the tenant and returns its summary.
// A session already in flight for the tenant is rejected with 409; callers
// retry later rather than queueing.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return
	}

	session, err := h.service.RunSession(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.logger.Info("manual sync session finished",
		zap.String("tenant_id", tenantID.String()),
		zap.String("session_id", session.ID.String()),
		zap.String("status", string(session.Status)),
	)
	h.Success(c, dto.NewSessionResponse(session))
}

// GetSyncStatus returns the latest per-data-type sync status rows
func (h *SyncHandler) GetSyncStatus(c *gin.Context) {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return
	}

	statuses, err := h.statuses.ListForTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.SyncStatusResponse, len(statuses))
	for i := range statuses {
		responses[i] = dto.NewSyncStatusResponse(&statuses[i])
	}
	h.Success(c, responses)
}

// GetBudget returns the tenant's remaining credit allowance
func (h *SyncHandler) GetBudget(c *gin.Context) {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return
	}

	h.Success(c, dto.BudgetResponse{
		TenantID:  tenantID,
		Remaining: h.service.BudgetRemaining(tenantID),
	})
}

// ResetBudget restores the tenant's credit allowance to its initial value.
// This is the only path that replenishes credits; failed strategies are
// never refunded.
func (h *SyncHandler) ResetBudget(c *gin.Context) {
	tenantID, err := tenantIDParam(c)
	if err != nil {
		h.BadRequest(c, "invalid tenant id")
		return
	}

	remaining := h.service.ResetBudget(tenantID)
	h.logger.Info("credit budget reset",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("remaining", remaining),
	)
	h.Success(c, dto.BudgetResponse{TenantID: tenantID, Remaining: remaining})
}
