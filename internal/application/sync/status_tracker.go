package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
)

// StatusTracker records the durable outcome of every session and webhook
// batch, one row per (tenant, data type). Operators and the scheduler's
// cadence decisions both read from it.
type StatusTracker struct {
	repo   syncdomain.StatusRepository
	logger *zap.Logger
}

// NewStatusTracker creates a StatusTracker
func NewStatusTracker(repo syncdomain.StatusRepository, logger *zap.Logger) *StatusTracker {
	return &StatusTracker{repo: repo, logger: logger}
}

// errorDetail is the structured error context stored on a status row
type errorDetail struct {
	FailedStrategies []string `json:"failed_strategies,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// Record upserts the status row for (tenantID, dataType). A persistence
// failure here is logged, not propagated: status bookkeeping must never
// fail a sync that already did its work.
func (t *StatusTracker) Record(
	ctx context.Context,
	tenantID uuid.UUID,
	dataType syncdomain.DataType,
	outcome syncdomain.Outcome,
	processed, errorCount int,
	failedStrategies []string,
	message string,
	nextRunAt *time.Time,
) {
	detail := ""
	if len(failedStrategies) > 0 || message != "" {
		if raw, err := json.Marshal(errorDetail{
			FailedStrategies: failedStrategies,
			Message:          message,
		}); err == nil {
			detail = string(raw)
		}
	}

	status := &syncdomain.Status{
		TenantID:         tenantID,
		DataType:         dataType,
		LastRunAt:        time.Now(),
		Outcome:          outcome,
		RecordsProcessed: processed,
		ErrorCount:       errorCount,
		ErrorDetail:      detail,
		NextRunAt:        nextRunAt,
	}

	if err := t.repo.Upsert(ctx, status); err != nil {
		t.logger.Error("Failed to record sync status",
			zap.String("tenant_id", tenantID.String()),
			zap.String("data_type", dataType.String()),
			zap.Error(err),
		)
	}
}

// GetStatus returns the latest status row for (tenantID, dataType)
func (t *StatusTracker) GetStatus(ctx context.Context, tenantID uuid.UUID, dataType syncdomain.DataType) (*syncdomain.Status, error) {
	return t.repo.Get(ctx, tenantID, dataType)
}

// ListStatuses returns all status rows for a tenant
func (t *StatusTracker) ListStatuses(ctx context.Context, tenantID uuid.UUID) ([]syncdomain.Status, error) {
	return t.repo.ListForTenant(ctx, tenantID)
}
