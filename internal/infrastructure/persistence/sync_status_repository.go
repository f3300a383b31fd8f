package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/infrastructure/persistence/models"
)

// GormSyncStatusRepository implements sync.StatusRepository using GORM
type GormSyncStatusRepository struct {
	db *gorm.DB
}

var _ syncdomain.StatusRepository = (*GormSyncStatusRepository)(nil)

// NewGormSyncStatusRepository creates a new GormSyncStatusRepository
func NewGormSyncStatusRepository(db *gorm.DB) *GormSyncStatusRepository {
	return &GormSyncStatusRepository{db: db}
}

// Upsert creates or replaces the row for (status.TenantID, status.DataType)
func (r *GormSyncStatusRepository) Upsert(ctx context.Context, status *syncdomain.Status) error {
	model := models.SyncStatusModelFromDomain(status)
	model.ID = uuid.New()
	model.UpdatedAt = time.Now()

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}, {Name: "data_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"last_run_at", "outcome", "records_processed",
			"error_count", "error_detail", "next_run_at", "updated_at",
		}),
	}).Create(model).Error
}

// Get returns the row for (tenantID, dataType)
func (r *GormSyncStatusRepository) Get(ctx context.Context, tenantID uuid.UUID, dataType syncdomain.DataType) (*syncdomain.Status, error) {
	var model models.SyncStatusModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND data_type = ?", tenantID, string(dataType)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, syncdomain.ErrStatusNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListForTenant returns all status rows for a tenant
func (r *GormSyncStatusRepository) ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]syncdomain.Status, error) {
	var statusModels []models.SyncStatusModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("data_type ASC").
		Find(&statusModels).Error; err != nil {
		return nil, err
	}

	statuses := make([]syncdomain.Status, len(statusModels))
	for i, model := range statusModels {
		statuses[i] = *model.ToDomain()
	}
	return statuses, nil
}
