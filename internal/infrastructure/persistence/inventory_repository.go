package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fulfillhub/backend/internal/domain/logistics"
	"github.com/fulfillhub/backend/internal/infrastructure/persistence/models"
)

// GormInventoryRepository implements logistics.InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

var _ logistics.InventoryRepository = (*GormInventoryRepository)(nil)

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// FindByExternalID finds the record bound to (tenantID, externalID)
func (r *GormInventoryRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*logistics.InventoryRecord, error) {
	if externalID == "" {
		return nil, logistics.ErrInventoryNotFound
	}
	var model models.InventoryRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logistics.ErrInventoryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySKUAndWarehouse finds the record for (tenantID, sku, warehouseID)
func (r *GormInventoryRepository) FindBySKUAndWarehouse(ctx context.Context, tenantID uuid.UUID, sku, warehouseID string) (*logistics.InventoryRecord, error) {
	if sku == "" {
		return nil, logistics.ErrInventoryNotFound
	}
	var model models.InventoryRecordModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sku = ? AND warehouse_id = ?", tenantID, sku, warehouseID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logistics.ErrInventoryNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an inventory record
func (r *GormInventoryRepository) Save(ctx context.Context, record *logistics.InventoryRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	model := models.InventoryRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Save(model).Error
}
