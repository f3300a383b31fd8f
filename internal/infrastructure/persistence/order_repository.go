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

// GormOrderRepository implements logistics.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

var _ logistics.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its local ID
func (r *GormOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*logistics.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logistics.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds the order bound to (tenantID, externalID)
func (r *GormOrderRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*logistics.Order, error) {
	if externalID == "" {
		return nil, logistics.ErrOrderNotFound
	}
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("tenant_id = ? AND external_id = ?", tenantID, externalID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logistics.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByOrderNumber finds the order with the human-readable number
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*logistics.Order, error) {
	if orderNumber == "" {
		return nil, logistics.ErrOrderNotFound
	}
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		Where("tenant_id = ? AND order_number = ?", tenantID, orderNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, logistics.ErrOrderNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the order together with its line items. The
// line set is replaced wholesale inside one transaction so a merge is a
// single atomic read-modify-write.
func (r *GormOrderRepository) Save(ctx context.Context, order *logistics.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	model := models.OrderModelFromDomain(order)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", model.ID).
			Delete(&models.OrderLineItemModel{}).Error; err != nil {
			return err
		}
		return tx.Save(model).Error
	})
}

// CountForTenant returns the number of orders for a tenant
func (r *GormOrderRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
