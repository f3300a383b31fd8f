package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
	"github.com/fulfillhub/backend/internal/infrastructure/persistence/models"
)

// GormTenantRepository implements tenant.Repository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

var _ tenant.Repository = (*GormTenantRepository)(nil)

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var model models.TenantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByConnectionID finds the tenant that owns an external connection
func (r *GormTenantRepository) FindByConnectionID(ctx context.Context, connectionID string) (*tenant.Tenant, error) {
	if connectionID == "" {
		return nil, tenant.ErrTenantNotFound
	}
	var model models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListConnected returns all tenants with a CONNECTED integration
func (r *GormTenantRepository) ListConnected(ctx context.Context) ([]tenant.Tenant, error) {
	var tenantModels []models.TenantModel
	if err := r.db.WithContext(ctx).
		Where("integration_status = ?", syncdomain.IntegrationStatusConnected).
		Order("created_at ASC").
		Find(&tenantModels).Error; err != nil {
		return nil, err
	}

	tenants := make([]tenant.Tenant, len(tenantModels))
	for i, model := range tenantModels {
		tenants[i] = *model.ToDomain()
	}
	return tenants, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, t *tenant.Tenant) error {
	model := models.TenantModelFromDomain(t)
	return r.db.WithContext(ctx).Save(model).Error
}

// UpdateIntegrationStatus flips only the integration status field
func (r *GormTenantRepository) UpdateIntegrationStatus(ctx context.Context, id uuid.UUID, status syncdomain.IntegrationStatus) error {
	result := r.db.WithContext(ctx).Model(&models.TenantModel{}).
		Where("id = ?", id).
		Update("integration_status", string(status))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
