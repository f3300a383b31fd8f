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

// GormCredentialStore implements sync.CredentialStore on top of the
// tenants table: credentials are columns of the tenant row, so store and
// status flips stay in one write.
type GormCredentialStore struct {
	db *gorm.DB
}

var _ syncdomain.CredentialStore = (*GormCredentialStore)(nil)

// NewGormCredentialStore creates a new GormCredentialStore
func NewGormCredentialStore(db *gorm.DB) *GormCredentialStore {
	return &GormCredentialStore{db: db}
}

// GetCredentials returns the tenant's credentials or ErrNotConfigured.
// A tenant without a system family, or one explicitly disconnected, is
// not configured; that is a normal outcome for callers to branch on.
func (s *GormCredentialStore) GetCredentials(ctx context.Context, tenantID uuid.UUID) (*syncdomain.Credentials, error) {
	var model models.TenantModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}

	t := model.ToDomain()
	if t.SystemFamily == nil || t.IntegrationStatus == syncdomain.IntegrationStatusDisconnected {
		return nil, syncdomain.ErrNotConfigured
	}

	creds := t.Credentials()
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return creds, nil
}

// SetCredentials stores credentials on the tenant record and marks the
// integration CONNECTED.
func (s *GormCredentialStore) SetCredentials(ctx context.Context, tenantID uuid.UUID, creds syncdomain.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	family := string(creds.SystemFamily)
	result := s.db.WithContext(ctx).Model(&models.TenantModel{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"system_family":      family,
			"api_key":            creds.APIKey,
			"access_token":       creds.AccessToken,
			"connection_id":      creds.ConnectionID,
			"integration_status": string(syncdomain.IntegrationStatusConnected),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// ClearCredentials removes the tenant's credentials. Synced orders and
// products are retained; only the connection is torn down.
func (s *GormCredentialStore) ClearCredentials(ctx context.Context, tenantID uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.TenantModel{}).
		Where("id = ?", tenantID).
		Updates(map[string]any{
			"system_family":      nil,
			"api_key":            "",
			"access_token":       "",
			"connection_id":      "",
			"integration_status": string(syncdomain.IntegrationStatusDisconnected),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}
