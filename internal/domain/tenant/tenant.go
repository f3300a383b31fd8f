package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fulfillhub/backend/internal/domain/sync"
)

var (
	ErrTenantNotFound = errors.New("tenant: not found")
	ErrInvalidTenant  = errors.New("tenant: invalid tenant")
)

// Tenant is a brand/organization with at most one active external-system
// connection. Dual connections are rejected at configuration time; the
// platform does not define a merge precedence between two live systems.
type Tenant struct {
	ID   uuid.UUID
	Name string
	Slug string

	IntegrationStatus sync.IntegrationStatus
	// SystemFamily is nil while disconnected
	SystemFamily *sync.SystemFamily
	APIKey       string
	AccessToken  string
	ConnectionID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsConnected returns true when the tenant has a usable integration
func (t *Tenant) IsConnected() bool {
	return t.IntegrationStatus == sync.IntegrationStatusConnected
}

// Credentials materializes the tenant's stored credentials, or nil when
// no integration is configured.
func (t *Tenant) Credentials() *sync.Credentials {
	if t.SystemFamily == nil {
		return nil
	}
	return &sync.Credentials{
		SystemFamily: *t.SystemFamily,
		APIKey:       t.APIKey,
		AccessToken:  t.AccessToken,
		ConnectionID: t.ConnectionID,
	}
}

// Repository persists tenants and their integration state
type Repository interface {
	// FindByID returns a tenant or ErrTenantNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindByConnectionID resolves the tenant that owns an external
	// connection, used by webhook dispatch, or ErrTenantNotFound
	FindByConnectionID(ctx context.Context, connectionID string) (*Tenant, error)

	// ListConnected returns all tenants with a CONNECTED integration
	ListConnected(ctx context.Context) ([]Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, t *Tenant) error

	// UpdateIntegrationStatus flips only the integration status field
	UpdateIntegrationStatus(ctx context.Context, id uuid.UUID, status sync.IntegrationStatus) error
}
