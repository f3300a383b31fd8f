package sync

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SystemFamily
// ---------------------------------------------------------------------------

// SystemFamily identifies the family of external system a tenant is
// connected to: a WMS reached directly, or one reached through the
// WMS-aggregation provider.
type SystemFamily string

const (
	// SystemFamilyShipHero is the direct ShipHero WMS integration
	SystemFamilyShipHero SystemFamily = "SHIPHERO"
	// SystemFamilyTrackstar is the Trackstar WMS-aggregation integration
	SystemFamilyTrackstar SystemFamily = "TRACKSTAR"
)

// IsValid returns true if the system family is known
func (f SystemFamily) IsValid() bool {
	switch f {
	case SystemFamilyShipHero, SystemFamilyTrackstar:
		return true
	default:
		return false
	}
}

// String returns the string representation of SystemFamily
func (f SystemFamily) String() string {
	return string(f)
}

// ---------------------------------------------------------------------------
// IntegrationStatus
// ---------------------------------------------------------------------------

// IntegrationStatus represents the lifecycle state of a tenant's WMS connection
type IntegrationStatus string

const (
	IntegrationStatusDisconnected IntegrationStatus = "DISCONNECTED"
	IntegrationStatusConnecting   IntegrationStatus = "CONNECTING"
	IntegrationStatusConnected    IntegrationStatus = "CONNECTED"
	IntegrationStatusError        IntegrationStatus = "ERROR"
)

// IsValid returns true if the status is valid
func (s IntegrationStatus) IsValid() bool {
	switch s {
	case IntegrationStatusDisconnected, IntegrationStatusConnecting,
		IntegrationStatusConnected, IntegrationStatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation of IntegrationStatus
func (s IntegrationStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// Credentials holds a tenant's external-system credentials. Which fields
// are populated depends on the system family: ShipHero uses the access
// token alone, Trackstar pairs the platform API key with the per-tenant
// connection access token.
type Credentials struct {
	// SystemFamily identifies which adapter these credentials are for
	SystemFamily SystemFamily
	// APIKey is the platform-level API key (Trackstar)
	APIKey string
	// AccessToken is the tenant-scoped access token
	AccessToken string
	// ConnectionID is the external connection identifier assigned by the
	// aggregator when the tenant linked their WMS
	ConnectionID string
}

// Validate checks that the credentials are usable for their system family
func (c *Credentials) Validate() error {
	if !c.SystemFamily.IsValid() {
		return ErrUnknownSystemFamily
	}
	switch c.SystemFamily {
	case SystemFamilyShipHero:
		if c.AccessToken == "" {
			return ErrInvalidCredentials
		}
	case SystemFamilyTrackstar:
		if c.APIKey == "" || c.AccessToken == "" {
			return ErrInvalidCredentials
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// CredentialStore Port
// ---------------------------------------------------------------------------

// CredentialStore provides access to per-tenant external-system credentials.
// GetCredentials returns ErrNotConfigured when the tenant has no active
// integration; this is a normal outcome, not a failure.
type CredentialStore interface {
	// GetCredentials returns the tenant's credentials or ErrNotConfigured
	GetCredentials(ctx context.Context, tenantID uuid.UUID) (*Credentials, error)

	// SetCredentials stores credentials on the tenant record
	SetCredentials(ctx context.Context, tenantID uuid.UUID, creds Credentials) error

	// ClearCredentials removes the tenant's credentials (integration teardown).
	// Historical orders and products are retained.
	ClearCredentials(ctx context.Context, tenantID uuid.UUID) error
}
