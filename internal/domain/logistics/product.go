package logistics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a local product record. SKU is the human-readable fallback
// reconciliation key; ExternalID becomes authoritative once attached.
type Product struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	ExternalID *string
	SKU        string

	Name        string
	Description string
	Price       decimal.Decimal
	WeightGrams decimal.Decimal
	Active      bool

	// Tags are local annotations, never overwritten by a sync
	Tags []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttachExternalID binds the product to its external counterpart
func (p *Product) AttachExternalID(externalID string) error {
	if p.ExternalID != nil && *p.ExternalID != externalID {
		return ErrExternalIDConflict
	}
	p.ExternalID = &externalID
	return nil
}

// HasExternalID returns true once the product is bound to the WMS
func (p *Product) HasExternalID() bool {
	return p.ExternalID != nil && *p.ExternalID != ""
}
