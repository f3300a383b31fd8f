package logistics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryRecord is the local snapshot of stock for one SKU in one
// external warehouse. The fallback reconciliation key is (SKU, warehouse).
type InventoryRecord struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	ExternalID  *string
	SKU         string
	WarehouseID string

	OnHand    decimal.Decimal
	Available decimal.Decimal
	Committed decimal.Decimal

	// SyncedAt is when the external system last reported this level
	SyncedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AttachExternalID binds the record to its external counterpart
func (r *InventoryRecord) AttachExternalID(externalID string) error {
	if r.ExternalID != nil && *r.ExternalID != externalID {
		return ErrExternalIDConflict
	}
	r.ExternalID = &externalID
	return nil
}

// HasExternalID returns true once the record is bound to the WMS
func (r *InventoryRecord) HasExternalID() bool {
	return r.ExternalID != nil && *r.ExternalID != ""
}
