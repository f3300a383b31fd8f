package logistics

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// OrderStatus
// ---------------------------------------------------------------------------

// OrderStatus is the local status vocabulary. External WMS statuses are
// mapped onto it through a fixed table; anything unmapped lands on
// OrderStatusPending.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusAllocated OrderStatus = "ALLOCATED"
	OrderStatusPicking   OrderStatus = "PICKING"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusOnHold    OrderStatus = "ON_HOLD"
)

// IsValid returns true if the status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAllocated, OrderStatusPicking,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled,
		OrderStatusOnHold:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsFinal returns true for terminal statuses
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ---------------------------------------------------------------------------
// Order
// ---------------------------------------------------------------------------

// Order is a local fulfillment order. ExternalID is the reconciliation
// key toward the external WMS: at most one order per (tenant, external ID)
// pair, and once attached the external ID is authoritative for all future
// merges. OrderNumber is the human-readable fallback key used only before
// an external ID has ever been attached.
type Order struct {
	ID       uuid.UUID
	TenantID uuid.UUID

	// ExternalID is nil until the order is first matched to the WMS
	ExternalID  *string
	OrderNumber string

	Status         OrderStatus
	TrackingNumber string
	Carrier        string

	ShipToName    string
	ShipToAddress string
	Total         decimal.Decimal

	LineItems []OrderLineItem

	// Locally-entered annotations. Syncs never touch these.
	Tags          []string
	TicketRefs    []string
	InternalNotes string

	OrderedAt   time.Time
	AllocatedAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderLineItem is one line of a local order. Line items are replaced
// wholesale on every merge; partial line edits are not a supported
// concept upstream.
type OrderLineItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	ExternalID string
	SKU        string
	Name       string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
}

// AttachExternalID binds the order to its external counterpart. Returns
// ErrExternalIDConflict if a different external ID is already attached.
func (o *Order) AttachExternalID(externalID string) error {
	if o.ExternalID != nil && *o.ExternalID != externalID {
		return ErrExternalIDConflict
	}
	o.ExternalID = &externalID
	return nil
}

// HasExternalID returns true once the order is bound to the WMS
func (o *Order) HasExternalID() bool {
	return o.ExternalID != nil && *o.ExternalID != ""
}

// ReplaceLineItems swaps the order's composition for the given lines
func (o *Order) ReplaceLineItems(items []OrderLineItem) {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrderID = o.ID
	}
	o.LineItems = items
}
