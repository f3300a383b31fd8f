package sync

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// External Entity Value Objects
// ---------------------------------------------------------------------------

// ExternalOrder is an order as reported by the external WMS, in a shape
// neutral to the system family that produced it.
type ExternalOrder struct {
	// ExternalID is the order's stable identifier on the external system
	ExternalID string
	// OrderNumber is the human-readable order number
	OrderNumber string
	// RawStatus is the status string exactly as the external system sent it
	RawStatus string
	// TrackingNumber is the shipment tracking number, if shipped
	TrackingNumber string
	// Carrier is the shipping carrier name
	Carrier string
	// ShipToName is the recipient's name
	ShipToName string
	// ShipToAddress is the single-line delivery address
	ShipToAddress string
	// Total is the order total
	Total decimal.Decimal
	// LineItems contains the order lines. The external system is the
	// source of truth for composition.
	LineItems []ExternalLineItem
	// OrderedAt is when the order was placed
	OrderedAt time.Time
	// AllocatedAt is when inventory was allocated
	AllocatedAt *time.Time
	// ShippedAt is when the order shipped
	ShippedAt *time.Time
	// DeliveredAt is when the order was delivered
	DeliveredAt *time.Time
}

// ExternalLineItem is one line of an external order
type ExternalLineItem struct {
	ExternalID  string
	SKU         string
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// ExternalProduct is a product as reported by the external WMS
type ExternalProduct struct {
	ExternalID  string
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	WeightGrams decimal.Decimal
	Active      bool
	UpdatedAt   time.Time
}

// ExternalInventoryRecord is an inventory level as reported by the external WMS
type ExternalInventoryRecord struct {
	ExternalID  string
	SKU         string
	WarehouseID string
	OnHand      decimal.Decimal
	Available   decimal.Decimal
	Committed   decimal.Decimal
	UpdatedAt   time.Time
}

// ---------------------------------------------------------------------------
// Pagination
// ---------------------------------------------------------------------------

// PageCursor is an opaque pagination token returned by the external system.
// An empty cursor on a response signals end-of-data; the known external
// APIs silently cap a single response, so fetchers must loop until the
// cursor comes back empty.
type PageCursor string

// IsEnd returns true when there are no further pages
func (c PageCursor) IsEnd() bool {
	return c == ""
}

// ---------------------------------------------------------------------------
// WMSClient Port
// ---------------------------------------------------------------------------

// WMSClient is the port interface for fetching data from an external WMS
// or WMS-aggregation provider. One implementing adapter exists per system
// family; the tenant's configured family selects which one is used.
//
// Error contract: adapters return ErrAuthFailed for expired/invalid tokens
// (never retried), ErrRateLimited and ErrTransient after their internal
// bounded retries are exhausted, and ErrUpstream for other 4xx/5xx
// responses. All errors are wrapped so callers can branch with errors.Is.
type WMSClient interface {
	// SystemFamily returns the family this adapter handles
	SystemFamily() SystemFamily

	// FetchOrders returns one page of orders updated since the given time.
	// Pass an empty cursor for the first page and the returned cursor for
	// subsequent pages.
	FetchOrders(ctx context.Context, creds *Credentials, since time.Time, cursor PageCursor) ([]ExternalOrder, PageCursor, error)

	// FetchProducts returns one page of products
	FetchProducts(ctx context.Context, creds *Credentials, cursor PageCursor) ([]ExternalProduct, PageCursor, error)

	// FetchInventory returns one page of inventory records
	FetchInventory(ctx context.Context, creds *Credentials, cursor PageCursor) ([]ExternalInventoryRecord, PageCursor, error)
}

// ClientRegistry selects the WMSClient adapter for a system family
type ClientRegistry interface {
	// ClientFor returns the adapter for the family, or ErrUnknownSystemFamily
	ClientFor(family SystemFamily) (WMSClient, error)
}

// CreditObserver is an optional interface a WMSClient may implement when
// the upstream API reports real-time remaining-credit telemetry alongside
// responses. The budget manager prefers observed values over the static
// catalog estimates, but only ever in the downward direction. Telemetry
// is account-scoped upstream, so implementations must key it by the
// credentials that produced it: one tenant's figure must never bleed
// into another tenant's budget.
type CreditObserver interface {
	// ObservedRemainingCredits returns the most recent credit figure the
	// upstream reported for these credentials, and false if none has
	// been seen for them.
	ObservedRemainingCredits(creds *Credentials) (int, bool)
}
