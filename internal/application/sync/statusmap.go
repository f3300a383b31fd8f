package sync

import (
	"strings"

	"github.com/fulfillhub/backend/internal/domain/logistics"
)

// externalOrderStatusTable is the fixed enumeration mapping external WMS
// order statuses to the local vocabulary. Keys are lowercased raw values
// as the known system families send them.
var externalOrderStatusTable = map[string]logistics.OrderStatus{
	// common / Trackstar
	"open":        logistics.OrderStatusPending,
	"pending":     logistics.OrderStatusPending,
	"unfulfilled": logistics.OrderStatusPending,
	"allocated":   logistics.OrderStatusAllocated,
	"picking":     logistics.OrderStatusPicking,
	"picked":      logistics.OrderStatusPicking,
	"packed":      logistics.OrderStatusPicking,
	"shipped":     logistics.OrderStatusShipped,
	"in_transit":  logistics.OrderStatusShipped,
	"fulfilled":   logistics.OrderStatusShipped,
	"delivered":   logistics.OrderStatusDelivered,
	"completed":   logistics.OrderStatusDelivered,
	"cancelled":   logistics.OrderStatusCancelled,
	"canceled":    logistics.OrderStatusCancelled,
	"hold":        logistics.OrderStatusOnHold,
	"on_hold":     logistics.OrderStatusOnHold,

	// ShipHero
	"ready to ship":   logistics.OrderStatusAllocated,
	"partially_ready": logistics.OrderStatusAllocated,
	"backordered":     logistics.OrderStatusOnHold,
	"wholesale":       logistics.OrderStatusPending,
}

// mapExternalOrderStatus maps a raw external status to the local
// vocabulary. The second return value is false for a mapping gap; callers
// log the gap and fall back to the safe PENDING default, never fail.
func mapExternalOrderStatus(raw string) (logistics.OrderStatus, bool) {
	status, ok := externalOrderStatusTable[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return logistics.OrderStatusPending, false
	}
	return status, true
}
