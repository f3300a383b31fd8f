package logistics

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository persists local orders. Each merge performed through
// Save is a single atomic read-modify-write against the storage layer.
type OrderRepository interface {
	// FindByID returns an order by its local ID or ErrOrderNotFound
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Order, error)

	// FindByExternalID returns the order bound to (tenantID, externalID)
	// or ErrOrderNotFound
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Order, error)

	// FindByOrderNumber returns the order with the human-readable number
	// or ErrOrderNotFound
	FindByOrderNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*Order, error)

	// Save creates or updates the order together with its line items
	Save(ctx context.Context, order *Order) error

	// CountForTenant returns the number of orders for a tenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// ProductRepository persists local products
type ProductRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Product, error)
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Product, error)
	FindBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*Product, error)
	Save(ctx context.Context, product *Product) error
}

// InventoryRepository persists local inventory records
type InventoryRepository interface {
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*InventoryRecord, error)
	FindBySKUAndWarehouse(ctx context.Context, tenantID uuid.UUID, sku, warehouseID string) (*InventoryRecord, error)
	Save(ctx context.Context, record *InventoryRecord) error
}
