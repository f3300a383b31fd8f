package sync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fulfillhub/backend/internal/domain/logistics"
	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
)

// ---------------------------------------------------------------------------
// Merge Results
// ---------------------------------------------------------------------------

// MergeAction distinguishes whether a merge created or updated the local entity
type MergeAction string

const (
	MergeActionCreated MergeAction = "CREATED"
	MergeActionUpdated MergeAction = "UPDATED"
)

// OrderMergeResult is the outcome of merging one external order
type OrderMergeResult struct {
	Action MergeAction
	Order  *logistics.Order
}

// ProductMergeResult is the outcome of merging one external product
type ProductMergeResult struct {
	Action  MergeAction
	Product *logistics.Product
}

// InventoryMergeResult is the outcome of merging one external inventory record
type InventoryMergeResult struct {
	Action MergeAction
	Record *logistics.InventoryRecord
}

// ---------------------------------------------------------------------------
// Reconciler
// ---------------------------------------------------------------------------

// Reconciler maps external entities onto local entities by external ID,
// deciding create vs. update. Merges are idempotent: replaying the same
// external payload produces no net change beyond the updated-at bump, so
// duplicate webhook deliveries and overlapping strategy windows are safe.
//
// Lookup order: (tenant, externalID) first; the human-readable key
// (order number, SKU) is consulted only when the local record has never
// been bound to an external ID. First match wins, and the external ID is
// authoritative from then on.
type Reconciler struct {
	orders    logistics.OrderRepository
	products  logistics.ProductRepository
	inventory logistics.InventoryRepository
	logger    *zap.Logger
}

// NewReconciler creates a Reconciler over the local repositories
func NewReconciler(
	orders logistics.OrderRepository,
	products logistics.ProductRepository,
	inventory logistics.InventoryRepository,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		orders:    orders,
		products:  products,
		inventory: inventory,
		logger:    logger,
	}
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// MergeOrder merges an external order into local storage
func (r *Reconciler) MergeOrder(ctx context.Context, tenantID uuid.UUID, ext syncdomain.ExternalOrder) (*OrderMergeResult, error) {
	if ext.ExternalID == "" {
		return nil, syncdomain.ErrInvalidResponse
	}

	order, err := r.orders.FindByExternalID(ctx, tenantID, ext.ExternalID)
	switch {
	case err == nil:
		// Bound record found; external ID is authoritative.
	case errors.Is(err, logistics.ErrOrderNotFound):
		order, err = r.findUnboundOrderByNumber(ctx, tenantID, ext.OrderNumber)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	action := MergeActionUpdated
	if order == nil {
		order = &logistics.Order{
			ID:          uuid.New(),
			TenantID:    tenantID,
			OrderNumber: ext.OrderNumber,
			OrderedAt:   ext.OrderedAt,
		}
		action = MergeActionCreated
	}

	if err := order.AttachExternalID(ext.ExternalID); err != nil {
		return nil, err
	}
	r.applyExternalOrder(order, ext)

	if err := r.orders.Save(ctx, order); err != nil {
		return nil, err
	}

	return &OrderMergeResult{Action: action, Order: order}, nil
}

// findUnboundOrderByNumber looks up the order-number fallback match. An
// order that already carries a different external ID is not a candidate:
// once attached, the external ID is the only key.
func (r *Reconciler) findUnboundOrderByNumber(ctx context.Context, tenantID uuid.UUID, orderNumber string) (*logistics.Order, error) {
	if orderNumber == "" {
		return nil, nil
	}
	order, err := r.orders.FindByOrderNumber(ctx, tenantID, orderNumber)
	if errors.Is(err, logistics.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if order.HasExternalID() {
		return nil, nil
	}
	return order, nil
}

// applyExternalOrder writes the authoritative external fields onto the
// local order. Tags, ticket links, and internal notes are left untouched.
func (r *Reconciler) applyExternalOrder(order *logistics.Order, ext syncdomain.ExternalOrder) {
	status, mapped := mapExternalOrderStatus(ext.RawStatus)
	if !mapped {
		r.logger.Warn("Order status mapping gap, defaulting to pending",
			zap.String("tenant_id", order.TenantID.String()),
			zap.String("external_id", ext.ExternalID),
			zap.String("raw_status", ext.RawStatus),
		)
	}
	order.Status = status
	order.TrackingNumber = ext.TrackingNumber
	order.Carrier = ext.Carrier
	if ext.ShipToName != "" {
		order.ShipToName = ext.ShipToName
	}
	if ext.ShipToAddress != "" {
		order.ShipToAddress = ext.ShipToAddress
	}
	if !ext.Total.IsZero() {
		order.Total = ext.Total
	}
	if !ext.OrderedAt.IsZero() {
		order.OrderedAt = ext.OrderedAt
	}
	order.AllocatedAt = ext.AllocatedAt
	order.ShippedAt = ext.ShippedAt
	order.DeliveredAt = ext.DeliveredAt

	items := make([]logistics.OrderLineItem, len(ext.LineItems))
	for i, li := range ext.LineItems {
		items[i] = logistics.OrderLineItem{
			ExternalID: li.ExternalID,
			SKU:        li.SKU,
			Name:       li.ProductName,
			Quantity:   li.Quantity,
			UnitPrice:  li.UnitPrice,
		}
	}
	order.ReplaceLineItems(items)
	order.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// MergeProduct merges an external product into local storage
func (r *Reconciler) MergeProduct(ctx context.Context, tenantID uuid.UUID, ext syncdomain.ExternalProduct) (*ProductMergeResult, error) {
	if ext.ExternalID == "" {
		return nil, syncdomain.ErrInvalidResponse
	}

	product, err := r.products.FindByExternalID(ctx, tenantID, ext.ExternalID)
	switch {
	case err == nil:
	case errors.Is(err, logistics.ErrProductNotFound):
		product, err = r.findUnboundProductBySKU(ctx, tenantID, ext.SKU)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	action := MergeActionUpdated
	if product == nil {
		product = &logistics.Product{
			ID:       uuid.New(),
			TenantID: tenantID,
			SKU:      ext.SKU,
		}
		action = MergeActionCreated
	}

	if err := product.AttachExternalID(ext.ExternalID); err != nil {
		return nil, err
	}
	product.Name = ext.Name
	product.Description = ext.Description
	product.Price = ext.Price
	product.WeightGrams = ext.WeightGrams
	product.Active = ext.Active
	product.UpdatedAt = time.Now()

	if err := r.products.Save(ctx, product); err != nil {
		return nil, err
	}

	return &ProductMergeResult{Action: action, Product: product}, nil
}

func (r *Reconciler) findUnboundProductBySKU(ctx context.Context, tenantID uuid.UUID, sku string) (*logistics.Product, error) {
	if sku == "" {
		return nil, nil
	}
	product, err := r.products.FindBySKU(ctx, tenantID, sku)
	if errors.Is(err, logistics.ErrProductNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if product.HasExternalID() {
		return nil, nil
	}
	return product, nil
}

// ---------------------------------------------------------------------------
// Inventory
// ---------------------------------------------------------------------------

// MergeInventory merges an external inventory record into local storage
func (r *Reconciler) MergeInventory(ctx context.Context, tenantID uuid.UUID, ext syncdomain.ExternalInventoryRecord) (*InventoryMergeResult, error) {
	if ext.ExternalID == "" && ext.SKU == "" {
		return nil, syncdomain.ErrInvalidResponse
	}

	var record *logistics.InventoryRecord
	var err error

	if ext.ExternalID != "" {
		record, err = r.inventory.FindByExternalID(ctx, tenantID, ext.ExternalID)
		if err != nil && !errors.Is(err, logistics.ErrInventoryNotFound) {
			return nil, err
		}
	}
	if record == nil {
		record, err = r.findUnboundInventory(ctx, tenantID, ext.SKU, ext.WarehouseID)
		if err != nil {
			return nil, err
		}
	}

	action := MergeActionUpdated
	if record == nil {
		record = &logistics.InventoryRecord{
			ID:          uuid.New(),
			TenantID:    tenantID,
			SKU:         ext.SKU,
			WarehouseID: ext.WarehouseID,
		}
		action = MergeActionCreated
	}

	if ext.ExternalID != "" {
		if err := record.AttachExternalID(ext.ExternalID); err != nil {
			return nil, err
		}
	}
	record.OnHand = ext.OnHand
	record.Available = ext.Available
	record.Committed = ext.Committed
	if !ext.UpdatedAt.IsZero() {
		record.SyncedAt = ext.UpdatedAt
	} else {
		record.SyncedAt = time.Now()
	}
	record.UpdatedAt = time.Now()

	if err := r.inventory.Save(ctx, record); err != nil {
		return nil, err
	}

	return &InventoryMergeResult{Action: action, Record: record}, nil
}

func (r *Reconciler) findUnboundInventory(ctx context.Context, tenantID uuid.UUID, sku, warehouseID string) (*logistics.InventoryRecord, error) {
	if sku == "" {
		return nil, nil
	}
	record, err := r.inventory.FindBySKUAndWarehouse(ctx, tenantID, sku, warehouseID)
	if errors.Is(err, logistics.ErrInventoryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if record.HasExternalID() {
		return nil, nil
	}
	return record, nil
}
