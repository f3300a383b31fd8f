package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fulfillhub/backend/internal/domain/logistics"
)

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderModel is the persistence model for the Order domain entity. The
// unique index on (tenant_id, external_id) is the storage-level guarantee
// behind the at-most-one reconciliation mapping.
type OrderModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_orders_tenant_external,priority:1"`

	ExternalID  *string `gorm:"type:varchar(100);uniqueIndex:idx_orders_tenant_external,priority:2"`
	OrderNumber string  `gorm:"type:varchar(100);not null;index:idx_orders_tenant_number"`

	Status         string `gorm:"type:varchar(20);not null;default:'PENDING'"`
	TrackingNumber string `gorm:"type:varchar(100)"`
	Carrier        string `gorm:"type:varchar(100)"`

	ShipToName    string          `gorm:"type:varchar(255)"`
	ShipToAddress string          `gorm:"type:text"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	TagsJSON       string `gorm:"type:jsonb;column:tags"`
	TicketRefsJSON string `gorm:"type:jsonb;column:ticket_refs"`
	InternalNotes  string `gorm:"type:text"`

	OrderedAt   time.Time  `gorm:"not null"`
	AllocatedAt *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time

	LineItems []OrderLineItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderLineItemModel is the persistence model for one order line
type OrderLineItemModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ExternalID string          `gorm:"type:varchar(100)"`
	SKU        string          `gorm:"type:varchar(100);not null"`
	Name       string          `gorm:"type:varchar(255)"`
	Quantity   decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	UnitPrice  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain Order entity
func (m *OrderModel) ToDomain() *logistics.Order {
	order := &logistics.Order{
		ID:             m.ID,
		TenantID:       m.TenantID,
		ExternalID:     m.ExternalID,
		OrderNumber:    m.OrderNumber,
		Status:         logistics.OrderStatus(m.Status),
		TrackingNumber: m.TrackingNumber,
		Carrier:        m.Carrier,
		ShipToName:     m.ShipToName,
		ShipToAddress:  m.ShipToAddress,
		Total:          m.Total,
		InternalNotes:  m.InternalNotes,
		OrderedAt:      m.OrderedAt,
		AllocatedAt:    m.AllocatedAt,
		ShippedAt:      m.ShippedAt,
		DeliveredAt:    m.DeliveredAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}

	order.Tags = decodeStringList(m.TagsJSON)
	order.TicketRefs = decodeStringList(m.TicketRefsJSON)

	order.LineItems = make([]logistics.OrderLineItem, len(m.LineItems))
	for i, li := range m.LineItems {
		order.LineItems[i] = logistics.OrderLineItem{
			ID:         li.ID,
			OrderID:    li.OrderID,
			ExternalID: li.ExternalID,
			SKU:        li.SKU,
			Name:       li.Name,
			Quantity:   li.Quantity,
			UnitPrice:  li.UnitPrice,
		}
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity
func (m *OrderModel) FromDomain(order *logistics.Order) {
	m.ID = order.ID
	m.TenantID = order.TenantID
	m.ExternalID = order.ExternalID
	m.OrderNumber = order.OrderNumber
	m.Status = string(order.Status)
	m.TrackingNumber = order.TrackingNumber
	m.Carrier = order.Carrier
	m.ShipToName = order.ShipToName
	m.ShipToAddress = order.ShipToAddress
	m.Total = order.Total
	m.InternalNotes = order.InternalNotes
	m.OrderedAt = order.OrderedAt
	m.AllocatedAt = order.AllocatedAt
	m.ShippedAt = order.ShippedAt
	m.DeliveredAt = order.DeliveredAt
	m.CreatedAt = order.CreatedAt
	m.UpdatedAt = order.UpdatedAt

	m.TagsJSON = encodeStringList(order.Tags)
	m.TicketRefsJSON = encodeStringList(order.TicketRefs)

	m.LineItems = make([]OrderLineItemModel, len(order.LineItems))
	for i, li := range order.LineItems {
		m.LineItems[i] = OrderLineItemModel{
			ID:         li.ID,
			OrderID:    li.OrderID,
			ExternalID: li.ExternalID,
			SKU:        li.SKU,
			Name:       li.Name,
			Quantity:   li.Quantity,
			UnitPrice:  li.UnitPrice,
		}
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity
func OrderModelFromDomain(order *logistics.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(order)
	return m
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ProductModel is the persistence model for the Product domain entity
type ProductModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_products_tenant_external,priority:1"`

	ExternalID *string `gorm:"type:varchar(100);uniqueIndex:idx_products_tenant_external,priority:2"`
	SKU        string  `gorm:"type:varchar(100);not null;index:idx_products_tenant_sku"`

	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	WeightGrams decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Active      bool            `gorm:"not null;default:true"`

	TagsJSON string `gorm:"type:jsonb;column:tags"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity
func (m *ProductModel) ToDomain() *logistics.Product {
	return &logistics.Product{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ExternalID:  m.ExternalID,
		SKU:         m.SKU,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		WeightGrams: m.WeightGrams,
		Active:      m.Active,
		Tags:        decodeStringList(m.TagsJSON),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity
func (m *ProductModel) FromDomain(p *logistics.Product) {
	m.ID = p.ID
	m.TenantID = p.TenantID
	m.ExternalID = p.ExternalID
	m.SKU = p.SKU
	m.Name = p.Name
	m.Description = p.Description
	m.Price = p.Price
	m.WeightGrams = p.WeightGrams
	m.Active = p.Active
	m.TagsJSON = encodeStringList(p.Tags)
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity
func ProductModelFromDomain(p *logistics.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// ---------------------------------------------------------------------------
// Inventory
// ---------------------------------------------------------------------------

// InventoryRecordModel is the persistence model for the InventoryRecord
// domain entity. The fallback key (tenant, sku, warehouse) is indexed but
// not unique; pre-integration manual rows may briefly duplicate it.
type InventoryRecordModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_inventory_tenant_external,priority:1"`

	ExternalID  *string `gorm:"type:varchar(100);uniqueIndex:idx_inventory_tenant_external,priority:2"`
	SKU         string  `gorm:"type:varchar(100);not null;index:idx_inventory_tenant_sku_wh,priority:2"`
	WarehouseID string  `gorm:"type:varchar(100);not null;index:idx_inventory_tenant_sku_wh,priority:3"`

	OnHand    decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Available decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`
	Committed decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0"`

	SyncedAt time.Time `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryRecordModel) TableName() string {
	return "inventory_records"
}

// ToDomain converts the persistence model to a domain InventoryRecord entity
func (m *InventoryRecordModel) ToDomain() *logistics.InventoryRecord {
	return &logistics.InventoryRecord{
		ID:          m.ID,
		TenantID:    m.TenantID,
		ExternalID:  m.ExternalID,
		SKU:         m.SKU,
		WarehouseID: m.WarehouseID,
		OnHand:      m.OnHand,
		Available:   m.Available,
		Committed:   m.Committed,
		SyncedAt:    m.SyncedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain InventoryRecord entity
func (m *InventoryRecordModel) FromDomain(r *logistics.InventoryRecord) {
	m.ID = r.ID
	m.TenantID = r.TenantID
	m.ExternalID = r.ExternalID
	m.SKU = r.SKU
	m.WarehouseID = r.WarehouseID
	m.OnHand = r.OnHand
	m.Available = r.Available
	m.Committed = r.Committed
	m.SyncedAt = r.SyncedAt
	m.CreatedAt = r.CreatedAt
	m.UpdatedAt = r.UpdatedAt
}

// InventoryRecordModelFromDomain creates a new persistence model from a domain InventoryRecord entity
func InventoryRecordModelFromDomain(r *logistics.InventoryRecord) *InventoryRecordModel {
	m := &InventoryRecordModel{}
	m.FromDomain(r)
	return m
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

func encodeStringList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	return values
}
