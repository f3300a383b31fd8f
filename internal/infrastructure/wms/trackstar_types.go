package wms

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Response Envelopes
// ---------------------------------------------------------------------------

// trackstarPage is the common list-response envelope: a data array plus an
// opaque token for the next page, empty on the last one.
type trackstarPage[T any] struct {
	Data      []T    `json:"data"`
	NextToken string `json:"next_token"`
}

type trackstarErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ---------------------------------------------------------------------------
// Entities
// ---------------------------------------------------------------------------

type trackstarOrder struct {
	ID             string          `json:"id"`
	OrderNumber    string          `json:"order_number"`
	Status         string          `json:"status"`
	RawStatus      string          `json:"raw_status"`
	TrackingNumber string          `json:"tracking_number"`
	Carrier        string          `json:"carrier"`
	Total          decimal.Decimal `json:"total_price"`
	ShipToAddress  struct {
		FullName string `json:"full_name"`
		Address1 string `json:"address1"`
		Address2 string `json:"address2"`
		City     string `json:"city"`
		State    string `json:"state"`
		Zip      string `json:"zip_code"`
		Country  string `json:"country"`
	} `json:"ship_to_address"`
	LineItems []struct {
		ID        string          `json:"id"`
		SKU       string          `json:"sku"`
		Name      string          `json:"product_name"`
		Quantity  decimal.Decimal `json:"quantity"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	} `json:"line_items"`
	CreatedDate   time.Time  `json:"created_date"`
	AllocatedDate *time.Time `json:"allocated_date"`
	ShippedDate   *time.Time `json:"shipped_date"`
	DeliveredDate *time.Time `json:"delivered_date"`
}

type trackstarProduct struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	WeightGrams decimal.Decimal `json:"weight_in_grams"`
	Active      bool            `json:"is_active"`
	UpdatedDate time.Time       `json:"updated_date"`
}

type trackstarInventoryItem struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	WarehouseID string          `json:"warehouse_id"`
	OnHand      decimal.Decimal `json:"onhand"`
	Available   decimal.Decimal `json:"available"`
	Committed   decimal.Decimal `json:"committed"`
	UpdatedDate time.Time       `json:"updated_date"`
}
