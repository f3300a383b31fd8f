package wms

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// GraphQL Envelope
// ---------------------------------------------------------------------------

// shipHeroRequest is the GraphQL request body
type shipHeroRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// shipHeroResponse is the GraphQL response envelope. Errors and data can
// coexist; a throttling error carries the required credits in extensions.
type shipHeroResponse struct {
	Data   *shipHeroData   `json:"data"`
	Errors []shipHeroError `json:"errors"`
}

type shipHeroError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code          string `json:"code"`
		TimeRemaining string `json:"time_remaining"`
	} `json:"extensions"`
}

// shipHeroData holds whichever top-level query fields were requested.
// Every connection reports request-level credit accounting.
type shipHeroData struct {
	Orders    *shipHeroConnection[shipHeroOrderNode]     `json:"orders"`
	Products  *shipHeroConnection[shipHeroProductNode]   `json:"products"`
	Inventory *shipHeroConnection[shipHeroInventoryNode] `json:"warehouse_products"`
}

// shipHeroConnection is the relay-style connection wrapper
type shipHeroConnection[T any] struct {
	RequestID  string `json:"request_id"`
	Complexity int    `json:"complexity"`
	// CreditsRemaining is the account-level credit figure ShipHero reports
	// alongside each paid query
	CreditsRemaining int `json:"credits_remaining"`
	Data             struct {
		Edges []struct {
			Node   T      `json:"node"`
			Cursor string `json:"cursor"`
		} `json:"edges"`
		PageInfo struct {
			HasNextPage bool   `json:"hasNextPage"`
			EndCursor   string `json:"endCursor"`
		} `json:"pageInfo"`
	} `json:"data"`
}

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

type shipHeroOrderNode struct {
	ID             string     `json:"id"`
	OrderNumber    string     `json:"order_number"`
	FulfillmentStatus string  `json:"fulfillment_status"`
	TotalPrice     string     `json:"total_price"`
	OrderDate      *time.Time `json:"order_date"`
	ShippingAddress struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Address1  string `json:"address1"`
		Address2  string `json:"address2"`
		City      string `json:"city"`
		State     string `json:"state"`
		Zip       string `json:"zip"`
		Country   string `json:"country"`
	} `json:"shipping_address"`
	Shipments []struct {
		CreatedDate *time.Time `json:"created_date"`
		Shipping    struct {
			Carrier        string `json:"carrier"`
			TrackingNumber string `json:"tracking_number"`
		} `json:"shipping_labels"`
	} `json:"shipments"`
	AllocatedDate *time.Time `json:"allocated_date"`
	LineItems     struct {
		Edges []struct {
			Node shipHeroLineItemNode `json:"node"`
		} `json:"edges"`
	} `json:"line_items"`
}

type shipHeroLineItemNode struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

type shipHeroProductNode struct {
	ID        string     `json:"id"`
	SKU       string     `json:"sku"`
	Name      string     `json:"name"`
	Active    bool       `json:"active"`
	Price     string     `json:"price"`
	UpdatedAt *time.Time `json:"updated_at"`
	Dimensions struct {
		Weight string `json:"weight"`
	} `json:"dimensions"`
}

type shipHeroInventoryNode struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouse_id"`
	OnHand      int    `json:"on_hand"`
	Available   int    `json:"available"`
	Allocated   int    `json:"allocated"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// parseDecimal converts ShipHero's string-typed money fields, treating
// empty and malformed values as zero.
func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
