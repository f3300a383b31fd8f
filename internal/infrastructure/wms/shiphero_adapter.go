package wms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
)

// maxResponseSize is the maximum allowed response size from upstream APIs (10MB)
const maxResponseSize = 10 * 1024 * 1024

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ShipHeroConfig configures the direct ShipHero GraphQL adapter
type ShipHeroConfig struct {
	// BaseURL is the GraphQL endpoint
	BaseURL string
	// TimeoutSeconds bounds a single HTTP round trip
	TimeoutSeconds int
	// PageSize is the per-page record count requested from the API
	PageSize int
	// Retry bounds retries on rate limits and transient failures
	Retry RetryPolicy
}

// DefaultShipHeroConfig returns the production defaults
func DefaultShipHeroConfig() ShipHeroConfig {
	return ShipHeroConfig{
		BaseURL:        "https://public-api.shiphero.com/graphql",
		TimeoutSeconds: 30,
		PageSize:       100,
		Retry:          DefaultRetryPolicy(),
	}
}

// Validate checks the configuration
func (c *ShipHeroConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("shiphero: base URL is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("shiphero: timeout must be positive")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("shiphero: page size must be positive")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

// ShipHeroAdapter implements the WMSClient port against ShipHero's public
// GraphQL API. Each query is authenticated with the tenant's bearer token;
// the account-level credit figure ShipHero returns with every paid query
// is retained for budget telemetry. The adapter is shared across tenants,
// so telemetry is keyed by the token that produced it.
type ShipHeroAdapter struct {
	config     ShipHeroConfig
	httpClient *http.Client

	// observedCredits maps an access token to the last credits_remaining
	// reported upstream for it.
	creditsMu       sync.Mutex
	observedCredits map[string]int
}

var _ syncdomain.WMSClient = (*ShipHeroAdapter)(nil)
var _ syncdomain.CreditObserver = (*ShipHeroAdapter)(nil)

// NewShipHeroAdapter creates a ShipHero adapter
func NewShipHeroAdapter(config ShipHeroConfig) (*ShipHeroAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ShipHeroAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		observedCredits: make(map[string]int),
	}, nil
}

// SystemFamily returns the family this adapter handles
func (a *ShipHeroAdapter) SystemFamily() syncdomain.SystemFamily {
	return syncdomain.SystemFamilyShipHero
}

// ObservedRemainingCredits returns the last credit figure ShipHero
// reported for these credentials
func (a *ShipHeroAdapter) ObservedRemainingCredits(creds *syncdomain.Credentials) (int, bool) {
	if creds == nil {
		return 0, false
	}
	a.creditsMu.Lock()
	defer a.creditsMu.Unlock()
	v, ok := a.observedCredits[creds.AccessToken]
	return v, ok
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

const shipHeroOrdersQuery = `query ($updated_from: ISODateTime, $first: Int, $after: String) {
  orders(updated_from: $updated_from) {
    request_id
    complexity
    credits_remaining
    data(first: $first, after: $after) {
      edges {
        node {
          id
          order_number
          fulfillment_status
          total_price
          order_date
          allocated_date
          shipping_address { first_name last_name address1 address2 city state zip country }
          shipments { created_date shipping_labels { carrier tracking_number } }
          line_items(first: 100) {
            edges { node { id sku product_name quantity price } }
          }
        }
        cursor
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const shipHeroProductsQuery = `query ($first: Int, $after: String) {
  products {
    request_id
    complexity
    credits_remaining
    data(first: $first, after: $after) {
      edges {
        node {
          id
          sku
          name
          active
          price
          updated_at
          dimensions { weight }
        }
        cursor
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

const shipHeroInventoryQuery = `query ($first: Int, $after: String) {
  warehouse_products {
    request_id
    complexity
    credits_remaining
    data(first: $first, after: $after) {
      edges {
        node {
          id
          sku
          warehouse_id
          on_hand
          available
          allocated
          updated_at
        }
        cursor
      }
      pageInfo { hasNextPage endCursor }
    }
  }
}`

// FetchOrders returns one page of orders updated since the given time
func (a *ShipHeroAdapter) FetchOrders(ctx context.Context, creds *syncdomain.Credentials, since time.Time, cursor syncdomain.PageCursor) ([]syncdomain.ExternalOrder, syncdomain.PageCursor, error) {
	variables := map[string]any{"first": a.config.PageSize}
	if !since.IsZero() {
		variables["updated_from"] = since.UTC().Format(time.RFC3339)
	}
	if !cursor.IsEnd() {
		variables["after"] = string(cursor)
	}

	data, err := a.query(ctx, creds, shipHeroOrdersQuery, variables)
	if err != nil {
		return nil, "", err
	}
	if data.Orders == nil {
		return nil, "", fmt.Errorf("%w: missing orders connection", syncdomain.ErrInvalidResponse)
	}
	a.noteCredits(creds, data.Orders.CreditsRemaining)

	orders := make([]syncdomain.ExternalOrder, 0, len(data.Orders.Data.Edges))
	for _, edge := range data.Orders.Data.Edges {
		orders = append(orders, convertShipHeroOrder(edge.Node))
	}
	return orders, nextCursor(data.Orders.Data.PageInfo.HasNextPage, data.Orders.Data.PageInfo.EndCursor), nil
}

// FetchProducts returns one page of products
func (a *ShipHeroAdapter) FetchProducts(ctx context.Context, creds *syncdomain.Credentials, cursor syncdomain.PageCursor) ([]syncdomain.ExternalProduct, syncdomain.PageCursor, error) {
	variables := map[string]any{"first": a.config.PageSize}
	if !cursor.IsEnd() {
		variables["after"] = string(cursor)
	}

	data, err := a.query(ctx, creds, shipHeroProductsQuery, variables)
	if err != nil {
		return nil, "", err
	}
	if data.Products == nil {
		return nil, "", fmt.Errorf("%w: missing products connection", syncdomain.ErrInvalidResponse)
	}
	a.noteCredits(creds, data.Products.CreditsRemaining)

	products := make([]syncdomain.ExternalProduct, 0, len(data.Products.Data.Edges))
	for _, edge := range data.Products.Data.Edges {
		products = append(products, convertShipHeroProduct(edge.Node))
	}
	return products, nextCursor(data.Products.Data.PageInfo.HasNextPage, data.Products.Data.PageInfo.EndCursor), nil
}

// FetchInventory returns one page of warehouse inventory records
func (a *ShipHeroAdapter) FetchInventory(ctx context.Context, creds *syncdomain.Credentials, cursor syncdomain.PageCursor) ([]syncdomain.ExternalInventoryRecord, syncdomain.PageCursor, error) {
	variables := map[string]any{"first": a.config.PageSize}
	if !cursor.IsEnd() {
		variables["after"] = string(cursor)
	}

	data, err := a.query(ctx, creds, shipHeroInventoryQuery, variables)
	if err != nil {
		return nil, "", err
	}
	if data.Inventory == nil {
		return nil, "", fmt.Errorf("%w: missing warehouse_products connection", syncdomain.ErrInvalidResponse)
	}
	a.noteCredits(creds, data.Inventory.CreditsRemaining)

	records := make([]syncdomain.ExternalInventoryRecord, 0, len(data.Inventory.Data.Edges))
	for _, edge := range data.Inventory.Data.Edges {
		records = append(records, convertShipHeroInventory(edge.Node))
	}
	return records, nextCursor(data.Inventory.Data.PageInfo.HasNextPage, data.Inventory.Data.PageInfo.EndCursor), nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// query performs one GraphQL request with retries and maps upstream
// failures onto the shared error vocabulary.
func (a *ShipHeroAdapter) query(ctx context.Context, creds *syncdomain.Credentials, query string, variables map[string]any) (*shipHeroData, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var data *shipHeroData
	err := withRetry(ctx, a.config.Retry, func() error {
		var attemptErr error
		data, attemptErr = a.doQuery(ctx, creds, query, variables)
		return attemptErr
	})
	return data, err
}

func (a *ShipHeroAdapter) doQuery(ctx context.Context, creds *syncdomain.Credentials, query string, variables map[string]any) (*shipHeroData, error) {
	body, err := json.Marshal(shipHeroRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("shiphero: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("shiphero: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: HTTP %d", syncdomain.ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: HTTP 429", syncdomain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", syncdomain.ErrTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", syncdomain.ErrUpstream, resp.StatusCode)
	}

	var envelope shipHeroResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", syncdomain.ErrInvalidResponse, err)
	}

	if len(envelope.Errors) > 0 {
		return nil, mapShipHeroError(envelope.Errors[0])
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("%w: empty response data", syncdomain.ErrInvalidResponse)
	}
	return envelope.Data, nil
}

// mapShipHeroError maps a GraphQL-level error onto the error vocabulary.
// ShipHero signals throttling through error extensions, not HTTP status.
func mapShipHeroError(e shipHeroError) error {
	code := strings.ToUpper(e.Extensions.Code)
	message := strings.ToLower(e.Message)
	switch {
	case code == "THROTTLED" || strings.Contains(message, "too many requests") ||
		strings.Contains(message, "credits"):
		return fmt.Errorf("%w: %s", syncdomain.ErrRateLimited, e.Message)
	case code == "UNAUTHENTICATED" || strings.Contains(message, "token"):
		return fmt.Errorf("%w: %s", syncdomain.ErrAuthFailed, e.Message)
	default:
		return fmt.Errorf("%w: %s", syncdomain.ErrUpstream, e.Message)
	}
}

func (a *ShipHeroAdapter) noteCredits(creds *syncdomain.Credentials, remaining int) {
	if remaining <= 0 {
		return
	}
	a.creditsMu.Lock()
	a.observedCredits[creds.AccessToken] = remaining
	a.creditsMu.Unlock()
}

func nextCursor(hasNext bool, endCursor string) syncdomain.PageCursor {
	if !hasNext {
		return ""
	}
	return syncdomain.PageCursor(endCursor)
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func convertShipHeroOrder(node shipHeroOrderNode) syncdomain.ExternalOrder {
	order := syncdomain.ExternalOrder{
		ExternalID:  node.ID,
		OrderNumber: node.OrderNumber,
		RawStatus:   node.FulfillmentStatus,
		Total:       parseDecimal(node.TotalPrice),
		AllocatedAt: node.AllocatedDate,
	}
	if node.OrderDate != nil {
		order.OrderedAt = *node.OrderDate
	}

	order.ShipToName = strings.TrimSpace(node.ShippingAddress.FirstName + " " + node.ShippingAddress.LastName)
	addressParts := make([]string, 0, 6)
	for _, part := range []string{
		node.ShippingAddress.Address1, node.ShippingAddress.Address2,
		node.ShippingAddress.City, node.ShippingAddress.State,
		node.ShippingAddress.Zip, node.ShippingAddress.Country,
	} {
		if part != "" {
			addressParts = append(addressParts, part)
		}
	}
	order.ShipToAddress = strings.Join(addressParts, ", ")

	// The newest shipment carries the live tracking data
	if len(node.Shipments) > 0 {
		last := node.Shipments[len(node.Shipments)-1]
		order.Carrier = last.Shipping.Carrier
		order.TrackingNumber = last.Shipping.TrackingNumber
		order.ShippedAt = last.CreatedDate
	}

	order.LineItems = make([]syncdomain.ExternalLineItem, 0, len(node.LineItems.Edges))
	for _, edge := range node.LineItems.Edges {
		order.LineItems = append(order.LineItems, syncdomain.ExternalLineItem{
			ExternalID:  edge.Node.ID,
			SKU:         edge.Node.SKU,
			ProductName: edge.Node.ProductName,
			Quantity:    decimal.NewFromInt(int64(edge.Node.Quantity)),
			UnitPrice:   parseDecimal(edge.Node.Price),
		})
	}
	return order
}

func convertShipHeroProduct(node shipHeroProductNode) syncdomain.ExternalProduct {
	product := syncdomain.ExternalProduct{
		ExternalID:  node.ID,
		SKU:         node.SKU,
		Name:        node.Name,
		Active:      node.Active,
		Price:       parseDecimal(node.Price),
		WeightGrams: parseDecimal(node.Dimensions.Weight),
	}
	if node.UpdatedAt != nil {
		product.UpdatedAt = *node.UpdatedAt
	}
	return product
}

func convertShipHeroInventory(node shipHeroInventoryNode) syncdomain.ExternalInventoryRecord {
	record := syncdomain.ExternalInventoryRecord{
		ExternalID:  node.ID,
		SKU:         node.SKU,
		WarehouseID: node.WarehouseID,
		OnHand:      decimal.NewFromInt(int64(node.OnHand)),
		Available:   decimal.NewFromInt(int64(node.Available)),
		Committed:   decimal.NewFromInt(int64(node.Allocated)),
	}
	if node.UpdatedAt != nil {
		record.UpdatedAt = *node.UpdatedAt
	}
	return record
}
