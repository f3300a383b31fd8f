package wms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
)

// trackstarMaxPageSize is the hard per-page cap Trackstar enforces
const trackstarMaxPageSize = 1000

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// TrackstarConfig configures the Trackstar aggregator adapter
type TrackstarConfig struct {
	// BaseURL is the API root
	BaseURL string
	// TimeoutSeconds bounds a single HTTP round trip
	TimeoutSeconds int
	// PageSize is the per-page record count, capped at the API maximum
	PageSize int
	// Retry bounds retries on rate limits and transient failures
	Retry RetryPolicy
}

// DefaultTrackstarConfig returns the production defaults
func DefaultTrackstarConfig() TrackstarConfig {
	return TrackstarConfig{
		BaseURL:        "https://production.trackstarhq.com",
		TimeoutSeconds: 30,
		PageSize:       trackstarMaxPageSize,
		Retry:          DefaultRetryPolicy(),
	}
}

// Validate checks the configuration
func (c *TrackstarConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("trackstar: base URL is required")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("trackstar: timeout must be positive")
	}
	if c.PageSize <= 0 || c.PageSize > trackstarMaxPageSize {
		return fmt.Errorf("trackstar: page size must be between 1 and %d", trackstarMaxPageSize)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

// TrackstarAdapter implements the WMSClient port against the Trackstar
// WMS-aggregation REST API. Trackstar normalizes many downstream WMS
// vendors behind one surface; requests pair the platform API key with the
// tenant's per-connection access token.
type TrackstarAdapter struct {
	config     TrackstarConfig
	httpClient *http.Client
}

var _ syncdomain.WMSClient = (*TrackstarAdapter)(nil)

// NewTrackstarAdapter creates a Trackstar adapter
func NewTrackstarAdapter(config TrackstarConfig) (*TrackstarAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TrackstarAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// SystemFamily returns the family this adapter handles
func (a *TrackstarAdapter) SystemFamily() syncdomain.SystemFamily {
	return syncdomain.SystemFamilyTrackstar
}

// ---------------------------------------------------------------------------
// Fetching
// ---------------------------------------------------------------------------

// FetchOrders returns one page of orders updated since the given time
func (a *TrackstarAdapter) FetchOrders(ctx context.Context, creds *syncdomain.Credentials, since time.Time, cursor syncdomain.PageCursor) ([]syncdomain.ExternalOrder, syncdomain.PageCursor, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(a.config.PageSize))
	if !since.IsZero() {
		query.Set("updated_date[gte]", since.UTC().Format(time.RFC3339))
	}
	if !cursor.IsEnd() {
		query.Set("page_token", string(cursor))
	}

	var page trackstarPage[trackstarOrder]
	if err := a.get(ctx, creds, "/wms/orders", query, &page); err != nil {
		return nil, "", err
	}

	orders := make([]syncdomain.ExternalOrder, 0, len(page.Data))
	for i := range page.Data {
		orders = append(orders, convertTrackstarOrder(&page.Data[i]))
	}
	return orders, syncdomain.PageCursor(page.NextToken), nil
}

// FetchProducts returns one page of products
func (a *TrackstarAdapter) FetchProducts(ctx context.Context, creds *syncdomain.Credentials, cursor syncdomain.PageCursor) ([]syncdomain.ExternalProduct, syncdomain.PageCursor, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(a.config.PageSize))
	if !cursor.IsEnd() {
		query.Set("page_token", string(cursor))
	}

	var page trackstarPage[trackstarProduct]
	if err := a.get(ctx, creds, "/wms/products", query, &page); err != nil {
		return nil, "", err
	}

	products := make([]syncdomain.ExternalProduct, 0, len(page.Data))
	for _, p := range page.Data {
		products = append(products, syncdomain.ExternalProduct{
			ExternalID:  p.ID,
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			WeightGrams: p.WeightGrams,
			Active:      p.Active,
			UpdatedAt:   p.UpdatedDate,
		})
	}
	return products, syncdomain.PageCursor(page.NextToken), nil
}

// FetchInventory returns one page of inventory records
func (a *TrackstarAdapter) FetchInventory(ctx context.Context, creds *syncdomain.Credentials, cursor syncdomain.PageCursor) ([]syncdomain.ExternalInventoryRecord, syncdomain.PageCursor, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(a.config.PageSize))
	if !cursor.IsEnd() {
		query.Set("page_token", string(cursor))
	}

	var page trackstarPage[trackstarInventoryItem]
	if err := a.get(ctx, creds, "/wms/inventory", query, &page); err != nil {
		return nil, "", err
	}

	records := make([]syncdomain.ExternalInventoryRecord, 0, len(page.Data))
	for _, item := range page.Data {
		records = append(records, syncdomain.ExternalInventoryRecord{
			ExternalID:  item.ID,
			SKU:         item.SKU,
			WarehouseID: item.WarehouseID,
			OnHand:      item.OnHand,
			Available:   item.Available,
			Committed:   item.Committed,
			UpdatedAt:   item.UpdatedDate,
		})
	}
	return records, syncdomain.PageCursor(page.NextToken), nil
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// get performs one GET with retries and decodes the response into out
func (a *TrackstarAdapter) get(ctx context.Context, creds *syncdomain.Credentials, path string, query url.Values, out any) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	return withRetry(ctx, a.config.Retry, func() error {
		return a.doGet(ctx, creds, path, query, out)
	})
}

func (a *TrackstarAdapter) doGet(ctx context.Context, creds *syncdomain.Credentials, path string, query url.Values, out any) error {
	endpoint := strings.TrimRight(a.config.BaseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("trackstar: failed to create request: %w", err)
	}
	req.Header.Set("x-trackstar-api-key", creds.APIKey)
	req.Header.Set("x-trackstar-access-token", creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrTransient, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrTransient, err)
	}

	if resp.StatusCode >= 400 {
		return mapTrackstarStatus(resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", syncdomain.ErrInvalidResponse, err)
	}
	return nil
}

// mapTrackstarStatus maps an error response onto the error vocabulary
func mapTrackstarStatus(status int, raw []byte) error {
	detail := ""
	var body trackstarErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			detail = body.Message
		} else {
			detail = body.Error
		}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d %s", syncdomain.ErrAuthFailed, status, detail)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: HTTP 429 %s", syncdomain.ErrRateLimited, detail)
	case status >= 500:
		return fmt.Errorf("%w: HTTP %d %s", syncdomain.ErrTransient, status, detail)
	default:
		return fmt.Errorf("%w: HTTP %d %s", syncdomain.ErrUpstream, status, detail)
	}
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

func convertTrackstarOrder(o *trackstarOrder) syncdomain.ExternalOrder {
	// Trackstar exposes both its normalized status and the raw downstream
	// WMS status; the normalized one is what the mapping table expects.
	rawStatus := o.Status
	if rawStatus == "" {
		rawStatus = o.RawStatus
	}

	order := syncdomain.ExternalOrder{
		ExternalID:     o.ID,
		OrderNumber:    o.OrderNumber,
		RawStatus:      rawStatus,
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		Total:          o.Total,
		ShipToName:     o.ShipToAddress.FullName,
		OrderedAt:      o.CreatedDate,
		AllocatedAt:    o.AllocatedDate,
		ShippedAt:      o.ShippedDate,
		DeliveredAt:    o.DeliveredDate,
	}

	addressParts := make([]string, 0, 6)
	for _, part := range []string{
		o.ShipToAddress.Address1, o.ShipToAddress.Address2,
		o.ShipToAddress.City, o.ShipToAddress.State,
		o.ShipToAddress.Zip, o.ShipToAddress.Country,
	} {
		if part != "" {
			addressParts = append(addressParts, part)
		}
	}
	order.ShipToAddress = strings.Join(addressParts, ", ")

	order.LineItems = make([]syncdomain.ExternalLineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		order.LineItems = append(order.LineItems, syncdomain.ExternalLineItem{
			ExternalID:  li.ID,
			SKU:         li.SKU,
			ProductName: li.Name,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		})
	}
	return order
}
