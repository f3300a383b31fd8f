package sync

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
)

// ---------------------------------------------------------------------------
// Idempotency Store
// ---------------------------------------------------------------------------

// IdempotencyStore remembers processed webhook event IDs so redeliveries
// become acknowledged no-ops.
type IdempotencyStore interface {
	// MarkProcessed records the event ID and returns true when this is the
	// first time the ID was seen within the retention window.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Forget removes the event ID so a redelivery is processed again.
	// Called when handling fails after the ID was already marked.
	Forget(ctx context.Context, eventID string) error
}

// ---------------------------------------------------------------------------
// Webhook Envelope
// ---------------------------------------------------------------------------

// webhookEnvelope is the common outer shape of aggregator webhook payloads.
// Trackstar sends "event_type"; a few older event versions send "type".
type webhookEnvelope struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	LegacyType   string          `json:"type"`
	ConnectionID string          `json:"connection_id"`
	Data         json.RawMessage `json:"data"`
}

func (e *webhookEnvelope) eventType() string {
	if e.EventType != "" {
		return e.EventType
	}
	return e.LegacyType
}

// Ack is the acknowledgement returned to the webhook sender. Every
// authenticated, well-formed delivery is acknowledged (duplicates,
// unknown event types, unknown connections, even merge failures) so the
// sender never disables delivery over payloads we cannot use right now.
type Ack struct {
	Received  bool      `json:"received"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Duplicate bool      `json:"duplicate,omitempty"`
	Ignored   bool      `json:"ignored,omitempty"`
}

// ---------------------------------------------------------------------------
// WebhookProcessor
// ---------------------------------------------------------------------------

// WebhookConfig holds webhook verification settings
type WebhookConfig struct {
	// Secret is the shared HMAC secret for signature verification. When
	// empty, verification is skipped and every delivery logs a warning.
	Secret string
	// IdempotencyTTL is how long processed event IDs are remembered
	IdempotencyTTL time.Duration
}

// DefaultWebhookConfig returns default webhook configuration
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		IdempotencyTTL: 24 * time.Hour,
	}
}

// WebhookProcessor handles inbound push notifications between scheduled
// sessions: verify the signature, resolve the tenant from the connection
// ID, dedupe by event ID, and merge the embedded entity through the same
// reconciler the scheduler uses.
type WebhookProcessor struct {
	config      WebhookConfig
	tenants     tenant.Repository
	reconciler  *Reconciler
	tracker     *StatusTracker
	idempotency IdempotencyStore
	logger      *zap.Logger
}

// NewWebhookProcessor creates a WebhookProcessor
func NewWebhookProcessor(
	config WebhookConfig,
	tenants tenant.Repository,
	reconciler *Reconciler,
	tracker *StatusTracker,
	idempotency IdempotencyStore,
	logger *zap.Logger,
) *WebhookProcessor {
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = DefaultWebhookConfig().IdempotencyTTL
	}
	return &WebhookProcessor{
		config:      config,
		tenants:     tenants,
		reconciler:  reconciler,
		tracker:     tracker,
		idempotency: idempotency,
		logger:      logger,
	}
}

// Process handles one raw webhook delivery. body is the exact request
// body as received; signature is the hex HMAC from the sender's header.
func (p *WebhookProcessor) Process(ctx context.Context, body []byte, signature string) (*Ack, error) {
	if err := p.verifySignature(body, signature); err != nil {
		return nil, err
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, syncdomain.ErrMalformedPayload
	}
	eventType := envelope.eventType()
	if eventType == "" || envelope.ConnectionID == "" {
		return nil, syncdomain.ErrMalformedPayload
	}

	ack := &Ack{
		Received:  true,
		EventType: eventType,
		Timestamp: time.Now(),
	}

	if envelope.ID != "" {
		first, err := p.idempotency.MarkProcessed(ctx, envelope.ID, p.config.IdempotencyTTL)
		if err != nil {
			// Dedupe store trouble must not drop the event: reprocessing is
			// safe because merges are idempotent.
			p.logger.Warn("Webhook idempotency check failed, processing anyway",
				zap.String("event_id", envelope.ID),
				zap.Error(err),
			)
		} else if !first {
			ack.Duplicate = true
			p.logger.Info("Duplicate webhook delivery acknowledged",
				zap.String("event_id", envelope.ID),
				zap.String("event_type", eventType),
			)
			return ack, nil
		}
	}

	// From here on the delivery is acknowledged no matter what: the sender
	// disables the endpoint after repeated errors, so only signature and
	// shape problems are worth a non-200. Failures below release the
	// idempotency mark so a redelivery is processed, not swallowed.
	owner, err := p.tenants.FindByConnectionID(ctx, envelope.ConnectionID)
	if err != nil {
		p.forget(ctx, envelope.ID)
		ack.Ignored = true
		p.logger.Warn("Webhook for unknown connection acknowledged",
			zap.String("connection_id", envelope.ConnectionID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return ack, nil
	}

	result, err := p.dispatch(ctx, owner.ID, eventType, envelope.Data, ack)
	if err != nil {
		if errors.Is(err, syncdomain.ErrMalformedPayload) {
			return nil, err
		}
		p.forget(ctx, envelope.ID)
		p.logger.Error("Webhook merge failed, acknowledged pending redelivery",
			zap.String("tenant_id", owner.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return ack, nil
	}
	return result, nil
}

// forget releases an idempotency mark after a failed handling attempt
func (p *WebhookProcessor) forget(ctx context.Context, eventID string) {
	if eventID == "" {
		return
	}
	if err := p.idempotency.Forget(ctx, eventID); err != nil {
		p.logger.Warn("Failed to release webhook idempotency mark",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

// verifySignature checks the hex HMAC-SHA256 of the raw body. With no
// secret configured verification degrades to a logged warning.
func (p *WebhookProcessor) verifySignature(body []byte, signature string) error {
	if p.config.Secret == "" {
		p.logger.Warn("Webhook received without signature verification, no secret configured")
		return nil
	}
	mac := hmac.New(sha256.New, []byte(p.config.Secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature))) {
		return syncdomain.ErrInvalidSignature
	}
	return nil
}

// ---------------------------------------------------------------------------
// Event Payloads
// ---------------------------------------------------------------------------

// orderEventPayload is the order body embedded in order.* events
type orderEventPayload struct {
	ID             string                 `json:"id"`
	OrderNumber    string                 `json:"order_number"`
	Status         string                 `json:"status"`
	TrackingNumber string                 `json:"tracking_number"`
	Carrier        string                 `json:"carrier"`
	ShipToName     string                 `json:"ship_to_name"`
	ShipToAddress  string                 `json:"ship_to_address"`
	Total          decimal.Decimal        `json:"total"`
	LineItems      []lineItemEventPayload `json:"line_items"`
	CreatedDate    time.Time              `json:"created_date"`
	AllocatedDate  *time.Time             `json:"allocated_date"`
	ShippedDate    *time.Time             `json:"shipped_date"`
	DeliveredDate  *time.Time             `json:"delivered_date"`
}

type lineItemEventPayload struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (o *orderEventPayload) toExternal() syncdomain.ExternalOrder {
	items := make([]syncdomain.ExternalLineItem, len(o.LineItems))
	for i, li := range o.LineItems {
		items[i] = syncdomain.ExternalLineItem{
			ExternalID:  li.ID,
			SKU:         li.SKU,
			ProductName: li.ProductName,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
		}
	}
	return syncdomain.ExternalOrder{
		ExternalID:     o.ID,
		OrderNumber:    o.OrderNumber,
		RawStatus:      o.Status,
		TrackingNumber: o.TrackingNumber,
		Carrier:        o.Carrier,
		ShipToName:     o.ShipToName,
		ShipToAddress:  o.ShipToAddress,
		Total:          o.Total,
		LineItems:      items,
		OrderedAt:      o.CreatedDate,
		AllocatedAt:    o.AllocatedDate,
		ShippedAt:      o.ShippedDate,
		DeliveredAt:    o.DeliveredDate,
	}
}

// productEventPayload is the product body embedded in product.* events
type productEventPayload struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	WeightGrams decimal.Decimal `json:"weight_grams"`
	Active      bool            `json:"active"`
	UpdatedDate time.Time       `json:"updated_date"`
}

func (pr *productEventPayload) toExternal() syncdomain.ExternalProduct {
	return syncdomain.ExternalProduct{
		ExternalID:  pr.ID,
		SKU:         pr.SKU,
		Name:        pr.Name,
		Description: pr.Description,
		Price:       pr.Price,
		WeightGrams: pr.WeightGrams,
		Active:      pr.Active,
		UpdatedAt:   pr.UpdatedDate,
	}
}

// inventoryEventPayload is the inventory body embedded in inventory.* events
type inventoryEventPayload struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	WarehouseID string          `json:"warehouse_id"`
	OnHand      decimal.Decimal `json:"onhand"`
	Available   decimal.Decimal `json:"available"`
	Committed   decimal.Decimal `json:"committed"`
	UpdatedDate time.Time       `json:"updated_date"`
}

func (iv *inventoryEventPayload) toExternal() syncdomain.ExternalInventoryRecord {
	return syncdomain.ExternalInventoryRecord{
		ExternalID:  iv.ID,
		SKU:         iv.SKU,
		WarehouseID: iv.WarehouseID,
		OnHand:      iv.OnHand,
		Available:   iv.Available,
		Committed:   iv.Committed,
		UpdatedAt:   iv.UpdatedDate,
	}
}

// dispatch routes the event to the reconciler by event type prefix
func (p *WebhookProcessor) dispatch(ctx context.Context, tenantID uuid.UUID, eventType string, data json.RawMessage, ack *Ack) (*Ack, error) {
	switch {
	case strings.HasPrefix(eventType, "order."):
		var payload orderEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, syncdomain.ErrMalformedPayload
		}
		result, err := p.reconciler.MergeOrder(ctx, tenantID, payload.toExternal())
		p.recordBatch(ctx, tenantID, syncdomain.DataTypeOrders, err)
		if err != nil {
			return nil, err
		}
		p.logger.Info("Webhook order merged",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event_type", eventType),
			zap.String("action", string(result.Action)),
		)

	case strings.HasPrefix(eventType, "product."):
		var payload productEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, syncdomain.ErrMalformedPayload
		}
		result, err := p.reconciler.MergeProduct(ctx, tenantID, payload.toExternal())
		p.recordBatch(ctx, tenantID, syncdomain.DataTypeProducts, err)
		if err != nil {
			return nil, err
		}
		p.logger.Info("Webhook product merged",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event_type", eventType),
			zap.String("action", string(result.Action)),
		)

	case strings.HasPrefix(eventType, "inventory."):
		var payload inventoryEventPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, syncdomain.ErrMalformedPayload
		}
		result, err := p.reconciler.MergeInventory(ctx, tenantID, payload.toExternal())
		p.recordBatch(ctx, tenantID, syncdomain.DataTypeInventory, err)
		if err != nil {
			return nil, err
		}
		p.logger.Info("Webhook inventory merged",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event_type", eventType),
			zap.String("action", string(result.Action)),
		)

	default:
		// Unknown event types are acknowledged so the sender stops
		// retrying; the payload is logged for later mapping work.
		ack.Ignored = true
		p.logger.Info("Unknown webhook event type acknowledged",
			zap.String("tenant_id", tenantID.String()),
			zap.String("event_type", eventType),
		)
	}

	return ack, nil
}

func (p *WebhookProcessor) recordBatch(ctx context.Context, tenantID uuid.UUID, dataType syncdomain.DataType, mergeErr error) {
	outcome := syncdomain.OutcomeSuccess
	processed, errCount := 1, 0
	message := ""
	if mergeErr != nil {
		outcome = syncdomain.OutcomeError
		processed, errCount = 0, 1
		message = mergeErr.Error()
	}
	p.tracker.Record(ctx, tenantID, dataType, outcome, processed, errCount, nil, message, nil)
}
