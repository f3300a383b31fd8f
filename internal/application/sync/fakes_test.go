package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fulfillhub/backend/internal/domain/logistics"
	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
)

// ---------------------------------------------------------------------------
// In-memory logistics repositories
// ---------------------------------------------------------------------------

type memOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*logistics.Order
	// saveErr, when set, fails every Save to simulate storage trouble
	saveErr error
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[uuid.UUID]*logistics.Order)}
}

func (r *memOrderRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*logistics.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.TenantID != tenantID {
		return nil, logistics.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *memOrderRepo) FindByExternalID(_ context.Context, tenantID uuid.UUID, externalID string) (*logistics.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.ExternalID != nil && *o.ExternalID == externalID {
			return cloneOrder(o), nil
		}
	}
	return nil, logistics.ErrOrderNotFound
}

func (r *memOrderRepo) FindByOrderNumber(_ context.Context, tenantID uuid.UUID, orderNumber string) (*logistics.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.OrderNumber == orderNumber {
			return cloneOrder(o), nil
		}
	}
	return nil, logistics.ErrOrderNotFound
}

func (r *memOrderRepo) Save(_ context.Context, order *logistics.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *memOrderRepo) CountForTenant(_ context.Context, tenantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func cloneOrder(o *logistics.Order) *logistics.Order {
	c := *o
	if o.ExternalID != nil {
		v := *o.ExternalID
		c.ExternalID = &v
	}
	c.LineItems = append([]logistics.OrderLineItem(nil), o.LineItems...)
	c.Tags = append([]string(nil), o.Tags...)
	c.TicketRefs = append([]string(nil), o.TicketRefs...)
	return &c
}

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*logistics.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]*logistics.Product)}
}

func (r *memProductRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*logistics.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.TenantID != tenantID {
		return nil, logistics.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) FindByExternalID(_ context.Context, tenantID uuid.UUID, externalID string) (*logistics.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.TenantID == tenantID && p.ExternalID != nil && *p.ExternalID == externalID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, logistics.ErrProductNotFound
}

func (r *memProductRepo) FindBySKU(_ context.Context, tenantID uuid.UUID, sku string) (*logistics.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, logistics.ErrProductNotFound
}

func (r *memProductRepo) Save(_ context.Context, product *logistics.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *product
	r.products[product.ID] = &cp
	return nil
}

type memInventoryRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*logistics.InventoryRecord
}

func newMemInventoryRepo() *memInventoryRepo {
	return &memInventoryRepo{records: make(map[uuid.UUID]*logistics.InventoryRecord)}
}

func (r *memInventoryRepo) FindByExternalID(_ context.Context, tenantID uuid.UUID, externalID string) (*logistics.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.TenantID == tenantID && rec.ExternalID != nil && *rec.ExternalID == externalID {
			c := *rec
			return &c, nil
		}
	}
	return nil, logistics.ErrInventoryNotFound
}

func (r *memInventoryRepo) FindBySKUAndWarehouse(_ context.Context, tenantID uuid.UUID, sku, warehouseID string) (*logistics.InventoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.TenantID == tenantID && rec.SKU == sku && rec.WarehouseID == warehouseID {
			c := *rec
			return &c, nil
		}
	}
	return nil, logistics.ErrInventoryNotFound
}

func (r *memInventoryRepo) Save(_ context.Context, record *logistics.InventoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *record
	r.records[record.ID] = &c
	return nil
}

// ---------------------------------------------------------------------------
// In-memory status repository
// ---------------------------------------------------------------------------

type statusKey struct {
	tenantID uuid.UUID
	dataType syncdomain.DataType
}

type memStatusRepo struct {
	mu   sync.Mutex
	rows map[statusKey]*syncdomain.Status
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{rows: make(map[statusKey]*syncdomain.Status)}
}

func (r *memStatusRepo) Upsert(_ context.Context, status *syncdomain.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *status
	c.UpdatedAt = time.Now()
	r.rows[statusKey{status.TenantID, status.DataType}] = &c
	return nil
}

func (r *memStatusRepo) Get(_ context.Context, tenantID uuid.UUID, dataType syncdomain.DataType) (*syncdomain.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[statusKey{tenantID, dataType}]
	if !ok {
		return nil, syncdomain.ErrStatusNotFound
	}
	c := *row
	return &c, nil
}

func (r *memStatusRepo) ListForTenant(_ context.Context, tenantID uuid.UUID) ([]syncdomain.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []syncdomain.Status
	for key, row := range r.rows {
		if key.tenantID == tenantID {
			out = append(out, *row)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// In-memory tenant repository and credential store
// ---------------------------------------------------------------------------

type memTenantRepo struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*tenant.Tenant
}

func newMemTenantRepo(tenants ...*tenant.Tenant) *memTenantRepo {
	r := &memTenantRepo{tenants: make(map[uuid.UUID]*tenant.Tenant)}
	for _, t := range tenants {
		c := *t
		r.tenants[t.ID] = &c
	}
	return r
}

func (r *memTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	c := *t
	return &c, nil
}

func (r *memTenantRepo) FindByConnectionID(_ context.Context, connectionID string) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.ConnectionID == connectionID {
			c := *t
			return &c, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (r *memTenantRepo) ListConnected(_ context.Context) ([]tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []tenant.Tenant
	for _, t := range r.tenants {
		if t.IsConnected() {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTenantRepo) Save(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.tenants[t.ID] = &c
	return nil
}

func (r *memTenantRepo) UpdateIntegrationStatus(_ context.Context, id uuid.UUID, status syncdomain.IntegrationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return tenant.ErrTenantNotFound
	}
	t.IntegrationStatus = status
	return nil
}

type stubCredStore struct {
	creds map[uuid.UUID]*syncdomain.Credentials
}

func newStubCredStore() *stubCredStore {
	return &stubCredStore{creds: make(map[uuid.UUID]*syncdomain.Credentials)}
}

func (s *stubCredStore) GetCredentials(_ context.Context, tenantID uuid.UUID) (*syncdomain.Credentials, error) {
	c, ok := s.creds[tenantID]
	if !ok {
		return nil, syncdomain.ErrNotConfigured
	}
	return c, nil
}

func (s *stubCredStore) SetCredentials(_ context.Context, tenantID uuid.UUID, creds syncdomain.Credentials) error {
	s.creds[tenantID] = &creds
	return nil
}

func (s *stubCredStore) ClearCredentials(_ context.Context, tenantID uuid.UUID) error {
	delete(s.creds, tenantID)
	return nil
}

// ---------------------------------------------------------------------------
// Stub WMS client
// ---------------------------------------------------------------------------

// stubClient serves canned pages per data type, one page per call, and
// can be told to fail fetches with a fixed error.
type stubClient struct {
	family syncdomain.SystemFamily

	orderPages     [][]syncdomain.ExternalOrder
	productPages   [][]syncdomain.ExternalProduct
	inventoryPages [][]syncdomain.ExternalInventoryRecord

	fetchErr   error
	productErr error

	observed    int
	hasObserved bool
	// observedByToken, when set, scopes telemetry to specific credentials
	// and takes precedence over the flat observed fields.
	observedByToken map[string]int

	mu         sync.Mutex
	orderCalls int
}

var _ syncdomain.WMSClient = (*stubClient)(nil)
var _ syncdomain.CreditObserver = (*stubClient)(nil)

func (c *stubClient) SystemFamily() syncdomain.SystemFamily {
	if c.family == "" {
		return syncdomain.SystemFamilyTrackstar
	}
	return c.family
}

func (c *stubClient) FetchOrders(_ context.Context, _ *syncdomain.Credentials, _ time.Time, cursor syncdomain.PageCursor) ([]syncdomain.ExternalOrder, syncdomain.PageCursor, error) {
	if c.fetchErr != nil {
		return nil, "", c.fetchErr
	}
	c.mu.Lock()
	c.orderCalls++
	c.mu.Unlock()
	return pageOf(c.orderPages, cursor)
}

func (c *stubClient) FetchProducts(_ context.Context, _ *syncdomain.Credentials, cursor syncdomain.PageCursor) ([]syncdomain.ExternalProduct, syncdomain.PageCursor, error) {
	if c.fetchErr != nil {
		return nil, "", c.fetchErr
	}
	if c.productErr != nil {
		return nil, "", c.productErr
	}
	return pageOf(c.productPages, cursor)
}

func (c *stubClient) FetchInventory(_ context.Context, _ *syncdomain.Credentials, cursor syncdomain.PageCursor) ([]syncdomain.ExternalInventoryRecord, syncdomain.PageCursor, error) {
	if c.fetchErr != nil {
		return nil, "", c.fetchErr
	}
	return pageOf(c.inventoryPages, cursor)
}

func (c *stubClient) ObservedRemainingCredits(creds *syncdomain.Credentials) (int, bool) {
	if c.observedByToken != nil {
		v, ok := c.observedByToken[creds.AccessToken]
		return v, ok
	}
	return c.observed, c.hasObserved
}

// pageOf returns the cursor-indexed page and the cursor for the next one
func pageOf[T any](pages [][]T, cursor syncdomain.PageCursor) ([]T, syncdomain.PageCursor, error) {
	idx := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(string(cursor), "page-%d", &idx); err != nil {
			return nil, "", syncdomain.ErrInvalidResponse
		}
	}
	if idx >= len(pages) {
		return nil, "", nil
	}
	next := syncdomain.PageCursor("")
	if idx+1 < len(pages) {
		next = syncdomain.PageCursor(fmt.Sprintf("page-%d", idx+1))
	}
	return pages[idx], next, nil
}

type stubRegistry struct {
	clients map[syncdomain.SystemFamily]syncdomain.WMSClient
}

func newStubRegistry(clients ...syncdomain.WMSClient) *stubRegistry {
	r := &stubRegistry{clients: make(map[syncdomain.SystemFamily]syncdomain.WMSClient)}
	for _, c := range clients {
		r.clients[c.SystemFamily()] = c
	}
	return r
}

func (r *stubRegistry) ClientFor(family syncdomain.SystemFamily) (syncdomain.WMSClient, error) {
	c, ok := r.clients[family]
	if !ok {
		return nil, syncdomain.ErrUnknownSystemFamily
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// In-memory idempotency store
// ---------------------------------------------------------------------------

type memIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
	err  error
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{seen: make(map[string]struct{})}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; ok {
		return false, nil
	}
	s.seen[eventID] = struct{}{}
	return true, nil
}

func (s *memIdempotencyStore) Forget(_ context.Context, eventID string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, eventID)
	return nil
}
