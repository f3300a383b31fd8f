package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

type schedulerFixture struct {
	scheduler *SessionScheduler
	tenantID  uuid.UUID
	tenants   *memTenantRepo
	statuses  *memStatusRepo
	orders    *memOrderRepo
	client    *stubClient
}

func newSchedulerFixture(t *testing.T, budget int, catalog *syncdomain.Catalog, client *stubClient) *schedulerFixture {
	t.Helper()

	tenantID := uuid.New()
	family := syncdomain.SystemFamilyTrackstar
	tenants := newMemTenantRepo(&tenant.Tenant{
		ID:                tenantID,
		Name:              "Acme Goods",
		Slug:              "acme-goods",
		IntegrationStatus: syncdomain.IntegrationStatusConnected,
		SystemFamily:      &family,
		APIKey:            "pk_test",
		AccessToken:       "tok_test",
		ConnectionID:      "conn-1",
	})

	creds := newStubCredStore()
	require.NoError(t, creds.SetCredentials(context.Background(), tenantID, syncdomain.Credentials{
		SystemFamily: family,
		APIKey:       "pk_test",
		AccessToken:  "tok_test",
		ConnectionID: "conn-1",
	}))

	orders := newMemOrderRepo()
	statuses := newMemStatusRepo()
	reconciler := NewReconciler(orders, newMemProductRepo(), newMemInventoryRepo(), zap.NewNop())
	tracker := NewStatusTracker(statuses, zap.NewNop())

	config := DefaultSchedulerConfig()
	config.DefaultBudget = budget

	scheduler, err := NewSessionScheduler(
		config, catalog, creds, newStubRegistry(client),
		reconciler, tracker, tenants, zap.NewNop(),
	)
	require.NoError(t, err)

	return &schedulerFixture{
		scheduler: scheduler,
		tenantID:  tenantID,
		tenants:   tenants,
		statuses:  statuses,
		orders:    orders,
		client:    client,
	}
}

func ordersCatalog(t *testing.T) *syncdomain.Catalog {
	t.Helper()
	catalog, err := syncdomain.NewCatalog(
		syncdomain.Strategy{
			Name: "critical-orders", Cost: 150, Priority: 1,
			DataType: syncdomain.DataTypeOrders, Lookback: 24 * time.Hour, Required: true,
		},
		syncdomain.Strategy{
			Name: "inventory-snapshot", Cost: 400, Priority: 2,
			DataType: syncdomain.DataTypeInventory,
		},
	)
	require.NoError(t, err)
	return catalog
}

func orderPage(n int, offset int) []syncdomain.ExternalOrder {
	page := make([]syncdomain.ExternalOrder, n)
	for i := range page {
		page[i] = externalOrderFixture(
			fmt.Sprintf("ext-%d", offset+i),
			fmt.Sprintf("SO-%d", offset+i),
		)
	}
	return page
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func TestSessionScheduler_FirstSyncCompletes(t *testing.T) {
	client := &stubClient{
		orderPages: [][]syncdomain.ExternalOrder{
			orderPage(50, 0),
			orderPage(200, 50),
		},
		inventoryPages: [][]syncdomain.ExternalInventoryRecord{
			{{ExternalID: "inv-1", SKU: "SKU-A", WarehouseID: "wh-1"}},
		},
	}
	f := newSchedulerFixture(t, 2000, ordersCatalog(t), client)
	ctx := context.Background()

	session, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)

	assert.Equal(t, syncdomain.SessionStatusCompleted, session.Status)
	assert.Equal(t, 1450, session.Budget.Remaining())
	assert.Equal(t, 250, session.Fetched[syncdomain.DataTypeOrders])
	assert.Equal(t, 250, session.Created[syncdomain.DataTypeOrders])
	assert.Equal(t, 0, session.Updated[syncdomain.DataTypeOrders])
	assert.ElementsMatch(t, []string{"critical-orders", "inventory-snapshot"}, session.CompletedStrategies)

	count, err := f.orders.CountForTenant(ctx, f.tenantID)
	require.NoError(t, err)
	assert.EqualValues(t, 250, count)

	status, err := f.statuses.Get(ctx, f.tenantID, syncdomain.DataTypeOrders)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.OutcomeSuccess, status.Outcome)
	assert.Equal(t, 250, status.RecordsProcessed)
	require.NotNil(t, status.NextRunAt)
}

func TestSessionScheduler_RepeatSyncIsIdempotent(t *testing.T) {
	client := &stubClient{
		orderPages: [][]syncdomain.ExternalOrder{orderPage(10, 0)},
	}
	f := newSchedulerFixture(t, 5000, ordersCatalog(t), client)
	ctx := context.Background()

	first, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 10, first.Created[syncdomain.DataTypeOrders])

	second, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created[syncdomain.DataTypeOrders])
	assert.Equal(t, 10, second.Updated[syncdomain.DataTypeOrders])

	count, err := f.orders.CountForTenant(ctx, f.tenantID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, count)
}

func TestSessionScheduler_BudgetExhaustion(t *testing.T) {
	client := &stubClient{
		orderPages: [][]syncdomain.ExternalOrder{orderPage(10, 0)},
	}
	f := newSchedulerFixture(t, 300, ordersCatalog(t), client)
	ctx := context.Background()

	session, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)

	// The required strategy ran; the 400-credit opportunistic one did not
	// fit the 150 credits left.
	assert.Equal(t, syncdomain.SessionStatusBudgetExhausted, session.Status)
	assert.Equal(t, 150, session.Budget.Remaining())
	assert.Equal(t, 10, session.Fetched[syncdomain.DataTypeOrders])
	assert.Equal(t, []string{"critical-orders"}, session.CompletedStrategies)
	assert.Empty(t, session.FailedStrategies)

	status, err := f.statuses.Get(ctx, f.tenantID, syncdomain.DataTypeOrders)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.OutcomePartial, status.Outcome)
}

func TestSessionScheduler_RequiredStrategyNotAdmissibleFailsSession(t *testing.T) {
	client := &stubClient{}
	f := newSchedulerFixture(t, 100, ordersCatalog(t), client)
	ctx := context.Background()

	session, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.ErrorIs(t, err, syncdomain.ErrBudgetInsufficientForRequired)
	assert.Equal(t, syncdomain.SessionStatusFailed, session.Status)
	assert.Empty(t, session.CompletedStrategies)

	status, err := f.statuses.Get(ctx, f.tenantID, syncdomain.DataTypeOrders)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.OutcomeError, status.Outcome)
}

func TestSessionScheduler_OpportunisticRejectionStillRunsLaterRequired(t *testing.T) {
	catalog, err := syncdomain.NewCatalog(
		syncdomain.Strategy{Name: "big-backfill", Cost: 900, Priority: 1, DataType: syncdomain.DataTypeOrders},
		syncdomain.Strategy{Name: "inventory-snapshot", Cost: 400, Priority: 2, DataType: syncdomain.DataTypeInventory},
		syncdomain.Strategy{Name: "critical-orders", Cost: 150, Priority: 3, DataType: syncdomain.DataTypeOrders, Required: true},
	)
	require.NoError(t, err)

	client := &stubClient{
		orderPages: [][]syncdomain.ExternalOrder{orderPage(5, 0)},
	}
	f := newSchedulerFixture(t, 1200, catalog, client)

	session, err := f.scheduler.RunSession(context.Background(), f.tenantID)
	require.NoError(t, err)

	// inventory-snapshot was rejected, which exhausts the budget, but the
	// required strategy after it still ran.
	assert.Equal(t, syncdomain.SessionStatusBudgetExhausted, session.Status)
	assert.ElementsMatch(t, []string{"big-backfill", "critical-orders"}, session.CompletedStrategies)
	assert.Equal(t, 150, session.Budget.Remaining())
}

func TestSessionScheduler_AuthFailureAbortsAndFlagsTenant(t *testing.T) {
	client := &stubClient{fetchErr: syncdomain.ErrAuthFailed}
	f := newSchedulerFixture(t, 2000, ordersCatalog(t), client)
	ctx := context.Background()

	session, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.ErrorIs(t, err, syncdomain.ErrAuthFailed)
	assert.Equal(t, syncdomain.SessionStatusFailed, session.Status)
	assert.Equal(t, []string{"critical-orders"}, session.FailedStrategies)

	count, err := f.orders.CountForTenant(ctx, f.tenantID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count, "no partial writes after auth failure")

	flagged, err := f.tenants.FindByID(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.IntegrationStatusError, flagged.IntegrationStatus)
}

func TestSessionScheduler_TransientFailureIsPartial(t *testing.T) {
	catalog, err := syncdomain.NewCatalog(
		syncdomain.Strategy{Name: "critical-orders", Cost: 150, Priority: 1, DataType: syncdomain.DataTypeOrders, Required: true},
		syncdomain.Strategy{Name: "full-product-sync", Cost: 600, Priority: 2, DataType: syncdomain.DataTypeProducts},
	)
	require.NoError(t, err)

	client := &stubClient{
		orderPages: [][]syncdomain.ExternalOrder{orderPage(3, 0)},
		productErr: syncdomain.ErrTransient,
	}
	f := newSchedulerFixture(t, 2000, catalog, client)

	session, err := f.scheduler.RunSession(context.Background(), f.tenantID)
	require.NoError(t, err)

	assert.Equal(t, syncdomain.SessionStatusPartiallyFailed, session.Status)
	assert.Equal(t, []string{"critical-orders"}, session.CompletedStrategies)
	assert.Equal(t, []string{"full-product-sync"}, session.FailedStrategies)
	// The admitted cost is not refunded on failure
	assert.Equal(t, 2000-150-600, session.Budget.Remaining())
}

func TestSessionScheduler_NotConfiguredPassesThrough(t *testing.T) {
	f := newSchedulerFixture(t, 2000, ordersCatalog(t), &stubClient{})

	_, err := f.scheduler.RunSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, syncdomain.ErrNotConfigured)
}

func TestSessionScheduler_RejectsConcurrentSession(t *testing.T) {
	f := newSchedulerFixture(t, 2000, ordersCatalog(t), &stubClient{})

	require.True(t, f.scheduler.locks.TryLock(f.tenantID))
	defer f.scheduler.locks.Unlock(f.tenantID)

	_, err := f.scheduler.RunSession(context.Background(), f.tenantID)
	assert.ErrorIs(t, err, syncdomain.ErrSyncAlreadyRunning)
}

// ---------------------------------------------------------------------------
// Budget carry-over
// ---------------------------------------------------------------------------

func TestSessionScheduler_BudgetCarriesAcrossSessions(t *testing.T) {
	client := &stubClient{
		orderPages: [][]syncdomain.ExternalOrder{orderPage(2, 0)},
	}
	f := newSchedulerFixture(t, 2000, ordersCatalog(t), client)
	ctx := context.Background()

	first, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1450, first.Budget.Remaining())

	// The second session starts from where the first left off, not from a
	// fresh allowance.
	second, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 900, second.Budget.Remaining())
}

func TestSessionScheduler_ResetBudgetRestoresAllowance(t *testing.T) {
	f := newSchedulerFixture(t, 300, ordersCatalog(t), &stubClient{
		orderPages: [][]syncdomain.ExternalOrder{orderPage(1, 0)},
	})
	ctx := context.Background()

	session, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, syncdomain.SessionStatusBudgetExhausted, session.Status)

	remaining := f.scheduler.ResetBudget(f.tenantID)
	assert.Equal(t, 300, remaining)

	// The next session runs the required strategy again
	again, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"critical-orders"}, again.CompletedStrategies)
}

func TestSessionScheduler_ObservedCreditsOnlyLower(t *testing.T) {
	client := &stubClient{
		orderPages:  [][]syncdomain.ExternalOrder{orderPage(1, 0)},
		observed:    50,
		hasObserved: true,
	}
	catalog, err := syncdomain.NewCatalog(
		syncdomain.Strategy{Name: "critical-orders", Cost: 150, Priority: 1, DataType: syncdomain.DataTypeOrders, Required: true},
	)
	require.NoError(t, err)
	f := newSchedulerFixture(t, 2000, catalog, client)

	session, err := f.scheduler.RunSession(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 50, session.Budget.Remaining(), "upstream telemetry lowers the budget")
}

func TestSessionScheduler_ObservedCreditsDoNotLeakAcrossTenants(t *testing.T) {
	catalog, err := syncdomain.NewCatalog(
		syncdomain.Strategy{Name: "critical-orders", Cost: 150, Priority: 1, DataType: syncdomain.DataTypeOrders, Required: true},
	)
	require.NoError(t, err)

	// One shared client; only the first tenant's account reports a low
	// remaining-credit figure.
	client := &stubClient{
		orderPages:      [][]syncdomain.ExternalOrder{orderPage(1, 0)},
		observedByToken: map[string]int{"tok_test": 7},
	}
	f := newSchedulerFixture(t, 2000, catalog, client)
	ctx := context.Background()

	otherID := uuid.New()
	family := syncdomain.SystemFamilyTrackstar
	require.NoError(t, f.tenants.Save(ctx, &tenant.Tenant{
		ID:                otherID,
		Name:              "Bravo Goods",
		Slug:              "bravo-goods",
		IntegrationStatus: syncdomain.IntegrationStatusConnected,
		SystemFamily:      &family,
		APIKey:            "pk_other",
		AccessToken:       "tok_other",
		ConnectionID:      "conn-2",
	}))
	require.NoError(t, f.scheduler.credentials.SetCredentials(ctx, otherID, syncdomain.Credentials{
		SystemFamily: family,
		APIKey:       "pk_other",
		AccessToken:  "tok_other",
		ConnectionID: "conn-2",
	}))

	first, err := f.scheduler.RunSession(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 7, first.Budget.Remaining())

	second, err := f.scheduler.RunSession(ctx, otherID)
	require.NoError(t, err)
	assert.Equal(t, 1850, second.Budget.Remaining(),
		"another account's telemetry must not clamp this tenant's budget")
}

// ---------------------------------------------------------------------------
// Cadence
// ---------------------------------------------------------------------------

func TestSessionScheduler_CadenceFallsBackToPersistedNextRun(t *testing.T) {
	f := newSchedulerFixture(t, 2000, ordersCatalog(t), &stubClient{})
	ctx := context.Background()
	now := time.Now()

	// Nothing in memory, nothing persisted: a brand-new tenant is due.
	assert.True(t, f.scheduler.isDue(ctx, f.tenantID, now))

	// After a restart the in-memory last-run map is empty, so the
	// persisted NextRunAt decides. A future value holds the tenant back.
	future := now.Add(30 * time.Minute)
	require.NoError(t, f.statuses.Upsert(ctx, &syncdomain.Status{
		TenantID:  f.tenantID,
		DataType:  syncdomain.DataTypeOrders,
		LastRunAt: now.Add(-time.Minute),
		Outcome:   syncdomain.OutcomeSuccess,
		NextRunAt: &future,
	}))
	assert.False(t, f.scheduler.isDue(ctx, f.tenantID, now))

	// Once the persisted next run has passed, the tenant is due again.
	past := now.Add(-time.Minute)
	require.NoError(t, f.statuses.Upsert(ctx, &syncdomain.Status{
		TenantID:  f.tenantID,
		DataType:  syncdomain.DataTypeOrders,
		LastRunAt: now.Add(-time.Hour),
		Outcome:   syncdomain.OutcomeSuccess,
		NextRunAt: &past,
	}))
	assert.True(t, f.scheduler.isDue(ctx, f.tenantID, now))

	// A session this instance just ran is tracked in memory and is not
	// due again before the interval elapses.
	f.scheduler.markRun(f.tenantID)
	assert.False(t, f.scheduler.isDue(ctx, f.tenantID, time.Now()))
}
