package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
)

// ---------------------------------------------------------------------------
// SchedulerConfig
// ---------------------------------------------------------------------------

// SchedulerConfig holds configuration for the session scheduler
type SchedulerConfig struct {
	// DefaultBudget is the credit budget a tenant's first session starts
	// with, and the value an explicit reset restores.
	DefaultBudget int
	// SyncInterval is the cadence between scheduled sessions per tenant
	SyncInterval time.Duration
	// CheckInterval is how often the background loop looks for due tenants
	CheckInterval time.Duration
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		DefaultBudget: 2000,
		SyncInterval:  15 * time.Minute,
		CheckInterval: time.Minute,
	}
}

// Validate validates the configuration
func (c *SchedulerConfig) Validate() error {
	if c.DefaultBudget <= 0 {
		return fmt.Errorf("scheduler: default budget must be positive")
	}
	if c.SyncInterval <= 0 || c.CheckInterval <= 0 {
		return fmt.Errorf("scheduler: intervals must be positive")
	}
	return nil
}

// ---------------------------------------------------------------------------
// SessionScheduler
// ---------------------------------------------------------------------------

// SessionScheduler orchestrates sync sessions: it selects admissible
// strategies in priority order until the budget or the catalog is
// exhausted, fetching through the tenant's WMS adapter and merging
// through the Reconciler. Sessions for different tenants run
// concurrently; within one tenant at most one session is active,
// enforced by a keyed lock. Strategies within a session run
// sequentially to keep credit accounting deterministic.
type SessionScheduler struct {
	config      SchedulerConfig
	catalog     *syncdomain.Catalog
	credentials syncdomain.CredentialStore
	clients     syncdomain.ClientRegistry
	reconciler  *Reconciler
	tracker     *StatusTracker
	tenants     tenant.Repository
	locks       *KeyedLock
	logger      *zap.Logger

	budgetMu sync.Mutex
	budgets  map[uuid.UUID]*syncdomain.CreditBudget

	runMu     sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	lastRunMu sync.Mutex
	lastRun   map[uuid.UUID]time.Time
}

// NewSessionScheduler creates a session scheduler
func NewSessionScheduler(
	config SchedulerConfig,
	catalog *syncdomain.Catalog,
	credentials syncdomain.CredentialStore,
	clients syncdomain.ClientRegistry,
	reconciler *Reconciler,
	tracker *StatusTracker,
	tenants tenant.Repository,
	logger *zap.Logger,
) (*SessionScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SessionScheduler{
		config:      config,
		catalog:     catalog,
		credentials: credentials,
		clients:     clients,
		reconciler:  reconciler,
		tracker:     tracker,
		tenants:     tenants,
		locks:       NewKeyedLock(),
		logger:      logger,
		budgets:     make(map[uuid.UUID]*syncdomain.CreditBudget),
		lastRun:     make(map[uuid.UUID]time.Time),
	}, nil
}

// ---------------------------------------------------------------------------
// Session Execution
// ---------------------------------------------------------------------------

// RunSession runs one sync session for the tenant. A session already in
// flight for the same tenant is rejected immediately with
// ErrSyncAlreadyRunning; callers are never queued.
func (s *SessionScheduler) RunSession(ctx context.Context, tenantID uuid.UUID) (*syncdomain.Session, error) {
	if !s.locks.TryLock(tenantID) {
		return nil, syncdomain.ErrSyncAlreadyRunning
	}
	defer s.locks.Unlock(tenantID)

	creds, err := s.credentials.GetCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.ClientFor(creds.SystemFamily)
	if err != nil {
		return nil, err
	}

	session := syncdomain.NewSession(tenantID, s.budgetFor(tenantID))
	s.logger.Info("Sync session started",
		zap.String("session_id", session.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("system_family", creds.SystemFamily.String()),
		zap.Int("budget_remaining", session.Budget.Remaining()),
	)

	skipOpportunistic := false
	for _, strategy := range s.catalog.Strategies() {
		if skipOpportunistic && !strategy.Required {
			continue
		}

		if admitErr := session.Budget.TryAdmit(strategy); admitErr != nil {
			if errors.Is(admitErr, syncdomain.ErrBudgetInsufficientForRequired) {
				// A required strategy is never silently dropped: the whole
				// session fails instead.
				session.Abort()
				s.recordSessionStatus(ctx, session)
				s.logger.Error("Required strategy not admissible, session failed",
					zap.String("session_id", session.ID.String()),
					zap.String("strategy", strategy.Name),
					zap.Error(admitErr),
				)
				return session, admitErr
			}
			s.logger.Info("Opportunistic strategy rejected, budget exhausted",
				zap.String("session_id", session.ID.String()),
				zap.String("strategy", strategy.Name),
				zap.Int("budget_remaining", session.Budget.Remaining()),
			)
			skipOpportunistic = true
			continue
		}

		runErr := s.runStrategy(ctx, client, creds, session, strategy)
		s.observeCredits(client, creds, session.Budget)

		if runErr != nil {
			session.RecordStrategyFailure(strategy.Name)
			if errors.Is(runErr, syncdomain.ErrAuthFailed) {
				// Expired/invalid credentials fail every remaining strategy
				// too; abort and flag the tenant for operator attention.
				session.Abort()
				if err := s.tenants.UpdateIntegrationStatus(ctx, tenantID, syncdomain.IntegrationStatusError); err != nil {
					s.logger.Error("Failed to flag tenant integration status",
						zap.String("tenant_id", tenantID.String()),
						zap.Error(err),
					)
				}
				s.recordSessionStatus(ctx, session)
				return session, runErr
			}
			s.logger.Warn("Strategy failed, session continues",
				zap.String("session_id", session.ID.String()),
				zap.String("strategy", strategy.Name),
				zap.Error(runErr),
			)
			continue
		}
		session.RecordStrategySuccess(strategy.Name)
	}

	session.Finish()
	s.recordSessionStatus(ctx, session)
	s.markRun(tenantID)

	s.logger.Info("Sync session finished",
		zap.String("session_id", session.ID.String()),
		zap.String("tenant_id", tenantID.String()),
		zap.String("status", string(session.Status)),
		zap.Int("budget_remaining", session.Budget.Remaining()),
		zap.Strings("completed", session.CompletedStrategies),
		zap.Strings("failed", session.FailedStrategies),
	)
	return session, nil
}

// runStrategy executes one admitted strategy: a cursor-pagination fetch
// loop with a per-record merge. A bad record is counted and logged, never
// aborts the strategy.
func (s *SessionScheduler) runStrategy(
	ctx context.Context,
	client syncdomain.WMSClient,
	creds *syncdomain.Credentials,
	session *syncdomain.Session,
	strategy syncdomain.Strategy,
) error {
	var since time.Time
	if strategy.Lookback > 0 {
		since = time.Now().Add(-strategy.Lookback)
	}

	var cursor syncdomain.PageCursor
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var fetched int
		var next syncdomain.PageCursor
		var err error

		switch strategy.DataType {
		case syncdomain.DataTypeOrders:
			var orders []syncdomain.ExternalOrder
			orders, next, err = client.FetchOrders(ctx, creds, since, cursor)
			if err == nil {
				fetched = len(orders)
				for i := range orders {
					s.mergeOrder(ctx, session, orders[i])
				}
			}
		case syncdomain.DataTypeProducts:
			var products []syncdomain.ExternalProduct
			products, next, err = client.FetchProducts(ctx, creds, cursor)
			if err == nil {
				fetched = len(products)
				for i := range products {
					s.mergeProduct(ctx, session, products[i])
				}
			}
		case syncdomain.DataTypeInventory:
			var records []syncdomain.ExternalInventoryRecord
			records, next, err = client.FetchInventory(ctx, creds, cursor)
			if err == nil {
				fetched = len(records)
				for i := range records {
					s.mergeInventory(ctx, session, records[i])
				}
			}
		default:
			return fmt.Errorf("scheduler: unknown data type %q", strategy.DataType)
		}

		if err != nil {
			return err
		}
		session.AddFetched(strategy.DataType, fetched)

		if next.IsEnd() || fetched == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *SessionScheduler) mergeOrder(ctx context.Context, session *syncdomain.Session, ext syncdomain.ExternalOrder) {
	result, err := s.reconciler.MergeOrder(ctx, session.TenantID, ext)
	if err != nil {
		session.AddRecordError(syncdomain.DataTypeOrders)
		s.logger.Warn("Order merge failed",
			zap.String("tenant_id", session.TenantID.String()),
			zap.String("external_id", ext.ExternalID),
			zap.Error(err),
		)
		return
	}
	session.AddMerge(syncdomain.DataTypeOrders, result.Action == MergeActionCreated)
}

func (s *SessionScheduler) mergeProduct(ctx context.Context, session *syncdomain.Session, ext syncdomain.ExternalProduct) {
	result, err := s.reconciler.MergeProduct(ctx, session.TenantID, ext)
	if err != nil {
		session.AddRecordError(syncdomain.DataTypeProducts)
		s.logger.Warn("Product merge failed",
			zap.String("tenant_id", session.TenantID.String()),
			zap.String("external_id", ext.ExternalID),
			zap.Error(err),
		)
		return
	}
	session.AddMerge(syncdomain.DataTypeProducts, result.Action == MergeActionCreated)
}

func (s *SessionScheduler) mergeInventory(ctx context.Context, session *syncdomain.Session, ext syncdomain.ExternalInventoryRecord) {
	result, err := s.reconciler.MergeInventory(ctx, session.TenantID, ext)
	if err != nil {
		session.AddRecordError(syncdomain.DataTypeInventory)
		s.logger.Warn("Inventory merge failed",
			zap.String("tenant_id", session.TenantID.String()),
			zap.String("sku", ext.SKU),
			zap.Error(err),
		)
		return
	}
	session.AddMerge(syncdomain.DataTypeInventory, result.Action == MergeActionCreated)
}

// observeCredits folds upstream credit telemetry into the budget when the
// adapter exposes it. Telemetry is read for the session's own credentials:
// adapters are shared across tenants and another account's figure must not
// clamp this tenant's budget.
func (s *SessionScheduler) observeCredits(client syncdomain.WMSClient, creds *syncdomain.Credentials, budget *syncdomain.CreditBudget) {
	observer, ok := client.(syncdomain.CreditObserver)
	if !ok {
		return
	}
	if remaining, seen := observer.ObservedRemainingCredits(creds); seen {
		budget.ObserveRemaining(remaining)
	}
}

// recordSessionStatus upserts one status row per data type the session touched
func (s *SessionScheduler) recordSessionStatus(ctx context.Context, session *syncdomain.Session) {
	touched := make(map[syncdomain.DataType]bool)
	failedByType := make(map[syncdomain.DataType][]string)
	for _, strategy := range s.catalog.Strategies() {
		for _, name := range session.CompletedStrategies {
			if name == strategy.Name {
				touched[strategy.DataType] = true
			}
		}
		for _, name := range session.FailedStrategies {
			if name == strategy.Name {
				touched[strategy.DataType] = true
				failedByType[strategy.DataType] = append(failedByType[strategy.DataType], name)
			}
		}
	}
	// An aborted session that never admitted a strategy still gets an
	// ORDERS row so operators see the failure.
	if len(touched) == 0 {
		touched[syncdomain.DataTypeOrders] = true
	}

	next := time.Now().Add(s.config.SyncInterval)
	for dataType := range touched {
		s.tracker.Record(ctx,
			session.TenantID,
			dataType,
			session.Outcome(),
			session.Fetched[dataType],
			session.RecordErrors[dataType]+len(failedByType[dataType]),
			failedByType[dataType],
			"",
			&next,
		)
	}
}

// ---------------------------------------------------------------------------
// Budget Management
// ---------------------------------------------------------------------------

// budgetFor returns the tenant's carried-over budget, creating it with
// the default allowance on first use. An exhausted budget stays exhausted
// across sessions until explicitly reset.
func (s *SessionScheduler) budgetFor(tenantID uuid.UUID) *syncdomain.CreditBudget {
	s.budgetMu.Lock()
	defer s.budgetMu.Unlock()
	budget, ok := s.budgets[tenantID]
	if !ok {
		budget = syncdomain.NewCreditBudget(s.config.DefaultBudget)
		s.budgets[tenantID] = budget
	}
	return budget
}

// ResetBudget restores the tenant's budget to the default allowance and
// returns the new remaining value.
func (s *SessionScheduler) ResetBudget(tenantID uuid.UUID) int {
	budget := s.budgetFor(tenantID)
	budget.Reset(s.config.DefaultBudget)
	s.logger.Info("Sync budget reset",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("budget", s.config.DefaultBudget),
	)
	return budget.Remaining()
}

// BudgetRemaining returns the tenant's remaining credits
func (s *SessionScheduler) BudgetRemaining(tenantID uuid.UUID) int {
	return s.budgetFor(tenantID).Remaining()
}

// IsRunning reports whether a session is active for the tenant
func (s *SessionScheduler) IsRunning(tenantID uuid.UUID) bool {
	return s.locks.IsLocked(tenantID)
}

// ---------------------------------------------------------------------------
// Scheduled Cadence
// ---------------------------------------------------------------------------

// Start launches the background loop that triggers sessions for connected
// tenants on the configured cadence.
func (s *SessionScheduler) Start(ctx context.Context) error {
	s.runMu.Lock()
	if s.isRunning {
		s.runMu.Unlock()
		return nil
	}
	s.isRunning = true
	s.runMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sync scheduler started",
		zap.Duration("check_interval", s.config.CheckInterval),
		zap.Duration("sync_interval", s.config.SyncInterval),
	)
	return nil
}

// Stop stops the background loop and waits for in-flight sessions
func (s *SessionScheduler) Stop(ctx context.Context) error {
	s.runMu.Lock()
	if !s.isRunning {
		s.runMu.Unlock()
		return nil
	}
	s.isRunning = false
	s.runMu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *SessionScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.triggerDueTenants(ctx)
		}
	}
}

// triggerDueTenants runs a session for every connected tenant whose last
// run is older than the sync interval. Tenants already running are left
// alone; sessions run concurrently across tenants.
func (s *SessionScheduler) triggerDueTenants(ctx context.Context) {
	tenants, err := s.tenants.ListConnected(ctx)
	if err != nil {
		s.logger.Error("Failed to list connected tenants", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range tenants {
		t := tenants[i]
		if !s.isDue(ctx, t.ID, now) {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := s.RunSession(ctx, t.ID); err != nil &&
				!errors.Is(err, syncdomain.ErrSyncAlreadyRunning) &&
				!errors.Is(err, syncdomain.ErrNotConfigured) {
				s.logger.Warn("Scheduled session failed",
					zap.String("tenant_id", t.ID.String()),
					zap.Error(err),
				)
			}
		}()
	}
}

// isDue reports whether the tenant's next session should start. The
// in-memory last run covers tenants this instance already synced; with
// no entry (fresh boot) the persisted NextRunAt rows decide, so a
// restart does not re-sync every tenant at once.
func (s *SessionScheduler) isDue(ctx context.Context, tenantID uuid.UUID, now time.Time) bool {
	s.lastRunMu.Lock()
	last, ok := s.lastRun[tenantID]
	s.lastRunMu.Unlock()
	if ok {
		return now.Sub(last) >= s.config.SyncInterval
	}

	statuses, err := s.tracker.ListStatuses(ctx, tenantID)
	if err != nil {
		s.logger.Warn("Failed to load persisted sync cadence, assuming due",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return true
	}
	for _, status := range statuses {
		if status.NextRunAt != nil && now.Before(*status.NextRunAt) {
			return false
		}
	}
	return true
}

func (s *SessionScheduler) markRun(tenantID uuid.UUID) {
	s.lastRunMu.Lock()
	defer s.lastRunMu.Unlock()
	s.lastRun[tenantID] = time.Now()
}
