package sync

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Session Status
// ---------------------------------------------------------------------------

// SessionStatus represents the lifecycle state of a sync session
type SessionStatus string

const (
	SessionStatusRunning         SessionStatus = "RUNNING"
	SessionStatusCompleted       SessionStatus = "COMPLETED"
	SessionStatusPartiallyFailed SessionStatus = "PARTIALLY_FAILED"
	SessionStatusBudgetExhausted SessionStatus = "BUDGET_EXHAUSTED"
	// SessionStatusFailed is the terminal state for aborted sessions:
	// credential failures and required-strategy budget failures.
	SessionStatusFailed SessionStatus = "FAILED"
)

// IsTerminal returns true when the session will not run further strategies
func (s SessionStatus) IsTerminal() bool {
	return s != SessionStatusRunning
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// Session is one bounded execution attempt for a tenant: strategies are
// run in priority order until the budget or the catalog is exhausted.
// Sessions live in process memory only; one interrupted by a restart
// simply never completes and must be re-triggered.
type Session struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	StartedAt time.Time
	EndedAt   *time.Time
	Status    SessionStatus

	// Budget is the tenant's credit budget; it outlives the session so an
	// exhausted budget carries over until explicitly reset.
	Budget *CreditBudget

	// CompletedStrategies holds names of strategies that ran to completion
	CompletedStrategies []string
	// FailedStrategies holds names of strategies that were admitted but failed
	FailedStrategies []string

	// Fetched counts per data type across all strategies
	Fetched map[DataType]int
	// Created and Updated count reconciler outcomes per data type
	Created map[DataType]int
	Updated map[DataType]int
	// RecordErrors counts per-record reconciliation failures per data type
	RecordErrors map[DataType]int
}

// NewSession starts a session for a tenant against the given budget
func NewSession(tenantID uuid.UUID, budget *CreditBudget) *Session {
	return &Session{
		ID:                  uuid.New(),
		TenantID:            tenantID,
		StartedAt:           time.Now(),
		Status:              SessionStatusRunning,
		Budget:              budget,
		CompletedStrategies: make([]string, 0),
		FailedStrategies:    make([]string, 0),
		Fetched:             make(map[DataType]int),
		Created:             make(map[DataType]int),
		Updated:             make(map[DataType]int),
		RecordErrors:        make(map[DataType]int),
	}
}

// RecordStrategySuccess marks a strategy as completed
func (s *Session) RecordStrategySuccess(name string) {
	s.CompletedStrategies = append(s.CompletedStrategies, name)
}

// RecordStrategyFailure marks an admitted strategy as failed. The credit
// reservation is not refunded.
func (s *Session) RecordStrategyFailure(name string) {
	s.FailedStrategies = append(s.FailedStrategies, name)
}

// AddFetched accumulates fetch counts for a data type
func (s *Session) AddFetched(dt DataType, n int) {
	s.Fetched[dt] += n
}

// AddMerge accumulates a reconciler outcome for a data type
func (s *Session) AddMerge(dt DataType, created bool) {
	if created {
		s.Created[dt]++
	} else {
		s.Updated[dt]++
	}
}

// AddRecordError counts a per-record reconciliation failure. Record-level
// failures never abort the enclosing strategy.
func (s *Session) AddRecordError(dt DataType) {
	s.RecordErrors[dt]++
}

// Finish computes the terminal status from budget state and per-strategy
// outcomes, in that precedence order, and stamps the end time.
func (s *Session) Finish() {
	now := time.Now()
	s.EndedAt = &now
	s.Budget.Finish()

	switch {
	case s.Budget.State() == BudgetStateExhausted:
		s.Status = SessionStatusBudgetExhausted
	case len(s.FailedStrategies) > 0:
		s.Status = SessionStatusPartiallyFailed
	default:
		s.Status = SessionStatusCompleted
	}
}

// Abort terminates the session without running remaining strategies
func (s *Session) Abort() {
	now := time.Now()
	s.EndedAt = &now
	s.Status = SessionStatusFailed
}

// Outcome maps the session status to the per-data-type outcome recorded
// in sync status rows.
func (s *Session) Outcome() Outcome {
	switch s.Status {
	case SessionStatusCompleted:
		return OutcomeSuccess
	case SessionStatusPartiallyFailed, SessionStatusBudgetExhausted:
		return OutcomePartial
	default:
		return OutcomeError
	}
}
