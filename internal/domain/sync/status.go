package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Outcome
// ---------------------------------------------------------------------------

// Outcome is the operator-visible result of the latest sync attempt for
// one (tenant, data type) pair.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomePartial Outcome = "PARTIAL"
	OutcomeError   Outcome = "ERROR"
)

// IsValid returns true if the outcome is valid
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeSuccess, OutcomePartial, OutcomeError:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

// Status is the durable record of the last sync attempt per tenant per
// data type. One row always reflects the latest attempt; history beyond
// that lives only in structured logs.
type Status struct {
	TenantID         uuid.UUID
	DataType         DataType
	LastRunAt        time.Time
	Outcome          Outcome
	RecordsProcessed int
	ErrorCount       int
	// ErrorDetail carries structured error context (JSON) for operators
	ErrorDetail string
	NextRunAt   *time.Time
	UpdatedAt   time.Time
}

// ---------------------------------------------------------------------------
// StatusRepository Port
// ---------------------------------------------------------------------------

// StatusRepository persists sync status rows with upsert semantics keyed
// by (tenant, data type).
type StatusRepository interface {
	// Upsert creates or replaces the row for (status.TenantID, status.DataType)
	Upsert(ctx context.Context, status *Status) error

	// Get returns the row for (tenantID, dataType) or ErrStatusNotFound
	Get(ctx context.Context, tenantID uuid.UUID, dataType DataType) (*Status, error)

	// ListForTenant returns all status rows for a tenant
	ListForTenant(ctx context.Context, tenantID uuid.UUID) ([]Status, error)
}
