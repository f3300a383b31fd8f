package dto

import (
	"time"

	"github.com/google/uuid"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
)

// ---------------------------------------------------------------------------
// Integration
// ---------------------------------------------------------------------------

// ConnectIntegrationRequest carries the credentials for linking a tenant to
// an external system. Field requirements depend on the system family and
// are enforced by domain validation after binding.
type ConnectIntegrationRequest struct {
	SystemFamily string `json:"system_family" binding:"required,oneof=SHIPHERO TRACKSTAR"`
	APIKey       string `json:"api_key"`
	AccessToken  string `json:"access_token" binding:"required"`
	ConnectionID string `json:"connection_id"`
}

// Credentials converts the request into domain credentials
func (r *ConnectIntegrationRequest) Credentials() syncdomain.Credentials {
	return syncdomain.Credentials{
		SystemFamily: syncdomain.SystemFamily(r.SystemFamily),
		APIKey:       r.APIKey,
		AccessToken:  r.AccessToken,
		ConnectionID: r.ConnectionID,
	}
}

// IntegrationStatusResponse reports a tenant's connection state
type IntegrationStatusResponse struct {
	TenantID          uuid.UUID `json:"tenant_id"`
	IntegrationStatus string    `json:"integration_status"`
	SystemFamily      *string   `json:"system_family,omitempty"`
	ConnectionID      string    `json:"connection_id,omitempty"`
}

// NewIntegrationStatusResponse builds the response from a tenant entity
func NewIntegrationStatusResponse(t *tenant.Tenant) IntegrationStatusResponse {
	resp := IntegrationStatusResponse{
		TenantID:          t.ID,
		IntegrationStatus: t.IntegrationStatus.String(),
		ConnectionID:      t.ConnectionID,
	}
	if t.SystemFamily != nil {
		family := t.SystemFamily.String()
		resp.SystemFamily = &family
	}
	return resp
}

// ---------------------------------------------------------------------------
// Sync sessions
// ---------------------------------------------------------------------------

// SessionResponse summarizes one finished sync session
type SessionResponse struct {
	SessionID           uuid.UUID      `json:"session_id"`
	TenantID            uuid.UUID      `json:"tenant_id"`
	Status              string         `json:"status"`
	StartedAt           time.Time      `json:"started_at"`
	EndedAt             *time.Time     `json:"ended_at,omitempty"`
	BudgetRemaining     int            `json:"budget_remaining"`
	CompletedStrategies []string       `json:"completed_strategies"`
	FailedStrategies    []string       `json:"failed_strategies"`
	Fetched             map[string]int `json:"fetched"`
	Created             map[string]int `json:"created"`
	Updated             map[string]int `json:"updated"`
	RecordErrors        map[string]int `json:"record_errors"`
}

// NewSessionResponse builds the response from a domain session
func NewSessionResponse(s *syncdomain.Session) SessionResponse {
	return SessionResponse{
		SessionID:           s.ID,
		TenantID:            s.TenantID,
		Status:              string(s.Status),
		StartedAt:           s.StartedAt,
		EndedAt:             s.EndedAt,
		BudgetRemaining:     s.Budget.Remaining(),
		CompletedStrategies: s.CompletedStrategies,
		FailedStrategies:    s.FailedStrategies,
		Fetched:             dataTypeCounts(s.Fetched),
		Created:             dataTypeCounts(s.Created),
		Updated:             dataTypeCounts(s.Updated),
		RecordErrors:        dataTypeCounts(s.RecordErrors),
	}
}

func dataTypeCounts(counts map[syncdomain.DataType]int) map[string]int {
	out := make(map[string]int, len(counts))
	for dt, n := range counts {
		out[string(dt)] = n
	}
	return out
}

// BudgetResponse reports a tenant's remaining credit allowance
type BudgetResponse struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	Remaining int       `json:"remaining"`
}

// ---------------------------------------------------------------------------
// Sync status
// ---------------------------------------------------------------------------

// SyncStatusResponse is one (tenant, data type) status row
type SyncStatusResponse struct {
	DataType         string     `json:"data_type"`
	LastRunAt        time.Time  `json:"last_run_at"`
	Outcome          string     `json:"outcome"`
	RecordsProcessed int        `json:"records_processed"`
	ErrorCount       int        `json:"error_count"`
	ErrorDetail      string     `json:"error_detail,omitempty"`
	NextRunAt        *time.Time `json:"next_run_at,omitempty"`
}

// NewSyncStatusResponse builds the response from a domain status row
func NewSyncStatusResponse(s *syncdomain.Status) SyncStatusResponse {
	return SyncStatusResponse{
		DataType:         string(s.DataType),
		LastRunAt:        s.LastRunAt,
		Outcome:          string(s.Outcome),
		RecordsProcessed: s.RecordsProcessed,
		ErrorCount:       s.ErrorCount,
		ErrorDetail:      s.ErrorDetail,
		NextRunAt:        s.NextRunAt,
	}
}
