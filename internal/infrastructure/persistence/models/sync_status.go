package models

import (
	"time"

	"github.com/google/uuid"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
)

// SyncStatusModel is the persistence model for the per-(tenant, data type)
// sync status row. Exactly one row exists per pair; updates replace it.
type SyncStatusModel struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_status_tenant_type,priority:1"`
	DataType string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_sync_status_tenant_type,priority:2"`

	LastRunAt        time.Time `gorm:"not null"`
	Outcome          string    `gorm:"type:varchar(20);not null"`
	RecordsProcessed int       `gorm:"not null;default:0"`
	ErrorCount       int       `gorm:"not null;default:0"`
	ErrorDetail      string    `gorm:"type:jsonb"`
	NextRunAt        *time.Time

	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SyncStatusModel) TableName() string {
	return "sync_statuses"
}

// ToDomain converts the persistence model to a domain Status value
func (m *SyncStatusModel) ToDomain() *syncdomain.Status {
	return &syncdomain.Status{
		TenantID:         m.TenantID,
		DataType:         syncdomain.DataType(m.DataType),
		LastRunAt:        m.LastRunAt,
		Outcome:          syncdomain.Outcome(m.Outcome),
		RecordsProcessed: m.RecordsProcessed,
		ErrorCount:       m.ErrorCount,
		ErrorDetail:      m.ErrorDetail,
		NextRunAt:        m.NextRunAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Status value
func (m *SyncStatusModel) FromDomain(s *syncdomain.Status) {
	m.TenantID = s.TenantID
	m.DataType = string(s.DataType)
	m.LastRunAt = s.LastRunAt
	m.Outcome = string(s.Outcome)
	m.RecordsProcessed = s.RecordsProcessed
	m.ErrorCount = s.ErrorCount
	m.ErrorDetail = s.ErrorDetail
	m.NextRunAt = s.NextRunAt
	m.UpdatedAt = s.UpdatedAt
}

// SyncStatusModelFromDomain creates a new persistence model from a domain Status value
func SyncStatusModelFromDomain(s *syncdomain.Status) *SyncStatusModel {
	m := &SyncStatusModel{}
	m.FromDomain(s)
	return m
}
