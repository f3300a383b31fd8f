package models

import (
	"time"

	"github.com/google/uuid"

	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
	"github.com/fulfillhub/backend/internal/domain/tenant"
)

// TenantModel is the persistence model for the Tenant domain entity.
// Integration credentials live inline: a tenant has at most one active
// connection, so a separate credentials table would always be 1:0..1.
type TenantModel struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key"`
	Name string    `gorm:"type:varchar(255);not null"`
	Slug string    `gorm:"type:varchar(100);not null;uniqueIndex"`

	IntegrationStatus string  `gorm:"type:varchar(20);not null;default:'DISCONNECTED'"`
	SystemFamily      *string `gorm:"type:varchar(20)"`
	APIKey            string  `gorm:"type:text;column:api_key"`
	AccessToken       string  `gorm:"type:text"`
	ConnectionID      string  `gorm:"type:varchar(100);index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity
func (m *TenantModel) ToDomain() *tenant.Tenant {
	t := &tenant.Tenant{
		ID:                m.ID,
		Name:              m.Name,
		Slug:              m.Slug,
		IntegrationStatus: syncdomain.IntegrationStatus(m.IntegrationStatus),
		APIKey:            m.APIKey,
		AccessToken:       m.AccessToken,
		ConnectionID:      m.ConnectionID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.SystemFamily != nil {
		family := syncdomain.SystemFamily(*m.SystemFamily)
		t.SystemFamily = &family
	}
	return t
}

// FromDomain populates the persistence model from a domain Tenant entity
func (m *TenantModel) FromDomain(t *tenant.Tenant) {
	m.ID = t.ID
	m.Name = t.Name
	m.Slug = t.Slug
	m.IntegrationStatus = string(t.IntegrationStatus)
	m.APIKey = t.APIKey
	m.AccessToken = t.AccessToken
	m.ConnectionID = t.ConnectionID
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
	if t.SystemFamily != nil {
		family := string(*t.SystemFamily)
		m.SystemFamily = &family
	} else {
		m.SystemFamily = nil
	}
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity
func TenantModelFromDomain(t *tenant.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}
