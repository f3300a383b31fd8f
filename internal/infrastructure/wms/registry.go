package wms

import (
	syncdomain "github.com/fulfillhub/backend/internal/domain/sync"
)

// Registry maps system families to their adapters. Adapters are stateless
// with respect to tenants (credentials arrive per call), so one instance
// serves every tenant on that family.
type Registry struct {
	clients map[syncdomain.SystemFamily]syncdomain.WMSClient
}

var _ syncdomain.ClientRegistry = (*Registry)(nil)

// NewRegistry creates a registry over the given adapters
func NewRegistry(clients ...syncdomain.WMSClient) *Registry {
	r := &Registry{clients: make(map[syncdomain.SystemFamily]syncdomain.WMSClient, len(clients))}
	for _, c := range clients {
		r.clients[c.SystemFamily()] = c
	}
	return r
}

// ClientFor returns the adapter for the family
func (r *Registry) ClientFor(family syncdomain.SystemFamily) (syncdomain.WMSClient, error) {
	c, ok := r.clients[family]
	if !ok {
		return nil, syncdomain.ErrUnknownSystemFamily
	}
	return c, nil
}
