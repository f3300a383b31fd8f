package sync

import (
	"sort"
	"time"
)

// ---------------------------------------------------------------------------
// DataType
// ---------------------------------------------------------------------------

// DataType identifies which kind of data a strategy or status row targets
type DataType string

const (
	DataTypeOrders    DataType = "ORDERS"
	DataTypeProducts  DataType = "PRODUCTS"
	DataTypeInventory DataType = "INVENTORY"
)

// IsValid returns true if the data type is valid
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeOrders, DataTypeProducts, DataTypeInventory:
		return true
	default:
		return false
	}
}

// String returns the string representation of DataType
func (d DataType) String() string {
	return string(d)
}

// ---------------------------------------------------------------------------
// Strategy
// ---------------------------------------------------------------------------

// Strategy is a static catalog entry: a named, prioritized, fixed-cost
// sync operation targeting one data type and time window. Strategies are
// not persisted per tenant.
type Strategy struct {
	// Name uniquely identifies the strategy within the catalog
	Name string
	// Description is a human-readable summary for operators
	Description string
	// Cost is the credit cost deducted on admission
	Cost int
	// Priority ranks the strategy; lower runs first
	Priority int
	// DataType is the kind of data this strategy fetches
	DataType DataType
	// Lookback bounds the fetch window; zero means unbounded
	Lookback time.Duration
	// Required strategies must run even under budget pressure. A session
	// fails outright rather than silently skipping one.
	Required bool
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Catalog is a fixed, priority-ordered list of strategies
type Catalog struct {
	strategies []Strategy
}

// NewCatalog builds a catalog from the given strategies, ordered by
// priority (stable for equal priorities). Strategy names must be unique.
func NewCatalog(strategies ...Strategy) (*Catalog, error) {
	if len(strategies) == 0 {
		return nil, ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(strategies))
	for _, s := range strategies {
		if _, ok := seen[s.Name]; ok {
			return nil, ErrDuplicateStrategy
		}
		seen[s.Name] = struct{}{}
	}
	ordered := make([]Strategy, len(strategies))
	copy(ordered, strategies)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return &Catalog{strategies: ordered}, nil
}

// Strategies returns the strategies in execution order
func (c *Catalog) Strategies() []Strategy {
	out := make([]Strategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}

// Find returns the strategy with the given name
func (c *Catalog) Find(name string) (Strategy, bool) {
	for _, s := range c.strategies {
		if s.Name == name {
			return s, true
		}
	}
	return Strategy{}, false
}

// RequiredCost returns the total cost of all required strategies
func (c *Catalog) RequiredCost() int {
	total := 0
	for _, s := range c.strategies {
		if s.Required {
			total += s.Cost
		}
	}
	return total
}

// DefaultCatalog returns the platform's standard strategy set. Costs are
// static estimates of the upstream API cost of one full run.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(
		Strategy{
			Name:        "critical-orders-today",
			Description: "Orders created or updated today that drive fulfillment",
			Cost:        150,
			Priority:    1,
			DataType:    DataTypeOrders,
			Lookback:    24 * time.Hour,
			Required:    true,
		},
		Strategy{
			Name:        "recent-orders",
			Description: "Minimal order refresh over the recent window",
			Cost:        400,
			Priority:    2,
			DataType:    DataTypeOrders,
			Lookback:    7 * 24 * time.Hour,
		},
		Strategy{
			Name:        "inventory-snapshot",
			Description: "Current inventory levels across all warehouses",
			Cost:        300,
			Priority:    3,
			DataType:    DataTypeInventory,
		},
		Strategy{
			Name:        "full-product-sync",
			Description: "Complete product catalog refresh",
			Cost:        600,
			Priority:    4,
			DataType:    DataTypeProducts,
		},
	)
	if err != nil {
		// The default catalog is static; a construction error is a bug.
		panic(err)
	}
	return catalog
}
