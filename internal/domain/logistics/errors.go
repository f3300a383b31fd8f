package logistics

import "errors"

var (
	ErrOrderNotFound     = errors.New("logistics: order not found")
	ErrProductNotFound   = errors.New("logistics: product not found")
	ErrInventoryNotFound = errors.New("logistics: inventory record not found")

	ErrExternalIDConflict = errors.New("logistics: external ID already attached to another record")
	ErrInvalidOrder       = errors.New("logistics: invalid order")
	ErrInvalidProduct     = errors.New("logistics: invalid product")
)
