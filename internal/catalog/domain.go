// Package catalog serves the master data the document and production engines
// reference: vendors, clients, products and raw materials.
package catalog

import (
	"errors"
	"time"
)

// Vendor is a purchase counterparty.
type Vendor struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is a sale counterparty.
type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a finished good.
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
}

// RawMaterial is a production input.
type RawMaterial struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  float64 `json:"quantity"`
}

// ListFilters narrows list queries.
type ListFilters struct {
	Search string
	Limit  int
	Offset int
}

// ErrNotFound indicates a missing catalog record.
var ErrNotFound = errors.New("catalog: not found")
