// Package production implements the recipe-based consumption calculator that
// converts raw-material stock into finished products.
package production

import (
	"errors"
	"time"
)

// MinRecipeQuantity is the floor for a recipe line's required quantity.
const MinRecipeQuantity = 0.01

// RecipeLine is one raw-material requirement for producing a single unit.
type RecipeLine struct {
	RawMaterialID int64
	Quantity      float64
}

// Recipe is a product's bill of raw materials.
type Recipe struct {
	ProductID int64
	Lines     []RecipeLine
	UpdatedAt time.Time
}

// StockLevel is a snapshot of one raw material's quantity and unit price.
type StockLevel struct {
	RawMaterialID int64
	Quantity      float64
	UnitPrice     float64
}

// Product is the slice of a catalog product the calculator needs.
type Product struct {
	ID        int64
	Name      string
	UnitPrice float64
	Quantity  float64
}

// StockDelta is the consumption of one raw material for a production run.
type StockDelta struct {
	RawMaterialID int64
	Consumed      float64
}

// Plan is a validated production run: the product increment and the exact
// raw-material consumption to apply atomically.
type Plan struct {
	ProductID int64
	Quantity  float64
	Cost      float64
	Consumed  []StockDelta
}

var (
	ErrInsufficientStock   = errors.New("production: insufficient raw material stock")
	ErrEmptyRecipe         = errors.New("production: recipe has no lines")
	ErrInvalidQuantity     = errors.New("production: quantity must be positive")
	ErrInvalidRecipeLine   = errors.New("production: recipe line quantity below minimum")
	ErrDuplicateRecipeLine = errors.New("production: raw material listed twice in recipe")
	ErrNotFound            = errors.New("production: not found")
)
