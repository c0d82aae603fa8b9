package production

import (
	"fmt"
	"math"

	"github.com/atelier-erp/atelier-erp/internal/money"
)

// CanProduce reports whether stock covers qty units of the recipe.
// An empty recipe can never be produced.
func CanProduce(recipe Recipe, stock map[int64]StockLevel, qty float64) bool {
	if len(recipe.Lines) == 0 || qty <= 0 {
		return false
	}
	for _, line := range recipe.Lines {
		level, ok := stock[line.RawMaterialID]
		if !ok || level.Quantity < line.Quantity*qty {
			return false
		}
	}
	return true
}

// ProductionCost computes the raw-material cost of qty units at current
// stock prices, rounded to the cent.
func ProductionCost(recipe Recipe, stock map[int64]StockLevel, qty float64) float64 {
	var cost float64
	for _, line := range recipe.Lines {
		cost += stock[line.RawMaterialID].UnitPrice * line.Quantity * qty
	}
	return money.Round2(cost)
}

// MaxProducible returns how many whole units current stock covers.
func MaxProducible(recipe Recipe, stock map[int64]StockLevel) int64 {
	if len(recipe.Lines) == 0 {
		return 0
	}
	max := int64(math.MaxInt64)
	for _, line := range recipe.Lines {
		if line.Quantity <= 0 {
			return 0
		}
		level := stock[line.RawMaterialID]
		producible := int64(math.Floor(level.Quantity / line.Quantity))
		if producible < max {
			max = producible
		}
	}
	return max
}

// ProfitMargin returns the margin percentage of a unit sale price over the
// per-unit production cost. Zero when the price is zero.
func ProfitMargin(unitPrice, costPerUnit float64) float64 {
	if unitPrice == 0 {
		return 0
	}
	return money.Round2((unitPrice - costPerUnit) / unitPrice * 100)
}

// BuildPlan validates a production run and computes the stock deltas to
// apply. The actual mutation is delegated to the persistence layer.
func BuildPlan(recipe Recipe, stock map[int64]StockLevel, qty float64) (Plan, error) {
	if qty <= 0 {
		return Plan{}, fmt.Errorf("%w: %.2f", ErrInvalidQuantity, qty)
	}
	if len(recipe.Lines) == 0 {
		return Plan{}, ErrEmptyRecipe
	}
	if !CanProduce(recipe, stock, qty) {
		return Plan{}, fmt.Errorf("%w: requested %.2f, max %d", ErrInsufficientStock, qty, MaxProducible(recipe, stock))
	}
	plan := Plan{
		ProductID: recipe.ProductID,
		Quantity:  qty,
		Cost:      ProductionCost(recipe, stock, qty),
		Consumed:  make([]StockDelta, 0, len(recipe.Lines)),
	}
	for _, line := range recipe.Lines {
		plan.Consumed = append(plan.Consumed, StockDelta{
			RawMaterialID: line.RawMaterialID,
			Consumed:      line.Quantity * qty,
		})
	}
	return plan, nil
}

// ValidateRecipe checks line-level invariants: minimum quantity and at most
// one line per raw material.
func ValidateRecipe(lines []RecipeLine) error {
	seen := make(map[int64]bool, len(lines))
	for _, line := range lines {
		if line.Quantity < MinRecipeQuantity {
			return fmt.Errorf("%w: raw material %d requires %.4f", ErrInvalidRecipeLine, line.RawMaterialID, line.Quantity)
		}
		if seen[line.RawMaterialID] {
			return fmt.Errorf("%w: raw material %d", ErrDuplicateRecipeLine, line.RawMaterialID)
		}
		seen[line.RawMaterialID] = true
	}
	return nil
}
