package production

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testRecipe() Recipe {
	return Recipe{
		ProductID: 1,
		Lines: []RecipeLine{
			{RawMaterialID: 10, Quantity: 2},
			{RawMaterialID: 11, Quantity: 1},
		},
	}
}

func testStock() map[int64]StockLevel {
	return map[int64]StockLevel{
		10: {RawMaterialID: 10, Quantity: 10, UnitPrice: 3.5},
		11: {RawMaterialID: 11, Quantity: 3, UnitPrice: 8},
	}
}

func TestMaxProducible(t *testing.T) {
	// min(floor(10/2), floor(3/1)) = min(5, 3) = 3
	require.Equal(t, int64(3), MaxProducible(testRecipe(), testStock()))
	require.Equal(t, int64(0), MaxProducible(Recipe{}, testStock()))

	missing := map[int64]StockLevel{10: {RawMaterialID: 10, Quantity: 10}}
	require.Equal(t, int64(0), MaxProducible(testRecipe(), missing))
}

func TestCanProduce(t *testing.T) {
	require.True(t, CanProduce(testRecipe(), testStock(), 3))
	require.False(t, CanProduce(testRecipe(), testStock(), 4))
	require.False(t, CanProduce(Recipe{}, testStock(), 1))
	require.False(t, CanProduce(testRecipe(), testStock(), 0))
}

func TestProductionCost(t *testing.T) {
	// 2*3.50 + 1*8.00 = 15.00 per unit
	require.Equal(t, 15.0, ProductionCost(testRecipe(), testStock(), 1))
	require.Equal(t, 45.0, ProductionCost(testRecipe(), testStock(), 3))
}

func TestProfitMargin(t *testing.T) {
	require.Equal(t, 40.0, ProfitMargin(25, 15))
	require.Equal(t, 0.0, ProfitMargin(0, 15))
	require.Equal(t, -50.0, ProfitMargin(10, 15))
}

func TestBuildPlanComputesDeltas(t *testing.T) {
	plan, err := BuildPlan(testRecipe(), testStock(), 3)
	require.NoError(t, err)
	require.Equal(t, 45.0, plan.Cost)
	require.ElementsMatch(t, []StockDelta{
		{RawMaterialID: 10, Consumed: 6},
		{RawMaterialID: 11, Consumed: 3},
	}, plan.Consumed)
}

func TestBuildPlanAtMaxProducibleBoundary(t *testing.T) {
	recipe, stock := testRecipe(), testStock()
	max := MaxProducible(recipe, stock)

	_, err := BuildPlan(recipe, stock, float64(max))
	require.NoError(t, err)

	_, err = BuildPlan(recipe, stock, float64(max+1))
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestBuildPlanRejectsEmptyRecipeAndBadQty(t *testing.T) {
	_, err := BuildPlan(Recipe{ProductID: 1}, testStock(), 1)
	require.ErrorIs(t, err, ErrEmptyRecipe)

	_, err = BuildPlan(testRecipe(), testStock(), 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCanProduceMatchesPlanFeasibility(t *testing.T) {
	recipe, stock := testRecipe(), testStock()
	for qty := 1.0; qty <= 6; qty++ {
		_, err := BuildPlan(recipe, stock, qty)
		if CanProduce(recipe, stock, qty) {
			require.NoError(t, err, "qty %.0f", qty)
		} else {
			require.ErrorIs(t, err, ErrInsufficientStock, "qty %.0f", qty)
		}
	}
}

func TestValidateRecipe(t *testing.T) {
	require.NoError(t, ValidateRecipe([]RecipeLine{{RawMaterialID: 1, Quantity: 0.01}}))
	require.ErrorIs(t, ValidateRecipe([]RecipeLine{{RawMaterialID: 1, Quantity: 0.005}}), ErrInvalidRecipeLine)
	require.ErrorIs(t, ValidateRecipe([]RecipeLine{
		{RawMaterialID: 1, Quantity: 1},
		{RawMaterialID: 1, Quantity: 2},
	}), ErrDuplicateRecipeLine)
}
