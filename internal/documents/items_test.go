package documents

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testCatalog = []CatalogEntry{
	{ID: 1, Name: "Flour 25kg", UnitPrice: 18.5},
	{ID: 2, Name: "Sugar 10kg", UnitPrice: 12.0},
	{ID: 3, Name: "Yeast 1kg", UnitPrice: 4.75},
}

func TestAddItemPicksFirstUnreferencedEntry(t *testing.T) {
	items, err := AddItem(testCatalog, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(1), items[0].RefID)
	require.Equal(t, "Flour 25kg", items[0].Name)
	require.Equal(t, 18.5, items[0].Total)

	items, err = AddItem(testCatalog, items)
	require.NoError(t, err)
	require.Equal(t, int64(2), items[1].RefID)
}

func TestAddItemFailsWhenCatalogExhausted(t *testing.T) {
	items := []LineItem{{RefID: 1}, {RefID: 2}, {RefID: 3}}
	_, err := AddItem(testCatalog, items)
	require.ErrorIs(t, err, ErrNoAvailableCatalogEntry)

	_, err = AddItem(nil, nil)
	require.ErrorIs(t, err, ErrNoAvailableCatalogEntry)
}

func TestAddItemDoesNotMutateInput(t *testing.T) {
	original := []LineItem{{RefID: 1, Quantity: 2}}
	_, err := AddItem(testCatalog, original)
	require.NoError(t, err)
	require.Len(t, original, 1)
}

func TestUpdateItemRefRecomputesLine(t *testing.T) {
	items := []LineItem{{RefID: 1, Name: "Flour 25kg", Quantity: 3, UnitPrice: 18.5, Total: 55.5}}
	updated, err := UpdateItemRef(items, 1, testCatalog[2])
	require.NoError(t, err)
	require.Equal(t, int64(3), updated[0].RefID)
	require.Equal(t, "Yeast 1kg", updated[0].Name)
	require.Equal(t, 4.75, updated[0].UnitPrice)
	require.Equal(t, 14.25, updated[0].Total)
	// quantity survives the swap
	require.Equal(t, 3.0, updated[0].Quantity)
}

func TestUpdateItemRefRejectsDuplicateReference(t *testing.T) {
	items := []LineItem{{RefID: 1}, {RefID: 2}}
	_, err := UpdateItemRef(items, 1, testCatalog[1])
	require.ErrorIs(t, err, ErrDuplicateItem)
}

func TestUpdateItemQuantityFloorsAtMinimum(t *testing.T) {
	items := []LineItem{{RefID: 2, Quantity: 5, UnitPrice: 12, Total: 60}}
	updated, err := UpdateItemQuantity(items, 2, 0.2)
	require.NoError(t, err)
	require.Equal(t, 1.0, updated[0].Quantity)
	require.Equal(t, 12.0, updated[0].Total)

	updated, err = UpdateItemQuantity(items, 2, 7)
	require.NoError(t, err)
	require.Equal(t, 84.0, updated[0].Total)
	// original untouched
	require.Equal(t, 5.0, items[0].Quantity)
}

func TestRemoveItem(t *testing.T) {
	items := []LineItem{{RefID: 1}, {RefID: 2}, {RefID: 3}}
	out, err := RemoveItem(items, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, int64(1), out[0].RefID)
	require.Equal(t, int64(3), out[1].RefID)

	_, err = RemoveItem(out, 99)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestSubtotalRounds(t *testing.T) {
	items := []LineItem{
		{Total: 10.004},
		{Total: 0.002},
	}
	require.Equal(t, 10.01, Subtotal(items))
	require.Equal(t, 0.0, Subtotal(nil))
}

func TestValidateItems(t *testing.T) {
	require.NoError(t, ValidateItems([]LineItem{{RefID: 1, Quantity: 1}, {RefID: 2, Quantity: 2}}))
	require.ErrorIs(t, ValidateItems([]LineItem{{RefID: 1, Quantity: 0}}), ErrInvalidQuantity)
	require.ErrorIs(t, ValidateItems([]LineItem{{RefID: 1, Quantity: 1}, {RefID: 1, Quantity: 2}}), ErrDuplicateItem)
}
