package documents

import (
	"fmt"

	"github.com/atelier-erp/atelier-erp/internal/money"
)

// MinItemQuantity is the floor applied to purchase and sale line quantities.
const MinItemQuantity = 1.0

// AddItem returns a new item list extended with a line for the first catalog
// entry not already referenced. The input slice is never mutated.
func AddItem(catalog []CatalogEntry, items []LineItem) ([]LineItem, error) {
	referenced := make(map[int64]bool, len(items))
	for _, it := range items {
		referenced[it.RefID] = true
	}
	for _, entry := range catalog {
		if referenced[entry.ID] {
			continue
		}
		line := LineItem{
			RefID:     entry.ID,
			Name:      entry.Name,
			Quantity:  MinItemQuantity,
			UnitPrice: entry.UnitPrice,
			Total:     money.Round2(MinItemQuantity * entry.UnitPrice),
		}
		out := make([]LineItem, 0, len(items)+1)
		out = append(out, items...)
		out = append(out, line)
		return out, nil
	}
	return nil, ErrNoAvailableCatalogEntry
}

// UpdateItemRef swaps the catalog reference of the line identified by refID to
// entry, re-resolving name and unit price and recomputing the total with the
// existing quantity. Swapping to an entry referenced by another line fails.
func UpdateItemRef(items []LineItem, refID int64, entry CatalogEntry) ([]LineItem, error) {
	idx := -1
	for i, it := range items {
		if it.RefID == refID {
			idx = i
			continue
		}
		if it.RefID == entry.ID {
			return nil, fmt.Errorf("%w: entry %d", ErrDuplicateItem, entry.ID)
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: ref %d", ErrItemNotFound, refID)
	}
	out := append([]LineItem(nil), items...)
	line := out[idx]
	line.RefID = entry.ID
	line.Name = entry.Name
	line.UnitPrice = entry.UnitPrice
	line.Total = money.Round2(line.Quantity * entry.UnitPrice)
	out[idx] = line
	return out, nil
}

// UpdateItemQuantity sets the quantity of the line identified by refID,
// flooring it at MinItemQuantity, and recomputes the line total.
func UpdateItemQuantity(items []LineItem, refID int64, qty float64) ([]LineItem, error) {
	if qty < MinItemQuantity {
		qty = MinItemQuantity
	}
	for i, it := range items {
		if it.RefID != refID {
			continue
		}
		out := append([]LineItem(nil), items...)
		out[i].Quantity = qty
		out[i].Total = money.Round2(qty * out[i].UnitPrice)
		return out, nil
	}
	return nil, fmt.Errorf("%w: ref %d", ErrItemNotFound, refID)
}

// RemoveItem drops the line identified by refID.
func RemoveItem(items []LineItem, refID int64) ([]LineItem, error) {
	for i, it := range items {
		if it.RefID != refID {
			continue
		}
		out := make([]LineItem, 0, len(items)-1)
		out = append(out, items[:i]...)
		out = append(out, items[i+1:]...)
		return out, nil
	}
	return nil, fmt.Errorf("%w: ref %d", ErrItemNotFound, refID)
}

// Subtotal sums the line totals, rounded to the cent.
func Subtotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Total
	}
	return money.Round2(sum)
}

// ValidateItems checks line-level invariants before persistence: positive
// quantities and at most one line per catalog reference.
func ValidateItems(items []LineItem) error {
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: ref %d", ErrInvalidQuantity, it.RefID)
		}
		if seen[it.RefID] {
			return fmt.Errorf("%w: entry %d", ErrDuplicateItem, it.RefID)
		}
		seen[it.RefID] = true
	}
	return nil
}
