package documents

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/money"
)

// ValidateProposedLedger checks a client-assembled ledger against the
// committed snapshot. Open entries may be freely added, changed, removed or
// renumbered; entries locked by the month rule must reappear with the same
// amount and date, and no new entry may be backdated outside the current
// month.
func ValidateProposedLedger(committed, proposed []Versement, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	for i, v := range proposed {
		if v.Seq != i+1 {
			return fmt.Errorf("%w: seq %d at position %d", ErrVersementNotFound, v.Seq, i+1)
		}
		if v.Amount <= 0 {
			return fmt.Errorf("%w: seq %d", ErrInvalidAmount, v.Seq)
		}
	}

	type lockKey struct {
		date   string
		amount float64
	}
	locked := make(map[lockKey]int)
	for _, v := range committed {
		if !sameMonth(v.Date, now()) {
			locked[lockKey{v.Date.Format("2006-01-02"), money.Round2(v.Amount)}]++
		}
	}
	for _, v := range proposed {
		if sameMonth(v.Date, now()) {
			continue
		}
		key := lockKey{v.Date.Format("2006-01-02"), money.Round2(v.Amount)}
		if locked[key] == 0 {
			return fmt.Errorf("%w: seq %d dated %s", ErrVersementLocked, v.Seq, key.date)
		}
		locked[key]--
	}
	for key, n := range locked {
		if n > 0 {
			return fmt.Errorf("%w: entry dated %s was modified or removed", ErrVersementLocked, key.date)
		}
	}
	return nil
}
