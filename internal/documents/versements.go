package documents

import (
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/money"
)

// defaultVersementAmount is the proposed amount for a freshly added entry.
const defaultVersementAmount = 1.0

// Ledger is the working copy of a document's installment payments.
//
// Entries dated outside the current calendar month are locked: the lock is
// derived from the clock on every check, never stored. All mutators validate
// first and replace the entry slice wholesale, so a rejected operation leaves
// the ledger untouched.
type Ledger struct {
	entries []Versement
	now     func() time.Time
}

// NewLedger builds a ledger over a snapshot of persisted entries.
// A nil clock defaults to time.Now.
func NewLedger(entries []Versement, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{entries: append([]Versement(nil), entries...), now: now}
}

// Entries returns a copy of all entries in sequence order.
func (l *Ledger) Entries() []Versement {
	return append([]Versement(nil), l.entries...)
}

// TotalPaid sums all entry amounts, rounded to the cent.
func (l *Ledger) TotalPaid() float64 {
	var sum float64
	for _, v := range l.entries {
		sum += v.Amount
	}
	return money.Round2(sum)
}

// Open returns the entries editable this month.
func (l *Ledger) Open() []Versement {
	var out []Versement
	for _, v := range l.entries {
		if l.editable(v) {
			out = append(out, v)
		}
	}
	return out
}

// Editable reports whether the entry with seq may be modified this month.
func (l *Ledger) Editable(seq int) bool {
	v, ok := l.find(seq)
	return ok && l.editable(v)
}

// Add appends a new entry with the default amount, today's date and the next
// sequence number. Rejected when the default amount would push the collected
// total past the post-discount total.
func (l *Ledger) Add(postDiscountTotal float64) error {
	if money.Round2(l.TotalPaid()+defaultVersementAmount) > money.Round2(postDiscountTotal)+0.005 {
		return fmt.Errorf("%w: paid %.2f + %.2f > due %.2f",
			ErrPaymentsExceedTotal, l.TotalPaid(), defaultVersementAmount, postDiscountTotal)
	}
	entry := Versement{
		Seq:    len(l.entries) + 1,
		Amount: defaultVersementAmount,
		Date:   l.today(),
	}
	l.entries = append(l.Entries(), entry)
	return nil
}

// UpdateAmount changes the amount of an open entry, keeping the cumulative
// total within the post-discount total.
func (l *Ledger) UpdateAmount(seq int, amount, postDiscountTotal float64) error {
	v, ok := l.find(seq)
	if !ok {
		return fmt.Errorf("%w: seq %d", ErrVersementNotFound, seq)
	}
	if !l.editable(v) {
		return fmt.Errorf("%w: seq %d dated %s", ErrVersementLocked, seq, v.Date.Format("2006-01-02"))
	}
	if amount <= 0 {
		return fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
	}
	newTotal := money.Round2(l.TotalPaid() - v.Amount + amount)
	if newTotal > money.Round2(postDiscountTotal)+0.005 {
		return fmt.Errorf("%w: %.2f > due %.2f", ErrPaymentsExceedTotal, newTotal, postDiscountTotal)
	}
	out := l.Entries()
	for i := range out {
		if out[i].Seq == seq {
			out[i].Amount = amount
		}
	}
	l.entries = out
	return nil
}

// UpdateDate moves an open entry to another date inside the current month.
func (l *Ledger) UpdateDate(seq int, date time.Time) error {
	v, ok := l.find(seq)
	if !ok {
		return fmt.Errorf("%w: seq %d", ErrVersementNotFound, seq)
	}
	if !l.editable(v) {
		return fmt.Errorf("%w: seq %d dated %s", ErrVersementLocked, seq, v.Date.Format("2006-01-02"))
	}
	if !sameMonth(date, l.now()) {
		return fmt.Errorf("%w: %s", ErrOutsideCurrentMonth, date.Format("2006-01-02"))
	}
	out := l.Entries()
	for i := range out {
		if out[i].Seq == seq {
			out[i].Date = date
		}
	}
	l.entries = out
	return nil
}

// Remove deletes an open entry and renumbers the remainder to 1..N, preserving
// relative order.
func (l *Ledger) Remove(seq int) error {
	v, ok := l.find(seq)
	if !ok {
		return fmt.Errorf("%w: seq %d", ErrVersementNotFound, seq)
	}
	if !l.editable(v) {
		return fmt.Errorf("%w: seq %d dated %s", ErrVersementLocked, seq, v.Date.Format("2006-01-02"))
	}
	out := make([]Versement, 0, len(l.entries)-1)
	for _, e := range l.entries {
		if e.Seq == seq {
			continue
		}
		out = append(out, e)
	}
	for i := range out {
		out[i].Seq = i + 1
	}
	l.entries = out
	return nil
}

// Clear settles the document in one shot: it appends a final entry equal to
// the exact remaining balance, dated today.
func (l *Ledger) Clear(postDiscountTotal float64) error {
	remaining := money.Round2(postDiscountTotal - l.TotalPaid())
	if remaining < 0.01 {
		return fmt.Errorf("%w: remaining %.2f", ErrNothingOutstanding, remaining)
	}
	entry := Versement{
		Seq:    len(l.entries) + 1,
		Amount: remaining,
		Date:   l.today(),
	}
	l.entries = append(l.Entries(), entry)
	return nil
}

func (l *Ledger) find(seq int) (Versement, bool) {
	for _, v := range l.entries {
		if v.Seq == seq {
			return v, true
		}
	}
	return Versement{}, false
}

func (l *Ledger) editable(v Versement) bool {
	return sameMonth(v.Date, l.now())
}

func (l *Ledger) today() time.Time {
	y, m, d := l.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
