package documents

import "time"

// EditSession carries the committed and working copies of a document's items
// and payments through an edit flow. The UI used to track this with ambient
// editing flags; here it is an explicit value the caller owns. Reverting is a
// plain replacement of the working copy with the committed snapshot.
type EditSession struct {
	doc Document

	committedItems []LineItem
	items          []LineItem

	committedPayments []Versement
	ledger            *Ledger

	now func() time.Time
}

// NewEditSession snapshots the loaded aggregate. A nil clock defaults to
// time.Now.
func NewEditSession(doc Document, items []LineItem, payments []Versement, now func() time.Time) *EditSession {
	if now == nil {
		now = time.Now
	}
	return &EditSession{
		doc:               doc,
		committedItems:    append([]LineItem(nil), items...),
		items:             append([]LineItem(nil), items...),
		committedPayments: append([]Versement(nil), payments...),
		ledger:            NewLedger(payments, now),
		now:               now,
	}
}

// Document returns the document header the session was opened on.
func (s *EditSession) Document() Document {
	return s.doc
}

// Items returns a copy of the working item list.
func (s *EditSession) Items() []LineItem {
	return append([]LineItem(nil), s.items...)
}

// Ledger exposes the working payment ledger.
func (s *EditSession) Ledger() *Ledger {
	return s.ledger
}

// Subtotal computes the working items subtotal.
func (s *EditSession) Subtotal() float64 {
	return Subtotal(s.items)
}

// AddItem stages a line for the first unreferenced catalog entry.
func (s *EditSession) AddItem(catalog []CatalogEntry) error {
	items, err := AddItem(catalog, s.items)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// UpdateItemRef stages a reference swap on the identified line.
func (s *EditSession) UpdateItemRef(refID int64, entry CatalogEntry) error {
	items, err := UpdateItemRef(s.items, refID, entry)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// UpdateItemQuantity stages a quantity change on the identified line.
func (s *EditSession) UpdateItemQuantity(refID int64, qty float64) error {
	items, err := UpdateItemQuantity(s.items, refID, qty)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// RemoveItem stages removal of the identified line.
func (s *EditSession) RemoveItem(refID int64) error {
	items, err := RemoveItem(s.items, refID)
	if err != nil {
		return err
	}
	s.items = items
	return nil
}

// StageItems replaces the working item list with an externally assembled one,
// after line-level validation.
func (s *EditSession) StageItems(items []LineItem) error {
	if err := ValidateItems(items); err != nil {
		return err
	}
	s.items = append([]LineItem(nil), items...)
	return nil
}

// StagePayments replaces the working ledger with a proposed one, after
// checking it against the committed snapshot: sequence numbers must be
// contiguous and every locked committed entry must survive unchanged.
func (s *EditSession) StagePayments(proposed []Versement) error {
	if err := ValidateProposedLedger(s.committedPayments, proposed, s.now); err != nil {
		return err
	}
	s.ledger = NewLedger(proposed, s.now)
	return nil
}

// RevertItems discards staged item edits.
func (s *EditSession) RevertItems() {
	s.items = append([]LineItem(nil), s.committedItems...)
}

// RevertPayments discards staged payment edits.
func (s *EditSession) RevertPayments() {
	s.ledger = NewLedger(s.committedPayments, s.now)
}
