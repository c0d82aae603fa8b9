// Package documents implements the commercial document engine: line-item
// ledgers, discount rules, installment payments and the document lifecycle.
package documents

import (
	"errors"
	"time"
)

// Kind distinguishes purchase documents from sale documents.
type Kind string

const (
	KindPurchase Kind = "PURCHASE"
	KindSale     Kind = "SALE"
)

// DocType is the commercial sub-type of a document.
type DocType string

const (
	// TypeBL is a delivery note (bon de livraison).
	TypeBL DocType = "BL"
	// TypeInvoice is a billable invoice.
	TypeInvoice DocType = "INVOICE"
)

// RemiseCap returns the hard discount ceiling for the sub-type.
// BL documents are capped at 50 percent, invoices only by the payment rule.
func (t DocType) RemiseCap() float64 {
	if t == TypeBL {
		return 50
	}
	return 100
}

// Status enumerates document lifecycle states.
type Status string

const (
	StatusApproved  Status = "APPROVED"
	StatusCancelled Status = "CANCELLED"
)

// Document models a purchase or sale document header.
// Code is sequential and unique per (counterparty, year, kind, type).
type Document struct {
	ID               int64
	Kind             Kind
	Type             DocType
	CounterpartyID   int64
	CounterpartyName string
	Code             int64
	IssuedAt         time.Time
	Description      string
	PaymentMethod    string
	Remise           float64
	RawTotal         float64
	Status           Status
	Finalized        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// LineItem is a single product or raw-material line on a document.
// UnitPrice is the catalog price captured when the line was created.
type LineItem struct {
	ID         int64
	DocumentID int64
	RefID      int64
	Name       string
	Quantity   float64
	UnitPrice  float64
	Total      float64
}

// Versement is one installment payment against a document.
// Seq numbers are 1-based and contiguous.
type Versement struct {
	ID         int64
	DocumentID int64
	Seq        int
	Amount     float64
	Date       time.Time
}

// CatalogEntry is the slice of a catalog record the item ledger needs.
type CatalogEntry struct {
	ID        int64
	Name      string
	UnitPrice float64
}

// Validation errors. All are recoverable: the operation is a no-op and the
// caller builds a user-facing message from the wrapped detail.
var (
	ErrNoAvailableCatalogEntry = errors.New("documents: no unreferenced catalog entry available")
	ErrDuplicateItem           = errors.New("documents: catalog entry already referenced by another line")
	ErrItemNotFound            = errors.New("documents: line item not found")
	ErrInvalidQuantity         = errors.New("documents: quantity must be positive")
	ErrRemiseExceedsMax        = errors.New("documents: remise exceeds allowed maximum")
	ErrPaymentsExceedTotal     = errors.New("documents: payments exceed post-discount total")
	ErrInvalidAmount           = errors.New("documents: versement amount must be positive")
	ErrVersementLocked         = errors.New("documents: versement outside current month is read-only")
	ErrVersementNotFound       = errors.New("documents: versement not found")
	ErrOutsideCurrentMonth     = errors.New("documents: versement date must fall in the current month")
	ErrNothingOutstanding      = errors.New("documents: no outstanding balance to settle")
)

// Lifecycle errors.
var (
	ErrNotFound          = errors.New("documents: document not found")
	ErrNotApproved       = errors.New("documents: document is not in approved status")
	ErrAlreadyFinalized  = errors.New("documents: document already finalized")
	ErrNotFinalized      = errors.New("documents: document must be finalized before recording payments")
	ErrNotLatestDocument = errors.New("documents: only the most recent document of its kind may be deleted")
)
