package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/atelier-erp/atelier-erp/internal/money"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the document engine.
type RepositoryPort interface {
	GetDocument(ctx context.Context, id int64) (Document, error)
	ListItems(ctx context.Context, documentID int64) ([]LineItem, error)
	ListVersements(ctx context.Context, documentID int64) ([]Versement, error)
	NextCode(ctx context.Context, kind Kind, docType DocType, counterpartyID int64, year int) (int64, error)
	UpdateDocument(ctx context.Context, doc Document) error
	ReplaceItems(ctx context.Context, documentID int64, items []LineItem, rawTotal float64) error
	ReplaceVersements(ctx context.Context, documentID int64, entries []Versement) error
	CancelDocument(ctx context.Context, id int64) error
	FinalizeDocument(ctx context.Context, id int64) error
	DeleteDocument(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates document lifecycle operations. Validation always runs
// against a locally held snapshot; the repository is only called after the
// aggregate passed every invariant check.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service. A nil clock defaults to time.Now.
func NewService(repo RepositoryPort, audit AuditPort, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, audit: audit, now: now}
}

// Load fetches a document with its items and payments and opens an edit
// session over the snapshot.
func (s *Service) Load(ctx context.Context, id int64) (*EditSession, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListVersements(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewEditSession(doc, items, payments, s.now), nil
}

// EditInput carries the mutable header fields.
type EditInput struct {
	Description   string
	IssuedAt      time.Time
	PaymentMethod string
	Remise        float64
	ActorID       int64
}

// Edit updates the document header after the remise passed both discount
// bounds against the current payment snapshot.
func (s *Service) Edit(ctx context.Context, id int64, input EditInput) (Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.Status != StatusApproved {
		return Document{}, fmt.Errorf("%w: status %s", ErrNotApproved, doc.Status)
	}
	payments, err := s.repo.ListVersements(ctx, id)
	if err != nil {
		return Document{}, err
	}
	totalPaid := NewLedger(payments, s.now).TotalPaid()
	if err := ValidateRemise(doc.Type, doc.RawTotal, input.Remise, totalPaid); err != nil {
		return Document{}, err
	}

	doc.Description = input.Description
	if !input.IssuedAt.IsZero() {
		doc.IssuedAt = input.IssuedAt
	}
	doc.PaymentMethod = input.PaymentMethod
	doc.Remise = input.Remise
	doc.UpdatedAt = s.now().UTC()
	if err := s.repo.UpdateDocument(ctx, doc); err != nil {
		return Document{}, err
	}
	s.recordAudit(ctx, input.ActorID, "documents:edit", doc, map[string]any{
		"remise": input.Remise,
	})
	return doc, nil
}

// SaveItems persists the staged working items of a session and the recomputed
// raw total. The remise is revalidated against the new total so a shrinking
// document can never drop below the collected payments.
func (s *Service) SaveItems(ctx context.Context, session *EditSession, actorID int64) (Document, error) {
	doc := session.Document()
	if doc.Status != StatusApproved {
		return Document{}, fmt.Errorf("%w: status %s", ErrNotApproved, doc.Status)
	}
	items := session.Items()
	if err := ValidateItems(items); err != nil {
		return Document{}, err
	}
	rawTotal := Subtotal(items)
	totalPaid := session.Ledger().TotalPaid()
	if err := ValidateRemise(doc.Type, rawTotal, doc.Remise, totalPaid); err != nil {
		return Document{}, err
	}
	if err := s.repo.ReplaceItems(ctx, doc.ID, items, rawTotal); err != nil {
		return Document{}, err
	}
	doc.RawTotal = rawTotal
	s.recordAudit(ctx, actorID, "documents:save_items", doc, map[string]any{
		"lines":     len(items),
		"raw_total": rawTotal,
	})
	return doc, nil
}

// SaveVersements persists the full working ledger of a finalized document.
//
// The whole ledger is retransmitted on every save; the month lock is enforced
// at mutation time. Narrowing the save to current-month entries would lose any
// entry created just before a month rollover.
func (s *Service) SaveVersements(ctx context.Context, session *EditSession, actorID int64) error {
	doc := session.Document()
	if doc.Status != StatusApproved {
		return fmt.Errorf("%w: status %s", ErrNotApproved, doc.Status)
	}
	if !doc.Finalized {
		return ErrNotFinalized
	}
	ledger := session.Ledger()
	due := PostDiscountTotal(doc.RawTotal, doc.Remise)
	if ledger.TotalPaid() > money.Round2(due)+0.005 {
		return fmt.Errorf("%w: paid %.2f > due %.2f", ErrPaymentsExceedTotal, ledger.TotalPaid(), due)
	}
	if err := s.repo.ReplaceVersements(ctx, doc.ID, ledger.Entries()); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "documents:save_versements", doc, map[string]any{
		"entries":    len(ledger.Entries()),
		"total_paid": ledger.TotalPaid(),
	})
	return nil
}

// Cancel transitions an approved document to cancelled. Inventory reversal is
// carried out by the persistence layer against the current item snapshot.
func (s *Service) Cancel(ctx context.Context, id, actorID int64) error {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status != StatusApproved {
		return fmt.Errorf("%w: status %s", ErrNotApproved, doc.Status)
	}
	if err := s.repo.CancelDocument(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "documents:cancel", doc, nil)
	return nil
}

// Finalize flips the one-way finalized flag, unlocking payment entry.
func (s *Service) Finalize(ctx context.Context, id, actorID int64) error {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.Status != StatusApproved {
		return fmt.Errorf("%w: status %s", ErrNotApproved, doc.Status)
	}
	if doc.Finalized {
		return ErrAlreadyFinalized
	}
	if err := s.repo.FinalizeDocument(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "documents:finalize", doc, nil)
	return nil
}

// Delete removes a document, permitted only when it is the most recently
// issued one of its kind for the counterparty and year. The check compares the
// document code against a freshly fetched next-code value.
func (s *Service) Delete(ctx context.Context, id, actorID int64) error {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	next, err := s.repo.NextCode(ctx, doc.Kind, doc.Type, doc.CounterpartyID, doc.IssuedAt.Year())
	if err != nil {
		return err
	}
	if doc.Code != next-1 {
		return fmt.Errorf("%w: code %d, latest is %d", ErrNotLatestDocument, doc.Code, next-1)
	}
	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "documents:delete", doc, map[string]any{"code": doc.Code})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, doc Document, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["kind"] = string(doc.Kind)
	meta["type"] = string(doc.Type)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "document",
		EntityID: fmt.Sprintf("%d", doc.ID),
		Meta:     meta,
	})
}
