package documents

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryDocRepo struct {
	docs       map[int64]Document
	items      map[int64][]LineItem
	versements map[int64][]Versement
	deleted    []int64
}

func newMemoryDocRepo() *memoryDocRepo {
	return &memoryDocRepo{
		docs:       make(map[int64]Document),
		items:      make(map[int64][]LineItem),
		versements: make(map[int64][]Versement),
	}
}

func (r *memoryDocRepo) GetDocument(ctx context.Context, id int64) (Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *memoryDocRepo) ListItems(ctx context.Context, documentID int64) ([]LineItem, error) {
	return append([]LineItem(nil), r.items[documentID]...), nil
}

func (r *memoryDocRepo) ListVersements(ctx context.Context, documentID int64) ([]Versement, error) {
	return append([]Versement(nil), r.versements[documentID]...), nil
}

func (r *memoryDocRepo) NextCode(ctx context.Context, kind Kind, docType DocType, counterpartyID int64, year int) (int64, error) {
	var max int64
	for _, doc := range r.docs {
		if doc.Kind == kind && doc.Type == docType && doc.CounterpartyID == counterpartyID && doc.IssuedAt.Year() == year {
			if doc.Code > max {
				max = doc.Code
			}
		}
	}
	return max + 1, nil
}

func (r *memoryDocRepo) UpdateDocument(ctx context.Context, doc Document) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return ErrNotFound
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *memoryDocRepo) ReplaceItems(ctx context.Context, documentID int64, items []LineItem, rawTotal float64) error {
	r.items[documentID] = append([]LineItem(nil), items...)
	doc := r.docs[documentID]
	doc.RawTotal = rawTotal
	r.docs[documentID] = doc
	return nil
}

func (r *memoryDocRepo) ReplaceVersements(ctx context.Context, documentID int64, entries []Versement) error {
	r.versements[documentID] = append([]Versement(nil), entries...)
	return nil
}

func (r *memoryDocRepo) CancelDocument(ctx context.Context, id int64) error {
	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = StatusCancelled
	r.docs[id] = doc
	return nil
}

func (r *memoryDocRepo) FinalizeDocument(ctx context.Context, id int64) error {
	doc, ok := r.docs[id]
	if !ok {
		return ErrNotFound
	}
	doc.Finalized = true
	r.docs[id] = doc
	return nil
}

func (r *memoryDocRepo) DeleteDocument(ctx context.Context, id int64) error {
	if _, ok := r.docs[id]; !ok {
		return ErrNotFound
	}
	delete(r.docs, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func seedDoc(repo *memoryDocRepo, id, code int64, docType DocType, opts ...func(*Document)) {
	doc := Document{
		ID:             id,
		Kind:           KindPurchase,
		Type:           docType,
		CounterpartyID: 42,
		Code:           code,
		IssuedAt:       date("2024-05-01"),
		RawTotal:       1000,
		Status:         StatusApproved,
	}
	for _, opt := range opts {
		opt(&doc)
	}
	repo.docs[id] = doc
}

func newTestService(repo *memoryDocRepo, clock time.Time) *Service {
	return NewService(repo, nil, fixedClock(clock))
}

func TestServiceEditValidatesRemise(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice)
	repo.versements[1] = []Versement{
		{Seq: 1, Amount: 300, Date: date("2024-05-02")},
		{Seq: 2, Amount: 300, Date: date("2024-05-10")},
	}
	svc := newTestService(repo, date("2024-05-15"))

	_, err := svc.Edit(context.Background(), 1, EditInput{Remise: 45, ActorID: 9})
	require.ErrorIs(t, err, ErrRemiseExceedsMax)

	doc, err := svc.Edit(context.Background(), 1, EditInput{Remise: 40, Description: "updated", ActorID: 9})
	require.NoError(t, err)
	require.Equal(t, 40.0, doc.Remise)
	require.Equal(t, "updated", repo.docs[1].Description)
}

func TestServiceEditRejectsBLOverCap(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeBL)
	svc := newTestService(repo, date("2024-05-15"))

	_, err := svc.Edit(context.Background(), 1, EditInput{Remise: 55, ActorID: 9})
	require.ErrorIs(t, err, ErrRemiseExceedsMax)

	_, err = svc.Edit(context.Background(), 1, EditInput{Remise: 50, ActorID: 9})
	require.NoError(t, err)
}

func TestServiceEditRequiresApproved(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice, func(d *Document) { d.Status = StatusCancelled })
	svc := newTestService(repo, date("2024-05-15"))

	_, err := svc.Edit(context.Background(), 1, EditInput{Remise: 0, ActorID: 9})
	require.ErrorIs(t, err, ErrNotApproved)
}

func TestServiceSaveItemsRecomputesRawTotal(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice)
	svc := newTestService(repo, date("2024-05-15"))

	session, err := svc.Load(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, session.AddItem(testCatalog))
	require.NoError(t, session.UpdateItemQuantity(1, 4))

	doc, err := svc.SaveItems(context.Background(), session, 9)
	require.NoError(t, err)
	require.Equal(t, 74.0, doc.RawTotal)
	require.Len(t, repo.items[1], 1)
}

func TestServiceSaveItemsRejectsShrinkBelowPayments(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice)
	repo.items[1] = []LineItem{{RefID: 1, Name: "Flour 25kg", Quantity: 60, UnitPrice: 18.5, Total: 1110}}
	repo.versements[1] = []Versement{{Seq: 1, Amount: 500, Date: date("2024-05-02")}}
	svc := newTestService(repo, date("2024-05-15"))

	session, err := svc.Load(context.Background(), 1)
	require.NoError(t, err)
	// shrink to a single cheap line: subtotal 18.50 < paid 500
	require.NoError(t, session.UpdateItemQuantity(1, 1))

	_, err = svc.SaveItems(context.Background(), session, 9)
	require.ErrorIs(t, err, ErrPaymentsExceedTotal)
	// no partial mutation
	require.Equal(t, 1110.0, repo.items[1][0].Total)
}

func TestServiceSaveVersementsRequiresFinalized(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice)
	svc := newTestService(repo, date("2024-05-15"))

	session, err := svc.Load(context.Background(), 1)
	require.NoError(t, err)
	require.ErrorIs(t, svc.SaveVersements(context.Background(), session, 9), ErrNotFinalized)
}

func TestServiceSaveVersementsRetransmitsFullLedger(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice, func(d *Document) { d.Finalized = true })
	// entry from a previous month stays durable even though locked
	repo.versements[1] = []Versement{{Seq: 1, Amount: 300, Date: date("2024-04-20")}}
	svc := newTestService(repo, date("2024-05-15"))

	session, err := svc.Load(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, session.Ledger().Add(1000))

	require.NoError(t, svc.SaveVersements(context.Background(), session, 9))
	require.Len(t, repo.versements[1], 2)
	require.Equal(t, 300.0, repo.versements[1][0].Amount)
}

func TestServiceFinalizeIsOneWay(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice)
	svc := newTestService(repo, date("2024-05-15"))

	require.NoError(t, svc.Finalize(context.Background(), 1, 9))
	require.True(t, repo.docs[1].Finalized)
	require.ErrorIs(t, svc.Finalize(context.Background(), 1, 9), ErrAlreadyFinalized)
}

func TestServiceCancelTransitions(t *testing.T) {
	repo := newMemoryDocRepo()
	seedDoc(repo, 1, 1, TypeInvoice)
	svc := newTestService(repo, date("2024-05-15"))

	require.NoError(t, svc.Cancel(context.Background(), 1, 9))
	require.Equal(t, StatusCancelled, repo.docs[1].Status)
	// cancelled documents cannot be cancelled again
	require.ErrorIs(t, svc.Cancel(context.Background(), 1, 9), ErrNotApproved)
}

func TestServiceDeleteOrdering(t *testing.T) {
	repo := newMemoryDocRepo()
	// codes 5..7 for the same vendor/year/type: next code is 8
	seedDoc(repo, 1, 5, TypeBL)
	seedDoc(repo, 2, 6, TypeBL)
	seedDoc(repo, 3, 7, TypeBL)
	svc := newTestService(repo, date("2024-05-15"))

	err := svc.Delete(context.Background(), 1, 9)
	require.ErrorIs(t, err, ErrNotLatestDocument)
	require.Contains(t, repo.docs, int64(1))

	require.NoError(t, svc.Delete(context.Background(), 3, 9))
	require.NotContains(t, repo.docs, int64(3))

	// after deleting 7, code 6 becomes the latest
	require.NoError(t, svc.Delete(context.Background(), 2, 9))
}

func TestServiceDeleteMissingDocument(t *testing.T) {
	repo := newMemoryDocRepo()
	svc := newTestService(repo, date("2024-05-15"))
	require.ErrorIs(t, svc.Delete(context.Background(), 99, 9), ErrNotFound)
}
