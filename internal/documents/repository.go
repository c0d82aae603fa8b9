package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for documents.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const documentColumns = `id, kind, doc_type, counterparty_id, counterparty_name, code,
issued_at, description, payment_method, remise, raw_total, status, finalized, created_at, updated_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Kind, &d.Type, &d.CounterpartyID, &d.CounterpartyName, &d.Code,
		&d.IssuedAt, &d.Description, &d.PaymentMethod, &d.Remise, &d.RawTotal, &d.Status,
		&d.Finalized, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return d, err
}

// GetDocument fetches a document header.
func (r *Repository) GetDocument(ctx context.Context, id int64) (Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	return scanDocument(row)
}

// ListItems returns the line items of a document in insertion order.
func (r *Repository) ListItems(ctx context.Context, documentID int64) ([]LineItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, ref_id, name, quantity, unit_price, total
		 FROM document_items WHERE document_id = $1 ORDER BY id`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.RefID, &it.Name, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListVersements returns a document's payments ordered by sequence number.
func (r *Repository) ListVersements(ctx context.Context, documentID int64) ([]Versement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, document_id, seq, amount, paid_at
		 FROM versements WHERE document_id = $1 ORDER BY seq`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Versement
	for rows.Next() {
		var v Versement
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Seq, &v.Amount, &v.Date); err != nil {
			return nil, err
		}
		entries = append(entries, v)
	}
	return entries, rows.Err()
}

// NextCode returns the next sequential code for (counterparty, year, kind, type).
func (r *Repository) NextCode(ctx context.Context, kind Kind, docType DocType, counterpartyID int64, year int) (int64, error) {
	var next int64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(code), 0) + 1 FROM documents
		 WHERE kind = $1 AND doc_type = $2 AND counterparty_id = $3
		   AND date_part('year', issued_at) = $4`,
		kind, docType, counterpartyID, year).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("documents: next code: %w", err)
	}
	return next, nil
}

// UpdateDocument persists the mutable header fields.
func (r *Repository) UpdateDocument(ctx context.Context, doc Document) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents
		 SET description = $2, issued_at = $3, payment_method = $4, remise = $5, updated_at = $6
		 WHERE id = $1 AND status = 'APPROVED'`,
		doc.ID, doc.Description, doc.IssuedAt, doc.PaymentMethod, doc.Remise, doc.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceItems swaps a document's item set and raw total atomically.
func (r *Repository) ReplaceItems(ctx context.Context, documentID int64, items []LineItem, rawTotal float64) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM document_items WHERE document_id = $1`, documentID); err != nil {
			return err
		}
		for _, it := range items {
			_, err := tx.Exec(ctx,
				`INSERT INTO document_items (document_id, ref_id, name, quantity, unit_price, total)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				documentID, it.RefID, it.Name, it.Quantity, it.UnitPrice, it.Total)
			if err != nil {
				return mapUniqueViolation(err, ErrDuplicateItem)
			}
		}
		_, err := tx.Exec(ctx,
			`UPDATE documents SET raw_total = $2, updated_at = now() WHERE id = $1`,
			documentID, rawTotal)
		return err
	})
}

// ReplaceVersements retransmits the full ledger for a document.
func (r *Repository) ReplaceVersements(ctx context.Context, documentID int64, entries []Versement) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM versements WHERE document_id = $1`, documentID); err != nil {
			return err
		}
		for _, v := range entries {
			_, err := tx.Exec(ctx,
				`INSERT INTO versements (document_id, seq, amount, paid_at)
				 VALUES ($1, $2, $3, $4)`,
				documentID, v.Seq, v.Amount, v.Date)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CancelDocument marks the document cancelled.
func (r *Repository) CancelDocument(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET status = 'CANCELLED', updated_at = now() WHERE id = $1 AND status = 'APPROVED'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FinalizeDocument flips the finalized flag.
func (r *Repository) FinalizeDocument(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET finalized = true, updated_at = now() WHERE id = $1 AND finalized = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocument removes the document and its owned rows.
func (r *Repository) DeleteDocument(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM versements WHERE document_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM document_items WHERE document_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *Repository) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func mapUniqueViolation(err error, sentinel error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return sentinel
	}
	return err
}
