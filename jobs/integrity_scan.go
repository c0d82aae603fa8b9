package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atelier-erp/atelier-erp/internal/documents"
	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
	"github.com/atelier-erp/atelier-erp/internal/money"
)

// DocumentIntegrityJob scans stored documents for ledger violations that
// should be impossible through the API: gapped payment sequences, payments
// above the post-discount total and discounts over the document type cap.
type DocumentIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewDocumentIntegrityJob initialises the integrity scan handler.
func NewDocumentIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *DocumentIntegrityJob {
	return &DocumentIntegrityJob{Pool: pool, Logger: logger, Metrics: metrics}
}

type integrityRow struct {
	id       int64
	docType  documents.DocType
	remise   float64
	rawTotal float64
	paid     float64
	seqCount int64
	seqMax   int64
}

// Handle executes the integrity scan.
func (j *DocumentIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("integrity scan: handler not configured")
	}
	var payload DocumentIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskDocumentIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	rows, err := j.Pool.Query(ctx, `
		SELECT d.id, d.doc_type, d.remise, d.raw_total,
		       COALESCE(v.paid, 0), COALESCE(v.seq_count, 0), COALESCE(v.seq_max, 0)
		FROM documents d
		LEFT JOIN (
			SELECT document_id, SUM(amount) AS paid, COUNT(*) AS seq_count, MAX(seq) AS seq_max
			FROM versements
			GROUP BY document_id
		) v ON v.document_id = d.id
		WHERE d.status = 'APPROVED'
		  AND ($1 = 0 OR d.issued_at >= now() - make_interval(days => $1))
		ORDER BY d.id`, payload.SinceDays)
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	var scanned, flagged int
	for rows.Next() {
		var rec integrityRow
		if err := rows.Scan(&rec.id, &rec.docType, &rec.remise, &rec.rawTotal, &rec.paid, &rec.seqCount, &rec.seqMax); err != nil {
			resultErr = err
			return resultErr
		}
		scanned++
		if j.check(rec) {
			flagged++
		}
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	if j.Logger != nil {
		j.Logger.Info("document integrity scan finished",
			slog.String("job", TaskDocumentIntegrity),
			slog.Int("scanned", scanned),
			slog.Int("flagged", flagged))
	}
	return nil
}

// check reports whether the document violates any invariant, recording each
// violation on the metrics counter.
func (j *DocumentIntegrityJob) check(rec integrityRow) bool {
	violated := false

	if rec.seqCount != rec.seqMax {
		violated = true
		j.Metrics.AddViolations("versement_sequence_gap", 1)
		j.warn(rec.id, "versement sequence is not contiguous")
	}

	outstanding := documents.PostDiscountTotal(rec.rawTotal, rec.remise)
	if money.Round2(rec.paid) > outstanding+0.005 {
		violated = true
		j.Metrics.AddViolations("payments_exceed_total", 1)
		j.warn(rec.id, "payments exceed post-discount total")
	}

	if rec.remise > rec.docType.RemiseCap()+1e-9 {
		violated = true
		j.Metrics.AddViolations("remise_over_cap", 1)
		j.warn(rec.id, "discount exceeds document type cap")
	}

	return violated
}

func (j *DocumentIntegrityJob) warn(documentID int64, msg string) {
	if j.Logger == nil {
		return
	}
	j.Logger.Warn(msg, slog.String("job", TaskDocumentIntegrity), slog.Int64("document_id", documentID))
}
