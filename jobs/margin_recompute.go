package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/atelier-erp/atelier-erp/internal/jobs"
	"github.com/atelier-erp/atelier-erp/internal/money"
	"github.com/atelier-erp/atelier-erp/internal/production"
)

// MarginRecomputeJob refreshes per-product cost and margin snapshots from the
// current recipe lines and raw material prices.
type MarginRecomputeJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMarginRecomputeJob initialises the margin recompute handler.
func NewMarginRecomputeJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *MarginRecomputeJob {
	return &MarginRecomputeJob{Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle executes the margin recompute logic.
func (j *MarginRecomputeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("margin recompute: handler not configured")
	}
	var payload MarginRecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskMarginRecompute)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	rows, err := j.Pool.Query(ctx, `
		SELECT p.id, p.unit_price, COALESCE(SUM(rl.quantity * rm.unit_price), 0)
		FROM products p
		LEFT JOIN recipe_lines rl ON rl.product_id = p.id
		LEFT JOIN raw_materials rm ON rm.id = rl.raw_material_id
		GROUP BY p.id, p.unit_price
		ORDER BY p.id`)
	if err != nil {
		resultErr = err
		return resultErr
	}
	defer rows.Close()

	type snapshot struct {
		id     int64
		cost   float64
		margin float64
	}
	var snapshots []snapshot
	for rows.Next() {
		var id int64
		var unitPrice, unitCost float64
		if err := rows.Scan(&id, &unitPrice, &unitCost); err != nil {
			resultErr = err
			return resultErr
		}
		snapshots = append(snapshots, snapshot{
			id:     id,
			cost:   money.Round2(unitCost),
			margin: money.Round2(production.ProfitMargin(unitPrice, unitCost)),
		})
	}
	if err := rows.Err(); err != nil {
		resultErr = err
		return resultErr
	}

	updated := 0
	for _, s := range snapshots {
		tag, err := j.Pool.Exec(ctx, `
			UPDATE products
			SET unit_cost = $2, profit_margin = $3, margin_computed_at = $4
			WHERE id = $1`, s.id, s.cost, s.margin, time.Now().UTC())
		if err != nil {
			resultErr = err
			return resultErr
		}
		updated += int(tag.RowsAffected())
	}

	if j.Logger != nil {
		j.Logger.Info("margin recompute finished",
			slog.String("job", TaskMarginRecompute),
			slog.Int("products", updated))
	}
	return nil
}
