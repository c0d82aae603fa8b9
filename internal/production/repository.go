package production

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for production.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetProduct fetches the product fields the calculator needs.
func (r *Repository) GetProduct(ctx context.Context, productID int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, unit_price, quantity FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.Name, &p.UnitPrice, &p.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// GetRecipe loads a product's recipe lines. A product without lines yields an
// empty recipe, not an error.
func (r *Repository) GetRecipe(ctx context.Context, productID int64) (Recipe, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT raw_material_id, quantity FROM recipe_lines WHERE product_id = $1 ORDER BY raw_material_id`,
		productID)
	if err != nil {
		return Recipe{}, err
	}
	defer rows.Close()
	recipe := Recipe{ProductID: productID}
	for rows.Next() {
		var line RecipeLine
		if err := rows.Scan(&line.RawMaterialID, &line.Quantity); err != nil {
			return Recipe{}, err
		}
		recipe.Lines = append(recipe.Lines, line)
	}
	return recipe, rows.Err()
}

// ReplaceRecipe swaps a product's recipe atomically.
func (r *Repository) ReplaceRecipe(ctx context.Context, productID int64, lines []RecipeLine) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_lines WHERE product_id = $1`, productID); err != nil {
			return err
		}
		for _, line := range lines {
			_, err := tx.Exec(ctx,
				`INSERT INTO recipe_lines (product_id, raw_material_id, quantity) VALUES ($1, $2, $3)`,
				productID, line.RawMaterialID, line.Quantity)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetStockLevels snapshots the referenced raw materials.
func (r *Repository) GetStockLevels(ctx context.Context, rawMaterialIDs []int64) (map[int64]StockLevel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, quantity, unit_price FROM raw_materials WHERE id = ANY($1)`, rawMaterialIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	levels := make(map[int64]StockLevel, len(rawMaterialIDs))
	for rows.Next() {
		var level StockLevel
		if err := rows.Scan(&level.RawMaterialID, &level.Quantity, &level.UnitPrice); err != nil {
			return nil, err
		}
		levels[level.RawMaterialID] = level
	}
	return levels, rows.Err()
}

// ApplyProduction commits a validated plan: product stock up, raw materials
// down, guarded against concurrent runs driving stock negative.
func (r *Repository) ApplyProduction(ctx context.Context, plan Plan) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE products SET quantity = quantity + $2 WHERE id = $1`, plan.ProductID, plan.Quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		for _, delta := range plan.Consumed {
			tag, err := tx.Exec(ctx,
				`UPDATE raw_materials SET quantity = quantity - $2 WHERE id = $1 AND quantity >= $2`,
				delta.RawMaterialID, delta.Consumed)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return ErrInsufficientStock
			}
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
