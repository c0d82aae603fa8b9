package production

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// RepositoryPort abstracts persistence for the production module.
type RepositoryPort interface {
	GetProduct(ctx context.Context, productID int64) (Product, error)
	GetRecipe(ctx context.Context, productID int64) (Recipe, error)
	ReplaceRecipe(ctx context.Context, productID int64, lines []RecipeLine) error
	GetStockLevels(ctx context.Context, rawMaterialIDs []int64) (map[int64]StockLevel, error)
	ApplyProduction(ctx context.Context, plan Plan) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates production runs and recipe maintenance.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem}
}

// Estimate summarises feasibility and economics for producing qty units.
type Estimate struct {
	ProductID     int64
	Quantity      float64
	Feasible      bool
	Cost          float64
	CostPerUnit   float64
	MaxProducible int64
	ProfitMargin  float64
}

// EstimateProduction computes cost, feasibility, maximum producible quantity
// and profit margin from the current stock snapshot, without mutating state.
func (s *Service) EstimateProduction(ctx context.Context, productID int64, qty float64) (Estimate, error) {
	if qty <= 0 {
		return Estimate{}, fmt.Errorf("%w: %.2f", ErrInvalidQuantity, qty)
	}
	product, err := s.repo.GetProduct(ctx, productID)
	if err != nil {
		return Estimate{}, err
	}
	recipe, err := s.repo.GetRecipe(ctx, productID)
	if err != nil {
		return Estimate{}, err
	}
	stock, err := s.stockFor(ctx, recipe)
	if err != nil {
		return Estimate{}, err
	}
	costPerUnit := ProductionCost(recipe, stock, 1)
	est := Estimate{
		ProductID:     productID,
		Quantity:      qty,
		Feasible:      CanProduce(recipe, stock, qty),
		Cost:          ProductionCost(recipe, stock, qty),
		CostPerUnit:   costPerUnit,
		MaxProducible: MaxProducible(recipe, stock),
	}
	if len(recipe.Lines) > 0 {
		est.ProfitMargin = ProfitMargin(product.UnitPrice, costPerUnit)
	}
	return est, nil
}

// ProduceInput describes a production run request.
type ProduceInput struct {
	ProductID int64
	Quantity  float64
	ActorID   int64
	RefID     string
}

// Produce validates a run against a freshly fetched stock snapshot and, when
// feasible, hands the computed deltas to the persistence layer in one
// transaction. Validation and submission never interleave with other awaits.
func (s *Service) Produce(ctx context.Context, input ProduceInput) (Plan, error) {
	if input.Quantity <= 0 {
		return Plan{}, fmt.Errorf("%w: %.2f", ErrInvalidQuantity, input.Quantity)
	}
	if input.RefID != "" {
		if _, err := uuid.Parse(input.RefID); err != nil {
			return Plan{}, fmt.Errorf("production: invalid ref id: %w", err)
		}
	}
	recipe, err := s.repo.GetRecipe(ctx, input.ProductID)
	if err != nil {
		return Plan{}, err
	}
	stock, err := s.stockFor(ctx, recipe)
	if err != nil {
		return Plan{}, err
	}
	plan, err := BuildPlan(recipe, stock, input.Quantity)
	if err != nil {
		return Plan{}, err
	}

	insertedKey := false
	key := ""
	if s.idempotency != nil && input.RefID != "" {
		key = fmt.Sprintf("produce:%d:%s", input.ProductID, input.RefID)
		if err := s.idempotency.CheckAndInsert(ctx, key, "production"); err != nil {
			return Plan{}, err
		}
		insertedKey = true
	}
	if err := s.repo.ApplyProduction(ctx, plan); err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return Plan{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "production:produce",
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", input.ProductID),
			Meta: map[string]any{
				"qty":  input.Quantity,
				"cost": plan.Cost,
			},
		})
	}
	return plan, nil
}

// SaveRecipe replaces a product's recipe after validation.
func (s *Service) SaveRecipe(ctx context.Context, productID int64, lines []RecipeLine, actorID int64) error {
	if err := ValidateRecipe(lines); err != nil {
		return err
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.ReplaceRecipe(ctx, productID, lines); err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "production:save_recipe",
			Entity:   "recipe",
			EntityID: fmt.Sprintf("%d", productID),
			Meta:     map[string]any{"lines": len(lines)},
		})
	}
	return nil
}

// GetRecipe returns a product's recipe.
func (s *Service) GetRecipe(ctx context.Context, productID int64) (Recipe, error) {
	return s.repo.GetRecipe(ctx, productID)
}

func (s *Service) stockFor(ctx context.Context, recipe Recipe) (map[int64]StockLevel, error) {
	ids := make([]int64, 0, len(recipe.Lines))
	for _, line := range recipe.Lines {
		ids = append(ids, line.RawMaterialID)
	}
	if len(ids) == 0 {
		return map[int64]StockLevel{}, nil
	}
	return s.repo.GetStockLevels(ctx, ids)
}
