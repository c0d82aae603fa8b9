package production

// ProduceRequest starts a production run.
type ProduceRequest struct {
	Quantity float64 `json:"quantity" validate:"required,gt=0"`
	ActorID  int64   `json:"actor_id" validate:"required,gt=0"`
	RefID    string  `json:"ref_id,omitempty" validate:"omitempty,uuid4"`
}

// RecipeLineRequest is one raw-material requirement.
type RecipeLineRequest struct {
	RawMaterialID int64   `json:"raw_material_id" validate:"required,gt=0"`
	Quantity      float64 `json:"quantity" validate:"required,gte=0.01"`
}

// SaveRecipeRequest replaces a product's recipe.
type SaveRecipeRequest struct {
	Lines   []RecipeLineRequest `json:"lines" validate:"dive"`
	ActorID int64               `json:"actor_id" validate:"required,gt=0"`
}

// EstimateResponse summarises a production estimate.
type EstimateResponse struct {
	ProductID     int64   `json:"product_id"`
	Quantity      float64 `json:"quantity"`
	Feasible      bool    `json:"feasible"`
	Cost          float64 `json:"cost"`
	CostPerUnit   float64 `json:"cost_per_unit"`
	MaxProducible int64   `json:"max_producible"`
	ProfitMargin  float64 `json:"profit_margin"`
	DisplayCost   string  `json:"display_cost"`
}

// PlanResponse reports an applied production run.
type PlanResponse struct {
	ProductID int64                `json:"product_id"`
	Quantity  float64              `json:"quantity"`
	Cost      float64              `json:"cost"`
	Consumed  []StockDeltaResponse `json:"consumed"`
}

// StockDeltaResponse is one raw-material consumption entry.
type StockDeltaResponse struct {
	RawMaterialID int64   `json:"raw_material_id"`
	Consumed      float64 `json:"consumed"`
}

// RecipeResponse mirrors a stored recipe.
type RecipeResponse struct {
	ProductID int64               `json:"product_id"`
	Lines     []RecipeLineRequest `json:"lines"`
}
