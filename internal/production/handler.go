package production

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/money"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// Handler exposes production endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validate  *validator.Validate
	formatter *money.Formatter
}

// NewHandler builds Handler.
func NewHandler(logger *slog.Logger, service *Service, formatter *money.Formatter) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validate:  validator.New(),
		formatter: formatter,
	}
}

// MountRoutes registers production routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products/{id}/recipe", h.showRecipe)
	r.Put("/products/{id}/recipe", h.saveRecipe)
	r.Get("/products/{id}/estimate", h.estimate)
	r.Post("/products/{id}/produce", h.produce)
}

func (h *Handler) showRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	recipe, err := h.service.GetRecipe(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := RecipeResponse{ProductID: recipe.ProductID}
	for _, line := range recipe.Lines {
		resp.Lines = append(resp.Lines, RecipeLineRequest{RawMaterialID: line.RawMaterialID, Quantity: line.Quantity})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) saveRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SaveRecipeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	lines := make([]RecipeLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, RecipeLine{RawMaterialID: l.RawMaterialID, Quantity: l.Quantity})
	}
	if err := h.service.SaveRecipe(r.Context(), id, lines, req.ActorID); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	qty, err := strconv.ParseFloat(r.URL.Query().Get("qty"), 64)
	if err != nil || qty <= 0 {
		qty = 1
	}
	est, err := h.service.EstimateProduction(r.Context(), id, qty)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, EstimateResponse{
		ProductID:     est.ProductID,
		Quantity:      est.Quantity,
		Feasible:      est.Feasible,
		Cost:          est.Cost,
		CostPerUnit:   est.CostPerUnit,
		MaxProducible: est.MaxProducible,
		ProfitMargin:  est.ProfitMargin,
		DisplayCost:   h.formatter.Format(est.Cost),
	})
}

func (h *Handler) produce(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req ProduceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	plan, err := h.service.Produce(r.Context(), ProduceInput{
		ProductID: id,
		Quantity:  req.Quantity,
		ActorID:   req.ActorID,
		RefID:     req.RefID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := PlanResponse{ProductID: plan.ProductID, Quantity: plan.Quantity, Cost: plan.Cost}
	for _, delta := range plan.Consumed {
		resp.Consumed = append(resp.Consumed, StockDeltaResponse{RawMaterialID: delta.RawMaterialID, Consumed: delta.Consumed})
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid product id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrEmptyRecipe),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidRecipeLine),
		errors.Is(err, ErrDuplicateRecipeLine):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("production request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
