package documents

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atelier-erp/atelier-erp/internal/money"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// Handler exposes the document engine over HTTP.
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

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.show)
	r.Put("/{id}", h.edit)
	r.Put("/{id}/items", h.saveItems)
	r.Put("/{id}/versements", h.saveVersements)
	r.Post("/{id}/cancel", h.cancel)
	r.Post("/{id}/finalize", h.finalize)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	session, err := h.service.Load(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.toResponse(session))
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req EditRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	input := EditInput{
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Remise:        req.Remise,
		ActorID:       req.ActorID,
	}
	if req.IssuedAt != "" {
		issued, err := parseISODate(req.IssuedAt)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "issued_at must be YYYY-MM-DD")
			return
		}
		input.IssuedAt = issued
	}
	if _, err := h.service.Edit(r.Context(), id, input); err != nil {
		h.respondError(w, r, err)
		return
	}
	session, err := h.service.Load(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.toResponse(session))
}

func (h *Handler) saveItems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SaveItemsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	session, err := h.service.Load(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	items := make([]LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, LineItem{
			DocumentID: id,
			RefID:      it.RefID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			Total:      money.Round2(it.Quantity * it.UnitPrice),
		})
	}
	if err := session.StageItems(items); err != nil {
		h.respondError(w, r, err)
		return
	}
	if _, err := h.service.SaveItems(r.Context(), session, req.ActorID); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.toResponse(session))
}

func (h *Handler) saveVersements(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SaveVersementsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	session, err := h.service.Load(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	proposed := make([]Versement, 0, len(req.Versements))
	for _, v := range req.Versements {
		date, err := parseISODate(v.Date)
		if err != nil {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", "versement date must be YYYY-MM-DD")
			return
		}
		proposed = append(proposed, Versement{DocumentID: id, Seq: v.Seq, Amount: v.Amount, Date: date})
	}
	if err := session.StagePayments(proposed); err != nil {
		h.respondError(w, r, err)
		return
	}
	if err := h.service.SaveVersements(r.Context(), session, req.ActorID); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, h.toResponse(session))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Cancel)
}

func (h *Handler) finalize(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Finalize)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Delete)
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id, actorID int64) error) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req ActorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
		return
	}
	if err := op(r.Context(), id, req.ActorID); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) toResponse(session *EditSession) DocumentResponse {
	doc := session.Document()
	ledger := session.Ledger()
	subtotal := session.Subtotal()
	due := PostDiscountTotal(subtotal, doc.Remise)
	paid := ledger.TotalPaid()
	remaining := money.Round2(due - paid)

	resp := DocumentResponse{
		ID:                 doc.ID,
		Kind:               doc.Kind,
		Type:               doc.Type,
		CounterpartyID:     doc.CounterpartyID,
		CounterpartyName:   doc.CounterpartyName,
		Code:               doc.Code,
		IssuedAt:           doc.IssuedAt.Format("2006-01-02"),
		Description:        doc.Description,
		PaymentMethod:      doc.PaymentMethod,
		Remise:             doc.Remise,
		RawTotal:           subtotal,
		Status:             doc.Status,
		Finalized:          doc.Finalized,
		DiscountAmount:     DiscountAmount(subtotal, doc.Remise),
		PostDiscountTotal:  due,
		TotalPaid:          paid,
		RemainingBalance:   remaining,
		EffectiveMaxRemise: EffectiveMaxRemise(doc.Type, subtotal, paid),
		DisplayTotal:       h.formatter.Format(due),
		DisplayRemaining:   h.formatter.Format(remaining),
	}
	for _, it := range session.Items() {
		resp.Items = append(resp.Items, ItemResponse{
			RefID:     it.RefID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.Total,
		})
	}
	for _, v := range ledger.Entries() {
		resp.Versements = append(resp.Versements, VersementResponse{
			Seq:      v.Seq,
			Amount:   v.Amount,
			Date:     v.Date.Format("2006-01-02"),
			Editable: ledger.Editable(v.Seq),
		})
	}
	return resp
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid document id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrVersementNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrNotApproved),
		errors.Is(err, ErrAlreadyFinalized),
		errors.Is(err, ErrNotFinalized),
		errors.Is(err, ErrNotLatestDocument),
		errors.Is(err, ErrVersementLocked),
		errors.Is(err, ErrDuplicateItem):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrNoAvailableCatalogEntry),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrRemiseExceedsMax),
		errors.Is(err, ErrPaymentsExceedTotal),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrOutsideCurrentMonth),
		errors.Is(err, ErrNothingOutstanding):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Validation Failed", err.Error())
	default:
		h.logger.Error("documents request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
