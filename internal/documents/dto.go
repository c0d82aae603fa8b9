package documents

import "time"

// EditRequest updates the mutable header fields of a document.
type EditRequest struct {
	Description   string  `json:"description" validate:"max=2000"`
	IssuedAt      string  `json:"issued_at,omitempty" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod string  `json:"payment_method" validate:"max=100"`
	Remise        float64 `json:"remise" validate:"gte=0,lte=100"`
	ActorID       int64   `json:"actor_id" validate:"required,gt=0"`
}

// ItemRequest is one staged line in a save-items request.
type ItemRequest struct {
	RefID     int64   `json:"ref_id" validate:"required,gt=0"`
	Name      string  `json:"name" validate:"required,max=200"`
	Quantity  float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// SaveItemsRequest replaces the item set of a document.
type SaveItemsRequest struct {
	Items   []ItemRequest `json:"items" validate:"dive"`
	ActorID int64         `json:"actor_id" validate:"required,gt=0"`
}

// VersementRequest is one ledger entry in a save-versements request.
type VersementRequest struct {
	Seq    int     `json:"seq" validate:"required,gt=0"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
}

// SaveVersementsRequest replaces the payment ledger of a document.
type SaveVersementsRequest struct {
	Versements []VersementRequest `json:"versements" validate:"dive"`
	ActorID    int64              `json:"actor_id" validate:"required,gt=0"`
}

// ActorRequest carries the acting user for lifecycle transitions.
type ActorRequest struct {
	ActorID int64 `json:"actor_id" validate:"required,gt=0"`
}

// VersementResponse mirrors one ledger entry.
type VersementResponse struct {
	Seq      int     `json:"seq"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Editable bool    `json:"editable"`
}

// ItemResponse mirrors one line item.
type ItemResponse struct {
	RefID     int64   `json:"ref_id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// DocumentResponse is the full aggregate with derived totals.
type DocumentResponse struct {
	ID                  int64               `json:"id"`
	Kind                Kind                `json:"kind"`
	Type                DocType             `json:"type"`
	CounterpartyID      int64               `json:"counterparty_id"`
	CounterpartyName    string              `json:"counterparty_name"`
	Code                int64               `json:"code"`
	IssuedAt            string              `json:"issued_at"`
	Description         string              `json:"description"`
	PaymentMethod       string              `json:"payment_method"`
	Remise              float64             `json:"remise"`
	RawTotal            float64             `json:"raw_total"`
	Status              Status              `json:"status"`
	Finalized           bool                `json:"finalized"`
	DiscountAmount      float64             `json:"discount_amount"`
	PostDiscountTotal   float64             `json:"post_discount_total"`
	TotalPaid           float64             `json:"total_paid"`
	RemainingBalance    float64             `json:"remaining_balance"`
	EffectiveMaxRemise  float64             `json:"effective_max_remise"`
	DisplayTotal        string              `json:"display_total"`
	DisplayRemaining    string              `json:"display_remaining"`
	Items               []ItemResponse      `json:"items"`
	Versements          []VersementResponse `json:"versements"`
}

func parseISODate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
