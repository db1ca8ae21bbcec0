package quote

import (
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/pagination"

	"github.com/shopspring/decimal"
)

type LineItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Category    string          `json:"category" validate:"required"`
}

// CreateRequest never carries amounts; they are always computed from the items.
type CreateRequest struct {
	LeadID  string            `json:"leadId" validate:"required"`
	Details string            `json:"details"`
	Items   []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateRequest struct {
	Details *string           `json:"details"`
	Items   []LineItemRequest `json:"items" validate:"omitempty,dive"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListParams struct {
	LeadID string
	Status domain.QuoteStatus
	Page   pagination.Params
}

type ListResult struct {
	Quotes     []domain.Quote  `json:"quotes"`
	Pagination pagination.Meta `json:"pagination"`
}

type History struct {
	QuoteID  string               `json:"quoteId"`
	Versions []domain.Quote       `json:"versions"`
	Activity []domain.ActivityLog `json:"activity"`
}
