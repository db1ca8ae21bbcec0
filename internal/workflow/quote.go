package workflow

import (
	"fmt"

	"conveycrm/internal/domain"

	"github.com/shopspring/decimal"
)

var VATRate = decimal.RequireFromString("0.20")

type Totals struct {
	Net   decimal.Decimal
	VAT   decimal.Decimal
	Total decimal.Decimal
}

// ComputeTotals fills each item's total and derives the quote amounts.
// Lines in the VAT category are shown on the quote but never count towards
// the net, since VAT is always computed from the net.
func ComputeTotals(items []domain.QuoteLineItem) ([]domain.QuoteLineItem, Totals) {
	out := make([]domain.QuoteLineItem, len(items))
	net := decimal.Zero

	for i, item := range items {
		item.Total = item.Quantity.Mul(item.UnitPrice).Round(2)
		out[i] = item
		if item.Category != domain.LineVAT {
			net = net.Add(item.Total)
		}
	}

	vat := net.Mul(VATRate).Round(2)
	return out, Totals{Net: net, VAT: vat, Total: net.Add(vat)}
}

func ValidLineCategory(c domain.LineCategory) bool {
	switch c {
	case domain.LineLegalFees, domain.LineDisbursements, domain.LineVAT, domain.LineOther:
		return true
	}
	return false
}

var quoteTransitions = map[domain.QuoteStatus]map[domain.QuoteStatus]bool{
	domain.QuoteDraft: {domain.QuoteSent: true},
	domain.QuoteSent: {
		domain.QuoteAccepted: true,
		domain.QuoteRejected: true,
		domain.QuoteExpired:  true,
	},
	domain.QuoteAccepted: {},
	domain.QuoteRejected: {},
	domain.QuoteExpired:  {},
}

func CanTransitionQuote(from, to domain.QuoteStatus) error {
	if quoteTransitions[from][to] {
		return nil
	}
	return detailed(ErrInvalidStatusTransition,
		fmt.Sprintf("Invalid status transition: %s -> %s", from, to))
}

func ValidQuoteStatus(s domain.QuoteStatus) bool {
	_, ok := quoteTransitions[s]
	return ok
}

type EditMode int

const (
	// EditInPlace rewrites the current version.
	EditInPlace EditMode = iota
	// EditFork appends a new Draft version and leaves the sent one untouched.
	EditFork
	EditLocked
)

func QuoteEditMode(status domain.QuoteStatus) EditMode {
	switch status {
	case domain.QuoteDraft:
		return EditInPlace
	case domain.QuoteSent:
		return EditFork
	default:
		return EditLocked
	}
}
