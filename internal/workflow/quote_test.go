package workflow

import (
	"testing"

	"conveycrm/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(qty, price string, cat domain.LineCategory) domain.QuoteLineItem {
	return domain.QuoteLineItem{
		Description: string(cat),
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(price),
		Category:    cat,
	}
}

func TestComputeTotals_SingleItem(t *testing.T) {
	items, totals := ComputeTotals([]domain.QuoteLineItem{item("1", "800", domain.LineLegalFees)})

	assert.True(t, items[0].Total.Equal(decimal.NewFromInt(800)))
	assert.True(t, totals.Net.Equal(decimal.NewFromInt(800)), totals.Net.String())
	assert.True(t, totals.VAT.Equal(decimal.NewFromInt(160)), totals.VAT.String())
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(960)), totals.Total.String())
}

func TestComputeTotals_VATLinesExcludedFromNet(t *testing.T) {
	_, totals := ComputeTotals([]domain.QuoteLineItem{
		item("1", "650", domain.LineLegalFees),
		item("2", "75.50", domain.LineDisbursements),
		item("1", "130", domain.LineVAT),
	})

	assert.Equal(t, "801", totals.Net.String())
	assert.Equal(t, "160.2", totals.VAT.String())
	assert.Equal(t, "961.2", totals.Total.String())
}

func TestComputeTotals_Invariants(t *testing.T) {
	prices := []string{"0.01", "0.05", "1.005", "333.33", "999.99", "12.345", "0"}
	qtys := []string{"1", "2", "3", "0.5", "7"}

	for _, p := range prices {
		for _, q := range qtys {
			_, totals := ComputeTotals([]domain.QuoteLineItem{
				item(q, p, domain.LineOther),
				item("1", p, domain.LineLegalFees),
			})
			assert.True(t, totals.Total.Equal(totals.Net.Add(totals.VAT)))
			assert.True(t, totals.VAT.Equal(totals.Net.Mul(VATRate).Round(2)))
		}
	}
}

func TestCanTransitionQuote(t *testing.T) {
	allowed := [][2]domain.QuoteStatus{
		{domain.QuoteDraft, domain.QuoteSent},
		{domain.QuoteSent, domain.QuoteAccepted},
		{domain.QuoteSent, domain.QuoteRejected},
		{domain.QuoteSent, domain.QuoteExpired},
	}
	for _, tr := range allowed {
		assert.NoError(t, CanTransitionQuote(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	denied := [][2]domain.QuoteStatus{
		{domain.QuoteAccepted, domain.QuoteDraft},
		{domain.QuoteDraft, domain.QuoteAccepted},
		{domain.QuoteSent, domain.QuoteDraft},
		{domain.QuoteRejected, domain.QuoteSent},
		{domain.QuoteExpired, domain.QuoteAccepted},
	}
	for _, tr := range denied {
		assert.ErrorIs(t, CanTransitionQuote(tr[0], tr[1]), ErrInvalidStatusTransition, "%s -> %s", tr[0], tr[1])
	}
}

func TestQuoteEditMode(t *testing.T) {
	assert.Equal(t, EditInPlace, QuoteEditMode(domain.QuoteDraft))
	assert.Equal(t, EditFork, QuoteEditMode(domain.QuoteSent))
	assert.Equal(t, EditLocked, QuoteEditMode(domain.QuoteAccepted))
	assert.Equal(t, EditLocked, QuoteEditMode(domain.QuoteRejected))
	assert.Equal(t, EditLocked, QuoteEditMode(domain.QuoteExpired))
}
