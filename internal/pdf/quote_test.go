package pdf

import (
	"bytes"
	"testing"
	"time"

	"conveycrm/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteRenderer_Render(t *testing.T) {
	sent := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	q := domain.Quote{
		QuoteID:   "Q-ABCD1234",
		Version:   2,
		LeadName:  "Jane Smith",
		LeadEmail: "jane@example.com",
		Details:   "Freehold purchase, 12 Acacia Avenue",
		Status:    domain.QuoteSent,
		Items: []domain.QuoteLineItem{
			{Description: "Legal fee", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(850), Total: decimal.NewFromInt(850), Category: domain.LineLegalFees},
			{Description: "Land Registry search with a description long enough to be cut short", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("3.50"), Total: decimal.NewFromInt(7), Category: domain.LineDisbursements},
		},
		NetAmount:   decimal.NewFromInt(857),
		VATAmount:   decimal.RequireFromString("171.40"),
		TotalAmount: decimal.RequireFromString("1028.40"),
		CreatedAt:   sent.Add(-time.Hour),
		SentAt:      &sent,
	}

	out, err := NewQuoteRenderer("").Render(q)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
