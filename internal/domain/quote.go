package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "Draft"
	QuoteSent     QuoteStatus = "Sent"
	QuoteAccepted QuoteStatus = "Accepted"
	QuoteRejected QuoteStatus = "Rejected"
	QuoteExpired  QuoteStatus = "Expired"
)

type LineCategory string

const (
	LineLegalFees     LineCategory = "Legal Fees"
	LineDisbursements LineCategory = "Disbursements"
	LineVAT           LineCategory = "VAT"
	LineOther         LineCategory = "Other"
)

type QuoteLineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Category    LineCategory    `json:"category"`
	Total       decimal.Decimal `json:"total"`
}

// Quote is one version of a quote. All versions share QuoteID; only the newest is Current.
type Quote struct {
	RowID             string          `json:"rowId"`
	QuoteID           string          `json:"id"`
	Version           int             `json:"version"`
	Current           bool            `json:"current"`
	PreviousVersionID string          `json:"previousVersionId,omitempty"`
	LeadID            string          `json:"leadId"`
	LeadName          string          `json:"leadName"`
	LeadEmail         string          `json:"leadEmail"`
	Details           string          `json:"details,omitempty"`
	Items             []QuoteLineItem `json:"items"`
	NetAmount         decimal.Decimal `json:"netAmount"`
	VATAmount         decimal.Decimal `json:"vatAmount"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	Status            QuoteStatus     `json:"status"`
	CreatedBy         string          `json:"createdBy,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	LastEditedAt      time.Time       `json:"lastEditedAt"`
	SentAt            *time.Time      `json:"sentAt,omitempty"`
	DecidedAt         *time.Time      `json:"decidedAt,omitempty"`
}
