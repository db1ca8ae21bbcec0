package repository

import (
	"context"
	"time"

	"conveycrm/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

type lineItemRecord struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Category    string          `json:"category"`
	Total       decimal.Decimal `json:"total"`
}

type quoteModel struct {
	RowID             string                              `gorm:"column:row_id;primaryKey;size:36"`
	QuoteID           string                              `gorm:"column:quote_id;not null;uniqueIndex:idx_quote_version"`
	Version           int                                 `gorm:"column:version;not null;uniqueIndex:idx_quote_version"`
	Current           bool                                `gorm:"column:current;index"`
	PreviousVersionID *string                             `gorm:"column:previous_version_id"`
	LeadID            string                              `gorm:"column:lead_id;index"`
	LeadName          string                              `gorm:"column:lead_name"`
	LeadEmail         string                              `gorm:"column:lead_email"`
	Details           string                              `gorm:"column:details"`
	Items             datatypes.JSONSlice[lineItemRecord] `gorm:"column:items"`
	NetAmount         decimal.Decimal                     `gorm:"column:net_amount;type:numeric(14,2)"`
	VATAmount         decimal.Decimal                     `gorm:"column:vat_amount;type:numeric(14,2)"`
	TotalAmount       decimal.Decimal                     `gorm:"column:total_amount;type:numeric(14,2)"`
	Status            string                              `gorm:"column:status;index"`
	CreatedBy         string                              `gorm:"column:created_by"`
	CreatedAt         time.Time                           `gorm:"column:created_at"`
	LastEditedAt      time.Time                           `gorm:"column:last_edited_at"`
	SentAt            *time.Time                          `gorm:"column:sent_at"`
	DecidedAt         *time.Time                          `gorm:"column:decided_at"`
}

func (quoteModel) TableName() string { return "quote_versions" }

func toDomainQuote(m quoteModel) domain.Quote {
	items := make([]domain.QuoteLineItem, 0, len(m.Items))
	for _, it := range m.Items {
		items = append(items, domain.QuoteLineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Category:    domain.LineCategory(it.Category),
			Total:       it.Total,
		})
	}
	return domain.Quote{
		RowID:             m.RowID,
		QuoteID:           m.QuoteID,
		Version:           m.Version,
		Current:           m.Current,
		PreviousVersionID: deref(m.PreviousVersionID),
		LeadID:            m.LeadID,
		LeadName:          m.LeadName,
		LeadEmail:         m.LeadEmail,
		Details:           m.Details,
		Items:             items,
		NetAmount:         m.NetAmount,
		VATAmount:         m.VATAmount,
		TotalAmount:       m.TotalAmount,
		Status:            domain.QuoteStatus(m.Status),
		CreatedBy:         m.CreatedBy,
		CreatedAt:         m.CreatedAt,
		LastEditedAt:      m.LastEditedAt,
		SentAt:            m.SentAt,
		DecidedAt:         m.DecidedAt,
	}
}

func toQuoteModel(q *domain.Quote) quoteModel {
	items := make(datatypes.JSONSlice[lineItemRecord], 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, lineItemRecord{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Category:    string(it.Category),
			Total:       it.Total,
		})
	}
	return quoteModel{
		RowID:             q.RowID,
		QuoteID:           q.QuoteID,
		Version:           q.Version,
		Current:           q.Current,
		PreviousVersionID: ptr(q.PreviousVersionID),
		LeadID:            q.LeadID,
		LeadName:          q.LeadName,
		LeadEmail:         normalizeEmail(q.LeadEmail),
		Details:           q.Details,
		Items:             items,
		NetAmount:         q.NetAmount,
		VATAmount:         q.VATAmount,
		TotalAmount:       q.TotalAmount,
		Status:            string(q.Status),
		CreatedBy:         q.CreatedBy,
		CreatedAt:         q.CreatedAt,
		LastEditedAt:      q.LastEditedAt,
		SentAt:            q.SentAt,
		DecidedAt:         q.DecidedAt,
	}
}

type QuoteQuery struct {
	LeadID string
	Status domain.QuoteStatus
}

// CreateVersion inserts one version row. The (quote_id, version) pair is unique.
func (r *QuoteRepository) CreateVersion(ctx context.Context, q *domain.Quote) error {
	m := toQuoteModel(q)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *QuoteRepository) GetCurrent(ctx context.Context, quoteID string) (*domain.Quote, error) {
	var m quoteModel
	err := conn(ctx, r.db).Where("quote_id = ? AND current = ?", quoteID, true).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	q := toDomainQuote(m)
	return &q, nil
}

func (r *QuoteRepository) GetVersion(ctx context.Context, quoteID string, version int) (*domain.Quote, error) {
	var m quoteModel
	err := conn(ctx, r.db).Where("quote_id = ? AND version = ?", quoteID, version).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	q := toDomainQuote(m)
	return &q, nil
}

func (r *QuoteRepository) ListVersions(ctx context.Context, quoteID string) ([]domain.Quote, error) {
	var rows []quoteModel
	err := conn(ctx, r.db).Where("quote_id = ?", quoteID).Order("version ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toDomainQuotes(rows), nil
}

// ListCurrent returns the newest version of every quote, oldest quote first.
func (r *QuoteRepository) ListCurrent(ctx context.Context, q QuoteQuery) ([]domain.Quote, error) {
	tx := conn(ctx, r.db).Where("current = ?", true)
	if q.LeadID != "" {
		tx = tx.Where("lead_id = ?", q.LeadID)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}
	var rows []quoteModel
	if err := tx.Order("created_at ASC, quote_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDomainQuotes(rows), nil
}

// UpdateCurrent rewrites the current row in place, guarded by the status it was read in.
func (r *QuoteRepository) UpdateCurrent(ctx context.Context, q *domain.Quote, expected domain.QuoteStatus) error {
	m := toQuoteModel(q)
	res := conn(ctx, r.db).Model(&quoteModel{}).
		Where("row_id = ? AND current = ? AND status = ?", q.RowID, true, string(expected)).
		Updates(map[string]any{
			"lead_name":      m.LeadName,
			"lead_email":     m.LeadEmail,
			"details":        m.Details,
			"items":          m.Items,
			"net_amount":     m.NetAmount,
			"vat_amount":     m.VATAmount,
			"total_amount":   m.TotalAmount,
			"status":         m.Status,
			"last_edited_at": m.LastEditedAt,
			"sent_at":        m.SentAt,
			"decided_at":     m.DecidedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Retire marks a version as no longer current. Must run in the same
// transaction as the insert of its successor.
func (r *QuoteRepository) Retire(ctx context.Context, rowID string, expected domain.QuoteStatus) error {
	res := conn(ctx, r.db).Model(&quoteModel{}).
		Where("row_id = ? AND current = ? AND status = ?", rowID, true, string(expected)).
		Update("current", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func toDomainQuotes(rows []quoteModel) []domain.Quote {
	out := make([]domain.Quote, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainQuote(m))
	}
	return out
}
