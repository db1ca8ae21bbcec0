package repository

import (
	"context"
	"time"

	"conveycrm/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

type invoiceModel struct {
	ID              string          `gorm:"column:id;primaryKey;size:32"`
	LeadID          string          `gorm:"column:lead_id;index"`
	LeadName        string          `gorm:"column:lead_name"`
	LeadEmail       string          `gorm:"column:lead_email"`
	QuoteID         *string         `gorm:"column:quote_id"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(14,2)"`
	Status          string          `gorm:"column:status;index"`
	IssuedAt        time.Time       `gorm:"column:issued_at;index"`
	DueDate         time.Time       `gorm:"column:due_date"`
	SentAt          *time.Time      `gorm:"column:sent_at"`
	PaidAt          *time.Time      `gorm:"column:paid_at"`
	PaymentLink     string          `gorm:"column:payment_link"`
	StripePaymentID *string         `gorm:"column:stripe_payment_id"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (invoiceModel) TableName() string { return "invoices" }

func toDomainInvoice(m invoiceModel) domain.Invoice {
	return domain.Invoice{
		ID:              m.ID,
		LeadID:          m.LeadID,
		LeadName:        m.LeadName,
		LeadEmail:       m.LeadEmail,
		QuoteID:         deref(m.QuoteID),
		Amount:          m.Amount,
		Status:          domain.InvoiceStatus(m.Status),
		IssuedAt:        m.IssuedAt,
		DueDate:         m.DueDate,
		SentAt:          m.SentAt,
		PaidAt:          m.PaidAt,
		PaymentLink:     m.PaymentLink,
		StripePaymentID: deref(m.StripePaymentID),
		UpdatedAt:       m.UpdatedAt,
	}
}

func toInvoiceModel(inv *domain.Invoice) invoiceModel {
	return invoiceModel{
		ID:              inv.ID,
		LeadID:          inv.LeadID,
		LeadName:        inv.LeadName,
		LeadEmail:       normalizeEmail(inv.LeadEmail),
		QuoteID:         ptr(inv.QuoteID),
		Amount:          inv.Amount,
		Status:          string(inv.Status),
		IssuedAt:        inv.IssuedAt,
		DueDate:         inv.DueDate,
		SentAt:          inv.SentAt,
		PaidAt:          inv.PaidAt,
		PaymentLink:     inv.PaymentLink,
		StripePaymentID: ptr(inv.StripePaymentID),
		UpdatedAt:       inv.UpdatedAt,
	}
}

type InvoiceQuery struct {
	LeadID   string
	Statuses []domain.InvoiceStatus
}

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	m := toInvoiceModel(inv)
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	var m invoiceModel
	if err := conn(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate(err)
	}
	inv := toDomainInvoice(m)
	return &inv, nil
}

func (r *InvoiceRepository) List(ctx context.Context, q InvoiceQuery) ([]domain.Invoice, error) {
	tx := conn(ctx, r.db).Model(&invoiceModel{})
	if q.LeadID != "" {
		tx = tx.Where("lead_id = ?", q.LeadID)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			statuses = append(statuses, string(s))
		}
		tx = tx.Where("status IN ?", statuses)
	}
	var rows []invoiceModel
	if err := tx.Order("issued_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0, len(rows))
	for _, m := range rows {
		out = append(out, toDomainInvoice(m))
	}
	return out, nil
}

// Update writes inv if the stored status still equals expected.
func (r *InvoiceRepository) Update(ctx context.Context, inv *domain.Invoice, expected domain.InvoiceStatus) error {
	m := toInvoiceModel(inv)
	res := conn(ctx, r.db).Model(&invoiceModel{}).
		Where("id = ? AND status = ?", inv.ID, string(expected)).
		Updates(map[string]any{
			"amount":            m.Amount,
			"status":            m.Status,
			"due_date":          m.DueDate,
			"sent_at":           m.SentAt,
			"paid_at":           m.PaidAt,
			"payment_link":      m.PaymentLink,
			"stripe_payment_id": m.StripePaymentID,
			"updated_at":        m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, inv.ID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// MarkOverdue persists Overdue for sent invoices whose due date has passed.
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).Model(&invoiceModel{}).
		Where("status = ? AND due_date < ?", string(domain.InvoiceSent), now).
		Updates(map[string]any{"status": string(domain.InvoiceOverdue), "updated_at": now})
	return res.RowsAffected, res.Error
}
