package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conveycrm/internal/activity"
	"conveycrm/internal/domain"
	"conveycrm/internal/mailer"
	"conveycrm/internal/metrics"
	"conveycrm/internal/modules/realtime"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/pkg/dates"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/repository"
	"conveycrm/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	invoices     invoiceRepo
	leads        leadReader
	quotes       quoteReader
	tx           txManager
	recorder     activityRecorder
	events       eventPublisher
	mail         mailSender
	checkoutBase string
	clock        clock.Clock
	log          *zap.Logger
}

type Deps struct {
	Invoices invoiceRepo
	Leads    leadReader
	Quotes   quoteReader
	Tx       txManager
	Recorder activityRecorder
	Events   eventPublisher
	Mail     mailSender
}

func NewService(d Deps, checkoutBase string, clk clock.Clock, log *zap.Logger) *Service {
	events := d.Events
	if events == nil {
		events = realtime.Nop{}
	}
	return &Service{
		invoices:     d.Invoices,
		leads:        d.Leads,
		quotes:       d.Quotes,
		tx:           d.Tx,
		recorder:     d.Recorder,
		events:       events,
		mail:         d.Mail,
		checkoutBase: strings.TrimRight(checkoutBase, "/"),
		clock:        clk,
		log:          log,
	}
}

// List reports Sent invoices past their due date as Overdue, and filters on that view.
func (s *Service) List(ctx context.Context, p ListParams) (*ListResult, error) {
	q := repository.InvoiceQuery{LeadID: p.LeadID}
	switch p.Status {
	case "":
	case domain.InvoiceSent, domain.InvoiceOverdue:
		q.Statuses = []domain.InvoiceStatus{domain.InvoiceSent, domain.InvoiceOverdue}
	default:
		if !workflow.ValidInvoiceStatus(p.Status) {
			return nil, ErrUnknownStatus
		}
		q.Statuses = []domain.InvoiceStatus{p.Status}
	}

	rows, err := s.invoices.List(ctx, q)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := s.clock.Now()
	out := make([]domain.Invoice, 0, len(rows))
	for _, inv := range rows {
		inv.Status = workflow.EffectiveInvoiceStatus(inv, now)
		if p.Status == "" || inv.Status == p.Status {
			out = append(out, inv)
		}
	}
	page, meta := pagination.Slice(out, p.Page)
	return &ListResult{Payments: page, Pagination: meta}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = workflow.EffectiveInvoiceStatus(*inv, s.clock.Now())
	return inv, nil
}

func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateRequest) (*domain.Invoice, error) {
	due, err := dates.Parse(req.DueDate)
	if err != nil {
		return nil, apperr.Validation("dueDate: " + err.Error())
	}

	var created domain.Invoice
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		lead, err := s.leads.GetByID(ctx, req.LeadID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrLeadNotFound
		}
		if err != nil {
			return err
		}

		amount := decimal.Zero
		if req.QuoteID != "" {
			q, err := s.quotes.GetCurrent(ctx, req.QuoteID)
			if errors.Is(err, repository.ErrNotFound) {
				return ErrQuoteNotFound
			}
			if err != nil {
				return err
			}
			if q.LeadID != lead.ID {
				return ErrQuoteOtherLead
			}
			amount = q.TotalAmount
		}
		if req.Amount != nil {
			amount = *req.Amount
		}
		if !amount.IsPositive() {
			return ErrAmountRequired
		}

		now := s.clock.Now()
		inv := domain.Invoice{
			ID:        newInvoiceID(),
			LeadID:    lead.ID,
			LeadName:  lead.Name,
			LeadEmail: lead.Email,
			QuoteID:   req.QuoteID,
			Amount:    amount.Round(2),
			Status:    domain.InvoiceDraft,
			IssuedAt:  now,
			DueDate:   now.Add(workflow.DefaultPaymentTerm),
			UpdatedAt: now,
		}
		if due != nil {
			inv.DueDate = *due
		}
		if err := s.invoices.Create(ctx, &inv); err != nil {
			return err
		}
		created = inv
		return s.recorder.Record(ctx, actor.UserID, activity.ActionInvoiceCreated, domain.TargetInvoice, inv.ID,
			map[string]any{"leadId": lead.ID, "amount": inv.Amount.StringFixed(2)})
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &created, nil
}

func (s *Service) Update(ctx context.Context, actor domain.Actor, id string, req UpdateRequest) (*domain.Invoice, error) {
	var updated domain.Invoice
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if inv.Status != domain.InvoiceDraft {
			return ErrNotDraft
		}
		if req.Amount != nil {
			if !req.Amount.IsPositive() {
				return ErrAmountRequired
			}
			inv.Amount = req.Amount.Round(2)
		}
		if req.DueDate != nil {
			due, err := dates.Parse(*req.DueDate)
			if err != nil || due == nil {
				return apperr.Validation("dueDate must be a date")
			}
			inv.DueDate = *due
		}
		inv.UpdatedAt = s.clock.Now()
		if err := s.save(ctx, inv, domain.InvoiceDraft); err != nil {
			return err
		}
		updated = *inv
		return s.recorder.Record(ctx, actor.UserID, activity.ActionInvoiceUpdated, domain.TargetInvoice, id,
			map[string]any{"amount": inv.Amount.StringFixed(2), "dueDate": inv.DueDate})
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &updated, nil
}

// Transition moves an invoice along its status graph. Marking an already paid
// invoice as paid again with the same payment id is a no-op, so a repeated
// confirmation is harmless.
func (s *Service) Transition(ctx context.Context, actor domain.Actor, id string, req StatusRequest) (*domain.Invoice, error) {
	to := domain.InvoiceStatus(req.Status)
	if !workflow.ValidInvoiceStatus(to) {
		return nil, ErrUnknownStatus
	}

	var result domain.Invoice
	changed := true
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		stored := inv.Status
		if stored == domain.InvoicePaid && to == domain.InvoicePaid && inv.StripePaymentID == req.StripePaymentID {
			changed = false
			result = *inv
			return nil
		}

		now := s.clock.Now()
		from := workflow.EffectiveInvoiceStatus(*inv, now)
		if to == from && from != stored {
			// asking for the status the due date already implies just writes it down
			from = stored
		} else if err := workflow.CanTransitionInvoice(from, to); err != nil {
			return err
		}

		inv.Status = to
		inv.UpdatedAt = now
		switch to {
		case domain.InvoiceSent:
			inv.SentAt = &now
		case domain.InvoicePaid:
			inv.PaidAt = &now
			if req.StripePaymentID != "" {
				inv.StripePaymentID = req.StripePaymentID
			}
		}
		if err := s.save(ctx, inv, stored); err != nil {
			return err
		}
		result = *inv
		return s.recorder.Record(ctx, actor.UserID, activity.ActionInvoiceStatus, domain.TargetInvoice, id,
			map[string]any{"from": string(from), "to": string(to)})
	})
	if err != nil {
		return nil, wrap(err)
	}

	if !changed {
		s.log.Info("payment already marked paid", zap.String("invoice_id", id))
		return &result, nil
	}
	metrics.RecordInvoiceTransition(string(to))
	s.events.Publish(realtime.EventInvoiceStatus, result)
	return &result, nil
}

// Send emails the checkout link and moves a Draft to Sent. Sent and overdue
// invoices can be sent again; their status is left alone.
func (s *Service) Send(ctx context.Context, actor domain.Actor, id string, req SendRequest) (*SendResponse, error) {
	inv, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	stored := inv.Status
	if stored != domain.InvoiceDraft && stored != domain.InvoiceSent && stored != domain.InvoiceOverdue {
		return nil, ErrNotSendable
	}
	to := strings.TrimSpace(req.Email)
	if to == "" {
		to = inv.LeadEmail
	}
	if to == "" {
		return nil, ErrNoRecipient
	}

	link := s.PaymentLink(inv.ID)
	msg := mailer.PaymentLink(to, inv.LeadName, inv.ID, inv.Amount.StringFixed(2), link)
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("payment link email failed", zap.String("invoice_id", id), zap.Error(err))
		return nil, apperr.Internal(err)
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		now := s.clock.Now()
		inv.PaymentLink = link
		inv.UpdatedAt = now
		if stored == domain.InvoiceDraft {
			inv.Status = domain.InvoiceSent
			inv.SentAt = &now
		}
		if err := s.save(ctx, inv, stored); err != nil {
			return err
		}
		return s.recorder.Record(ctx, actor.UserID, activity.ActionInvoiceSent, domain.TargetInvoice, id,
			map[string]any{"to": to, "paymentLink": link})
	})
	if err != nil {
		return nil, wrap(err)
	}

	if stored == domain.InvoiceDraft {
		metrics.RecordInvoiceTransition(string(domain.InvoiceSent))
		s.events.Publish(realtime.EventInvoiceStatus, *inv)
	}
	inv.Status = workflow.EffectiveInvoiceStatus(*inv, s.clock.Now())
	return &SendResponse{
		PaymentLink: link,
		Message:     fmt.Sprintf("Payment link sent to %s", to),
		Invoice:     inv,
	}, nil
}

func (s *Service) PaymentLink(invoiceID string) string {
	return s.checkoutBase + "/cs_test_" + invoiceID
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	rows, err := s.invoices.List(ctx, repository.InvoiceQuery{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	now := s.clock.Now()
	monthStart := workflow.StartOfMonth(now)

	st := &Stats{
		TotalRevenue:  decimal.Zero,
		PendingAmount: decimal.Zero,
		OverdueAmount: decimal.Zero,
		PaidThisMonth: decimal.Zero,
		TotalPayments: len(rows),
	}
	for _, inv := range rows {
		switch workflow.EffectiveInvoiceStatus(inv, now) {
		case domain.InvoicePaid:
			st.TotalRevenue = st.TotalRevenue.Add(inv.Amount)
			if inv.PaidAt != nil && !inv.PaidAt.Before(monthStart) {
				st.PaidThisMonth = st.PaidThisMonth.Add(inv.Amount)
			}
		case domain.InvoiceSent:
			st.PendingAmount = st.PendingAmount.Add(inv.Amount)
		case domain.InvoiceOverdue:
			st.OverdueAmount = st.OverdueAmount.Add(inv.Amount)
		}
	}
	return st, nil
}

// MarkOverdue persists the derived Overdue status. Used by the admin CLI.
func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	n, err := s.invoices.MarkOverdue(ctx, s.clock.Now())
	if err != nil {
		return 0, apperr.Internal(err)
	}
	if n > 0 {
		s.log.Info("invoices marked overdue", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) load(ctx context.Context, id string) (*domain.Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return inv, nil
}

func (s *Service) save(ctx context.Context, inv *domain.Invoice, expected domain.InvoiceStatus) error {
	err := s.invoices.Update(ctx, inv, expected)
	switch {
	case errors.Is(err, repository.ErrConflict):
		return workflow.ErrStaleUpdate
	case errors.Is(err, repository.ErrNotFound):
		return ErrInvoiceNotFound
	}
	return err
}

func newInvoiceID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "INV-" + strings.ToUpper(raw[:8])
}

func wrap(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}
