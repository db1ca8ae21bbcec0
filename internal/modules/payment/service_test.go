package payment

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"conveycrm/internal/domain"
	"conveycrm/internal/mailer"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/pkg/pagination"
	"conveycrm/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memInvoices struct {
	rows        map[string]domain.Invoice
	updateCalls int
}

func (m *memInvoices) Create(_ context.Context, inv *domain.Invoice) error {
	if _, ok := m.rows[inv.ID]; ok {
		return repository.ErrDuplicate
	}
	m.rows[inv.ID] = *inv
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id string) (*domain.Invoice, error) {
	inv, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &inv, nil
}

func (m *memInvoices) List(_ context.Context, q repository.InvoiceQuery) ([]domain.Invoice, error) {
	var out []domain.Invoice
	for _, inv := range m.rows {
		if q.LeadID != "" && inv.LeadID != q.LeadID {
			continue
		}
		if len(q.Statuses) > 0 && !containsStatus(q.Statuses, inv.Status) {
			continue
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memInvoices) Update(_ context.Context, inv *domain.Invoice, expected domain.InvoiceStatus) error {
	m.updateCalls++
	cur, ok := m.rows[inv.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Status != expected {
		return repository.ErrConflict
	}
	m.rows[inv.ID] = *inv
	return nil
}

func (m *memInvoices) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, inv := range m.rows {
		if inv.Status == domain.InvoiceSent && now.After(inv.DueDate) {
			inv.Status = domain.InvoiceOverdue
			m.rows[id] = inv
			n++
		}
	}
	return n, nil
}

func containsStatus(list []domain.InvoiceStatus, s domain.InvoiceStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type stubLeads map[string]domain.Lead

func (s stubLeads) GetByID(_ context.Context, id string) (*domain.Lead, error) {
	l, ok := s[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &l, nil
}

type stubQuotes map[string]domain.Quote

func (s stubQuotes) GetCurrent(_ context.Context, id string) (*domain.Quote, error) {
	q, ok := s[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type countingRecorder struct{ actions []string }

func (r *countingRecorder) Record(_ context.Context, _, action string, _ domain.TargetType, _ string, _ map[string]any) error {
	r.actions = append(r.actions, action)
	return nil
}

type countingEvents struct{ types []string }

func (e *countingEvents) Publish(eventType string, _ any) { e.types = append(e.types, eventType) }

type failingMail struct{}

func (failingMail) Send(context.Context, mailer.Message) error { return errors.New("smtp down") }

type fixture struct {
	svc      *Service
	invoices *memInvoices
	mail     *mailer.DryRun
	recorder *countingRecorder
	events   *countingEvents
	clock    *clock.Fixed
}

var (
	t0    = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	agent = domain.Actor{UserID: "agent-1", Role: domain.RoleAgent}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		invoices: &memInvoices{rows: map[string]domain.Invoice{}},
		mail:     mailer.NewDryRun(zap.NewNop()),
		recorder: &countingRecorder{},
		events:   &countingEvents{},
		clock:    clock.NewFixed(t0),
	}
	leads := stubLeads{
		"lead-1": {ID: "lead-1", Name: "Jane Buyer", Email: "jane@example.com"},
		"lead-2": {ID: "lead-2", Name: "No Mail"},
	}
	quotes := stubQuotes{
		"Q-AAAA0001": {QuoteID: "Q-AAAA0001", LeadID: "lead-1", TotalAmount: decimal.RequireFromString("960")},
	}
	f.svc = NewService(Deps{
		Invoices: f.invoices,
		Leads:    leads,
		Quotes:   quotes,
		Tx:       passthroughTx{},
		Recorder: f.recorder,
		Events:   f.events,
		Mail:     f.mail,
	}, "https://checkout.stripe.com/pay/", f.clock, zap.NewNop())
	return f
}

func (f *fixture) create(t *testing.T, req CreateRequest) *domain.Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), agent, req)
	require.NoError(t, err)
	return inv
}

func errMessage(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "expected *apperr.Error, got %v", err)
	return appErr.Message
}

func TestCreate_AmountFromQuote(t *testing.T) {
	f := newFixture(t)

	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001"})

	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, inv.ID)
	assert.Equal(t, "960.00", inv.Amount.StringFixed(2))
	assert.Equal(t, domain.InvoiceDraft, inv.Status)
	assert.Equal(t, "Jane Buyer", inv.LeadName)
	assert.Equal(t, t0.Add(30*24*time.Hour), inv.DueDate)
	assert.Equal(t, []string{"invoice.created"}, f.recorder.actions)
}

func TestCreate_ExplicitAmountAndDueDate(t *testing.T) {
	f := newFixture(t)
	amount := decimal.RequireFromString("250.5")

	inv := f.create(t, CreateRequest{LeadID: "lead-1", Amount: &amount, DueDate: "2024-04-01"})

	assert.Equal(t, "250.50", inv.Amount.StringFixed(2))
	assert.Equal(t, 2024, inv.DueDate.Year())
	assert.Equal(t, time.April, inv.DueDate.Month())
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	zero := decimal.Zero

	cases := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"unknown lead", CreateRequest{LeadID: "missing", Amount: &zero}, ErrLeadNotFound},
		{"no amount", CreateRequest{LeadID: "lead-1"}, ErrAmountRequired},
		{"zero amount", CreateRequest{LeadID: "lead-1", Amount: &zero}, ErrAmountRequired},
		{"unknown quote", CreateRequest{LeadID: "lead-1", QuoteID: "Q-NOPE"}, ErrQuoteNotFound},
		{"quote of another lead", CreateRequest{LeadID: "lead-2", QuoteID: "Q-AAAA0001"}, ErrQuoteOtherLead},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), agent, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.invoices.rows)
}

func TestCreate_BadDueDate(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), agent, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001", DueDate: "next week"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdate_OnlyDraft(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001"})
	amount := decimal.RequireFromString("1000")

	updated, err := f.svc.Update(context.Background(), agent, inv.ID, UpdateRequest{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", updated.Amount.StringFixed(2))

	_, err = f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Sent"})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), agent, inv.ID, UpdateRequest{Amount: &amount})
	assert.ErrorIs(t, err, ErrNotDraft)
}

func TestTransition_Graph(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001"})

	_, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Paid"})
	require.Error(t, err)
	assert.Equal(t, "Invalid status transition: Draft -> Paid", errMessage(t, err))

	sent, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Sent"})
	require.NoError(t, err)
	require.NotNil(t, sent.SentAt)

	f.clock.Advance(time.Hour)
	paid, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Paid", StripePaymentID: "pi_1"})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)
	assert.Equal(t, "pi_1", paid.StripePaymentID)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, t0.Add(time.Hour), *paid.PaidAt)

	_, err = f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Cancelled"})
	assert.Equal(t, "Invalid status transition: Paid -> Cancelled", errMessage(t, err))

	assert.Equal(t, []string{"invoice.status", "invoice.status"}, f.events.types)
}

func TestTransition_MarkPaidIsIdempotent(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001"})
	_, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Sent"})
	require.NoError(t, err)
	first, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Paid", StripePaymentID: "pi_1"})
	require.NoError(t, err)
	calls := f.invoices.updateCalls

	f.clock.Advance(time.Minute)
	again, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Paid", StripePaymentID: "pi_1"})
	require.NoError(t, err)

	assert.Equal(t, calls, f.invoices.updateCalls)
	assert.Equal(t, *first.PaidAt, *again.PaidAt)

	_, err = f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Paid", StripePaymentID: "pi_2"})
	assert.Error(t, err)
}

func TestTransition_UnknownStatus(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001"})
	_, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Refunded"})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestOverdueIsDerived(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001", DueDate: "2024-03-10"})
	_, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Sent"})
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))

	got, err := f.svc.Get(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceOverdue, got.Status)
	assert.Equal(t, domain.InvoiceSent, f.invoices.rows[inv.ID].Status)

	res, err := f.svc.List(context.Background(), ListParams{Status: domain.InvoiceOverdue, Page: pagination.Normalize(1, 10)})
	require.NoError(t, err)
	require.Len(t, res.Payments, 1)

	res, err = f.svc.List(context.Background(), ListParams{Status: domain.InvoiceSent, Page: pagination.Normalize(1, 10)})
	require.NoError(t, err)
	assert.Empty(t, res.Payments)

	paid, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Paid"})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoicePaid, paid.Status)
}

func TestTransition_ExplicitOverdueOnPastDueInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001", DueDate: "2024-03-10"})
	_, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Sent"})
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC))
	got, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Overdue"})
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceOverdue, got.Status)
	assert.Equal(t, domain.InvoiceOverdue, f.invoices.rows[inv.ID].Status)
	assert.Equal(t, []string{"invoice.status", "invoice.status"}, f.events.types)

	_, err = f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Overdue"})
	require.Error(t, err)
	assert.Equal(t, "Invalid status transition: Overdue -> Overdue", errMessage(t, err))
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001", DueDate: "2024-03-10"})
	_, err := f.svc.Transition(context.Background(), agent, inv.ID, StatusRequest{Status: "Sent"})
	require.NoError(t, err)

	n, err := f.svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Set(time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))
	n, err = f.svc.MarkOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, domain.InvoiceOverdue, f.invoices.rows[inv.ID].Status)
}

func TestSend_DraftBecomesSent(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001"})

	res, err := f.svc.Send(context.Background(), agent, inv.ID, SendRequest{})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_"+inv.ID, res.PaymentLink)
	assert.Equal(t, "Payment link sent to jane@example.com", res.Message)
	assert.Equal(t, domain.InvoiceSent, res.Invoice.Status)
	assert.Equal(t, res.PaymentLink, f.invoices.rows[inv.ID].PaymentLink)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "jane@example.com", sent[0].To)
	assert.Contains(t, sent[0].HTML, res.PaymentLink)

	// a resend keeps the status
	res, err = f.svc.Send(context.Background(), agent, inv.ID, SendRequest{Email: "other@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Payment link sent to other@example.com", res.Message)
	assert.Equal(t, domain.InvoiceSent, f.invoices.rows[inv.ID].Status)
	assert.Len(t, f.events.types, 1)
}

func TestSend_Rejections(t *testing.T) {
	f := newFixture(t)
	amount := decimal.RequireFromString("10")

	noMail := f.create(t, CreateRequest{LeadID: "lead-2", Amount: &amount})
	_, err := f.svc.Send(context.Background(), agent, noMail.ID, SendRequest{})
	assert.ErrorIs(t, err, ErrNoRecipient)

	cancelled := f.create(t, CreateRequest{LeadID: "lead-1", Amount: &amount})
	_, err = f.svc.Transition(context.Background(), agent, cancelled.ID, StatusRequest{Status: "Cancelled"})
	require.NoError(t, err)
	_, err = f.svc.Send(context.Background(), agent, cancelled.ID, SendRequest{})
	assert.ErrorIs(t, err, ErrNotSendable)

	_, err = f.svc.Send(context.Background(), agent, "INV-MISSING", SendRequest{})
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	assert.Empty(t, f.mail.Sent())
}

func TestSend_MailFailureKeepsDraft(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, CreateRequest{LeadID: "lead-1", QuoteID: "Q-AAAA0001"})
	f.svc.mail = failingMail{}

	_, err := f.svc.Send(context.Background(), agent, inv.ID, SendRequest{})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, domain.InvoiceDraft, f.invoices.rows[inv.ID].Status)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	amt := func(s string) *decimal.Decimal { d := decimal.RequireFromString(s); return &d }

	paid := f.create(t, CreateRequest{LeadID: "lead-1", Amount: amt("100")})
	pending := f.create(t, CreateRequest{LeadID: "lead-1", Amount: amt("40")})
	late := f.create(t, CreateRequest{LeadID: "lead-1", Amount: amt("15"), DueDate: "2024-03-05"})
	f.create(t, CreateRequest{LeadID: "lead-1", Amount: amt("999")})

	for _, id := range []string{paid.ID, pending.ID, late.ID} {
		_, err := f.svc.Transition(ctx, agent, id, StatusRequest{Status: "Sent"})
		require.NoError(t, err)
	}
	_, err := f.svc.Transition(ctx, agent, paid.ID, StatusRequest{Status: "Paid"})
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC))
	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, "100.00", st.TotalRevenue.StringFixed(2))
	assert.Equal(t, "100.00", st.PaidThisMonth.StringFixed(2))
	assert.Equal(t, "40.00", st.PendingAmount.StringFixed(2))
	assert.Equal(t, "15.00", st.OverdueAmount.StringFixed(2))
	assert.Equal(t, 4, st.TotalPayments)

	f.clock.Set(time.Date(2024, 4, 2, 9, 0, 0, 0, time.UTC))
	st, err = f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, st.PaidThisMonth.IsZero())
	assert.Equal(t, "100.00", st.TotalRevenue.StringFixed(2))
}
