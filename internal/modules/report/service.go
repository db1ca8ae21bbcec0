package report

import (
	"context"
	"math"
	"sort"
	"time"

	"conveycrm/internal/activity"
	"conveycrm/internal/domain"
	"conveycrm/internal/pkg/apperr"
	"conveycrm/internal/pkg/clock"
	"conveycrm/internal/repository"
	"conveycrm/internal/workflow"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recentActivityLimit = 10

type Service struct {
	leads    LeadLister
	invoices InvoiceLister
	activity ActivityReader
	users    UserLister
	clock    clock.Clock
	log      *zap.Logger
}

func NewService(leads LeadLister, invoices InvoiceLister, act ActivityReader, users UserLister, clk clock.Clock, log *zap.Logger) *Service {
	return &Service{leads: leads, invoices: invoices, activity: act, users: users, clock: clk, log: log}
}

func (s *Service) Overview(ctx context.Context, rng Range) (*Overview, error) {
	leads, invoices, err := s.load(ctx, rng)
	if err != nil {
		return nil, err
	}
	revenue, deals := paidTotals(invoices, s.clock.Now())
	return &Overview{
		TotalLeads:      len(leads),
		ConversionRate:  conversionRate(leads),
		TotalRevenue:    revenue,
		AverageDealSize: average(revenue, deals),
		LeadsBySource:   bySource(leads),
		LeadsByStatus:   byStatus(leads),
	}, nil
}

func (s *Service) Performance(ctx context.Context, rng Range) (*Performance, error) {
	leads, invoices, err := s.load(ctx, rng)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}

	now := s.clock.Now()
	owner := make(map[string]string, len(leads))
	agents := map[string]*AgentPerformance{}
	agent := func(id string) *AgentPerformance {
		a, ok := agents[id]
		if !ok {
			a = &AgentPerformance{AgentID: id, Name: names[id], Revenue: decimal.Zero}
			if a.Name == "" {
				a.Name = id
			}
			agents[id] = a
		}
		return a
	}

	months := map[string]*MonthlyTrend{}
	month := func(t time.Time) *MonthlyTrend {
		key := t.Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthlyTrend{Month: key, Revenue: decimal.Zero}
			months[key] = m
		}
		return m
	}

	for _, l := range leads {
		month(l.CreatedAt).Leads++
		if l.AssignedTo == "" {
			continue
		}
		owner[l.ID] = l.AssignedTo
		a := agent(l.AssignedTo)
		a.Leads++
		if l.Status == domain.LeadSold {
			a.Conversions++
		}
	}
	for _, inv := range invoices {
		if workflow.EffectiveInvoiceStatus(inv, now) != domain.InvoicePaid {
			continue
		}
		m := month(paidAt(inv))
		m.Revenue = m.Revenue.Add(inv.Amount)
		if id, ok := owner[inv.LeadID]; ok {
			a := agent(id)
			a.Revenue = a.Revenue.Add(inv.Amount)
		}
	}

	out := &Performance{
		TopAgents:     make([]AgentPerformance, 0, len(agents)),
		MonthlyTrends: make([]MonthlyTrend, 0, len(months)),
	}
	for _, a := range agents {
		out.TopAgents = append(out.TopAgents, *a)
	}
	sort.Slice(out.TopAgents, func(i, j int) bool {
		a, b := out.TopAgents[i], out.TopAgents[j]
		if c := a.Revenue.Cmp(b.Revenue); c != 0 {
			return c > 0
		}
		if a.Conversions != b.Conversions {
			return a.Conversions > b.Conversions
		}
		if a.Leads != b.Leads {
			return a.Leads > b.Leads
		}
		return a.AgentID < b.AgentID
	})
	for _, m := range months {
		out.MonthlyTrends = append(out.MonthlyTrends, *m)
	}
	sort.Slice(out.MonthlyTrends, func(i, j int) bool { return out.MonthlyTrends[i].Month < out.MonthlyTrends[j].Month })
	return out, nil
}

// Leads analyses the filtered leads. Time to contact is measured to the first
// logged attempt; time to convert to the first paid invoice.
func (s *Service) Leads(ctx context.Context, f LeadFilter) (*LeadAnalysis, error) {
	all, invoices, err := s.load(ctx, f.Range)
	if err != nil {
		return nil, err
	}
	leads := make([]domain.Lead, 0, len(all))
	for _, l := range all {
		if f.Source != "" && l.Source != f.Source {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		leads = append(leads, l)
	}

	attempts, err := s.activity.ListByAction(ctx, activity.ActionAttemptLogged, f.Range.From, nil)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	firstContact := map[string]time.Time{}
	for _, a := range attempts {
		if _, seen := firstContact[a.TargetID]; !seen {
			firstContact[a.TargetID] = a.Timestamp
		}
	}
	now := s.clock.Now()
	firstPaid := map[string]time.Time{}
	for _, inv := range invoices {
		if workflow.EffectiveInvoiceStatus(inv, now) != domain.InvoicePaid {
			continue
		}
		at := paidAt(inv)
		if cur, ok := firstPaid[inv.LeadID]; !ok || at.Before(cur) {
			firstPaid[inv.LeadID] = at
		}
	}

	out := &LeadAnalysis{
		TotalLeads:     len(leads),
		ConversionRate: conversionRate(leads),
		LeadsBySource:  bySource(leads),
		LeadsByStatus:  byStatus(leads),
	}
	var contactHours, convertDays []float64
	daily := map[string]int{}
	for _, l := range leads {
		switch l.Status {
		case domain.LeadNew:
			out.NewLeads++
		case domain.LeadContacted:
			out.ContactedLeads++
		case domain.LeadInterested:
			out.InterestedLeads++
		case domain.LeadSold:
			out.ConvertedLeads++
		}
		daily[l.CreatedAt.Format(time.DateOnly)]++
		if at, ok := firstContact[l.ID]; ok && !at.Before(l.CreatedAt) {
			contactHours = append(contactHours, at.Sub(l.CreatedAt).Hours())
		}
		if at, ok := firstPaid[l.ID]; ok && !at.Before(l.CreatedAt) {
			convertDays = append(convertDays, at.Sub(l.CreatedAt).Hours()/24)
		}
	}
	out.AverageTimeToContact = round1(mean(contactHours))
	out.AverageTimeToConvert = round1(mean(convertDays))

	out.DailyLeads = make([]DailyCount, 0, len(daily))
	for day, n := range daily {
		out.DailyLeads = append(out.DailyLeads, DailyCount{Date: day, Count: n})
	}
	sort.Slice(out.DailyLeads, func(i, j int) bool { return out.DailyLeads[i].Date < out.DailyLeads[j].Date })
	return out, nil
}

func (s *Service) Revenue(ctx context.Context, rng Range) (*Revenue, error) {
	leads, invoices, err := s.load(ctx, rng)
	if err != nil {
		return nil, err
	}
	sourceOf := make(map[string]domain.LeadSource, len(leads))
	for _, l := range leads {
		sourceOf[l.ID] = l.Source
	}

	now := s.clock.Now()
	out := &Revenue{
		TotalRevenue: decimal.Zero,
		PaymentStatus: PaymentTotals{
			Paid:    decimal.Zero,
			Pending: decimal.Zero,
			Overdue: decimal.Zero,
		},
	}
	months := map[string]*MonthlyRevenue{}
	sources := map[domain.LeadSource]decimal.Decimal{}
	deals := 0
	for _, inv := range invoices {
		switch workflow.EffectiveInvoiceStatus(inv, now) {
		case domain.InvoicePaid:
			deals++
			out.TotalRevenue = out.TotalRevenue.Add(inv.Amount)
			out.PaymentStatus.Paid = out.PaymentStatus.Paid.Add(inv.Amount)
			key := paidAt(inv).Format("2006-01")
			m, ok := months[key]
			if !ok {
				m = &MonthlyRevenue{Month: key, Revenue: decimal.Zero}
				months[key] = m
			}
			m.Revenue = m.Revenue.Add(inv.Amount)
			m.Deals++
			if src, ok := sourceOf[inv.LeadID]; ok {
				sources[src] = sources[src].Add(inv.Amount)
			}
		case domain.InvoiceSent:
			out.PaymentStatus.Pending = out.PaymentStatus.Pending.Add(inv.Amount)
		case domain.InvoiceOverdue:
			out.PaymentStatus.Overdue = out.PaymentStatus.Overdue.Add(inv.Amount)
		}
	}
	out.AverageDealSize = average(out.TotalRevenue, deals)

	out.MonthlyRevenue = make([]MonthlyRevenue, 0, len(months))
	for _, m := range months {
		out.MonthlyRevenue = append(out.MonthlyRevenue, *m)
	}
	sort.Slice(out.MonthlyRevenue, func(i, j int) bool { return out.MonthlyRevenue[i].Month < out.MonthlyRevenue[j].Month })

	out.RevenueBySource = make([]SourceRevenue, 0, len(domain.LeadSources))
	for _, src := range domain.LeadSources {
		amount, ok := sources[src]
		if !ok {
			amount = decimal.Zero
		}
		pct := 0.0
		if out.TotalRevenue.IsPositive() {
			pct, _ = amount.Div(out.TotalRevenue).Mul(decimal.NewFromInt(100)).Round(1).Float64()
		}
		out.RevenueBySource = append(out.RevenueBySource, SourceRevenue{Source: src, Revenue: amount, Percentage: pct})
	}
	return out, nil
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	leads, invoices, err := s.load(ctx, Range{})
	if err != nil {
		return nil, err
	}
	recent, err := s.activity.Recent(ctx, recentActivityLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	sales, _ := paidTotals(invoices, s.clock.Now())

	out := &Dashboard{
		TotalLeads:     len(leads),
		ConversionRate: conversionRate(leads),
		TotalSales:     sales,
		RecentActivity: recent,
	}
	for _, l := range leads {
		switch {
		case l.Status == domain.LeadNew:
			out.NewLeads++
		case l.Status == domain.LeadClosed || l.Status == domain.LeadArchived:
			out.ClosedLeads++
		case l.Status.Open():
			out.ActiveLeads++
		}
		if l.AssignedTo != "" {
			out.AssignedLeads++
		} else {
			out.UnassignedLeads++
		}
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, rng Range) ([]domain.Lead, []domain.Invoice, error) {
	allLeads, err := s.leads.List(ctx, repository.LeadQuery{})
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	allInvoices, err := s.invoices.List(ctx, repository.InvoiceQuery{})
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}

	leads := allLeads[:0:0]
	for _, l := range allLeads {
		if rng.contains(l.CreatedAt) {
			leads = append(leads, l)
		}
	}
	invoices := allInvoices[:0:0]
	for _, inv := range allInvoices {
		if rng.contains(inv.IssuedAt) {
			invoices = append(invoices, inv)
		}
	}
	return leads, invoices, nil
}

func paidTotals(invoices []domain.Invoice, now time.Time) (decimal.Decimal, int) {
	total := decimal.Zero
	n := 0
	for _, inv := range invoices {
		if workflow.EffectiveInvoiceStatus(inv, now) == domain.InvoicePaid {
			total = total.Add(inv.Amount)
			n++
		}
	}
	return total, n
}

func paidAt(inv domain.Invoice) time.Time {
	if inv.PaidAt != nil {
		return *inv.PaidAt
	}
	return inv.IssuedAt
}

func bySource(leads []domain.Lead) []SourceCount {
	counts := map[domain.LeadSource]int{}
	for _, l := range leads {
		counts[l.Source]++
	}
	out := make([]SourceCount, 0, len(domain.LeadSources))
	for _, src := range domain.LeadSources {
		out = append(out, SourceCount{Source: src, Count: counts[src], Percentage: percent(counts[src], len(leads))})
	}
	return out
}

func byStatus(leads []domain.Lead) []StatusCount {
	counts := map[domain.LeadStatus]int{}
	for _, l := range leads {
		counts[l.Status]++
	}
	out := make([]StatusCount, 0, len(domain.LeadStatuses))
	for _, st := range domain.LeadStatuses {
		out = append(out, StatusCount{Status: st, Count: counts[st], Percentage: percent(counts[st], len(leads))})
	}
	return out
}

// conversionRate is Sold over all leads, as a percentage.
func conversionRate(leads []domain.Lead) float64 {
	sold := 0
	for _, l := range leads {
		if l.Status == domain.LeadSold {
			sold++
		}
	}
	return percent(sold, len(leads))
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) * 100 / float64(total))
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n))).Round(2)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
