package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

const (
	TypeOverview    = "overview"
	TypePerformance = "performance"
	TypeLeads       = "leads"
	TypeRevenue     = "revenue"
)

// CSVExport is a rendered report ready to be served as an attachment.
type CSVExport struct {
	Filename string
	Body     []byte
}

// ExportCSV renders one report as a CSV document: a header block followed by
// one section per table in the report.
func (s *Service) ExportCSV(ctx context.Context, reportType string, rng Range, rawRange string) (*CSVExport, error) {
	if reportType == "" {
		reportType = TypeOverview
	}
	now := s.clock.Now()

	var rows [][]string
	switch reportType {
	case TypeOverview:
		o, err := s.Overview(ctx, rng)
		if err != nil {
			return nil, err
		}
		rows = overviewRows(o)
	case TypePerformance:
		p, err := s.Performance(ctx, rng)
		if err != nil {
			return nil, err
		}
		rows = performanceRows(p)
	case TypeLeads:
		l, err := s.Leads(ctx, LeadFilter{Range: rng})
		if err != nil {
			return nil, err
		}
		rows = leadRows(l)
	case TypeRevenue:
		r, err := s.Revenue(ctx, rng)
		if err != nil {
			return nil, err
		}
		rows = revenueRows(r)
	default:
		return nil, ErrUnknownReport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	head := [][]string{
		{"Report Type", "Date Range", "Generated At"},
		{reportType, rawRange, now.Format(time.RFC3339)},
		{},
	}
	if err := w.WriteAll(append(head, rows...)); err != nil {
		return nil, err
	}
	return &CSVExport{
		Filename: fmt.Sprintf("%s-report-%d.csv", reportType, now.Unix()),
		Body:     buf.Bytes(),
	}, nil
}

func (s *Service) ExportExcel(reportType, rawRange string) ExcelNotice {
	if reportType == "" {
		reportType = TypeOverview
	}
	return ExcelNotice{
		Message:    "Excel export is not available yet; use the CSV export",
		ReportType: reportType,
		DateRange:  rawRange,
	}
}

func overviewRows(o *Overview) [][]string {
	rows := [][]string{
		{"Total Leads", itoa(o.TotalLeads)},
		{"Conversion Rate", pct(o.ConversionRate)},
		{"Total Revenue", o.TotalRevenue.StringFixed(2)},
		{"Average Deal Size", o.AverageDealSize.StringFixed(2)},
		{},
		{"Source", "Count", "Percentage"},
	}
	for _, s := range o.LeadsBySource {
		rows = append(rows, []string{string(s.Source), itoa(s.Count), pct(s.Percentage)})
	}
	rows = append(rows, []string{}, []string{"Status", "Count", "Percentage"})
	for _, s := range o.LeadsByStatus {
		rows = append(rows, []string{string(s.Status), itoa(s.Count), pct(s.Percentage)})
	}
	return rows
}

func performanceRows(p *Performance) [][]string {
	rows := [][]string{{"Agent", "Leads", "Conversions", "Revenue"}}
	for _, a := range p.TopAgents {
		rows = append(rows, []string{a.Name, itoa(a.Leads), itoa(a.Conversions), a.Revenue.StringFixed(2)})
	}
	rows = append(rows, []string{}, []string{"Month", "Leads", "Revenue"})
	for _, m := range p.MonthlyTrends {
		rows = append(rows, []string{m.Month, itoa(m.Leads), m.Revenue.StringFixed(2)})
	}
	return rows
}

func leadRows(l *LeadAnalysis) [][]string {
	rows := [][]string{
		{"Total Leads", itoa(l.TotalLeads)},
		{"New Leads", itoa(l.NewLeads)},
		{"Contacted Leads", itoa(l.ContactedLeads)},
		{"Interested Leads", itoa(l.InterestedLeads)},
		{"Converted Leads", itoa(l.ConvertedLeads)},
		{"Conversion Rate", pct(l.ConversionRate)},
		{"Average Hours To Contact", ftoa(l.AverageTimeToContact)},
		{"Average Days To Convert", ftoa(l.AverageTimeToConvert)},
		{},
		{"Date", "Count"},
	}
	for _, d := range l.DailyLeads {
		rows = append(rows, []string{d.Date, itoa(d.Count)})
	}
	return rows
}

func revenueRows(r *Revenue) [][]string {
	rows := [][]string{
		{"Total Revenue", r.TotalRevenue.StringFixed(2)},
		{"Average Deal Size", r.AverageDealSize.StringFixed(2)},
		{"Paid", r.PaymentStatus.Paid.StringFixed(2)},
		{"Pending", r.PaymentStatus.Pending.StringFixed(2)},
		{"Overdue", r.PaymentStatus.Overdue.StringFixed(2)},
		{},
		{"Month", "Revenue", "Deals"},
	}
	for _, m := range r.MonthlyRevenue {
		rows = append(rows, []string{m.Month, m.Revenue.StringFixed(2), itoa(m.Deals)})
	}
	rows = append(rows, []string{}, []string{"Source", "Revenue", "Percentage"})
	for _, s := range r.RevenueBySource {
		rows = append(rows, []string{string(s.Source), s.Revenue.StringFixed(2), pct(s.Percentage)})
	}
	return rows
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) }

func pct(f float64) string { return ftoa(f) + "%" }
