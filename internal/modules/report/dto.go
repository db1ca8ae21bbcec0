package report

import (
	"time"

	"conveycrm/internal/domain"

	"github.com/shopspring/decimal"
)

// Range bounds lead createdAt and invoice issuedAt. Nil ends are open.
type Range struct {
	From *time.Time
	To   *time.Time
}

func (r Range) contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

type SourceCount struct {
	Source     domain.LeadSource `json:"source"`
	Count      int               `json:"count"`
	Percentage float64           `json:"percentage"`
}

type StatusCount struct {
	Status     domain.LeadStatus `json:"status"`
	Count      int               `json:"count"`
	Percentage float64           `json:"percentage"`
}

type Overview struct {
	TotalLeads      int             `json:"totalLeads"`
	ConversionRate  float64         `json:"conversionRate"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	AverageDealSize decimal.Decimal `json:"averageDealSize"`
	LeadsBySource   []SourceCount   `json:"leadsBySource"`
	LeadsByStatus   []StatusCount   `json:"leadsByStatus"`
}

type AgentPerformance struct {
	AgentID     string          `json:"agentId"`
	Name        string          `json:"name"`
	Leads       int             `json:"leads"`
	Conversions int             `json:"conversions"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type MonthlyTrend struct {
	Month   string          `json:"month"`
	Leads   int             `json:"leads"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Performance struct {
	TopAgents     []AgentPerformance `json:"topAgents"`
	MonthlyTrends []MonthlyTrend     `json:"monthlyTrends"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type LeadAnalysis struct {
	TotalLeads           int           `json:"totalLeads"`
	NewLeads             int           `json:"newLeads"`
	ContactedLeads       int           `json:"contactedLeads"`
	InterestedLeads      int           `json:"interestedLeads"`
	ConvertedLeads       int           `json:"convertedLeads"`
	ConversionRate       float64       `json:"conversionRate"`
	AverageTimeToContact float64       `json:"averageTimeToContact"`
	AverageTimeToConvert float64       `json:"averageTimeToConvert"`
	LeadsBySource        []SourceCount `json:"leadsBySource"`
	LeadsByStatus        []StatusCount `json:"leadsByStatus"`
	DailyLeads           []DailyCount  `json:"dailyLeads"`
}

// LeadFilter narrows the lead analysis beyond the date range.
type LeadFilter struct {
	Range  Range
	Source domain.LeadSource
	Status domain.LeadStatus
}

type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
	Deals   int             `json:"deals"`
}

type SourceRevenue struct {
	Source     domain.LeadSource `json:"source"`
	Revenue    decimal.Decimal   `json:"revenue"`
	Percentage float64           `json:"percentage"`
}

type PaymentTotals struct {
	Paid    decimal.Decimal `json:"paid"`
	Pending decimal.Decimal `json:"pending"`
	Overdue decimal.Decimal `json:"overdue"`
}

type Revenue struct {
	TotalRevenue    decimal.Decimal  `json:"totalRevenue"`
	MonthlyRevenue  []MonthlyRevenue `json:"monthlyRevenue"`
	RevenueBySource []SourceRevenue  `json:"revenueBySource"`
	AverageDealSize decimal.Decimal  `json:"averageDealSize"`
	PaymentStatus   PaymentTotals    `json:"paymentStatus"`
}

type Dashboard struct {
	TotalLeads      int                  `json:"totalLeads"`
	NewLeads        int                  `json:"newLeads"`
	ActiveLeads     int                  `json:"activeLeads"`
	ClosedLeads     int                  `json:"closedLeads"`
	ConversionRate  float64              `json:"conversionRate"`
	TotalSales      decimal.Decimal      `json:"totalSales"`
	AssignedLeads   int                  `json:"assignedLeads"`
	UnassignedLeads int                  `json:"unassignedLeads"`
	RecentActivity  []domain.ActivityLog `json:"recentActivity"`
}

type ExcelNotice struct {
	Message    string `json:"message"`
	ReportType string `json:"reportType"`
	DateRange  string `json:"dateRange"`
}
