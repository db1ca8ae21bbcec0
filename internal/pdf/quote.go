// Package pdf renders customer-facing documents.
package pdf

import (
	"bytes"
	"fmt"

	"conveycrm/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

const (
	fontName = "Helvetica"
	margin   = 20.0
)

// QuoteRenderer draws a quote version as an A4 document.
type QuoteRenderer struct {
	Company string
}

func NewQuoteRenderer(company string) *QuoteRenderer {
	if company == "" {
		company = "Conveyancing Services"
	}
	return &QuoteRenderer{Company: company}
}

func (r *QuoteRenderer) Render(q domain.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; the translator maps the pound sign and friends.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(fmt.Sprintf("Quote %s v%d", q.QuoteID, q.Version), true)
	pdf.SetAuthor(r.Company, true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 18)
	pdf.CellFormat(0, 10, tr("QUOTE"), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	sub := fmt.Sprintf("%s  version %d  (%s)", q.QuoteID, q.Version, q.Status)
	pdf.CellFormat(0, 7, tr(sub), "", 1, "C", false, 0, "")
	hr(pdf)

	sectionTitle(pdf, "Client")
	kvLine(pdf, tr, "Name", q.LeadName)
	kvLine(pdf, tr, "Email", q.LeadEmail)
	kvLine(pdf, tr, "Issued", q.CreatedAt.Format("02 Jan 2006"))
	if q.SentAt != nil {
		kvLine(pdf, tr, "Sent", q.SentAt.Format("02 Jan 2006"))
	}
	if q.Details != "" {
		pdf.Ln(1)
		pdf.MultiCell(0, 6, tr(q.Details), "", "L", false)
	}
	pdf.Ln(2)
	hr(pdf)

	sectionTitle(pdf, "Breakdown")
	widths := []float64{70, 35, 18, 23, 24}
	header := []string{"Description", "Category", "Qty", "Unit", "Total"}
	pdf.SetFont(fontName, "B", 10)
	for i, h := range header {
		align := "L"
		if i >= 2 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 7, h, "B", 0, align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontName, "", 10)
	for _, item := range q.Items {
		pdf.CellFormat(widths[0], 6, tr(truncate(item.Description, 42)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, tr(string(item.Category)), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, item.Quantity.String(), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 6, tr(pounds(item.UnitPrice.StringFixed(2))), "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, tr(pounds(item.Total.StringFixed(2))), "", 1, "R", false, 0, "")
	}
	pdf.Ln(2)
	hr(pdf)

	totals := [][2]string{
		{"Net", q.NetAmount.StringFixed(2)},
		{"VAT (20%)", q.VATAmount.StringFixed(2)},
		{"Total", q.TotalAmount.StringFixed(2)},
	}
	for i, t := range totals {
		style := ""
		if i == len(totals)-1 {
			style = "B"
		}
		pdf.SetFont(fontName, style, 11)
		pdf.CellFormat(146, 7, t[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(24, 7, tr(pounds(t[1])), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render quote %s: %w", q.QuoteID, err)
	}
	return buf.Bytes(), nil
}

func sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
}

func kvLine(pdf *gofpdf.Fpdf, tr func(string) string, key, val string) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(35, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(fontName, "", 11)
	pdf.CellFormat(0, 6, tr(val), "", 1, "L", false, 0, "")
}

func hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(margin, y, 210-margin, y)
	pdf.SetY(y + 2)
}

func pounds(amount string) string {
	return "£" + amount
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
