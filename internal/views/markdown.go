package views

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"stockflow/internal/core"
)

func SummaryMarkdown(s core.Summary, m Money) string {
	var b strings.Builder
	b.WriteString("# Summary\n\n")
	table(&b, []string{"Metric", "Value"}, [][]string{
		{"Items in stock", fmt.Sprint(s.TotalStock)},
		{"Items sold", fmt.Sprint(s.TotalSold)},
		{"Expense records", fmt.Sprint(s.ExpenseCount)},
		{"Stock value", m.Format(s.StockValue)},
		{"Total profit", m.Signed(s.TotalProfit)},
		{"Misc expenses", m.Format(s.TotalMiscExpense)},
		{"Consumable expenses", m.Format(s.TotalConsumableExpense)},
	})
	return b.String()
}

func CashflowMarkdown(buckets []core.CashflowBucket, g core.Granularity, m Money) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Cashflow by %s\n\n", g)
	if len(buckets) == 0 {
		b.WriteString("_No dated cash movements._\n")
		return b.String()
	}
	rows := make([][]string, len(buckets))
	for i, bk := range buckets {
		rows[i] = []string{bk.Key, m.Format(bk.Income), m.Format(bk.Expense), m.Signed(bk.Net)}
	}
	table(&b, []string{"Period", "Income", "Expense", "Net"}, rows)
	return b.String()
}

func CategoryMarkdown(buckets []core.CategoryBucket, period string, m Money) string {
	var b strings.Builder
	if period == "" {
		b.WriteString("# Categories\n\n")
	} else {
		fmt.Fprintf(&b, "# Categories in %s\n\n", period)
	}
	if len(buckets) == 0 {
		b.WriteString("_Nothing recorded._\n")
		return b.String()
	}
	rows := make([][]string, len(buckets))
	for i, bk := range buckets {
		rows[i] = []string{string(bk.Category), m.Format(bk.Income), m.Format(bk.Expense), m.Signed(bk.Net)}
	}
	table(&b, []string{"Category", "Income", "Expense", "Net"}, rows)
	return b.String()
}

func RecordsMarkdown(records []core.Record, m Money) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Records (%d)\n\n", len(records))
	if len(records) == 0 {
		b.WriteString("_No records._\n")
		return b.String()
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		profit := "-"
		if p, ok := core.Profit(r); ok {
			profit = m.Signed(p)
		}
		sold := "-"
		if r.SoldDate != nil {
			sold = *r.SoldDate
		}
		rows[i] = []string{
			shortID(r.ID), string(r.RecordType), r.Name, string(r.Category), string(r.Status),
			r.PurchaseDate, m.Format(r.PurchasePrice), m.Optional(r.SellingPrice), sold, profit,
		}
	}
	table(&b, []string{"ID", "Type", "Name", "Category", "Status", "Bought", "Cost", "Sold for", "Sold on", "Profit"}, rows)
	return b.String()
}

// Render styles markdown for a terminal. width <= 0 keeps glamour's default
// wrapping.
func Render(w io.Writer, md string, width int) error {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func table(b *strings.Builder, header []string, rows [][]string) {
	writeRow(b, header)
	b.WriteString("|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range rows {
		writeRow(b, r)
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(cellEscaper.Replace(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
