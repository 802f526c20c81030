package views

import (
	"github.com/shopspring/decimal"

	"stockflow/internal/core"
)

// Bar is one chart row. Widths are percentages of the largest income or
// expense value across all rows.
type Bar struct {
	Label        string
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Net          decimal.Decimal
	IncomeWidth  int
	ExpenseWidth int
}

// Bars turns cashflow buckets into chart rows, keeping bucket order.
func Bars(buckets []core.CashflowBucket) []Bar {
	rows := make([]Bar, len(buckets))
	for i, b := range buckets {
		rows[i] = Bar{Label: b.Key, Income: b.Income, Expense: b.Expense, Net: b.Net}
	}
	return scale(rows)
}

// CategoryBars turns a category breakdown into chart rows.
func CategoryBars(buckets []core.CategoryBucket) []Bar {
	rows := make([]Bar, len(buckets))
	for i, b := range buckets {
		rows[i] = Bar{Label: string(b.Category), Income: b.Income, Expense: b.Expense, Net: b.Net}
	}
	return scale(rows)
}

func scale(rows []Bar) []Bar {
	peak := decimal.Zero
	for _, r := range rows {
		peak = decimal.Max(peak, r.Income, r.Expense)
	}
	for i := range rows {
		rows[i].IncomeWidth = width(rows[i].Income, peak)
		rows[i].ExpenseWidth = width(rows[i].Expense, peak)
	}
	return rows
}

// width is the rounded percent of v over peak, at least 2 for any positive
// value so tiny amounts stay visible, and never above 100.
func width(v, peak decimal.Decimal) int {
	if !peak.IsPositive() || !v.IsPositive() {
		return 0
	}
	w := int(v.Mul(decimal.NewFromInt(100)).Div(peak).Round(0).IntPart())
	if w < 2 {
		w = 2
	}
	if w > 100 {
		w = 100
	}
	return w
}
