package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity selects the calendar period used to bucket cash events.
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

// ParseGranularity accepts "month" or "year" in any case.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case GranularityMonth:
		return GranularityMonth, nil
	case GranularityYear:
		return GranularityYear, nil
	default:
		return "", fmt.Errorf("unknown granularity %q: must be month or year", s)
	}
}

var periodPattern = regexp.MustCompile(`^\d{4}(-(0[1-9]|1[0-2]))?$`)

// ParsePeriod accepts "" (all time), YYYY or YYYY-MM.
func ParsePeriod(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || periodPattern.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("invalid period %q: use YYYY or YYYY-MM", s)
}

// Key returns the zero-padded bucket key for t.
func (g Granularity) Key(t time.Time) string {
	if g == GranularityYear {
		return fmt.Sprintf("%04d", t.Year())
	}
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// Summary rolls up the whole record set.
type Summary struct {
	TotalStock             int             `json:"totalStock"`
	TotalSold              int             `json:"totalSold"`
	ExpenseCount           int             `json:"expenseCount"`
	TotalProfit            decimal.Decimal `json:"totalProfit"`
	StockValue             decimal.Decimal `json:"stockValue"`
	TotalMiscExpense       decimal.Decimal `json:"totalMiscExpense"`
	TotalConsumableExpense decimal.Decimal `json:"totalConsumableExpense"`
}

// CashflowBucket aggregates cash events of one calendar period.
type CashflowBucket struct {
	Key     string          `json:"key"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryBucket aggregates cash events of one category.
type CategoryBucket struct {
	Category Category        `json:"category"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Net      decimal.Decimal `json:"net"`
}

// Profit is defined only for items with a selling price.
func Profit(r Record) (decimal.Decimal, bool) {
	if !r.IsItem() || !r.SellingPrice.Valid {
		return decimal.Zero, false
	}
	return r.SellingPrice.Decimal.
		Sub(r.PurchasePrice).
		Sub(r.MiscExpense).
		Sub(r.ConsumableExpense), true
}

// Summarize computes stock and profit totals. Expense totals span all
// records, items and expenses alike.
func Summarize(records []Record) Summary {
	s := Summary{
		TotalProfit:            decimal.Zero,
		StockValue:             decimal.Zero,
		TotalMiscExpense:       decimal.Zero,
		TotalConsumableExpense: decimal.Zero,
	}
	for _, r := range records {
		s.TotalMiscExpense = s.TotalMiscExpense.Add(r.MiscExpense)
		s.TotalConsumableExpense = s.TotalConsumableExpense.Add(r.ConsumableExpense)

		if r.IsExpense() {
			s.ExpenseCount++
			continue
		}
		switch r.Status {
		case StatusInStock:
			s.TotalStock++
			s.StockValue = s.StockValue.Add(r.PurchasePrice)
		case StatusSold:
			s.TotalSold++
			if p, ok := Profit(r); ok {
				s.TotalProfit = s.TotalProfit.Add(p)
			}
		}
	}
	return s
}

// cashEvent is a dated movement of money derived from a record.
type cashEvent struct {
	date     string
	category Category
	income   decimal.Decimal
	expense  decimal.Decimal
}

// events derives the cash movements of a record: the purchase outflow (or
// the expense itself) on the purchase date and, for sold items, the sale
// inflow on the sold date.
func events(r Record) []cashEvent {
	costs := r.MiscExpense.Add(r.ConsumableExpense)
	if r.IsExpense() {
		return []cashEvent{{date: r.PurchaseDate, category: r.Category, income: decimal.Zero, expense: costs}}
	}
	out := []cashEvent{{date: r.PurchaseDate, category: r.Category, income: decimal.Zero, expense: r.PurchasePrice.Add(costs)}}
	if r.HasSale() {
		out = append(out, cashEvent{date: *r.SoldDate, category: r.Category, income: r.SellingPrice.Decimal, expense: decimal.Zero})
	}
	return out
}

// Cashflow buckets cash events by calendar period, most recent first.
// Events whose date does not parse are left out.
func Cashflow(records []Record, g Granularity) []CashflowBucket {
	byKey := make(map[string]*CashflowBucket)
	for _, r := range records {
		for _, ev := range events(r) {
			t, ok := ParseDate(ev.date)
			if !ok {
				continue
			}
			key := g.Key(t)
			b, exists := byKey[key]
			if !exists {
				b = &CashflowBucket{Key: key, Income: decimal.Zero, Expense: decimal.Zero}
				byKey[key] = b
			}
			b.Income = b.Income.Add(ev.income)
			b.Expense = b.Expense.Add(ev.expense)
		}
	}

	out := make([]CashflowBucket, 0, len(byKey))
	for _, b := range byKey {
		b.Net = b.Income.Sub(b.Expense)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out
}

// CategoryBreakdown groups cash events by category in the fixed category
// order, dropping categories with nothing to show. A non-empty period (a
// YYYY or YYYY-MM key) restricts events to that period; an empty period
// covers all events regardless of date.
func CategoryBreakdown(records []Record, period string) []CategoryBucket {
	period = strings.TrimSpace(period)
	g := GranularityMonth
	if len(period) == 4 {
		g = GranularityYear
	}

	byCat := make(map[Category]*CategoryBucket, len(Categories))
	for _, c := range Categories {
		byCat[c] = &CategoryBucket{Category: c, Income: decimal.Zero, Expense: decimal.Zero}
	}
	for _, r := range records {
		for _, ev := range events(r) {
			if period != "" {
				t, ok := ParseDate(ev.date)
				if !ok || g.Key(t) != period {
					continue
				}
			}
			b, ok := byCat[ev.category]
			if !ok {
				b = byCat[CategoryOther]
			}
			b.Income = b.Income.Add(ev.income)
			b.Expense = b.Expense.Add(ev.expense)
		}
	}

	out := make([]CategoryBucket, 0, len(Categories))
	for _, c := range Categories {
		b := byCat[c]
		b.Net = b.Income.Sub(b.Expense)
		if b.Income.IsZero() && b.Expense.IsZero() && b.Net.IsZero() {
			continue
		}
		out = append(out, *b)
	}
	return out
}

// Periods returns the distinct bucket keys of the records, most recent first.
func Periods(records []Record, g Granularity) []string {
	buckets := Cashflow(records, g)
	keys := make([]string, len(buckets))
	for i, b := range buckets {
		keys[i] = b.Key
	}
	return keys
}
