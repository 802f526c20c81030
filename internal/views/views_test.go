package views

import (
	"bytes"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core"
)

func strptr(s string) *string { return &s }

func sample() []core.Record {
	return []core.Record{
		{
			ID: "1", RecordType: core.TypeItem, Name: "Denim jacket", Category: core.CategoryApparel,
			PurchasePrice: decimal.NewFromInt(3000), PurchaseDate: "2024-01-05",
			SellingPrice: decimal.NewNullDecimal(decimal.NewFromInt(9000)), SoldDate: strptr("2024-02-01"),
			Status: core.StatusSold, CreatedAt: "2024-01-05T00:00:00Z",
		},
		{
			ID: "2", RecordType: core.TypeItem, Name: "Game console", Category: core.CategoryElectronics,
			PurchasePrice: decimal.NewFromInt(20000), PurchaseDate: "2024-03-01",
			Status: core.StatusInStock, Memo: "needs cleaning", CreatedAt: "2024-03-01T00:00:00Z",
		},
		{
			ID: "3", RecordType: core.TypeExpense, Name: "Tape", Category: core.CategoryOther,
			PurchasePrice: decimal.Zero, PurchaseDate: "2024-02-10", ConsumableExpense: decimal.NewFromInt(400),
			Status: core.StatusSold, CreatedAt: "2024-02-10T00:00:00Z",
		},
		{
			ID: "4", RecordType: core.TypeItem, Name: "Vintage tee", Category: core.CategoryApparel,
			PurchasePrice: decimal.NewFromInt(1500), PurchaseDate: "2024-02-20",
			SellingPrice: decimal.NewNullDecimal(decimal.NewFromInt(1000)), SoldDate: strptr("2024-03-02"),
			Status: core.StatusSold, CreatedAt: "2024-02-20T00:00:00Z",
		},
	}
}

func ids(records []core.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestApplyFilters(t *testing.T) {
	records := sample()

	got := Apply(records, Filter{Type: core.TypeItem, Status: core.StatusSold}, DefaultSort)
	assert.Equal(t, []string{"4", "1"}, ids(got))

	got = Apply(records, Filter{Category: core.CategoryApparel}, Sort{Field: SortName})
	assert.Equal(t, []string{"1", "4"}, ids(got))

	got = Apply(records, Filter{Search: "CLEAN"}, DefaultSort)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestApplySortsMissingLast(t *testing.T) {
	records := sample()

	got := Apply(records, Filter{}, Sort{Field: SortProfit, Desc: true})
	assert.Equal(t, []string{"1", "4", "2", "3"}, ids(got))

	got = Apply(records, Filter{}, Sort{Field: SortSoldDate})
	assert.Equal(t, []string{"1", "4", "2", "3"}, ids(got))

	got = Apply(records, Filter{}, Sort{Field: SortPurchasePrice})
	assert.Equal(t, []string{"3", "4", "1", "2"}, ids(got))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	records := sample()
	Apply(records, Filter{}, Sort{Field: SortName})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(records))
}

func TestParseQuery(t *testing.T) {
	q := url.Values{
		"type":     {"item"},
		"status":   {"bogus"},
		"category": {"hobby"},
		"q":        {"  lamp "},
		"sort":     {"profit"},
		"order":    {"asc"},
	}
	f, s := ParseQuery(q)
	assert.Equal(t, Filter{Type: core.TypeItem, Category: core.CategoryHobby, Search: "lamp"}, f)
	assert.Equal(t, Sort{Field: SortProfit}, s)

	_, s = ParseQuery(url.Values{"sort": {"color"}})
	assert.Equal(t, DefaultSort, s)
}

func TestBarsWidths(t *testing.T) {
	bars := Bars([]core.CashflowBucket{
		{Key: "2024-03", Income: decimal.NewFromInt(10000), Expense: decimal.NewFromInt(20000)},
		{Key: "2024-02", Income: decimal.NewFromInt(100), Expense: decimal.NewFromInt(5000)},
		{Key: "2024-01", Income: decimal.Zero, Expense: decimal.NewFromInt(2999)},
	})
	require.Len(t, bars, 3)
	assert.Equal(t, 50, bars[0].IncomeWidth)
	assert.Equal(t, 100, bars[0].ExpenseWidth)
	assert.Equal(t, 2, bars[1].IncomeWidth, "tiny values stay visible")
	assert.Equal(t, 25, bars[1].ExpenseWidth)
	assert.Equal(t, 0, bars[2].IncomeWidth)
	assert.Equal(t, 15, bars[2].ExpenseWidth)
}

func TestBarsEmpty(t *testing.T) {
	assert.Empty(t, Bars(nil))
	bars := CategoryBars([]core.CategoryBucket{{Category: core.CategoryOther, Income: decimal.Zero, Expense: decimal.Zero}})
	assert.Equal(t, 0, bars[0].ExpenseWidth)
}

func TestMoneyFormat(t *testing.T) {
	jpy, ok := NewMoney("")
	require.True(t, ok)
	assert.Equal(t, "JPY", jpy.Code())
	assert.Equal(t, "¥12,200", jpy.Format(decimal.NewFromInt(12200)))
	assert.Equal(t, "¥1,201", jpy.Format(decimal.RequireFromString("1200.5")))
	assert.Equal(t, "+¥500", jpy.Signed(decimal.NewFromInt(500)))
	assert.Equal(t, "-", jpy.Optional(decimal.NullDecimal{}))

	usd, ok := NewMoney("usd")
	require.True(t, ok)
	assert.Equal(t, "$1,234.50", usd.Format(decimal.RequireFromString("1234.5")))

	fallback, ok := NewMoney("XXX-NOPE")
	assert.False(t, ok)
	assert.Equal(t, "JPY", fallback.Code())
}

func TestMarkdownReports(t *testing.T) {
	m, _ := NewMoney("JPY")
	records := sample()

	md := SummaryMarkdown(core.Summarize(records), m)
	assert.Contains(t, md, "| Items sold | 2 |")
	assert.Contains(t, md, "| Total profit | +¥5,500 |")

	md = CashflowMarkdown(core.Cashflow(records, core.GranularityMonth), core.GranularityMonth, m)
	assert.Contains(t, md, "# Cashflow by month")
	assert.Contains(t, md, "| 2024-03 |")

	md = CategoryMarkdown(nil, "2023", m)
	assert.Contains(t, md, "Categories in 2023")
	assert.Contains(t, md, "Nothing recorded")

	records[1].Name = "pipe | name"
	md = RecordsMarkdown(records, m)
	assert.Contains(t, md, `pipe \| name`)
	assert.Equal(t, 2+2+len(records), strings.Count(md, "\n"))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, "# Title\n\nhello", 80))
	assert.Contains(t, buf.String(), "hello")
}
