package core

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func strPtr(s string) *string { return &s }

func soldItem(id string, purchase, misc, consumable, selling int64, purchaseDate, soldDate string) Record {
	return Record{
		ID:                id,
		RecordType:        TypeItem,
		Name:              id,
		Category:          CategoryElectronics,
		PurchasePrice:     dec(purchase),
		PurchaseDate:      purchaseDate,
		MiscExpense:       dec(misc),
		ConsumableExpense: dec(consumable),
		SellingPrice:      decimal.NewNullDecimal(dec(selling)),
		SoldDate:          strPtr(soldDate),
		Status:            StatusSold,
		CreatedAt:         purchaseDate,
	}
}

func stockItem(id string, purchase int64, purchaseDate string) Record {
	return Record{
		ID:                id,
		RecordType:        TypeItem,
		Name:              id,
		Category:          CategoryApparel,
		PurchasePrice:     dec(purchase),
		PurchaseDate:      purchaseDate,
		MiscExpense:       decimal.Zero,
		ConsumableExpense: decimal.Zero,
		Status:            StatusInStock,
		CreatedAt:         purchaseDate,
	}
}

func expense(id string, misc, consumable int64, date string) Record {
	return Record{
		ID:                id,
		RecordType:        TypeExpense,
		Name:              id,
		Category:          CategoryOther,
		PurchasePrice:     decimal.Zero,
		PurchaseDate:      date,
		MiscExpense:       dec(misc),
		ConsumableExpense: dec(consumable),
		Status:            StatusSold,
		CreatedAt:         date,
	}
}

func sampleRecords() []Record {
	return []Record{
		soldItem("console", 15000, 500, 300, 28000, "2024-03-01", "2024-04-10"),
		stockItem("jacket", 2000, "2024-04-02"),
		stockItem("camera", 8000, "2023-12-20"),
		expense("tape", 0, 100, "2024-04-05"),
	}
}

func TestProfit(t *testing.T) {
	r := soldItem("console", 15000, 500, 300, 28000, "2024-03-01", "2024-04-10")
	p, ok := Profit(r)
	require.True(t, ok)
	assert.Equal(t, "12200", p.String())

	_, ok = Profit(stockItem("jacket", 2000, "2024-04-02"))
	assert.False(t, ok, "no selling price means no profit")

	e := expense("fee", 10, 0, "2024-01-01")
	e.SellingPrice = decimal.NewNullDecimal(dec(50))
	_, ok = Profit(e)
	assert.False(t, ok, "expenses never have profit")
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())

	assert.Equal(t, 2, s.TotalStock)
	assert.Equal(t, 1, s.TotalSold)
	assert.Equal(t, 1, s.ExpenseCount)
	assert.Equal(t, "12200", s.TotalProfit.String())
	assert.Equal(t, "10000", s.StockValue.String())
	assert.Equal(t, "500", s.TotalMiscExpense.String())
	assert.Equal(t, "400", s.TotalConsumableExpense.String(), "includes the expense row")
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalStock)
	assert.True(t, s.TotalProfit.IsZero())
	assert.True(t, s.StockValue.IsZero())
}

func TestSummarizeSoldWithoutPrice(t *testing.T) {
	r := stockItem("odd", 100, "2024-01-01")
	r.Status = StatusSold

	s := Summarize([]Record{r})
	assert.Equal(t, 1, s.TotalSold)
	assert.True(t, s.TotalProfit.IsZero())
	assert.True(t, s.StockValue.IsZero())
}

func TestCashflowMonthly(t *testing.T) {
	buckets := Cashflow(sampleRecords(), GranularityMonth)

	require.Len(t, buckets, 3)
	assert.Equal(t, "2024-04", buckets[0].Key)
	assert.Equal(t, "2024-03", buckets[1].Key)
	assert.Equal(t, "2023-12", buckets[2].Key)

	// April: sale 28000 in, jacket 2000 + tape 100 out.
	assert.Equal(t, "28000", buckets[0].Income.String())
	assert.Equal(t, "2100", buckets[0].Expense.String())
	assert.Equal(t, "25900", buckets[0].Net.String())

	// March: console purchase with its costs.
	assert.True(t, buckets[1].Income.IsZero())
	assert.Equal(t, "15800", buckets[1].Expense.String())
	assert.Equal(t, "-15800", buckets[1].Net.String())
}

func TestCashflowYearly(t *testing.T) {
	buckets := Cashflow(sampleRecords(), GranularityYear)

	require.Len(t, buckets, 2)
	assert.Equal(t, "2024", buckets[0].Key)
	assert.Equal(t, "28000", buckets[0].Income.String())
	assert.Equal(t, "17900", buckets[0].Expense.String())
	assert.Equal(t, "2023", buckets[1].Key)
	assert.Equal(t, "8000", buckets[1].Expense.String())
}

func TestCashflowIgnoresHalfSale(t *testing.T) {
	r := stockItem("half", 100, "2024-01-01")
	r.SellingPrice = decimal.NewNullDecimal(dec(500))

	buckets := Cashflow([]Record{r}, GranularityMonth)
	require.Len(t, buckets, 1)
	assert.True(t, buckets[0].Income.IsZero())
}

func TestCashflowOrderIndependent(t *testing.T) {
	records := sampleRecords()
	records = append(records,
		soldItem("bike", 30000, 0, 0, 45000, "2022-07-09", "2023-01-15"),
		expense("shipping", 800, 0, "2023-01-15"),
		stockItem("lamp", 1200, "2024-11-30"),
	)
	want := Cashflow(records, GranularityMonth)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Cashflow(shuffled, GranularityMonth)
		require.Len(t, got, len(want))
		for j := range want {
			assert.Equal(t, want[j].Key, got[j].Key)
			assert.True(t, want[j].Income.Equal(got[j].Income))
			assert.True(t, want[j].Expense.Equal(got[j].Expense))
			assert.True(t, want[j].Net.Equal(got[j].Net))
		}
	}
}

func TestUnparseableDateSkipsCashflowButCountsInSummary(t *testing.T) {
	broken := stockItem("broken", 5000, "sometime in spring")
	records := append(sampleRecords(), broken)

	for _, g := range []Granularity{GranularityMonth, GranularityYear} {
		with := Cashflow(records, g)
		without := Cashflow(sampleRecords(), g)
		require.Len(t, with, len(without))
		for i := range without {
			assert.Equal(t, without[i].Key, with[i].Key)
			assert.True(t, without[i].Expense.Equal(with[i].Expense))
		}
	}

	s := Summarize(records)
	assert.Equal(t, 3, s.TotalStock)
	assert.Equal(t, "15000", s.StockValue.String())
}

func TestCategoryBreakdown(t *testing.T) {
	out := CategoryBreakdown(sampleRecords(), "")

	require.Len(t, out, 3)
	assert.Equal(t, CategoryApparel, out[0].Category)
	assert.Equal(t, "10000", out[0].Expense.String())
	assert.Equal(t, CategoryElectronics, out[1].Category)
	assert.Equal(t, "28000", out[1].Income.String())
	assert.Equal(t, "15800", out[1].Expense.String())
	assert.Equal(t, "12200", out[1].Net.String())
	assert.Equal(t, CategoryOther, out[2].Category)
	assert.Equal(t, "100", out[2].Expense.String())
}

func TestCategoryBreakdownPeriod(t *testing.T) {
	out := CategoryBreakdown(sampleRecords(), "2023")
	require.Len(t, out, 1)
	assert.Equal(t, CategoryApparel, out[0].Category)
	assert.Equal(t, "8000", out[0].Expense.String())

	out = CategoryBreakdown(sampleRecords(), "2024-04")
	require.Len(t, out, 3)
	assert.Equal(t, "2000", out[0].Expense.String())
	assert.Equal(t, "28000", out[1].Income.String())
	assert.True(t, out[1].Expense.IsZero())

	assert.Empty(t, CategoryBreakdown(sampleRecords(), "1999"))
}

func TestParseGranularity(t *testing.T) {
	g, err := ParseGranularity("Month")
	require.NoError(t, err)
	assert.Equal(t, GranularityMonth, g)

	g, err = ParseGranularity("year")
	require.NoError(t, err)
	assert.Equal(t, GranularityYear, g)

	_, err = ParseGranularity("week")
	assert.Error(t, err)
}

func TestPeriods(t *testing.T) {
	assert.Equal(t, []string{"2024", "2023"}, Periods(sampleRecords(), GranularityYear))
}

func TestParsePeriod(t *testing.T) {
	for _, ok := range []string{"", "2024", "2024-01", "2024-12", " 2024-06 "} {
		_, err := ParsePeriod(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"24", "2024-1", "2024-00", "2024-13", "2024/01", "all"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
	}
}
