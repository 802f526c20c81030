package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]any {
	return map[string]any{
		"id":            "a1",
		"name":          "Sneakers",
		"purchasePrice": 15000.0,
		"purchaseDate":  "2024-03-01",
		"createdAt":     "2024-03-01T10:00:00Z",
	}
}

func TestNormalizeDefaults(t *testing.T) {
	r, err := Normalize(validRaw())
	require.NoError(t, err)

	assert.Equal(t, "a1", r.ID)
	assert.Equal(t, TypeItem, r.RecordType)
	assert.Equal(t, CategoryOther, r.Category)
	assert.Equal(t, StatusInStock, r.Status)
	assert.Equal(t, "15000", r.PurchasePrice.String())
	assert.True(t, r.MiscExpense.IsZero())
	assert.True(t, r.ConsumableExpense.IsZero())
	assert.False(t, r.SellingPrice.Valid)
	assert.Nil(t, r.SoldDate)
	assert.Equal(t, "", r.Memo)
}

func TestNormalizeIntegerAmounts(t *testing.T) {
	tests := []struct {
		name  string
		price any
		want  string
	}{
		{"int", int(120), "120"},
		{"int8", int8(120), "120"},
		{"int16", int16(1200), "1200"},
		{"int32", int32(1200), "1200"},
		{"int64", int64(1200), "1200"},
		{"uint", uint(1200), "1200"},
		{"uint8", uint8(200), "200"},
		{"uint16", uint16(1200), "1200"},
		{"uint32", uint32(1200), "1200"},
		{"uint64", uint64(1200), "1200"},
		{"uint64 above int64", uint64(math.MaxUint64), "18446744073709551615"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw["purchasePrice"] = tt.price
			r, err := Normalize(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.PurchasePrice.String())
		})
	}
}

func TestNormalizeOptionalFields(t *testing.T) {
	raw := validRaw()
	raw["recordType"] = "item"
	raw["category"] = "electronics"
	raw["status"] = "sold"
	raw["sellingPrice"] = 28000
	raw["soldDate"] = "2024-04-01"
	raw["miscExpense"] = json.Number("500")
	raw["consumableExpense"] = decimal.NewFromInt(300)
	raw["memo"] = "boxed"

	r, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, CategoryElectronics, r.Category)
	assert.Equal(t, StatusSold, r.Status)
	require.True(t, r.SellingPrice.Valid)
	assert.Equal(t, "28000", r.SellingPrice.Decimal.String())
	require.NotNil(t, r.SoldDate)
	assert.Equal(t, "2024-04-01", *r.SoldDate)
	assert.Equal(t, "500", r.MiscExpense.String())
	assert.Equal(t, "300", r.ConsumableExpense.String())
	assert.Equal(t, "boxed", r.Memo)
}

func TestNormalizeMistypedOptionalFieldsDefault(t *testing.T) {
	raw := validRaw()
	raw["recordType"] = "service"
	raw["category"] = "furniture"
	raw["status"] = "reserved"
	raw["sellingPrice"] = "28000"
	raw["soldDate"] = 20240401
	raw["miscExpense"] = "500"
	raw["consumableExpense"] = math.NaN()
	raw["memo"] = 42

	r, err := Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, TypeItem, r.RecordType)
	assert.Equal(t, CategoryOther, r.Category)
	assert.Equal(t, StatusInStock, r.Status)
	assert.False(t, r.SellingPrice.Valid)
	assert.Nil(t, r.SoldDate)
	assert.True(t, r.MiscExpense.IsZero())
	assert.True(t, r.ConsumableExpense.IsZero())
	assert.Equal(t, "", r.Memo)
}

func TestNormalizeRejectsMissingRequired(t *testing.T) {
	for _, field := range []string{"id", "name", "purchasePrice", "purchaseDate", "createdAt"} {
		t.Run("missing "+field, func(t *testing.T) {
			raw := validRaw()
			delete(raw, field)
			_, err := Normalize(raw)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}

	t.Run("wrong types", func(t *testing.T) {
		raw := validRaw()
		raw["purchasePrice"] = "15000"
		_, err := Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidRecord)

		raw = validRaw()
		raw["id"] = 7
		_, err = Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidRecord)

		raw = validRaw()
		raw["purchasePrice"] = math.Inf(1)
		_, err = Normalize(raw)
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("not an object", func(t *testing.T) {
		for _, v := range []any{nil, "x", 3.0, []any{validRaw()}} {
			_, err := Normalize(v)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		}
	})
}

// The normalizer only type-checks; keeping expenses at a zero purchase price
// is the job of the constructors.
func TestNormalizeKeepsExpensePurchasePrice(t *testing.T) {
	raw := validRaw()
	raw["recordType"] = "expense"
	raw["purchasePrice"] = 999.0

	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeExpense, r.RecordType)
	assert.Equal(t, "999", r.PurchasePrice.String())
}

func TestNormalizeKeepsHalfSale(t *testing.T) {
	raw := validRaw()
	raw["sellingPrice"] = 100.0

	r, err := Normalize(raw)
	require.NoError(t, err)
	assert.True(t, r.SellingPrice.Valid)
	assert.Nil(t, r.SoldDate)
	assert.False(t, r.HasSale())
}

func TestNormalizeAll(t *testing.T) {
	bad := validRaw()
	delete(bad, "name")
	second := validRaw()
	second["id"] = "a2"

	records, rejected := NormalizeAll([]any{validRaw(), bad, "junk", second})
	require.Len(t, records, 2)
	assert.Equal(t, "a1", records[0].ID)
	assert.Equal(t, "a2", records[1].ID)
	require.Len(t, rejected, 2)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Equal(t, 2, rejected[1].Index)
}

func TestNormalizeDecodedJSON(t *testing.T) {
	var v any
	body := `{"id":"j1","name":"Lamp","purchasePrice":1200.5,"purchaseDate":"2024-01-01","createdAt":"2024-01-01T00:00:00Z","sellingPrice":null}`
	require.NoError(t, json.Unmarshal([]byte(body), &v))

	r, err := Normalize(v)
	require.NoError(t, err)
	assert.Equal(t, "1200.5", r.PurchasePrice.String())
	assert.False(t, r.SellingPrice.Valid)
}

func TestRecordJSONRoundTripThroughNormalize(t *testing.T) {
	sold := "2024-04-01"
	in := Record{
		ID:                "r1",
		RecordType:        TypeItem,
		Name:              "Console",
		Category:          CategoryElectronics,
		PurchasePrice:     decimal.NewFromInt(15000),
		PurchaseDate:      "2024-03-01",
		MiscExpense:       decimal.NewFromInt(500),
		ConsumableExpense: decimal.NewFromInt(300),
		SellingPrice:      decimal.NewNullDecimal(decimal.NewFromInt(28000)),
		SoldDate:          &sold,
		Status:            StatusSold,
		Memo:              "mint",
		CreatedAt:         "2024-03-01T10:00:00Z",
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"purchasePrice":15000`)

	var v any
	require.NoError(t, json.Unmarshal(data, &v))
	out, err := Normalize(v)
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.PurchasePrice.Equal(out.PurchasePrice))
	assert.True(t, in.SellingPrice.Decimal.Equal(out.SellingPrice.Decimal))
	assert.Equal(t, *in.SoldDate, *out.SoldDate)
	assert.Equal(t, in.Status, out.Status)
}
