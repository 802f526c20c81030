package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core"
)

func TestParseItemForm(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		wantErr  bool
		wantDate string // empty means today
		wantCat  core.Category
	}{
		{
			name: "all fields",
			form: url.Values{
				"name": {"  Film camera "}, "category": {"electronics"},
				"purchasePrice": {"8000"}, "purchaseDate": {"2024-02-20"},
				"miscExpense": {"500"}, "consumableExpense": {"12,5"}, "memo": {"mint"},
			},
			wantDate: "2024-02-20",
			wantCat:  core.CategoryElectronics,
		},
		{
			name:    "blank date defaults to today",
			form:    url.Values{"name": {"Jacket"}, "purchasePrice": {"3000"}},
			wantCat: core.CategoryOther,
		},
		{
			name:    "unknown category falls back to other",
			form:    url.Values{"name": {"Jacket"}, "purchasePrice": {"3000"}, "category": {"furniture"}},
			wantCat: core.CategoryOther,
		},
		{
			name:    "missing purchase price",
			form:    url.Values{"name": {"Jacket"}},
			wantErr: true,
		},
		{
			name:    "negative misc expense",
			form:    url.Values{"name": {"Jacket"}, "purchasePrice": {"1"}, "miscExpense": {"-4"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseItemForm(tt.form)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			want := tt.wantDate
			if want == "" {
				want = core.Today()
			}
			assert.Equal(t, want, in.PurchaseDate)
			assert.Equal(t, tt.wantCat, in.Category)
		})
	}
}

func TestParseItemFormValues(t *testing.T) {
	in, err := ParseItemForm(url.Values{
		"name": {" Film camera\x00 "}, "purchasePrice": {"8000"},
		"consumableExpense": {"12,5"}, "memo": {"mint"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Film camera", in.Name)
	assert.Equal(t, "12.5", in.ConsumableExpense.String())
	assert.True(t, in.MiscExpense.IsZero())
}

func TestParseExpenseForm(t *testing.T) {
	in, err := ParseExpenseForm(url.Values{"name": {"Shipping tape"}, "consumableExpense": {"450"}, "date": {"2024-03-02"}})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-02", in.Date)
	assert.EqualValues(t, 450, in.ConsumableExpense.IntPart())

	_, err = ParseExpenseForm(url.Values{"name": {"Tape"}, "miscExpense": {"abc"}})
	assert.Error(t, err, "non-numeric amount")
}

func TestParseSellForm(t *testing.T) {
	sale, err := ParseSellForm(url.Values{"sellingPrice": {"12000"}})
	require.NoError(t, err)
	assert.Equal(t, core.Today(), sale.Date)
	assert.EqualValues(t, 12000, sale.Price.IntPart())

	_, err = ParseSellForm(url.Values{})
	var fe *formError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "sellingPrice", fe.field)
}

func TestParseForm(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/ui/items", strings.NewReader("name=Jacket&purchasePrice=10"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	form, err := parseForm(req)
	require.NoError(t, err)
	assert.Equal(t, "Jacket", form.Get("name"))

	bad := httptest.NewRequest(http.MethodPost, "/ui/items", strings.NewReader("%zz"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	_, err = parseForm(bad)
	assert.ErrorIs(t, err, errMalformedBody)
}

func TestDescribeFormError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&formError{field: "purchasePrice", err: core.ErrInvalidAmount}, "Invalid amount in purchase price"},
		{core.ErrEmptyName, "Name is required"},
		{core.ErrInvalidDate, "Invalid date"},
		{core.ErrNotAnItem, "Only items can be sold"},
		{core.ErrInvalidAmount, "Enter at least one expense amount"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describeFormError(tt.err), "%v", tt.err)
	}
}
