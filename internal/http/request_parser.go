package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"stockflow/internal/core"
)

// formError names the form field that failed to parse.
type formError struct {
	field string
	err   error
}

func (e *formError) Error() string { return e.field + ": " + e.err.Error() }
func (e *formError) Unwrap() error { return e.err }

// formValue returns a sanitized form field.
func formValue(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}

func requiredAmount(form url.Values, key string) (decimal.Decimal, error) {
	d, err := core.ParseAmount(form.Get(key))
	if err != nil {
		return decimal.Zero, &formError{field: key, err: err}
	}
	return d, nil
}

func optionalAmount(form url.Values, key string) (decimal.Decimal, error) {
	d, err := core.ParseOptionalAmount(form.Get(key))
	if err != nil {
		return decimal.Zero, &formError{field: key, err: err}
	}
	return d, nil
}

// dateOrToday returns the form date, or today when the field is blank.
func dateOrToday(form url.Values, key string) string {
	if v := formValue(form, key); v != "" {
		return v
	}
	return core.Today()
}

// ParseItemForm reads the add-item form.
func ParseItemForm(form url.Values) (core.ItemInput, error) {
	price, err := requiredAmount(form, "purchasePrice")
	if err != nil {
		return core.ItemInput{}, err
	}
	misc, err := optionalAmount(form, "miscExpense")
	if err != nil {
		return core.ItemInput{}, err
	}
	consumable, err := optionalAmount(form, "consumableExpense")
	if err != nil {
		return core.ItemInput{}, err
	}
	return core.ItemInput{
		Name:              formValue(form, "name"),
		Category:          core.ParseCategory(form.Get("category")),
		PurchasePrice:     price,
		PurchaseDate:      dateOrToday(form, "purchaseDate"),
		MiscExpense:       misc,
		ConsumableExpense: consumable,
		Memo:              formValue(form, "memo"),
	}, nil
}

// ParseExpenseForm reads the add-expense form.
func ParseExpenseForm(form url.Values) (core.ExpenseInput, error) {
	misc, err := optionalAmount(form, "miscExpense")
	if err != nil {
		return core.ExpenseInput{}, err
	}
	consumable, err := optionalAmount(form, "consumableExpense")
	if err != nil {
		return core.ExpenseInput{}, err
	}
	return core.ExpenseInput{
		Name:              formValue(form, "name"),
		Category:          core.ParseCategory(form.Get("category")),
		Date:              dateOrToday(form, "date"),
		MiscExpense:       misc,
		ConsumableExpense: consumable,
		Memo:              formValue(form, "memo"),
	}, nil
}

// SellForm is the sale half of a record.
type SellForm struct {
	Price decimal.Decimal
	Date  string
}

// ParseSellForm reads the sell row action. The sold date defaults to today.
func ParseSellForm(form url.Values) (SellForm, error) {
	price, err := requiredAmount(form, "sellingPrice")
	if err != nil {
		return SellForm{}, err
	}
	return SellForm{Price: price, Date: dateOrToday(form, "soldDate")}, nil
}

// parseForm parses the request form, wrapping failures as malformed bodies.
func parseForm(r *http.Request) (url.Values, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return r.PostForm, nil
}

// describeFormError turns validation errors into short user messages.
func describeFormError(err error) string {
	var fe *formError
	switch {
	case errors.As(err, &fe):
		return "Invalid amount in " + fieldLabel(fe.field)
	case errors.Is(err, core.ErrEmptyName):
		return "Name is required"
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date"
	case errors.Is(err, core.ErrNegativeAmount):
		return "Amounts cannot be negative"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Enter at least one expense amount"
	case errors.Is(err, core.ErrNotAnItem):
		return "Only items can be sold"
	default:
		return err.Error()
	}
}

var fieldLabels = map[string]string{
	"purchasePrice":     "purchase price",
	"sellingPrice":      "selling price",
	"miscExpense":       "misc expense",
	"consumableExpense": "consumable expense",
}

func fieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return strings.ToLower(field)
}
