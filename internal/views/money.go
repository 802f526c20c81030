package views

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "JPY"

// Money formats decimal amounts in one currency.
type Money struct {
	cur *money.Currency
}

// NewMoney returns a formatter for an ISO 4217 code. Unknown codes fall back
// to DefaultCurrency; ok reports whether code was recognized.
func NewMoney(code string) (Money, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	if cur := money.GetCurrency(code); cur != nil {
		return Money{cur: cur}, true
	}
	return Money{cur: money.GetCurrency(DefaultCurrency)}, false
}

// Code returns the ISO code of the currency.
func (m Money) Code() string { return m.currency().Code }

// Format renders d in the currency's minor unit, rounded half away from zero.
func (m Money) Format(d decimal.Decimal) string {
	cur := m.currency()
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// Signed adds a leading plus to positive amounts.
func (m Money) Signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + m.Format(d)
	}
	return m.Format(d)
}

// Optional renders a null decimal as a dash.
func (m Money) Optional(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return m.Format(d.Decimal)
}

func (m Money) currency() *money.Currency {
	if m.cur == nil {
		return money.GetCurrency(DefaultCurrency)
	}
	return m.cur
}
