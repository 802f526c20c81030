package core

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Rejection describes why one entry of a batch was dropped.
type Rejection struct {
	Index int
	Err   error
}

// Normalize turns an untyped value (typically a decoded JSON object or an
// imported CSV row) into a Record.
//
// Required fields must be present with the right primitive type, otherwise
// the whole value is rejected with an error wrapping ErrInvalidRecord.
// Optional fields fall back to defaults when absent or mistyped. Normalize
// only type-checks: it does not enforce that expenses have a zero purchase
// price nor that selling price and sold date come in pairs.
func Normalize(v any) (Record, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Record{}, fmt.Errorf("%w: expected an object, got %T", ErrInvalidRecord, v)
	}

	id, ok := obj["id"].(string)
	if !ok {
		return Record{}, missing("id", "string")
	}
	name, ok := obj["name"].(string)
	if !ok {
		return Record{}, missing("name", "string")
	}
	purchasePrice, ok := toDecimal(obj["purchasePrice"])
	if !ok {
		return Record{}, missing("purchasePrice", "number")
	}
	purchaseDate, ok := obj["purchaseDate"].(string)
	if !ok {
		return Record{}, missing("purchaseDate", "string")
	}
	createdAt, ok := obj["createdAt"].(string)
	if !ok {
		return Record{}, missing("createdAt", "string")
	}

	r := Record{
		ID:                id,
		RecordType:        TypeItem,
		Name:              name,
		Category:          CategoryOther,
		PurchasePrice:     purchasePrice,
		PurchaseDate:      purchaseDate,
		MiscExpense:       decimal.Zero,
		ConsumableExpense: decimal.Zero,
		Status:            StatusInStock,
		CreatedAt:         createdAt,
	}

	if s, ok := obj["category"].(string); ok && Category(s).Valid() {
		r.Category = Category(s)
	}
	if s, ok := obj["status"].(string); ok && Status(s).Valid() {
		r.Status = Status(s)
	}
	if s, ok := obj["recordType"].(string); ok && RecordType(s).Valid() {
		r.RecordType = RecordType(s)
	}
	if d, ok := toDecimal(obj["sellingPrice"]); ok {
		r.SellingPrice = decimal.NewNullDecimal(d)
	}
	if s, ok := obj["soldDate"].(string); ok {
		r.SoldDate = &s
	}
	if d, ok := toDecimal(obj["miscExpense"]); ok {
		r.MiscExpense = d
	}
	if d, ok := toDecimal(obj["consumableExpense"]); ok {
		r.ConsumableExpense = d
	}
	if s, ok := obj["memo"].(string); ok {
		r.Memo = s
	}
	return r, nil
}

// NormalizeAll normalizes a batch, keeping input order for accepted entries.
func NormalizeAll(items []any) ([]Record, []Rejection) {
	records := make([]Record, 0, len(items))
	var rejected []Rejection
	for i, item := range items {
		r, err := Normalize(item)
		if err != nil {
			rejected = append(rejected, Rejection{Index: i, Err: err})
			continue
		}
		records = append(records, r)
	}
	return records, rejected
}

func missing(field, kind string) error {
	return fmt.Errorf("%w: %s must be a %s", ErrInvalidRecord, field, kind)
}

// toDecimal accepts the numeric shapes produced by encoding/json (with or
// without UseNumber), Go integer and float values, and decimals.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int8:
		return decimal.NewFromInt(int64(n)), true
	case int16:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return fromUint64(uint64(n)), true
	case uint8:
		return decimal.NewFromInt(int64(n)), true
	case uint16:
		return decimal.NewFromInt(int64(n)), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return fromUint64(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Zero, false
	}
}

// fromUint64 converts without passing through int64, which would overflow
// above math.MaxInt64.
func fromUint64(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}
