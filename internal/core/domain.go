package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, matching what the normalizer accepts.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	TypeItem    RecordType = "item"
	TypeExpense RecordType = "expense"

	StatusInStock Status = "in-stock"
	StatusSold    Status = "sold"

	CategoryApparel     Category = "apparel"
	CategoryElectronics Category = "electronics"
	CategoryHobby       Category = "hobby"
	CategoryOther       Category = "other"
)

// Categories lists the fixed categories in display order. CategoryOther is the catch-all.
var Categories = []Category{CategoryApparel, CategoryElectronics, CategoryHobby, CategoryOther}

type (
	RecordType string
	Status     string
	Category   string

	// Record is a purchased item (optionally sold) or a standalone expense.
	Record struct {
		ID                string              `json:"id"`
		RecordType        RecordType          `json:"recordType"`
		Name              string              `json:"name"`
		Category          Category            `json:"category"`
		PurchasePrice     decimal.Decimal     `json:"purchasePrice"`
		PurchaseDate      string              `json:"purchaseDate"`
		MiscExpense       decimal.Decimal     `json:"miscExpense"`
		ConsumableExpense decimal.Decimal     `json:"consumableExpense"`
		SellingPrice      decimal.NullDecimal `json:"sellingPrice"`
		SoldDate          *string             `json:"soldDate"`
		Status            Status              `json:"status"`
		Memo              string              `json:"memo"`
		CreatedAt         string              `json:"createdAt"`
	}

	// ItemInput carries the user-editable fields of a purchased item.
	ItemInput struct {
		Name              string
		Category          Category
		PurchasePrice     decimal.Decimal
		PurchaseDate      string
		MiscExpense       decimal.Decimal
		ConsumableExpense decimal.Decimal
		Memo              string
	}

	// ExpenseInput carries the user-editable fields of a standalone expense.
	ExpenseInput struct {
		Name              string
		Category          Category
		Date              string
		MiscExpense       decimal.Decimal
		ConsumableExpense decimal.Decimal
		Memo              string
	}
)

var (
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyName      = errors.New("empty name")
	ErrNotAnItem      = errors.New("record is not an item")
	ErrNegativeAmount = errors.New("amount cannot be negative")
)

// Valid reports whether t is a known record type.
func (t RecordType) Valid() bool {
	return t == TypeItem || t == TypeExpense
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusInStock || s == StatusSold
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps unknown values to the catch-all category.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// IsItem reports whether the record is an item.
func (r Record) IsItem() bool { return r.RecordType == TypeItem }

// IsExpense reports whether the record is a standalone expense.
func (r Record) IsExpense() bool { return r.RecordType == TypeExpense }

// HasSale reports whether both halves of a sale are present.
func (r Record) HasSale() bool {
	return r.SellingPrice.Valid && r.SoldDate != nil
}

func (in ItemInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if len(in.Name) > 200 {
		return fmt.Errorf("%w: name too long (max 200 characters)", ErrInvalidRecord)
	}
	if _, ok := ParseDate(in.PurchaseDate); !ok {
		return ErrInvalidDate
	}
	for _, d := range []decimal.Decimal{in.PurchasePrice, in.MiscExpense, in.ConsumableExpense} {
		if d.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

func (in ExpenseInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrEmptyName
	}
	if len(in.Name) > 200 {
		return fmt.Errorf("%w: name too long (max 200 characters)", ErrInvalidRecord)
	}
	if _, ok := ParseDate(in.Date); !ok {
		return ErrInvalidDate
	}
	if in.MiscExpense.IsNegative() || in.ConsumableExpense.IsNegative() {
		return ErrNegativeAmount
	}
	if in.MiscExpense.IsZero() && in.ConsumableExpense.IsZero() {
		return ErrInvalidAmount
	}
	return nil
}

// NewItem builds an in-stock item with a fresh id.
func NewItem(in ItemInput, now time.Time) (Record, error) {
	if err := in.Validate(); err != nil {
		return Record{}, err
	}
	return Record{
		ID:                uuid.New().String(),
		RecordType:        TypeItem,
		Name:              strings.TrimSpace(in.Name),
		Category:          ParseCategory(string(in.Category)),
		PurchasePrice:     in.PurchasePrice,
		PurchaseDate:      in.PurchaseDate,
		MiscExpense:       in.MiscExpense,
		ConsumableExpense: in.ConsumableExpense,
		Status:            StatusInStock,
		Memo:              in.Memo,
		CreatedAt:         now.UTC().Format(time.RFC3339),
	}, nil
}

// NewExpense builds a standalone expense. Expenses carry no purchase price,
// no sale and are always settled.
func NewExpense(in ExpenseInput, now time.Time) (Record, error) {
	if err := in.Validate(); err != nil {
		return Record{}, err
	}
	return Record{
		ID:                uuid.New().String(),
		RecordType:        TypeExpense,
		Name:              strings.TrimSpace(in.Name),
		Category:          ParseCategory(string(in.Category)),
		PurchasePrice:     decimal.Zero,
		PurchaseDate:      in.Date,
		MiscExpense:       in.MiscExpense,
		ConsumableExpense: in.ConsumableExpense,
		Status:            StatusSold,
		Memo:              in.Memo,
		CreatedAt:         now.UTC().Format(time.RFC3339),
	}, nil
}

// MarkSold returns a copy of r with both sale fields set.
func MarkSold(r Record, price decimal.Decimal, date string) (Record, error) {
	if !r.IsItem() {
		return Record{}, ErrNotAnItem
	}
	if price.IsNegative() {
		return Record{}, ErrNegativeAmount
	}
	if _, ok := ParseDate(date); !ok {
		return Record{}, ErrInvalidDate
	}
	r.SellingPrice = decimal.NewNullDecimal(price)
	r.SoldDate = &date
	r.Status = StatusSold
	return r, nil
}

// MarkUnsold returns a copy of r back in stock with both sale fields cleared.
func MarkUnsold(r Record) (Record, error) {
	if !r.IsItem() {
		return Record{}, ErrNotAnItem
	}
	r.SellingPrice = decimal.NullDecimal{}
	r.SoldDate = nil
	r.Status = StatusInStock
	return r, nil
}
