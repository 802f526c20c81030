// Package views derives display-ready data from records: filtered and sorted
// lists, chart bars, formatted amounts and markdown reports.
package views

import (
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"stockflow/internal/core"
)

// SortField names a sortable column.
type SortField string

const (
	SortCreatedAt     SortField = "createdAt"
	SortPurchaseDate  SortField = "purchaseDate"
	SortSoldDate      SortField = "soldDate"
	SortName          SortField = "name"
	SortPurchasePrice SortField = "purchasePrice"
	SortSellingPrice  SortField = "sellingPrice"
	SortProfit        SortField = "profit"
)

var sortFields = []SortField{
	SortCreatedAt, SortPurchaseDate, SortSoldDate, SortName,
	SortPurchasePrice, SortSellingPrice, SortProfit,
}

// Filter narrows a record list. Zero values match everything.
type Filter struct {
	Type     core.RecordType
	Status   core.Status
	Category core.Category
	Search   string
}

type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort shows the newest records first.
var DefaultSort = Sort{Field: SortCreatedAt, Desc: true}

// ParseQuery reads type, status, category, q, sort and order parameters.
// Unknown values are ignored.
func ParseQuery(q url.Values) (Filter, Sort) {
	var f Filter
	if t := core.RecordType(q.Get("type")); t.Valid() {
		f.Type = t
	}
	if s := core.Status(q.Get("status")); s.Valid() {
		f.Status = s
	}
	if c := core.Category(q.Get("category")); c.Valid() {
		f.Category = c
	}
	f.Search = strings.TrimSpace(q.Get("q"))

	s := DefaultSort
	if field := SortField(q.Get("sort")); field.Valid() {
		s.Field = field
	}
	switch strings.ToLower(q.Get("order")) {
	case "asc":
		s.Desc = false
	case "desc":
		s.Desc = true
	}
	return f, s
}

func (f SortField) Valid() bool {
	for _, known := range sortFields {
		if f == known {
			return true
		}
	}
	return false
}

func (f Filter) Match(r core.Record) bool {
	if f.Type != "" && r.RecordType != f.Type {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Name), needle) &&
			!strings.Contains(strings.ToLower(r.Memo), needle) {
			return false
		}
	}
	return true
}

// Apply filters then stably sorts a copy of records. Records lacking the
// sort value go last regardless of direction.
func Apply(records []core.Record, f Filter, s Sort) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	if !s.Field.Valid() {
		s = DefaultSort
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, aok := sortKey(out[i], s.Field)
		b, bok := sortKey(out[j], s.Field)
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		c := a.compare(b)
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

type key struct {
	text   string
	number decimal.Decimal
	isNum  bool
}

func (k key) compare(o key) int {
	if k.isNum {
		return k.number.Cmp(o.number)
	}
	return strings.Compare(k.text, o.text)
}

func sortKey(r core.Record, field SortField) (key, bool) {
	switch field {
	case SortPurchaseDate:
		return dateKey(r.PurchaseDate)
	case SortSoldDate:
		if r.SoldDate == nil {
			return key{}, false
		}
		return dateKey(*r.SoldDate)
	case SortName:
		return key{text: strings.ToLower(r.Name)}, true
	case SortPurchasePrice:
		return key{number: r.PurchasePrice, isNum: true}, true
	case SortSellingPrice:
		if !r.SellingPrice.Valid {
			return key{}, false
		}
		return key{number: r.SellingPrice.Decimal, isNum: true}, true
	case SortProfit:
		p, ok := core.Profit(r)
		return key{number: p, isNum: true}, ok
	default:
		return key{text: r.CreatedAt}, r.CreatedAt != ""
	}
}

// dateKey normalizes any accepted date form so mixed layouts compare in
// calendar order.
func dateKey(s string) (key, bool) {
	t, ok := core.ParseDate(s)
	if !ok {
		return key{}, false
	}
	return key{text: t.UTC().Format("2006-01-02T15:04:05")}, true
}
