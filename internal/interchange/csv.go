// Package interchange reads and writes the 13-column text table used for
// import, export, backups and the spreadsheet mirror.
package interchange

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"stockflow/internal/core"
)

// Header is the fixed column order of the table.
var Header = []string{
	"id", "recordType", "name", "category", "purchasePrice", "purchaseDate",
	"miscExpense", "consumableExpense", "sellingPrice", "soldDate", "status",
	"memo", "createdAt",
}

// numeric columns parse blank cells as zero, except sellingPrice which
// becomes null.
var numericColumns = map[string]bool{
	"purchasePrice":     true,
	"miscExpense":       true,
	"consumableExpense": true,
	"sellingPrice":      true,
}

// Row renders a record as table cells in Header order.
func Row(r core.Record) []string {
	selling := ""
	if r.SellingPrice.Valid {
		selling = r.SellingPrice.Decimal.String()
	}
	soldDate := ""
	if r.SoldDate != nil {
		soldDate = *r.SoldDate
	}
	return []string{
		r.ID,
		string(r.RecordType),
		r.Name,
		string(r.Category),
		r.PurchasePrice.String(),
		r.PurchaseDate,
		r.MiscExpense.String(),
		r.ConsumableExpense.String(),
		selling,
		soldDate,
		string(r.Status),
		r.Memo,
		r.CreatedAt,
	}
}

// Rows renders the header followed by one row per record.
func Rows(records []core.Record) [][]string {
	out := make([][]string, 0, len(records)+1)
	out = append(out, append([]string(nil), Header...))
	for _, r := range records {
		out = append(out, Row(r))
	}
	return out
}

// Export writes the header and the records. Cells containing a comma, a
// quote or a line break are quoted with inner quotes doubled.
func Export(w io.Writer, records []core.Record) error {
	bw := bufio.NewWriter(w)
	for _, row := range Rows(records) {
		for i, cell := range row {
			if i > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(escape(cell)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func escape(cell string) string {
	if !strings.ContainsAny(cell, ",\"\n\r") {
		return cell
	}
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

// ParseRows reads the table into raw objects ready for core.Normalize. A
// first row equal to Header is skipped; any other first row is data. Blank
// lines are ignored and rows may have any number of cells.
func ParseRows(r io.Reader) ([]any, error) {
	rr := newRowReader(r)

	var out []any
	first := true
	for {
		row, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		out = append(out, rowToRaw(row))
	}
	return out, nil
}

// Import parses the table and normalizes every row.
func Import(r io.Reader) ([]core.Record, []core.Rejection, error) {
	raw, err := ParseRows(r)
	if err != nil {
		return nil, nil, err
	}
	records, rejected := core.NormalizeAll(raw)
	return records, rejected, nil
}

func isHeader(row []string) bool {
	if len(row) != len(Header) {
		return false
	}
	for i, h := range Header {
		if row[i] != h {
			return false
		}
	}
	return true
}

func rowToRaw(row []string) map[string]any {
	obj := make(map[string]any, len(Header))
	for i, col := range Header {
		if i >= len(row) {
			break
		}
		cell := row[i]
		switch {
		case numericColumns[col]:
			if v, ok := numericCell(col, cell); ok {
				obj[col] = v
			}
		case col == "soldDate":
			if cell != "" {
				obj[col] = cell
			}
		default:
			obj[col] = cell
		}
	}
	return obj
}

// numericCell returns the value to hand to the normalizer. Unparseable text
// is passed through as a string so the normalizer applies its own rules.
func numericCell(col, cell string) (any, bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		if col == "sellingPrice" {
			return nil, false
		}
		return decimal.Zero, true
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return cell, true
	}
	return d, true
}
