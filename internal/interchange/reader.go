package interchange

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// rowReader splits the table into rows of cells. Quoted cells keep every
// byte between the quotes, including \r\n, with doubled quotes collapsed.
// Outside quotes a row ends at \n or \r\n. A quote that does not open a
// cell is kept as text.
type rowReader struct {
	r *bufio.Reader
}

func newRowReader(r io.Reader) *rowReader {
	return &rowReader{r: bufio.NewReader(r)}
}

// Read returns the next row, or io.EOF when the input is exhausted. An
// unterminated quoted cell at end of input ends the row.
func (rr *rowReader) Read() ([]string, error) {
	var (
		row     []string
		cell    strings.Builder
		inQuote bool
		quoted  bool
		started bool
	)
	for {
		b, err := rr.r.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return nil, err
			}
			if !started {
				return nil, io.EOF
			}
			return append(row, cell.String()), nil
		}
		started = true

		if inQuote {
			if b != '"' {
				cell.WriteByte(b)
				continue
			}
			if next, err := rr.r.Peek(1); err == nil && next[0] == '"' {
				rr.r.ReadByte()
				cell.WriteByte('"')
				continue
			}
			inQuote = false
			continue
		}

		switch b {
		case '"':
			if cell.Len() == 0 && !quoted {
				inQuote, quoted = true, true
				continue
			}
			cell.WriteByte(b)
		case ',':
			row = append(row, cell.String())
			cell.Reset()
			quoted = false
		case '\r':
			if next, err := rr.r.Peek(1); err == nil && next[0] == '\n' {
				continue
			}
			cell.WriteByte(b)
		case '\n':
			return append(row, cell.String()), nil
		default:
			cell.WriteByte(b)
		}
	}
}
