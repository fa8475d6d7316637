package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind classifies one spreadsheet cell.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
	// KindDate is a date-formatted numeric cell; Time holds the value.
	KindDate
	// KindClock is a time/duration-formatted numeric cell; Number holds the
	// raw day fraction.
	KindClock
)

// Cell is one typed spreadsheet value.
type Cell struct {
	Kind   Kind
	Text   string
	Number float64
	Time   time.Time
}

// TextCell builds a cell from free text, promoting numeric text to KindNumber.
func TextCell(text string) Cell {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Cell{Kind: KindEmpty, Text: text}
	}
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return Cell{Kind: KindNumber, Text: text, Number: v}
	}
	return Cell{Kind: KindText, Text: text}
}

// NumberCell builds a numeric cell.
func NumberCell(v float64) Cell {
	return Cell{Kind: KindNumber, Text: strconv.FormatFloat(v, 'f', -1, 64), Number: v}
}

// DateCell builds a date cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: KindDate, Text: t.Format("2006-01-02 15:04:05"), Time: t}
}

// Blank reports whether the cell carries no value.
func (c Cell) Blank() bool {
	return c.Kind == KindEmpty || (c.Kind == KindText && strings.TrimSpace(c.Text) == "")
}

// Value returns the canonical text of the cell: numbers render without
// display formatting, everything else as shown in the sheet.
func (c Cell) Value() string {
	switch c.Kind {
	case KindEmpty:
		return ""
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return c.Text
	}
}

// Any returns the cell as a value suitable for writing back to a workbook.
func (c Cell) Any() interface{} {
	switch c.Kind {
	case KindEmpty:
		return nil
	case KindNumber:
		return c.Number
	case KindDate:
		return c.Time
	default:
		return c.Text
	}
}

// Row is one data row; Line is the 1-based sheet row number.
type Row struct {
	Line  int
	Cells []Cell
}

// Cell returns the cell at column idx, or an empty cell when out of range.
func (r Row) Cell(idx int) Cell {
	if idx < 0 || idx >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[idx]
}

// Table is one loaded dataset: a trimmed header row plus data rows.
type Table struct {
	Name    string
	Path    string
	Headers []string
	Rows    []Row
}

// Index returns the position of an exact header, or -1.
func (t *Table) Index(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// Missing returns the required headers absent from the table, in input order.
func (t *Table) Missing(required ...string) []string {
	missing := make([]string, 0)
	for _, name := range required {
		if t.Index(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

// Require fails with a SchemaError naming every header of dataset missing
// from the table.
func (t *Table) Require(dataset string, required ...string) error {
	missing := t.Missing(required...)
	if len(missing) == 0 {
		return nil
	}
	return &SchemaError{Dataset: dataset, Missing: missing}
}

// SchemaError reports required columns absent from a dataset.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	quoted := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		quoted = append(quoted, strconv.Quote(m))
	}
	return fmt.Sprintf(
		"%s missing columns: [%s]. Ensure headers are exactly as finalized in Row-1",
		e.Dataset,
		strings.Join(quoted, ", "),
	)
}
