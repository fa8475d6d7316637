package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Load reads the first sheet of an .xlsx/.xlsm workbook or a .csv file.
// name labels the dataset in schema errors.
func Load(path string, name string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx", ".xlsm":
		return loadWorkbook(path, name)
	case ".csv":
		return loadCSV(path, name)
	case ".xls":
		return nil, fmt.Errorf("%s: legacy .xls workbooks are not supported, save as .xlsx", path)
	default:
		return nil, fmt.Errorf("%s: unsupported dataset extension %q", path, ext)
	}
}

func loadCSV(path string, name string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	table := &Table{Name: name, Path: path}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		line++
		if table.Headers == nil {
			if len(record) > 0 {
				record[0] = strings.TrimPrefix(record[0], "\ufeff")
			}
			table.Headers = trimHeaders(record)
			continue
		}
		cells := make([]Cell, len(record))
		for i, raw := range record {
			cells[i] = TextCell(raw)
		}
		appendRow(table, line, cells)
	}
	if table.Headers == nil {
		return nil, fmt.Errorf("%s: no header row in %s", name, path)
	}
	return table, nil
}

func loadWorkbook(path string, name string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook %s has no sheets", name, path)
	}
	sheetName := sheets[0]

	display, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read %s rows: %w", name, err)
	}
	raw, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read %s raw rows: %w", name, err)
	}
	if len(display) == 0 {
		return nil, fmt.Errorf("%s: no header row in %s", name, path)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	classifier := workbookClassifier{file: f, sheet: sheetName, date1904: date1904, formats: map[int]Kind{}}

	table := &Table{Name: name, Path: path, Headers: trimHeaders(display[0])}
	for r := 1; r < len(display); r++ {
		cells := make([]Cell, len(display[r]))
		for c := range display[r] {
			rawValue := ""
			if r < len(raw) && c < len(raw[r]) {
				rawValue = raw[r][c]
			}
			cells[c] = classifier.cell(r+1, c+1, display[r][c], rawValue)
		}
		appendRow(table, r+1, cells)
	}
	return table, nil
}

type workbookClassifier struct {
	file     *excelize.File
	sheet    string
	date1904 bool
	formats  map[int]Kind
}

func (w workbookClassifier) cell(row, col int, display, raw string) Cell {
	if strings.TrimSpace(raw) == "" && strings.TrimSpace(display) == "" {
		return Cell{Kind: KindEmpty}
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return TextCell(display)
	}
	cellType, err := w.file.GetCellType(w.sheet, axis)
	if err != nil {
		return TextCell(display)
	}

	switch cellType {
	case excelize.CellTypeDate:
		if t, ok := parseISOTime(raw); ok {
			return Cell{Kind: KindDate, Text: display, Time: t}
		}
		return Cell{Kind: KindText, Text: display}
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeFormula:
	default:
		return Cell{Kind: KindText, Text: display}
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return TextCell(display)
	}
	switch w.formatKind(axis) {
	case KindDate:
		t, err := excelize.ExcelDateToTime(v, w.date1904)
		if err != nil {
			return Cell{Kind: KindNumber, Text: display, Number: v}
		}
		return Cell{Kind: KindDate, Text: display, Time: t}
	case KindClock:
		return Cell{Kind: KindClock, Text: display, Number: v}
	default:
		return Cell{Kind: KindNumber, Text: display, Number: v}
	}
}

func (w workbookClassifier) formatKind(axis string) Kind {
	styleID, err := w.file.GetCellStyle(w.sheet, axis)
	if err != nil || styleID == 0 {
		return KindNumber
	}
	if kind, ok := w.formats[styleID]; ok {
		return kind
	}
	kind := KindNumber
	if style, err := w.file.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
			kind = classifyFormatCode(*style.CustomNumFmt)
		} else {
			kind = classifyBuiltinFormat(style.NumFmt)
		}
	}
	w.formats[styleID] = kind
	return kind
}

// classifyBuiltinFormat maps the ECMA-376 built-in number format ids.
func classifyBuiltinFormat(id int) Kind {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return KindDate
	case id >= 18 && id <= 21, id >= 45 && id <= 47:
		return KindClock
	case id >= 27 && id <= 36, id >= 50 && id <= 58:
		return KindDate
	default:
		return KindNumber
	}
}

// classifyFormatCode inspects a custom number format code. Quoted literals,
// escaped characters and bracketed sections other than elapsed-time markers
// are ignored.
func classifyFormatCode(code string) Kind {
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '\\':
			i++
		case ch == '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				i = len(code)
				continue
			}
			section := strings.ToLower(code[i+1 : i+end])
			if strings.Trim(section, "hms") == "" {
				b.WriteString(section)
			}
			i += end
		default:
			b.WriteByte(ch)
		}
	}
	lower := strings.ToLower(b.String())
	if strings.ContainsAny(lower, "yd") {
		return KindDate
	}
	if strings.ContainsAny(lower, "hs") {
		return KindClock
	}
	return KindNumber
}

func parseISOTime(raw string) (time.Time, bool) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func trimHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

func appendRow(table *Table, line int, cells []Cell) {
	blank := true
	for _, c := range cells {
		if !c.Blank() {
			blank = false
			break
		}
	}
	if blank {
		return
	}
	for len(cells) < len(table.Headers) {
		cells = append(cells, Cell{Kind: KindEmpty})
	}
	table.Rows = append(table.Rows, Row{Line: line, Cells: cells})
}
