package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported workbook format")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrUnreadable        = errors.New("unreadable workbook")
)

// Sheet is a named grid of rows. Columns holds the row keys in column order.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
}

// Workbook is an in-memory, ordered collection of sheets
type Workbook struct {
	sheets []Sheet
}

// NewWorkbook builds a workbook from already-parsed sheets
func NewWorkbook(sheets ...Sheet) *Workbook {
	return &Workbook{sheets: sheets}
}

// SheetNames returns sheet names in workbook order
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.Name
	}
	return names
}

// Rows returns the data rows of the named sheet
func (w *Workbook) Rows(name string) ([]Row, error) {
	for _, s := range w.sheets {
		if s.Name == name {
			return s.Rows, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// Columns returns the row keys of the named sheet in column order
func (w *Workbook) Columns(name string) ([]string, error) {
	for _, s := range w.sheets {
		if s.Name == name {
			return s.Columns, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

// Open reads a workbook from disk, choosing the reader by file extension.
func Open(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(filepath.Base(path), f)
}

// Read parses r as the format implied by fileName's extension.
// .xlsx/.xlsm are read with excelize; .csv becomes a one-sheet workbook named
// after the file.
func Read(fileName string, r io.Reader) (*Workbook, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".xlsx", ".xlsm", ".xltx":
		return ReadXLSX(r)
	case ".csv":
		name := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
		return ReadCSV(name, r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadXLSX parses every worksheet. Cells are read unformatted so that numbers
// keep their stored digits instead of display formatting.
func ReadXLSX(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open workbook: %w", ErrUnreadable, err)
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		grid, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read sheet %q: %w", ErrUnreadable, name, err)
		}
		columns, rows := gridToRows(grid)
		wb.sheets = append(wb.sheets, Sheet{Name: name, Columns: columns, Rows: rows})
	}
	return wb, nil
}

// ReadCSV parses a CSV file as a single sheet
func ReadCSV(name string, r io.Reader) (*Workbook, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	grid, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %w", ErrUnreadable, err)
	}
	columns, rows := gridToRows(grid)
	return NewWorkbook(Sheet{Name: name, Columns: columns, Rows: rows}), nil
}

// gridToRows turns a header row plus data rows into the row keys and Rows.
// Short rows are padded with "", blank headers become __EMPTY, __EMPTY_1, ..., repeated headers get a
// _1, _2 suffix, and rows with no content are dropped.
func gridToRows(grid [][]string) ([]string, []Row) {
	if len(grid) == 0 {
		return nil, nil
	}
	headers := headerKeys(grid[0])

	rows := make([]Row, 0, len(grid)-1)
	for _, record := range grid[1:] {
		if isBlank(record) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// headerKeys also drops the UTF-8 byte-order mark that "CSV UTF-8" exports put
// before the first header.
func headerKeys(raw []string) []string {
	seen := make(map[string]int, len(raw))
	keys := make([]string, len(raw))
	empty := 0
	for i, h := range raw {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		key := strings.TrimSpace(h)
		if key == "" {
			key = "__EMPTY"
			if empty > 0 {
				key += "_" + strconv.Itoa(empty)
			}
			empty++
		}
		if n, dup := seen[key]; dup {
			seen[key] = n + 1
			key = key + "_" + strconv.Itoa(n+1)
		} else {
			seen[key] = 0
		}
		keys[i] = key
	}
	return keys
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
