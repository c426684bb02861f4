// Package source reads Amazon Ads bulk exports from spreadsheet files,
// locally or from S3, into ordered report rows.
package source

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lvonguyen/ppc-analyzer/internal/normalizer"
)

var (
	// ErrNoSheets is returned for a workbook without sheets
	ErrNoSheets = errors.New("workbook contains no sheets")
	// ErrNoData is returned when no sheet holds data rows
	ErrNoData = errors.New("no data found in the uploaded file: make sure the workbook contains report rows")
	// ErrSheetNotFound is returned when a named sheet does not exist
	ErrSheetNotFound = errors.New("sheet not found")
)

// Preferred sheet name patterns, tried in order
var preferredSheets = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sponsored.*products.*campaigns`),
	regexp.MustCompile(`(?i)sponsored.*products`),
	regexp.MustCompile(`(?i)campaigns`),
	regexp.MustCompile(`(?i)search.*terms`),
	regexp.MustCompile(`(?i)keywords`),
	regexp.MustCompile(`(?i)targeting`),
}

// skippedSheets never hold analyzable rows
var skippedSheets = regexp.MustCompile(`(?i)portfolio|summary|overview`)

const emptyHeader = "__EMPTY"

// Sheet is one worksheet read into rows
type Sheet struct {
	Name string
	Rows []normalizer.Row
}

// Workbook wraps an opened spreadsheet
type Workbook struct {
	file *excelize.File
}

// Open opens a workbook from disk
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Workbook{file: f}, nil
}

// OpenReader opens a workbook from a stream
func OpenReader(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return &Workbook{file: f}, nil
}

// Close releases the workbook
func (w *Workbook) Close() error {
	return w.file.Close()
}

// ListSheets returns sheet names in workbook order
func (w *Workbook) ListSheets() []string {
	return w.file.GetSheetList()
}

// ReadSheet reads a sheet using its first row as column names. Missing
// cells are blank and fully blank rows are skipped.
func (w *Workbook) ReadSheet(name string) ([]normalizer.Row, error) {
	if !w.hasSheet(name) {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
	}

	grid, err := w.file.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	if len(grid) == 0 {
		return []normalizer.Row{}, nil
	}

	// Cells past the header row get generated column names.
	width := 0
	for _, cells := range grid {
		width = max(width, len(cells))
	}
	header := make([]string, width)
	copy(header, grid[0])

	headers := Headers(header)
	rows := make([]normalizer.Row, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(normalizer.Row, len(headers))
		blank := true
		for i, h := range headers {
			v := normalizer.Value{}
			if i < len(cells) && cells[i] != "" {
				v = normalizer.Text(cells[i])
				blank = false
			}
			row[i] = normalizer.Cell{Column: h, Value: v}
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// SelectSheet picks the sheet to analyze: the first sheet with data that
// matches a preferred pattern, else the first sheet with data that is not
// a portfolio, summary or overview.
func (w *Workbook) SelectSheet() (*Sheet, error) {
	names := w.ListSheets()
	if len(names) == 0 {
		return nil, ErrNoSheets
	}

	cache := make(map[string][]normalizer.Row, len(names))
	read := func(name string) ([]normalizer.Row, error) {
		if rows, ok := cache[name]; ok {
			return rows, nil
		}
		rows, err := w.ReadSheet(name)
		if err != nil {
			return nil, err
		}
		cache[name] = rows
		return rows, nil
	}

	for _, pattern := range preferredSheets {
		for _, name := range names {
			if !pattern.MatchString(name) {
				continue
			}
			rows, err := read(name)
			if err != nil {
				return nil, err
			}
			if len(rows) > 0 {
				return &Sheet{Name: name, Rows: rows}, nil
			}
		}
	}

	for _, name := range names {
		if skippedSheets.MatchString(name) {
			continue
		}
		rows, err := read(name)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return &Sheet{Name: name, Rows: rows}, nil
		}
	}

	return nil, ErrNoData
}

// Sheet reads a named sheet, or selects one when name is empty
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	if name == "" {
		return w.SelectSheet()
	}
	rows, err := w.ReadSheet(name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", ErrNoData, name)
	}
	return &Sheet{Name: name, Rows: rows}, nil
}

func (w *Workbook) hasSheet(name string) bool {
	for _, s := range w.ListSheets() {
		if s == name {
			return true
		}
	}
	return false
}

// Headers names columns from a header row. Blank headers become __EMPTY,
// __EMPTY_1 and so on; repeated headers get a _N suffix.
func Headers(raw []string) []string {
	used := make(map[string]bool, len(raw))
	next := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			h = emptyHeader
		}
		name := h
		for used[name] {
			next[h]++
			name = h + "_" + strconv.Itoa(next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
