package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ReadCSV reads a delimited file into records. The first record is the header.
func ReadCSV(path string, delimiter string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := ParseCSV(f, delimiter)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// ParseCSV reads delimited records from r
func ParseCSV(r io.Reader, delimiter string) ([][]string, error) {
	comma, size := utf8.DecodeRuneInString(delimiter)
	if size == 0 || size != len(delimiter) {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}

	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// table gives header-indexed access to records
type table struct {
	columns map[string]int
	rows    [][]string
}

func newTable(records [][]string) *table {
	t := &table{columns: make(map[string]int)}
	if len(records) == 0 {
		return t
	}
	for i, name := range records[0] {
		t.columns[strings.TrimSpace(name)] = i
	}
	for _, row := range records[1:] {
		if isBlank(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t
}

func (t *table) has(column string) bool {
	_, ok := t.columns[column]
	return ok
}

// missing returns the required columns absent from the header
func (t *table) missing(required []string) []string {
	var missing []string
	for _, column := range required {
		if !t.has(column) {
			missing = append(missing, column)
		}
	}
	return missing
}

// get returns the trimmed cell value, or "" when the column or cell is absent
func (t *table) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseNumber parses a number written with the given decimal separator
func ParseNumber(s, decimalSeparator string) (float64, error) {
	s = strings.TrimSpace(s)
	if decimalSeparator != "" && decimalSeparator != "." {
		s = strings.ReplaceAll(s, decimalSeparator, ".")
	}
	return strconv.ParseFloat(s, 64)
}

// FormatNumber renders a number with a fixed precision and the given decimal separator
func FormatNumber(v float64, precision int, decimalSeparator string) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if decimalSeparator != "" && decimalSeparator != "." {
		s = strings.Replace(s, ".", decimalSeparator, 1)
	}
	return s
}

// parseInt accepts integral values that a spreadsheet may have written as "3.0"
func parseInt(s, decimalSeparator string) (int, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n, nil
	}
	f, err := ParseNumber(s, decimalSeparator)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}
