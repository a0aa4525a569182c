package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxXLSRows = 100000

var (
	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = []byte("\xef\xbb\xbf")

	errEmptySheet = errors.New("no data found in sheet")
)

// readSheet returns every cell of the first worksheet. Office Open XML
// workbooks (and encrypted ones, which need a password) go through excelize;
// anything else is read as a legacy BIFF .xls.
func readSheet(data []byte, password string) ([][]string, error) {
	if password != "" || bytes.HasPrefix(data, zipMagic) {
		return readXLSX(data, password)
	}
	return readXLS(data)
}

func readXLSX(data []byte, password string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{Password: password})
	if err != nil {
		return nil, fmt.Errorf("error opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errEmptySheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("error reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errEmptySheet
	}
	return rows, nil
}

func readXLS(data []byte) (rows [][]string, err error) {
	// the BIFF reader panics on truncated input
	defer func() {
		if rec := recover(); rec != nil {
			rows, err = nil, fmt.Errorf("error reading workbook: %v", rec)
		}
	}()

	workbook, err := xls.OpenReader(bytes.NewReader(data), "cp1252")
	if err != nil {
		return nil, fmt.Errorf("error creating workbook: %w", err)
	}
	if workbook == nil {
		return nil, fmt.Errorf("error creating workbook")
	}

	rows = workbook.ReadAllCells(maxXLSRows)
	if len(rows) == 0 {
		return nil, errEmptySheet
	}
	return rows, nil
}

// readCSV reads a comma or semicolon separated file. The delimiter is taken
// from whichever appears more often in the header line.
func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		reader.Comma = ';'
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	return rows, nil
}

// cell returns the trimmed value at column i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// columnIndex maps lower-cased, trimmed header names to their position.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

// missingColumns returns the required names absent from idx.
func missingColumns(idx map[string]int, required ...string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
