// Package ingest decodes uploaded spreadsheets into raw tables and validates
// them into canonical records.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "smart-dashboard/internal/errors"
)

// RawTable is a decoded sheet before any header mapping.
type RawTable struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// Read decodes a .xlsx or .csv stream. skipRows lines of leading content are
// discarded before the header row. Every failure is a *errors.ParseError.
func Read(name string, r io.Reader, skipRows int) (*RawTable, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv", ".txt":
		records, err = readCSV(r)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(name))
	}
	if err != nil {
		return nil, &apperrors.ParseError{Source: name, Cause: err}
	}

	return tableFrom(name, records, skipRows)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	// Raw values keep number formats such as "#,##0" from leaking into cells.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read: %w", err)
	}
	return records, nil
}

func tableFrom(name string, records [][]string, skipRows int) (*RawTable, error) {
	if skipRows < 0 {
		skipRows = 0
	}
	if len(records) <= skipRows {
		return nil, &apperrors.ParseError{Source: name, Cause: fmt.Errorf("no header row after skipping %d rows", skipRows)}
	}

	records = records[skipRows:]
	table := &RawTable{
		Source:  name,
		Headers: records[0],
	}

	for _, row := range records[1:] {
		if blank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
