// Package flatfile reads and writes the tabular file formats the transfer
// engine exchanges with the outside world. The first row of every file is
// the header; all cell values are carried as strings.
package flatfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/databridge-io/databridge/pkg/apperrors"
	"github.com/databridge-io/databridge/pkg/schema"
)

// Parse reads a flat file into header-keyed rows. The format is chosen by
// the filename extension: .csv and .xlsx are supported, anything else
// (including legacy binary .xls) fails with apperrors.ErrUnsupportedFormat.
// Rows shorter than the header are padded with empty cells.
func Parse(r io.Reader, filename string) ([]schema.Row, []string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return parseCSV(r)
	case ".xlsx":
		return parseXLSX(r)
	default:
		return nil, nil, fmt.Errorf("%s: %w", filename, apperrors.ErrUnsupportedFormat)
	}
}

func parseCSV(r io.Reader) ([]schema.Row, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read csv: missing header row")
	}

	return keyRows(records[0], records[1:]), records[0], nil
}

func parseXLSX(r io.Reader) ([]schema.Row, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("open workbook: no sheets")
	}

	// Only the first sheet participates in a transfer.
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read sheet %s: missing header row", sheets[0])
	}

	return keyRows(records[0], records[1:]), records[0], nil
}

// keyRows zips each record against the header, preserving header order.
func keyRows(header []string, records [][]string) []schema.Row {
	rows := make([]schema.Row, 0, len(records))
	for _, record := range records {
		row := schema.NewRow()
		for i, column := range header {
			if i < len(record) {
				row.Set(column, record[i])
			} else {
				row.Set(column, "")
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// SuggestTableName derives a fresh destination table name from a filename:
// the sanitized base name suffixed with the current unix-millisecond clock,
// so repeated uploads of the same file land in distinct tables.
func SuggestTableName(filename string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "t_" + name
	}

	return fmt.Sprintf("%s_%d", name, now.UnixMilli())
}

// Project narrows rows to the selected columns, in selection order. An
// empty selection passes rows through untouched. Selected columns absent
// from a row still appear, holding the empty string, so every projected
// row shares one shape.
func Project(rows []schema.Row, selection []string) []schema.Row {
	if len(selection) == 0 {
		return rows
	}

	projected := make([]schema.Row, 0, len(rows))
	for _, row := range rows {
		p := schema.NewRow()
		for _, column := range selection {
			if v, ok := row.Get(column); ok {
				p.Set(column, v)
			} else {
				p.Set(column, "")
			}
		}
		projected = append(projected, p)
	}
	return projected
}

// WriteCSV writes rows as CSV with the given column order. Cells hold the
// string form of whatever value the row carries.
func WriteCSV(w io.Writer, columns []string, rows []schema.Row) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, column := range columns {
			record[i] = cellString(row, column)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes rows as a single-sheet workbook with the given column
// order, header first.
func WriteXLSX(w io.Writer, columns []string, rows []schema.Row) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(columns))
	for i, column := range columns {
		header[i] = column
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for n, row := range rows {
		record := make([]interface{}, len(columns))
		for i, column := range columns {
			record[i] = cellString(row, column)
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return fmt.Errorf("address row %d: %w", n+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return fmt.Errorf("write row %d: %w", n+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellString(row schema.Row, column string) string {
	v, ok := row.Get(column)
	if !ok || v == nil {
		return ""
	}
	if s, isString := v.(string); isString {
		return s
	}
	return fmt.Sprint(v)
}
