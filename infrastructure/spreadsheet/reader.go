// Package spreadsheet turns uploaded xlsx and csv files into header-keyed
// rows for the bulk importer.
package spreadsheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesadmin/application/services"
	"salesadmin/pkg/errors"
)

// Format is a supported upload format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf picks the format from a file name
func FormatOf(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", errors.NewValidationError("unsupported file type, expected .xlsx or .csv").
			WithCode("UNSUPPORTED_FILE_TYPE").
			WithDetail("file", filename)
	}
}

// ReadFile reads rows from r, detecting the format from filename. sheet
// selects an xlsx sheet; empty means the first one.
func ReadFile(r io.Reader, filename, sheet string) ([]services.RawRow, error) {
	format, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}
	return Read(r, format, sheet)
}

// Read reads rows in the given format. The first non-blank row is the
// header; columns with a blank header and rows with no values are dropped.
func Read(r io.Reader, format Format, sheet string) ([]services.RawRow, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r, sheet)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return nil, err
	}
	return toRows(records), nil
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewValidationError("file is not a readable xlsx workbook").WithCause(err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		var missing excelize.ErrSheetNotExist
		if stderrors.As(err, &missing) {
			return nil, errors.NewValidationError(fmt.Sprintf("sheet %q not found", sheet)).
				WithDetail("sheets", f.GetSheetList())
		}
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// readCSV sniffs the delimiter and drops a UTF-8 byte order mark
func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if bom, _ := br.Peek(3); bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	delimiter := ','
	peek, _ := br.Peek(1024)
	if line, _, found := bytes.Cut(peek, []byte("\n")); found || len(line) > 0 {
		switch {
		case bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")):
			delimiter = ';'
		case bytes.Contains(line, []byte("\t")) && !bytes.Contains(line, []byte(",")):
			delimiter = '\t'
		}
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewValidationError("file is not readable csv").WithCause(err)
	}
	return records, nil
}

func toRows(records [][]string) []services.RawRow {
	start := 0
	for start < len(records) && blankRecord(records[start]) {
		start++
	}
	if start == len(records) {
		return nil
	}

	header := records[start]
	rows := make([]services.RawRow, 0, len(records)-start-1)
	for _, record := range records[start+1:] {
		if blankRecord(record) {
			continue
		}
		row := make(services.RawRow, len(header))
		for i, name := range header {
			name = strings.TrimSpace(name)
			if name == "" || i >= len(record) {
				continue
			}
			row[name] = strings.TrimSpace(record[i])
		}
		rows = append(rows, row)
	}
	return rows
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
