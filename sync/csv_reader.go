package sync

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one data row of a CSV export: column name to value, with the
// columns kept in file order.
type Row struct {
	// Number is the 1-based position of the row among the data rows.
	Number  int
	columns []string
	values  map[string]string
}

// NewRow builds a Row. Columns missing from values read as empty strings.
func NewRow(number int, columns []string, values map[string]string) Row {
	return Row{Number: number, columns: columns, values: values}
}

func (r Row) Get(column string) string {
	return r.values[column]
}

func (r Row) Columns() []string {
	return r.columns
}

// Rows is a finite, single pass sequence of CSV rows.
type Rows interface {
	Next() bool
	Row() Row
	Err() error
}

// RowReader streams the data rows of a CSV file with a header row.
//
//	reader, err := OpenRowReader(filename)
//	if err != nil {
//		return err
//	}
//	defer reader.Close()
//	for reader.Next() {
//		row := reader.Row()
//	}
//	if err := reader.Err(); err != nil {
//		return err
//	}
type RowReader struct {
	closer    io.Closer
	reader    *csv.Reader
	headers   []string
	current   Row
	rowNumber int
	err       error
}

// OpenRowReader opens filename and reads its header row.
func OpenRowReader(filename string) (*RowReader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	reader, err := NewRowReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	reader.closer = file
	return reader, nil
}

// NewRowReader reads the header row from r.
func NewRowReader(r io.Reader) (*RowReader, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	// Allow rows with a different number of fields than the header.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	p := &RowReader{reader: reader}
	if err := p.readHeaders(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *RowReader) readHeaders() error {
	row, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("missing header row")
	}
	if err != nil {
		return fmt.Errorf("error reading header row: %w", err)
	}
	headers := make([]string, len(row))
	for i, h := range row {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		headers[i] = strings.TrimSpace(h)
	}
	p.headers = headers
	return nil
}

// Next advances to the next non-empty row. Returns false when there are no more rows.
func (p *RowReader) Next() bool {
	for p.err == nil {
		record, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.rowNumber+1, err)
			return false
		}
		if isRowEmpty(record) {
			continue
		}

		p.rowNumber++
		values := make(map[string]string, len(p.headers))
		for i, header := range p.headers {
			if i < len(record) {
				values[header] = strings.TrimSpace(record[i])
			} else {
				values[header] = ""
			}
		}
		p.current = NewRow(p.rowNumber, p.headers, values)
		return true
	}
	return false
}

func (p *RowReader) Row() Row {
	return p.current
}

func (p *RowReader) Headers() []string {
	return p.headers
}

func (p *RowReader) HasColumn(column string) bool {
	for _, h := range p.headers {
		if h == column {
			return true
		}
	}
	return false
}

// RowNumber returns the number of the current row (1-based).
func (p *RowReader) RowNumber() int {
	return p.rowNumber
}

func (p *RowReader) Err() error {
	return p.err
}

func (p *RowReader) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

func isRowEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
