package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pierrec/lz4/v4"
)

// lz4Ext marks inputs stored as LZ4 frames.
const lz4Ext = ".lz4"

// Table is a CSV file read column-wise.
type Table struct {
	// Header lists the column names in file order.
	Header []string
	rows   [][]string
}

// ReadTable reads a CSV document with a header row.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}

		return nil, fmt.Errorf("read header: %w", err)
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &Table{Header: header, rows: rows}, nil
}

// OpenTable reads a CSV file, decompressing it first when the name ends in .lz4.
func OpenTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.EqualFold(filepath.Ext(path), lz4Ext) {
		r = lz4.NewReader(f)
	}

	t, err := ReadTable(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}

// Rows returns the number of data rows.
func (t *Table) Rows() int {
	return len(t.rows)
}

// Column returns the raw cells of the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.index(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrColumnNotFound, name, strings.Join(t.Header, ", "))
	}

	cells := make([]string, len(t.rows))
	for i, row := range t.rows {
		if idx < len(row) {
			cells[i] = strings.TrimSpace(row[idx])
		}
	}

	return cells, nil
}

// Series returns the series of valueColumn labelled by timeColumn. An empty
// timeColumn yields an unlabeled series.
func (t *Table) Series(timeColumn, valueColumn string) (Series, error) {
	cells, err := t.Column(valueColumn)
	if err != nil {
		return Series{}, err
	}

	values := make([]float64, len(cells))

	for i, cell := range cells {
		v, parseErr := strconv.ParseFloat(cell, 64)
		if parseErr != nil {
			// Row numbers count the header as row 1.
			return Series{}, fmt.Errorf("%w: column %q row %d: %q", ErrBadValue, valueColumn, i+2, cell)
		}

		values[i] = v
	}

	var labels []string

	if timeColumn != "" {
		labels, err = t.Column(timeColumn)
		if err != nil {
			return Series{}, err
		}
	}

	return New(valueColumn, labels, values)
}

func (t *Table) index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}

	return -1
}

// WriteCSV writes s as a two-column CSV document.
func WriteCSV(w io.Writer, s Series, timeColumn string) error {
	cw := csv.NewWriter(w)

	err := cw.Write([]string{timeColumn, s.Name})
	if err != nil {
		return err
	}

	for i, v := range s.Values {
		err = cw.Write([]string{s.Label(i), strconv.FormatFloat(v, 'g', -1, 64)})
		if err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
