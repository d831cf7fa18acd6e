// Package dataset loads the release-notes table from a CSV file.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// columnCount is the number of positional columns every dataset file carries:
// start date, end date, kind, module, description.
const columnCount = 5

// Column headers used when rendering records as a table.
var Columns = [columnCount]string{"Fecha Inicio", "Fecha Fin", "Tipo", "Modulo", "Descripcion"}

// ErrColumns is returned when the header row does not have exactly five columns.
var ErrColumns = errors.New("dataset must have exactly 5 columns")

// Record is one release note. Dates are kept as the text found in the file.
type Record struct {
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Kind        string `json:"kind"`
	Module      string `json:"module"`
	Description string `json:"description"`
}

// Fields returns the record values in column order.
func (r Record) Fields() []string {
	return []string{r.StartDate, r.EndDate, r.Kind, r.Module, r.Description}
}

// Loader produces the full dataset. Implementations must not cache: every
// call reflects the current contents of the source.
type Loader interface {
	Load() ([]Record, error)
}

// File loads records from a CSV file on disk.
type File struct {
	Path string
}

// NewFile returns a Loader reading the CSV file at path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Load reads and parses the whole file.
func (f *File) Load() ([]Record, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer fh.Close()

	records, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", f.Path, err)
	}
	return records, nil
}

// Parse reads CSV data with a header row. Header names are ignored; columns
// are mapped by position. Short rows are padded with empty strings; a row
// wider than the header fails with ErrColumns.
func Parse(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if len(header) != columnCount {
		return nil, fmt.Errorf("%w: header has %d", ErrColumns, len(header))
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", len(records)+2, err)
		}
		if isBlank(row) {
			continue
		}
		if len(row) > columnCount {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d", ErrColumns, line, len(row))
		}
		records = append(records, fromRow(row))
	}
	return records, nil
}

func fromRow(row []string) Record {
	var cells [columnCount]string
	copy(cells[:], row)
	return Record{
		StartDate:   cells[0],
		EndDate:     cells[1],
		Kind:        cells[2],
		Module:      cells[3],
		Description: cells[4],
	}
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
