package docmodel

import (
	"encoding/csv"
	"io"
	"strings"
)

// LoadCSV reads a CSV file as a single-table document. The first record
// becomes the header row of the grid.
func LoadCSV(r io.Reader, name string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ParseError{Reason: "parse csv", Err: err}
	}
	if len(records) == 0 {
		return nil, &ParseError{Reason: "document has no elements"}
	}

	grid := make([][]Cell, 0, len(records))
	for _, record := range records {
		row := make([]Cell, 0, len(record))
		for col, field := range record {
			row = append(row, Cell{Text: field, ColSpan: 1, StartCol: col})
		}
		grid = append(grid, row)
	}

	return &Document{
		Name: strings.TrimSuffix(name, ".csv"),
		Body: []Element{{Label: LabelTable, Table: &TableData{Grid: grid}}},
		refs: make(map[string]*Element),
	}, nil
}
