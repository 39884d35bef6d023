package entities

import (
	"strconv"
	"strings"
)

// DefaultHeaders names the columns of a five-column data file.
var DefaultHeaders = []string{"first_name", "last_name", "gender", "age", "id"}

// Row is one line of the input file.
type Row struct {
	Index  int      `json:"index"`  // 0-based position in the file
	Values []string `json:"values"` // cell values in column order
}

// Number returns the 1-based entry number used in progress messages.
func (r Row) Number() int {
	return r.Index + 1
}

// Value returns the trimmed cell at col and whether it holds data.
// Empty cells and cells past the end of a ragged row are missing.
func (r Row) Value(col int) (string, bool) {
	if col < 0 || col >= len(r.Values) {
		return "", false
	}
	v := strings.TrimSpace(r.Values[col])
	if v == "" {
		return "", false
	}
	return v, true
}

// Fields pairs each value with its header, for logging.
func (r Row) Fields(headers []string) map[string]string {
	out := make(map[string]string, len(r.Values))
	for i, v := range r.Values {
		key := ColumnName(i)
		if i < len(headers) {
			key = headers[i]
		}
		out[key] = v
	}
	return out
}

// Dataset is the loaded, possibly truncated, content of a data file.
type Dataset struct {
	Path      string   `json:"path"`
	Headers   []string `json:"headers"`
	Rows      []Row    `json:"rows"`
	Delimiter rune     `json:"delimiter"`
	Total     int      `json:"total"` // rows in the file before truncation
}

// Len returns the number of rows that will be processed.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Truncated reports whether rows were dropped by a limit.
func (d *Dataset) Truncated() bool {
	return len(d.Rows) < d.Total
}

// ColumnName is the positional header used when the file is not five columns wide.
func ColumnName(i int) string {
	return "col_" + strconv.Itoa(i)
}
