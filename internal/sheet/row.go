// Package sheet turns published spreadsheet exports into header-keyed rows.
package sheet

import (
	"strings"
	"unicode"
)

// Row maps a header label to the trimmed cell value in that column.
type Row map[string]string

// Get returns the value for key, or "" when the column is absent.
func (r Row) Get(key string) string {
	if r == nil {
		return ""
	}
	return r[key]
}

// zipRows pairs every record after the first with the header labels taken
// from the first record. Short records read as "" for the missing trailing
// columns; cells beyond the header count are dropped.
func zipRows(records [][]string) []Row {
	if len(records) == 0 {
		return []Row{}
	}
	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, cols := range records[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			var v string
			if i < len(cols) {
				v = cols[i]
			}
			row[trim(h)] = trim(v)
		}
		rows = append(rows, row)
	}
	return rows
}

// trim strips whitespace and byte order marks from both ends.
func trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff'
	})
}
