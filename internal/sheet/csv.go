package sheet

import "strings"

// ParseCSV tokenizes a CSV export in one left-to-right pass and returns one
// Row per data line. The first line supplies the header labels.
//
// The tokenizer is permissive: an unterminated quoted field consumes the rest
// of the input as a single cell and no error is ever reported.
func ParseCSV(text string) []Row {
	var (
		records  [][]string
		record   []string
		field    strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuotes {
			switch {
			case c == '"' && i+1 < len(text) && text[i+1] == '"':
				field.WriteByte('"')
				i++
			case c == '"':
				inQuotes = false
			default:
				field.WriteByte(c)
			}
			continue
		}
		switch c {
		case '"':
			inQuotes = true
		case ',':
			record = append(record, field.String())
			field.Reset()
		case '\r':
		case '\n':
			record = append(record, field.String())
			records = append(records, record)
			record = nil
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}

	// A trailing comma keeps the final empty cell.
	if field.Len() > 0 || strings.HasSuffix(text, ",") {
		record = append(record, field.String())
	}
	if len(record) > 0 {
		records = append(records, record)
	}
	return zipRows(records)
}
