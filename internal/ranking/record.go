package ranking

import (
	"regexp"
	"strings"
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// RawRecord is one parsed data row keyed by the header columns. Every record
// carries every header column; fields missing from a short row are "".
type RawRecord struct {
	columns []string
	values  []string
}

// newRawRecord maps fields positionally onto columns. Extra fields beyond the
// header are dropped.
func newRawRecord(columns, fields []string) RawRecord {
	values := make([]string, len(columns))
	for i := range columns {
		if i < len(fields) {
			values[i] = fields[i]
		}
	}
	return RawRecord{columns: columns, values: values}
}

// Get returns the value stored under an exact column name. When the header
// repeats a name, the leftmost column wins.
func (r RawRecord) Get(column string) (string, bool) {
	for i, c := range r.columns {
		if c == column {
			return r.values[i], true
		}
	}
	return "", false
}

// Lookup returns the value of the first column in names that the record has.
func (r RawRecord) Lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := r.Get(name); ok {
			return v, true
		}
	}
	return "", false
}

// Columns returns the header columns in declaration order.
func (r RawRecord) Columns() []string { return r.columns }

// Identifier is the first field of the row (the team column).
func (r RawRecord) Identifier() string {
	if len(r.values) == 0 {
		return ""
	}
	return r.values[0]
}

// splitLines splits on either line-ending convention and drops blank lines.
func splitLines(text string) []string {
	var lines []string
	for _, line := range lineBreak.Split(text, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitHeader splits the header on every comma. Quotes have no meaning here.
func splitHeader(line string) []string {
	columns := strings.Split(line, ",")
	for i, c := range columns {
		columns[i] = strings.TrimSpace(c)
	}
	return columns
}

// splitFields splits a data row on commas outside double quotes. Quote
// characters toggle the quoted state and never reach the field value.
func splitFields(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}
