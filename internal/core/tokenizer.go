package core

import "strings"

// Delimiter separates fields within a line.
const Delimiter = ','

// Quote toggles quoted mode. It is consumed, never stored.
const Quote = '"'

// Tokenize splits one CSV line into trimmed fields.
//
// A double quote toggles quoted mode; while quoted, the delimiter is kept as
// data. Doubled quotes are not an escape: "a""b" yields ab. An unterminated
// quote is not an error, the rest of the line is simply read as quoted.
func Tokenize(line string) []string {
	fields := make([]string, 0, strings.Count(line, string(Delimiter))+1)

	var current strings.Builder
	current.Grow(len(line))
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == Quote:
			inQuotes = !inQuotes
		case c == Delimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}
