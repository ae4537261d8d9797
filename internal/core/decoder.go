package core

import (
	"fmt"
	"strings"
)

// DecodedRecord is one well-formed data row rebuilt into a nested record.
type DecodedRecord struct {
	Line   int // 1-based physical line in the source
	Fields Object
}

// Decode turns CSV content into nested records, one per well-formed data row.
//
// The first non-blank line is the header; each cell is a dotted field path.
// Blank lines are ignored. A data row whose field count differs from the
// header is reported to obs and dropped; decoding continues with the next
// line. Output order matches input order, and every record keeps its
// original line number.
func Decode(content string, obs Observer) ([]DecodedRecord, error) {
	obs = observerOrNop(obs)

	lines := strings.Split(content, "\n")

	headerLine := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerLine = i
			break
		}
	}
	if headerLine < 0 {
		return nil, ErrEmptyInput
	}

	paths, err := parseHeader(lines[headerLine])
	if err != nil {
		return nil, err
	}

	records := make([]DecodedRecord, 0, len(lines)-headerLine-1)
	for i := headerLine + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNum := i + 1

		values := Tokenize(line)
		if len(values) != len(paths) {
			obs.RowSkipped(RowShapeWarning{
				Line:     lineNum,
				Expected: len(paths),
				Actual:   len(values),
			})
			continue
		}

		record := Object{}
		for j, path := range paths {
			branch, err := LiftPath(path, values[j])
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", lineNum, j+1, err)
			}
			MergeInto(record, branch)
		}

		records = append(records, DecodedRecord{Line: lineNum, Fields: record})
	}

	return records, nil
}

// parseHeader tokenizes the header line into field paths.
func parseHeader(line string) ([]FieldPath, error) {
	cells := Tokenize(line)
	paths := make([]FieldPath, len(cells))
	for i, cell := range cells {
		path, err := ParseFieldPath(cell)
		if err != nil {
			return nil, &HeaderError{Column: i + 1, Header: cell, Err: err}
		}
		paths[i] = path
	}
	return paths, nil
}
