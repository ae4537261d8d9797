package core

// transform.go validates decoded records and reshapes them into users.
//
// Validation is all-or-nothing: the first record missing a mandatory field
// aborts the pass and no users are returned. This differs on purpose from
// Load, which commits batch by batch.

import (
	"fmt"
	"strconv"
	"strings"
)

// Top-level keys with a fixed column in the users table.
const (
	KeyName      = "name"
	KeyFirstName = "firstName"
	KeyLastName  = "lastName"
	KeyAge       = "age"
	KeyAddress   = "address"
)

// User is a record reshaped for the users table.
type User struct {
	Name           string
	Age            int
	Address        Object // nil when the record has no address object
	AdditionalInfo Object // nil when the record has no other keys
}

// ValidationError reports a record that fails the mandatory-field checks.
type ValidationError struct {
	Line    int    // 1-based line in the source
	Field   string // dotted field path
	Value   string // offending value, if any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("row %d: %s %q for field '%s'", e.Line, e.Message, e.Value, e.Field)
	}
	return fmt.Sprintf("row %d: %s '%s'", e.Line, e.Message, e.Field)
}

// Transform validates every record and reshapes it into a User.
// It returns nil users and a *ValidationError when any record is invalid.
func Transform(records []DecodedRecord) ([]User, error) {
	users := make([]User, 0, len(records))
	for _, rec := range records {
		u, err := TransformRecord(rec)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// TransformRecord validates and reshapes a single record.
func TransformRecord(rec DecodedRecord) (User, error) {
	first, ok := rec.Fields.ScalarAt(KeyName, KeyFirstName)
	if !ok || first == "" {
		return User{}, missingField(rec.Line, KeyName+PathSeparator+KeyFirstName)
	}
	last, ok := rec.Fields.ScalarAt(KeyName, KeyLastName)
	if !ok || last == "" {
		return User{}, missingField(rec.Line, KeyName+PathSeparator+KeyLastName)
	}

	rawAge, ok := rec.Fields.ScalarAt(KeyAge)
	if !ok || rawAge == "" {
		return User{}, missingField(rec.Line, KeyAge)
	}
	age, ok := ParseAge(rawAge)
	if !ok {
		return User{}, &ValidationError{
			Line:    rec.Line,
			Field:   KeyAge,
			Value:   rawAge,
			Message: "invalid integer",
		}
	}

	u := User{
		Name: first + " " + last,
		Age:  age,
	}

	if addr, ok := rec.Fields[KeyAddress].(Object); ok {
		u.Address = addr
	}

	for key, node := range rec.Fields {
		if key == KeyName || key == KeyAge || key == KeyAddress {
			continue
		}
		if u.AdditionalInfo == nil {
			u.AdditionalInfo = Object{}
		}
		u.AdditionalInfo[key] = node
	}

	return u, nil
}

// ParseAge reads the leading integer of s, ignoring surrounding whitespace.
// Trailing non-digits are dropped ("30 years" is 30, "4.5" is 4). It reports
// false when s does not start with an optionally signed digit.
func ParseAge(s string) (int, bool) {
	s = strings.TrimSpace(s)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func missingField(line int, field string) *ValidationError {
	return &ValidationError{
		Line:    line,
		Field:   field,
		Message: "missing mandatory field",
	}
}
