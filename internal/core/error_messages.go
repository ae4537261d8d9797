package core

// error_messages.go maps pipeline errors to user-facing messages with a
// support code.
//
// Typed errors are matched first with errors.Is and errors.As. Store errors
// arrive as driver text, so they fall back to case-insensitive substring
// patterns; the first matching pattern wins.
//
// # Source Errors (SRC001-SRC099)
//
//	SRC001 - File not found: the configured CSV file does not exist
//	SRC002 - File too large: the file exceeds the size limit
//	SRC003 - File unreadable: the file exists but could not be read
//	SRC004 - No source: CSV_FILE_PATH is not set
//
// # Decode Errors (CSV001-CSV099)
//
//	CSV001 - Empty file: no header line was found
//	CSV002 - Invalid header: a header cell is not a usable field path
//	CSV003 - No records: every data row was missing or had the wrong column count
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Missing field: name.firstName, name.lastName or age is empty
//	VAL002 - Invalid age: age does not start with an integer
//
// # Store Errors (DB001-DB099)
//
//	DB001 - Duplicate key      Patterns: "duplicate key", "unique constraint"
//	DB002 - Connection refused Patterns: "connection refused"
//	DB003 - Connection reset   Patterns: "connection reset", "broken pipe"
//	DB004 - Timeout            Patterns: "timeout"
//	DB005 - Deadlock           Patterns: "deadlock", "database is locked"
//	DB006 - Insert failed: any other batch failure
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: every run slot is taken
//	RUN002 - Request cancelled
//	RUN003 - Request timed out
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the original error.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgSourceNotFound = UserMessage{
		Message: "The CSV file was not found",
		Action:  "Check that CSV_FILE_PATH points to an existing file",
		Code:    "SRC001",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "SRC002",
	}
	msgSourceUnreadable = UserMessage{
		Message: "The CSV file could not be read",
		Action:  "Check file permissions and try again",
		Code:    "SRC003",
	}
	msgNoSource = UserMessage{
		Message: "No CSV file is configured",
		Action:  "Set CSV_FILE_PATH in the environment or .env file",
		Code:    "SRC004",
	}
	msgEmptyInput = UserMessage{
		Message: "The CSV file is empty",
		Action:  "Provide a file with a header line and data rows",
		Code:    "CSV001",
	}
	msgBadHeader = UserMessage{
		Message: "A header column is not a valid field path",
		Action:  "Use dot-separated names without empty segments, like name.firstName",
		Code:    "CSV002",
	}
	msgNoRecords = UserMessage{
		Message: "No valid records found in the CSV file",
		Action:  "Add data rows with one value per header column",
		Code:    "CSV003",
	}
	msgMissingField = UserMessage{
		Message: "A row is missing a mandatory field",
		Action:  "Every row needs name.firstName, name.lastName and age",
		Code:    "VAL001",
	}
	msgInvalidAge = UserMessage{
		Message: "A row has an age that is not a whole number",
		Action:  "Use digits only in the age column",
		Code:    "VAL002",
	}
	msgInsertFailed = UserMessage{
		Message: "The database rejected a batch of rows",
		Action:  "Earlier batches were saved. Fix the data and reload the remaining rows",
		Code:    "DB006",
	}
	msgTooManyRuns = UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "RUN001",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "RUN002",
	}
	msgTimedOut = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or raise IMPORT_TIMEOUT",
		Code:    "RUN003",
	}
)

// errorPattern maps a lowercase substring of a driver error to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// storePatterns is checked in order; keep specific patterns first.
var storePatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check for duplicate entries in your CSV",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB002",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "broken pipe",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller batch size or try again later",
			Code:    "DB004",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
// Example:
//
//	_, err := Load(ctx, users, 1000, sink, nil)
//	msg := MapError(err)
//	// msg.Code == "DB006" unless the driver error matched a DB pattern
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		validation *ValidationError
		header     *HeaderError
		sink       *SinkError
		source     *SourceUnavailableError
	)

	switch {
	case errors.Is(err, ErrSourceNotFound):
		return msgSourceNotFound
	case errors.Is(err, ErrFileTooLarge):
		return msgFileTooLarge
	case errors.As(err, &source):
		return msgSourceUnreadable
	case errors.Is(err, ErrNoSourcePath):
		return msgNoSource
	case errors.Is(err, ErrEmptyInput):
		return msgEmptyInput
	case errors.As(err, &header):
		return msgBadHeader
	case errors.Is(err, ErrNoRecords):
		return msgNoRecords
	case errors.As(err, &validation):
		if validation.Field == KeyAge && validation.Value != "" {
			return msgInvalidAge
		}
		return msgMissingField
	case errors.Is(err, ErrTooManyRuns):
		return msgTooManyRuns
	case errors.As(err, &sink):
		if msg, ok := matchStorePattern(sink.Err); ok {
			return msg
		}
		if errors.Is(sink.Err, context.DeadlineExceeded) {
			return msgTimedOut
		}
		return msgInsertFailed
	case errors.Is(err, context.Canceled):
		return msgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimedOut
	}

	if msg, ok := matchStorePattern(err); ok {
		return msg
	}
	return defaultMessage
}

func matchStorePattern(err error) (UserMessage, bool) {
	if err == nil {
		return UserMessage{}, false
	}
	errStr := strings.ToLower(err.Error())
	for _, ep := range storePatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message, meaning its
// text is safe and useful to show next to the message.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
