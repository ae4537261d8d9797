package web

// errors.go turns pipeline errors into JSON responses.
//
// The technical error is logged with the request id; the client gets the
// mapped user message, its action and support code. The HTTP status follows
// the error type:
//
//	404 source file missing
//	413 source above the size limit
//	400 empty input, unusable header or no valid rows
//	422 a record failed validation
//	429 every run slot is taken
//	502 the store rejected a batch
//	504 the run ran out of time
//	500 anything else

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// RecordsCommitted is set when a load failed after some batches were
	// saved.
	RecordsCommitted int `json:"recordsCommitted,omitempty"`
}

// respondError logs err and writes the mapped response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	// Typed pipeline errors name the row or batch at fault.
	if core.IsUserFacing(err) {
		resp.Error = err.Error()
	}
	var sink *core.SinkError
	if errors.As(err, &sink) {
		resp.RecordsCommitted = sink.Committed
	}

	writeJSON(w, r, status, resp)
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var (
		header     *core.HeaderError
		validation *core.ValidationError
		sink       *core.SinkError
	)

	switch {
	case errors.Is(err, core.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrEmptyInput), errors.Is(err, core.ErrNoRecords), errors.As(err, &header):
		return http.StatusBadRequest
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyRuns):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &sink):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
