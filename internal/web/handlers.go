package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/logging"
)

const (
	// DefaultUserLimit is both the default and the largest page of GET /users.
	DefaultUserLimit = 100

	// multipartOverhead is allowed on top of IMPORT_MAX_FILE_SIZE for form
	// boundaries and part headers.
	multipartOverhead = 1 << 20

	// multipartMemory is how much of an upload is held in memory before
	// spilling to a temp file.
	multipartMemory = 32 << 20

	healthTimeout = 2 * time.Second
)

// runData is the data of a successful import response.
type runData struct {
	core.RunResult
	Duration string `json:"duration"`
}

func newRunData(r core.RunResult) runData {
	return runData{RunResult: r, Duration: fmt.Sprintf("%.2fs", r.Duration.Seconds())}
}

// handleProcessCSV runs the pipeline over CSV_FILE_PATH.
func (s *Server) handleProcessCSV(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.ProcessFile(r.Context(), "")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: "CSV processed successfully",
		Data:    newRunData(result),
	})
}

// handleUpload runs the pipeline over the multipart "file" field.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	if maxSize <= 0 {
		maxSize = core.DefaultMaxFileSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", core.ErrFileTooLarge, maxSize))
			return
		}
		writeError(w, r, http.StatusBadRequest, "REQ001", "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "REQ002", "no file provided")
		return
	}
	defer file.Close()

	logging.FromContext(r.Context()).Debug("upload received",
		"file", header.Filename,
		"size", header.Size,
	)

	result, err := s.service.ProcessReader(r.Context(), header.Filename, file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: "CSV processed successfully",
		Data:    newRunData(result),
	})
}

// healthResponse reports server and store status.
type healthResponse struct {
	Status    string                 `json:"status"`
	Server    string                 `json:"server"`
	Database  string                 `json:"database"`
	Timestamp time.Time              `json:"timestamp"`
	Imports   *core.RunLimiterStatus `json:"imports,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// handleHealth pings the store. An unreachable store answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	timeout := s.cfg.Database.ConnectTimeout
	if timeout <= 0 {
		timeout = healthTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	resp := healthResponse{
		Status:    "healthy",
		Server:    "running",
		Database:  "connected",
		Timestamp: time.Now().UTC(),
	}
	if l := s.service.Limiter(); l != nil {
		status := l.Status()
		resp.Imports = &status
	}

	code := http.StatusOK
	if err := s.service.Health(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.Database = "disconnected"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, r, code, resp)
}

// handleListUsers returns the first ?limit users ordered by id.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	limit := DefaultUserLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, http.StatusBadRequest, "REQ003", "limit must be a positive integer")
			return
		}
		limit = min(n, DefaultUserLimit)
	}

	users, err := s.service.ListUsers(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if users == nil {
		users = []core.StoredUser{}
	}

	count := len(users)
	writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Count:   &count,
		Data:    users,
	})
}

// deleteResponse reports how many users were removed.
type deleteResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// handleDeleteUsers removes every user.
func (s *Server) handleDeleteUsers(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.DeleteUsers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("deleted users", "count", n)
	writeJSON(w, r, http.StatusOK, deleteResponse{
		Success:      true,
		Message:      fmt.Sprintf("Deleted %d records", n),
		DeletedCount: n,
	})
}

// reportResponse carries the distribution as data and as a text table.
type reportResponse struct {
	Success bool                  `json:"success"`
	Data    *core.AgeDistribution `json:"data"`
	Report  string                `json:"report"`
}

// handleAgeDistribution reports the age distribution of all users.
func (s *Server) handleAgeDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := s.service.AgeDistribution(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, reportResponse{
		Success: true,
		Data:    dist,
		Report:  dist.String(),
	})
}
