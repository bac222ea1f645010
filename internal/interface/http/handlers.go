package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/unison-academica/records-lookup/internal/application/query"
	"github.com/unison-academica/records-lookup/internal/domain/shared"
	"github.com/unison-academica/records-lookup/internal/infrastructure/report"
	"github.com/unison-academica/records-lookup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"name":    "Records Lookup API",
		"version": s.deps.Version,
		"endpoints": []string{
			"GET /api/v1/students/{identifier}",
			"GET /api/v1/students/{identifier}/summary?semester=",
			"GET /api/v1/students/{identifier}/transcript.xlsx?semester=",
		},
		"health": "/health",
	})
}

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, status)
}

// handleReady reports whether the backing stores answer.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.deps.HealthChecker.Check(r.Context())
	if !status.Ready {
		writeJSONError(w, r, http.StatusServiceUnavailable, "not_ready", status.Message)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"ready": true})
}

// handleLive only proves the process serves requests.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]bool{"alive": true})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetStudent returns the profile and every academic record.
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.Lookup.Handle(r.Context(), query.LookupStudentQuery{
		Identifier: r.PathValue("identifier"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto)
}

// handleGetSummary returns the filtered records with their statistics.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.Summarize.Handle(r.Context(), query.SummarizeRecordsQuery{
		Identifier: r.PathValue("identifier"),
		Semester:   r.URL.Query().Get("semester"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleGetTranscript streams the summary as an xlsx workbook.
func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	q := query.SummarizeRecordsQuery{
		Identifier: r.PathValue("identifier"),
		Semester:   r.URL.Query().Get("semester"),
	}
	result, err := s.deps.Summarize.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := report.WriteTranscript(&buf, result.Student, result.Summary); err != nil {
		logger.FromContextOr(r.Context(), s.logger).Error("render transcript failed", logger.Err(err))
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error", "The transcript could not be generated, try again later")
		return
	}

	name := report.Filename(result.Student.CanonicalIdentifier, q.Selector())
	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(buf.Bytes()))
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps a lookup failure to a status code. Internal causes
// stay in the logs and never reach the response body.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch shared.KindOf(err) {
	case shared.KindInvalidInput:
		if errors.Is(err, shared.ErrMalformedGrade) {
			writeJSONError(w, r, http.StatusUnprocessableEntity, "malformed_grade",
				"A stored grade could not be read, contact the registrar")
			return
		}
		writeJSONErrorWithDetails(w, r, http.StatusBadRequest, "invalid_identifier",
			"Check the identifier and try again", domainMessage(err))
	case shared.KindNotFound:
		writeJSONError(w, r, http.StatusNotFound, "student_not_found",
			"No student matches that identifier, check the identifier and try again")
	default:
		writeJSONError(w, r, http.StatusInternalServerError, "internal_error",
			"The records service is unavailable, try again later")
	}
}

// domainMessage returns the user-facing message of the outermost domain error.
func domainMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
