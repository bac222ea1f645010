package query

import (
	"context"
	"strings"

	"github.com/unison-academica/records-lookup/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUMMARIZE RECORDS QUERY
// Lookup followed by per-semester statistics.
// ══════════════════════════════════════════════════════════════════════════════

// SummarizeRecordsQuery contains the summary parameters.
type SummarizeRecordsQuery struct {
	Identifier string
	// Semester label to filter on; empty or "all" keeps every record.
	Semester string
}

// Selector returns the semester selector for the query.
func (q SummarizeRecordsQuery) Selector() transcript.Selector {
	s := strings.TrimSpace(q.Semester)
	if s == "" {
		return transcript.AllSemesters
	}
	return transcript.Selector(s)
}

// SummaryResult pairs the lookup payload with its summary.
type SummaryResult struct {
	Student *StudentRecordDTO  `json:"student"`
	Summary transcript.Summary `json:"summary"`
}

// SummarizeRecordsHandler handles summary requests.
type SummarizeRecordsHandler struct {
	lookup *LookupStudentHandler
}

// NewSummarizeRecordsHandler creates a new handler on top of a lookup handler.
func NewSummarizeRecordsHandler(lookup *LookupStudentHandler) *SummarizeRecordsHandler {
	return &SummarizeRecordsHandler{lookup: lookup}
}

// Handle looks the student up and summarizes the selected semester.
func (h *SummarizeRecordsHandler) Handle(ctx context.Context, q SummarizeRecordsQuery) (*SummaryResult, error) {
	dto, err := h.lookup.Handle(ctx, LookupStudentQuery{Identifier: q.Identifier})
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		Student: dto,
		Summary: Summarize(dto, q.Selector()),
	}, nil
}

// Summarize recomputes the statistics for an already loaded payload. Use it
// when only the semester filter changes; it performs no reads.
func Summarize(dto *StudentRecordDTO, selector transcript.Selector) transcript.Summary {
	return transcript.Summarize(dto.AcademicRecords(), selector)
}
