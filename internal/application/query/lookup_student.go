// Package query contains the read use cases of the records service.
package query

import (
	"context"
	"time"

	"github.com/unison-academica/records-lookup/internal/domain/shared"
	"github.com/unison-academica/records-lookup/internal/domain/student"
	"github.com/unison-academica/records-lookup/internal/domain/transcript"
	"github.com/unison-academica/records-lookup/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUP STUDENT QUERY
// Resolves an identifier and loads the student's normalized grade records.
// Exactly two store reads: one to resolve, one for grades.
// ══════════════════════════════════════════════════════════════════════════════

// GradeSource loads raw grade rows for a resolved student.
type GradeSource interface {
	// GradesByStudent returns rows ordered chronologically by period.
	GradesByStudent(ctx context.Context, ref int64) ([]transcript.GradeEntry, error)
}

// LookupStudentQuery contains the lookup parameters.
type LookupStudentQuery struct {
	// Identifier as typed by staff, with or without prefix.
	Identifier string
}

// RecordDTO is one academic record in the presentation contract.
type RecordDTO struct {
	Semester string  `json:"semester"`
	Subject  string  `json:"subject"`
	Grade    float64 `json:"grade"`
	Status   string  `json:"status"`
}

// StudentRecordDTO is the full lookup payload.
type StudentRecordDTO struct {
	Name                string      `json:"name"`
	CanonicalIdentifier string      `json:"identifier"`
	CurrentGroup        string      `json:"current_group"`
	Email               string      `json:"email"`
	Records             []RecordDTO `json:"records"`
}

// AcademicRecords converts the DTO records back to domain records.
func (d *StudentRecordDTO) AcademicRecords() []transcript.AcademicRecord {
	out := make([]transcript.AcademicRecord, len(d.Records))
	for i, r := range d.Records {
		out[i] = transcript.AcademicRecord{
			Semester: r.Semester,
			Subject:  r.Subject,
			Grade:    r.Grade,
			Status:   transcript.Status(r.Status),
		}
	}
	return out
}

// LookupStudentHandler handles student lookups.
type LookupStudentHandler struct {
	resolver *student.Resolver
	grades   GradeSource
	policy   transcript.GradingPolicy
	log      *logger.Logger
}

// NewLookupStudentHandler creates a new handler. A nil logger discards output.
func NewLookupStudentHandler(
	resolver *student.Resolver,
	grades GradeSource,
	policy transcript.GradingPolicy,
	log *logger.Logger,
) *LookupStudentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LookupStudentHandler{
		resolver: resolver,
		grades:   grades,
		policy:   policy,
		log:      log.With(logger.Component("lookup")),
	}
}

// Policy returns the grading policy in use.
func (h *LookupStudentHandler) Policy() transcript.GradingPolicy {
	return h.policy
}

// Handle runs the lookup. On any failure it returns a nil payload.
func (h *LookupStudentHandler) Handle(ctx context.Context, q LookupStudentQuery) (*StudentRecordDTO, error) {
	start := time.Now()

	stud, err := h.resolver.Resolve(ctx, q.Identifier)
	if err != nil {
		h.logFailure(ctx, "resolve", q.Identifier, err)
		return nil, err
	}

	entries, err := h.grades.GradesByStudent(ctx, stud.Ref)
	if err != nil {
		err = shared.ErrGradesUnavailable.Wrap(err)
		h.logFailure(ctx, "load grades", q.Identifier, err)
		return nil, err
	}

	records, err := transcript.Normalize(entries, h.policy)
	if err != nil {
		h.logFailure(ctx, "normalize", q.Identifier, err)
		return nil, err
	}

	dto := &StudentRecordDTO{
		Name:                stud.FullName(),
		CanonicalIdentifier: stud.Identifier,
		CurrentGroup:        stud.CurrentGroup,
		Email:               stud.Email,
		Records:             make([]RecordDTO, len(records)),
	}
	for i, r := range records {
		dto.Records[i] = RecordDTO{
			Semester: r.Semester,
			Subject:  r.Subject,
			Grade:    r.Grade,
			Status:   string(r.Status),
		}
	}

	logger.FromContextOr(ctx, h.log).Debug("student looked up",
		logger.Identifier(stud.Identifier),
		logger.Int("records", len(records)),
		logger.Latency(time.Since(start)),
	)
	return dto, nil
}

func (h *LookupStudentHandler) logFailure(ctx context.Context, stage, identifier string, err error) {
	l := logger.FromContextOr(ctx, h.log)

	if shared.KindOf(err) == shared.KindInternal {
		l.Error("lookup failed", logger.Operation(stage), logger.Err(err))
		return
	}
	l.Debug("lookup rejected", logger.Operation(stage), logger.Identifier(identifier), logger.Err(err))
}
