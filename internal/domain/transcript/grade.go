// Package transcript turns raw grade rows into normalized academic records
// and derives per-semester statistics from them.
//
// Everything here is pure: no clock, no I/O, no package state. Calling
// Aggregate twice with the same input yields identical output.
package transcript

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/unison-academica/records-lookup/internal/domain/shared"
)

// GradeEntry is a raw grade row as read from the store. Score is the store's
// textual rendering of the numeric value, e.g. "8.50".
type GradeEntry struct {
	Subject string
	Period  string
	Score   string
}

// Status is the pass/fail outcome of a single record.
type Status string

const (
	Approved Status = "Aprobada"
	Failed   Status = "Reprobada"
)

// IsApproved reports whether s is Approved.
func (s Status) IsApproved() bool { return s == Approved }

// AcademicRecord is one normalized grade.
type AcademicRecord struct {
	Semester string  `json:"semester"`
	Subject  string  `json:"subject"`
	Grade    float64 `json:"grade"`
	Status   Status  `json:"status"`
}

// Normalize maps every entry to exactly one record, in order. Labels are
// kept verbatim. A score that does not parse as a finite number fails the
// whole call; no partial result is returned.
func Normalize(entries []GradeEntry, policy GradingPolicy) ([]AcademicRecord, error) {
	records := make([]AcademicRecord, 0, len(entries))
	for i, e := range entries {
		grade, err := parseScore(e.Score)
		if err != nil {
			return nil, shared.ErrMalformedGrade.Wrap(fmt.Errorf("row %d (%s, %s): %w", i, e.Period, e.Subject, err))
		}
		records = append(records, AcademicRecord{
			Semester: e.Period,
			Subject:  e.Subject,
			Grade:    grade,
			Status:   policy.StatusOf(grade),
		})
	}
	return records, nil
}

func parseScore(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("score %q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("score %q is not finite", s)
	}
	return v, nil
}
