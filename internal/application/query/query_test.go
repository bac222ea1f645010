package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unison-academica/records-lookup/internal/domain/shared"
	"github.com/unison-academica/records-lookup/internal/domain/student"
	"github.com/unison-academica/records-lookup/internal/domain/transcript"
)

type fakeStudents struct {
	rows []*student.Student
	err  error
}

func (f *fakeStudents) FindByIdentifiers(_ context.Context, candidates []string) ([]*student.Student, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*student.Student
	for _, s := range f.rows {
		for _, c := range candidates {
			if s.Identifier == c {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

type fakeGrades struct {
	byRef map[int64][]transcript.GradeEntry
	err   error
	calls int
}

func (f *fakeGrades) GradesByStudent(_ context.Context, ref int64) ([]transcript.GradeEntry, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byRef[ref], nil
}

func newFixture() (*fakeStudents, *fakeGrades) {
	students := &fakeStudents{rows: []*student.Student{{
		Ref:             42,
		Identifier:      "EXP123",
		FirstName:       "Ana",
		PaternalSurname: "López",
		Email:           "ana@example.edu",
	}}}
	grades := &fakeGrades{byRef: map[int64][]transcript.GradeEntry{
		42: {
			{Period: "2024-1", Subject: "Math", Score: "8.50"},
			{Period: "2024-1", Subject: "Bio", Score: "5.00"},
			{Period: "2024-2", Subject: "Math", Score: "9.00"},
		},
	}}
	return students, grades
}

func newLookup(students *fakeStudents, grades *fakeGrades) *LookupStudentHandler {
	resolver := student.NewResolver(students, student.NewPrefixStrategy("EXP"), student.WithGroupPlaceholder("N/A"))
	return NewLookupStudentHandler(resolver, grades, transcript.DefaultPolicy, nil)
}

func TestLookupStudent_Success(t *testing.T) {
	students, grades := newFixture()
	h := newLookup(students, grades)

	dto, err := h.Handle(context.Background(), LookupStudentQuery{Identifier: "123"})
	require.NoError(t, err)

	assert.Equal(t, "Ana López", dto.Name)
	assert.Equal(t, "EXP123", dto.CanonicalIdentifier)
	assert.Equal(t, "N/A", dto.CurrentGroup)
	assert.Equal(t, "ana@example.edu", dto.Email)
	require.Len(t, dto.Records, 3)
	assert.Equal(t, RecordDTO{Semester: "2024-1", Subject: "Bio", Grade: 5, Status: "Reprobada"}, dto.Records[1])
	assert.Equal(t, 1, grades.calls)
}

func TestLookupStudent_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeStudents, *fakeGrades)
		input string
		want  error
		kind  shared.Kind
	}{
		{"blank", func(*fakeStudents, *fakeGrades) {}, " ", shared.ErrEmptyIdentifier, shared.KindInvalidInput},
		{"unknown", func(*fakeStudents, *fakeGrades) {}, "EXP999", shared.ErrStudentNotFound, shared.KindNotFound},
		{"student store down", func(s *fakeStudents, _ *fakeGrades) { s.err = errors.New("boom") }, "123", shared.ErrStoreUnavailable, shared.KindInternal},
		{"grade store down", func(_ *fakeStudents, g *fakeGrades) { g.err = errors.New("boom") }, "123", shared.ErrGradesUnavailable, shared.KindInternal},
		{"malformed grade", func(_ *fakeStudents, g *fakeGrades) {
			g.byRef[42] = append(g.byRef[42], transcript.GradeEntry{Period: "2024-2", Subject: "Art", Score: "n/a"})
		}, "123", shared.ErrMalformedGrade, shared.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, grades := newFixture()
			tt.setup(students, grades)

			dto, err := newLookup(students, grades).Handle(context.Background(), LookupStudentQuery{Identifier: tt.input})
			assert.Nil(t, dto, "never a partial payload")
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, shared.KindOf(err))
		})
	}
}

func TestSummarizeRecords(t *testing.T) {
	students, grades := newFixture()
	h := NewSummarizeRecordsHandler(newLookup(students, grades))

	res, err := h.Handle(context.Background(), SummarizeRecordsQuery{Identifier: "EXP123", Semester: "2024-1"})
	require.NoError(t, err)
	assert.Equal(t, 6.75, res.Summary.Average)
	assert.Equal(t, 1, res.Summary.ApprovedCount)
	assert.Equal(t, 1, res.Summary.FailedCount)
	assert.Equal(t, []string{"all", "2024-1", "2024-2"}, res.Summary.Semesters)

	all := Summarize(res.Student, transcript.AllSemesters)
	assert.Equal(t, 7.5, all.Average)
	assert.Equal(t, 1, grades.calls, "changing the filter does not re-fetch")
}

func TestSummarizeRecordsQuery_Selector(t *testing.T) {
	assert.Equal(t, transcript.AllSemesters, SummarizeRecordsQuery{}.Selector())
	assert.Equal(t, transcript.AllSemesters, SummarizeRecordsQuery{Semester: "all"}.Selector())
	assert.Equal(t, transcript.Selector("2024-1"), SummarizeRecordsQuery{Semester: " 2024-1 "}.Selector())
}
