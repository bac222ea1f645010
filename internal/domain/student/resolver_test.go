package student

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unison-academica/records-lookup/internal/domain/shared"
)

// fakeFinder matches candidates against an in-memory table and records calls.
type fakeFinder struct {
	rows  []*Student
	err   error
	calls [][]string
}

func (f *fakeFinder) FindByIdentifiers(_ context.Context, candidates []string) ([]*Student, error) {
	f.calls = append(f.calls, append([]string(nil), candidates...))
	if f.err != nil {
		return nil, f.err
	}
	var out []*Student
	for _, s := range f.rows {
		for _, c := range candidates {
			if s.Identifier == c {
				out = append(out, s)
				break
			}
		}
		if len(out) == MaxMatches {
			break
		}
	}
	return out, nil
}

func TestPrefixStrategy_Candidates(t *testing.T) {
	s := NewPrefixStrategy("")
	tests := []struct {
		raw  string
		want []string
	}{
		{"EXP123", []string{"EXP123", "123"}},
		{"123", []string{"123", "EXP123"}},
		{"EXP", []string{"EXP"}},
		{"exp123", []string{"exp123", "EXPexp123"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := s.Candidates(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumericStrategy_Candidates(t *testing.T) {
	got, err := NumericStrategy{}.Candidates("00123")
	require.NoError(t, err)
	assert.Equal(t, []string{"123"}, got)

	got, err = NumericStrategy{}.Candidates("+7")
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, got)

	for _, raw := range []string{"12a", "-5", "EXP123", "1.5"} {
		_, err := NumericStrategy{}.Candidates(raw)
		assert.ErrorIs(t, err, shared.ErrNonNumericIdentifier, raw)
		assert.True(t, shared.IsValidation(err), raw)
	}
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy(ModePrefix, "MAT")
	require.NoError(t, err)
	assert.Equal(t, ModePrefix, s.Mode())
	assert.Equal(t, "MAT", s.(PrefixStrategy).Prefix)

	s, err = NewStrategy(ModeNumeric, "")
	require.NoError(t, err)
	assert.Equal(t, ModeNumeric, s.Mode())

	_, err = NewStrategy("fuzzy", "")
	assert.ErrorIs(t, err, shared.ErrUnknownResolutionMode)
	assert.ErrorIs(t, err, shared.ErrInvalidConfig)
}

func TestResolver_BothFormsResolveToSameRecord(t *testing.T) {
	finder := &fakeFinder{rows: []*Student{
		{Ref: 1, Identifier: "EXP123", FirstName: "Ana", PaternalSurname: "López", Email: "ana@example.edu"},
		{Ref: 2, Identifier: "EXP999", FirstName: "Luis", PaternalSurname: "Soto"},
	}}
	r := NewResolver(finder, NewPrefixStrategy("EXP"))

	a, err := r.Resolve(context.Background(), "EXP123")
	require.NoError(t, err)
	b, err := r.Resolve(context.Background(), "  123 ")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "EXP123", a.Identifier)
	assert.Equal(t, "Ana López", a.FullName())
	assert.Len(t, finder.calls, 2, "one store read per resolution")
}

func TestResolver_Errors(t *testing.T) {
	storeErr := errors.New("connection reset by peer")

	tests := []struct {
		name    string
		finder  *fakeFinder
		raw     string
		want    error
		kind    shared.Kind
		noReads bool
	}{
		{
			name:    "blank",
			finder:  &fakeFinder{},
			raw:     "   ",
			want:    shared.ErrEmptyIdentifier,
			kind:    shared.KindInvalidInput,
			noReads: true,
		},
		{
			name:   "unknown",
			finder: &fakeFinder{rows: []*Student{{Identifier: "EXP1"}}},
			raw:    "EXP2",
			want:   shared.ErrStudentNotFound,
			kind:   shared.KindNotFound,
		},
		{
			name:   "store failure",
			finder: &fakeFinder{err: storeErr},
			raw:    "EXP1",
			want:   shared.ErrStoreUnavailable,
			kind:   shared.KindInternal,
		},
		{
			name: "ambiguous",
			finder: &fakeFinder{rows: []*Student{
				{Ref: 1, Identifier: "EXP5"},
				{Ref: 2, Identifier: "5"},
			}},
			raw:  "5",
			want: shared.ErrAmbiguousIdentifier,
			kind: shared.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.finder, nil)
			s, err := r.Resolve(context.Background(), tt.raw)

			assert.Nil(t, s)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, shared.KindOf(err))
			if tt.noReads {
				assert.Empty(t, tt.finder.calls)
			} else {
				assert.Len(t, tt.finder.calls, 1)
			}
		})
	}
}

func TestResolver_StoreFailureKeepsCause(t *testing.T) {
	cause := errors.New("pool exhausted")
	r := NewResolver(&fakeFinder{err: cause}, nil)

	_, err := r.Resolve(context.Background(), "EXP1")
	assert.ErrorIs(t, err, cause)
}

func TestResolver_NumericMode(t *testing.T) {
	finder := &fakeFinder{rows: []*Student{{Ref: 3, Identifier: "123", FirstName: "Eva", PaternalSurname: "Ruiz", MaternalSurname: "Paz"}}}
	r := NewResolver(finder, NumericStrategy{})

	s, err := r.Resolve(context.Background(), "00123")
	require.NoError(t, err)
	assert.Equal(t, "123", s.Identifier)
	assert.Equal(t, "Eva Ruiz Paz", s.FullName())

	_, err = r.Resolve(context.Background(), "12a")
	assert.ErrorIs(t, err, shared.ErrNonNumericIdentifier)
	assert.Len(t, finder.calls, 1, "invalid input never reaches the store")
}

func TestResolver_GroupPlaceholder(t *testing.T) {
	row := &Student{Ref: 1, Identifier: "EXP1"}
	r := NewResolver(&fakeFinder{rows: []*Student{row}}, nil, WithGroupPlaceholder("N/A"))

	s, err := r.Resolve(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "N/A", s.CurrentGroup)
	assert.Empty(t, row.CurrentGroup, "store row is not mutated")
}

func TestStudent_FullName(t *testing.T) {
	assert.Equal(t, "Ana López", (&Student{FirstName: "Ana", PaternalSurname: "López"}).FullName())
	assert.Equal(t, "Ana López Díaz", (&Student{FirstName: " Ana ", PaternalSurname: "López", MaternalSurname: "Díaz"}).FullName())
	assert.Equal(t, "", (&Student{}).FullName())
}
