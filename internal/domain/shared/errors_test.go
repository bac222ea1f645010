package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_WrapKeepsIdentity(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("lookup: %w", ErrStoreUnavailable.Wrap(cause))

	assert.True(t, errors.Is(err, ErrStoreUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrInternal))
	assert.False(t, errors.Is(err, ErrStudentNotFound))
	assert.Contains(t, err.Error(), "student.Resolve: student store unavailable")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"not found", ErrStudentNotFound, KindNotFound},
		{"empty identifier", ErrEmptyIdentifier, KindInvalidInput},
		{"malformed grade", ErrMalformedGrade.Wrap(errors.New("row 2")), KindInvalidInput},
		{"store", ErrStoreUnavailable.Wrap(errors.New("timeout")), KindInternal},
		{"ambiguous", ErrAmbiguousIdentifier, KindInternal},
		{"foreign", errors.New("something else"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsNotFound(ErrStudentNotFound))
	assert.True(t, IsValidation(ErrNonNumericIdentifier))
	assert.True(t, IsInternal(ErrGradesUnavailable))
	assert.False(t, IsInternal(ErrStudentNotFound))
}
