package student

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/unison-academica/records-lookup/internal/domain/shared"
)

// Mode selects how raw identifiers are matched against stored ones.
type Mode string

const (
	// ModePrefix matches the identifier with and without a textual prefix.
	ModePrefix Mode = "prefix"
	// ModeNumeric requires a base-10 integer and matches its canonical form.
	ModeNumeric Mode = "numeric"
)

// DefaultPrefix is the prefix used by the owned schema.
const DefaultPrefix = "EXP"

// String returns the mode name.
func (m Mode) String() string { return string(m) }

// Strategy turns a raw identifier into the set of stored forms to look up.
// Implementations must be pure: same input, same candidates.
type Strategy interface {
	Mode() Mode
	// Candidates returns one or two candidate identifiers. raw is already
	// trimmed and non-empty.
	Candidates(raw string) ([]string, error)
}

// NewStrategy builds the strategy for mode. An empty prefix falls back to
// DefaultPrefix in prefix mode.
func NewStrategy(mode Mode, prefix string) (Strategy, error) {
	switch mode {
	case ModePrefix, "":
		return NewPrefixStrategy(prefix), nil
	case ModeNumeric:
		return NumericStrategy{}, nil
	default:
		return nil, shared.ErrUnknownResolutionMode.Wrap(fmt.Errorf("mode %q", mode))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Prefix
// ─────────────────────────────────────────────────────────────────────────────

// PrefixStrategy accepts an identifier with or without Prefix.
// Matching of the prefix is case-sensitive.
type PrefixStrategy struct {
	Prefix string
}

// NewPrefixStrategy returns a PrefixStrategy, defaulting the prefix.
func NewPrefixStrategy(prefix string) PrefixStrategy {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return PrefixStrategy{Prefix: prefix}
}

// Mode implements Strategy.
func (PrefixStrategy) Mode() Mode { return ModePrefix }

// Candidates returns the identifier as given plus its complementary form.
// "EXP" alone has an empty complement, which is omitted.
func (s PrefixStrategy) Candidates(raw string) ([]string, error) {
	var complement string
	if rest, ok := strings.CutPrefix(raw, s.Prefix); ok {
		complement = rest
	} else {
		complement = s.Prefix + raw
	}

	if complement == "" || complement == raw {
		return []string{raw}, nil
	}
	return []string{raw, complement}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Numeric
// ─────────────────────────────────────────────────────────────────────────────

// NumericStrategy accepts only non-negative base-10 integers.
type NumericStrategy struct{}

// Mode implements Strategy.
func (NumericStrategy) Mode() Mode { return ModeNumeric }

// Candidates returns the canonical decimal form, so "00123" becomes "123".
func (NumericStrategy) Candidates(raw string) ([]string, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(raw, "+"), 10, 63)
	if err != nil {
		return nil, shared.ErrNonNumericIdentifier
	}
	return []string{strconv.FormatUint(n, 10)}, nil
}
