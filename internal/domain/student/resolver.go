package student

import (
	"context"
	"strings"

	"github.com/unison-academica/records-lookup/internal/domain/shared"
)

// Resolver maps a raw identifier to exactly one stored student.
type Resolver struct {
	finder      Finder
	strategy    Strategy
	placeholder string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithGroupPlaceholder sets the value reported as current group when the
// store has none recorded.
func WithGroupPlaceholder(placeholder string) ResolverOption {
	return func(r *Resolver) {
		r.placeholder = placeholder
	}
}

// NewResolver creates a resolver. A nil strategy means prefix mode with the
// default prefix.
func NewResolver(finder Finder, strategy Strategy, opts ...ResolverOption) *Resolver {
	if strategy == nil {
		strategy = NewPrefixStrategy(DefaultPrefix)
	}
	r := &Resolver{finder: finder, strategy: strategy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strategy returns the configured strategy.
func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Resolve performs a single store read for all candidate forms of raw.
// Store failures are reported once, without retry.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*Student, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, shared.ErrEmptyIdentifier
	}

	candidates, err := r.strategy.Candidates(raw)
	if err != nil {
		return nil, err
	}

	found, err := r.finder.FindByIdentifiers(ctx, candidates)
	if err != nil {
		return nil, shared.ErrStoreUnavailable.Wrap(err)
	}

	switch len(found) {
	case 0:
		return nil, shared.ErrStudentNotFound
	case 1:
	default:
		return nil, shared.ErrAmbiguousIdentifier
	}

	s := found[0].Clone()
	if r.placeholder != "" {
		s.CurrentGroup = s.GroupOr(r.placeholder)
	}
	return s, nil
}
