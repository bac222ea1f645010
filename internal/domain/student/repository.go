package student

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Finder looks students up by identifier.
type Finder interface {
	// FindByIdentifiers returns the students whose canonical identifier equals
	// any of the candidates, using a single read. Implementations return at
	// most two rows; two rows means the candidates are ambiguous.
	// An empty result is not an error.
	FindByIdentifiers(ctx context.Context, candidates []string) ([]*Student, error)
}

// MaxMatches is the row limit Finder implementations apply. Two is enough to
// detect ambiguity without reading more.
const MaxMatches = 2
