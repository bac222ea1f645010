// Package student contains the student domain model and identifier resolution.
//
// The package defines:
//
//   - Student, the read-only profile of a student as recorded by the system of record
//   - Strategy, the rule that turns a raw identifier into lookup candidates
//   - Resolver, which performs exactly one store read per lookup
//   - Finder, the storage port implemented in infrastructure/persistence
//
// # Resolution modes
//
// A deployment picks exactly one mode consistent with its schema:
//
//	// "EXP123" and "123" both look up {"EXP123", "123"} in one query
//	strategy := student.NewPrefixStrategy("EXP")
//
//	// "00123" looks up {"123"}; "12a" is rejected as invalid input
//	strategy := student.NumericStrategy{}
//
//	resolver := student.NewResolver(repo, strategy)
//	s, err := resolver.Resolve(ctx, raw)
//
// Errors carry the kinds defined in package shared: invalid input for blank
// or malformed identifiers, not found when no row matches, and internal when
// the store fails or the match is ambiguous.
package student
