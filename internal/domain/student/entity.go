package student

import "strings"

// Student is a read-only view of a student row. Records are created and
// updated by the external system of record; this service only looks them up.
type Student struct {
	// Ref is the store's internal key, used to load grades. Never exposed.
	Ref int64

	// Identifier is the canonical, store-authoritative identifier.
	Identifier string

	FirstName       string
	PaternalSurname string
	// MaternalSurname may be empty.
	MaternalSurname string

	Email string

	// CurrentGroup is empty when the store does not record it.
	CurrentGroup string
}

// FullName joins the non-empty name parts with single spaces.
func (s *Student) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{s.FirstName, s.PaternalSurname, s.MaternalSurname} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// GroupOr returns the current group, or placeholder when none is recorded.
func (s *Student) GroupOr(placeholder string) string {
	if g := strings.TrimSpace(s.CurrentGroup); g != "" {
		return g
	}
	return placeholder
}

// Clone returns a copy of the student.
func (s *Student) Clone() *Student {
	c := *s
	return &c
}
