package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/unison-academica/records-lookup/internal/domain/student"
	"github.com/unison-academica/records-lookup/internal/domain/transcript"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Finder for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

var _ student.Finder = (*StudentRepository)(nil)

// FindByIdentifiers returns up to two students matching any candidate.
func (r *StudentRepository) FindByIdentifiers(ctx context.Context, candidates []string) ([]*student.Student, error) {
	if len(candidates) == 0 {
		return []*student.Student{}, nil
	}

	const query = `
		SELECT id, identifier, first_name, paternal_surname,
			   COALESCE(maternal_surname, ''), email, COALESCE(current_group, '')
		FROM students
		WHERE identifier = ANY($1)
		ORDER BY id
		LIMIT $2
	`

	ctx, cancel := r.conn.withQueryTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, query, candidates, student.MaxMatches)
	if err != nil {
		return nil, fmt.Errorf("failed to query students by identifier: %w", err)
	}
	defer rows.Close()

	return scanStudents(rows)
}

func scanStudents(rows pgx.Rows) ([]*student.Student, error) {
	var students []*student.Student

	for rows.Next() {
		var s student.Student
		err := rows.Scan(
			&s.Ref,
			&s.Identifier,
			&s.FirstName,
			&s.PaternalSurname,
			&s.MaternalSurname,
			&s.Email,
			&s.CurrentGroup,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	return students, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// GradeRepository loads raw grade rows for a student.
type GradeRepository struct {
	conn *Connection
}

// NewGradeRepository creates a new GradeRepository.
func NewGradeRepository(conn *Connection) *GradeRepository {
	return &GradeRepository{conn: conn}
}

// GradesByStudent returns the student's grades ordered by period start,
// then subject name. Scores are rendered as text and parsed by the caller.
func (r *GradeRepository) GradesByStudent(ctx context.Context, ref int64) ([]transcript.GradeEntry, error) {
	const query = `
		SELECT sub.name, p.label, g.score::text
		FROM grades g
		JOIN class_groups cg ON cg.id = g.class_group_id
		JOIN subjects sub ON sub.id = cg.subject_id
		JOIN periods p ON p.id = cg.period_id
		WHERE g.student_id = $1
		ORDER BY p.starts_on, p.id, sub.name, g.id
	`

	ctx, cancel := r.conn.withQueryTimeout(ctx)
	defer cancel()

	rows, err := r.conn.Query(ctx, query, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to query grades: %w", err)
	}
	defer rows.Close()

	entries := []transcript.GradeEntry{}
	for rows.Next() {
		var e transcript.GradeEntry
		if err := rows.Scan(&e.Subject, &e.Period, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan grade: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grades: %w", err)
	}
	return entries, nil
}
