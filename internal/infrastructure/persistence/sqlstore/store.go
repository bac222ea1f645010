// Package sqlstore implements the student and grade stores on database/sql,
// for MySQL deployments and for embedded SQLite databases.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/unison-academica/records-lookup/internal/domain/student"
	"github.com/unison-academica/records-lookup/internal/domain/transcript"
)

// Options holds pool and timeout settings.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// QueryTimeout bounds every read. Zero disables the bound.
	QueryTimeout time.Duration
}

// Store serves student and grade reads from a database/sql handle.
type Store struct {
	db      *sql.DB
	dialect Dialect
	opts    Options
}

// Open opens and pings a database. driver is "mysql" or "sqlite".
func Open(ctx context.Context, driver, dsn string, opts Options) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: failed to open database: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: failed to ping database: %w", err)
	}

	return &Store{db: db, dialect: dialect, opts: opts}, nil
}

// DB returns the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping checks if the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opts.QueryTimeout)
}

var _ student.Finder = (*Store)(nil)

// FindByIdentifiers returns up to two students matching any candidate.
func (s *Store) FindByIdentifiers(ctx context.Context, candidates []string) ([]*student.Student, error) {
	if len(candidates) == 0 {
		return []*student.Student{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(candidates)), ", ")
	args := make([]any, 0, len(candidates)+1)
	for _, c := range candidates {
		args = append(args, c)
	}
	args = append(args, student.MaxMatches)

	query := `
		SELECT id, identifier, first_name, paternal_surname,
			   COALESCE(maternal_surname, ''), email, COALESCE(current_group, '')
		FROM students
		WHERE identifier IN (` + placeholders + `)
		ORDER BY id
		LIMIT ?`

	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query students by identifier: %w", err)
	}
	defer rows.Close()

	var students []*student.Student
	for rows.Next() {
		var st student.Student
		err := rows.Scan(
			&st.Ref,
			&st.Identifier,
			&st.FirstName,
			&st.PaternalSurname,
			&st.MaternalSurname,
			&st.Email,
			&st.CurrentGroup,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read students: %w", err)
	}
	return students, nil
}

// GradesByStudent returns the student's grades ordered by period start,
// then subject name.
func (s *Store) GradesByStudent(ctx context.Context, ref int64) ([]transcript.GradeEntry, error) {
	query := `
		SELECT sub.name, p.label, ` + s.dialect.ScoreAsText + `
		FROM grades g
		JOIN class_groups cg ON cg.id = g.class_group_id
		JOIN subjects sub ON sub.id = cg.subject_id
		JOIN periods p ON p.id = cg.period_id
		WHERE g.student_id = ?
		ORDER BY p.starts_on, p.id, sub.name, g.id`

	ctx, cancel := s.withQueryTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, ref)
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
