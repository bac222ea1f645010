package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unison-academica/records-lookup/internal/application/query"
	"github.com/unison-academica/records-lookup/internal/infrastructure/persistence/sqlstore"
)

// workspace runs in a temp dir with a migrated, seeded sqlite database.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RESOLVER_MODE", "")
	t.Setenv("IDENTIFIER_PREFIX", "")

	db := filepath.Join(dir, "records.db")
	out, code := run(t, "--driver", "sqlite", "--database-url", db, "migrate", "up")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "applied 2 migration(s)")

	st, err := sqlstore.Open(t.Context(), "sqlite", db, sqlstore.Options{})
	require.NoError(t, err)
	defer st.Close()

	for _, stmt := range []string{
		`INSERT INTO students (id, identifier, first_name, paternal_surname, email) VALUES (1, 'EXP123', 'Ana', 'López', 'ana@example.edu')`,
		`INSERT INTO periods (id, label, starts_on) VALUES (1, '2024-1', '2024-01-15'), (2, '2024-2', '2024-08-01')`,
		`INSERT INTO subjects (id, name) VALUES (1, 'Math'), (2, 'Bio')`,
		`INSERT INTO class_groups (id, subject_id, period_id) VALUES (1, 1, 1), (2, 2, 1), (3, 1, 2)`,
		`INSERT INTO grades (student_id, class_group_id, score) VALUES (1, 1, 8.5), (1, 2, 5), (1, 3, 9)`,
	} {
		_, err := st.DB().Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(t.Context(), args, &stdout, &stderr)
	return stdout.String() + stderr.String(), code
}

func TestLookup_Table(t *testing.T) {
	db := workspace(t)

	out, code := run(t, "--driver", "sqlite", "--database-url", db, "lookup", "123")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "Ana López")
	assert.Contains(t, out, "EXP123")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "Reprobada")
	assert.Contains(t, out, "7.50")
	assert.Contains(t, out, "67%")
}

func TestLookup_JSONWithSemester(t *testing.T) {
	db := workspace(t)

	var stdout, stderr bytes.Buffer
	code := execute(t.Context(), []string{
		"--driver", "sqlite", "--database-url", db,
		"lookup", "EXP123", "--semester", "2024-1", "--json",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var result query.SummaryResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	assert.Equal(t, "EXP123", result.Student.CanonicalIdentifier)
	assert.Len(t, result.Summary.Records, 2)
	assert.Equal(t, 6.75, result.Summary.Average)
	assert.Equal(t, 50, result.Summary.ApprovalRate)
}

func TestLookup_ExitCodes(t *testing.T) {
	db := workspace(t)

	_, code := run(t, "--driver", "sqlite", "--database-url", db, "lookup", "999")
	assert.Equal(t, exitNotFound, code)

	_, code = run(t, "--driver", "sqlite", "--database-url", db, "lookup", "  ")
	assert.Equal(t, exitInvalidInput, code)

	_, code = run(t, "--driver", "sqlite", "--database-url", db, "--mode", "numeric", "lookup", "EXP123")
	assert.Equal(t, exitInvalidInput, code)

	_, code = run(t, "--driver", "oracle", "--database-url", db, "lookup", "123")
	assert.Equal(t, exitFailure, code)
}

func TestExport(t *testing.T) {
	db := workspace(t)

	out, code := run(t, "--driver", "sqlite", "--database-url", db, "export", "123", "-s", "2024-2")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "transcript_EXP123_2024-2.xlsx (1 records)")

	info, err := os.Stat("transcript_EXP123_2024-2.xlsx")
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	target := filepath.Join(t.TempDir(), "ana.xlsx")
	_, code = run(t, "--driver", "sqlite", "--database-url", db, "export", "123", "-o", target)
	require.Equal(t, exitOK, code)
	assert.FileExists(t, target)
}

func TestWriteFile_RemovesPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.xlsx")

	err := writeFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("PK"))
		return errors.New("render failed")
	})
	assert.EqualError(t, err, "render failed")
	assert.NoFileExists(t, path)

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("ok"))
		return err
	}))
	assert.FileExists(t, path)
}

func TestMigrate_RefusesForeignPrefix(t *testing.T) {
	db := workspace(t)
	t.Setenv("IDENTIFIER_PREFIX", "MAT")

	out, code := run(t, "--driver", "sqlite", "--database-url", db, "migrate", "up")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, out, `IDENTIFIER_PREFIX "MAT"`)

	out, code = run(t, "--driver", "sqlite", "--database-url", db, "--mode", "numeric", "migrate", "up")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "applied 0 migration(s)")
}

func TestMigrate_StatusAndDown(t *testing.T) {
	db := workspace(t)

	out, code := run(t, "--driver", "sqlite", "--database-url", db, "migrate", "status")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "create_records_schema")
	assert.Contains(t, out, "true")

	out, code = run(t, "--driver", "sqlite", "--database-url", db, "migrate", "down")
	require.Equal(t, exitOK, code, out)
	assert.Contains(t, out, "rolled back migration 2")
}
