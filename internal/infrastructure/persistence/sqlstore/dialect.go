package sqlstore

import "fmt"

// Dialect captures the SQL differences between supported drivers.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	// ScoreAsText renders the score column as text.
	ScoreAsText string

	// Migrations are applied in order; each entry is a list of statements.
	Migrations []Migration
}

// Migration is a versioned schema change expressed as single statements,
// since not every driver accepts several statements per Exec.
type Migration struct {
	Version int
	Name    string
	Up      []string
	Down    []string
}

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return mysqlDialect, nil
	case "sqlite":
		return sqliteDialect, nil
	default:
		return Dialect{}, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

const bareIdentifierExpr = `(CASE WHEN substr(identifier, 1, 3) = 'EXP' THEN substr(identifier, 4) ELSE identifier END)`

// ══════════════════════════════════════════════════════════════════════════════
// MYSQL
// ══════════════════════════════════════════════════════════════════════════════

var mysqlDialect = Dialect{
	Driver:      "mysql",
	ScoreAsText: "CAST(g.score AS CHAR)",
	Migrations: []Migration{
		{
			Version: 1,
			Name:    "create_records_schema",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS students (
					id BIGINT AUTO_INCREMENT PRIMARY KEY,
					identifier VARCHAR(32) NOT NULL UNIQUE,
					first_name VARCHAR(100) NOT NULL,
					paternal_surname VARCHAR(100) NOT NULL,
					maternal_surname VARCHAR(100) NULL,
					email VARCHAR(255) NOT NULL DEFAULT '',
					current_group VARCHAR(50) NULL
				) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`,
				`CREATE TABLE IF NOT EXISTS subjects (
					id BIGINT AUTO_INCREMENT PRIMARY KEY,
					name VARCHAR(150) NOT NULL
				) CHARACTER SET utf8mb4`,
				`CREATE TABLE IF NOT EXISTS periods (
					id BIGINT AUTO_INCREMENT PRIMARY KEY,
					label VARCHAR(30) NOT NULL UNIQUE,
					starts_on DATE NOT NULL
				) CHARACTER SET utf8mb4`,
				`CREATE TABLE IF NOT EXISTS class_groups (
					id BIGINT AUTO_INCREMENT PRIMARY KEY,
					subject_id BIGINT NOT NULL,
					period_id BIGINT NOT NULL,
					FOREIGN KEY (subject_id) REFERENCES subjects(id) ON DELETE CASCADE,
					FOREIGN KEY (period_id) REFERENCES periods(id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS grades (
					id BIGINT AUTO_INCREMENT PRIMARY KEY,
					student_id BIGINT NOT NULL,
					class_group_id BIGINT NOT NULL,
					score DECIMAL(5,2) NOT NULL,
					INDEX idx_grades_student (student_id),
					FOREIGN KEY (student_id) REFERENCES students(id) ON DELETE CASCADE,
					FOREIGN KEY (class_group_id) REFERENCES class_groups(id) ON DELETE CASCADE
				)`,
			},
			Down: []string{
				`DROP TABLE IF EXISTS grades`,
				`DROP TABLE IF EXISTS class_groups`,
				`DROP TABLE IF EXISTS periods`,
				`DROP TABLE IF EXISTS subjects`,
				`DROP TABLE IF EXISTS students`,
			},
		},
		{
			Version: 2,
			Name:    "unique_bare_identifier",
			Up: []string{
				`CREATE UNIQUE INDEX idx_students_bare_identifier ON students ((` + bareIdentifierExpr + `))`,
			},
			Down: []string{
				`DROP INDEX idx_students_bare_identifier ON students`,
			},
		},
	},
}

// ══════════════════════════════════════════════════════════════════════════════
// SQLITE
// ══════════════════════════════════════════════════════════════════════════════

var sqliteDialect = Dialect{
	Driver:      "sqlite",
	ScoreAsText: "CAST(g.score AS TEXT)",
	Migrations: []Migration{
		{
			Version: 1,
			Name:    "create_records_schema",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS students (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					identifier TEXT NOT NULL UNIQUE,
					first_name TEXT NOT NULL,
					paternal_surname TEXT NOT NULL,
					maternal_surname TEXT,
					email TEXT NOT NULL DEFAULT '',
					current_group TEXT
				)`,
				`CREATE TABLE IF NOT EXISTS subjects (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS periods (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					label TEXT NOT NULL UNIQUE,
					starts_on DATE NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS class_groups (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					subject_id INTEGER NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
					period_id INTEGER NOT NULL REFERENCES periods(id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS grades (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
					class_group_id INTEGER NOT NULL REFERENCES class_groups(id) ON DELETE CASCADE,
					score NUMERIC NOT NULL
				)`,
				`CREATE INDEX IF NOT EXISTS idx_grades_student ON grades(student_id)`,
			},
			Down: []string{
				`DROP TABLE IF EXISTS grades`,
				`DROP TABLE IF EXISTS class_groups`,
				`DROP TABLE IF EXISTS periods`,
				`DROP TABLE IF EXISTS subjects`,
				`DROP TABLE IF EXISTS students`,
			},
		},
		{
			Version: 2,
			Name:    "unique_bare_identifier",
			Up: []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_students_bare_identifier ON students (` + bareIdentifierExpr + `)`,
			},
			Down: []string{
				`DROP INDEX IF EXISTS idx_students_bare_identifier`,
			},
		},
	},
}
