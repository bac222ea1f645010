package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: RECORDS SCHEMA
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Students are owned by the system of record; this service only reads them.
CREATE TABLE IF NOT EXISTS students (
    id BIGSERIAL PRIMARY KEY,
    identifier VARCHAR(32) NOT NULL UNIQUE,
    first_name VARCHAR(100) NOT NULL,
    paternal_surname VARCHAR(100) NOT NULL,
    maternal_surname VARCHAR(100),
    email VARCHAR(255) NOT NULL DEFAULT '',
    current_group VARCHAR(50),

    CONSTRAINT identifier_not_blank CHECK (btrim(identifier) <> '')
);

CREATE TABLE IF NOT EXISTS subjects (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(150) NOT NULL
);

-- Grading periods, e.g. "2024-1".
CREATE TABLE IF NOT EXISTS periods (
    id BIGSERIAL PRIMARY KEY,
    label VARCHAR(30) NOT NULL UNIQUE,
    starts_on DATE NOT NULL
);

CREATE TABLE IF NOT EXISTS class_groups (
    id BIGSERIAL PRIMARY KEY,
    subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
    period_id BIGINT NOT NULL REFERENCES periods(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_class_groups_subject ON class_groups(subject_id);
CREATE INDEX IF NOT EXISTS idx_class_groups_period ON class_groups(period_id);

CREATE TABLE IF NOT EXISTS grades (
    id BIGSERIAL PRIMARY KEY,
    student_id BIGINT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    class_group_id BIGINT NOT NULL REFERENCES class_groups(id) ON DELETE CASCADE,
    score NUMERIC(5,2) NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_grades_student ON grades(student_id);
`

const migration001Down = `
DROP TABLE IF EXISTS grades;
DROP TABLE IF EXISTS class_groups;
DROP TABLE IF EXISTS periods;
DROP TABLE IF EXISTS subjects;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: UNIQUE BARE IDENTIFIER
// "EXP123" and "123" must not both exist, otherwise a lookup by either form
// would match two students.
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE UNIQUE INDEX IF NOT EXISTS idx_students_bare_identifier
    ON students ((CASE WHEN identifier LIKE 'EXP%' THEN substr(identifier, 4) ELSE identifier END));
`

const migration002Down = `
DROP INDEX IF EXISTS idx_students_bare_identifier;
`
