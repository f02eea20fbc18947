package db

import (
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`
CREATE TABLE IF NOT EXISTS quizzes (
    id           BIGSERIAL PRIMARY KEY,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL,
    summary      TEXT NOT NULL DEFAULT '',
    key_entities JSONB NOT NULL DEFAULT '{}',
    sections     JSONB NOT NULL DEFAULT '[]',
    raw_html     TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`
CREATE TABLE IF NOT EXISTS quiz_questions (
    id                BIGSERIAL PRIMARY KEY,
    quiz_id           BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
    position          INTEGER NOT NULL,
    question          TEXT NOT NULL,
    options           JSONB NOT NULL,
    answer            TEXT NOT NULL,
    difficulty        VARCHAR(10) NOT NULL,
    explanation       TEXT NOT NULL DEFAULT '',
    section_reference TEXT NOT NULL DEFAULT ''
)`,
	`
CREATE TABLE IF NOT EXISTS related_topics (
    id       BIGSERIAL PRIMARY KEY,
    quiz_id  BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    topic    TEXT NOT NULL
)`,
}

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS quizzes (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    url          TEXT NOT NULL UNIQUE,
    title        TEXT NOT NULL,
    summary      TEXT NOT NULL DEFAULT '',
    key_entities TEXT NOT NULL DEFAULT '{}',
    sections     TEXT NOT NULL DEFAULT '[]',
    raw_html     TEXT NOT NULL DEFAULT '',
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
	`
CREATE TABLE IF NOT EXISTS quiz_questions (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    quiz_id           INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
    position          INTEGER NOT NULL,
    question          TEXT NOT NULL,
    options           TEXT NOT NULL,
    answer            TEXT NOT NULL,
    difficulty        TEXT NOT NULL,
    explanation       TEXT NOT NULL DEFAULT '',
    section_reference TEXT NOT NULL DEFAULT ''
)`,
	`
CREATE TABLE IF NOT EXISTS related_topics (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    quiz_id  INTEGER NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    topic    TEXT NOT NULL
)`,
}

// Shared by both dialects.
var indexes = []string{
	// history listing: ORDER BY created_at DESC
	`CREATE INDEX IF NOT EXISTS idx_quizzes_created_at ON quizzes(created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_quiz_questions_quiz_id ON quiz_questions(quiz_id, position)`,
	`CREATE INDEX IF NOT EXISTS idx_related_topics_quiz_id ON related_topics(quiz_id, position)`,
}

// MigrateUp creates the quiz tables and indexes for dialect. It is idempotent.
func MigrateUp(db *sql.DB, dialect Dialect) error {
	var schema []string
	switch dialect {
	case DialectPostgres:
		schema = postgresSchema
	case DialectSQLite:
		schema = sqliteSchema
	default:
		return fmt.Errorf("migrate: unknown dialect %q", dialect)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}
	return nil
}
