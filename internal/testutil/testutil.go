// Package testutil provides helpers shared by package tests.
package testutil

import (
	"database/sql"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// sqliteSchema mirrors repository/schema.sql in SQLite syntax.
const sqliteSchema = `
CREATE TABLE users (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    email      TEXT NOT NULL UNIQUE,
    auth_hash  TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
CREATE TABLE generations (
    id                      INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id                 INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    model                   TEXT NOT NULL,
    generated_count         INTEGER NOT NULL,
    accepted_unedited_count INTEGER NOT NULL DEFAULT 0,
    accepted_edited_count   INTEGER NOT NULL DEFAULT 0,
    source_text_hash        TEXT NOT NULL,
    source_text_length      INTEGER NOT NULL,
    generation_duration     INTEGER NOT NULL,
    created_at              DATETIME NOT NULL,
    updated_at              DATETIME NOT NULL
);
CREATE TABLE flashcards (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    front         TEXT NOT NULL,
    back          TEXT NOT NULL,
    source        TEXT NOT NULL,
    generation_id INTEGER NULL REFERENCES generations (id) ON DELETE SET NULL,
    user_id       INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
);
CREATE TABLE generation_error_logs (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id            INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    model              TEXT NOT NULL,
    source_text_hash   TEXT NOT NULL,
    source_text_length INTEGER NOT NULL,
    error_code         TEXT NOT NULL,
    error_message      TEXT NOT NULL,
    created_at         DATETIME NOT NULL
)`

// NewSQLiteDB returns an empty in-memory database with the application
// schema applied. It is closed when the test ends.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file::memory:?_time_format=sqlite&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return db
}

// InsertUser adds a user row directly and returns its id.
func InsertUser(t testing.TB, db *sql.DB, email string) int64 {
	t.Helper()

	res, err := db.Exec(
		`INSERT INTO users (email, auth_hash, created_at, updated_at) VALUES (?, 'x', datetime('now'), datetime('now'))`,
		email,
	)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}
