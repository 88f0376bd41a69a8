/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "fancyscript/internal/log"
	"fancyscript/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	HistoryFileName = "history.sqlite"

	// schemaVersion tracks the history schema. Bump it and add a migration
	// step for breaking changes.
	schemaVersion = 2
)

// HistoryPath returns the database path inside dir.
func HistoryPath(dir string) string {
	return filepath.Join(dir, HistoryFileName)
}

// History is the export history database.
type History struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// Open creates or opens the history database in dir, enables WAL mode and
// brings the schema up to date.
func Open(dir string) (*History, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("history dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create history dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	path := HistoryPath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure history schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("history ready", slog.String("path", path))
	return &History{db: db, path: path, log: applog.WithComponent("storage")}, nil
}

// OpenOrRebuild opens the history and recreates it when the file is corrupt.
// The damaged file is copied to dir/backups first. It reports whether a
// rebuild happened.
func OpenOrRebuild(ctx context.Context, dir string) (*History, bool, error) {
	path := HistoryPath(dir)
	h, err := Open(dir)
	if err == nil {
		if h.healthy(ctx) {
			return h, false, nil
		}
		_ = h.Close()
	}
	backupFile(path)
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
	h, rerr := Open(dir)
	if rerr != nil {
		if err != nil {
			return nil, false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rerr, err)
		}
		return nil, false, fmt.Errorf("rebuild history: %w", rerr)
	}
	h.log.Warn("history rebuilt", slog.String("path", path))
	return h, true, nil
}

func (h *History) healthy(ctx context.Context) bool {
	var chk string
	if err := h.db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		return false
	}
	_, err := h.db.ExecContext(ctx, `SELECT 1 FROM exports LIMIT 1;`)
	return err == nil
}

// backupFile copies path into a timestamped backup next to it.
func backupFile(path string) {
	bdir := filepath.Join(filepath.Dir(path), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(path), stamp))
	if data, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// Path returns the database file.
func (h *History) Path() string { return h.path }

// Close closes the database.
func (h *History) Close() error { return h.db.Close() }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Keep the stored schema so migrations can run.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// historyIndexes were added in schema 2.
var historyIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_exports_ts ON exports(ts);`,
	`CREATE INDEX IF NOT EXISTS idx_exports_script ON exports(script);`,
}

func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS exports (
			id         INTEGER PRIMARY KEY,
			ts         TEXT    NOT NULL,
			script     TEXT    NOT NULL,
			author     TEXT,
			characters TEXT    NOT NULL,
			format     TEXT    NOT NULL,
			path       TEXT,
			pages      INTEGER NOT NULL DEFAULT 0,
			remote     INTEGER NOT NULL DEFAULT 0
		);`,
		// Contentless FTS index over script name, author and character ids.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_exports USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,
		`CREATE TRIGGER IF NOT EXISTS exports_ai AFTER INSERT ON exports BEGIN
			INSERT INTO fts_exports(rowid, text) VALUES (new.id, new.script || ' ' || COALESCE(new.author,'') || ' ' || new.characters);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS exports_ad AFTER DELETE ON exports BEGIN
			INSERT INTO fts_exports(fts_exports, rowid, text) VALUES ('delete', old.id, old.script || ' ' || COALESCE(old.author,'') || ' ' || old.characters);
		END;`,
	}
	for _, q := range append(ddl, historyIndexes...) {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Written by a newer build; never downgrade.
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = historyIndexes
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}
