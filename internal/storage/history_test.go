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
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTest(t *testing.T) (*History, string) {
	t.Helper()
	dir := t.TempDir()
	h, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h, dir
}

func TestOpenCreatesWALAndMetaVersion(t *testing.T) {
	h, _ := openTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var mode string
	if err := h.db.QueryRowContext(ctx, "PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" && mode != "WAL" {
		t.Fatalf("expected WAL mode, got %s", mode)
	}
	var cnt int
	if err := h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('meta','version','exports','fts_exports')").Scan(&cnt); err != nil {
		t.Fatalf("query sqlite_master: %v", err)
	}
	if cnt != 4 {
		t.Fatalf("expected 4 tables, got %d", cnt)
	}
	var schema int
	if err := h.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil || schema != schemaVersion {
		t.Fatalf("schema = %d, %v", schema, err)
	}
}

func TestRecordRecentSearch(t *testing.T) {
	h, _ := openTest(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Time: base, Script: "Trouble Brewing", Author: "TPI", Characters: []string{"washerwoman", "imp"}, Format: "pdf", Path: "tb.pdf", Pages: 1},
		{Time: base.Add(time.Hour), Script: "Sects and Violets", Characters: []string{"clockmaker", "vigormortis"}, Format: "png", Pages: 2},
		{Time: base.Add(2 * time.Hour), Script: "Bad Moon Rising", Characters: []string{"grandmother", "po"}, Format: "pdf", Remote: true},
	}
	for _, e := range entries {
		if _, err := h.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	n, err := h.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v", n, err)
	}

	recent, err := h.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Script != "Bad Moon Rising" || !recent[0].Remote || recent[1].Pages != 2 {
		t.Fatalf("recent = %+v", recent)
	}
	if !recent[0].Time.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("time = %v", recent[0].Time)
	}

	found, err := h.Search(ctx, "imp", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].Script != "Trouble Brewing" || found[0].Author != "TPI" || len(found[0].Characters) != 2 {
		t.Fatalf("found = %+v", found)
	}
	if found, _ = h.Search(ctx, "violets", 10); len(found) != 1 {
		t.Fatalf("search by name = %+v", found)
	}
	if all, _ := h.Search(ctx, " ", 0); len(all) != 3 {
		t.Fatalf("empty search = %+v", all)
	}
}

func TestRecordRequiresFormat(t *testing.T) {
	h, _ := openTest(t)
	if _, err := h.Record(context.Background(), Entry{Script: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMigrations_UpgradeV1ToV2(t *testing.T) {
	dir := t.TempDir()
	path := HistoryPath(dir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version(id, schema, app, created_at, updated_at) VALUES(1, 1, 'test', '2020-01-01T00:00:00Z', '2020-01-01T00:00:00Z');`,
		`CREATE TABLE IF NOT EXISTS exports (id INTEGER PRIMARY KEY, ts TEXT NOT NULL, script TEXT NOT NULL, author TEXT, characters TEXT NOT NULL, format TEXT NOT NULL, path TEXT, pages INTEGER NOT NULL DEFAULT 0, remote INTEGER NOT NULL DEFAULT 0);`,
	}
	for _, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("seed v1 schema: %v (q=%s)", err, q)
		}
	}
	_ = db.Close()

	h, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()
	var schema int
	if err := h.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if schema != 2 {
		t.Fatalf("expected schema 2 after migration, got %d", schema)
	}
	var cnt int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name IN ('idx_exports_ts','idx_exports_script')`).Scan(&cnt); err != nil {
		t.Fatalf("query indexes: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("expected history indexes after migration, got %d", cnt)
	}
}

func TestOpenOrRebuild_OnCorruption(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(HistoryPath(dir), []byte("THIS IS NOT SQLITE, JUST SOME BYTES THAT ARE LONG ENOUGH TO LOOK LIKE A HEADER..."), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h, rebuilt, err := OpenOrRebuild(ctx, dir)
	if err != nil {
		t.Fatalf("OpenOrRebuild: %v", err)
	}
	defer h.Close()
	if !rebuilt {
		t.Fatalf("expected rebuild to occur")
	}
	if _, err := h.Record(ctx, Entry{Script: "x", Format: "pdf"}); err != nil {
		t.Fatalf("record after rebuild: %v", err)
	}
	entries, _ := os.ReadDir(filepath.Join(dir, "backups"))
	if len(entries) == 0 {
		t.Fatalf("expected backup file")
	}
}

func TestOpenOrRebuild_Healthy(t *testing.T) {
	dir := t.TempDir()
	h, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	_ = h.Close()
	h, rebuilt, err := OpenOrRebuild(context.Background(), dir)
	if err != nil || rebuilt {
		t.Fatalf("rebuilt=%v err=%v", rebuilt, err)
	}
	_ = h.Close()
}
