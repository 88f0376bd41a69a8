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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Entry is one recorded export.
type Entry struct {
	ID         int64     `json:"id"`
	Time       time.Time `json:"time"`
	Script     string    `json:"script"`
	Author     string    `json:"author,omitempty"`
	Characters []string  `json:"characters"`
	Format     string    `json:"format"`
	Path       string    `json:"path,omitempty"`
	Pages      int       `json:"pages"`
	Remote     bool      `json:"remote,omitempty"`
}

// Record stores e and returns its id. A zero Time is set to now.
func (h *History) Record(ctx context.Context, e Entry) (int64, error) {
	if strings.TrimSpace(e.Format) == "" {
		return 0, errors.New("export format is required")
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Characters == nil {
		e.Characters = []string{}
	}
	chars, err := json.Marshal(e.Characters)
	if err != nil {
		return 0, fmt.Errorf("encode characters: %w", err)
	}
	res, err := h.db.ExecContext(ctx,
		`INSERT INTO exports(ts, script, author, characters, format, path, pages, remote) VALUES(?,?,?,?,?,?,?,?)`,
		e.Time.UTC().Format(tsLayout), e.Script, e.Author, string(chars), e.Format, e.Path, e.Pages, boolInt(e.Remote))
	if err != nil {
		return 0, fmt.Errorf("record export: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record export id: %w", err)
	}
	h.log.Debug("export recorded", slog.Int64("id", id), slog.String("script", e.Script), slog.String("format", e.Format))
	return id, nil
}

// tsLayout sorts lexically in time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = `e.id, e.ts, e.script, COALESCE(e.author,''), e.characters, e.format, COALESCE(e.path,''), e.pages, e.remote`

// Recent returns up to n entries, newest first. n <= 0 selects 20.
func (h *History) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := h.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM exports e ORDER BY e.ts DESC, e.id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return scanEntries(rows)
}

// Search finds entries whose script name, author or characters match text.
// text uses SQLite FTS5 syntax; an empty text behaves like Recent.
func (h *History) Search(ctx context.Context, text string, limit int) ([]Entry, error) {
	if strings.TrimSpace(text) == "" {
		return h.Recent(ctx, limit)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := h.db.QueryContext(ctx, `SELECT `+entryColumns+`
		FROM fts_exports JOIN exports e ON fts_exports.rowid = e.id
		WHERE fts_exports MATCH ?
		ORDER BY e.ts DESC, e.id DESC LIMIT ?`, text, limit)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	return scanEntries(rows)
}

// Count returns the number of recorded exports.
func (h *History) Count(ctx context.Context) (int, error) {
	var n int
	if err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exports`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			ts     string
			chars  string
			remote int
		)
		if err := rows.Scan(&e.ID, &ts, &e.Script, &e.Author, &chars, &e.Format, &e.Path, &e.Pages, &remote); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		t, err := time.Parse(tsLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parse history time %q: %w", ts, err)
		}
		e.Time = t
		if err := json.Unmarshal([]byte(chars), &e.Characters); err != nil {
			return nil, fmt.Errorf("decode characters: %w", err)
		}
		e.Remote = remote != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
