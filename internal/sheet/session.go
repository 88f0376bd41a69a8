/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"fancyscript/internal/catalog"
	"fancyscript/internal/color"
	"fancyscript/internal/domain"
	"fancyscript/internal/jinx"
	applog "fancyscript/internal/log"
	"fancyscript/internal/script"
)

// ErrNoScript is returned by operations that need a loaded script.
var ErrNoScript = errors.New("no script loaded")

// Session holds the last good script and the current options. A failed load
// or sort leaves the previous state in place. Safe for concurrent use.
type Session struct {
	resolver *script.Resolver
	jinxes   catalog.JinxTable
	log      *slog.Logger

	mu       sync.RWMutex
	opts     domain.ScriptOptions
	raw      domain.RawScript
	parsed   domain.ParsedScript
	loaded   bool
	warnings []script.Warning
}

// NewSession returns an empty session using r and the jinx table t.
func NewSession(r *script.Resolver, t catalog.JinxTable, opts domain.ScriptOptions) *Session {
	return &Session{
		resolver: r,
		jinxes:   t,
		opts:     opts,
		log:      applog.WithComponent("session"),
	}
}

// Load parses and resolves data, replacing the current script on success.
func (s *Session) Load(ctx context.Context, data []byte) ([]script.Warning, error) {
	raw, err := script.Parse(data)
	if err != nil {
		s.log.WarnContext(ctx, "load failed, keeping previous script", "err", err)
		return nil, err
	}
	return s.LoadRaw(ctx, raw)
}

// LoadRaw resolves an already decoded script.
func (s *Session) LoadRaw(ctx context.Context, raw domain.RawScript) ([]script.Warning, error) {
	parsed, warns, err := s.resolver.ResolveContext(ctx, raw)
	if err != nil {
		s.log.WarnContext(ctx, "resolve failed, keeping previous script", "err", err)
		return warns, err
	}
	s.mu.Lock()
	s.raw, s.parsed, s.warnings, s.loaded = raw, parsed, warns, true
	s.mu.Unlock()
	applog.WithOperation(s.log, "load").InfoContext(applog.ContextWithScript(ctx, parsed.Metadata.Name), "script loaded",
		slog.Int("characters", len(parsed.Characters)), slog.Int("warnings", len(warns)))
	return warns, nil
}

// Sort reorders the raw script with sorter and resolves the result.
func (s *Session) Sort(ctx context.Context, sorter script.Sorter) error {
	s.mu.RLock()
	raw, loaded := s.raw, s.loaded
	s.mu.RUnlock()
	if !loaded {
		return ErrNoScript
	}
	if sorter == nil {
		return errors.New("no sort oracle")
	}
	sorted, err := sorter(raw)
	if err != nil {
		return fmt.Errorf("sort script: %w", err)
	}
	_, err = s.LoadRaw(ctx, sorted)
	return err
}

// IsSorted reports whether sorter would leave the current script unchanged.
// An empty session counts as sorted.
func (s *Session) IsSorted(sorter script.Sorter) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return true
	}
	return script.IsSorted(s.raw, sorter)
}

// SetOptions replaces the options. An invalid color is rejected with an
// *color.InvalidColorError and the previous options stay in effect.
func (s *Session) SetOptions(o domain.ScriptOptions) error {
	if o.Color != "" {
		if _, _, _, err := color.ParseRGB(o.Color); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.opts = o
	s.mu.Unlock()
	return nil
}

// Options returns the current options.
func (s *Session) Options() domain.ScriptOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

// Raw returns the current raw script.
func (s *Session) Raw() (domain.RawScript, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw, s.loaded
}

// Parsed returns the current resolved script.
func (s *Session) Parsed() (domain.ParsedScript, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parsed, s.loaded
}

// Warnings returns the warnings of the last successful load.
func (s *Session) Warnings() []script.Warning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warnings
}

// Jinxes returns the jinxes of the current script under the current options.
func (s *Session) Jinxes() []domain.Jinx {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return nil
	}
	return jinx.Find(s.parsed.Characters, s.raw, s.opts.UseOldJinxes, s.jinxes)
}

// Model builds the presentation model of the current script.
func (s *Session) Model() (Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Model{}, ErrNoScript
	}
	j := jinx.Find(s.parsed.Characters, s.raw, s.opts.UseOldJinxes, s.jinxes)
	return Build(s.parsed, j, s.opts), nil
}

// Filename returns the export file name of the current script.
func (s *Session) Filename(ext string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Filename(s.parsed.Metadata.Name, ext)
}
