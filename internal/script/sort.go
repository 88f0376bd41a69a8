/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"fancyscript/internal/catalog"
	"fancyscript/internal/domain"
	applog "fancyscript/internal/log"
)

// Sorter is the canonical ordering oracle. It must be deterministic and idempotent.
type Sorter func(domain.RawScript) (domain.RawScript, error)

// Serialize encodes a raw script the way it is compared and exported.
func Serialize(raw domain.RawScript) ([]byte, error) {
	if raw == nil {
		raw = domain.RawScript{}
	}
	return json.Marshal(raw)
}

// IsSorted reports whether sort would leave raw unchanged. If the oracle fails
// or panics the script is assumed to be sorted.
func IsSorted(raw domain.RawScript, sort Sorter) (sorted bool) {
	if sort == nil {
		return true
	}
	l := applog.WithOperation(applog.WithComponent("resolver"), "is_sorted")
	defer func() {
		if r := recover(); r != nil {
			l.Warn("sort oracle panicked, assuming sorted", "panic", fmt.Sprint(r))
			sorted = true
		}
	}()
	before, err := Serialize(raw)
	if err != nil {
		l.Warn("serialize script failed, assuming sorted", "err", err)
		return true
	}
	out, err := sort(raw)
	if err != nil {
		l.Warn("sort oracle failed, assuming sorted", "err", err)
		return true
	}
	after, err := Serialize(out)
	if err != nil {
		l.Warn("serialize sorted script failed, assuming sorted", "err", err)
		return true
	}
	return bytes.Equal(before, after)
}

// TeamSorter is a simple stand-in oracle: metadata first, then characters in
// team order (townsfolk to fabled), unknown references last. Order within a
// team is kept.
func TeamSorter(c *catalog.Catalog) Sorter {
	return func(raw domain.RawScript) (domain.RawScript, error) {
		rank := func(el domain.RawElement) int {
			switch el.Kind {
			case domain.ElementMeta:
				return -1
			case domain.ElementCharacter:
				if el.Character != nil && el.Character.Team != "" {
					if t, ok := domain.ParseTeam(el.Character.Team); ok {
						return t.Index()
					}
					return domain.Townsfolk.Index()
				}
			}
			if ch, ok := c.Lookup(el.ID()); ok {
				return ch.Team.Index()
			}
			return len(domain.TeamOrder)
		}
		out := slices.Clone(raw)
		slices.SortStableFunc(out, func(a, b domain.RawElement) int { return rank(a) - rank(b) })
		return out, nil
	}
}
