/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package jinx finds the jinx pairs that apply to a resolved script.
package jinx

import (
	"cmp"
	"slices"

	"fancyscript/internal/catalog"
	"fancyscript/internal/domain"
)

// ColumnThreshold is the count above which jinxes are laid out in two columns.
const ColumnThreshold = 4

// Find returns the jinxes between characters that are both in chars.
//
// Rules come from the selected data set of table and from jinxes declared
// inline in raw; an inline rule replaces the table text of the same pair.
// Each pair appears once, ordered so that A comes first in the team
// enumeration, and the result is sorted by A then B.
func Find(chars []domain.ResolvedCharacter, raw domain.RawScript, useOld bool, table catalog.JinxTable) []domain.Jinx {
	pos := positions(chars)
	byKey := map[string]domain.Jinx{}
	add := func(a, b, reason string, override bool) {
		a, b = domain.NormalizeID(a), domain.NormalizeID(b)
		pa, okA := pos[a]
		pb, okB := pos[b]
		if !okA || !okB || a == b {
			return
		}
		if pb < pa {
			a, b = b, a
		}
		key := domain.PairKey(a, b)
		if _, seen := byKey[key]; seen && !override {
			return
		}
		byKey[key] = domain.Jinx{A: a, B: b, Reason: reason}
	}

	set := table.Set(useOld)
	for _, c := range chars {
		for _, r := range set.For(c.ID) {
			add(c.ID, r.ID, r.Reason, false)
		}
	}
	for _, el := range raw {
		if el.Kind != domain.ElementCharacter || el.Character == nil {
			continue
		}
		for _, r := range el.Character.Jinxes {
			add(el.Character.ID, r.ID, r.Reason, true)
		}
	}

	out := make([]domain.Jinx, 0, len(byKey))
	for _, j := range byKey {
		out = append(out, j)
	}
	slices.SortFunc(out, func(x, y domain.Jinx) int {
		if c := cmp.Compare(pos[x.A], pos[y.A]); c != 0 {
			return c
		}
		return cmp.Compare(pos[x.B], pos[y.B])
	})
	return out
}

// positions ranks characters by team enumeration, then input order.
func positions(chars []domain.ResolvedCharacter) map[string]int {
	pos := make(map[string]int, len(chars))
	n := 0
	for _, team := range domain.TeamOrder {
		for _, c := range chars {
			if c.Team != team {
				continue
			}
			if _, dup := pos[c.ID]; !dup {
				pos[c.ID] = n
				n++
			}
		}
	}
	for _, c := range chars {
		if _, ok := pos[c.ID]; !ok {
			pos[c.ID] = n
			n++
		}
	}
	return pos
}

// Columns splits jinxes for the sheet layout. Up to ColumnThreshold jinxes
// stay in one column; beyond that the left column takes the larger half.
func Columns(jinxes []domain.Jinx) (left, right []domain.Jinx) {
	if len(jinxes) <= ColumnThreshold {
		return jinxes, nil
	}
	half := (len(jinxes) + 1) / 2
	return jinxes[:half], jinxes[half:]
}
