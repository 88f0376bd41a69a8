/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package nightorder derives the first-night and other-night wake orders.
package nightorder

import (
	"slices"

	"fancyscript/internal/domain"
)

// Calculate orders characters by their night priorities. A priority of zero
// or less means the character does not wake that night. Equal priorities keep
// script order.
func Calculate(chars []domain.ResolvedCharacter) domain.NightOrder {
	no := domain.NightOrder{First: []domain.NightEntry{}, Other: []domain.NightEntry{}}
	for _, c := range chars {
		if c.FirstNight > 0 {
			no.First = append(no.First, entry(c, c.FirstNight, c.FirstNightReminder))
		}
		if c.OtherNight > 0 {
			no.Other = append(no.Other, entry(c, c.OtherNight, c.OtherNightReminder))
		}
	}
	byPriority := func(a, b domain.NightEntry) int {
		switch {
		case a.Priority < b.Priority:
			return -1
		case a.Priority > b.Priority:
			return 1
		}
		return 0
	}
	slices.SortStableFunc(no.First, byPriority)
	slices.SortStableFunc(no.Other, byPriority)
	return no
}

func entry(c domain.ResolvedCharacter, prio float64, reminder string) domain.NightEntry {
	return domain.NightEntry{ID: c.ID, Name: c.Name, Team: c.Team, Priority: prio, Reminder: reminder}
}
