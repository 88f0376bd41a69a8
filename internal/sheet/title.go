/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sheet

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleWord is one word of the sheet title. Minor words are drawn smaller.
type TitleWord struct {
	Text  string `json:"text"`
	Minor bool   `json:"minor,omitempty"`
}

var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "but": true,
	"by": true, "for": true, "from": true, "in": true, "into": true, "nor": true,
	"of": true, "on": true, "or": true, "the": true, "to": true, "with": true,
}

// FormatTitle splits title into words. With shrinkMinor set, minor words
// after the first are marked and lowercased while the others get a leading
// capital; otherwise the words are returned as written.
func FormatTitle(title string, shrinkMinor bool) []TitleWord {
	fields := strings.Fields(title)
	out := make([]TitleWord, 0, len(fields))
	if !shrinkMinor {
		for _, f := range fields {
			out = append(out, TitleWord{Text: f})
		}
		return out
	}
	upper := cases.Title(language.English, cases.NoLower)
	lower := cases.Lower(language.English)
	for i, f := range fields {
		l := lower.String(f)
		if i > 0 && minorWords[l] {
			out = append(out, TitleWord{Text: l, Minor: true})
			continue
		}
		out = append(out, TitleWord{Text: upper.String(f)})
	}
	return out
}
