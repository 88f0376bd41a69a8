/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sheet

import (
	"regexp"
	"strings"
)

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]`)

// Filename derives an export file name from a script name: every character
// outside [a-z0-9] becomes '_' and the result is lowercased. ext is appended
// with a dot when not empty.
func Filename(name, ext string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "script"
	}
	base := unsafeFilename.ReplaceAllString(name, "_")
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return base
	}
	return base + "." + ext
}
