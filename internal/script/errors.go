/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strings"
)

// MalformedScriptError means the input could not be turned into a script at
// all: it is not JSON, not an array, or an element is unusable. Callers keep
// their previous state when they see it.
type MalformedScriptError struct {
	// Index is the offending element, or -1 when the whole document is at fault.
	Index  int
	ID     string
	Reason string
	Err    error
}

func (e *MalformedScriptError) Error() string {
	var b strings.Builder
	b.WriteString("malformed script")
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": element %d", e.Index)
		if e.ID != "" {
			fmt.Fprintf(&b, " (%s)", e.ID)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *MalformedScriptError) Unwrap() error { return e.Err }

func malformed(reason string, err error) *MalformedScriptError {
	return &MalformedScriptError{Index: -1, Reason: reason, Err: err}
}

// UnknownCharacterError is reported for a reference that has no catalog entry.
// The character is dropped and resolution continues.
type UnknownCharacterError struct {
	ID string
}

func (e *UnknownCharacterError) Error() string {
	return fmt.Sprintf("unknown character %q", e.ID)
}

// InvalidTeamError is reported when a custom character names a team outside
// the closed set. The character is kept as a townsfolk.
type InvalidTeamError struct {
	ID   string
	Team string
}

func (e *InvalidTeamError) Error() string {
	return fmt.Sprintf("character %q has invalid team %q, using townsfolk", e.ID, e.Team)
}

// Warning is a recoverable problem found while resolving one element.
type Warning struct {
	Index int
	Err   error
}

func (w Warning) Error() string { return fmt.Sprintf("element %d: %v", w.Index, w.Err) }

func (w Warning) Unwrap() error { return w.Err }
