/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"fancyscript/internal/domain"

	"gopkg.in/yaml.v3"
)

// JinxRule is one entry of a character's jinx list: the other character and
// the interaction text.
type JinxRule struct {
	ID     string `yaml:"id" json:"id"`
	Reason string `yaml:"reason" json:"reason"`
}

// JinxSet maps a normalized character id to its jinx rules.
type JinxSet map[string][]JinxRule

// For returns the rules declared on id.
func (s JinxSet) For(id string) []JinxRule { return s[domain.NormalizeID(id)] }

// JinxTable holds the current and the old jinx data sets.
type JinxTable struct {
	Current JinxSet
	Old     JinxSet
}

// Set selects the data set.
func (t JinxTable) Set(useOld bool) JinxSet {
	if useOld {
		return t.Old
	}
	return t.Current
}

// LoadJinxes decodes a {id: [{id, reason}]} mapping in JSON or YAML.
func LoadJinxes(r io.Reader) (JinxSet, error) {
	var raw map[string][]JinxRule
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return JinxSet{}, nil
		}
		return nil, fmt.Errorf("decode jinxes: %w", err)
	}
	set := make(JinxSet, len(raw))
	for id, rules := range raw {
		key := domain.NormalizeID(id)
		for _, r := range rules {
			if r.ID == "" {
				return nil, fmt.Errorf("jinx on %q without partner id", id)
			}
			set[key] = append(set[key], JinxRule{ID: domain.NormalizeID(r.ID), Reason: r.Reason})
		}
	}
	return set, nil
}

// LoadJinxesFile reads a jinx mapping from path.
func LoadJinxesFile(path string) (JinxSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read jinxes: %w", err)
	}
	return LoadJinxes(bytes.NewReader(b))
}
