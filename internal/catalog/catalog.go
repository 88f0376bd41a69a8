/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog provides the read-only character and jinx tables the
// resolver consults. Tables are plain values handed to the resolver, so tests
// can swap in fixture data; the bundled dataset is available via Default.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"fancyscript/internal/domain"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.json
var dataFS embed.FS

// entry is the on-disk shape of a character. JSON files decode through the
// YAML parser, so both formats share these tags.
type entry struct {
	ID                 string   `yaml:"id"`
	Name               string   `yaml:"name"`
	Ability            string   `yaml:"ability"`
	Team               string   `yaml:"team"`
	Image              []string `yaml:"image"`
	WikiImage          string   `yaml:"wiki_image"`
	Edition            string   `yaml:"edition"`
	Setup              bool     `yaml:"setup"`
	FirstNight         float64  `yaml:"firstNight"`
	OtherNight         float64  `yaml:"otherNight"`
	FirstNightReminder string   `yaml:"firstNightReminder"`
	OtherNightReminder string   `yaml:"otherNightReminder"`
}

// Catalog is an immutable lookup of official characters keyed by normalized id.
type Catalog struct {
	byID  map[string]domain.ResolvedCharacter
	order []string
}

// New builds a catalog from characters. Later duplicates replace earlier ones.
// Unknown teams fall back to townsfolk.
func New(chars []domain.ResolvedCharacter) *Catalog {
	c := &Catalog{byID: make(map[string]domain.ResolvedCharacter, len(chars))}
	for _, ch := range chars {
		key := domain.NormalizeID(ch.ID)
		if key == "" {
			continue
		}
		if _, ok := domain.ParseTeam(string(ch.Team)); !ok {
			ch.Team = domain.Townsfolk
		}
		ch.ID = key
		ch.Official = true
		if _, seen := c.byID[key]; !seen {
			c.order = append(c.order, key)
		}
		c.byID[key] = ch
	}
	return c
}

// Load decodes a character list in JSON or YAML.
func Load(r io.Reader) (*Catalog, error) {
	var entries []entry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("decode characters: %w", err)
	}
	chars := make([]domain.ResolvedCharacter, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" || e.Name == "" {
			return nil, fmt.Errorf("character %d: id and name are required", i)
		}
		team, ok := domain.ParseTeam(e.Team)
		if !ok {
			team = domain.Townsfolk
		}
		chars = append(chars, domain.ResolvedCharacter{
			ID:                 e.ID,
			Name:               e.Name,
			Ability:            e.Ability,
			Team:               team,
			Image:              e.Image,
			WikiImage:          e.WikiImage,
			Edition:            e.Edition,
			Setup:              e.Setup,
			FirstNight:         e.FirstNight,
			OtherNight:         e.OtherNight,
			FirstNightReminder: e.FirstNightReminder,
			OtherNightReminder: e.OtherNightReminder,
		})
	}
	return New(chars), nil
}

// LoadFile reads a character list from path.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read characters: %w", err)
	}
	return Load(bytes.NewReader(b))
}

// Lookup returns a copy of the official character with the given id.
func (c *Catalog) Lookup(id string) (domain.ResolvedCharacter, bool) {
	if c == nil {
		return domain.ResolvedCharacter{}, false
	}
	ch, ok := c.byID[domain.NormalizeID(id)]
	if !ok {
		return domain.ResolvedCharacter{}, false
	}
	ch.Image = slices.Clone(ch.Image)
	return ch, true
}

// Len returns the number of characters.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byID)
}

// IDs returns normalized ids in load order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	return slices.Clone(c.order)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultJinxes  JinxTable
	defaultErr     error
)

func loadDefaults() {
	open := func(name string) (io.ReadCloser, error) { return dataFS.Open("data/" + name) }
	f, err := open("characters.json")
	if err != nil {
		defaultErr = err
		return
	}
	defer f.Close()
	if defaultCatalog, err = Load(f); err != nil {
		defaultErr = err
		return
	}
	for _, src := range []struct {
		name string
		dst  *JinxSet
	}{{"jinxes.json", &defaultJinxes.Current}, {"jinxes_old.json", &defaultJinxes.Old}} {
		jf, err := open(src.name)
		if err != nil {
			defaultErr = err
			return
		}
		set, err := LoadJinxes(jf)
		_ = jf.Close()
		if err != nil {
			defaultErr = fmt.Errorf("%s: %w", src.name, err)
			return
		}
		*src.dst = set
	}
}

// Default returns the bundled character catalog.
func Default() (*Catalog, error) {
	defaultOnce.Do(loadDefaults)
	return defaultCatalog, defaultErr
}

// DefaultJinxes returns the bundled current and old jinx tables.
func DefaultJinxes() (JinxTable, error) {
	defaultOnce.Do(loadDefaults)
	return defaultJinxes, defaultErr
}
