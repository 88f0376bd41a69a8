/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script turns a raw script document into a ParsedScript: it
// validates shape, resolves references against the catalog, merges custom
// characters, drops duplicates and groups the result by team.
package script

import (
	"context"
	"log/slog"
	"strings"

	"fancyscript/internal/catalog"
	"fancyscript/internal/domain"
	applog "fancyscript/internal/log"
	"fancyscript/internal/nightorder"
)

// Resolver resolves raw scripts against a read-only catalog.
// The zero value has an empty catalog; every reference is unknown.
type Resolver struct {
	Catalog *catalog.Catalog
	Logger  *slog.Logger
}

// NewResolver returns a resolver backed by c.
func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{Catalog: c}
}

func (r *Resolver) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return applog.WithComponent("resolver")
}

// Resolve normalizes raw into a ParsedScript.
//
// The last metadata element wins. Bare references are looked up in the
// catalog; unknown ones are skipped with an UnknownCharacterError warning.
// Inline objects are laid over the catalog entry of the same id (so a script
// can reword an official character) and must end up with id, name, ability
// and team, otherwise the whole script is malformed. A repeated id overwrites
// the earlier character's content but keeps the earlier position.
func (r *Resolver) Resolve(raw domain.RawScript) (domain.ParsedScript, []Warning, error) {
	return r.ResolveContext(context.Background(), raw)
}

// ResolveContext is Resolve with a context used for log correlation only.
func (r *Resolver) ResolveContext(ctx context.Context, raw domain.RawScript) (domain.ParsedScript, []Warning, error) {
	if raw == nil {
		return domain.ParsedScript{}, nil, malformed("script is not an array", nil)
	}
	l := applog.WithOperation(r.log(), "resolve")

	var (
		meta     *domain.RawMeta
		chars    []domain.ResolvedCharacter
		position = map[string]int{}
		warnings []Warning
	)
	put := func(c domain.ResolvedCharacter) {
		if i, ok := position[c.ID]; ok {
			l.DebugContext(ctx, "duplicate character overwritten", slog.String("id", c.ID))
			chars[i] = c
			return
		}
		position[c.ID] = len(chars)
		chars = append(chars, c)
	}

	for i, el := range raw {
		switch el.Kind {
		case domain.ElementMeta:
			if el.Meta != nil {
				m := *el.Meta
				meta = &m
			}
		case domain.ElementReference:
			c, ok := r.Catalog.Lookup(el.Ref)
			if !ok {
				warnings = append(warnings, Warning{Index: i, Err: &UnknownCharacterError{ID: el.Ref}})
				continue
			}
			put(c)
		case domain.ElementCharacter:
			if el.Character == nil {
				return domain.ParsedScript{}, warnings, &MalformedScriptError{Index: i, Reason: "empty character element"}
			}
			c, w, err := r.inline(i, *el.Character)
			if err != nil {
				return domain.ParsedScript{}, warnings, err
			}
			if w != nil {
				warnings = append(warnings, *w)
				if _, unknown := w.Err.(*UnknownCharacterError); unknown {
					continue
				}
			}
			put(c)
		default:
			return domain.ParsedScript{}, warnings, &MalformedScriptError{Index: i, Reason: "unsupported element kind " + el.Kind.String()}
		}
	}

	for _, w := range warnings {
		l.WarnContext(ctx, "script element skipped or adjusted", slog.Int("index", w.Index), slog.Any("err", w.Err))
	}

	out := domain.ParsedScript{
		Characters: chars,
		Groups:     GroupCharactersByTeam(chars),
		NightOrder: nightorder.Calculate(chars),
	}
	if out.Characters == nil {
		out.Characters = []domain.ResolvedCharacter{}
	}
	if meta != nil {
		out.HasMeta = true
		out.Metadata = domain.Metadata{Name: meta.Name, Author: meta.Author, Color: meta.Color, Logo: meta.Logo}
	}
	l.DebugContext(ctx, "resolved", slog.Int("elements", len(raw)), slog.Int("characters", len(chars)), slog.Int("warnings", len(warnings)))
	return out, warnings, nil
}

// inline resolves a custom or overriding character object.
func (r *Resolver) inline(i int, rc domain.RawCharacter) (domain.ResolvedCharacter, *Warning, error) {
	id := domain.NormalizeID(rc.ID)
	if id == "" {
		return domain.ResolvedCharacter{}, nil, &MalformedScriptError{Index: i, Reason: "character id is empty"}
	}
	c, official := r.Catalog.Lookup(id)
	if !official && rc.IDOnly() {
		return domain.ResolvedCharacter{}, &Warning{Index: i, Err: &UnknownCharacterError{ID: rc.ID}}, nil
	}
	c.ID = id
	if rc.Name != "" {
		c.Name = rc.Name
	}
	if rc.Ability != "" {
		c.Ability = rc.Ability
	}
	if len(rc.Image) > 0 {
		c.Image = append([]string(nil), rc.Image...)
	}
	if rc.WikiImage != "" {
		c.WikiImage = rc.WikiImage
	}
	if rc.Edition != "" {
		c.Edition = rc.Edition
	}
	if rc.Setup {
		c.Setup = true
	}
	if rc.FirstNight != 0 {
		c.FirstNight = rc.FirstNight
	}
	if rc.OtherNight != 0 {
		c.OtherNight = rc.OtherNight
	}
	if rc.FirstNightReminder != "" {
		c.FirstNightReminder = rc.FirstNightReminder
	}
	if rc.OtherNightReminder != "" {
		c.OtherNightReminder = rc.OtherNightReminder
	}
	if len(rc.Jinxes) > 0 {
		c.Jinxes = append([]domain.RawJinx(nil), rc.Jinxes...)
	}

	var warn *Warning
	if rc.Team != "" {
		team, ok := domain.ParseTeam(rc.Team)
		if !ok {
			team = domain.Townsfolk
			warn = &Warning{Index: i, Err: &InvalidTeamError{ID: id, Team: rc.Team}}
		}
		c.Team = team
	}

	var missing []string
	if c.Name == "" {
		missing = append(missing, "name")
	}
	if c.Ability == "" {
		missing = append(missing, "ability")
	}
	if c.Team == "" {
		missing = append(missing, "team")
	}
	if len(missing) > 0 {
		return domain.ResolvedCharacter{}, nil, &MalformedScriptError{
			Index:  i,
			ID:     rc.ID,
			Reason: "missing required fields: " + strings.Join(missing, ", "),
		}
	}
	return c, warn, nil
}

// GroupCharactersByTeam buckets characters by team keeping their relative
// order. Every team key is present, possibly empty.
func GroupCharactersByTeam(chars []domain.ResolvedCharacter) domain.GroupedCharacters {
	g := domain.GroupedCharacters{
		Townsfolk: []domain.ResolvedCharacter{},
		Outsider:  []domain.ResolvedCharacter{},
		Minion:    []domain.ResolvedCharacter{},
		Demon:     []domain.ResolvedCharacter{},
		Traveller: []domain.ResolvedCharacter{},
		Fabled:    []domain.ResolvedCharacter{},
	}
	for _, c := range chars {
		g.Add(c)
	}
	return g
}

// ToRaw serializes a parsed script back into raw form: the metadata element
// followed by every character as a full inline object.
func ToRaw(p domain.ParsedScript) domain.RawScript {
	out := make(domain.RawScript, 0, len(p.Characters)+1)
	if p.HasMeta {
		out = append(out, domain.Meta(domain.RawMeta{Name: p.Metadata.Name, Author: p.Metadata.Author, Color: p.Metadata.Color, Logo: p.Metadata.Logo}))
	}
	for _, c := range p.Characters {
		out = append(out, domain.Inline(domain.RawCharacter{
			ID:                 c.ID,
			Name:               c.Name,
			Ability:            c.Ability,
			Team:               string(c.Team),
			Image:              domain.StringList(c.Image),
			WikiImage:          c.WikiImage,
			Edition:            c.Edition,
			Setup:              c.Setup,
			FirstNight:         c.FirstNight,
			OtherNight:         c.OtherNight,
			FirstNightReminder: c.FirstNightReminder,
			OtherNightReminder: c.OtherNightReminder,
			Jinxes:             c.Jinxes,
		}))
	}
	return out
}
