/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain holds the script data model shared by the resolver, the
// jinx and night order calculators, the sheet builder and the exporters.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MetaID is the reserved id marking the metadata element of a script.
const MetaID = "_meta"

// Team is the closed set of character categories.
type Team string

const (
	Townsfolk Team = "townsfolk"
	Outsider  Team = "outsider"
	Minion    Team = "minion"
	Demon     Team = "demon"
	Traveller Team = "traveller"
	Fabled    Team = "fabled"
)

// TeamOrder is the enumeration order used for grouping and jinx ordering.
var TeamOrder = []Team{Townsfolk, Outsider, Minion, Demon, Traveller, Fabled}

// SheetTeams are the teams rendered as sections on the character sheet.
var SheetTeams = []Team{Townsfolk, Outsider, Minion, Demon}

var teamAliases = map[string]Team{
	"townsfolk":  Townsfolk,
	"townsfolks": Townsfolk,
	"outsider":   Outsider,
	"outsiders":  Outsider,
	"minion":     Minion,
	"minions":    Minion,
	"demon":      Demon,
	"demons":     Demon,
	"traveller":  Traveller,
	"travellers": Traveller,
	"traveler":   Traveller,
	"travelers":  Traveller,
	"fabled":     Fabled,
}

// ParseTeam maps a raw team value onto the enum. ok is false for anything
// outside the closed set; callers decide on the fallback.
func ParseTeam(s string) (Team, bool) {
	t, ok := teamAliases[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Index returns the position of t in TeamOrder, or len(TeamOrder) if unknown.
func (t Team) Index() int {
	for i, o := range TeamOrder {
		if o == t {
			return i
		}
	}
	return len(TeamOrder)
}

// Good reports whether the team plays for the good side.
func (t Team) Good() bool { return t == Townsfolk || t == Outsider }

// NormalizeID produces the lookup key for a character id: lower-cased and
// trimmed, with separators dropped so "Fortune_Teller" and "fortuneteller" match.
func NormalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ', '\'':
			return -1
		}
		return r
	}, id)
}

// IsMetaID reports whether id is the reserved metadata id.
func IsMetaID(id string) bool { return strings.ToLower(strings.TrimSpace(id)) == MetaID }

// StringList decodes either a single string or an array of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*s = nil
		} else {
			*s = StringList{one}
		}
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*s = arr
		return nil
	}
	return fmt.Errorf("image must be a string or an array of strings")
}

// RawJinx is a jinx declared inline on a custom character.
type RawJinx struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// RawCharacter is an inline character object as it appears in a script.
// Empty strings mean the field was not provided.
type RawCharacter struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name,omitempty"`
	Ability            string     `json:"ability,omitempty"`
	Team               string     `json:"team,omitempty"`
	Image              StringList `json:"image,omitempty"`
	WikiImage          string     `json:"wiki_image,omitempty"`
	Edition            string     `json:"edition,omitempty"`
	Setup              bool       `json:"setup,omitempty"`
	FirstNight         float64    `json:"firstNight,omitempty"`
	OtherNight         float64    `json:"otherNight,omitempty"`
	FirstNightReminder string     `json:"firstNightReminder,omitempty"`
	OtherNightReminder string     `json:"otherNightReminder,omitempty"`
	Jinxes             []RawJinx  `json:"jinxes,omitempty"`
}

// IDOnly reports whether the object carries nothing but an id, which makes
// it a reference to an official character rather than a definition.
func (c RawCharacter) IDOnly() bool {
	return c.Name == "" && c.Ability == "" && c.Team == "" && len(c.Image) == 0
}

// RawMeta is the metadata element.
type RawMeta struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Author string `json:"author,omitempty"`
	Color  string `json:"color,omitempty"`
	Logo   string `json:"logo,omitempty"`
}

// ElementKind distinguishes the three shapes a script element can take.
type ElementKind int

const (
	ElementReference ElementKind = iota
	ElementCharacter
	ElementMeta
)

func (k ElementKind) String() string {
	switch k {
	case ElementReference:
		return "reference"
	case ElementCharacter:
		return "character"
	case ElementMeta:
		return "meta"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// RawElement is one entry of a script array. The element kind is decided by
// structural shape only: a JSON string is a reference, an object whose id is
// MetaID is metadata and any other object is an inline character.
// The decoded source bytes are kept so that re-encoding is byte-stable.
type RawElement struct {
	Kind      ElementKind
	Ref       string
	Character *RawCharacter
	Meta      *RawMeta

	source json.RawMessage
}

// Ref builds a bare reference element.
func Ref(id string) RawElement { return RawElement{Kind: ElementReference, Ref: id} }

// Inline builds an inline character element.
func Inline(c RawCharacter) RawElement { return RawElement{Kind: ElementCharacter, Character: &c} }

// Meta builds a metadata element; the id is forced to MetaID.
func Meta(m RawMeta) RawElement {
	m.ID = MetaID
	return RawElement{Kind: ElementMeta, Meta: &m}
}

// ID returns the element's raw id regardless of kind.
func (e RawElement) ID() string {
	switch e.Kind {
	case ElementReference:
		return e.Ref
	case ElementCharacter:
		if e.Character != nil {
			return e.Character.ID
		}
	case ElementMeta:
		return MetaID
	}
	return ""
}

func (e *RawElement) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if trimmed == "" {
		return fmt.Errorf("empty script element")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*e = RawElement{Kind: ElementReference, Ref: s}
	case '{':
		var probe struct {
			ID any `json:"id"`
		}
		if err := json.Unmarshal(b, &probe); err != nil {
			return err
		}
		id, ok := probe.ID.(string)
		if !ok {
			return fmt.Errorf("script object is missing a string id")
		}
		if IsMetaID(id) {
			var m RawMeta
			if err := json.Unmarshal(b, &m); err != nil {
				return fmt.Errorf("metadata element: %w", err)
			}
			*e = RawElement{Kind: ElementMeta, Meta: &m}
		} else {
			var c RawCharacter
			if err := json.Unmarshal(b, &c); err != nil {
				return fmt.Errorf("character %q: %w", id, err)
			}
			*e = RawElement{Kind: ElementCharacter, Character: &c}
		}
	default:
		return fmt.Errorf("script element must be a string or an object, got %.20s", trimmed)
	}
	e.source = append(json.RawMessage(nil), b...)
	return nil
}

func (e RawElement) MarshalJSON() ([]byte, error) {
	if len(e.source) > 0 {
		return e.source, nil
	}
	switch e.Kind {
	case ElementReference:
		return json.Marshal(e.Ref)
	case ElementCharacter:
		return json.Marshal(e.Character)
	case ElementMeta:
		return json.Marshal(e.Meta)
	}
	return nil, fmt.Errorf("unknown element kind %v", e.Kind)
}

// RawScript is an ordered script as uploaded.
type RawScript []RawElement

// ResolvedCharacter is a validated character ready for presentation.
type ResolvedCharacter struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Ability            string    `json:"ability"`
	Team               Team      `json:"team"`
	Image              []string  `json:"image,omitempty"`
	WikiImage          string    `json:"wiki_image,omitempty"`
	Edition            string    `json:"edition,omitempty"`
	Setup              bool      `json:"setup,omitempty"`
	FirstNight         float64   `json:"firstNight,omitempty"`
	OtherNight         float64   `json:"otherNight,omitempty"`
	FirstNightReminder string    `json:"firstNightReminder,omitempty"`
	OtherNightReminder string    `json:"otherNightReminder,omitempty"`
	Official           bool      `json:"official,omitempty"`
	Jinxes             []RawJinx `json:"jinxes,omitempty"`
}

// ImageURL prefers the wiki image and falls back to the first custom image.
func (c ResolvedCharacter) ImageURL() string {
	if c.WikiImage != "" {
		return c.WikiImage
	}
	if len(c.Image) > 0 {
		return c.Image[0]
	}
	return ""
}

// GroupedCharacters maps every team to its characters in script order.
type GroupedCharacters struct {
	Townsfolk []ResolvedCharacter `json:"townsfolk"`
	Outsider  []ResolvedCharacter `json:"outsider"`
	Minion    []ResolvedCharacter `json:"minion"`
	Demon     []ResolvedCharacter `json:"demon"`
	Traveller []ResolvedCharacter `json:"traveller"`
	Fabled    []ResolvedCharacter `json:"fabled"`
}

// Get returns the characters of team t.
func (g GroupedCharacters) Get(t Team) []ResolvedCharacter {
	switch t {
	case Townsfolk:
		return g.Townsfolk
	case Outsider:
		return g.Outsider
	case Minion:
		return g.Minion
	case Demon:
		return g.Demon
	case Traveller:
		return g.Traveller
	case Fabled:
		return g.Fabled
	}
	return nil
}

// Add appends c to its team's group.
func (g *GroupedCharacters) Add(c ResolvedCharacter) {
	switch c.Team {
	case Outsider:
		g.Outsider = append(g.Outsider, c)
	case Minion:
		g.Minion = append(g.Minion, c)
	case Demon:
		g.Demon = append(g.Demon, c)
	case Traveller:
		g.Traveller = append(g.Traveller, c)
	case Fabled:
		g.Fabled = append(g.Fabled, c)
	default:
		g.Townsfolk = append(g.Townsfolk, c)
	}
}

// Len is the total number of grouped characters.
func (g GroupedCharacters) Len() int {
	n := 0
	for _, t := range TeamOrder {
		n += len(g.Get(t))
	}
	return n
}

// Jinx is an unordered pair of characters with the text of their interaction.
type Jinx struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Reason string `json:"reason"`
}

// Key returns a key identical for {A,B} and {B,A}.
func (j Jinx) Key() string { return PairKey(j.A, j.B) }

// PairKey returns the unordered key of two character ids.
func PairKey(a, b string) string {
	a, b = NormalizeID(a), NormalizeID(b)
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// NightEntry is one position in a night order.
type NightEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Team     Team    `json:"team"`
	Priority float64 `json:"priority"`
	Reminder string  `json:"reminder,omitempty"`
}

// NightOrder lists who wakes on the first night and on other nights.
type NightOrder struct {
	First []NightEntry `json:"first"`
	Other []NightEntry `json:"other"`
}

// Metadata is script-level information from the metadata element.
type Metadata struct {
	Name   string `json:"name,omitempty"`
	Author string `json:"author,omitempty"`
	Color  string `json:"color,omitempty"`
	Logo   string `json:"logo,omitempty"`
}

// ParsedScript is the derived, immutable result of resolving a raw script.
type ParsedScript struct {
	Metadata   Metadata            `json:"metadata"`
	HasMeta    bool                `json:"hasMeta"`
	Characters []ResolvedCharacter `json:"characters"`
	Groups     GroupedCharacters   `json:"groups"`
	NightOrder NightOrder          `json:"nightOrder"`
}

// ScriptOptions are rendering toggles. The json names match the payload the
// export service expects.
type ScriptOptions struct {
	Color             string  `json:"color" yaml:"color"`
	ShowAuthor        bool    `json:"showAuthor" yaml:"show_author"`
	ShowJinxes        bool    `json:"showJinxes" yaml:"show_jinxes"`
	UseOldJinxes      bool    `json:"useOldJinxes" yaml:"use_old_jinxes"`
	ShowSwirls        bool    `json:"showSwirls" yaml:"show_swirls"`
	IncludeMargins    bool    `json:"includeMargins" yaml:"include_margins"`
	SolidTitle        bool    `json:"solidTitle" yaml:"solid_title"`
	IconScale         float64 `json:"iconScale" yaml:"icon_scale"`
	CompactAppearance bool    `json:"compactAppearance" yaml:"compact_appearance"`
	ShowBackingSheet  bool    `json:"showBackingSheet" yaml:"show_backing_sheet"`
	ShowNightSheet    bool    `json:"showNightSheet" yaml:"show_night_sheet"`
	FormatMinorWords  bool    `json:"formatMinorWords" yaml:"format_minor_words"`
}

// DefaultColor is the accent used when neither options nor metadata set one.
const DefaultColor = "#137415"

// DefaultOptions returns the stock rendering toggles.
func DefaultOptions() ScriptOptions {
	return ScriptOptions{
		Color:            DefaultColor,
		ShowAuthor:       true,
		ShowJinxes:       true,
		ShowSwirls:       true,
		IconScale:        1.6,
		ShowBackingSheet: true,
		ShowNightSheet:   true,
	}
}
