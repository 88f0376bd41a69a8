/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sheet builds the presentation model of a script: the character
// sheet with its team sections and jinx columns, the backing sheet and the
// night order sheet. Rendering the model is left to the caller.
package sheet

import (
	"regexp"
	"strings"

	"fancyscript/internal/color"
	"fancyscript/internal/domain"
	"fancyscript/internal/jinx"
)

// DefaultTitle is shown when the script carries no name.
const DefaultTitle = "Custom Script"

// Name colors of the team sections.
const (
	GoodNameColor = "#00469e"
	EvilNameColor = "#580709"
)

// MarginScale shrinks the backing sheet when print margins are enabled.
const MarginScale = 0.952

// FirstNightFootnote explains the asterisk on abilities that skip the first night.
const FirstNightFootnote = "Not the first night"

var sectionTitles = map[domain.Team]string{
	domain.Townsfolk: "Townsfolk",
	domain.Outsider:  "Outsiders",
	domain.Minion:    "Minions",
	domain.Demon:     "Demons",
}

// Model is everything a renderer needs to draw a script.
type Model struct {
	Title      string               `json:"title"`
	TitleWords []TitleWord          `json:"titleWords"`
	Author     string               `json:"author,omitempty"`
	Logo       string               `json:"logo,omitempty"`
	Theme      color.Theme          `json:"theme"`
	Options    domain.ScriptOptions `json:"options"`
	Sections   []Section            `json:"sections"`
	Jinxes     *JinxBlock           `json:"jinxes,omitempty"`
	Footnote   string               `json:"footnote"`
	Backing    *Backing             `json:"backing,omitempty"`
	Night      *NightSheet          `json:"night,omitempty"`
}

// Section is one team block of the character sheet.
type Section struct {
	Team       domain.Team `json:"team"`
	Title      string      `json:"title"`
	NameColor  string      `json:"nameColor"`
	Characters []Card      `json:"characters"`
	// Spacer pads an odd count so the two-column grid stays aligned.
	Spacer bool `json:"spacer"`
	// Divider is drawn after every section but the last.
	Divider bool `json:"divider"`
}

// Card is one character entry.
type Card struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Ability string `json:"ability"`
	// Setup is the trailing bracketed setup note, e.g. "[+2 Outsiders]".
	Setup    string `json:"setup,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	// Initial replaces a missing icon.
	Initial string `json:"initial,omitempty"`
}

// JinxBlock lays jinxes out in one or two columns.
type JinxBlock struct {
	Left  []domain.Jinx `json:"left"`
	Right []domain.Jinx `json:"right,omitempty"`
}

// Backing is the reverse side of the sheet.
type Backing struct {
	// TitleParts is the title split on '&'; renderers draw a styled
	// ampersand between consecutive parts.
	TitleParts   []string `json:"titleParts"`
	OverlayColor string   `json:"overlayColor"`
	Scale        float64  `json:"scale"`
}

// NightSheet lists the night order for both kinds of night.
type NightSheet struct {
	First []domain.NightEntry `json:"first"`
	Other []domain.NightEntry `json:"other"`
}

// Build assembles the model for parsed. jinxes are expected to come from
// jinx.Find for the same script.
func Build(parsed domain.ParsedScript, jinxes []domain.Jinx, opts domain.ScriptOptions) Model {
	title := strings.TrimSpace(parsed.Metadata.Name)
	if title == "" {
		title = DefaultTitle
	}
	m := Model{
		Title:      title,
		TitleWords: FormatTitle(title, opts.FormatMinorWords),
		Logo:       parsed.Metadata.Logo,
		Theme:      themeFor(opts.Color, parsed.Metadata.Color),
		Options:    opts,
		Footnote:   FirstNightFootnote,
	}
	if opts.ShowAuthor {
		m.Author = parsed.Metadata.Author
	}

	for _, team := range domain.SheetTeams {
		chars := parsed.Groups.Get(team)
		if len(chars) == 0 {
			continue
		}
		nameColor := EvilNameColor
		if team.Good() {
			nameColor = GoodNameColor
		}
		sec := Section{
			Team:       team,
			Title:      strings.ToUpper(sectionTitles[team]),
			NameColor:  nameColor,
			Characters: make([]Card, 0, len(chars)),
			Spacer:     len(chars)%2 == 1,
		}
		for _, c := range chars {
			sec.Characters = append(sec.Characters, card(c))
		}
		m.Sections = append(m.Sections, sec)
	}
	for i := range m.Sections {
		m.Sections[i].Divider = i < len(m.Sections)-1
	}

	if opts.ShowJinxes && len(jinxes) > 0 {
		left, right := jinx.Columns(jinxes)
		m.Jinxes = &JinxBlock{Left: left, Right: right}
	}
	if opts.ShowBackingSheet {
		scale := 1.0
		if opts.IncludeMargins {
			scale = MarginScale
		}
		m.Backing = &Backing{
			TitleParts:   strings.Split(title, "&"),
			OverlayColor: m.Theme.Light,
			Scale:        scale,
		}
	}
	if opts.ShowNightSheet {
		m.Night = &NightSheet{First: parsed.NightOrder.First, Other: parsed.NightOrder.Other}
	}
	return m
}

// themeFor picks the first valid accent of the option color, the script
// color and the default.
func themeFor(candidates ...string) color.Theme {
	for _, c := range append(candidates, domain.DefaultColor) {
		if c == "" {
			continue
		}
		if t, err := color.NewTheme(c); err == nil {
			return t
		}
	}
	t, _ := color.NewTheme(domain.DefaultColor)
	return t
}

var setupBracket = regexp.MustCompile(`^(.*?)(\[.*?\])$`)

// SplitAbility separates a trailing "[...]" setup note from the ability text.
func SplitAbility(ability string) (text, setup string) {
	if m := setupBracket.FindStringSubmatch(ability); m != nil {
		return m[1], m[2]
	}
	return ability, ""
}

func card(c domain.ResolvedCharacter) Card {
	text, setup := SplitAbility(c.Ability)
	out := Card{ID: c.ID, Name: c.Name, Ability: text, Setup: setup, ImageURL: c.ImageURL()}
	if out.ImageURL == "" {
		for _, r := range c.Name {
			out.Initial = string(r)
			break
		}
	}
	return out
}
