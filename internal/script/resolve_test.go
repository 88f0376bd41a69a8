/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"fancyscript/internal/catalog"
	"fancyscript/internal/domain"
)

func fixtureCatalog() *catalog.Catalog {
	return catalog.New([]domain.ResolvedCharacter{
		{ID: "washerwoman", Name: "Washerwoman", Ability: "Learn a Townsfolk.", Team: domain.Townsfolk, FirstNight: 32},
		{ID: "librarian", Name: "Librarian", Ability: "Learn an Outsider.", Team: domain.Townsfolk, FirstNight: 33},
		{ID: "investigator", Name: "Investigator", Ability: "Learn a Minion.", Team: domain.Townsfolk, FirstNight: 34},
		{ID: "drunk", Name: "Drunk", Ability: "You think you are a Townsfolk.", Team: domain.Outsider},
		{ID: "poisoner", Name: "Poisoner", Ability: "Poison a player.", Team: domain.Minion, FirstNight: 17, OtherNight: 7},
		{ID: "imp", Name: "Imp", Ability: "Kill a player.", Team: domain.Demon, OtherNight: 24},
	})
}

func mustParse(t *testing.T, src string) domain.RawScript {
	t.Helper()
	raw, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return raw
}

func names(cs []domain.ResolvedCharacter) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestResolveTroubleBrewingScenario(t *testing.T) {
	raw := mustParse(t, `["washerwoman","librarian","investigator",{"id":"_meta","name":"Trouble Brewing"}]`)
	p, warns, err := NewResolver(fixtureCatalog()).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if !p.HasMeta || p.Metadata.Name != "Trouble Brewing" {
		t.Fatalf("metadata = %+v", p.Metadata)
	}
	if got, want := names(p.Groups.Townsfolk), []string{"washerwoman", "librarian", "investigator"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("townsfolk = %v, want %v", got, want)
	}
	if p.Groups.Outsider == nil || p.Groups.Minion == nil || p.Groups.Demon == nil {
		t.Fatalf("all sheet teams must be present: %+v", p.Groups)
	}
	if len(p.NightOrder.First) != 3 || p.NightOrder.First[0].ID != "washerwoman" {
		t.Fatalf("night order = %+v", p.NightOrder)
	}
}

func TestResolveInvalidTeamFallsBackToTownsfolk(t *testing.T) {
	raw := mustParse(t, `[{"id":"wizard_x","name":"Wizard","ability":"Magic.","team":"wizard"}]`)
	p, warns, err := NewResolver(fixtureCatalog()).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(p.Characters) != 1 || p.Characters[0].Team != domain.Townsfolk {
		t.Fatalf("characters = %+v", p.Characters)
	}
	var ite *InvalidTeamError
	if len(warns) != 1 || !errors.As(warns[0], &ite) || ite.Team != "wizard" {
		t.Fatalf("warnings = %v", warns)
	}
}

func TestResolveSkipsUnknownReferences(t *testing.T) {
	raw := mustParse(t, `["washerwoman","nobody",{"id":"ghost"},"imp"]`)
	p, warns, err := NewResolver(fixtureCatalog()).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := names(p.Characters); !reflect.DeepEqual(got, []string{"washerwoman", "imp"}) {
		t.Fatalf("characters = %v", got)
	}
	if len(warns) != 2 {
		t.Fatalf("warnings = %v", warns)
	}
	for i, want := range []int{1, 2} {
		var uce *UnknownCharacterError
		if !errors.As(warns[i], &uce) || warns[i].Index != want {
			t.Fatalf("warning %d = %v", i, warns[i])
		}
	}
}

func TestResolveDuplicateLastWriteWins(t *testing.T) {
	raw := mustParse(t, `["imp","washerwoman",{"id":"Imp","name":"Imp","ability":"Reworded.","team":"demon"}]`)
	p, _, err := NewResolver(fixtureCatalog()).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := names(p.Characters); !reflect.DeepEqual(got, []string{"imp", "washerwoman"}) {
		t.Fatalf("characters = %v", got)
	}
	if p.Characters[0].Ability != "Reworded." || !p.Characters[0].Official || p.Characters[0].OtherNight != 24 {
		t.Fatalf("override not merged over catalog entry: %+v", p.Characters[0])
	}
}

func TestResolveInlinePartialOverride(t *testing.T) {
	raw := mustParse(t, `[{"id":"poisoner","ability":"Poison twice."}]`)
	p, _, err := NewResolver(fixtureCatalog()).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	c := p.Characters[0]
	if c.Name != "Poisoner" || c.Ability != "Poison twice." || c.Team != domain.Minion {
		t.Fatalf("character = %+v", c)
	}
}

func TestResolveMissingFieldsIsMalformed(t *testing.T) {
	raw := mustParse(t, `["imp",{"id":"homebrew","name":"Homebrew"}]`)
	_, _, err := NewResolver(fixtureCatalog()).Resolve(raw)
	var mse *MalformedScriptError
	if !errors.As(err, &mse) {
		t.Fatalf("err = %v, want MalformedScriptError", err)
	}
	if mse.Index != 1 || !strings.Contains(mse.Reason, "ability") || !strings.Contains(mse.Reason, "team") {
		t.Fatalf("unexpected error detail: %v", mse)
	}
}

func TestResolveLastMetaWins(t *testing.T) {
	raw := mustParse(t, `[{"id":"_meta","name":"First"},"imp",{"id":"_meta","name":"Second","author":"Me","color":"#123456"}]`)
	p, _, err := NewResolver(fixtureCatalog()).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Metadata != (domain.Metadata{Name: "Second", Author: "Me", Color: "#123456"}) {
		t.Fatalf("metadata = %+v", p.Metadata)
	}
}

func TestResolveNilIsMalformed(t *testing.T) {
	_, _, err := NewResolver(fixtureCatalog()).Resolve(nil)
	var mse *MalformedScriptError
	if !errors.As(err, &mse) {
		t.Fatalf("err = %v", err)
	}
}

func TestGroupingNeverDropsOrDuplicates(t *testing.T) {
	raw := mustParse(t, `["imp","washerwoman","drunk","poisoner","librarian",
		{"id":"g","name":"G","ability":"x","team":"traveller"},
		{"id":"f","name":"F","ability":"x","team":"fabled"},
		{"id":"w","name":"W","ability":"x","team":"wizard"}]`)
	p, _, err := NewResolver(fixtureCatalog()).Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Groups.Len() != len(p.Characters) || len(p.Characters) != 8 {
		t.Fatalf("groups hold %d, characters %d", p.Groups.Len(), len(p.Characters))
	}
	seen := map[string]bool{}
	for _, team := range domain.TeamOrder {
		for _, c := range p.Groups.Get(team) {
			if seen[c.ID] {
				t.Fatalf("duplicate %s", c.ID)
			}
			seen[c.ID] = true
		}
	}
}

func TestResolveIsIdempotentOnSerializedOutput(t *testing.T) {
	r := NewResolver(fixtureCatalog())
	raw := mustParse(t, `[{"id":"_meta","name":"Mix","author":"A"},"imp","washerwoman",
		{"id":"custom","name":"Custom","ability":"Stuff.","team":"outsider","image":["a.png","b.png"],"firstNight":3,
		 "jinxes":[{"id":"imp","reason":"Odd."}]}]`)
	first, _, err := r.Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	data, err := Serialize(ToRaw(first))
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	second, _, err := r.Resolve(mustParse(t, string(data)))
	if err != nil {
		t.Fatalf("re-Resolve: %v", err)
	}
	if !reflect.DeepEqual(first.Groups, second.Groups) {
		t.Fatalf("groups changed:\n%+v\n%+v", first.Groups, second.Groups)
	}
	if first.Metadata != second.Metadata {
		t.Fatalf("metadata changed: %+v vs %+v", first.Metadata, second.Metadata)
	}
}
