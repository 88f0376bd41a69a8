/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fancyscript/internal/domain"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Len() < 22 {
		t.Fatalf("expected at least the 22 Trouble Brewing characters, got %d", c.Len())
	}
	ft, ok := c.Lookup("Fortune_Teller")
	if !ok {
		t.Fatalf("fortune teller not found by loose id")
	}
	if ft.Team != domain.Townsfolk || !ft.Official || ft.FirstNight == 0 {
		t.Fatalf("unexpected fortune teller: %+v", ft)
	}
	if g, ok := c.Lookup("gunslinger"); !ok || g.Team != domain.Traveller {
		t.Fatalf("gunslinger = %+v %v", g, ok)
	}
	if _, ok := c.Lookup("wizard"); ok {
		t.Fatalf("unexpected wizard")
	}
}

func TestDefaultJinxTables(t *testing.T) {
	tbl, err := DefaultJinxes()
	if err != nil {
		t.Fatalf("DefaultJinxes: %v", err)
	}
	if len(tbl.Set(false).For("spy")) != 1 {
		t.Fatalf("current spy jinxes = %v", tbl.Current.For("spy"))
	}
	if len(tbl.Set(true).For("spy")) != 2 {
		t.Fatalf("old spy jinxes = %v", tbl.Old.For("spy"))
	}
	if rules := tbl.Current.For("Pit-Hag"); len(rules) != 1 || rules[0].ID != "heretic" {
		t.Fatalf("pit-hag rules = %v", rules)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chars.yaml")
	data := `
- id: Wizard_Hat
  name: Wizard
  team: wizard
  ability: Cast spells.
  firstNight: 3
- id: chef
  name: Chef
  team: townsfolk
  ability: Count pairs.
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	w, ok := c.Lookup("wizardhat")
	if !ok || w.Team != domain.Townsfolk || w.FirstNight != 3 {
		t.Fatalf("wizard = %+v %v", w, ok)
	}
	if ids := c.IDs(); len(ids) != 2 || ids[0] != "wizardhat" {
		t.Fatalf("IDs = %v", ids)
	}
}

func TestLoadRejectsEntriesWithoutName(t *testing.T) {
	_, err := Load(strings.NewReader(`[{"id":"x"}]`))
	if err == nil {
		t.Fatalf("expected error for missing name")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	c := New([]domain.ResolvedCharacter{{ID: "a", Name: "A", Team: domain.Demon, Image: []string{"a.png"}}})
	got, _ := c.Lookup("a")
	got.Image[0] = "changed.png"
	again, _ := c.Lookup("a")
	if again.Image[0] != "a.png" {
		t.Fatalf("catalog mutated through lookup result")
	}
}

func TestLoadJinxesRequiresPartner(t *testing.T) {
	if _, err := LoadJinxes(strings.NewReader(`{"spy": [{"reason": "x"}]}`)); err == nil {
		t.Fatalf("expected error for missing partner id")
	}
}
