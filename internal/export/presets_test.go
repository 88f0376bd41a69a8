/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBatch_WebPreset(t *testing.T) {
	root := t.TempDir()
	res, err := Batch(surface(50, 80), BatchOptions{Preset: PresetWeb, OutDir: root, BaseName: "tb"})
	if err != nil {
		t.Fatalf("batch export web: %v", err)
	}
	if len(res) != 2 || res[0].Format != FormatPNG || res[1].Format != FormatZip {
		t.Fatalf("results = %+v", res)
	}
	checks := []string{
		filepath.Join(root, "web", "png", "tb-page-1.png"),
		filepath.Join(root, "web", "zip", "tb.zip"),
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatch_PrintPreset(t *testing.T) {
	root := t.TempDir()
	res, err := Batch(surface(50, 60), BatchOptions{Preset: PresetPrint, OutDir: root, DPIOverride: 20})
	if err != nil {
		t.Fatalf("batch export print: %v", err)
	}
	if len(res) != 2 || res[0].Pages != 1 {
		t.Fatalf("results = %+v", res)
	}
	checks := []string{
		filepath.Join(root, "print", "pdf", "script.pdf"),
		filepath.Join(root, "print", "png", "script-page-1.png"),
	}
	for _, p := range checks {
		st, err := os.Stat(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if st.Size() <= 0 {
			t.Fatalf("empty file: %s", p)
		}
	}
}

func TestBatch_UnknownFormat(t *testing.T) {
	if _, err := Batch(surface(10, 10), BatchOptions{OutDir: t.TempDir(), Formats: []string{"svg"}}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
