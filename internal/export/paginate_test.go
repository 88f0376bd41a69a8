/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"math"
	"testing"
)

func TestPaginateSinglePage(t *testing.T) {
	pages, err := Paginate(1000, 1000, 0, 0)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	p := pages[0]
	if p.OffsetMm != 0 || p.ImageWidthMm != A4WidthMm || p.ImageHeightMm != 210 || p.VisibleHeightMm != 210 {
		t.Fatalf("placement = %+v", p)
	}
	if p.SourceYPx != 0 || p.SourceHeightPx != 1000 {
		t.Fatalf("source slice = %d+%d", p.SourceYPx, p.SourceHeightPx)
	}
}

func TestPaginateCountMatchesCeil(t *testing.T) {
	cases := []struct{ w, h int }{
		{210, 297}, {210, 298}, {210, 594}, {210, 595}, {420, 2000}, {1588, 4200}, {100, 1},
	}
	for _, c := range cases {
		pages, err := Paginate(c.w, c.h, 0, 0)
		if err != nil {
			t.Fatalf("Paginate(%d,%d): %v", c.w, c.h, err)
		}
		scaled := float64(c.h) * A4WidthMm / float64(c.w)
		want := int(math.Ceil(scaled / A4HeightMm))
		if len(pages) != want {
			t.Fatalf("Paginate(%d,%d) = %d pages, want %d", c.w, c.h, len(pages), want)
		}
		last := pages[len(pages)-1]
		if got, wantH := last.VisibleHeightMm, scaled-float64(want-1)*A4HeightMm; math.Abs(got-wantH) > 1e-9 {
			t.Fatalf("last visible = %v, want %v", got, wantH)
		}
		for i, p := range pages {
			if p.Index != i || p.OffsetMm != -float64(i)*A4HeightMm {
				t.Fatalf("page %d = %+v", i, p)
			}
		}
	}
}

func TestPaginateSlicesCoverSource(t *testing.T) {
	pages, err := Paginate(800, 3000, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	next := 0
	for _, p := range pages {
		if p.SourceYPx != next {
			t.Fatalf("page %d starts at %d, want %d", p.Index, p.SourceYPx, next)
		}
		next = p.SourceYPx + p.SourceHeightPx
	}
	if next != 3000 {
		t.Fatalf("slices end at %d, want 3000", next)
	}
}

func TestPaginateCustomPage(t *testing.T) {
	pages, err := Paginate(100, 250, 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 3 || pages[2].VisibleHeightMm != 50 {
		t.Fatalf("pages = %+v", pages)
	}
}

func TestPaginateRejectsEmptySurface(t *testing.T) {
	for _, d := range [][2]int{{0, 10}, {10, 0}, {-1, 5}} {
		if _, err := Paginate(d[0], d[1], 0, 0); !errors.Is(err, ErrEmptySurface) {
			t.Fatalf("Paginate(%v) err = %v", d, err)
		}
	}
	if _, err := Paginate(10, 10, -1, 0); err == nil {
		t.Fatalf("negative page width accepted")
	}
}

func TestPaginateRejectsUnboundedInput(t *testing.T) {
	cases := []struct {
		name         string
		w, h         int
		pageW, pageH float64
	}{
		{"infinite width", 100, 100, math.Inf(1), 297},
		{"infinite height", 100, 100, 210, math.Inf(1)},
		{"nan height", 100, 100, 210, math.NaN()},
		{"tiny page height", 100, 100, 210, 1e-9},
		{"tall surface", 1, 1_000_000_000, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			pages, err := Paginate(c.w, c.h, c.pageW, c.pageH)
			if err == nil {
				t.Fatalf("Paginate accepted input, %d pages", len(pages))
			}
		})
	}
}

func TestPaginateAllowsMaxPages(t *testing.T) {
	// 210 mm wide pages, each 297 px tall slice is one page
	pages, err := Paginate(210, 297*MaxPages, 210, 297)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(pages) != MaxPages {
		t.Fatalf("got %d pages, want %d", len(pages), MaxPages)
	}
}
