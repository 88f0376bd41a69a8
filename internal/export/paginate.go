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
	"fmt"
	"math"
)

// A4 page size in millimeters, the default page of every exporter.
const (
	A4WidthMm  = 210.0
	A4HeightMm = 297.0
)

// ErrEmptySurface is returned when a captured surface has no pixels.
var ErrEmptySurface = errors.New("captured surface is empty")

// MaxPages bounds the number of pages one surface may produce.
const MaxPages = 1000

// PagePlacement says where the captured image goes on one page.
//
// The whole image is scaled to the page width and drawn at OffsetMm, which
// is 0 for the first page and -(Index*pageHeight) after that, so each page
// shows the next vertical slice.
type PagePlacement struct {
	Index           int     `json:"index"`
	OffsetMm        float64 `json:"offsetMm"`
	VisibleHeightMm float64 `json:"visibleHeightMm"`
	ImageWidthMm    float64 `json:"imageWidthMm"`
	ImageHeightMm   float64 `json:"imageHeightMm"`
	// SourceYPx and SourceHeightPx bound the slice in the source bitmap.
	SourceYPx      int `json:"sourceYPx"`
	SourceHeightPx int `json:"sourceHeightPx"`
}

// Paginate computes the page placements of a wPx by hPx surface on pages
// of pageWmm by pageHmm millimeters. Zero page dimensions select A4.
// The number of placements is ceil(scaledHeight/pageHeight).
func Paginate(wPx, hPx int, pageWmm, pageHmm float64) ([]PagePlacement, error) {
	if wPx <= 0 || hPx <= 0 {
		return nil, fmt.Errorf("%w: %dx%d px", ErrEmptySurface, wPx, hPx)
	}
	if pageWmm == 0 {
		pageWmm = A4WidthMm
	}
	if pageHmm == 0 {
		pageHmm = A4HeightMm
	}
	if !validSize(pageWmm) || !validSize(pageHmm) {
		return nil, fmt.Errorf("invalid page size %gx%g mm", pageWmm, pageHmm)
	}

	scaled := float64(hPx) * pageWmm / float64(wPx)
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return nil, fmt.Errorf("invalid page size %gx%g mm for a %dx%d px surface", pageWmm, pageHmm, wPx, hPx)
	}
	count := math.Ceil(scaled / pageHmm)
	if count > MaxPages {
		return nil, fmt.Errorf("surface needs %.0f pages, limit is %d", count, MaxPages)
	}
	pxPerMm := float64(wPx) / pageWmm
	var out []PagePlacement
	for i := 0; i == 0 || (i < MaxPages && scaled-float64(i)*pageHmm > 0); i++ {
		top := float64(i) * pageHmm
		visible := math.Min(pageHmm, scaled-top)
		y := int(math.Round(top * pxPerMm))
		bottom := min(int(math.Round((top+visible)*pxPerMm)), hPx)
		out = append(out, PagePlacement{
			Index:           i,
			OffsetMm:        -top,
			VisibleHeightMm: visible,
			ImageWidthMm:    pageWmm,
			ImageHeightMm:   scaled,
			SourceYPx:       y,
			SourceHeightPx:  bottom - y,
		})
	}
	return out, nil
}

func validSize(mm float64) bool {
	return mm > 0 && !math.IsInf(mm, 0) && !math.IsNaN(mm)
}
