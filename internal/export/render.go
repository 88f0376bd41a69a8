/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	fscolor "fancyscript/internal/color"
)

// DefaultBackground is the parchment color behind the captured sheet.
const DefaultBackground = "#f4e4c1"

// PageOptions are shared by every exporter. Zero values select an A4 page
// on the default background.
type PageOptions struct {
	PageWidthMm  float64
	PageHeightMm float64
	Background   string
}

func (o PageOptions) withDefaults() PageOptions {
	if o.PageWidthMm == 0 {
		o.PageWidthMm = A4WidthMm
	}
	if o.PageHeightMm == 0 {
		o.PageHeightMm = A4HeightMm
	}
	if o.Background == "" {
		o.Background = DefaultBackground
	}
	return o
}

func background(hex string) (color.RGBA, error) {
	r, g, b, err := fscolor.ParseRGB(hex)
	if err != nil {
		return color.RGBA{}, err
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// flatten composes img over an opaque background.
func flatten(img image.Image, bg color.RGBA) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}

// pageImages cuts img into page-sized rasters following Paginate. With dpi
// > 0 each page is resampled to the page size at that resolution; otherwise
// pages keep the source pixel width.
func pageImages(img image.Image, o PageOptions, dpi int) ([]*image.RGBA, []PagePlacement, error) {
	o = o.withDefaults()
	bg, err := background(o.Background)
	if err != nil {
		return nil, nil, err
	}
	b := img.Bounds()
	placements, err := Paginate(b.Dx(), b.Dy(), o.PageWidthMm, o.PageHeightMm)
	if err != nil {
		return nil, nil, err
	}
	pageW := b.Dx()
	pageH := int(math.Round(o.PageHeightMm * float64(b.Dx()) / o.PageWidthMm))
	// rounded slice edges can make a slice one row taller than the page
	for _, p := range placements {
		pageH = max(pageH, p.SourceHeightPx)
	}
	pages := make([]*image.RGBA, 0, len(placements))
	for _, p := range placements {
		page := image.NewRGBA(image.Rect(0, 0, pageW, pageH))
		draw.Draw(page, page.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
		src := image.Rect(b.Min.X, b.Min.Y+p.SourceYPx, b.Max.X, b.Min.Y+p.SourceYPx+p.SourceHeightPx)
		draw.Draw(page, image.Rect(0, 0, pageW, p.SourceHeightPx), img, src.Min, draw.Over)
		if dpi > 0 {
			page = resample(page, mmToPx(o.PageWidthMm, dpi), mmToPx(o.PageHeightMm, dpi))
		}
		pages = append(pages, page)
	}
	return pages, placements, nil
}

func mmToPx(mm float64, dpi int) int {
	return int(math.Round(mm / 25.4 * float64(dpi)))
}

func resample(src *image.RGBA, w, h int) *image.RGBA {
	if w <= 0 || h <= 0 || (w == src.Bounds().Dx() && h == src.Bounds().Dy()) {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
