/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb   PresetName = "web"
	PresetPrint PresetName = "print"
)

// Supported batch formats.
const (
	FormatPDF = "pdf"
	FormatPNG = "png"
	FormatZip = "zip"
)

// BatchOptions controls a batch export of one captured surface.
//
// Path semantics:
//   - Outputs go to <OutDir>/<preset>/, OutDir defaults to "exports".
//   - PDF and ZIP are single files named <BaseName>.pdf / .zip in pdf/ and zip/.
//   - PNG pages are <BaseName>-page-<n>.png in png/.
type BatchOptions struct {
	Preset      PresetName
	Formats     []string // allowed: pdf, png, zip; empty means preset defaults
	OutDir      string
	BaseName    string
	DPIOverride int // when > 0 overrides the preset's raster DPI
	Page        PageOptions
	Title       string
	Author      string
}

// BatchResult describes the files written for one format.
type BatchResult struct {
	Format string
	Paths  []string
	Pages  int
}

// Batch exports img in every format of the preset.
func Batch(img image.Image, opt BatchOptions) ([]BatchResult, error) {
	if img == nil {
		return nil, ErrEmptySurface
	}
	base := opt.BaseName
	if base == "" {
		base = "script"
	}
	preset := opt.Preset
	if preset == "" {
		preset = PresetPrint
	}
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(preset)
	}
	baseOut := opt.OutDir
	if baseOut == "" {
		baseOut = "exports"
	}
	baseOut = filepath.Join(baseOut, string(preset))
	dpi := presetDPI(preset)
	if opt.DPIOverride > 0 {
		dpi = opt.DPIOverride
	}

	var results []BatchResult
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case FormatPDF:
			out := filepath.Join(baseOut, "pdf", base+".pdf")
			n, err := ExportPDF(out, img, PDFOptions{PageOptions: opt.Page, Title: opt.Title, Author: opt.Author})
			if err != nil {
				return results, fmt.Errorf("pdf: %w", err)
			}
			results = append(results, BatchResult{Format: f, Paths: []string{out}, Pages: n})
		case FormatPNG:
			paths, err := WritePNGPages(filepath.Join(baseOut, "png"), img, PNGOptions{PageOptions: opt.Page, DPI: dpi, BaseName: base})
			if err != nil {
				return results, fmt.Errorf("png: %w", err)
			}
			results = append(results, BatchResult{Format: f, Paths: paths, Pages: len(paths)})
		case FormatZip:
			out, n, err := ExportPageArchive(filepath.Join(baseOut, "zip", base+".zip"), img,
				ArchiveOptions{PageOptions: opt.Page, DPI: dpi, Title: opt.Title, Author: opt.Author})
			if err != nil {
				return results, fmt.Errorf("zip: %w", err)
			}
			results = append(results, BatchResult{Format: f, Paths: []string{out}, Pages: n})
		default:
			return results, fmt.Errorf("unknown format: %s", f)
		}
	}
	return results, nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{FormatPNG, FormatZip}
	case PresetPrint:
		return []string{FormatPDF, FormatPNG}
	default:
		return []string{FormatPDF}
	}
}

// presetDPI is the raster resolution of page images; 0 keeps source pixels.
func presetDPI(p PresetName) int {
	switch p {
	case PresetPrint:
		return 300
	default:
		return 0
	}
}
