/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"fancyscript/internal/version"
)

// PDFOptions controls PDF export. Units are millimeters.
type PDFOptions struct {
	PageOptions
	Title  string
	Author string
}

const surfaceImage = "surface"

// WritePDF writes img as a multi-page PDF to w and returns the page count.
//
// The flattened capture is embedded once and drawn on every page at the
// page's placement offset, so page 1 always shows the top of the surface.
func WritePDF(w io.Writer, img image.Image, opt PDFOptions) (int, error) {
	o := opt.PageOptions.withDefaults()
	bg, err := background(o.Background)
	if err != nil {
		return 0, err
	}
	b := img.Bounds()
	placements, err := Paginate(b.Dx(), b.Dy(), o.PageWidthMm, o.PageHeightMm)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, flatten(img, bg)); err != nil {
		return 0, fmt.Errorf("encode surface: %w", err)
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: o.PageWidthMm, Ht: o.PageHeightMm},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	if opt.Author != "" {
		pdf.SetAuthor(opt.Author, true)
	}
	pdf.SetCreator("fancyscript "+version.Version, true)

	imgOpt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(surfaceImage, imgOpt, &buf)
	for _, p := range placements {
		pdf.AddPage()
		pdf.SetFillColor(int(bg.R), int(bg.G), int(bg.B))
		pdf.Rect(0, 0, o.PageWidthMm, o.PageHeightMm, "F")
		pdf.ImageOptions(surfaceImage, 0, p.OffsetMm, p.ImageWidthMm, p.ImageHeightMm, false, imgOpt, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return len(placements), nil
}

// ExportPDF writes the PDF to outPath, creating its directory.
func ExportPDF(outPath string, img image.Image, opt PDFOptions) (int, error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return 0, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create pdf: %w", err)
	}
	n, err := WritePDF(f, img, opt)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close pdf: %w", cerr)
	}
	return n, err
}
