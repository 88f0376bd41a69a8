/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fancyscript/internal/version"
)

// ArchiveOptions controls the page archive export.
type ArchiveOptions struct {
	PageOptions
	DPI    int
	Title  string
	Author string
}

// ManifestName is the archive entry describing the pages.
const ManifestName = "manifest.json"

// Manifest is stored next to the page images.
type Manifest struct {
	Title        string    `json:"title,omitempty"`
	Author       string    `json:"author,omitempty"`
	Pages        []string  `json:"pages"`
	PageWidthMm  float64   `json:"pageWidthMm"`
	PageHeightMm float64   `json:"pageHeightMm"`
	Generator    string    `json:"generator"`
	Created      time.Time `json:"created"`
}

// WritePageArchive packages the pages as PNG images into a ZIP archive with
// a manifest and returns the page count.
func WritePageArchive(w io.Writer, img image.Image, opt ArchiveOptions) (int, error) {
	o := opt.PageOptions.withDefaults()
	pages, _, err := pageImages(img, o, opt.DPI)
	if err != nil {
		return 0, err
	}
	pad := len(fmt.Sprint(len(pages)))

	zw := zip.NewWriter(w)
	m := Manifest{
		Title:        opt.Title,
		Author:       opt.Author,
		PageWidthMm:  o.PageWidthMm,
		PageHeightMm: o.PageHeightMm,
		Generator:    "fancyscript " + version.Version,
		Created:      time.Now().UTC().Truncate(time.Second),
	}
	imgBuf := &bytes.Buffer{}
	for i, page := range pages {
		imgBuf.Reset()
		if err := png.Encode(imgBuf, page); err != nil {
			return 0, fmt.Errorf("encode png: %w", err)
		}
		name := fmt.Sprintf("%0*d.png", pad, i+1)
		if err := addZipFile(zw, name, imgBuf.Bytes()); err != nil {
			return 0, fmt.Errorf("zip add image: %w", err)
		}
		m.Pages = append(m.Pages, name)
	}
	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, ManifestName, manifest); err != nil {
		return 0, fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close zip: %w", err)
	}
	return len(pages), nil
}

// ExportPageArchive writes the archive to outPath, adding a .zip extension
// when missing.
func ExportPageArchive(outPath string, img image.Image, opt ArchiveOptions) (string, int, error) {
	if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
		outPath += ".zip"
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", 0, fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return "", 0, fmt.Errorf("create zip: %w", err)
	}
	n, err := WritePageArchive(f, img, opt)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close zip: %w", cerr)
	}
	return outPath, n, err
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
