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
	"image/png"
	"os"
	"path/filepath"
)

// PNGOptions controls page image export.
//   - DPI: when > 0 pages are resampled to the page size at that resolution
//   - BaseName: file name prefix, "script" when empty
type PNGOptions struct {
	PageOptions
	DPI      int
	BaseName string
}

// WritePNGPages writes one PNG per page into outDir as
// <base>-page-<n>.png and returns the paths in page order.
func WritePNGPages(outDir string, img image.Image, opt PNGOptions) ([]string, error) {
	pages, _, err := pageImages(img, opt.PageOptions, opt.DPI)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure out dir: %w", err)
	}
	base := opt.BaseName
	if base == "" {
		base = "script"
	}
	paths := make([]string, 0, len(pages))
	for i, page := range pages {
		name := filepath.Join(outDir, fmt.Sprintf("%s-page-%d.png", base, i+1))
		f, err := os.Create(name)
		if err != nil {
			return paths, fmt.Errorf("create png: %w", err)
		}
		if err := png.Encode(f, page); err != nil {
			_ = f.Close()
			return paths, fmt.Errorf("encode png: %w", err)
		}
		if err := f.Close(); err != nil {
			return paths, fmt.Errorf("close png: %w", err)
		}
		paths = append(paths, name)
	}
	return paths, nil
}
