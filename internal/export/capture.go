/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Capturer produces the bitmap of a rendered sheet. Capturing is a single
// fallible step; exporters never retry it.
type Capturer interface {
	Capture(ctx context.Context) (image.Image, error)
}

// CaptureError reports a failed capture. Callers usually offer a local print
// fallback when they see it.
type CaptureError struct {
	Source string
	Err    error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s: %v", e.Source, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// FileCapturer reads a surface that was rendered to an image file.
// PNG, JPEG, GIF, BMP, TIFF and WebP are understood.
type FileCapturer struct {
	Path string
}

// Capture decodes the file.
func (c FileCapturer) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Source: c.Path, Err: err}
	}
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, &CaptureError{Source: c.Path, Err: err}
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &CaptureError{Source: c.Path, Err: fmt.Errorf("decode: %w", err)}
	}
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Source: c.Path, Err: err}
	}
	return img, nil
}

// ImageCapturer returns an image that is already in memory.
type ImageCapturer struct {
	Image image.Image
}

// Capture returns the image.
func (c ImageCapturer) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Source: "memory", Err: err}
	}
	if c.Image == nil {
		return nil, &CaptureError{Source: "memory", Err: ErrEmptySurface}
	}
	return c.Image, nil
}

// ScaledCapturer resamples another capturer's output by Scale, the way a
// browser capture renders at device scale 2 for sharper print output.
type ScaledCapturer struct {
	Source Capturer
	Scale  float64
}

// Capture captures and resamples with Catmull-Rom.
func (c ScaledCapturer) Capture(ctx context.Context) (image.Image, error) {
	if c.Source == nil {
		return nil, &CaptureError{Source: "scaled", Err: ErrEmptySurface}
	}
	img, err := c.Source.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if c.Scale <= 0 || c.Scale == 1 {
		return img, nil
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * c.Scale))
	h := int(math.Round(float64(b.Dy()) * c.Scale))
	if w <= 0 || h <= 0 {
		return nil, &CaptureError{Source: "scaled", Err: ErrEmptySurface}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	if err := ctx.Err(); err != nil {
		return nil, &CaptureError{Source: "scaled", Err: err}
	}
	return dst, nil
}

// Capture runs c and checks that the result has pixels.
func Capture(ctx context.Context, c Capturer) (image.Image, error) {
	img, err := c.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &CaptureError{Source: "surface", Err: ErrEmptySurface}
	}
	return img, nil
}
