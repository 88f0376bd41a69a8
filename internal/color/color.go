/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package color implements the hex/RGB/HSL conversions used to theme a
// character sheet from a single accent color.
package color

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// InvalidColorError reports a hex string that is not 3 or 6 hex digits.
type InvalidColorError struct {
	Input string
}

func (e *InvalidColorError) Error() string {
	return fmt.Sprintf("invalid hex color %q", e.Input)
}

// ParseRGB parses "#rgb", "rgb", "#rrggbb" or "rrggbb".
func ParseRGB(hex string) (r, g, b uint8, err error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, &InvalidColorError{Input: hex}
	}
	v, perr := strconv.ParseUint(s, 16, 32)
	if perr != nil {
		return 0, 0, 0, &InvalidColorError{Input: hex}
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// RGBString formats a color as lower-case "#rrggbb".
func RGBString(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// RGBToHSL converts to hue in degrees [0,360), saturation and lightness in [0,1].
func RGBToHSL(r, g, b uint8) (h, s, l float64) {
	rf, gf, bf := float64(r)/255, float64(g)/255, float64(b)/255
	maxC := math.Max(rf, math.Max(gf, bf))
	minC := math.Min(rf, math.Min(gf, bf))
	l = (maxC + minC) / 2
	if maxC == minC {
		return 0, 0, l
	}
	d := maxC - minC
	if l > 0.5 {
		s = d / (2 - maxC - minC)
	} else {
		s = d / (maxC + minC)
	}
	switch maxC {
	case rf:
		h = (gf - bf) / d
		if gf < bf {
			h += 6
		}
	case gf:
		h = (bf-rf)/d + 2
	default:
		h = (rf-gf)/d + 4
	}
	return h * 60, s, l
}

// Darken scales each channel by factor, clamped to [0,1], rounding to nearest.
func Darken(hex string, factor float64) (string, error) {
	r, g, b, err := ParseRGB(hex)
	if err != nil {
		return "", err
	}
	f := math.Max(0, math.Min(1, factor))
	return RGBString(scale(r, f), scale(g, f), scale(b, f)), nil
}

func scale(c uint8, f float64) uint8 {
	v := math.Round(float64(c) * f)
	return uint8(math.Max(0, math.Min(255, v)))
}

// RandomColor returns a random "#rrggbb". A nil source uses the global one.
func RandomColor(src *rand.Rand) string {
	n := 0
	if src != nil {
		n = src.Intn(1 << 24)
	} else {
		n = rand.Intn(1 << 24)
	}
	return RGBString(uint8(n>>16), uint8(n>>8), uint8(n))
}
