/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package color

import (
	"fmt"
	"strconv"
)

// darkFactor darkens the accent to 20% for the header gradient.
const darkFactor = 0.2

// Filter is the CSS filter that tints the stock sidebar artwork toward the accent.
type Filter struct {
	HueDeg     float64 `json:"hueDeg"`
	Saturate   float64 `json:"saturate"`
	Brightness float64 `json:"brightness"`
}

// CSS renders the filter as a CSS filter value.
func (f Filter) CSS() string {
	return fmt.Sprintf("hue-rotate(%sdeg) saturate(%s) brightness(%s)", num(f.HueDeg), num(f.Saturate), num(f.Brightness))
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// Brightness maps HSL lightness to the sidebar brightness multiplier.
// The curve passes through (0,0), (0.3,1) and (1,~10) and is increasing for l >= 0.
func Brightness(l float64) float64 {
	if l < 0 {
		l = 0
	}
	return 9.5*l*l + 0.48*l
}

// Theme is the set of colors derived from one accent.
type Theme struct {
	Light  string `json:"light"`
	Dark   string `json:"dark"`
	Filter Filter `json:"filter"`
}

// NewTheme derives the header gradient and sidebar filter from accent.
func NewTheme(accent string) (Theme, error) {
	r, g, b, err := ParseRGB(accent)
	if err != nil {
		return Theme{}, err
	}
	h, s, l := RGBToHSL(r, g, b)
	dark, _ := Darken(accent, darkFactor)
	return Theme{
		Light:  RGBString(r, g, b),
		Dark:   dark,
		Filter: Filter{HueDeg: h, Saturate: s, Brightness: Brightness(l)},
	}, nil
}
