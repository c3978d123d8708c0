/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bridge

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"gosceneeditor/internal/geom"
)

// cssCache memoizes parsed transform strings; overlay elements re-declare the
// same handful of transforms on every layout pass.
var cssCache sync.Map // string -> geom.Matrix

// ParseCSSTransform parses a CSS transform list such as
// "translate(10px, 4px) rotate(45deg) scale(2)" into a Matrix. As in CSS the
// right-most function is applied to points first. Supported functions:
// matrix, translate, translateX, translateY, scale, scaleX, scaleY, rotate.
func ParseCSSTransform(s string) (geom.Matrix, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" || key == "none" {
		return geom.Identity, nil
	}
	if v, ok := cssCache.Load(key); ok {
		return v.(geom.Matrix), nil
	}
	fns, err := splitCSSFunctions(key)
	if err != nil {
		return geom.Identity, err
	}
	m := geom.Identity
	for i := len(fns) - 1; i >= 0; i-- {
		fm, err := cssFunctionMatrix(fns[i].name, fns[i].args)
		if err != nil {
			return geom.Identity, err
		}
		m = m.Concat(fm)
	}
	cssCache.Store(key, m)
	return m, nil
}

type cssFunction struct {
	name string
	args []string
}

func splitCSSFunctions(s string) ([]cssFunction, error) {
	var out []cssFunction
	rest := s
	for {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return out, nil
		}
		open := strings.IndexByte(rest, '(')
		if open <= 0 {
			return nil, fmt.Errorf("css transform: expected function at %q", rest)
		}
		closing := strings.IndexByte(rest, ')')
		if closing < open {
			return nil, fmt.Errorf("css transform: unbalanced parentheses in %q", s)
		}
		name := strings.TrimSpace(rest[:open])
		var args []string
		for _, a := range strings.Split(rest[open+1:closing], ",") {
			if a = strings.TrimSpace(a); a != "" {
				args = append(args, a)
			}
		}
		out = append(out, cssFunction{name: name, args: args})
		rest = rest[closing+1:]
	}
}

func cssFunctionMatrix(name string, args []string) (geom.Matrix, error) {
	nums := make([]float64, len(args))
	for i, a := range args {
		v, err := parseCSSNumber(a)
		if err != nil {
			return geom.Identity, fmt.Errorf("css transform %s: %w", name, err)
		}
		nums[i] = v
	}
	arg := func(i int, def float64) float64 {
		if i < len(nums) {
			return nums[i]
		}
		return def
	}
	need := func(n int) error {
		if len(nums) < n {
			return fmt.Errorf("css transform %s: want %d arguments, got %d", name, n, len(nums))
		}
		return nil
	}
	switch name {
	case "matrix":
		if err := need(6); err != nil {
			return geom.Identity, err
		}
		return geom.NewMatrix(nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]), nil
	case "translate":
		if err := need(1); err != nil {
			return geom.Identity, err
		}
		return geom.TranslateMatrix(nums[0], arg(1, 0)), nil
	case "translatex":
		if err := need(1); err != nil {
			return geom.Identity, err
		}
		return geom.TranslateMatrix(nums[0], 0), nil
	case "translatey":
		if err := need(1); err != nil {
			return geom.Identity, err
		}
		return geom.TranslateMatrix(0, nums[0]), nil
	case "scale":
		if err := need(1); err != nil {
			return geom.Identity, err
		}
		return geom.ScaleMatrix(nums[0], arg(1, nums[0])), nil
	case "scalex":
		if err := need(1); err != nil {
			return geom.Identity, err
		}
		return geom.ScaleMatrix(nums[0], 1), nil
	case "scaley":
		if err := need(1); err != nil {
			return geom.Identity, err
		}
		return geom.ScaleMatrix(1, nums[0]), nil
	case "rotate":
		if err := need(1); err != nil {
			return geom.Identity, err
		}
		return geom.RotateMatrix(nums[0]), nil
	}
	return geom.Identity, fmt.Errorf("css transform: unsupported function %q", name)
}

// parseCSSNumber accepts plain numbers and px, deg, rad and turn units.
// Angles are returned in degrees.
func parseCSSNumber(s string) (float64, error) {
	unit := ""
	for _, u := range []string{"px", "deg", "rad", "turn"} {
		if strings.HasSuffix(s, u) {
			unit = u
			s = strings.TrimSpace(strings.TrimSuffix(s, u))
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	switch unit {
	case "rad":
		v = v * 180 / math.Pi
	case "turn":
		v *= 360
	}
	return v, nil
}
