/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

// Alignment snapping ("absorbing") for interactive drags. Base lines are
// harvested from the scene once per gesture; target lines come from the
// dragged geometry on every move. Everything is in window space and
// deterministic so the same input always picks the same line.

import (
	"sort"

	"gosceneeditor/internal/geom"
)

// DefaultTolerance is the snap distance in window pixels.
const DefaultTolerance = 4

// Orientation of a snap line. Horizontal lines have a y Value and extend
// along x; vertical lines have an x Value and extend along y.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Line is an alignment candidate. From and To give its extent along the
// line's direction. Offset is only used on target lines: the distance from
// the line to the pointer at gesture start, so a snapped pointer keeps its
// grip on the dragged geometry.
type Line struct {
	Orientation Orientation
	Value       float64
	From, To    float64
	Offset      float64
}

func HLine(y, fromX, toX float64) Line { return Line{Orientation: Horizontal, Value: y, From: fromX, To: toX} }
func VLine(x, fromY, toY float64) Line { return Line{Orientation: Vertical, Value: x, From: fromY, To: toY} }

// RectLines returns the near, middle and far lines of r on both axes.
func RectLines(r geom.Rect) []Line {
	return []Line{
		HLine(r.Y, r.X, r.Right()),
		HLine(r.Y+r.H/2, r.X, r.Right()),
		HLine(r.Bottom(), r.X, r.Right()),
		VLine(r.X, r.Y, r.Bottom()),
		VLine(r.X+r.W/2, r.Y, r.Bottom()),
		VLine(r.Right(), r.Y, r.Bottom()),
	}
}

// Result pairs a target line with the base line it snapped to.
type Result struct {
	Target Line
	Base   Line
}

// Guide is a drawable segment in window space.
type Guide struct {
	Orientation Orientation
	From, To    geom.Pt
}

// Guide spans the union of the base and target extents along the base line.
// Coordinates are rounded to 3 decimals.
func (r Result) Guide() Guide {
	lo := geom.FloatRound(min(r.Base.From, r.Target.From), 3)
	hi := geom.FloatRound(max(r.Base.To, r.Target.To), 3)
	v := geom.FloatRound(r.Base.Value, 3)
	if r.Base.Orientation == Horizontal {
		return Guide{Orientation: Horizontal, From: geom.P(lo, v), To: geom.P(hi, v)}
	}
	return Guide{Orientation: Vertical, From: geom.P(v, lo), To: geom.P(v, hi)}
}

// Engine matches target lines against a fixed set of base lines.
type Engine struct {
	base      []Line
	tolerance float64
}

// SetUp replaces the base lines. A non-positive tolerance selects
// DefaultTolerance.
func (e *Engine) SetUp(base []Line, tolerance float64) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	e.base = base
	e.tolerance = tolerance
}

func (e *Engine) Tolerance() float64 { return e.tolerance }
func (e *Engine) BaseLines() []Line  { return e.base }

// Absorb returns at most one result per target line. Targets are visited
// horizontal first, then by increasing value; for each, the first base line
// of the same orientation within tolerance wins. The input slice is not
// modified.
func (e *Engine) Absorb(targets []Line) []Result {
	if len(e.base) == 0 || len(targets) == 0 {
		return nil
	}
	sorted := append([]Line(nil), targets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Orientation != b.Orientation {
			return a.Orientation == Horizontal
		}
		return a.Value < b.Value
	})
	var out []Result
	for _, t := range sorted {
		for _, b := range e.base {
			if b.Orientation != t.Orientation {
				continue
			}
			if b.Value >= t.Value-e.tolerance && b.Value <= t.Value+e.tolerance {
				out = append(out, Result{Target: t, Base: b})
				break
			}
		}
	}
	return out
}

// LineProvider supplies base lines at gesture start.
type LineProvider interface {
	SnapLines() []Line
}

// Grid is a LineProvider of fixed-pitch lines covering Area.
type Grid struct {
	Pitch float64
	Area  geom.Rect
}

func (g Grid) SnapLines() []Line {
	if g.Pitch <= 0 || g.Area.W <= 0 || g.Area.H <= 0 {
		return nil
	}
	var out []Line
	for x := g.Area.X; x <= g.Area.Right(); x += g.Pitch {
		out = append(out, VLine(x, g.Area.Y, g.Area.Bottom()))
	}
	for y := g.Area.Y; y <= g.Area.Bottom(); y += g.Pitch {
		out = append(out, HLine(y, g.Area.X, g.Area.Right()))
	}
	return out
}
