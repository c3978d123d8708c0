/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection holds the window-space geometry of the selectable scene:
// axis-aligned bounds, z-order paths, marquee picking and the base lines the
// snapper aligns against.
package selection

import (
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/snap"
)

// Bounds returns the window AABB of a w×h local box placed by localToWindow.
func Bounds(localToWindow geom.Matrix, w, h float64) geom.Rect {
	return geom.RectFromPoints(
		localToWindow.Apply(geom.P(0, 0)),
		localToWindow.Apply(geom.P(w, 0)),
		localToWindow.Apply(geom.P(w, h)),
		localToWindow.Apply(geom.P(0, h)),
	)
}

// Path lists sibling indices from the root down to a node. The root itself
// has an empty path.
type Path []int

// IsAncestorOf reports whether p is a strict prefix of o.
func (p Path) IsAncestorOf(o Path) bool {
	if len(p) >= len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Within reports whether p equals o or lies below it.
func (p Path) Within(o Path) bool {
	return len(p) == len(o) && Compare(p, o) == 0 || o.IsAncestorOf(p)
}

// Compare orders paths for selection lists: an ancestor comes before its
// descendants, otherwise the higher sibling index at the first difference
// comes first, so top-most objects lead. It returns -1, 0 or 1.
func Compare(a, b Path) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		switch {
		case a[i] > b[i]:
			return -1
		case a[i] < b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Sort orders items by Compare on their paths. It is a bubble sort: stable,
// and selections are short.
func Sort[T any](items []T, path func(T) Path) {
	for i := 0; i < len(items); i++ {
		swapped := false
		for j := 0; j < len(items)-1-i; j++ {
			if Compare(path(items[j]), path(items[j+1])) > 0 {
				items[j], items[j+1] = items[j+1], items[j]
				swapped = true
			}
		}
		if !swapped {
			return
		}
	}
}

// Entry is one node of the flattened scene as the selection layer sees it.
type Entry struct {
	ID         string
	Path       Path
	Bounds     geom.Rect
	Selectable bool
}

func (e Entry) IsRoot() bool { return len(e.Path) == 0 }

func entryPath(e Entry) Path { return e.Path }

// Mode selects how a marquee rectangle matches bounds.
type Mode int

const (
	// Contains picks entries whose bounds lie fully inside the marquee.
	Contains Mode = iota
	// Intersects picks entries overlapping the marquee.
	Intersects
)

// Marquee returns the selectable entries matched by rect, sorted with Sort.
// The root is only considered when includeRoot is set.
func Marquee(entries []Entry, rect geom.Rect, mode Mode, includeRoot bool) []Entry {
	rect = rect.Normalize()
	var out []Entry
	for _, e := range entries {
		if !e.Selectable || (e.IsRoot() && !includeRoot) {
			continue
		}
		var hit bool
		if mode == Contains {
			hit = rect.ContainsRect(e.Bounds)
		} else {
			hit = rect.Intersects(e.Bounds)
		}
		if hit {
			out = append(out, e)
		}
	}
	Sort(out, entryPath)
	return out
}

// Pick returns the top-most painted selectable entry under p. The root is
// never picked.
func Pick(entries []Entry, p geom.Pt) (Entry, bool) {
	var best Entry
	found := false
	for _, e := range entries {
		if !e.Selectable || e.IsRoot() || !e.Bounds.Contains(p) {
			continue
		}
		if !found || paintsOver(e.Path, best.Path) {
			best, found = e, true
		}
	}
	return best, found
}

// paintsOver reports whether a is drawn after b: descendants over their
// ancestors, later siblings over earlier ones.
func paintsOver(a, b Path) bool {
	if b.IsAncestorOf(a) {
		return true
	}
	if a.IsAncestorOf(b) {
		return false
	}
	return Compare(a, b) < 0
}

// SnapLines harvests near, middle and far lines on both axes from every
// entry outside the excluded subtrees. The root contributes too, so objects
// align with the stage edges.
func SnapLines(entries []Entry, exclude []Path) []snap.Line {
	var out []snap.Line
outer:
	for _, e := range entries {
		for _, x := range exclude {
			if e.Path.Within(x) {
				continue outer
			}
		}
		out = append(out, snap.RectLines(e.Bounds)...)
	}
	return out
}

// Siblings adapts a live entry source to snap.LineProvider. Entries and
// Excluded are called once per gesture.
type Siblings struct {
	Entries  func() []Entry
	Excluded func() []Path
}

func (s *Siblings) SnapLines() []snap.Line {
	if s == nil || s.Entries == nil {
		return nil
	}
	var ex []Path
	if s.Excluded != nil {
		ex = s.Excluded()
	}
	return SnapLines(s.Entries(), ex)
}
