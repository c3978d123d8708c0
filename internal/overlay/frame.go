/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package overlay draws the transient editing overlay (selection outlines,
// handles, snap guides) of an editor into PNG, PDF or SVG files. It is used
// for bug reports and documentation; the interactive host draws the same
// Frame on its own canvas.
package overlay

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gosceneeditor/internal/editor"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/handle"
	"gosceneeditor/internal/snap"
	"gosceneeditor/internal/solver"
)

var ErrUnknownFormat = errors.New("unknown overlay format")

// Frame is one overlay snapshot in window pixels.
type Frame struct {
	Width   int
	Height  int
	Stage   geom.Rect
	Objects []Object
	Targets []Target
	Guides  []snap.Guide
}

// Object is an unselected scene object shown as a faint box.
type Object struct {
	ID     string
	Bounds geom.Rect
}

// Target is the handle overlay of one selected object.
type Target struct {
	ID      string
	Outline [4]geom.Pt
	Handles []handle.Handle
	Small   bool
}

// Style holds colors and sizes; zero fields take DefaultStyle values.
type Style struct {
	Background color.RGBA
	Stage      color.RGBA
	Object     color.RGBA
	Outline    color.RGBA
	HandleFill color.RGBA
	Handle     color.RGBA
	Anchor     color.RGBA
	Guide      color.RGBA
	Label      color.RGBA
	Stroke     float64
	HandleSize float64
	HideLabels bool

	// LabelFont is an optional TTF/OTF path for PNG labels.
	LabelFont string
	LabelSize float64
}

var DefaultStyle = Style{
	Background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Stage:      color.RGBA{R: 200, G: 200, B: 200, A: 255},
	Object:     color.RGBA{R: 170, G: 170, B: 170, A: 255},
	Outline:    color.RGBA{R: 0, G: 120, B: 215, A: 255},
	HandleFill: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Handle:     color.RGBA{R: 0, G: 120, B: 215, A: 255},
	Anchor:     color.RGBA{R: 230, G: 120, B: 0, A: 255},
	Guide:      color.RGBA{R: 255, G: 0, B: 128, A: 255},
	Label:      color.RGBA{R: 40, G: 40, B: 40, A: 255},
	Stroke:     1,
	HandleSize: 8,
}

func (s Style) orDefault() Style {
	d := DefaultStyle
	pick := func(c *color.RGBA, v color.RGBA) {
		if v != (color.RGBA{}) {
			*c = v
		}
	}
	pick(&d.Background, s.Background)
	pick(&d.Stage, s.Stage)
	pick(&d.Object, s.Object)
	pick(&d.Outline, s.Outline)
	pick(&d.HandleFill, s.HandleFill)
	pick(&d.Handle, s.Handle)
	pick(&d.Anchor, s.Anchor)
	pick(&d.Guide, s.Guide)
	pick(&d.Label, s.Label)
	if s.Stroke > 0 {
		d.Stroke = s.Stroke
	}
	if s.HandleSize > 0 {
		d.HandleSize = s.HandleSize
	}
	d.HideLabels = s.HideLabels
	d.LabelFont, d.LabelSize = s.LabelFont, s.LabelSize
	return d
}

// Capture snapshots the overlay of e for a w×h window.
func Capture(e *editor.Editor, w, h int) Frame {
	f := Frame{Width: w, Height: h, Guides: e.Guides()}
	selected := make(map[string]bool)
	for _, n := range e.Selection() {
		selected[n.ID] = true
	}
	for _, en := range e.Scene().Entries(e.Bridge()) {
		switch {
		case en.IsRoot():
			f.Stage = en.Bounds
		case !selected[en.ID]:
			f.Objects = append(f.Objects, Object{ID: en.ID, Bounds: en.Bounds})
		}
	}
	nodes := e.Selection()
	for i, a := range e.Adapters() {
		hs := a.Handles()
		t := Target{ID: nodes[i].ID, Outline: hs.Outline(), Small: hs.Small()}
		for _, h := range hs.All() {
			if h.Visible && h.Op != solver.OpMove {
				t.Handles = append(t.Handles, h)
			}
		}
		f.Targets = append(f.Targets, t)
	}
	return f
}

// Render writes f in format ("png", "pdf" or "svg").
func Render(w io.Writer, format string, f Frame, st Style) error {
	switch strings.ToLower(format) {
	case "png":
		return RenderPNG(w, f, st)
	case "pdf":
		return RenderPDF(w, f, st)
	case "svg":
		return RenderSVG(w, f, st)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteFile renders f into path, picking the format from the extension.
func WriteFile(path string, f Frame, st Style) (err error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	switch strings.ToLower(format) {
	case "png", "pdf", "svg":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create overlay: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close overlay: %w", cerr)
		}
	}()
	return Render(out, format, f, st)
}

// handleSquare is the drawn square of a resize handle centered on p.
func handleSquare(p geom.Pt, size float64) [4]geom.Pt {
	h := size / 2
	return [4]geom.Pt{
		geom.P(p.X-h, p.Y-h), geom.P(p.X+h, p.Y-h),
		geom.P(p.X+h, p.Y+h), geom.P(p.X-h, p.Y+h),
	}
}

func rectQuad(r geom.Rect) [4]geom.Pt {
	return [4]geom.Pt{
		r.Min(), geom.P(r.Right(), r.Y),
		r.Max(), geom.P(r.X, r.Bottom()),
	}
}
