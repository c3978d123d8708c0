/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"strings"

	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/solver"
)

// RenderSVG writes f as an SVG document in window pixel units.
func RenderSVG(w io.Writer, f Frame, st Style) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("overlay size %dx%d", f.Width, f.Height)
	}
	st = st.orDefault()

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%dpx\" height=\"%dpx\" viewBox=\"0 0 %d %d\">\n", f.Width, f.Height, f.Width, f.Height)
	wf("  <rect x=\"0\" y=\"0\" width=\"%d\" height=\"%d\" fill=\"%s\"/>\n", f.Width, f.Height, svgColor(st.Background))
	if f.Stage.W > 0 && f.Stage.H > 0 {
		wf("  <rect class=\"stage\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			f.Stage.X, f.Stage.Y, f.Stage.W, f.Stage.H, svgColor(st.Stage), st.Stroke)
	}
	for _, o := range f.Objects {
		wf("  <rect class=\"object\" data-id=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			escText(o.ID), o.Bounds.X, o.Bounds.Y, o.Bounds.W, o.Bounds.H, svgColor(st.Object), st.Stroke)
	}
	for _, g := range f.Guides {
		wf("  <line class=\"guide\" x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			g.From.X, g.From.Y, g.To.X, g.To.Y, svgColor(st.Guide), st.Stroke)
	}
	for _, t := range f.Targets {
		wf("  <g class=\"target\" data-id=\"%s\">\n", escText(t.ID))
		wf("    <polygon class=\"outline\" points=\"%s\" fill=\"none\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
			svgPoints(t.Outline[:]), svgColor(st.Outline), st.Stroke)
		r := st.HandleSize / 2
		for _, h := range t.Handles {
			switch h.Op {
			case solver.OpAnchor:
				wf("    <circle class=\"anchor\" cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"%s\"/>\n", h.Pos.X, h.Pos.Y, r, svgColor(st.Anchor))
			case solver.OpTack:
				wf("    <circle class=\"tack\" cx=\"%g\" cy=\"%g\" r=\"%g\" fill=\"%s\"/>\n", h.Pos.X, h.Pos.Y, r, svgColor(st.Handle))
			default:
				wf("    <rect class=\"handle\" data-op=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"/>\n",
					h.Op, h.Pos.X-r, h.Pos.Y-r, st.HandleSize, st.HandleSize, svgColor(st.HandleFill), svgColor(st.Handle), st.Stroke)
			}
		}
		if !st.HideLabels {
			wf("    <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"9\" fill=\"%s\">%s</text>\n",
				t.Outline[0].X, t.Outline[0].Y-4, svgColor(st.Label), escText(t.ID))
		}
		wf("  </g>\n")
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func svgPoints(pts []geom.Pt) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%g,%g", p.X, p.Y)
	}
	return strings.Join(parts, " ")
}

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")

func escText(s string) string { return textEscaper.Replace(s) }
