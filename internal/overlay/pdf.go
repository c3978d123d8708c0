/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package overlay

import (
	"fmt"
	"image/color"
	"io"

	"github.com/jung-kurt/gofpdf"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/solver"
	"gosceneeditor/internal/version"
)

// RenderPDF writes f as a single-page vector PDF, one point per window pixel.
func RenderPDF(w io.Writer, f Frame, st Style) error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("overlay size %dx%d", f.Width, f.Height)
	}
	st = st.orDefault()
	size := gofpdf.SizeType{Wd: float64(f.Width), Ht: float64(f.Height)}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	pdf.SetTitle("Editing overlay", false)
	pdf.SetCreator("gosceneeditor "+version.String(), false)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.AddPageFormat("", size)

	setFill(pdf, st.Background)
	pdf.Rect(0, 0, size.Wd, size.Ht, "F")
	pdf.SetLineWidth(st.Stroke)

	if f.Stage.W > 0 && f.Stage.H > 0 {
		setDraw(pdf, st.Stage)
		pdf.Rect(f.Stage.X, f.Stage.Y, f.Stage.W, f.Stage.H, "D")
	}
	setDraw(pdf, st.Object)
	for _, o := range f.Objects {
		pdf.Rect(o.Bounds.X, o.Bounds.Y, o.Bounds.W, o.Bounds.H, "D")
	}
	setDraw(pdf, st.Guide)
	for _, g := range f.Guides {
		pdf.Line(g.From.X, g.From.Y, g.To.X, g.To.Y)
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(int(st.Label.R), int(st.Label.G), int(st.Label.B))
	for _, t := range f.Targets {
		setDraw(pdf, st.Outline)
		pdf.Polygon(pdfPoints(t.Outline[:]), "D")
		for _, h := range t.Handles {
			r := st.HandleSize / 2
			switch h.Op {
			case solver.OpAnchor:
				setFill(pdf, st.Anchor)
				setDraw(pdf, st.Anchor)
				pdf.Circle(h.Pos.X, h.Pos.Y, r, "F")
				pdf.Line(h.Pos.X-st.HandleSize, h.Pos.Y, h.Pos.X+st.HandleSize, h.Pos.Y)
				pdf.Line(h.Pos.X, h.Pos.Y-st.HandleSize, h.Pos.X, h.Pos.Y+st.HandleSize)
			case solver.OpTack:
				setFill(pdf, st.Handle)
				pdf.Circle(h.Pos.X, h.Pos.Y, r, "F")
			default:
				setFill(pdf, st.HandleFill)
				setDraw(pdf, st.Handle)
				sq := handleSquare(h.Pos, st.HandleSize)
				pdf.Polygon(pdfPoints(sq[:]), "FD")
			}
		}
		if !st.HideLabels {
			pdf.Text(t.Outline[0].X, t.Outline[0].Y-4, t.ID)
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfPoints(pts []geom.Pt) []gofpdf.PointType {
	out := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		out[i] = gofpdf.PointType{X: p.X, Y: p.Y}
	}
	return out
}

func setDraw(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetDrawColor(int(c.R), int(c.G), int(c.B)) }
func setFill(pdf *gofpdf.Fpdf, c color.RGBA) { pdf.SetFillColor(int(c.R), int(c.G), int(c.B)) }
