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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/solver"
)

// RenderPNG rasterizes f with anti-aliased strokes.
func RenderPNG(w io.Writer, f Frame, st Style) error {
	img, err := Rasterize(f, st)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Rasterize draws f into a new image of the frame size.
func Rasterize(f Frame, st Style) (*image.RGBA, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("overlay size %dx%d", f.Width, f.Height)
	}
	st = st.orDefault()
	face, err := labelFace(st)
	if err != nil && !st.HideLabels {
		return nil, err
	}
	c := &raster{img: image.NewRGBA(image.Rect(0, 0, f.Width, f.Height)), z: vector.NewRasterizer(f.Width, f.Height), face: face}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(st.Background), image.Point{}, draw.Src)

	if f.Stage.W > 0 && f.Stage.H > 0 {
		c.strokePoly(rectQuad(f.Stage), st.Stroke, st.Stage)
	}
	for _, o := range f.Objects {
		c.strokePoly(rectQuad(o.Bounds), st.Stroke, st.Object)
	}
	for _, g := range f.Guides {
		c.line(g.From, g.To, st.Stroke, st.Guide)
	}
	for _, t := range f.Targets {
		c.strokePoly(t.Outline, st.Stroke, st.Outline)
		for _, h := range t.Handles {
			switch h.Op {
			case solver.OpAnchor:
				c.fillPoly(circlePoly(h.Pos, st.HandleSize/2), st.Anchor)
				c.line(h.Pos.Sub(geom.P(st.HandleSize, 0)), h.Pos.Add(geom.P(st.HandleSize, 0)), st.Stroke, st.Anchor)
				c.line(h.Pos.Sub(geom.P(0, st.HandleSize)), h.Pos.Add(geom.P(0, st.HandleSize)), st.Stroke, st.Anchor)
			case solver.OpTack:
				c.fillPoly(circlePoly(h.Pos, st.HandleSize/2), st.Handle)
			default:
				sq := handleSquare(h.Pos, st.HandleSize)
				c.fillPoly(sq[:], st.HandleFill)
				c.strokePoly(sq, st.Stroke, st.Handle)
			}
		}
		if !st.HideLabels {
			c.label(t.Outline[0].Add(geom.P(0, -4)), t.ID, st.Label)
		}
	}
	return c.img, nil
}

type raster struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	face font.Face
}

func (c *raster) fillPoly(pts []geom.Pt, col color.RGBA) {
	if len(pts) < 3 {
		return
	}
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
	c.z.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		c.z.LineTo(float32(p.X), float32(p.Y))
	}
	c.z.ClosePath()
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

// line fills the width×length quad around the segment a-b.
func (c *raster) line(a, b geom.Pt, width float64, col color.RGBA) {
	d := b.Sub(a)
	l := d.Len()
	if l == 0 {
		return
	}
	n := geom.P(-d.Y/l, d.X/l).Mul(width / 2)
	c.fillPoly([]geom.Pt{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}, col)
}

func (c *raster) strokePoly(q [4]geom.Pt, width float64, col color.RGBA) {
	for i := range q {
		c.line(q[i], q[(i+1)%4], width, col)
	}
}

func (c *raster) label(p geom.Pt, s string, col color.RGBA) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(int(math.Round(p.X)), int(math.Round(p.Y))),
	}
	d.DrawString(s)
}

func circlePoly(center geom.Pt, r float64) []geom.Pt {
	const segments = 24
	out := make([]geom.Pt, segments)
	for i := range out {
		a := 2 * math.Pi * float64(i) / segments
		out[i] = geom.P(center.X+r*math.Cos(a), center.Y+r*math.Sin(a))
	}
	return out
}
