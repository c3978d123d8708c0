/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package handle

import (
	"math"

	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/solver"
)

// Metrics are the pixel sizes of the handle widgets and gesture thresholds.
type Metrics struct {
	HandleSize    float64 // resize handle box
	CenterRadius  float64 // resize center sub-zone
	AnchorSize    float64
	TackSize      float64
	TackThreshold float64 // AABB size below which the tack replaces the handles
	MoveThreshold float64 // pointer travel before a drag begins
	KeyStep       float64
	FastKeyStep   float64
}

// DefaultMetrics match the stock handle artwork.
var DefaultMetrics = Metrics{
	HandleSize:    20,
	CenterRadius:  4,
	AnchorSize:    24,
	TackSize:      26,
	TackThreshold: 20,
	MoveThreshold: 1,
	KeyStep:       1,
	FastKeyStep:   10,
}

func (m Metrics) orDefault() Metrics {
	d := DefaultMetrics
	if m.HandleSize > 0 {
		d.HandleSize = m.HandleSize
	}
	if m.CenterRadius > 0 {
		d.CenterRadius = m.CenterRadius
	}
	if m.AnchorSize > 0 {
		d.AnchorSize = m.AnchorSize
	}
	if m.TackSize > 0 {
		d.TackSize = m.TackSize
	}
	if m.TackThreshold > 0 {
		d.TackThreshold = m.TackThreshold
	}
	if m.MoveThreshold > 0 {
		d.MoveThreshold = m.MoveThreshold
	}
	if m.KeyStep > 0 {
		d.KeyStep = m.KeyStep
	}
	if m.FastKeyStep > 0 {
		d.FastKeyStep = m.FastKeyStep
	}
	return d
}

// Handle is one draggable widget in window space.
type Handle struct {
	Op      solver.Op
	Pos     geom.Pt
	Box     geom.Rect
	Visible bool
}

// hitOrder lists handles in the order they answer a pointer press.
var hitOrder = []solver.Op{
	solver.OpTack,
	solver.OpAnchor,
	solver.OpRightBottom, solver.OpRightTop, solver.OpLeftBottom, solver.OpLeftTop,
	solver.OpTop, solver.OpBottom, solver.OpRight, solver.OpLeft,
	solver.OpMove,
}

// HandleSet is the laid-out overlay of one adapter.
type HandleSet struct {
	handles map[solver.Op]*Handle
	// body maps local box coordinates to window space; the move region is
	// the unit box under it.
	body       geom.Matrix
	bodyInv    geom.Matrix
	bodyOK     bool
	width      float64
	height     float64
	bounds     geom.Rect
	small      bool
	renderAll  bool
	anchorTurn float64
	metrics    Metrics
}

func newHandleSet(m Metrics) HandleSet {
	hs := HandleSet{handles: make(map[solver.Op]*Handle, len(hitOrder)), metrics: m, renderAll: true}
	for _, op := range hitOrder {
		hs.handles[op] = &Handle{Op: op}
	}
	return hs
}

// layout places every handle for a w×h local box shown through toWindow.
func (hs *HandleSet) layout(toWindow geom.Matrix, w, h float64, anchor geom.Pt) {
	local := map[solver.Op]geom.Pt{
		solver.OpLeftTop:     geom.P(0, 0),
		solver.OpTop:         geom.P(w/2, 0),
		solver.OpRightTop:    geom.P(w, 0),
		solver.OpRight:       geom.P(w, h/2),
		solver.OpRightBottom: geom.P(w, h),
		solver.OpBottom:      geom.P(w/2, h),
		solver.OpLeftBottom:  geom.P(0, h),
		solver.OpLeft:        geom.P(0, h/2),
		solver.OpAnchor:      anchor,
	}
	pts := make([]geom.Pt, 0, len(local))
	for op, lp := range local {
		p := toWindow.Apply(lp)
		hs.handles[op].Pos = p
		pts = append(pts, p)
	}
	hs.bounds = geom.RectFromPoints(pts...)
	hs.width, hs.height = w, h
	hs.body = toWindow
	hs.bodyInv, hs.bodyOK = toWindow.InvertOK()

	hs.handles[solver.OpTack].Pos = hs.bounds.Center()
	hs.handles[solver.OpMove].Pos = hs.handles[solver.OpLeftTop].Pos

	lt, rt := hs.handles[solver.OpLeftTop].Pos, hs.handles[solver.OpRightTop].Pos
	hs.anchorTurn = geom.AngleOf(rt.Sub(lt))

	hs.small = hs.bounds.W < hs.metrics.TackThreshold && hs.bounds.H < hs.metrics.TackThreshold
	hs.updateBoxes()
	hs.updateVisibility()
}

func (hs *HandleSet) updateBoxes() {
	for op, h := range hs.handles {
		size := hs.metrics.HandleSize
		switch op {
		case solver.OpAnchor:
			size = hs.metrics.AnchorSize
		case solver.OpTack:
			size = hs.metrics.TackSize
		case solver.OpMove:
			h.Box = hs.bounds
			continue
		}
		h.Box = geom.R(h.Pos.X-size/2, h.Pos.Y-size/2, size, size)
	}
}

func (hs *HandleSet) updateVisibility() {
	for op, h := range hs.handles {
		switch op {
		case solver.OpMove:
			h.Visible = true
		case solver.OpTack:
			h.Visible = hs.small
		default:
			h.Visible = !hs.small && hs.renderAll
		}
	}
}

// Get returns a copy of the handle for op.
func (hs HandleSet) Get(op solver.Op) (Handle, bool) {
	h, ok := hs.handles[op]
	if !ok {
		return Handle{}, false
	}
	return *h, true
}

// All returns the handles in hit-test order.
func (hs HandleSet) All() []Handle {
	out := make([]Handle, 0, len(hitOrder))
	for _, op := range hitOrder {
		out = append(out, *hs.handles[op])
	}
	return out
}

// Bounds is the window AABB of the laid-out box.
func (hs HandleSet) Bounds() geom.Rect { return hs.bounds }

// Small reports whether the tack replaces the other handles.
func (hs HandleSet) Small() bool { return hs.small }

// AnchorRotation is the on-screen direction of the top edge, in degrees, used
// to draw the anchor/rotate handle.
func (hs HandleSet) AnchorRotation() float64 { return hs.anchorTurn }

// InMoveRegion reports whether p lies on the transformed body.
func (hs HandleSet) InMoveRegion(p geom.Pt) bool {
	if !hs.bodyOK {
		return false
	}
	lp := hs.bodyInv.Apply(p)
	const eps = 1e-9
	return lp.X >= -eps && lp.Y >= -eps && lp.X <= hs.width+eps && lp.Y <= hs.height+eps
}

// inCenter reports whether p is inside the center sub-zone of resize handle op.
func (hs HandleSet) inCenter(op solver.Op, p geom.Pt) bool {
	h := hs.handles[op]
	return p.Sub(h.Pos).Len() <= hs.metrics.CenterRadius
}

func (hs HandleSet) hitBox(op solver.Op, p geom.Pt) bool {
	h := hs.handles[op]
	if !h.Visible {
		return false
	}
	if op == solver.OpMove {
		return hs.InMoveRegion(p)
	}
	return h.Box.Contains(p)
}

// HitTest returns the first handle under p in hit order. A resize handle hit
// outside its center sub-zone but on the body resolves to the move region.
func (hs HandleSet) HitTest(p geom.Pt) (solver.Op, bool) {
	for _, op := range hitOrder {
		if !hs.hitBox(op, p) {
			continue
		}
		if op.IsResize() && !hs.inCenter(op, p) && hs.hitBox(solver.OpMove, p) {
			return solver.OpMove, true
		}
		return op, true
	}
	return "", false
}

// Mode is how a pressed handle drives the target.
type Mode int

const (
	ModeNone Mode = iota
	ModeSimple
	ModeRotate
)

// OperateMode decides what a press at p on handle op does: move, anchor and
// tack always drag; a resize handle drags from its center; a corner grabbed
// off the body rotates; an edge grabbed off the body does nothing.
func (hs HandleSet) OperateMode(op solver.Op, p geom.Pt) Mode {
	if !op.IsResize() {
		return ModeSimple
	}
	if hs.inCenter(op, p) {
		return ModeSimple
	}
	if !hs.hitBox(solver.OpMove, p) && op.IsCorner() {
		return ModeRotate
	}
	return ModeNone
}

// Distorted reports whether the laid-out box is no longer an upright
// rectangle on screen, i.e. it is rotated or skewed.
func (hs HandleSet) Distorted() bool {
	lt := hs.handles[solver.OpLeftTop].Pos
	rt := hs.handles[solver.OpRightTop].Pos
	lb := hs.handles[solver.OpLeftBottom].Pos
	return math.Abs(lt.Y-rt.Y) > 0.5 || math.Abs(lt.X-lb.X) > 0.5
}

// Outline is the selection frame: the four corners rounded to whole pixels
// and pulled half a pixel inwards so a 1px stroke stays crisp.
func (hs HandleSet) Outline() [4]geom.Pt {
	q := [4]geom.Pt{
		hs.handles[solver.OpLeftTop].Pos,
		hs.handles[solver.OpRightTop].Pos,
		hs.handles[solver.OpRightBottom].Pos,
		hs.handles[solver.OpLeftBottom].Pos,
	}
	for i := range q {
		q[i] = geom.P(math.Round(q[i].X), math.Round(q[i].Y))
	}
	return insetQuad(q, 0.5)
}

// insetQuad offsets every edge of q by d towards the interior and returns
// the intersections of the offset edges. Degenerate corners keep their point.
func insetQuad(q [4]geom.Pt, d float64) [4]geom.Pt {
	var area float64
	for i := range q {
		j := (i + 1) % 4
		area += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	if area == 0 {
		return q
	}
	sign := 1.0
	if area < 0 {
		sign = -1
	}
	// inward normal of edge a->b for a clockwise-positive area in y-down space
	normal := func(a, b geom.Pt) geom.Pt {
		e := b.Sub(a)
		l := e.Len()
		if l == 0 {
			return geom.Pt{}
		}
		return geom.P(-e.Y/l*sign, e.X/l*sign)
	}
	var out [4]geom.Pt
	for i := range q {
		prev, next := q[(i+3)%4], q[(i+1)%4]
		n1, n2 := normal(prev, q[i]), normal(q[i], next)
		dot := n1.X*n2.X + n1.Y*n2.Y
		if n1.IsZero() || n2.IsZero() || 1+dot < 1e-9 {
			out[i] = q[i]
			continue
		}
		k := d / (1 + dot)
		out[i] = q[i].Add(n1.Add(n2).Mul(k))
	}
	return out
}
