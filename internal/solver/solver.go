/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package solver turns a handle drag into a new target state. All functions
// are pure: they read a Snapshot taken when the gesture began and a delta
// expressed in the target's parent space, and return the resulting State.
// Every result is computed from the snapshot, never from the previous move,
// so rounding errors do not accumulate over a long drag.
package solver

import (
	"math"

	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/target"
)

// Op identifies the operation a handle performs.
type Op string

const (
	OpTop         Op = "top"
	OpBottom      Op = "bottom"
	OpLeft        Op = "left"
	OpRight       Op = "right"
	OpLeftTop     Op = "lefttop"
	OpLeftBottom  Op = "leftbottom"
	OpRightTop    Op = "righttop"
	OpRightBottom Op = "rightbottom"
	OpMove        Op = "move"
	OpAnchor      Op = "anchor"
	OpRotation    Op = "rotation"
	OpTack        Op = "tack"
)

// AllOps lists every operation key in a stable order.
var AllOps = []Op{OpTop, OpBottom, OpLeft, OpRight, OpLeftTop, OpLeftBottom, OpRightTop, OpRightBottom, OpMove, OpAnchor, OpRotation, OpTack}

func (o Op) IsEdge() bool {
	switch o {
	case OpTop, OpBottom, OpLeft, OpRight:
		return true
	}
	return false
}

func (o Op) IsCorner() bool {
	switch o {
	case OpLeftTop, OpLeftBottom, OpRightTop, OpRightBottom:
		return true
	}
	return false
}

func (o Op) IsResize() bool { return o.IsEdge() || o.IsCorner() }

// IsMove reports whether o translates the target; the tack handle is a move.
func (o Op) IsMove() bool { return o == OpMove || o == OpTack }

// ParseOp maps a key back to an Op.
func ParseOp(s string) (Op, bool) {
	for _, o := range AllOps {
		if string(o) == s {
			return o, true
		}
	}
	return "", false
}

// Snapshot is the per-gesture copy of a target: its state, the local-to-parent
// matrix and that matrix's inverse.
type Snapshot struct {
	State   target.State
	Matrix  geom.Matrix
	Inverse geom.Matrix
}

func Take(s target.State) Snapshot {
	m := s.Matrix()
	return Snapshot{State: s, Matrix: m, Inverse: m.Invert()}
}

// RotationRestrictStep is the rotation increment used with the restrict modifier.
const RotationRestrictStep = 45

// Apply solves a drag of op by delta (parent space). mod is the modifier
// state: aspect lock for corners, grid snapping for the anchor. Rotation is
// not a drag and is handled by Rotate.
func Apply(snap Snapshot, caps target.Capabilities, op Op, delta geom.Pt, mod bool) target.State {
	if delta.IsZero() {
		return snap.State
	}
	switch {
	case op.IsResize():
		return Resize(snap, caps, op, delta, mod)
	case op.IsMove():
		return Move(snap, caps, delta)
	case op == OpAnchor:
		return Anchor(snap, caps, delta, mod)
	}
	return snap.State
}

// Move offsets the position by delta.
func Move(snap Snapshot, caps target.Capabilities, delta geom.Pt) target.State {
	s := snap.State
	if !caps.CanMove || delta.IsZero() {
		return s
	}
	s.X += delta.X
	s.Y += delta.Y
	return s
}

// Resize moves one edge or corner of the target by delta while the opposite
// edge midpoint or corner stays where it was in parent space. With aspect set,
// corner drags keep the width/height ratio of the snapshot.
func Resize(snap Snapshot, caps target.Capabilities, op Op, delta geom.Pt, aspect bool) target.State {
	s := snap.State
	if delta.IsZero() || !op.IsResize() {
		return s
	}
	if (aspect && !caps.CanScale) || (!aspect && !caps.CanResize) {
		return s
	}
	w, h := s.Width, s.Height
	moved := snap.Inverse.Apply(snap.Matrix.Apply(handlePoint(op, w, h)).Add(delta))

	nw, nh := w, h
	switch op {
	case OpTop:
		nh = h - moved.Y
	case OpBottom:
		nh = moved.Y
	case OpLeft:
		nw = w - moved.X
	case OpRight:
		nw = moved.X
	case OpLeftTop:
		nw, nh = w-moved.X, h-moved.Y
	case OpRightTop:
		nw, nh = moved.X, h-moved.Y
	case OpLeftBottom:
		nw, nh = w-moved.X, moved.Y
	case OpRightBottom:
		nw, nh = moved.X, moved.Y
	}
	nw, nh = max(nw, 0), max(nh, 0)
	if aspect && op.IsCorner() {
		nw, nh = lockAspect(w, h, nw, nh)
	}

	s.Width, s.Height = nw, nh
	oldFixed := fixedPoint(op, w, h)
	newFixed := fixedPoint(op, nw, nh)
	return pin(snap, s, oldFixed, newFixed)
}

// lockAspect replaces the overshooting axis with the one implied by the
// snapshot ratio. An exact tie takes the width-from-height branch.
func lockAspect(w0, h0, nw, nh float64) (float64, float64) {
	if h0 == 0 || w0 == 0 {
		return nw, nh
	}
	r := w0 / h0
	if nw/nh > r {
		return nw, nw / r
	}
	return nh * r, nh
}

// pin re-solves X/Y of s so that newFixed (in the new local space) lands on
// the parent-space position oldFixed had in the snapshot.
func pin(snap Snapshot, s target.State, oldFixed, newFixed geom.Pt) target.State {
	want := snap.Matrix.Apply(oldFixed)
	at := s
	at.X, at.Y = 0, 0
	got := at.Matrix().Apply(newFixed)
	s.X = want.X - got.X
	s.Y = want.Y - got.Y
	return s
}

// handlePoint is the local position of the dragged handle.
func handlePoint(op Op, w, h float64) geom.Pt {
	switch op {
	case OpTop:
		return geom.P(w/2, 0)
	case OpBottom:
		return geom.P(w/2, h)
	case OpLeft:
		return geom.P(0, h/2)
	case OpRight:
		return geom.P(w, h/2)
	case OpLeftTop:
		return geom.P(0, 0)
	case OpRightTop:
		return geom.P(w, 0)
	case OpLeftBottom:
		return geom.P(0, h)
	case OpRightBottom:
		return geom.P(w, h)
	}
	return geom.Pt{}
}

// fixedPoint is the local point opposite the dragged handle for a target of
// size w x h.
func fixedPoint(op Op, w, h float64) geom.Pt {
	switch op {
	case OpTop:
		return geom.P(w/2, h)
	case OpBottom:
		return geom.P(w/2, 0)
	case OpLeft:
		return geom.P(w, h/2)
	case OpRight:
		return geom.P(0, h/2)
	case OpLeftTop:
		return geom.P(w, h)
	case OpRightTop:
		return geom.P(0, h)
	case OpLeftBottom:
		return geom.P(w, 0)
	case OpRightBottom:
		return geom.P(0, 0)
	}
	return geom.Pt{}
}

// Anchor moves the anchor by delta without moving the rendered object. With
// restrict set the new anchor snaps to the nearest of nine canonical
// positions: the target box is cut into a 3x3 grid of equal cells and each
// cell maps to the fractions 0, 0.5 or 1 on both axes.
func Anchor(snap Snapshot, caps target.Capabilities, delta geom.Pt, restrict bool) target.State {
	s := snap.State
	if !caps.CanSetAnchor || delta.IsZero() {
		return s
	}
	p := snap.Inverse.Apply(snap.Matrix.Apply(s.AnchorPoint()).Add(delta))
	if restrict {
		p = QuantizeAnchor(p, s.Width, s.Height)
	}
	s.AnchorX = p.X / s.SafeWidth()
	s.AnchorY = p.Y / s.SafeHeight()
	np := s.AnchorPoint()
	pos := snap.Matrix.Apply(np)
	s.X, s.Y = pos.X, pos.Y
	return s
}

// QuantizeAnchor snaps a local point to the canonical position of the 3x3
// grid cell containing it. Points outside the box use the nearest cell.
func QuantizeAnchor(p geom.Pt, w, h float64) geom.Pt {
	return geom.P(quantizeAxis(p.X, w), quantizeAxis(p.Y, h))
}

func quantizeAxis(v, size float64) float64 {
	if size <= 0 {
		return 0
	}
	cell := math.Floor(v / (size / 3))
	cell = min(max(cell, 0), 2)
	return cell * 0.5 * size
}

// RotationDelta is the signed sweep in degrees from start to cur around
// pivot, all in the same space. Positive values turn clockwise on a y-down
// screen.
func RotationDelta(pivot, start, cur geom.Pt) float64 {
	a, b := start.Sub(pivot), cur.Sub(pivot)
	if a.IsZero() || b.IsZero() {
		return 0
	}
	return -geom.IncludedAngle(a, b)
}

// Rotate adds delta degrees to the snapshot rotation. restrict rounds the
// result to RotationRestrictStep. Position is not touched: the rotation
// pivots on the anchor, which always sits on (X, Y).
func Rotate(snap Snapshot, caps target.Capabilities, delta float64, restrict bool) target.State {
	s := snap.State
	if !caps.CanRotate || delta == 0 {
		return s
	}
	r := geom.NormalizeDegrees(s.Rotation + delta)
	if restrict {
		r = geom.NormalizeDegrees(geom.RoundTo(r, RotationRestrictStep))
	}
	s.Rotation = r
	return s
}
