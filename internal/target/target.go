/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package target defines what the handle machinery can manipulate: a State of
// editable transform fields, the Capabilities gating each operation, and the
// Target contract combining both with the matrices the adapter needs.
package target

import "gosceneeditor/internal/geom"

// State holds the editable transform fields of a selectable object.
// Angles are degrees, the anchor is normalized to 0..1 of Width/Height.
type State struct {
	X, Y     float64
	Width    float64
	Height   float64
	Rotation float64
	AnchorX  float64
	AnchorY  float64
	ScaleX   float64
	ScaleY   float64
	SkewX    float64
	SkewY    float64
}

// DefaultState is an unrotated, unscaled state of the given size.
func DefaultState(x, y, w, h float64) State {
	return State{X: x, Y: y, Width: w, Height: h, ScaleX: 1, ScaleY: 1}
}

func (s State) Components() geom.Components {
	return geom.Components{
		X: s.X, Y: s.Y,
		Width: s.Width, Height: s.Height,
		AnchorX: s.AnchorX, AnchorY: s.AnchorY,
		ScaleX: s.ScaleX, ScaleY: s.ScaleY,
		SkewX: s.SkewX, SkewY: s.SkewY,
		Rotation: s.Rotation,
	}
}

// Matrix is the local-to-parent matrix described by s.
func (s State) Matrix() geom.Matrix { return geom.Compose(s.Components()) }

// SafeWidth and SafeHeight clamp the size to at least 1 for fraction math.
func (s State) SafeWidth() float64  { return max(s.Width, 1) }
func (s State) SafeHeight() float64 { return max(s.Height, 1) }

// AnchorPoint is the anchor in local coordinates.
func (s State) AnchorPoint() geom.Pt { return geom.P(s.Width*s.AnchorX, s.Height*s.AnchorY) }

// Corners returns the local corners in the order left-top, right-top,
// right-bottom, left-bottom.
func (s State) Corners() [4]geom.Pt {
	return [4]geom.Pt{{X: 0, Y: 0}, {X: s.Width, Y: 0}, {X: s.Width, Y: s.Height}, {X: 0, Y: s.Height}}
}

// Capabilities gate the operations a handle drag may perform.
type Capabilities struct {
	CanMove      bool
	CanResize    bool
	CanScale     bool
	CanRotate    bool
	CanSetAnchor bool
}

var AllCapabilities = Capabilities{CanMove: true, CanResize: true, CanScale: true, CanRotate: true, CanSetAnchor: true}

// RootCapabilities strips what the scene root may never do: it cannot leave
// the origin, turn, or move its anchor.
func (c Capabilities) RootCapabilities() Capabilities {
	c.CanMove = false
	c.CanRotate = false
	c.CanSetAnchor = false
	return c
}

// Target is the contract a selectable object exposes to a handle adapter.
type Target interface {
	State() State
	SetState(State)
	Capabilities() Capabilities
	// Matrix maps local points into the parent space.
	Matrix() geom.Matrix
	// StageToParentMatrix maps window points into the parent space. ok is
	// false when the target can no longer be resolved, e.g. it was removed
	// from the scene mid-gesture.
	StageToParentMatrix() (m geom.Matrix, ok bool)
}

type windowMapper interface {
	LocalToWindow() (geom.Matrix, bool)
}

// LocalToWindow combines the target's own matrix with its parent's window
// placement.
func LocalToWindow(t Target) (geom.Matrix, bool) {
	if w, ok := t.(windowMapper); ok {
		return w.LocalToWindow()
	}
	toParent, ok := t.StageToParentMatrix()
	if !ok {
		return geom.Matrix{}, false
	}
	return t.Matrix().Concat(toParent.Invert()), true
}
