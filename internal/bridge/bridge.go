/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bridge maps points between the two coordinate universes of the
// editor: the overlay presentation tree (handles, guides, the host canvas
// element) and the scene graph rendered inside that canvas. Both are reduced
// to a single window space; nothing else in the engine converts between them.
package bridge

import "gosceneeditor/internal/geom"

// Element is a node of the overlay presentation tree.
type Element interface {
	// Parent is the structural parent, nil at the root.
	Parent() Element
	// OffsetParent is the positioning reference Offset is measured from.
	OffsetParent() Element
	// Offset is the layout position inside OffsetParent.
	Offset() geom.Pt
	// Scroll is the element's own scroll position (content shifted by -Scroll).
	Scroll() geom.Pt
	// Transform is the element's declared local transform.
	Transform() geom.Matrix
}

// SceneObject is an object living in the separately rendered scene graph.
type SceneObject interface {
	// StageMatrix maps object-local points into the scene root. ok is false
	// when the object is no longer attached to a scene.
	StageMatrix() (m geom.Matrix, ok bool)
}

// ownMatrix is the element's declared transform followed by its layout offset.
func ownMatrix(el Element) geom.Matrix {
	off := el.Offset()
	return el.Transform().Translate(off.X, off.Y)
}

// ElementToWindow returns the cumulative matrix from el's local space into
// window space. Ancestors contribute only when they are the positioning
// reference of the node below them; a non-zero scroll on such an ancestor adds
// a correcting translation before the ancestor's own matrix.
func ElementToWindow(el Element) geom.Matrix {
	if el == nil {
		return geom.Identity
	}
	m := ownMatrix(el)
	cur := el
	for p := cur.Parent(); p != nil; cur, p = p, p.Parent() {
		if !sameElement(p, cur.OffsetParent()) {
			continue
		}
		if s := p.Scroll(); !s.IsZero() {
			m = m.Translate(-s.X, -s.Y)
		}
		m = m.Concat(ownMatrix(p))
	}
	return m
}

func sameElement(a, b Element) bool {
	if a == nil || b == nil {
		return false
	}
	return a == b
}

// ElementLocalToGlobal maps a point from el's local space into window space.
func ElementLocalToGlobal(el Element, p geom.Pt) geom.Pt {
	return ElementToWindow(el).Apply(p)
}

// ElementGlobalToLocal maps a window point into el's local space.
func ElementGlobalToLocal(el Element, p geom.Pt) geom.Pt {
	return ElementToWindow(el).Invert().Apply(p)
}

// Bridge unifies one scene graph host with the overlay tree. Canvas is the
// overlay element the scene graph is rendered into.
type Bridge struct {
	canvas Element
}

func New(canvas Element) *Bridge { return &Bridge{canvas: canvas} }

func (b *Bridge) Canvas() Element { return b.canvas }

// CanvasToWindow maps scene-root coordinates into window space.
func (b *Bridge) CanvasToWindow() geom.Matrix { return ElementToWindow(b.canvas) }

// ObjectToWindow returns the single object-local to window matrix of o.
// ok is false when o is nil or detached.
func (b *Bridge) ObjectToWindow(o SceneObject) (geom.Matrix, bool) {
	if o == nil {
		return geom.Matrix{}, false
	}
	m, ok := o.StageMatrix()
	if !ok {
		return geom.Matrix{}, false
	}
	return m.Concat(b.CanvasToWindow()), true
}

// WindowToObject is the inverse of ObjectToWindow.
func (b *Bridge) WindowToObject(o SceneObject) (geom.Matrix, bool) {
	m, ok := b.ObjectToWindow(o)
	if !ok {
		return geom.Matrix{}, false
	}
	return m.Invert(), true
}

func (b *Bridge) LocalToGlobal(o SceneObject, p geom.Pt) (geom.Pt, bool) {
	m, ok := b.ObjectToWindow(o)
	if !ok {
		return geom.Pt{}, false
	}
	return m.Apply(p), true
}

func (b *Bridge) GlobalToLocal(o SceneObject, p geom.Pt) (geom.Pt, bool) {
	m, ok := b.WindowToObject(o)
	if !ok {
		return geom.Pt{}, false
	}
	return m.Apply(p), true
}
