/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package target

import (
	"gosceneeditor/internal/bridge"
	"gosceneeditor/internal/commit"
	"gosceneeditor/internal/geom"
)

// Node is the external scene node model a Binding edits.
type Node interface {
	bridge.SceneObject
	Transform() State
	ApplyTransform(State)
	Capabilities() Capabilities
	// ParentObject is the scene parent, nil for the scene root.
	ParentObject() bridge.SceneObject
}

// Transformable is the editing copy of a node's transform. Writes land here
// first and reach the node on the next commit.
type Transformable struct {
	state State
	dirty bool
}

func (t *Transformable) State() State { return t.state }
func (t *Transformable) Dirty() bool  { return t.dirty }

func (t *Transformable) set(s State) {
	if s == t.state {
		return
	}
	t.state = s
	t.dirty = true
}

// Binding combines a scene node reference with a Transformable value and
// implements Target on top of the coordinate bridge.
type Binding struct {
	node   Node
	bridge *bridge.Bridge
	queue  *commit.Queue
	value  Transformable
}

// Bind wraps n. queue may be nil, in which case Commit must be called by hand.
func Bind(n Node, b *bridge.Bridge, queue *commit.Queue) *Binding {
	bd := &Binding{node: n, bridge: b, queue: queue}
	bd.value.state = n.Transform()
	return bd
}

func (b *Binding) Node() Node { return b.node }

// IsRoot reports whether the bound node is the scene root.
func (b *Binding) IsRoot() bool { return b.node.ParentObject() == nil }

func (b *Binding) State() State { return b.value.state }

// SetState updates the editing copy and schedules a commit.
func (b *Binding) SetState(s State) {
	b.value.set(s)
	if b.value.dirty && b.queue != nil {
		b.queue.Mark(b)
	}
}

func (b *Binding) Capabilities() Capabilities {
	c := b.node.Capabilities()
	if b.IsRoot() {
		return c.RootCapabilities()
	}
	return c
}

func (b *Binding) Matrix() geom.Matrix { return b.value.state.Matrix() }

func (b *Binding) StageToParentMatrix() (geom.Matrix, bool) {
	m, ok := b.parentToWindow()
	if !ok {
		return geom.Matrix{}, false
	}
	return m.InvertOK()
}

func (b *Binding) parentToWindow() (geom.Matrix, bool) {
	if _, ok := b.node.StageMatrix(); !ok {
		return geom.Matrix{}, false
	}
	parent := b.node.ParentObject()
	if parent == nil {
		return b.bridge.CanvasToWindow(), true
	}
	return b.bridge.ObjectToWindow(parent)
}

// LocalToWindow maps the bound node's local space into window space using
// the editing copy rather than the committed node state.
func (b *Binding) LocalToWindow() (geom.Matrix, bool) {
	p, ok := b.parentToWindow()
	if !ok {
		return geom.Matrix{}, false
	}
	return b.Matrix().Concat(p), true
}

// Commit writes the editing copy to the node when it changed.
func (b *Binding) Commit() {
	if !b.value.dirty {
		return
	}
	b.value.dirty = false
	b.node.ApplyTransform(b.value.state)
}

// Refresh reloads the node's state, discarding uncommitted edits. Used when
// the node changed from outside the editor.
func (b *Binding) Refresh() {
	if b.queue != nil {
		b.queue.Drop(b)
	}
	b.value = Transformable{state: b.node.Transform()}
}

// Dirty reports whether edits wait for a commit.
func (b *Binding) Dirty() bool { return b.value.dirty }
