/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package target

import (
	"testing"

	"gosceneeditor/internal/bridge"
	"gosceneeditor/internal/commit"
	"gosceneeditor/internal/geom"
)

type canvasElement struct{ off geom.Pt }

func (c *canvasElement) Parent() bridge.Element       { return nil }
func (c *canvasElement) OffsetParent() bridge.Element { return nil }
func (c *canvasElement) Offset() geom.Pt              { return c.off }
func (c *canvasElement) Scroll() geom.Pt              { return geom.Pt{} }
func (c *canvasElement) Transform() geom.Matrix       { return geom.Identity }

type fakeNode struct {
	parent   *fakeNode
	state    State
	caps     Capabilities
	detached bool
	applied  int
}

func (n *fakeNode) StageMatrix() (geom.Matrix, bool) {
	if n.detached {
		return geom.Matrix{}, false
	}
	m := n.state.Matrix()
	if n.parent != nil {
		pm, ok := n.parent.StageMatrix()
		if !ok {
			return geom.Matrix{}, false
		}
		m = m.Concat(pm)
	}
	return m, true
}

func (n *fakeNode) Transform() State           { return n.state }
func (n *fakeNode) ApplyTransform(s State)     { n.state = s; n.applied++ }
func (n *fakeNode) Capabilities() Capabilities { return n.caps }
func (n *fakeNode) ParentObject() bridge.SceneObject {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func TestBindingCommitsThroughQueue(t *testing.T) {
	root := &fakeNode{state: DefaultState(0, 0, 800, 600), caps: AllCapabilities}
	child := &fakeNode{parent: root, state: DefaultState(10, 10, 100, 50), caps: AllCapabilities}
	q := commit.NewQueue()
	b := Bind(child, bridge.New(&canvasElement{off: geom.P(40, 20)}), q)

	s := b.State()
	s.X = 25
	b.SetState(s)
	b.SetState(s)
	if child.applied != 0 || !b.Dirty() {
		t.Fatalf("SetState must not write through before flush")
	}
	if q.Flush() != 1 || child.applied != 1 || child.state.X != 25 {
		t.Fatalf("flush should commit once, applied=%d state=%+v", child.applied, child.state)
	}
	b.SetState(s)
	if b.Dirty() || q.Pending() != 0 {
		t.Fatalf("unchanged state must not mark dirty")
	}
}

func TestBindingMatrices(t *testing.T) {
	root := &fakeNode{state: DefaultState(0, 0, 800, 600), caps: AllCapabilities}
	parent := &fakeNode{parent: root, state: DefaultState(100, 0, 200, 200), caps: AllCapabilities}
	parent.state.ScaleX, parent.state.ScaleY = 2, 2
	child := &fakeNode{parent: parent, state: DefaultState(10, 10, 20, 20), caps: AllCapabilities}
	b := Bind(child, bridge.New(&canvasElement{off: geom.P(40, 20)}), nil)

	toWindow, ok := LocalToWindow(b)
	if !ok {
		t.Fatalf("expected resolvable matrix")
	}
	// (0,0) local -> (10,10) in parent -> (120,20) in root -> (160,40) window
	if p := toWindow.Apply(geom.P(0, 0)); !p.Near(geom.P(160, 40), 1e-9) {
		t.Fatalf("unexpected window point %+v", p)
	}
	stageToParent, ok := b.StageToParentMatrix()
	if !ok {
		t.Fatalf("expected stage-to-parent matrix")
	}
	if p := stageToParent.Apply(geom.P(160, 40)); !p.Near(geom.P(10, 10), 1e-9) {
		t.Fatalf("unexpected parent point %+v", p)
	}

	child.detached = true
	if _, ok := b.StageToParentMatrix(); ok {
		t.Fatalf("detached node must not resolve")
	}
}

func TestRootCapabilities(t *testing.T) {
	root := &fakeNode{state: DefaultState(0, 0, 800, 600), caps: AllCapabilities}
	b := Bind(root, bridge.New(&canvasElement{}), nil)
	c := b.Capabilities()
	if c.CanMove || c.CanRotate || c.CanSetAnchor || !c.CanResize || !c.CanScale {
		t.Fatalf("unexpected root capabilities %+v", c)
	}
}

func TestRefreshDropsPendingEdit(t *testing.T) {
	root := &fakeNode{state: DefaultState(0, 0, 800, 600), caps: AllCapabilities}
	child := &fakeNode{parent: root, state: DefaultState(0, 0, 10, 10), caps: AllCapabilities}
	q := commit.NewQueue()
	b := Bind(child, bridge.New(&canvasElement{}), q)
	s := b.State()
	s.Width = 99
	b.SetState(s)
	child.state.Width = 42
	b.Refresh()
	if q.Pending() != 0 || b.State().Width != 42 {
		t.Fatalf("refresh should reload from node, got %+v pending=%d", b.State(), q.Pending())
	}
}
