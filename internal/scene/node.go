/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene is an in-memory scene graph for the CLI, the UI host and
// tests. Nodes implement target.Node and the overlay Elements implement
// bridge.Element, so the editor core can run against it unchanged.
package scene

import (
	"errors"
	"fmt"

	"gosceneeditor/internal/bridge"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/selection"
	"gosceneeditor/internal/target"
)

var (
	ErrDuplicateID = errors.New("duplicate node id")
	ErrNotFound    = errors.New("node not found")
)

// Node is one scene object. The root has no parent; every other node is
// reachable from it until removed.
type Node struct {
	ID         string
	Name       string
	Selectable bool

	parent   *Node
	children []*Node
	state    target.State
	caps     target.Capabilities
	attached bool
	applied  int
}

// NewNode returns a detached node with the given state.
func NewNode(id string, s target.State) *Node {
	return &Node{ID: id, Selectable: true, state: s, caps: target.AllCapabilities}
}

func (n *Node) Transform() target.State { return n.state }

// ApplyTransform is the commit sink of the editor.
func (n *Node) ApplyTransform(s target.State) {
	n.state = s
	n.applied++
}

// Applied counts commits received from the editor.
func (n *Node) Applied() int { return n.applied }

// SetTransform changes the node from outside the editor.
func (n *Node) SetTransform(s target.State) { n.state = s }

func (n *Node) Capabilities() target.Capabilities     { return n.caps }
func (n *Node) SetCapabilities(c target.Capabilities) { n.caps = c }

// ParentObject returns the scene parent or nil for the root and detached
// nodes.
func (n *Node) ParentObject() bridge.SceneObject {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) Children() []*Node { return n.children }
func (n *Node) Attached() bool    { return n.attached }

// StageMatrix maps local points into stage space, the space the canvas
// element displays. ok is false once the node left the scene.
func (n *Node) StageMatrix() (geom.Matrix, bool) {
	if !n.attached {
		return geom.Matrix{}, false
	}
	m := n.state.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = m.Concat(p.state.Matrix())
	}
	return m, true
}

// Path returns the sibling indices from the root down to n.
func (n *Node) Path() selection.Path {
	var rev []int
	for c := n; c.parent != nil; c = c.parent {
		for i, s := range c.parent.children {
			if s == c {
				rev = append(rev, i)
				break
			}
		}
	}
	p := make(selection.Path, len(rev))
	for i := range rev {
		p[i] = rev[len(rev)-1-i]
	}
	return p
}

func (n *Node) setAttached(v bool) {
	n.attached = v
	for _, c := range n.children {
		c.setAttached(v)
	}
}

// Scene owns a root node and an id index.
type Scene struct {
	Root  *Node
	index map[string]*Node
}

// New creates a scene whose root spans w×h stage units.
func New(rootID string, w, h float64) *Scene {
	root := NewNode(rootID, target.DefaultState(0, 0, w, h))
	root.attached = true
	return &Scene{Root: root, index: map[string]*Node{rootID: root}}
}

// Add appends c and its subtree under parent.
func (s *Scene) Add(parent, c *Node) error {
	if parent == nil || !parent.attached {
		return fmt.Errorf("add %q: %w", c.ID, ErrNotFound)
	}
	var ids []string
	walk(c, func(n *Node) { ids = append(ids, n.ID) })
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			return fmt.Errorf("add %q: %w", id, ErrDuplicateID)
		}
	}
	c.parent = parent
	parent.children = append(parent.children, c)
	c.setAttached(true)
	walk(c, func(n *Node) { s.index[n.ID] = n })
	return nil
}

// Remove detaches n and its subtree. The root cannot be removed.
func (s *Scene) Remove(n *Node) {
	if n == nil || n.parent == nil {
		return
	}
	kids := n.parent.children
	for i, c := range kids {
		if c == n {
			n.parent.children = append(kids[:i:i], kids[i+1:]...)
			break
		}
	}
	n.parent = nil
	n.setAttached(false)
	walk(n, func(x *Node) { delete(s.index, x.ID) })
}

// Find looks a node up by id.
func (s *Scene) Find(id string) (*Node, error) {
	n, ok := s.index[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return n, nil
}

// Nodes returns all attached nodes in depth-first paint order.
func (s *Scene) Nodes() []*Node {
	var out []*Node
	walk(s.Root, func(n *Node) { out = append(out, n) })
	return out
}

// Entries flattens the scene into window-space selection entries.
func (s *Scene) Entries(b *bridge.Bridge) []selection.Entry {
	var out []selection.Entry
	for _, n := range s.Nodes() {
		m, ok := b.ObjectToWindow(n)
		if !ok {
			continue
		}
		out = append(out, selection.Entry{
			ID:         n.ID,
			Path:       n.Path(),
			Bounds:     selection.Bounds(m, n.state.Width, n.state.Height),
			Selectable: n.Selectable,
		})
	}
	return out
}

func walk(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		walk(c, fn)
	}
}
