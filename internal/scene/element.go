/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"fmt"

	"gosceneeditor/internal/bridge"
	"gosceneeditor/internal/geom"
)

// Element is a box of the editor's overlay layout: the panels, scrollers and
// zoom wrappers between the window and the canvas that shows the stage.
type Element struct {
	Name   string
	Pos    geom.Pt
	Scrl   geom.Pt
	Matrix geom.Matrix
	// Positioned marks the element as positioning reference for its
	// children. Unpositioned elements are skipped by the offset chain.
	Positioned bool

	parent *Element
}

// NewElement returns a positioned element at pos with an identity transform.
func NewElement(name string, pos geom.Pt) *Element {
	return &Element{Name: name, Pos: pos, Matrix: geom.Identity, Positioned: true}
}

// Append makes c a child of e and returns c.
func (e *Element) Append(c *Element) *Element {
	c.parent = e
	return c
}

// SetCSSTransform sets the declared transform from a CSS transform list.
func (e *Element) SetCSSTransform(css string) error {
	m, err := bridge.ParseCSSTransform(css)
	if err != nil {
		return fmt.Errorf("element %q: %w", e.Name, err)
	}
	e.Matrix = m
	return nil
}

func (e *Element) Parent() bridge.Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// OffsetParent is the nearest positioned ancestor.
func (e *Element) OffsetParent() bridge.Element {
	for p := e.parent; p != nil; p = p.parent {
		if p.Positioned {
			return p
		}
	}
	return nil
}

func (e *Element) Offset() geom.Pt        { return e.Pos }
func (e *Element) Scroll() geom.Pt        { return e.Scrl }
func (e *Element) Transform() geom.Matrix { return e.Matrix }
