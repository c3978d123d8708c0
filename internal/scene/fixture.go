/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"
	"gosceneeditor/internal/bridge"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/target"
)

//go:embed scene.schema.json
var schemaJSON []byte

//go:embed demo.json
var demoJSON []byte

// ErrInvalidFixture wraps every schema violation reported by Validate.
var ErrInvalidFixture = errors.New("invalid scene fixture")

// Fixture is the JSON description of a scene, the overlay layout that shows
// it and an optional scripted input sequence.
type Fixture struct {
	Version   int       `json:"version"`
	Layout    []BoxSpec `json:"layout,omitempty"`
	Stage     NodeSpec  `json:"stage"`
	Selection []string  `json:"selection,omitempty"`
	Gestures  []Gesture `json:"gestures,omitempty"`
}

// BoxSpec describes one overlay element. Layout lists them from the window
// down; the last one is the canvas.
type BoxSpec struct {
	Name       string     `json:"name"`
	Offset     [2]float64 `json:"offset,omitempty"`
	Scroll     [2]float64 `json:"scroll,omitempty"`
	Transform  string     `json:"transform,omitempty"`
	Positioned *bool      `json:"positioned,omitempty"`
}

type NodeSpec struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	X          float64    `json:"x,omitempty"`
	Y          float64    `json:"y,omitempty"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Rotation   float64    `json:"rotation,omitempty"`
	AnchorX    float64    `json:"anchorX,omitempty"`
	AnchorY    float64    `json:"anchorY,omitempty"`
	ScaleX     *float64   `json:"scaleX,omitempty"`
	ScaleY     *float64   `json:"scaleY,omitempty"`
	SkewX      float64    `json:"skewX,omitempty"`
	SkewY      float64    `json:"skewY,omitempty"`
	Selectable *bool      `json:"selectable,omitempty"`
	Locked     bool       `json:"locked,omitempty"`
	Children   []NodeSpec `json:"children,omitempty"`
}

// State converts the spec into a transform state; scales default to 1.
func (n NodeSpec) State() target.State {
	s := target.DefaultState(n.X, n.Y, n.Width, n.Height)
	s.Rotation = n.Rotation
	s.AnchorX, s.AnchorY = n.AnchorX, n.AnchorY
	s.SkewX, s.SkewY = n.SkewX, n.SkewY
	if n.ScaleX != nil {
		s.ScaleX = *n.ScaleX
	}
	if n.ScaleY != nil {
		s.ScaleY = *n.ScaleY
	}
	return s
}

// Gesture kinds.
const (
	GestureDrag = "drag"
	GestureKey  = "key"
	GestureStop = "stop"
)

// Gesture is one scripted input: a pointer drag from one window point to
// another, a repeated arrow key, or the end of a keyboard gesture.
type Gesture struct {
	Kind     string     `json:"kind"`
	From     [2]float64 `json:"from,omitempty"`
	To       [2]float64 `json:"to,omitempty"`
	Steps    int        `json:"steps,omitempty"`
	Modifier bool       `json:"modifier,omitempty"`
	Key      string     `json:"key,omitempty"`
	Fast     bool       `json:"fast,omitempty"`
	Repeat   int        `json:"repeat,omitempty"`
}

func (g Gesture) FromPt() geom.Pt { return geom.P(g.From[0], g.From[1]) }
func (g Gesture) ToPt() geom.Pt   { return geom.P(g.To[0], g.To[1]) }

// Loaded is a fixture turned into live objects.
type Loaded struct {
	Fixture   Fixture
	Scene     *Scene
	Window    *Element
	Canvas    *Element
	Bridge    *bridge.Bridge
	Selection []*Node
	Raw       []byte
}

// Validate checks data against the embedded fixture schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFixture, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidFixture, strings.Join(msgs, "; "))
}

// LoadFile reads and builds the fixture at path.
func LoadFile(path string) (*Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	l, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Load validates data and builds the scene, the overlay chain and the
// initial selection it describes.
func Load(data []byte) (*Loaded, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	l, err := Build(f)
	if err != nil {
		return nil, err
	}
	l.Raw = append([]byte(nil), data...)
	return l, nil
}

// Demo builds the bundled sample scene.
func Demo() (*Loaded, error) { return Load(demoJSON) }

// Build creates live objects from an already decoded fixture.
func Build(f Fixture) (*Loaded, error) {
	l := &Loaded{Fixture: f}

	layout := f.Layout
	if len(layout) == 0 {
		layout = []BoxSpec{{Name: "canvas"}}
	}
	var prev *Element
	for _, b := range layout {
		el := NewElement(b.Name, geom.P(b.Offset[0], b.Offset[1]))
		el.Scrl = geom.P(b.Scroll[0], b.Scroll[1])
		if b.Positioned != nil {
			el.Positioned = *b.Positioned
		}
		if b.Transform != "" {
			if err := el.SetCSSTransform(b.Transform); err != nil {
				return nil, fmt.Errorf("layout: %w", err)
			}
		}
		if prev == nil {
			l.Window = el
		} else {
			prev.Append(el)
		}
		prev = el
	}
	l.Canvas = prev
	l.Bridge = bridge.New(l.Canvas)

	st := f.Stage
	l.Scene = New(st.ID, st.Width, st.Height)
	configure(l.Scene.Root, st)
	for _, c := range st.Children {
		if err := addSpec(l.Scene, l.Scene.Root, c); err != nil {
			return nil, err
		}
	}

	for _, id := range f.Selection {
		n, err := l.Scene.Find(id)
		if err != nil {
			return nil, fmt.Errorf("selection: %w", err)
		}
		l.Selection = append(l.Selection, n)
	}
	return l, nil
}

func configure(n *Node, spec NodeSpec) {
	n.Name = spec.Name
	n.state = spec.State()
	if spec.Selectable != nil {
		n.Selectable = *spec.Selectable
	}
	if spec.Locked {
		n.caps = target.Capabilities{}
	}
}

func addSpec(s *Scene, parent *Node, spec NodeSpec) error {
	n := NewNode(spec.ID, spec.State())
	configure(n, spec)
	if err := s.Add(parent, n); err != nil {
		return err
	}
	for _, c := range spec.Children {
		if err := addSpec(s, n, c); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot describes the current scene state as a fixture stage tree, e.g.
// to print the result of a scripted run.
func (s *Scene) Snapshot() NodeSpec { return snapshotNode(s.Root) }

// Current returns the fixture with the stage replaced by the live scene and
// the scripted gestures dropped, ready to be saved and loaded again.
func (l *Loaded) Current() Fixture {
	f := l.Fixture
	f.Stage = l.Scene.Snapshot()
	f.Gestures = nil
	return f
}

func snapshotNode(n *Node) NodeSpec {
	st := n.state
	sx, sy := st.ScaleX, st.ScaleY
	sel := n.Selectable
	spec := NodeSpec{
		ID: n.ID, Name: n.Name,
		X: st.X, Y: st.Y, Width: st.Width, Height: st.Height,
		Rotation: st.Rotation, AnchorX: st.AnchorX, AnchorY: st.AnchorY,
		ScaleX: &sx, ScaleY: &sy, SkewX: st.SkewX, SkewY: st.SkewY,
		Selectable: &sel,
		Locked:     n.caps == target.Capabilities{},
	}
	for _, c := range n.children {
		spec.Children = append(spec.Children, snapshotNode(c))
	}
	return spec
}
