/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snap

import (
	"log/slog"
	"reflect"

	"gosceneeditor/internal/bus"
	"gosceneeditor/internal/geom"
	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/solver"
)

// Priority of the Absorber subscription; it must see every gesture step
// before the adapters replay it.
const Priority = 1000

// Absorber snaps pointer drags to alignment lines. It listens on the editor
// coordinator and installs itself as point hook on the adapter driving a
// move or corner resize.
type Absorber struct {
	engine    Engine
	tolerance float64
	enabled   bool
	providers []LineProvider
	sub       *bus.Subscription
	log       *slog.Logger

	// per gesture
	op           solver.Op
	origin       bus.Source
	renderOffset geom.Pt
	bounds       geom.Rect
	boundsOffset geom.Pt
	results      []Result
}

// NewAbsorber subscribes a new Absorber to c. A non-positive tolerance
// selects DefaultTolerance.
func NewAbsorber(c *bus.Coordinator, tolerance float64) *Absorber {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	a := &Absorber{tolerance: tolerance, enabled: true, log: applog.WithComponent("snap")}
	a.sub = c.Subscribe(a, Priority)
	return a
}

// AddProvider registers a base line source. Adding the same comparable
// provider twice has no effect.
func (a *Absorber) AddProvider(p LineProvider) {
	if p == nil {
		return
	}
	if reflect.TypeOf(p).Comparable() {
		for _, x := range a.providers {
			if reflect.TypeOf(x) == reflect.TypeOf(p) && x == p {
				return
			}
		}
	}
	a.providers = append(a.providers, p)
}

func (a *Absorber) SetEnabled(v bool) { a.enabled = v }
func (a *Absorber) Enabled() bool     { return a.enabled }

// Close unsubscribes from the coordinator and drops any hook.
func (a *Absorber) Close() {
	a.sub.Remove()
	a.reset()
}

// Results returns the matches of the last move.
func (a *Absorber) Results() []Result { return a.results }

// Guides returns the guide segments of the last move.
func (a *Absorber) Guides() []Guide {
	if len(a.results) == 0 {
		return nil
	}
	out := make([]Guide, 0, len(a.results))
	for _, r := range a.results {
		out = append(out, r.Guide())
	}
	return out
}

func snaps(op solver.Op) bool { return op.IsCorner() || op.IsMove() }

func (a *Absorber) HandleTransform(e bus.Event) {
	if !a.enabled || e.Keyboard || !snaps(e.Op) {
		return
	}
	switch e.Phase {
	case bus.Begin:
		a.reset()
		a.op = e.Op
		a.origin = e.Origin
		a.renderOffset = e.Pointer.Sub(e.Handle)
		a.bounds = e.Bounds
		a.boundsOffset = e.Pointer.Sub(e.Bounds.Min())
		var base []Line
		for _, p := range a.providers {
			base = append(base, p.SnapLines()...)
		}
		a.engine.SetUp(base, a.tolerance)
		a.log.Debug("snap base lines", slog.Int("count", len(base)), slog.String("op", string(e.Op)))
	case bus.BeginUpdate:
		if a.origin == nil {
			return
		}
		a.results = a.engine.Absorb(a.targetLines(e.Pointer))
		a.origin.SetPointHook(a)
	case bus.End:
		a.reset()
	}
}

// targetLines builds the candidate lines for the pointer at p: the dragged
// handle position for a corner, the six AABB lines for a move.
func (a *Absorber) targetLines(p geom.Pt) []Line {
	if a.op.IsCorner() {
		h := p.Sub(a.renderOffset)
		hl := HLine(h.Y, h.X, h.X)
		hl.Offset = a.renderOffset.Y
		vl := VLine(h.X, h.Y, h.Y)
		vl.Offset = a.renderOffset.X
		return []Line{hl, vl}
	}
	r := a.bounds
	r.X, r.Y = p.X-a.boundsOffset.X, p.Y-a.boundsOffset.Y
	lines := RectLines(r)
	for i := range lines {
		l := &lines[i]
		if l.Orientation == Horizontal {
			l.Offset = p.Y - l.Value
		} else {
			l.Offset = p.X - l.Value
		}
	}
	return lines
}

// AdjustPoint implements bus.PointHook: each matched axis of p moves onto
// its base line plus the captured offset. Later matches on the same axis
// override earlier ones.
func (a *Absorber) AdjustPoint(p geom.Pt) geom.Pt {
	for _, r := range a.results {
		if r.Target.Orientation == Horizontal {
			p.Y = r.Base.Value + r.Target.Offset
		} else {
			p.X = r.Base.Value + r.Target.Offset
		}
	}
	return p
}

func (a *Absorber) reset() {
	if a.origin != nil {
		a.origin.SetPointHook(nil)
	}
	a.origin = nil
	a.results = nil
	a.op = ""
}
