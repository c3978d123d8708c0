/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package handle turns pointer and keyboard input on a selected object's
// handles into transform gestures. One Adapter serves one target; adapters of
// the same container replay each other's gestures through the editor's
// bus.Coordinator so a multi-selection moves as one.
package handle

import (
	"log/slog"
	"math"

	"gosceneeditor/internal/bus"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/ids"
	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/solver"
	"gosceneeditor/internal/target"
)

// State of the adapter's gesture machine.
type State int

const (
	Idle State = iota
	Armed
	TransformingSimple
	TransformingRotate
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case TransformingSimple:
		return "transforming-simple"
	case TransformingRotate:
		return "transforming-rotate"
	}
	return "unknown"
}

// Key is an arrow key.
type Key int

const (
	KeyUp Key = iota
	KeyDown
	KeyLeft
	KeyRight
)

var keyNames = [...]string{KeyUp: "up", KeyDown: "down", KeyLeft: "left", KeyRight: "right"}

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return "unknown"
	}
	return keyNames[k]
}

// ParseKey maps "up", "down", "left" and "right" to their Key.
func ParseKey(s string) (Key, bool) {
	for k, name := range keyNames {
		if name == s {
			return Key(k), true
		}
	}
	return 0, false
}

// DefaultSyncOps are the operations an adapter replays from its peers.
// Anchor edits stay local to the object they were made on.
var DefaultSyncOps = []solver.Op{
	solver.OpTop, solver.OpBottom, solver.OpLeft, solver.OpRight,
	solver.OpLeftBottom, solver.OpLeftTop, solver.OpRightBottom, solver.OpRightTop,
	solver.OpMove, solver.OpRotation, solver.OpTack,
}

type refresher interface{ Refresh() }

// Adapter drives one target from its handles.
type Adapter struct {
	id        string
	coord     *bus.Coordinator
	sub       *bus.Subscription
	container string
	target    target.Target
	metrics   Metrics
	syncOps   map[solver.Op]bool
	enabled   bool
	render    bool
	hook      bus.PointHook
	handles   HandleSet
	cursor    Cursor
	log       *slog.Logger
	poolIndex int

	// current gesture
	state    State
	op       solver.Op
	mode     Mode
	modifier bool
	start    geom.Pt
	grip     geom.Pt
	pivot    geom.Pt
	snap     solver.Snapshot
	gesture  string
	keyboard bool
	keyTotal geom.Pt

	// peer gesture being replayed
	syncing bool
}

// NewAdapter returns a detached adapter; Attach binds it to a target.
func NewAdapter(c *bus.Coordinator, m Metrics) *Adapter {
	m = m.orDefault()
	a := &Adapter{
		id:        ids.NewAdapterID(),
		coord:     c,
		metrics:   m,
		enabled:   true,
		render:    true,
		handles:   newHandleSet(m),
		poolIndex: -1,
	}
	a.log = applog.WithComponent("handle").With(slog.String("adapter", a.id))
	a.SetSyncOps(DefaultSyncOps)
	return a
}

// Attach binds the adapter to t inside container and subscribes it to the
// coordinator. Attaching an attached adapter rebinds it.
func (a *Adapter) Attach(t target.Target, container string) {
	a.Detach()
	a.target = t
	a.container = container
	a.sub = a.coord.Subscribe(a, 0)
	a.layout()
}

// Detach ends any gesture, unsubscribes and drops the target.
func (a *Adapter) Detach() {
	if a.target != nil {
		a.StopTransform()
	}
	a.sub.Remove()
	a.sub = nil
	a.target = nil
	a.container = ""
	a.hook = nil
	a.cursor = CursorDefault
	a.reset()
}

func (a *Adapter) ID() string            { return a.id }
func (a *Adapter) Target() target.Target { return a.target }
func (a *Adapter) Container() string     { return a.container }
func (a *Adapter) State() State          { return a.state }
func (a *Adapter) Handles() HandleSet    { return a.handles }
func (a *Adapter) Cursor() Cursor        { return a.cursor }
func (a *Adapter) Attached() bool        { return a.target != nil }

// SetPointHook installs h to adjust window points before they are solved;
// nil removes it.
func (a *Adapter) SetPointHook(h bus.PointHook) { a.hook = h }

// Enable toggles input handling. Disabling drops the cursor.
func (a *Adapter) Enable(v bool) {
	a.enabled = v
	if !v {
		a.cursor = CursorDefault
	}
}

func (a *Adapter) Enabled() bool { return a.enabled }

// SetRenderPoints shows or hides the resize and anchor handles. The body and
// the tack stay active.
func (a *Adapter) SetRenderPoints(v bool) {
	if a.render == v {
		return
	}
	a.render = v
	a.handles.renderAll = v
	a.handles.updateVisibility()
}

// SetSyncOps replaces the operations replayed from peers.
func (a *Adapter) SetSyncOps(ops []solver.Op) {
	a.syncOps = make(map[solver.Op]bool, len(ops))
	for _, op := range ops {
		a.syncOps[op] = true
	}
}

// Refresh reloads the target after an external change and re-lays-out the
// handles. It is ignored while a gesture is running.
func (a *Adapter) Refresh() {
	if a.target == nil || a.state != Idle || a.keyboard || a.syncing {
		return
	}
	if r, ok := a.target.(refresher); ok {
		r.Refresh()
	}
	a.layout()
}

func (a *Adapter) layout() {
	if a.target == nil {
		return
	}
	m, ok := target.LocalToWindow(a.target)
	if !ok {
		return
	}
	s := a.target.State()
	a.handles.layout(m, s.Width, s.Height, s.AnchorPoint())
}

func (a *Adapter) reset() {
	a.state = Idle
	a.op = ""
	a.mode = ModeNone
	a.modifier = false
	a.gesture = ""
	a.keyboard = false
	a.keyTotal = geom.Pt{}
	a.syncing = false
}

func (a *Adapter) publish(e bus.Event) {
	e.Container = a.container
	e.Gesture = a.gesture
	e.Origin = a
	a.coord.Publish(e)
}

// PointerDown arms a gesture when p hits an active handle. mod is the
// modifier held at press time: aspect lock, 45° rotation steps, anchor grid
// or axis lock depending on the operation.
func (a *Adapter) PointerDown(p geom.Pt, mod bool) bool {
	if !a.enabled || a.target == nil || a.state != Idle {
		return false
	}
	if a.keyboard {
		a.StopTransform()
	}
	op, ok := a.handles.HitTest(p)
	if !ok {
		return false
	}
	mode := a.handles.OperateMode(op, p)
	if mode == ModeNone {
		return false
	}
	if mode == ModeRotate {
		a.op = solver.OpRotation
	} else {
		a.op = op
	}
	a.state = Armed
	a.mode = mode
	a.modifier = mod
	a.start = p
	h, _ := a.handles.Get(op)
	a.grip = h.Pos
	anchor, _ := a.handles.Get(solver.OpAnchor)
	a.pivot = anchor.Pos
	a.snap = solver.Take(a.target.State())
	a.cursor = CursorFor(op, mode, a.target.State().Rotation)
	return true
}

// PointerMove advances an armed or running gesture. Travel up to the move
// threshold on both axes is ignored.
func (a *Adapter) PointerMove(p geom.Pt) {
	if a.state == Idle || a.target == nil {
		return
	}
	if math.Abs(p.X-a.start.X) <= a.metrics.MoveThreshold && math.Abs(p.Y-a.start.Y) <= a.metrics.MoveThreshold {
		return
	}
	if a.state == Armed {
		a.begin()
	}
	if a.state == TransformingRotate {
		if _, ok := a.target.StageToParentMatrix(); !ok {
			a.log.Debug("target lost, aborting gesture", slog.String("op", string(a.op)), slog.String("gesture", a.gesture))
			a.end()
			return
		}
		delta := solver.RotationDelta(a.pivot, a.start, p)
		a.apply(solver.Rotate(a.snap, a.target.Capabilities(), delta, a.modifier))
		a.publish(bus.Event{Phase: bus.Update, Op: a.op, Modifier: a.modifier, Rotation: delta, Restrict: a.modifier})
		return
	}

	a.publish(bus.Event{Phase: bus.BeginUpdate, Op: a.op, Modifier: a.modifier, Pointer: p})
	np := p
	if a.hook != nil {
		np = a.hook.AdjustPoint(np)
	}
	if a.op.IsMove() && a.modifier {
		np = lockAxis(a.start, np)
	}
	m, ok := a.target.StageToParentMatrix()
	if !ok {
		a.log.Debug("target lost, aborting gesture", slog.String("op", string(a.op)), slog.String("gesture", a.gesture))
		a.end()
		return
	}
	delta := m.Apply(np).Sub(m.Apply(a.start))
	a.apply(solver.Apply(a.snap, a.target.Capabilities(), a.op, delta, a.modifier))
	a.publish(bus.Event{Phase: bus.Update, Op: a.op, Modifier: a.modifier, Start: a.start, End: np})
}

// PointerUp finishes the gesture. A press that never passed the move
// threshold ends silently.
func (a *Adapter) PointerUp(geom.Pt) {
	switch a.state {
	case Idle:
		return
	case Armed:
		a.reset()
		a.cursor = CursorDefault
		return
	}
	a.end()
}

func (a *Adapter) begin() {
	a.gesture = ids.NewGestureID()
	if a.mode == ModeRotate {
		a.state = TransformingRotate
	} else {
		a.state = TransformingSimple
	}
	a.log.Debug("gesture begin", slog.String("op", string(a.op)), slog.String("gesture", a.gesture))
	a.publish(bus.Event{
		Phase:    bus.Begin,
		Op:       a.op,
		Modifier: a.modifier,
		Pointer:  a.start,
		Handle:   a.grip,
		Bounds:   a.handles.Bounds(),
	})
}

func (a *Adapter) end() {
	op, kb := a.op, a.keyboard
	a.log.Debug("gesture end", slog.String("op", string(op)), slog.String("gesture", a.gesture))
	a.publish(bus.Event{Phase: bus.End, Op: op, Keyboard: kb})
	a.reset()
	a.cursor = CursorDefault
	a.layout()
}

func (a *Adapter) apply(s target.State) {
	a.target.SetState(s)
	a.layout()
}

// lockAxis keeps the dominant axis of the drag from start to p.
func lockAxis(start, p geom.Pt) geom.Pt {
	if math.Abs(p.X-start.X) > math.Abs(p.Y-start.Y) {
		p.Y = start.Y
	} else {
		p.X = start.X
	}
	return p
}

// KeyDown nudges the target by one step (fast: the large step). Presses
// accumulate into one keyboard gesture until StopTransform.
func (a *Adapter) KeyDown(k Key, fast bool) bool {
	if !a.enabled || a.target == nil || a.state != Idle {
		return false
	}
	step := a.metrics.KeyStep
	if fast {
		step = a.metrics.FastKeyStep
	}
	var v geom.Pt
	switch k {
	case KeyUp:
		v = geom.P(0, -step)
	case KeyDown:
		v = geom.P(0, step)
	case KeyLeft:
		v = geom.P(-step, 0)
	case KeyRight:
		v = geom.P(step, 0)
	default:
		return false
	}
	if !a.keyboard {
		a.keyboard = true
		a.op = solver.OpMove
		a.modifier = fast
		a.keyTotal = geom.Pt{}
		a.snap = solver.Take(a.target.State())
		a.gesture = ids.NewGestureID()
		a.publish(bus.Event{Phase: bus.Begin, Op: solver.OpMove, Keyboard: true, Modifier: fast})
	}
	a.keyTotal = a.keyTotal.Add(v)
	m, ok := a.target.StageToParentMatrix()
	if !ok {
		a.end()
		return false
	}
	delta := m.Apply(a.keyTotal).Sub(m.Apply(geom.Pt{}))
	a.apply(solver.Move(a.snap, a.target.Capabilities(), delta))
	a.publish(bus.Event{Phase: bus.Update, Op: solver.OpMove, Keyboard: true, Modifier: a.modifier, Start: geom.Pt{}, End: a.keyTotal})
	return true
}

// StopTransform ends the running keyboard or pointer gesture, if any.
func (a *Adapter) StopTransform() {
	if a.keyboard || a.state == TransformingSimple || a.state == TransformingRotate {
		a.end()
		return
	}
	if a.state == Armed {
		a.reset()
	}
}

// Hover updates and returns the cursor for a pointer resting at p. The
// cursor is locked while a gesture is armed or running.
func (a *Adapter) Hover(p geom.Pt) Cursor {
	if !a.enabled || !a.render || a.target == nil {
		return CursorDefault
	}
	if a.state != Idle {
		return a.cursor
	}
	op, ok := a.handles.HitTest(p)
	if !ok {
		a.cursor = CursorDefault
		return a.cursor
	}
	a.cursor = CursorFor(op, a.handles.OperateMode(op, p), a.target.State().Rotation)
	return a.cursor
}

// HandleTransform replays a peer's gesture on this adapter's target.
func (a *Adapter) HandleTransform(e bus.Event) {
	if a.target == nil || e.Container != a.container {
		return
	}
	if src, ok := e.Origin.(*Adapter); ok && src == a {
		return
	}
	switch e.Phase {
	case bus.Begin:
		a.snap = solver.Take(a.target.State())
		a.syncing = true
	case bus.Update:
		if !a.syncing || !a.syncOps[e.Op] {
			return
		}
		caps := a.target.Capabilities()
		if e.Op == solver.OpRotation {
			a.apply(solver.Rotate(a.snap, caps, e.Rotation, e.Restrict))
			return
		}
		m, ok := a.target.StageToParentMatrix()
		if !ok {
			return
		}
		delta := m.Apply(e.End).Sub(m.Apply(e.Start))
		a.apply(solver.Apply(a.snap, caps, e.Op, delta, e.Modifier))
	case bus.End:
		a.syncing = false
		a.layout()
	}
}
