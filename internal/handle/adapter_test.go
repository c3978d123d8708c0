/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package handle

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"gosceneeditor/internal/bus"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/solver"
	"gosceneeditor/internal/target"
)

// fakeTarget lives in a parent whose parent-to-window matrix is toWindow.
type fakeTarget struct {
	s        target.State
	caps     target.Capabilities
	toWindow geom.Matrix
	lost     bool
	sets     int
}

func newFake(s target.State) *fakeTarget {
	return &fakeTarget{s: s, caps: target.AllCapabilities, toWindow: geom.Identity}
}

func (f *fakeTarget) State() target.State                      { return f.s }
func (f *fakeTarget) SetState(s target.State)                  { f.s = s; f.sets++ }
func (f *fakeTarget) Capabilities() target.Capabilities        { return f.caps }
func (f *fakeTarget) Matrix() geom.Matrix                      { return f.s.Matrix() }
func (f *fakeTarget) StageToParentMatrix() (geom.Matrix, bool) { return f.toWindow.Invert(), !f.lost }

// centered is a 100x50 box with its anchor in the middle, spanning
// (100,100)-(200,150) in window space.
func centered() target.State {
	s := target.DefaultState(150, 125, 100, 50)
	s.AnchorX, s.AnchorY = 0.5, 0.5
	return s
}

type recorder struct{ events []bus.Event }

func (r *recorder) HandleTransform(e bus.Event) { r.events = append(r.events, e) }

func (r *recorder) phases() []bus.Phase {
	var out []bus.Phase
	for _, e := range r.events {
		out = append(out, e.Phase)
	}
	return out
}

func setup(t *testing.T, s target.State) (*bus.Coordinator, *Adapter, *fakeTarget, *recorder) {
	t.Helper()
	c := bus.NewCoordinator()
	rec := &recorder{}
	c.Subscribe(rec, -10)
	ft := newFake(s)
	a := NewAdapter(c, Metrics{})
	a.Attach(ft, "stage")
	return c, a, ft, rec
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestHitTestOrderAndModes(t *testing.T) {
	_, a, _, _ := setup(t, centered())
	hs := a.Handles()
	tests := []struct {
		name string
		p    geom.Pt
		op   solver.Op
		mode Mode
	}{
		{"corner center", geom.P(200, 150), solver.OpRightBottom, ModeSimple},
		{"corner rim on body", geom.P(196, 146), solver.OpMove, ModeSimple},
		{"corner rim off body", geom.P(205, 155), solver.OpRightBottom, ModeRotate},
		{"edge center", geom.P(200, 125), solver.OpRight, ModeSimple},
		{"edge rim off body", geom.P(206, 125), solver.OpRight, ModeNone},
		{"anchor over body", geom.P(155, 128), solver.OpAnchor, ModeSimple},
		{"body", geom.P(120, 140), solver.OpMove, ModeSimple},
	}
	for _, tc := range tests {
		op, ok := hs.HitTest(tc.p)
		if !ok || op != tc.op {
			t.Fatalf("%s: hit %q (%v), want %q", tc.name, op, ok, tc.op)
		}
		if m := hs.OperateMode(op, tc.p); m != tc.mode {
			t.Fatalf("%s: mode %v, want %v", tc.name, m, tc.mode)
		}
	}
	if _, ok := hs.HitTest(geom.P(400, 400)); ok {
		t.Fatalf("expected miss far away")
	}
	if a.PointerDown(geom.P(206, 125), false) {
		t.Fatalf("edge rim off body must not arm")
	}
}

func TestCornerDragKeepsOppositeCorner(t *testing.T) {
	_, a, ft, rec := setup(t, centered())
	if !a.PointerDown(geom.P(200, 150), false) {
		t.Fatalf("expected press to arm")
	}
	a.PointerMove(geom.P(201, 151)) // within threshold
	if a.State() != Armed || len(rec.events) != 0 {
		t.Fatalf("threshold travel must not begin: %v %v", a.State(), rec.phases())
	}
	a.PointerMove(geom.P(220, 170))
	if a.State() != TransformingSimple {
		t.Fatalf("expected transforming, got %v", a.State())
	}
	want := centered()
	want.Width, want.Height = 120, 70
	want.X, want.Y = 160, 135
	if diff := cmp.Diff(want, ft.s, approx); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	hs := a.Handles()
	lt, _ := hs.Get(solver.OpLeftTop)
	rb, _ := hs.Get(solver.OpRightBottom)
	if !lt.Pos.Near(geom.P(100, 100), 1e-9) || !rb.Pos.Near(geom.P(220, 170), 1e-9) {
		t.Fatalf("handles not re-laid-out: lt=%v rb=%v", lt.Pos, rb.Pos)
	}
	a.PointerUp(geom.P(220, 170))

	wantPhases := []bus.Phase{bus.Begin, bus.BeginUpdate, bus.Update, bus.End}
	if diff := cmp.Diff(wantPhases, rec.phases()); diff != "" {
		t.Fatalf("phases mismatch (-want +got):\n%s", diff)
	}
	begin, update := rec.events[0], rec.events[2]
	if begin.Op != solver.OpRightBottom || begin.Container != "stage" || begin.Gesture == "" {
		t.Fatalf("unexpected begin %+v", begin)
	}
	if begin.Pointer != geom.P(200, 150) || begin.Handle != geom.P(200, 150) {
		t.Fatalf("begin must carry press point and grip: %+v", begin)
	}
	if update.Start != geom.P(200, 150) || update.End != geom.P(220, 170) {
		t.Fatalf("update points %v -> %v", update.Start, update.End)
	}
	if a.State() != Idle {
		t.Fatalf("expected idle after release")
	}
}

func TestPressWithoutTravelEmitsNothing(t *testing.T) {
	_, a, ft, rec := setup(t, centered())
	a.PointerDown(geom.P(120, 140), false)
	a.PointerMove(geom.P(121, 139))
	a.PointerUp(geom.P(121, 139))
	if len(rec.events) != 0 || ft.sets != 0 {
		t.Fatalf("expected no events and no writes, got %v / %d", rec.phases(), ft.sets)
	}
}

func TestMultiSelectSync(t *testing.T) {
	c := bus.NewCoordinator()
	a := NewAdapter(c, Metrics{})
	ta := newFake(target.DefaultState(100, 100, 100, 50))
	a.Attach(ta, "stage")

	b := NewAdapter(c, Metrics{})
	tb := newFake(target.DefaultState(0, 0, 10, 10))
	tb.toWindow = geom.ScaleMatrix(2, 2) // parent zoomed 2x
	b.Attach(tb, "stage")

	other := NewAdapter(c, Metrics{})
	to := newFake(target.DefaultState(0, 0, 10, 10))
	other.Attach(to, "elsewhere")

	a.PointerDown(geom.P(150, 125), false)
	a.PointerMove(geom.P(160, 130))
	a.PointerUp(geom.P(160, 130))

	if ta.s.X != 110 || ta.s.Y != 105 {
		t.Fatalf("origin moved to %v,%v", ta.s.X, ta.s.Y)
	}
	if tb.s.X != 5 || tb.s.Y != 2.5 {
		t.Fatalf("peer must move by its own parent delta, got %v,%v", tb.s.X, tb.s.Y)
	}
	if to.sets != 0 {
		t.Fatalf("adapter in another container must not react")
	}
}

func TestAnchorIsNotSyncedByDefault(t *testing.T) {
	c := bus.NewCoordinator()
	a := NewAdapter(c, Metrics{})
	ta := newFake(centered())
	a.Attach(ta, "stage")
	b := NewAdapter(c, Metrics{})
	tb := newFake(centered())
	b.Attach(tb, "stage")

	a.PointerDown(geom.P(150, 125), false)
	a.PointerMove(geom.P(100, 100))
	a.PointerUp(geom.P(100, 100))
	if ta.s.AnchorX != 0 || ta.s.AnchorY != 0 {
		t.Fatalf("anchor not moved to the corner: %v,%v", ta.s.AnchorX, ta.s.AnchorY)
	}
	if tb.sets != 0 {
		t.Fatalf("anchor edit leaked to peer")
	}

	b.SetSyncOps(solver.AllOps)
	a.PointerDown(geom.P(100, 100), false)
	a.PointerMove(geom.P(200, 150))
	a.PointerUp(geom.P(200, 150))
	if tb.sets == 0 {
		t.Fatalf("anchor must sync once enabled")
	}
}

func TestRotateFromCornerRim(t *testing.T) {
	c := bus.NewCoordinator()
	a := NewAdapter(c, Metrics{})
	ta := newFake(centered())
	a.Attach(ta, "stage")
	b := NewAdapter(c, Metrics{})
	tb := newFake(centered())
	b.Attach(tb, "stage")
	rec := &recorder{}
	c.Subscribe(rec, -10)

	if !a.PointerDown(geom.P(205, 155), false) {
		t.Fatalf("expected rotate press to arm")
	}
	if a.Cursor() != CursorRotate {
		t.Fatalf("cursor = %q", a.Cursor())
	}
	// sweep the grip a quarter turn clockwise around the anchor (150,125)
	a.PointerMove(geom.P(120, 180))
	if a.State() != TransformingRotate {
		t.Fatalf("state = %v", a.State())
	}
	if math.Abs(ta.s.Rotation-90) > 1e-9 || math.Abs(tb.s.Rotation-90) > 1e-9 {
		t.Fatalf("rotation origin=%v peer=%v, want 90", ta.s.Rotation, tb.s.Rotation)
	}
	if ta.s.X != 150 || ta.s.Y != 125 {
		t.Fatalf("rotation must pivot on the anchor")
	}
	a.PointerUp(geom.P(120, 180))
	got := rec.phases()
	if diff := cmp.Diff([]bus.Phase{bus.Begin, bus.Update, bus.End}, got); diff != "" {
		t.Fatalf("phases mismatch (-want +got):\n%s", diff)
	}
	if rec.events[1].Op != solver.OpRotation || math.Abs(rec.events[1].Rotation-90) > 1e-9 {
		t.Fatalf("unexpected update %+v", rec.events[1])
	}

	// restrict rounds a slightly short sweep to 45° steps
	ta.s = centered()
	a.Refresh()
	a.PointerDown(geom.P(205, 155), true)
	a.PointerMove(geom.P(122, 180))
	a.PointerUp(geom.P(122, 180))
	if ta.s.Rotation != 90 {
		t.Fatalf("restricted rotation = %v", ta.s.Rotation)
	}
}

func TestMoveAxisLockAndPointHook(t *testing.T) {
	_, a, ft, rec := setup(t, target.DefaultState(100, 100, 100, 50))
	a.PointerDown(geom.P(120, 140), true)
	a.PointerMove(geom.P(150, 145))
	if ft.s.X != 130 || ft.s.Y != 100 {
		t.Fatalf("axis lock failed: %v,%v", ft.s.X, ft.s.Y)
	}
	a.PointerUp(geom.P(150, 145))

	ft.s = target.DefaultState(100, 100, 100, 50)
	a.Refresh()
	rec.events = nil
	a.PointerDown(geom.P(120, 140), false)
	a.SetPointHook(hookFunc(func(p geom.Pt) geom.Pt { return p.Add(geom.P(3, 0)) }))
	a.PointerMove(geom.P(130, 150))
	if ft.s.X != 113 || ft.s.Y != 110 {
		t.Fatalf("hook not applied: %v,%v", ft.s.X, ft.s.Y)
	}
	if up := rec.events[2]; up.End != geom.P(133, 150) {
		t.Fatalf("update must carry the adjusted point, got %v", up.End)
	}
	a.PointerUp(geom.P(130, 150))
}

type hookFunc func(geom.Pt) geom.Pt

func (f hookFunc) AdjustPoint(p geom.Pt) geom.Pt { return f(p) }

func TestLostTargetAbortsWithEnd(t *testing.T) {
	_, a, ft, rec := setup(t, target.DefaultState(100, 100, 100, 50))
	a.PointerDown(geom.P(120, 140), false)
	ft.lost = true
	a.PointerMove(geom.P(150, 150))
	if a.State() != Idle {
		t.Fatalf("expected abort to idle, got %v", a.State())
	}
	if diff := cmp.Diff([]bus.Phase{bus.Begin, bus.BeginUpdate, bus.End}, rec.phases()); diff != "" {
		t.Fatalf("phases mismatch (-want +got):\n%s", diff)
	}
	if ft.sets != 0 {
		t.Fatalf("aborted gesture must not write")
	}
	a.PointerUp(geom.P(150, 150))
	if len(rec.events) != 3 {
		t.Fatalf("release after abort must be silent")
	}

	rec.events = nil
	ft.lost = false
	ft.s = centered()
	a.Refresh()
	a.PointerDown(geom.P(205, 155), false)
	a.PointerMove(geom.P(205, 170))
	before := ft.s.Rotation
	ft.lost = true
	a.PointerMove(geom.P(120, 180))
	if a.State() != Idle {
		t.Fatalf("expected rotate abort to idle, got %v", a.State())
	}
	if diff := cmp.Diff([]bus.Phase{bus.Begin, bus.Update, bus.End}, rec.phases()); diff != "" {
		t.Fatalf("rotate phases mismatch (-want +got):\n%s", diff)
	}
	if ft.s.Rotation != before {
		t.Fatalf("rotation %v -> %v after the target was lost", before, ft.s.Rotation)
	}
}

func TestKeyboardNudgeAccumulates(t *testing.T) {
	c, a, ft, rec := setup(t, target.DefaultState(100, 100, 100, 50))
	peer := NewAdapter(c, Metrics{})
	tp := newFake(target.DefaultState(0, 0, 10, 10))
	peer.Attach(tp, "stage")

	a.KeyDown(KeyRight, false)
	a.KeyDown(KeyRight, false)
	a.KeyDown(KeyUp, true)
	if ft.s.X != 102 || ft.s.Y != 90 {
		t.Fatalf("keyboard result %v,%v", ft.s.X, ft.s.Y)
	}
	if tp.s.X != 2 || tp.s.Y != -10 {
		t.Fatalf("peer keyboard result %v,%v", tp.s.X, tp.s.Y)
	}
	a.StopTransform()
	want := []bus.Phase{bus.Begin, bus.Update, bus.Update, bus.Update, bus.End}
	if diff := cmp.Diff(want, rec.phases()); diff != "" {
		t.Fatalf("phases mismatch (-want +got):\n%s", diff)
	}
	for _, e := range rec.events {
		if !e.Keyboard || e.Op != solver.OpMove {
			t.Fatalf("keyboard events must be flagged move events: %+v", e)
		}
	}
	a.StopTransform()
	if len(rec.events) != len(want) {
		t.Fatalf("second StopTransform must be a no-op")
	}
	if a.KeyDown(Key(99), false) {
		t.Fatalf("unknown key must be ignored")
	}
}

func TestSmallModeShowsTack(t *testing.T) {
	_, a, ft, _ := setup(t, target.DefaultState(100, 100, 10, 8))
	hs := a.Handles()
	if !hs.Small() {
		t.Fatalf("expected small mode")
	}
	for _, h := range hs.All() {
		want := h.Op == solver.OpTack || h.Op == solver.OpMove
		if h.Visible != want {
			t.Fatalf("handle %s visible=%v", h.Op, h.Visible)
		}
	}
	tack, _ := hs.Get(solver.OpTack)
	if tack.Pos != geom.P(105, 104) {
		t.Fatalf("tack at %v", tack.Pos)
	}
	// the tack box reaches well outside the body
	if !a.PointerDown(geom.P(116, 104), false) {
		t.Fatalf("tack press must arm")
	}
	a.PointerMove(geom.P(126, 114))
	a.PointerUp(geom.P(126, 114))
	if ft.s.X != 110 || ft.s.Y != 110 {
		t.Fatalf("tack drag must move, got %v,%v", ft.s.X, ft.s.Y)
	}
}

func TestCursorFeedback(t *testing.T) {
	_, a, ft, _ := setup(t, centered())
	if c := a.Hover(geom.P(200, 125)); c != CursorEW {
		t.Fatalf("right edge cursor %q", c)
	}
	if c := a.Hover(geom.P(200, 150)); c != CursorNWSE {
		t.Fatalf("corner cursor %q", c)
	}
	if c := a.Hover(geom.P(120, 140)); c != CursorMove {
		t.Fatalf("body cursor %q", c)
	}
	if c := a.Hover(geom.P(155, 128)); c != CursorCrosshair {
		t.Fatalf("anchor cursor %q", c)
	}
	if c := a.Hover(geom.P(500, 500)); c != CursorDefault {
		t.Fatalf("miss cursor %q", c)
	}
	ft.s.Rotation = 90
	a.Refresh()
	// the right edge now sits below the anchor
	if c := a.Hover(geom.P(150, 175)); c != CursorNS {
		t.Fatalf("rotated edge cursor %q", c)
	}
	a.SetRenderPoints(false)
	if c := a.Hover(geom.P(150, 175)); c != CursorDefault {
		t.Fatalf("hidden handles must not set a cursor, got %q", c)
	}

	buckets := map[float64]Cursor{0: CursorEW, 22.5: CursorNWSE, 90: CursorNS, 135: CursorNESW, 180: CursorEW, 337.4: CursorNESW, -10: CursorEW}
	for angle, want := range buckets {
		if got := ResizeCursor(angle); got != want {
			t.Fatalf("ResizeCursor(%v) = %q, want %q", angle, got, want)
		}
	}
}

func TestEnableAndRenderPoints(t *testing.T) {
	_, a, _, _ := setup(t, centered())
	a.Enable(false)
	if a.PointerDown(geom.P(120, 140), false) || a.KeyDown(KeyLeft, false) {
		t.Fatalf("disabled adapter must ignore input")
	}
	a.Enable(true)
	a.SetRenderPoints(false)
	op, ok := a.Handles().HitTest(geom.P(200, 150))
	if !ok || op != solver.OpMove {
		t.Fatalf("hidden corner must fall through to the body, got %q", op)
	}
}

func TestOutlineAndDistortion(t *testing.T) {
	_, a, ft, _ := setup(t, centered())
	hs := a.Handles()
	if hs.Distorted() {
		t.Fatalf("upright box reported distorted")
	}
	want := [4]geom.Pt{{X: 100.5, Y: 100.5}, {X: 199.5, Y: 100.5}, {X: 199.5, Y: 149.5}, {X: 100.5, Y: 149.5}}
	if diff := cmp.Diff(want, hs.Outline(), approx); diff != "" {
		t.Fatalf("outline mismatch (-want +got):\n%s", diff)
	}
	ft.s.Rotation = 10
	a.Refresh()
	if !a.Handles().Distorted() {
		t.Fatalf("rotated box must be distorted")
	}
	if r := a.Handles().AnchorRotation(); math.Abs(r-10) > 1e-9 {
		t.Fatalf("anchor rotation %v", r)
	}
}

func TestRootCannotMove(t *testing.T) {
	_, a, ft, rec := setup(t, target.DefaultState(0, 0, 400, 300))
	ft.caps = target.AllCapabilities.RootCapabilities()
	a.PointerDown(geom.P(200, 150), false)
	a.PointerMove(geom.P(250, 180))
	a.PointerUp(geom.P(250, 180))
	if ft.s.X != 0 || ft.s.Y != 0 {
		t.Fatalf("root moved to %v,%v", ft.s.X, ft.s.Y)
	}
	if len(rec.events) == 0 {
		t.Fatalf("gesture events are still published for a gated op")
	}
}
