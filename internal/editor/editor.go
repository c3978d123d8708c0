/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires one editing session: a transform coordinator, the
// adapter pool, the snapper and the commit queue around a scene and the
// overlay bridge that shows it.
package editor

import (
	"context"
	"log/slog"

	"gosceneeditor/internal/bridge"
	"gosceneeditor/internal/bus"
	"gosceneeditor/internal/commit"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/handle"
	"gosceneeditor/internal/ids"
	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/scene"
	"gosceneeditor/internal/selection"
	"gosceneeditor/internal/snap"
	"gosceneeditor/internal/solver"
	"gosceneeditor/internal/target"
)

// watchPriority places the editor's own subscriber behind every adapter.
const watchPriority = -1000

// EventSink receives anonymous usage counters. *telemetry.Client satisfies it.
type EventSink interface {
	Event(name string, props map[string]any)
}

// Options tune a new editor. Zero values select the defaults.
type Options struct {
	Container     string
	Metrics       handle.Metrics
	SnapTolerance float64
	SnapDisabled  bool
	GridPitch     float64
	// SyncOps overrides handle.DefaultSyncOps when not nil.
	SyncOps []solver.Op
	Events  EventSink
}

type item struct {
	node    *scene.Node
	binding *target.Binding
	adapter *handle.Adapter
}

// Editor is not safe for concurrent use; drive it from the UI goroutine.
type Editor struct {
	id        string
	container string
	scene     *scene.Scene
	bridge    *bridge.Bridge
	coord     *bus.Coordinator
	pool      *handle.Pool
	absorber  *snap.Absorber
	queue     *commit.Queue
	watch     *bus.Subscription
	events    EventSink
	syncOps   []solver.Op
	grid      float64
	log       *slog.Logger

	items  []item
	active *handle.Adapter
	cursor handle.Cursor

	gestures int
}

// New creates an editor over s shown through b.
func New(s *scene.Scene, b *bridge.Bridge, opts Options) *Editor {
	e := &Editor{
		id:        ids.NewEditorID(),
		container: opts.Container,
		scene:     s,
		bridge:    b,
		coord:     bus.NewCoordinator(),
		queue:     commit.NewQueue(),
		events:    opts.Events,
		syncOps:   opts.SyncOps,
		grid:      opts.GridPitch,
	}
	if e.container == "" {
		e.container = s.Root.ID
	}
	e.log = applog.WithComponent("editor").With(slog.String("editor", e.id))
	e.pool = handle.NewPool(e.coord, opts.Metrics)
	e.pool.OnNew(func(a *handle.Adapter) {
		if e.syncOps != nil {
			a.SetSyncOps(e.syncOps)
		}
	})
	e.absorber = snap.NewAbsorber(e.coord, opts.SnapTolerance)
	e.absorber.SetEnabled(!opts.SnapDisabled)
	e.absorber.AddProvider(&selection.Siblings{Entries: e.entries, Excluded: e.selectedPaths})
	e.absorber.AddProvider(gridLines{e})
	e.watch = e.coord.Subscribe(bus.HandlerFunc(e.observe), watchPriority)
	e.log.Info("editor open", slog.String("container", e.container))
	return e
}

// Context returns ctx tagged with the editor id for log correlation.
func (e *Editor) Context(ctx context.Context) context.Context { return applog.WithEditor(ctx, e.id) }

func (e *Editor) ID() string                                  { return e.id }
func (e *Editor) Container() string                           { return e.container }
func (e *Editor) Scene() *scene.Scene                         { return e.scene }
func (e *Editor) Bridge() *bridge.Bridge                      { return e.bridge }
func (e *Editor) Coordinator() *bus.Coordinator               { return e.coord }
func (e *Editor) Absorber() *snap.Absorber                    { return e.absorber }
func (e *Editor) Cursor() handle.Cursor                       { return e.cursor }
func (e *Editor) Gestures() int                               { return e.gestures }
func (e *Editor) Pending() int                                { return e.queue.Pending() }
func (e *Editor) Stats() (flushes, commits int)               { return e.queue.Stats() }
func (e *Editor) SetSnapEnabled(v bool)                       { e.absorber.SetEnabled(v) }
func (e *Editor) SetGridPitch(pitch float64)                  { e.grid = pitch }
func (e *Editor) Guides() []snap.Guide                        { return e.absorber.Guides() }
func (e *Editor) Active() bool                                { return e.active != nil }

// Close ends any gesture, commits pending edits and releases every adapter.
func (e *Editor) Close() {
	e.StopTransform()
	e.clear()
	e.queue.Flush()
	e.absorber.Close()
	e.watch.Remove()
	e.log.Info("editor closed", slog.Int("gestures", e.gestures))
}

func (e *Editor) entries() []selection.Entry { return e.scene.Entries(e.bridge) }

func (e *Editor) selectedPaths() []selection.Path {
	out := make([]selection.Path, 0, len(e.items))
	for _, it := range e.items {
		if it.node.Attached() {
			out = append(out, it.node.Path())
		}
	}
	return out
}

// gridLines exposes the configured grid in window space. The pitch is in
// stage units and follows the canvas zoom.
type gridLines struct{ e *Editor }

func (g gridLines) SnapLines() []snap.Line {
	if g.e.grid <= 0 {
		return nil
	}
	root := g.e.scene.Root
	m, ok := g.e.bridge.ObjectToWindow(root)
	if !ok {
		return nil
	}
	st := root.Transform()
	return snap.Grid{
		Pitch: g.e.grid * m.ScaleX(),
		Area:  selection.Bounds(m, st.Width, st.Height),
	}.SnapLines()
}

// Selection returns the selected nodes, top-most first.
func (e *Editor) Selection() []*scene.Node {
	out := make([]*scene.Node, len(e.items))
	for i, it := range e.items {
		out[i] = it.node
	}
	return out
}

// Adapters returns the adapters of the selection in the same order.
func (e *Editor) Adapters() []*handle.Adapter {
	out := make([]*handle.Adapter, len(e.items))
	for i, it := range e.items {
		out[i] = it.adapter
	}
	return out
}

// Select replaces the selection. Nodes that are detached, listed twice or
// below another selected node are skipped; the ancestor's handles already
// carry them.
func (e *Editor) Select(nodes ...*scene.Node) {
	e.StopTransform()
	e.clear()
	seen := make(map[*scene.Node]bool, len(nodes))
	var picked []item
	for _, n := range nodes {
		if n == nil || !n.Attached() || seen[n] {
			continue
		}
		seen[n] = true
		picked = append(picked, item{node: n})
	}
	selection.Sort(picked, func(it item) selection.Path { return it.node.Path() })
	for _, it := range picked {
		if !e.covered(it.node.Path()) {
			e.items = append(e.items, it)
		}
	}
	for i := range e.items {
		it := &e.items[i]
		it.binding = target.Bind(it.node, e.bridge, e.queue)
		it.adapter = e.pool.Acquire(it.binding, e.container)
	}
	e.log.Debug("selection changed", slog.Int("count", len(e.items)), slog.Int("pool", e.pool.Size()))
}

// SelectIDs selects nodes by id.
func (e *Editor) SelectIDs(idList ...string) error {
	nodes := make([]*scene.Node, 0, len(idList))
	for _, id := range idList {
		n, err := e.scene.Find(id)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	e.Select(nodes...)
	return nil
}

// Toggle adds n to the selection or removes it when already selected.
func (e *Editor) Toggle(n *scene.Node) {
	cur := e.Selection()
	for i, x := range cur {
		if x == n {
			e.Select(append(cur[:i:i], cur[i+1:]...)...)
			return
		}
	}
	e.Select(append(cur, n)...)
}

// covered reports whether a kept item is an ancestor of p.
func (e *Editor) covered(p selection.Path) bool {
	for _, it := range e.items {
		if it.node.Path().IsAncestorOf(p) {
			return true
		}
	}
	return false
}

func (e *Editor) clear() {
	e.queue.Flush()
	for _, it := range e.items {
		e.pool.Release(it.adapter)
	}
	e.items = nil
	e.active = nil
}

// Marquee selects every selectable node fully inside the window rectangle r.
// With add the hits join the current selection.
func (e *Editor) Marquee(r geom.Rect, add bool) []*scene.Node {
	var nodes []*scene.Node
	if add {
		nodes = e.Selection()
	}
	for _, en := range selection.Marquee(e.entries(), r, selection.Contains, false) {
		if n, err := e.scene.Find(en.ID); err == nil {
			nodes = append(nodes, n)
		}
	}
	e.Select(nodes...)
	return e.Selection()
}

// Hits returns the ids of nodes touching r, top-most first, without changing
// the selection. Hosts use it to highlight drop targets.
func (e *Editor) Hits(r geom.Rect) []string {
	hits := selection.Marquee(e.entries(), r, selection.Intersects, false)
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

// PickAt returns the top-most selectable node painted at p.
func (e *Editor) PickAt(p geom.Pt) (*scene.Node, bool) {
	en, ok := selection.Pick(e.entries(), p)
	if !ok {
		return nil, false
	}
	n, err := e.scene.Find(en.ID)
	if err != nil {
		return nil, false
	}
	return n, true
}

// PointerDown offers the press to the selected adapters, top-most first.
// A press that misses every handle selects the object under p and retries,
// so an unselected object can be dragged right away. It reports whether a
// gesture was armed.
func (e *Editor) PointerDown(p geom.Pt, mod bool) bool {
	e.StopTransform()
	if e.arm(p, mod) {
		return true
	}
	n, ok := e.PickAt(p)
	if !ok {
		e.Select()
		return false
	}
	e.Select(n)
	return e.arm(p, mod)
}

func (e *Editor) arm(p geom.Pt, mod bool) bool {
	for _, it := range e.items {
		if it.adapter.PointerDown(p, mod) {
			e.active = it.adapter
			e.cursor = it.adapter.Cursor()
			return true
		}
	}
	return false
}

// PointerMove drives the active gesture or updates the hover cursor.
func (e *Editor) PointerMove(p geom.Pt) {
	if e.active != nil {
		e.active.PointerMove(p)
		e.cursor = e.active.Cursor()
		return
	}
	e.cursor = handle.CursorDefault
	for _, it := range e.items {
		if c := it.adapter.Hover(p); c != handle.CursorDefault {
			e.cursor = c
			return
		}
	}
}

// PointerUp finishes the active gesture.
func (e *Editor) PointerUp(p geom.Pt) {
	if e.active == nil {
		return
	}
	a := e.active
	e.active = nil
	a.PointerUp(p)
	e.cursor = a.Hover(p)
}

// KeyDown nudges the selection. The top-most adapter drives the gesture and
// its peers replay it.
func (e *Editor) KeyDown(k handle.Key, fast bool) bool {
	if e.active != nil || len(e.items) == 0 {
		return false
	}
	return e.items[0].adapter.KeyDown(k, fast)
}

// StopTransform ends a keyboard gesture or aborts the active pointer one.
func (e *Editor) StopTransform() {
	if e.active != nil {
		e.active.StopTransform()
		e.active = nil
	}
	for _, it := range e.items {
		it.adapter.StopTransform()
	}
}

// Tick commits edits made since the last tick. Hosts call it once per frame.
func (e *Editor) Tick() int { return e.queue.Flush() }

// Refresh reloads every selected target after the scene changed outside the
// editor. Removed nodes drop out of the selection.
func (e *Editor) Refresh() {
	var gone bool
	for _, it := range e.items {
		if !it.node.Attached() {
			gone = true
			continue
		}
		it.adapter.Refresh()
	}
	if gone {
		var keep []*scene.Node
		for _, it := range e.items {
			if it.node.Attached() {
				keep = append(keep, it.node)
			}
		}
		e.Select(keep...)
	}
}

func (e *Editor) observe(ev bus.Event) {
	if ev.Container != e.container {
		return
	}
	switch ev.Phase {
	case bus.End:
		n := e.queue.Flush()
		e.gestures++
		applog.WithGesture(e.log, ev.Gesture).Debug("gesture committed",
			slog.String("op", string(ev.Op)),
			slog.Bool("keyboard", ev.Keyboard),
			slog.Int("targets", len(e.items)),
			slog.Int("commits", n))
		if e.events != nil {
			e.events.Event("gesture_end", map[string]any{
				"op":       string(ev.Op),
				"targets":  len(e.items),
				"keyboard": ev.Keyboard,
			})
		}
		if e.active != nil && e.active.State() == handle.Idle {
			e.active = nil
		}
	}
}
