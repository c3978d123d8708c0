/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gosceneeditor/internal/editor"
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/handle"
	applog "gosceneeditor/internal/log"
	"gosceneeditor/internal/overlay"
	"gosceneeditor/internal/scene"
	"gosceneeditor/internal/telemetry"
	"gosceneeditor/internal/trace"
)

// Host adapts toolkit input to an editor: pointer and key events go in and
// Frame returns what to draw. Writes to the node model are coalesced until
// the toolkit's frame driver calls Tick; a gesture's end commits at once.
// Input is routed through a trace recorder while recording.
type Host struct {
	Loaded *scene.Loaded
	Editor *editor.Editor

	in      trace.Input
	rec     *trace.Recorder
	tally   *telemetry.Tally
	pressed bool
	last    geom.Pt
	log     *slog.Logger
}

// NewHost opens an editor on ld with its initial selection. Gesture counters
// are summarized and sent to sink on Close; sink may be nil.
func NewHost(ld *scene.Loaded, opts editor.Options, sink telemetry.Sender) *Host {
	tally := telemetry.NewTally(sink)
	opts.Events = tally
	e := editor.New(ld.Scene, ld.Bridge, opts)
	e.Select(ld.Selection...)
	return &Host{Loaded: ld, Editor: e, in: e, tally: tally, log: applog.WithComponent("ui")}
}

// Record starts a trace session for the rest of the host's life.
func (h *Host) Record(ctx context.Context, store *trace.Store) error {
	if h.rec != nil {
		return errors.New("already recording")
	}
	rec, err := trace.NewRecorder(ctx, store, h.Editor, trace.Session{App: "gosceneeditor ui", Scene: h.Loaded.Raw})
	if err != nil {
		return err
	}
	h.rec, h.in = rec, rec
	return nil
}

func (h *Host) Recording() bool { return h.rec != nil }

// Tick commits pending writes, once per rendered frame. It reports how many
// targets were written; idle frames are not recorded.
func (h *Host) Tick() int {
	if h.Editor.Pending() == 0 {
		return 0
	}
	return h.in.Tick()
}

// Press starts a pointer gesture; mod is the toolkit's shift state.
func (h *Host) Press(p geom.Pt, mod bool) bool {
	h.pressed, h.last = true, p
	return h.in.PointerDown(p, mod)
}

// Drag moves the pressed pointer.
func (h *Host) Drag(p geom.Pt) {
	if !h.pressed {
		return
	}
	h.last = p
	h.in.PointerMove(p)
}

// Release ends the pointer gesture at the last known position when p is nil.
func (h *Host) Release(p *geom.Pt) {
	if !h.pressed {
		return
	}
	h.pressed = false
	at := h.last
	if p != nil {
		at = *p
	}
	h.in.PointerUp(at)
}

// Hover updates the cursor. Hovering is not recorded.
func (h *Host) Hover(p geom.Pt) handle.Cursor {
	if h.pressed {
		return h.Editor.Cursor()
	}
	h.Editor.PointerMove(p)
	return h.Editor.Cursor()
}

// Key nudges the selection.
func (h *Host) Key(k handle.Key, fast bool) bool {
	return h.in.KeyDown(k, fast)
}

// KeyUp ends a keyboard gesture.
func (h *Host) KeyUp() {
	h.in.StopTransform()
}

// Frame snapshots the overlay for a w×hgt window.
func (h *Host) Frame(w, hgt int) overlay.Frame { return overlay.Capture(h.Editor, w, hgt) }

// Status is a one-line summary for a status bar.
func (h *Host) Status() string {
	sel := h.Editor.Selection()
	ids := make([]string, len(sel))
	for i, n := range sel {
		ids[i] = n.ID
	}
	s := "No selection"
	if len(ids) > 0 {
		s = "Selected: " + strings.Join(ids, ", ")
	}
	s += fmt.Sprintf(" | gestures: %d", h.Editor.Gestures())
	if h.rec != nil {
		s += fmt.Sprintf(" | recording %d events", h.rec.Events())
	}
	return s
}

// Close ends any gesture, reports gesture counters and stops recording.
func (h *Host) Close() error {
	h.in.StopTransform()
	h.in.Tick()
	h.tally.Report()
	h.Editor.Close()
	if h.rec != nil {
		if err := h.rec.Close(); err != nil {
			h.log.Error("trace close failed", slog.Any("err", err))
			return err
		}
	}
	return nil
}
