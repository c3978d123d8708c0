/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package trace

import (
	"context"
	"fmt"
	"log/slog"

	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/handle"
	applog "gosceneeditor/internal/log"
)

// Input is the host-facing input surface of an editor.
type Input interface {
	PointerDown(p geom.Pt, mod bool) bool
	PointerMove(p geom.Pt)
	PointerUp(p geom.Pt)
	KeyDown(k handle.Key, fast bool) bool
	StopTransform()
	Tick() int
}

// Recorder forwards input to an editor and appends every call to a trace
// session. The first storage error sticks and stops further writes; the
// editor keeps receiving input either way.
type Recorder struct {
	ctx   context.Context
	store *Store
	in    Input
	sess  Session
	seq   int
	err   error
	log   *slog.Logger
}

// NewRecorder opens a new session in store and returns a Recorder feeding in.
func NewRecorder(ctx context.Context, store *Store, in Input, sess Session) (*Recorder, error) {
	sess, err := store.CreateSession(ctx, sess)
	if err != nil {
		return nil, err
	}
	l := applog.WithOperation(applog.WithComponent("trace"), "record").With(slog.String("session", sess.ID))
	l.Info("trace recording started", slog.String("driver", store.Driver()))
	return &Recorder{ctx: ctx, store: store, in: in, sess: sess, log: l}, nil
}

func (r *Recorder) Session() Session { return r.sess }
func (r *Recorder) Events() int      { return r.seq }
func (r *Recorder) Err() error       { return r.err }

func (r *Recorder) record(ev Event) {
	if r.err != nil {
		return
	}
	r.seq++
	ev.Seq = r.seq
	if err := r.store.Append(r.ctx, r.sess.ID, ev); err != nil {
		r.err = err
		r.log.Error("trace write failed", slog.Int("seq", ev.Seq), slog.Any("err", err))
	}
}

func (r *Recorder) PointerDown(p geom.Pt, mod bool) bool {
	r.record(Event{Kind: KindDown, Pos: p, Modifier: mod})
	return r.in.PointerDown(p, mod)
}

func (r *Recorder) PointerMove(p geom.Pt) {
	r.record(Event{Kind: KindMove, Pos: p})
	r.in.PointerMove(p)
}

func (r *Recorder) PointerUp(p geom.Pt) {
	r.record(Event{Kind: KindUp, Pos: p})
	r.in.PointerUp(p)
}

func (r *Recorder) KeyDown(k handle.Key, fast bool) bool {
	r.record(Event{Kind: KindKey, Key: k, Fast: fast})
	return r.in.KeyDown(k, fast)
}

func (r *Recorder) StopTransform() {
	r.record(Event{Kind: KindStop})
	r.in.StopTransform()
}

func (r *Recorder) Tick() int {
	r.record(Event{Kind: KindTick})
	return r.in.Tick()
}

// Close logs the session summary and returns the sticky storage error.
func (r *Recorder) Close() error {
	if r.err != nil {
		return fmt.Errorf("trace %s: %w", r.sess.ID, r.err)
	}
	r.log.Info("trace saved", slog.Int("events", r.seq))
	return nil
}

// Play feeds events into in, in order.
func Play(events []Event, in Input) error {
	for _, ev := range events {
		switch ev.Kind {
		case KindDown:
			in.PointerDown(ev.Pos, ev.Modifier)
		case KindMove:
			in.PointerMove(ev.Pos)
		case KindUp:
			in.PointerUp(ev.Pos)
		case KindKey:
			in.KeyDown(ev.Key, ev.Fast)
		case KindStop:
			in.StopTransform()
		case KindTick:
			in.Tick()
		default:
			return fmt.Errorf("event %d: unknown kind %q", ev.Seq, ev.Kind)
		}
	}
	return nil
}

// Replay loads session id from store and plays it into in. It returns the
// number of events played.
func Replay(ctx context.Context, store *Store, id string, in Input) (int, error) {
	_, events, err := store.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := Play(events, in); err != nil {
		return 0, err
	}
	applog.WithOperation(applog.WithComponent("trace"), "replay").Debug("trace replayed",
		slog.String("session", id), slog.Int("events", len(events)))
	return len(events), nil
}
