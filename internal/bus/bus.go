/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package bus carries transform gesture notifications between the handle
// adapters of one editor. Every editor owns its own Coordinator; adapters and
// the snapper receive it at construction time.
package bus

import (
	"sort"

	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/solver"
)

// Phase is the stage of a transform gesture.
type Phase int

const (
	Begin Phase = iota
	BeginUpdate
	Update
	End
)

func (p Phase) String() string {
	switch p {
	case Begin:
		return "begin"
	case BeginUpdate:
		return "begin_update"
	case Update:
		return "update"
	case End:
		return "end"
	}
	return "unknown"
}

// PointHook may replace the window point of a pointer move before it is
// solved. The snapper installs one on the adapter driving the gesture.
type PointHook interface {
	AdjustPoint(p geom.Pt) geom.Pt
}

// Source is the adapter that started a gesture.
type Source interface {
	SetPointHook(PointHook)
}

// Event describes one step of a gesture. Window-space points only.
type Event struct {
	Phase     Phase
	Op        solver.Op
	Container string
	Gesture   string
	Origin    Source
	// Keyboard is set for gestures synthesized from arrow keys.
	Keyboard bool
	// Modifier is the aspect/restrict/axis-lock modifier held at Begin.
	Modifier bool

	// Begin and BeginUpdate
	Pointer geom.Pt
	Handle  geom.Pt
	Bounds  geom.Rect

	// Update
	Start    geom.Pt
	End      geom.Pt
	Rotation float64
	Restrict bool
}

// Handler receives events. Handlers run synchronously on the publishing
// goroutine and must filter on Event.Container themselves.
type Handler interface {
	HandleTransform(e Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e Event)

func (f HandlerFunc) HandleTransform(e Event) { f(e) }

// Subscription is returned by Subscribe. Remove unregisters it.
type Subscription struct {
	c        *Coordinator
	h        Handler
	priority int
	removed  bool
}

// Remove unregisters the subscription. It is safe to call more than once and
// from inside a handler.
func (s *Subscription) Remove() {
	if s == nil || s.removed {
		return
	}
	s.removed = true
	s.c.remove(s)
}

func (s *Subscription) Active() bool { return s != nil && !s.removed }

// Coordinator is a per-editor publish/subscribe channel. Subscribers with a
// higher priority see an event first; equal priorities keep subscription
// order. It is meant for the UI goroutine only and does no locking.
type Coordinator struct {
	subs []*Subscription
}

func NewCoordinator() *Coordinator { return &Coordinator{} }

// Subscribe registers h with the given priority.
func (c *Coordinator) Subscribe(h Handler, priority int) *Subscription {
	s := &Subscription{c: c, h: h, priority: priority}
	c.subs = append(c.subs, s)
	sort.SliceStable(c.subs, func(i, j int) bool { return c.subs[i].priority > c.subs[j].priority })
	return s
}

func (c *Coordinator) remove(s *Subscription) {
	for i, x := range c.subs {
		if x == s {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every subscriber in priority order. Subscriptions
// removed during delivery are skipped; ones added during delivery only see
// later events.
func (c *Coordinator) Publish(e Event) {
	subs := append([]*Subscription(nil), c.subs...)
	for _, s := range subs {
		if s.removed {
			continue
		}
		s.h.HandleTransform(e)
	}
}

// Len reports the number of active subscriptions.
func (c *Coordinator) Len() int { return len(c.subs) }
