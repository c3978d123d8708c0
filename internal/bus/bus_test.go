/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package bus

import (
	"reflect"
	"testing"

	"gosceneeditor/internal/solver"
)

func TestPriorityOrderIsStable(t *testing.T) {
	c := NewCoordinator()
	var got []string
	rec := func(name string) Handler {
		return HandlerFunc(func(e Event) { got = append(got, name) })
	}
	c.Subscribe(rec("a0"), 0)
	c.Subscribe(rec("snap"), 1000)
	c.Subscribe(rec("b0"), 0)
	c.Subscribe(rec("mid"), 10)
	c.Publish(Event{Phase: Begin, Op: solver.OpMove})
	want := []string{"snap", "mid", "a0", "b0"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dispatch order = %v, want %v", got, want)
	}
}

func TestRemoveDuringDispatch(t *testing.T) {
	c := NewCoordinator()
	calls := map[string]int{}
	var second *Subscription
	c.Subscribe(HandlerFunc(func(e Event) {
		calls["first"]++
		second.Remove()
	}), 5)
	second = c.Subscribe(HandlerFunc(func(e Event) { calls["second"]++ }), 0)
	c.Publish(Event{Phase: Update})
	c.Publish(Event{Phase: End})
	if calls["first"] != 2 || calls["second"] != 0 {
		t.Fatalf("unexpected calls %v", calls)
	}
	if c.Len() != 1 || second.Active() {
		t.Fatalf("removed subscription still registered")
	}
	second.Remove()
	if c.Len() != 1 {
		t.Fatalf("double remove must be harmless")
	}
}

func TestCoordinatorsAreIsolated(t *testing.T) {
	a, b := NewCoordinator(), NewCoordinator()
	n := 0
	a.Subscribe(HandlerFunc(func(e Event) { n++ }), 0)
	b.Publish(Event{Phase: Begin})
	if n != 0 {
		t.Fatalf("events leaked across coordinators")
	}
	if Update.String() != "update" || Phase(42).String() != "unknown" {
		t.Fatalf("unexpected phase names")
	}
}
