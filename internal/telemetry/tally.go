/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"fmt"
	"sync"
)

// Sender is the part of Client a Tally reports to.
type Sender interface {
	Event(name string, props map[string]any)
}

// Tally counts gesture_end events per operation and reports them as one
// gesture_summary event. It accepts editor events directly.
type Tally struct {
	mu       sync.Mutex
	out      Sender
	ops      map[string]int
	keyboard int
	multi    int
	maxTgts  int
}

func NewTally(out Sender) *Tally { return &Tally{out: out, ops: map[string]int{}} }

// Event records gesture_end events and forwards everything else unchanged.
func (t *Tally) Event(name string, props map[string]any) {
	if name != "gesture_end" {
		if t.out != nil {
			t.out.Event(name, props)
		}
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	op := fmt.Sprint(props["op"])
	t.ops[op]++
	if kb, _ := props["keyboard"].(bool); kb {
		t.keyboard++
	}
	n, _ := props["targets"].(int)
	if n > 1 {
		t.multi++
	}
	t.maxTgts = max(t.maxTgts, n)
}

// Counts returns the per-operation gesture counts.
func (t *Tally) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(t.ops))
	for k, v := range t.ops {
		out[k] = v
	}
	return out
}

// Report sends the summary and resets the counters. Nothing is sent when no
// gesture ended since the last report.
func (t *Tally) Report() bool {
	t.mu.Lock()
	if len(t.ops) == 0 {
		t.mu.Unlock()
		return false
	}
	total := 0
	for _, v := range t.ops {
		total += v
	}
	props := map[string]any{
		"gestures":    total,
		"keyboard":    t.keyboard,
		"multi":       t.multi,
		"max_targets": t.maxTgts,
	}
	for k, v := range t.ops {
		props["op_"+k] = v
	}
	t.ops, t.keyboard, t.multi, t.maxTgts = map[string]int{}, 0, 0, 0
	t.mu.Unlock()

	if t.out != nil {
		t.out.Event("gesture_summary", props)
	}
	return true
}
