/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package handle

import (
	"gosceneeditor/internal/bus"
	"gosceneeditor/internal/target"
)

// Pool recycles adapters across selection changes. Released adapters are
// detached from the coordinator and parked on a free list of indices.
type Pool struct {
	coord   *bus.Coordinator
	metrics Metrics
	items   []*Adapter
	free    []int
	onNew   func(*Adapter)
}

func NewPool(c *bus.Coordinator, m Metrics) *Pool {
	return &Pool{coord: c, metrics: m}
}

// OnNew registers a callback run once for every adapter the pool creates,
// e.g. to apply editor-wide toggles.
func (p *Pool) OnNew(fn func(*Adapter)) { p.onNew = fn }

// Acquire returns an adapter attached to t in container, reusing a released
// one when available.
func (p *Pool) Acquire(t target.Target, container string) *Adapter {
	var a *Adapter
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		a = p.items[idx]
	} else {
		a = NewAdapter(p.coord, p.metrics)
		a.poolIndex = len(p.items)
		p.items = append(p.items, a)
		if p.onNew != nil {
			p.onNew(a)
		}
	}
	a.Attach(t, container)
	return a
}

// Release detaches a and returns it to the free list. Releasing an adapter
// twice or one from another pool is a no-op.
func (p *Pool) Release(a *Adapter) {
	if a == nil || a.poolIndex < 0 || a.poolIndex >= len(p.items) || p.items[a.poolIndex] != a {
		return
	}
	for _, i := range p.free {
		if i == a.poolIndex {
			return
		}
	}
	a.Detach()
	a.Enable(true)
	a.SetRenderPoints(true)
	p.free = append(p.free, a.poolIndex)
}

// InUse is the number of acquired adapters.
func (p *Pool) InUse() int { return len(p.items) - len(p.free) }

// Size is the number of adapters ever created.
func (p *Pool) Size() int { return len(p.items) }

// Active returns the acquired adapters in creation order.
func (p *Pool) Active() []*Adapter {
	parked := make(map[int]bool, len(p.free))
	for _, i := range p.free {
		parked[i] = true
	}
	out := make([]*Adapter, 0, p.InUse())
	for i, a := range p.items {
		if !parked[i] {
			out = append(out, a)
		}
	}
	return out
}
