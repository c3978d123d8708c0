/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package commit

import "sync"

// Committer writes buffered values back to their owner.
type Committer interface {
	Commit()
}

// Queue coalesces writes to the node model. Targets mark themselves dirty on
// every pointer move; the host render loop calls Flush once per tick so the
// model sees at most one write per target and tick.
// It is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	pending []Committer
	marked  map[Committer]struct{}
	// accounting
	flushes int
	commits int
}

func NewQueue() *Queue {
	return &Queue{marked: make(map[Committer]struct{})}
}

// Mark schedules c for the next Flush. Marking twice before a flush is a no-op.
func (q *Queue) Mark(c Committer) {
	if c == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.marked[c]; ok {
		return
	}
	q.marked[c] = struct{}{}
	q.pending = append(q.pending, c)
}

// Drop forgets a pending commit, used when a target is released before the
// next tick.
func (q *Queue) Drop(c Committer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.marked[c]; !ok {
		return
	}
	delete(q.marked, c)
	for i, p := range q.pending {
		if p == c {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
}

// Flush commits everything marked since the last flush in marking order and
// returns how many committers ran. Commit runs outside the lock so a
// committer may mark again.
func (q *Queue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	clear(q.marked)
	q.flushes++
	q.commits += len(batch)
	q.mu.Unlock()
	for _, c := range batch {
		c.Commit()
	}
	return len(batch)
}

// Pending reports how many committers wait for the next flush.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Stats returns counters for diagnostics.
func (q *Queue) Stats() (flushes int, commits int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.flushes, q.commits
}
