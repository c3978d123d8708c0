/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package trace

import (
	"fmt"

	"gosceneeditor/internal/handle"
	"gosceneeditor/internal/scene"
)

// Script expands scripted fixture gestures into input events. A drag is a
// press, Steps evenly spaced moves with a tick after each, and a release.
// Key gestures press Repeat times; a stop gesture ends the keyboard gesture.
func Script(gs []scene.Gesture) ([]Event, error) {
	var out []Event
	for i, g := range gs {
		switch g.Kind {
		case scene.GestureDrag:
			from, to := g.FromPt(), g.ToPt()
			steps := max(g.Steps, 1)
			out = append(out, Event{Kind: KindDown, Pos: from, Modifier: g.Modifier})
			for s := 1; s <= steps; s++ {
				p := from.Add(to.Sub(from).Mul(float64(s) / float64(steps)))
				out = append(out, Event{Kind: KindMove, Pos: p}, Event{Kind: KindTick})
			}
			out = append(out, Event{Kind: KindUp, Pos: to}, Event{Kind: KindTick})
		case scene.GestureKey:
			k, ok := handle.ParseKey(g.Key)
			if !ok {
				return nil, fmt.Errorf("gesture %d: unknown key %q", i, g.Key)
			}
			for r := 0; r < max(g.Repeat, 1); r++ {
				out = append(out, Event{Kind: KindKey, Key: k, Fast: g.Fast})
			}
			out = append(out, Event{Kind: KindTick})
		case scene.GestureStop:
			out = append(out, Event{Kind: KindStop}, Event{Kind: KindTick})
		default:
			return nil, fmt.Errorf("gesture %d: unknown kind %q", i, g.Kind)
		}
	}
	for i := range out {
		out[i].Seq = i + 1
	}
	return out, nil
}
