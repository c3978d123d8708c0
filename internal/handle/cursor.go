/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package handle

import (
	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/solver"
)

// Cursor names follow the CSS cursor keywords; hosts map them to their own
// pointer shapes.
type Cursor string

const (
	CursorDefault   Cursor = ""
	CursorMove      Cursor = "move"
	CursorCrosshair Cursor = "crosshair"
	CursorRotate    Cursor = "rotate"
	CursorEW        Cursor = "ew-resize"
	CursorNS        Cursor = "ns-resize"
	CursorNWSE      Cursor = "nwse-resize"
	CursorNESW      Cursor = "nesw-resize"
)

// ResizeCursor picks the double arrow closest to angle (degrees, 0 = along
// the x axis, clockwise). Buckets are 45° wide and centered on the arrows.
func ResizeCursor(angle float64) Cursor {
	a := geom.NormalizeDegrees(angle)
	switch {
	case a < 22.5 || a >= 337.5 || (a >= 157.5 && a < 202.5):
		return CursorEW
	case (a >= 22.5 && a < 67.5) || (a >= 202.5 && a < 247.5):
		return CursorNWSE
	case (a >= 67.5 && a < 112.5) || (a >= 247.5 && a < 292.5):
		return CursorNS
	}
	return CursorNESW
}

// CursorFor returns the cursor for pressing op in mode on a target turned by
// rotation degrees.
func CursorFor(op solver.Op, mode Mode, rotation float64) Cursor {
	switch mode {
	case ModeRotate:
		return CursorRotate
	case ModeNone:
		return CursorDefault
	}
	switch op {
	case solver.OpLeft, solver.OpRight:
		return ResizeCursor(rotation)
	case solver.OpTop, solver.OpBottom:
		return ResizeCursor(90 + rotation)
	case solver.OpLeftTop, solver.OpRightBottom:
		return ResizeCursor(45 + rotation)
	case solver.OpLeftBottom, solver.OpRightTop:
		return ResizeCursor(135 + rotation)
	case solver.OpMove, solver.OpTack:
		return CursorMove
	case solver.OpAnchor:
		return CursorCrosshair
	}
	return CursorDefault
}
