/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// NormalizeDegrees maps deg into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// AngleOf returns the direction of v in degrees within [0, 360).
// The zero vector has angle 0.
func AngleOf(v Pt) float64 {
	if v.IsZero() {
		return 0
	}
	return NormalizeDegrees(math.Atan2(v.Y, v.X) * 180 / math.Pi)
}

// IncludedAngle returns angle(a) - angle(b) wrapped into (-180, 180].
func IncludedAngle(a, b Pt) float64 {
	d := AngleOf(a) - AngleOf(b)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// RoundTo rounds v to the nearest multiple of step (step <= 0 leaves v as is).
func RoundTo(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}
