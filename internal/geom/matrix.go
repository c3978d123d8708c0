/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import "math"

// Matrix is a 2D affine transform:
//
//	x' = A*x + C*y + TX
//	y' = B*x + D*y + TY
//
// Matrices are values. Every method returns a new Matrix and leaves the
// receiver untouched, so a matrix can be shared freely between callers.
type Matrix struct{ A, B, C, D, TX, TY float64 }

var Identity = Matrix{A: 1, D: 1}

func NewMatrix(a, b, c, d, tx, ty float64) Matrix {
	return Matrix{A: a, B: b, C: c, D: d, TX: tx, TY: ty}
}

func TranslateMatrix(tx, ty float64) Matrix { return Matrix{A: 1, D: 1, TX: tx, TY: ty} }
func ScaleMatrix(sx, sy float64) Matrix     { return Matrix{A: sx, D: sy} }

// RotateMatrix returns a rotation by deg degrees (clockwise in a y-down space).
func RotateMatrix(deg float64) Matrix {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Matrix{A: c, B: s, C: -s, D: c}
}

// SkewMatrix returns the skew used by scene nodes: the x axis is tilted by
// skewY and the y axis by skewX, both in degrees.
func SkewMatrix(skewXDeg, skewYDeg float64) Matrix {
	sx, cx := math.Sincos(skewXDeg * math.Pi / 180)
	sy, cy := math.Sincos(skewYDeg * math.Pi / 180)
	return Matrix{A: cy, B: sy, C: -sx, D: cx}
}

// Concat returns m followed by o: points go through m first, then through o.
// Chaining local.Concat(parent).Concat(grandparent) yields local-to-root.
func (m Matrix) Concat(o Matrix) Matrix {
	return Matrix{
		A:  m.A*o.A + m.B*o.C,
		B:  m.A*o.B + m.B*o.D,
		C:  m.C*o.A + m.D*o.C,
		D:  m.C*o.B + m.D*o.D,
		TX: m.TX*o.A + m.TY*o.C + o.TX,
		TY: m.TX*o.B + m.TY*o.D + o.TY,
	}
}

func (m Matrix) Translate(dx, dy float64) Matrix { return m.Concat(TranslateMatrix(dx, dy)) }
func (m Matrix) Scale(sx, sy float64) Matrix     { return m.Concat(ScaleMatrix(sx, sy)) }
func (m Matrix) Rotate(deg float64) Matrix       { return m.Concat(RotateMatrix(deg)) }
func (m Matrix) Skew(skewXDeg, skewYDeg float64) Matrix {
	return m.Concat(SkewMatrix(skewXDeg, skewYDeg))
}

// WithTranslation returns m with its translation replaced.
func (m Matrix) WithTranslation(tx, ty float64) Matrix {
	m.TX, m.TY = tx, ty
	return m
}

func (m Matrix) Apply(p Pt) Pt {
	return Pt{X: m.A*p.X + m.C*p.Y + m.TX, Y: m.B*p.X + m.D*p.Y + m.TY}
}

// ApplyVector transforms a direction, ignoring the translation.
func (m Matrix) ApplyVector(v Pt) Pt {
	return Pt{X: m.A*v.X + m.C*v.Y, Y: m.B*v.X + m.D*v.Y}
}

func (m Matrix) Determinant() float64 { return m.A*m.D - m.B*m.C }

// Invert returns the inverse of m. A singular matrix does not fail: on the
// axis-aligned path (B == C == 0) it degrades to the zero matrix, otherwise to
// Identity. Callers that must tell the difference use InvertOK.
func (m Matrix) Invert() Matrix {
	inv, _ := m.InvertOK()
	return inv
}

// InvertOK is Invert plus a flag reporting whether m was invertible.
func (m Matrix) InvertOK() (Matrix, bool) {
	if m.B == 0 && m.C == 0 {
		if m.A == 0 || m.D == 0 {
			return Matrix{}, false
		}
		a, d := 1/m.A, 1/m.D
		return Matrix{A: a, D: d, TX: -a * m.TX, TY: -d * m.TY}, true
	}
	det := m.Determinant()
	if det == 0 {
		return Identity, false
	}
	r := 1 / det
	return Matrix{
		A:  m.D * r,
		B:  -m.B * r,
		C:  -m.C * r,
		D:  m.A * r,
		TX: (m.C*m.TY - m.D*m.TX) * r,
		TY: (m.B*m.TX - m.A*m.TY) * r,
	}, true
}

// IsIdentity reports whether m is the identity within eps.
func (m Matrix) IsIdentity(eps float64) bool { return m.ApproxEqual(Identity, eps) }

func (m Matrix) ApproxEqual(o Matrix, eps float64) bool {
	return math.Abs(m.A-o.A) <= eps && math.Abs(m.B-o.B) <= eps &&
		math.Abs(m.C-o.C) <= eps && math.Abs(m.D-o.D) <= eps &&
		math.Abs(m.TX-o.TX) <= eps && math.Abs(m.TY-o.TY) <= eps
}

// ScaleX is the length of the transformed x axis, negative when m mirrors.
func (m Matrix) ScaleX() float64 {
	s := math.Hypot(m.A, m.B)
	if m.Determinant() < 0 {
		return -s
	}
	return s
}

func (m Matrix) ScaleY() float64 { return math.Hypot(m.C, m.D) }

// SkewX returns the tilt of the y axis in degrees.
func (m Matrix) SkewX() float64 { return (math.Atan2(m.D, m.C) - math.Pi/2) * 180 / math.Pi }

// SkewY returns the tilt of the x axis in degrees.
func (m Matrix) SkewY() float64 { return math.Atan2(m.B, m.A) * 180 / math.Pi }

// Components are the editable transform fields of a scene node.
type Components struct {
	X, Y             float64
	Width, Height    float64
	AnchorX, AnchorY float64
	ScaleX, ScaleY   float64
	SkewX, SkewY     float64
	Rotation         float64
}

// Compose builds the local-to-parent matrix of c: the anchor point is moved
// to the origin, then scale, skew and rotation are applied, and finally the
// result is placed at (X, Y). The anchor therefore always lands on (X, Y).
func Compose(c Components) Matrix {
	return TranslateMatrix(-c.Width*c.AnchorX, -c.Height*c.AnchorY).
		Scale(c.ScaleX, c.ScaleY).
		Concat(SkewMatrix(c.SkewX, c.SkewY)).
		Rotate(c.Rotation).
		Translate(c.X, c.Y)
}
