package sprite

import "github.com/chewxy/math32"

// Size is a width/height pair in world units.
type Size struct {
	W, H float32
}

// SizeU is a width/height pair in pixels.
type SizeU struct {
	W, H uint32
}

// Sz is shorthand for Size{w, h}.
func Sz(w, h float32) Size { return Size{W: w, H: h} }

// SzU is shorthand for SizeU{w, h}.
func SzU(w, h uint32) SizeU { return SizeU{W: w, H: h} }

// Mul scales both dimensions by f.
func (s Size) Mul(f float32) Size { return Size{W: s.W * f, H: s.H * f} }

// Div divides both dimensions by f.
func (s Size) Div(f float32) Size { return Size{W: s.W / f, H: s.H / f} }

// Float converts a pixel size to world units.
func (s SizeU) Float() Size { return Size{W: float32(s.W), H: float32(s.H)} }

// Area returns the number of pixels covered.
func (s SizeU) Area() int { return int(s.W) * int(s.H) }

// Point is a 2D position in world units.
type Point struct {
	X, Y float32
}

// PointU is a 2D position in pixels.
type PointU struct {
	X, Y uint32
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float32) Point { return Point{X: x, Y: y} }

// PtU is shorthand for PointU{x, y}.
func PtU(x, y uint32) PointU { return PointU{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Mul returns p scaled by f.
func (p Point) Mul(f float32) Point { return Point{X: p.X * f, Y: p.Y * f} }

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// TranslationMatrix returns a matrix translating by p.
func (p Point) TranslationMatrix() Matrix { return Translate(p.X, p.Y) }

// OriginMatrix returns a matrix translating by -p, moving p to the origin.
func (p Point) OriginMatrix() Matrix { return Translate(-p.X, -p.Y) }

// Float converts a pixel position to world units.
func (p PointU) Float() Point { return Point{X: float32(p.X), Y: float32(p.Y)} }

// Rect is an axis-aligned rectangle in world units.
type Rect struct {
	X, Y, W, H float32
}

// RectU is an axis-aligned rectangle in pixels.
type RectU struct {
	X, Y, W, H uint32
}

// R is shorthand for Rect{x, y, w, h}.
func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// RU is shorthand for RectU{x, y, w, h}.
func RU(x, y, w, h uint32) RectU { return RectU{X: x, Y: y, W: w, H: h} }

// Pos returns the top-left corner.
func (r Rect) Pos() Point { return Point{X: r.X, Y: r.Y} }

// Size returns the rectangle's extent.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.X+r.W && p.Y < r.Y+r.H
}

// ContainsAll reports whether inner fits completely inside r.
func (r Rect) ContainsAll(inner Rect) bool {
	return inner.X >= r.X && inner.Y >= r.Y &&
		inner.X+inner.W <= r.X+r.W && inner.Y+inner.H <= r.Y+r.H
}

// ContainsNone reports whether other lies completely outside r.
func (r Rect) ContainsNone(other Rect) bool {
	return other.X >= r.X+r.W || other.Y >= r.Y+r.H ||
		other.X+other.W <= r.X || other.Y+other.H <= r.Y
}

// Intersects reports whether r and other overlap.
func (r Rect) Intersects(other Rect) bool { return !r.ContainsNone(other) }

// Pos returns the top-left corner.
func (r RectU) Pos() PointU { return PointU{X: r.X, Y: r.Y} }

// Size returns the rectangle's extent.
func (r RectU) Size() SizeU { return SizeU{W: r.W, H: r.H} }

// Float converts a pixel rectangle to world units.
func (r RectU) Float() Rect {
	return Rect{X: float32(r.X), Y: float32(r.Y), W: float32(r.W), H: float32(r.H)}
}

// right and bottom return the exclusive edges of r. They are computed in
// 64 bits so rectangles reaching past math.MaxUint32 do not wrap.
func (r RectU) right() uint64  { return uint64(r.X) + uint64(r.W) }
func (r RectU) bottom() uint64 { return uint64(r.Y) + uint64(r.H) }

// Contains reports whether p lies inside r.
func (r RectU) Contains(p PointU) bool {
	return p.X >= r.X && p.Y >= r.Y && uint64(p.X) < r.right() && uint64(p.Y) < r.bottom()
}

// ContainsAll reports whether inner fits completely inside r.
func (r RectU) ContainsAll(inner RectU) bool {
	return inner.X >= r.X && inner.Y >= r.Y &&
		inner.right() <= r.right() && inner.bottom() <= r.bottom()
}

// ContainsNone reports whether other lies completely outside r.
func (r RectU) ContainsNone(other RectU) bool {
	return uint64(other.X) >= r.right() || uint64(other.Y) >= r.bottom() ||
		other.right() <= uint64(r.X) || other.bottom() <= uint64(r.Y)
}

// Intersects reports whether r and other overlap.
func (r RectU) Intersects(other RectU) bool { return !r.ContainsNone(other) }

// Clip trims other so that it fits inside r. It returns the clipped
// rectangle and the offset of its top-left corner relative to other's
// top-left corner. ok is false when other lies completely outside r or
// either rectangle is empty.
func (r RectU) Clip(other RectU) (clipped RectU, offset PointU, ok bool) {
	if r.W == 0 || r.H == 0 || other.W == 0 || other.H == 0 || r.ContainsNone(other) {
		return RectU{}, PointU{}, false
	}

	x, y, w, h := other.X, other.Y, other.W, other.H
	if x < r.X {
		w -= r.X - x
		x = r.X
	}
	if y < r.Y {
		h -= r.Y - y
		y = r.Y
	}
	if uint64(x)+uint64(w) > r.right() {
		w = uint32(r.right() - uint64(x))
	}
	if uint64(y)+uint64(h) > r.bottom() {
		h = uint32(r.bottom() - uint64(y))
	}

	return RectU{X: x, Y: y, W: w, H: h}, PointU{X: x - other.X, Y: y - other.Y}, true
}

// Rotation is an angle in radians.
type Rotation float32

// Deg returns a rotation of deg degrees.
func Deg(deg float32) Rotation { return Rotation(DegToRad(deg)) }

// Rad returns a rotation of rad radians.
func Rad(rad float32) Rotation { return Rotation(rad) }

// Degrees returns the angle in degrees.
func (r Rotation) Degrees() float32 { return RadToDeg(float32(r)) }

// Radians returns the angle in radians.
func (r Rotation) Radians() float32 { return float32(r) }

// Matrix returns the rotation matrix for r.
func (r Rotation) Matrix() Matrix { return Rotate(float32(r)) }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float32) float32 { return rad * 180 / math32.Pi }

// DegToRad converts degrees to radians.
func DegToRad(deg float32) float32 { return deg * math32.Pi / 180 }

// Scaling is a per-axis scale factor. The zero value is not the identity;
// use DefaultScaling or Reset.
type Scaling struct {
	X, Y float32
}

// DefaultScaling returns the identity scale (1,1).
func DefaultScaling() Scaling { return Scaling{X: 1, Y: 1} }

// Reset restores the identity scale.
func (s *Scaling) Reset() { s.X, s.Y = 1, 1 }

// Uniform sets both axes to f.
func (s *Scaling) Uniform(f float32) { s.X, s.Y = f, f }

// IsIdentity reports whether s is (1,1).
func (s Scaling) IsIdentity() bool { return s.X == 1 && s.Y == 1 }

// Matrix returns the scaling matrix for s.
func (s Scaling) Matrix() Matrix { return Scale(s.X, s.Y) }

// Transform positions, rotates and scales something in world space.
// It is a value type; copies are independent.
type Transform struct {
	Pos   Point
	Rot   Rotation
	Scale Scaling
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Scale: DefaultScaling()}
}

// WithPos returns a copy of t positioned at p.
func (t Transform) WithPos(p Point) Transform {
	t.Pos = p
	return t
}

// WithRot returns a copy of t rotated by r.
func (t Transform) WithRot(r Rotation) Transform {
	t.Rot = r
	return t
}

// WithScale returns a copy of t scaled by s.
func (t Transform) WithScale(s Scaling) Transform {
	t.Scale = s
	return t
}

// Matrix returns T·R·S. Rotation is skipped when zero and scaling when it
// is the identity, so the common translate-only case stays exact.
func (t Transform) Matrix() Matrix {
	m := t.Pos.TranslationMatrix()
	if t.Rot != 0 {
		m = m.Multiply(t.Rot.Matrix())
	}
	if !t.Scale.IsIdentity() {
		m = m.Multiply(t.Scale.Matrix())
	}
	return m
}
