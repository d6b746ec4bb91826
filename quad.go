package sprite

// Quad is a single renderable rectangle: a transform, an origin, an
// optional explicit size, a color and an optional texture.
//
// The quad's size is its explicit size when one was set, otherwise its
// texture's size. A quad with neither cannot be rendered.
type Quad struct {
	transform Transform
	origin    Point
	size      Size
	hasSize   bool
	color     Color
	texture   *Texture
}

// NewQuad returns an untextured white quad with the identity transform and
// no size.
func NewQuad() Quad {
	return Quad{
		transform: NewTransform(),
		color:     White,
	}
}

// Transform returns the quad's transform.
func (q *Quad) Transform() Transform { return q.transform }

// SetTransform replaces the quad's transform.
func (q *Quad) SetTransform(t Transform) { q.transform = t }

func (q *Quad) Pos() Point            { return q.transform.Pos }
func (q *Quad) Rot() Rotation         { return q.transform.Rot }
func (q *Quad) Scale() Scaling        { return q.transform.Scale }
func (q *Quad) Origin() Point         { return q.origin }
func (q *Quad) Color() Color          { return q.color }
func (q *Quad) Texture() *Texture     { return q.texture }
func (q *Quad) SetPos(p Point)        { q.transform.Pos = p }
func (q *Quad) SetRot(r Rotation)     { q.transform.Rot = r }
func (q *Quad) SetScale(s Scaling)    { q.transform.Scale = s }
func (q *Quad) SetOrigin(o Point)     { q.origin = o }
func (q *Quad) SetColor(c Color)      { q.color = c }
func (q *Quad) SetTexture(t *Texture) { q.texture = t }

// SetSize forces the quad's size, overriding the texture size.
func (q *Quad) SetSize(s Size) {
	q.size = s
	q.hasSize = true
}

// ClearSize removes a forced size.
func (q *Quad) ClearSize() {
	q.size = Size{}
	q.hasSize = false
}

// HasSize reports whether the quad has an explicit size or a texture.
func (q *Quad) HasSize() bool {
	return q.hasSize || q.texture != nil
}

// Size returns the quad's resolved size. It panics when HasSize is false.
func (q *Quad) Size() Size {
	switch {
	case q.hasSize:
		return q.size
	case q.texture != nil:
		return q.texture.Size().Float()
	default:
		panic("sprite: quad has no texture or forced size")
	}
}

// LocalMatrix maps the quad's local rectangle (0,0)-(w,h) to world space:
// the transform matrix followed by a translation by -origin.
func (q *Quad) LocalMatrix() Matrix {
	m := q.transform.Matrix()
	if !q.origin.IsZero() {
		m = m.Multiply(q.origin.OriginMatrix())
	}
	return m
}

// uvRect returns the texture UV rectangle, or a degenerate rectangle at
// (0,0) for untextured quads.
func (q *Quad) uvRect() (Point, Point) {
	if q.texture == nil {
		return Point{}, Point{}
	}
	return q.texture.UV()
}

// CPUVertices returns the four world-space corners in the order
// (0,0), (w,0), (0,h), (w,h).
func (q *Quad) CPUVertices() [4]CPUVertex {
	m := q.LocalMatrix()
	size := q.Size()
	uv1, uv2 := q.uvRect()
	col := uint32(q.color)

	p0 := m.Apply(Point{0, 0})
	p1 := m.Apply(Point{size.W, 0})
	p2 := m.Apply(Point{0, size.H})
	p3 := m.Apply(Point{size.W, size.H})

	return [4]CPUVertex{
		{Pos: [3]float32{p0.X, p0.Y, 1}, Color: col, U: uv1.X, V: uv1.Y},
		{Pos: [3]float32{p1.X, p1.Y, 1}, Color: col, U: uv2.X, V: uv1.Y},
		{Pos: [3]float32{p2.X, p2.Y, 1}, Color: col, U: uv1.X, V: uv2.Y},
		{Pos: [3]float32{p3.X, p3.Y, 1}, Color: col, U: uv2.X, V: uv2.Y},
	}
}

// GPUVertices returns the four local corners, each carrying the raw
// transform parameters for the vertex shader to rebuild the matrix.
func (q *Quad) GPUVertices() [4]GPUVertex {
	size := q.Size()
	uv1, uv2 := q.uvRect()

	base := GPUVertex{
		TX:    q.transform.Pos.X,
		TY:    q.transform.Pos.Y,
		Rot:   q.transform.Rot.Radians(),
		SX:    q.transform.Scale.X,
		SY:    q.transform.Scale.Y,
		OX:    q.origin.X,
		OY:    q.origin.Y,
		Color: uint32(q.color),
	}

	v := [4]GPUVertex{base, base, base, base}
	v[0].PX, v[0].PY, v[0].U, v[0].V = 0, 0, uv1.X, uv1.Y
	v[1].PX, v[1].PY, v[1].U, v[1].V = size.W, 0, uv2.X, uv1.Y
	v[2].PX, v[2].PY, v[2].U, v[2].V = 0, size.H, uv1.X, uv2.Y
	v[3].PX, v[3].PY, v[3].U, v[3].V = size.W, size.H, uv2.X, uv2.Y
	return v
}
