package sprite

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Canvas is a CPU-side pixel buffer, stored row-major with one packed
// Color per pixel. It is never drawn directly; upload it with
// TextureFromCanvas.
//
// Every drawing operation clips silently to the canvas bounds.
type Canvas struct {
	size  SizeU
	data  []uint32
	dirty bool
}

// NewCanvas creates a canvas of the given size. When fill is non-nil every
// pixel is set to it, otherwise pixels start transparent.
func NewCanvas(size SizeU, fill *Color) *Canvas {
	c := &Canvas{
		size:  size,
		data:  make([]uint32, size.Area()),
		dirty: true,
	}
	if fill != nil {
		c.Clear(*fill)
	}
	return c
}

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() SizeU { return c.size }

// Pixels returns the backing pixel slice. Writes through it do not mark
// the canvas dirty.
func (c *Canvas) Pixels() []uint32 { return c.data }

// Dirty reports whether the canvas changed since the flag was last reset.
// The flag is advisory; nothing in this package reads it.
func (c *Canvas) Dirty() bool { return c.dirty }

// SetDirty sets the dirty flag.
func (c *Canvas) SetDirty(dirty bool) { c.dirty = dirty }

// Clear fills the whole canvas with col.
func (c *Canvas) Clear(col Color) {
	v := uint32(col)
	for i := range c.data {
		c.data[i] = v
	}
	c.dirty = true
}

func (c *Canvas) valid(p PointU) bool {
	return p.X < c.size.W && p.Y < c.size.H
}

func (c *Canvas) index(p PointU) int {
	return int(p.Y)*int(c.size.W) + int(p.X)
}

// Pixel returns the color at p. ok is false when p is out of bounds.
func (c *Canvas) Pixel(p PointU) (col Color, ok bool) {
	if !c.valid(p) {
		return 0, false
	}
	return Color(c.data[c.index(p)]), true
}

// SetPixel sets the color at p. Out-of-bounds writes are ignored.
func (c *Canvas) SetPixel(p PointU, col Color) {
	if !c.valid(p) {
		return
	}
	c.data[c.index(p)] = uint32(col)
	c.dirty = true
}

// HLine draws a horizontal line of w pixels starting at p.
func (c *Canvas) HLine(p PointU, w uint32, col Color) {
	if !c.valid(p) || w == 0 {
		return
	}
	if w > c.size.W-p.X {
		w = c.size.W - p.X
	}
	i := c.index(p)
	row := c.data[i : i+int(w)]
	v := uint32(col)
	for j := range row {
		row[j] = v
	}
	c.dirty = true
}

// VLine draws a vertical line of h pixels starting at p.
func (c *Canvas) VLine(p PointU, h uint32, col Color) {
	if !c.valid(p) || h == 0 {
		return
	}
	if h > c.size.H-p.Y {
		h = c.size.H - p.Y
	}
	i := c.index(p)
	stride := int(c.size.W)
	v := uint32(col)
	for range h {
		c.data[i] = v
		i += stride
	}
	c.dirty = true
}

// Rect draws the one-pixel outline of r.
func (c *Canvas) Rect(r RectU, col Color) {
	if r.W == 0 || r.H == 0 {
		return
	}
	c.HLine(r.Pos(), r.W, col)
	c.VLine(r.Pos(), r.H, col)
	// Edges past the canvas, including ones beyond math.MaxUint32, are
	// not drawn.
	if bottom := r.bottom() - 1; bottom < uint64(c.size.H) {
		c.HLine(PtU(r.X, uint32(bottom)), r.W, col)
	}
	if right := r.right() - 1; right < uint64(c.size.W) {
		c.VLine(PtU(uint32(right), r.Y), r.H, col)
	}
}

// RectFill fills r.
func (c *Canvas) RectFill(r RectU, col Color) {
	clipped, _, ok := RU(0, 0, c.size.W, c.size.H).Clip(r)
	if !ok {
		return
	}
	for y := clipped.Y; y < clipped.Y+clipped.H; y++ {
		c.HLine(PtU(clipped.X, y), clipped.W, col)
	}
}

// Blit copies src onto c with its top-left corner at pos. Pixels falling
// outside c are dropped. When blend is true src is composited with
// BlendSrcAlpha instead of replacing the destination.
func (c *Canvas) Blit(src *Canvas, pos PointU, blend bool) {
	dst := RU(pos.X, pos.Y, src.size.W, src.size.H)
	clipped, off, ok := RU(0, 0, c.size.W, c.size.H).Clip(dst)
	if !ok {
		return
	}
	for y := range clipped.H {
		si := src.index(PtU(off.X, off.Y+y))
		di := c.index(PtU(clipped.X, clipped.Y+y))
		srow := src.data[si : si+int(clipped.W)]
		drow := c.data[di : di+int(clipped.W)]
		if !blend {
			copy(drow, srow)
			continue
		}
		for x, s := range srow {
			drow[x] = uint32(BlendSrcAlpha(Color(s), Color(drow[x])))
		}
	}
	c.dirty = true
}

// Scaled returns a copy of c resampled to size with bilinear filtering.
func (c *Canvas) Scaled(size SizeU) *Canvas {
	dst := image.NewNRGBA(image.Rect(0, 0, int(size.W), int(size.H)))
	draw.BiLinear.Scale(dst, dst.Bounds(), c, c.Bounds(), draw.Src, nil)
	return canvasFromImage(dst)
}

// At implements image.Image.
func (c *Canvas) At(x, y int) color.Color {
	if x < 0 || y < 0 {
		return color.NRGBA{}
	}
	col, ok := c.Pixel(PtU(uint32(x), uint32(y)))
	if !ok {
		return color.NRGBA{}
	}
	r, g, b, a := col.Components8()
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

// Bounds implements image.Image.
func (c *Canvas) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(c.size.W), int(c.size.H))
}

// ColorModel implements image.Image.
func (c *Canvas) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bytes returns the pixels as R,G,B,A bytes, the layout GPU uploads use.
func (c *Canvas) Bytes() []byte {
	out := make([]byte, len(c.data)*4)
	for i, v := range c.data {
		o := i * 4
		out[o+0] = uint8(v)
		out[o+1] = uint8(v >> 8)
		out[o+2] = uint8(v >> 16)
		out[o+3] = uint8(v >> 24)
	}
	return out
}
