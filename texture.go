package sprite

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/sprite/gfx"
)

// Texture is a shareable, immutable handle to GPU-resident image data.
//
// A texture is either a root texture, which owns a gfx.Image, or a
// sub-texture, which names a pixel region of a parent texture without
// copying pixels. Sub-textures may be nested; binding always resolves to
// the root image.
//
// The root image is reference counted: the texture returned by a
// constructor holds one reference, as does every Sub or Clone derived from
// it. The image is destroyed when the last handle is released.
//
// A nil *Texture means "no texture".
type Texture struct {
	src      textureSource
	released atomic.Bool
}

// textureSource is the closed set of texture variants: *rootTexture and
// *subTexture.
type textureSource interface {
	image() *sharedImage
	size() SizeU
	uv() (Point, Point)
}

type sharedImage struct {
	img  gfx.Image
	refs atomic.Int32
}

func (s *sharedImage) retain() { s.refs.Add(1) }

func (s *sharedImage) release() {
	if s.refs.Add(-1) == 0 {
		s.img.Destroy()
		Logger().Debug("sprite: texture image destroyed")
	}
}

type rootTexture struct {
	shared *sharedImage
	sz     SizeU
}

func (r *rootTexture) image() *sharedImage { return r.shared }
func (r *rootTexture) size() SizeU         { return r.sz }
func (r *rootTexture) uv() (Point, Point)  { return Point{0, 0}, Point{1, 1} }

type subTexture struct {
	parent *Texture
	region RectU
}

func (s *subTexture) image() *sharedImage { return s.parent.src.image() }
func (s *subTexture) size() SizeU         { return s.region.Size() }

// uv derives the region's UV rectangle from the parent's. No bounds check
// is made: the parent may be larger or smaller than the region expects.
func (s *subTexture) uv() (Point, Point) {
	uv1, uv2 := s.parent.src.uv()
	psize := s.parent.src.size()
	du := (uv2.X - uv1.X) / float32(psize.W)
	dv := (uv2.Y - uv1.Y) / float32(psize.H)

	u1 := uv1.X + float32(s.region.X)*du
	v1 := uv1.Y + float32(s.region.Y)*dv
	u2 := u1 + float32(s.region.W)*du
	v2 := v1 + float32(s.region.H)*dv
	return Point{u1, v1}, Point{u2, v2}
}

// WrapImage adopts an already uploaded image as a root texture.
func WrapImage(img gfx.Image) *Texture {
	w, h := img.Size()
	shared := &sharedImage{img: img}
	shared.refs.Store(1)
	return &Texture{src: &rootTexture{shared: shared, sz: SzU(uint32(w), uint32(h))}}
}

// NewTexture uploads RGBA8 pixels as a new root texture.
func NewTexture(dev gfx.Device, size SizeU, pixels []byte, filters gfx.Filters) (*Texture, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}
	if size.W == 0 || size.H == 0 {
		return nil, ErrEmptyCanvas
	}
	img, err := dev.NewImage(gfx.ImageDesc{
		Label:   "sprite-texture",
		Width:   int(size.W),
		Height:  int(size.H),
		Pixels:  pixels,
		Filters: filters,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture image: %w", err)
	}
	return WrapImage(img), nil
}

// TextureFromCanvas uploads a canvas with nearest-neighbour filtering.
func TextureFromCanvas(dev gfx.Device, c *Canvas) (*Texture, error) {
	return TextureFromCanvasFiltered(dev, c, gfx.NearestFilters)
}

// TextureFromCanvasFiltered uploads a canvas with the given filters.
func TextureFromCanvasFiltered(dev gfx.Device, c *Canvas, filters gfx.Filters) (*Texture, error) {
	return NewTexture(dev, c.Size(), c.Bytes(), filters)
}

// Sub returns a sub-texture covering region of t, in t's pixel space. It
// shares t's root image and does not validate region against t's size.
func (t *Texture) Sub(region RectU) *Texture {
	t.src.image().retain()
	return &Texture{src: &subTexture{parent: t, region: region}}
}

// Clone returns another handle to the same texture, holding its own
// reference to the root image.
func (t *Texture) Clone() *Texture {
	t.src.image().retain()
	return &Texture{src: t.src}
}

// Release drops this handle's reference to the root image. It is safe to
// call more than once; only the first call counts.
func (t *Texture) Release() {
	if t == nil || !t.released.CompareAndSwap(false, true) {
		return
	}
	t.src.image().release()
}

// Size returns the texture size in pixels. For a sub-texture this is the
// region's size, not the parent's.
func (t *Texture) Size() SizeU { return t.src.size() }

// UV returns the normalised texture coordinates of the top-left and
// bottom-right corners.
func (t *Texture) UV() (Point, Point) { return t.src.uv() }

// IsSub reports whether t is a sub-texture.
func (t *Texture) IsSub() bool {
	_, ok := t.src.(*subTexture)
	return ok
}

// Parent returns the texture a sub-texture was cut from, or nil for a root
// texture.
func (t *Texture) Parent() *Texture {
	if s, ok := t.src.(*subTexture); ok {
		return s.parent
	}
	return nil
}

// Region returns the sub-texture region, or the full extent for a root
// texture.
func (t *Texture) Region() RectU {
	if s, ok := t.src.(*subTexture); ok {
		return s.region
	}
	sz := t.src.size()
	return RU(0, 0, sz.W, sz.H)
}

// Image returns the root image backing t.
func (t *Texture) Image() gfx.Image { return t.src.image().img }

// Bind binds the root image.
func (t *Texture) Bind() { t.src.image().img.Bind() }

// Equal reports whether t and o draw from the same root image. Two nil
// textures are equal.
func (t *Texture) Equal(o *Texture) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.src.image() == o.src.image()
}
