package sprite

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gogpu/sprite/gfx"
	"github.com/gogpu/sprite/gfx/record"
)

func newTestTexture(t *testing.T, dev *record.Device, w, h uint32) *Texture {
	t.Helper()
	tex, err := NewTexture(dev, SzU(w, h), make([]byte, w*h*4), gfx.NearestFilters)
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	return tex
}

func TestTextureSubUV(t *testing.T) {
	dev := record.New()
	root := newTestTexture(t, dev, 4, 4)

	tests := []struct {
		name     string
		tex      *Texture
		size     SizeU
		uv1, uv2 Point
	}{
		{"root", root, SzU(4, 4), Pt(0, 0), Pt(1, 1)},
		{"centre", root.Sub(RU(1, 1, 2, 2)), SzU(2, 2), Pt(0.25, 0.25), Pt(0.75, 0.75)},
		{"nested", root.Sub(RU(1, 1, 2, 2)).Sub(RU(1, 0, 1, 1)), SzU(1, 1), Pt(0.5, 0.25), Pt(0.75, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tex.Size(); got != tt.size {
				t.Errorf("Size() = %+v, want %+v", got, tt.size)
			}
			uv1, uv2 := tt.tex.UV()
			if !approx(uv1.X, tt.uv1.X) || !approx(uv1.Y, tt.uv1.Y) ||
				!approx(uv2.X, tt.uv2.X) || !approx(uv2.Y, tt.uv2.Y) {
				t.Errorf("UV() = %+v, %+v; want %+v, %+v", uv1, uv2, tt.uv1, tt.uv2)
			}
		})
	}
}

func TestTextureRelations(t *testing.T) {
	dev := record.New()
	root := newTestTexture(t, dev, 8, 8)
	sub := root.Sub(RU(2, 2, 4, 4))

	if root.IsSub() || !sub.IsSub() {
		t.Errorf("IsSub: root=%v sub=%v", root.IsSub(), sub.IsSub())
	}
	if root.Parent() != nil || sub.Parent() != root {
		t.Error("Parent mismatch")
	}
	if got := root.Region(); got != RU(0, 0, 8, 8) {
		t.Errorf("root Region() = %+v", got)
	}
	if got := sub.Region(); got != RU(2, 2, 4, 4) {
		t.Errorf("sub Region() = %+v", got)
	}
	if root.Image() != sub.Image() {
		t.Error("sub-texture does not share the root image")
	}
}

func TestTextureEqual(t *testing.T) {
	dev := record.New()
	a := newTestTexture(t, dev, 4, 4)
	b := newTestTexture(t, dev, 4, 4)

	tests := []struct {
		name string
		x, y *Texture
		want bool
	}{
		{"same", a, a, true},
		{"clone", a, a.Clone(), true},
		{"sub of same root", a, a.Sub(RU(0, 0, 1, 1)), true},
		{"different roots", a, b, false},
		{"nil and nil", nil, nil, true},
		{"nil and texture", nil, a, false},
		{"texture and nil", a, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Equal(tt.y); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTextureRefCounting(t *testing.T) {
	dev := record.New()
	root := newTestTexture(t, dev, 4, 4)
	img := root.Image().(*record.Image)
	sub := root.Sub(RU(0, 0, 2, 2))
	clone := root.Clone()

	root.Release()
	root.Release() // second release is ignored
	if img.Dead {
		t.Fatal("image destroyed while handles remain")
	}
	sub.Release()
	if img.Dead {
		t.Fatal("image destroyed while a clone remains")
	}
	clone.Release()
	if !img.Dead {
		t.Error("image not destroyed after the last release")
	}

	var none *Texture
	none.Release()
}

func TestNewTextureErrors(t *testing.T) {
	if _, err := NewTexture(nil, SzU(1, 1), make([]byte, 4), gfx.NearestFilters); !errors.Is(err, ErrNoDevice) {
		t.Errorf("nil device: err = %v, want ErrNoDevice", err)
	}
	if _, err := NewTexture(record.New(), SzU(0, 4), nil, gfx.NearestFilters); !errors.Is(err, ErrEmptyCanvas) {
		t.Errorf("zero size: err = %v, want ErrEmptyCanvas", err)
	}
	if _, err := NewTexture(record.New(), SzU(2, 2), make([]byte, 3), gfx.NearestFilters); err == nil {
		t.Error("short pixel data accepted")
	}
}

func TestTextureFromCanvas(t *testing.T) {
	fill := RGBA8(1, 2, 3, 4)
	c := NewCanvas(SzU(2, 1), &fill)

	tex, err := TextureFromCanvas(record.New(), c)
	if err != nil {
		t.Fatalf("TextureFromCanvas: %v", err)
	}
	desc := tex.Image().(*record.Image).Desc
	if desc.Width != 2 || desc.Height != 1 {
		t.Errorf("image size = %dx%d", desc.Width, desc.Height)
	}
	if desc.Filters != gfx.NearestFilters {
		t.Errorf("filters = %+v, want nearest", desc.Filters)
	}
	if !bytes.Equal(desc.Pixels, []byte{1, 2, 3, 4, 1, 2, 3, 4}) {
		t.Errorf("pixels = %v", desc.Pixels)
	}

	lin, err := TextureFromCanvasFiltered(record.New(), c, gfx.LinearFilters)
	if err != nil {
		t.Fatalf("TextureFromCanvasFiltered: %v", err)
	}
	if got := lin.Image().(*record.Image).Desc.Filters; got != gfx.LinearFilters {
		t.Errorf("filters = %+v, want linear", got)
	}
}
