package sprite

import (
	"image/color"
	"math/rand/v2"
)

// Color is a packed 8-bit-per-channel RGBA color. Alpha occupies the
// highest byte and red the lowest, which is the byte order GPUs read as
// RGBA8 from little-endian memory.
type Color uint32

// Common colors.
const (
	Transparent Color = 0
	Black       Color = 0xFF000000
	White       Color = 0xFFFFFFFF
)

// RGBA8 packs four 8-bit components.
func RGBA8(r, g, b, a uint8) Color {
	return Color(uint32(a)<<24 | uint32(b)<<16 | uint32(g)<<8 | uint32(r))
}

// RGB8 packs three 8-bit components with full alpha.
func RGB8(r, g, b uint8) Color { return RGBA8(r, g, b, 255) }

// RGBAF packs four float components. Each is clamped to [0,1] first.
func RGBAF(r, g, b, a float32) Color {
	return RGBA8(floatToByte(r), floatToByte(g), floatToByte(b), floatToByte(a))
}

// RGBF packs three float components with full alpha.
func RGBF(r, g, b float32) Color { return RGBAF(r, g, b, 1) }

// Gray returns an opaque gray of intensity v in [0,1].
func Gray(v float32) Color {
	b := floatToByte(v)
	return RGBA8(b, b, b, 255)
}

// RandomColor returns an opaque color with random RGB components.
func RandomColor(rng *rand.Rand) Color {
	v := rng.Uint32()
	return Color(v | 0xFF000000)
}

// Components8 unpacks the color into r, g, b, a bytes.
func (c Color) Components8() (r, g, b, a uint8) {
	return uint8(c), uint8(c >> 8), uint8(c >> 16), uint8(c >> 24)
}

// ComponentsF unpacks the color into r, g, b, a floats in [0,1].
func (c Color) ComponentsF() (r, g, b, a float32) {
	r8, g8, b8, a8 := c.Components8()
	return byteToFloat(r8), byteToFloat(g8), byteToFloat(b8), byteToFloat(a8)
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float32) Color {
	return c&0x00FFFFFF | Color(floatToByte(a))<<24
}

// RGBA implements color.Color. The result is alpha-premultiplied as
// image/color requires.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: uint8(c), G: uint8(c >> 8), B: uint8(c >> 16), A: uint8(c >> 24)}.RGBA()
}

// FromColor converts any color.Color to a packed Color.
func FromColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA8(n.R, n.G, n.B, n.A)
}

// BlendSrcAlpha composites src over dst using src's alpha. The
// destination alpha is kept.
func BlendSrcAlpha(src, dst Color) Color {
	sr, sg, sb, sa := src.Components8()
	switch sa {
	case 255:
		return src
	case 0:
		return dst
	}
	dr, dg, db, da := dst.Components8()
	return RGBA8(blend8(sr, dr, sa), blend8(sg, dg, sa), blend8(sb, db, sa), da)
}

func blend8(s, d, a uint8) uint8 {
	sa := uint32(s) * uint32(a) / 255
	da := uint32(d) * (255 - uint32(a)) / 255
	return uint8(sa + da)
}

func floatToByte(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v * 255)
}

func byteToFloat(v uint8) float32 {
	return float32(v) / 255
}
