package sprite

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	// Decoders available to CanvasFromFile and CanvasFromMemory.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"golang.org/x/image/draw"
)

// CanvasFromFile decodes an image file into a new canvas. PNG, JPEG, GIF,
// BMP, TIFF and WebP are recognised.
func CanvasFromFile(path string) (*Canvas, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	c, err := DecodeCanvas(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// CanvasFromMemory decodes an in-memory image into a new canvas.
func CanvasFromMemory(data []byte) (*Canvas, error) {
	return DecodeCanvas(bytes.NewReader(data))
}

// DecodeCanvas decodes an image stream into a new canvas.
func DecodeCanvas(r io.Reader) (*Canvas, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("decode %s image: %w", format, ErrEmptyCanvas)
	}
	Logger().Debug("sprite: decoded image", "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return canvasFromImage(img), nil
}

// CanvasFromImage copies any image.Image into a new canvas.
func CanvasFromImage(img image.Image) *Canvas {
	return canvasFromImage(img)
}

func canvasFromImage(img image.Image) *Canvas {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := nrgba.Bounds().Dx(), nrgba.Bounds().Dy()
	c := NewCanvas(SzU(uint32(w), uint32(h)), nil)
	for y := range h {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := range w {
			o := x * 4
			c.data[y*w+x] = uint32(RGBA8(row[o], row[o+1], row[o+2], row[o+3]))
		}
	}
	return c
}

// ToImage converts the canvas to an image.NRGBA.
func (c *Canvas) ToImage() *image.NRGBA {
	img := image.NewNRGBA(c.Bounds())
	copy(img.Pix, c.Bytes())
	return img
}

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.ToImage())
}

// SavePNG saves the canvas to a PNG file.
func (c *Canvas) SavePNG(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := c.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
