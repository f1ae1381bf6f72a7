// Package render provides the pixel buffer rendered frames are written
// into, plus the small set of raster operations the content variants
// need. An Image aliases its pixel storage with image.RGBA so hosts can
// hand frames to encoders without copying.
package render

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

const bytesPerPixel = 4

// Image is a tightly packed 32-bit RGBA pixel buffer. The bridge treats
// it as an opaque frame carrier: content variants paint into it on the
// owner thread, callers own it before and after the blocking call.
type Image struct {
	Data         []byte
	Width        int
	Height       int
	BytesPerLine int
}

// NewImage allocates a zeroed w x h buffer. Zero or negative dimensions
// yield an empty image rather than a panic.
func NewImage(w, h int) *Image {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Image{
		Data:         make([]byte, w*h*bytesPerPixel),
		Width:        w,
		Height:       h,
		BytesPerLine: w * bytesPerPixel,
	}
}

// FromRGBA wraps an image.RGBA without copying pixels.
func FromRGBA(src *image.RGBA) *Image {
	b := src.Bounds()
	return &Image{
		Data:         src.Pix,
		Width:        b.Dx(),
		Height:       b.Dy(),
		BytesPerLine: src.Stride,
	}
}

// RGBA returns an image.RGBA sharing this image's pixel storage.
// Mutations through either view are visible in both.
func (im *Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    im.Data,
		Stride: im.BytesPerLine,
		Rect:   image.Rect(0, 0, im.Width, im.Height),
	}
}

// Fill sets every pixel to c.
func (im *Image) Fill(c color.RGBA) {
	for y := 0; y < im.Height; y++ {
		row := im.Data[y*im.BytesPerLine : y*im.BytesPerLine+im.Width*bytesPerPixel]
		for x := 0; x < im.Width; x++ {
			row[x*bytesPerPixel+0] = c.R
			row[x*bytesPerPixel+1] = c.G
			row[x*bytesPerPixel+2] = c.B
			row[x*bytesPerPixel+3] = c.A
		}
	}
}

// FillRect fills the intersection of r with the image bounds.
func (im *Image) FillRect(r image.Rectangle, c color.RGBA) {
	r = r.Intersect(image.Rect(0, 0, im.Width, im.Height))
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := im.Data[y*im.BytesPerLine:]
		for x := r.Min.X; x < r.Max.X; x++ {
			blendPixel(row[x*bytesPerPixel:], c)
		}
	}
}

// blendPixel source-over composites c onto dst[0:4].
func blendPixel(dst []byte, c color.RGBA) {
	if c.A == 0xff {
		dst[0], dst[1], dst[2], dst[3] = c.R, c.G, c.B, c.A
		return
	}
	if c.A == 0 {
		return
	}
	a := uint32(c.A)
	ia := 0xff - a
	dst[0] = byte((uint32(c.R)*a + uint32(dst[0])*ia) / 0xff)
	dst[1] = byte((uint32(c.G)*a + uint32(dst[1])*ia) / 0xff)
	dst[2] = byte((uint32(c.B)*a + uint32(dst[2])*ia) / 0xff)
	dst[3] = byte(a + (uint32(dst[3])*ia)/0xff)
}

// DrawScaled source-over composites src into dst's rectangle r, scaling
// when bounds differ.
func DrawScaled(dst *Image, r image.Rectangle, src *Image) {
	if src == nil || src.Width == 0 || src.Height == 0 || r.Empty() {
		return
	}
	xdraw.ApproxBiLinear.Scale(dst.RGBA(), r, src.RGBA(), src.RGBA().Bounds(), xdraw.Over, nil)
}
