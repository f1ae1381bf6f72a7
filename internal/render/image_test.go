package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImage(t *testing.T) {
	im := NewImage(4, 3)
	require.Equal(t, 4, im.Width)
	require.Equal(t, 3, im.Height)
	require.Equal(t, 16, im.BytesPerLine)
	require.Len(t, im.Data, 48)

	empty := NewImage(-1, -1)
	require.Zero(t, empty.Width)
	require.Empty(t, empty.Data)
}

func TestRGBASharesStorage(t *testing.T) {
	im := NewImage(2, 2)
	rgba := im.RGBA()
	rgba.SetRGBA(1, 1, color.RGBA{R: 0xff, A: 0xff})
	// Mutation through the RGBA view lands in the same backing array.
	off := 1*im.BytesPerLine + 1*4
	assert.Equal(t, byte(0xff), im.Data[off])
	assert.Equal(t, byte(0xff), im.Data[off+3])
}

func TestFromRGBARoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(2, 0, color.RGBA{G: 0x80, A: 0xff})
	im := FromRGBA(src)
	require.Equal(t, 3, im.Width)
	require.Equal(t, 2, im.Height)
	// Same pixel slice, not a copy.
	src.Pix[0] = 0x42
	assert.Equal(t, byte(0x42), im.Data[0])
}

func TestFillRectClipsToBounds(t *testing.T) {
	im := NewImage(2, 2)
	im.FillRect(image.Rect(1, 1, 10, 10), color.RGBA{B: 0xff, A: 0xff})
	assert.Equal(t, byte(0), im.Data[2])
	off := 1*im.BytesPerLine + 1*4
	assert.Equal(t, byte(0xff), im.Data[off+2])
}

func TestFillRectBlendsAlpha(t *testing.T) {
	im := NewImage(1, 1)
	im.Fill(color.RGBA{R: 0xff, A: 0xff})
	im.FillRect(image.Rect(0, 0, 1, 1), color.RGBA{B: 0xff, A: 0x80})
	// Half-opaque blue over opaque red: both channels present.
	assert.InDelta(t, 0x7f, int(im.Data[0]), 2)
	assert.InDelta(t, 0x80, int(im.Data[2]), 2)
	assert.Equal(t, byte(0xff), im.Data[3])
}

func TestDrawScaled(t *testing.T) {
	src := NewImage(1, 1)
	src.Fill(color.RGBA{R: 0xff, A: 0xff})
	dst := NewImage(4, 4)
	DrawScaled(dst, image.Rect(0, 0, 4, 4), src)
	assert.Equal(t, byte(0xff), dst.Data[0])
	last := 3*dst.BytesPerLine + 3*4
	assert.Equal(t, byte(0xff), dst.Data[last])

	// Degenerate inputs are ignored.
	DrawScaled(dst, image.Rect(0, 0, 4, 4), nil)
	DrawScaled(dst, image.Rectangle{}, src)
}
