package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnail_FitsBoundingBox(t *testing.T) {
	p := NewProcessor(80)

	out, err := p.Thumbnail(bytes.NewReader(pngFixture(t, 600, 300)), SizeThumbnail)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 150, img.Bounds().Dx())
	assert.Equal(t, 75, img.Bounds().Dy())
}

func TestThumbnail_DoesNotUpscale(t *testing.T) {
	p := NewProcessor(0)

	out, err := p.Thumbnail(bytes.NewReader(pngFixture(t, 40, 20)), SizeThumbnail)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestThumbnail_NotAnImage(t *testing.T) {
	_, err := NewProcessor(85).Thumbnail(strings.NewReader("%PDF-1.7"), SizeThumbnail)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestIsImageContentType(t *testing.T) {
	assert.True(t, IsImageContentType("image/png"))
	assert.True(t, IsImageContentType("IMAGE/JPEG; charset=binary"))
	assert.False(t, IsImageContentType("application/pdf"))
	assert.False(t, IsImageContentType(""))
}
