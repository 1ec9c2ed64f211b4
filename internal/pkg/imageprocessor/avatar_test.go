package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestNormalizeAvatarPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(600, 300)))

	out, err := NormalizeAvatar(buf.Bytes(), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.Mime)

	decoded, err := png.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 256, decoded.Bounds().Dx())
	assert.Equal(t, 128, decoded.Bounds().Dy())
}

func TestNormalizeAvatarJPEGKeepsSmallImages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(100, 80), nil))

	out, err := NormalizeAvatar(buf.Bytes(), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.Mime)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, decoded.Bounds().Dx())
	assert.Equal(t, 80, decoded.Bounds().Dy())
}

func TestNormalizeAvatarPassesGIFThrough(t *testing.T) {
	raw := []byte("GIF89a not really decoded")
	out, err := NormalizeAvatar(raw, "image/gif")
	require.NoError(t, err)
	assert.Equal(t, raw, out.Data)
	assert.Equal(t, "image/gif", out.Mime)
}

func TestNormalizeAvatarRejects(t *testing.T) {
	_, err := NormalizeAvatar([]byte("<svg/>"), "image/svg+xml")
	assert.Error(t, err)

	_, err = NormalizeAvatar([]byte("garbage"), "image/png")
	assert.Error(t, err)
}
