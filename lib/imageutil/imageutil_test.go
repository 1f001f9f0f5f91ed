package imageutil

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func makePng(t testing.TB, w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	cases := []struct {
		w, h   int
		bounds Bounds
		outW   int
		outH   int
	}{
		{w: 400, h: 200, bounds: Bounds{}, outW: 400, outH: 200},
		{w: 400, h: 200, bounds: Bounds{MaxWidth: 200}, outW: 200, outH: 100},
		{w: 200, h: 400, bounds: Bounds{MaxHeight: 100}, outW: 50, outH: 100},
		{w: 3840, h: 2160, bounds: Exact(1920, 1080), outW: 1920, outH: 1080},
		{w: 100, h: 100, bounds: Bounds{MaxWidth: 400, MaxHeight: 400}, outW: 100, outH: 100},
	}
	for _, c := range cases {
		w, h := fit(c.w, c.h, c.bounds)
		require.Equal(t, c.outW, w)
		require.Equal(t, c.outH, h)
	}
}

func TestNormalize(t *testing.T) {
	data := makePng(t, 64, 32)

	res, err := Normalize(data, Bounds{MaxWidth: 32})
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", res.MimeType)
	require.Equal(t, 32, res.Width)
	require.Equal(t, 16, res.Height)

	decoded, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	require.Equal(t, image.Pt(32, 16), decoded.Bounds().Size())
}

func TestNormalizeTooSmall(t *testing.T) {
	data := makePng(t, 64, 32)

	_, err := Normalize(data, Exact(1920, 1080))
	require.ErrorIs(t, err, ErrTooSmall)
}

func TestNormalizeGarbage(t *testing.T) {
	_, err := Normalize([]byte("definitely not an image"), Bounds{})
	require.Error(t, err)
}
