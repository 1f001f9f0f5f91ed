package imageutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const JpegQuality = 90

var ErrTooSmall = errors.New("image is too small")

// Bounds constrains a normalized image. Zero values mean unbounded.
type Bounds struct {
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// Exact requires and limits an image to w x h.
func Exact(w, h int) Bounds {
	return Bounds{MinWidth: w, MinHeight: h, MaxWidth: w, MaxHeight: h}
}

type Result struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// NewFileName returns a random file name for a normalized upload.
func NewFileName() string {
	return uuid.NewString() + ".jpg"
}

// fit shrinks w x h to fit inside maxW x maxH keeping the aspect ratio, it
// never enlarges.
func fit(w, h int, b Bounds) (int, int) {
	if b.MaxWidth > 0 && w > b.MaxWidth {
		h = max(1, h*b.MaxWidth/w)
		w = b.MaxWidth
	}
	if b.MaxHeight > 0 && h > b.MaxHeight {
		w = max(1, w*b.MaxHeight/h)
		h = b.MaxHeight
	}
	return w, h
}

// Normalize decodes an image (jpeg, png, gif or webp), checks it against
// the minimum bounds, scales it down into the maximum bounds and
// re-encodes it as an RGB jpeg.
func Normalize(data []byte, b Bounds) (Result, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode image: %w", err)
	}
	size := src.Bounds().Size()

	if b.MinWidth > 0 && size.X < b.MinWidth {
		return Result{}, fmt.Errorf("%w: width must be at least %dpx, got %dpx", ErrTooSmall, b.MinWidth, size.X)
	}
	if b.MinHeight > 0 && size.Y < b.MinHeight {
		return Result{}, fmt.Errorf("%w: height must be at least %dpx, got %dpx", ErrTooSmall, b.MinHeight, size.Y)
	}

	w, h := fit(size.X, size.Y, b)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// transparent pixels end up white instead of black in the jpeg
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == size.X && h == size.Y {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	}

	var out bytes.Buffer
	err = jpeg.Encode(&out, dst, &jpeg.Options{Quality: JpegQuality})
	if err != nil {
		return Result{}, err
	}
	return Result{
		Data:     out.Bytes(),
		Width:    w,
		Height:   h,
		MimeType: "image/jpeg",
	}, nil
}
