package pbadmin

import (
	"context"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

const (
	defaultFontSize   = 40
	defaultFontIndent = 0
)

// Font is a typeface used to render product previews.
type Font struct {
	ID     int
	Title  string
	Size   int
	Indent int
	// FileName is the stored font file, File the upload of a new font.
	FileName string
	File     *nova.FilePart
}

type Fonts struct {
	r resource
}

func newFonts(c *nova.Client) *Fonts {
	return &Fonts{r: resource{client: c, name: "fonts"}}
}

func decodeFont(id int, v nova.Values) Font {
	font := Font{
		ID:       id,
		Title:    v.String("title"),
		Size:     defaultFontSize,
		Indent:   defaultFontIndent,
		FileName: v.String("file"),
	}
	if size := v.IntPtr("size"); size != nil {
		font.Size = *size
	}
	if indent := v.IntPtr("indent"); indent != nil {
		font.Indent = *indent
	}
	return font
}

func (f *Fonts) List(ctx context.Context, opts ListOptions) (nova.Listing[Font], error) {
	return listResource(ctx, f.r, opts, nil, func(row nova.Row, v nova.Values) (Font, error) {
		return decodeFont(int(row.ID), v), nil
	})
}

// Get reads a font from its edit form.
func (f *Fonts) Get(ctx context.Context, id int) (Font, error) {
	rec, err := f.r.updateFields(ctx, id)
	if err != nil {
		return Font{}, err
	}
	return decodeFont(id, rec.Values), nil
}

// Create uploads a new font. Unless lite is set the stored font is
// returned.
func (f *Fonts) Create(ctx context.Context, font Font, lite bool) (*Font, error) {
	if err := f.r.client.RequireWrite("create fonts"); err != nil {
		return nil, err
	}
	if err := requireNew(f.r.name, font.ID); err != nil {
		return nil, err
	}
	if font.File == nil || len(font.File.Data) == 0 {
		return nil, &nova.ValidationError{Resource: f.r.name, Reason: "a font file is required"}
	}

	form := nova.NewForm().
		Set("title", font.Title).
		SetInt("size", font.Size).
		SetInt("indent", font.Indent).
		SetFile("file", *font.File)
	id, err := f.r.create(ctx, form)
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := f.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
