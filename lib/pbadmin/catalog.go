package pbadmin

import (
	"context"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

// Format is a file format a product can be downloaded in.
type Format struct {
	ID    int
	Title string
}

type Formats struct {
	r resource
}

func newFormats(c *nova.Client) *Formats {
	return &Formats{r: resource{client: c, name: "formats"}}
}

func decodeFormat(id int, v nova.Values) Format {
	return Format{ID: id, Title: v.String("title")}
}

func (f *Formats) List(ctx context.Context, opts ListOptions) (nova.Listing[Format], error) {
	return listResource(ctx, f.r, opts, nil, func(row nova.Row, v nova.Values) (Format, error) {
		return decodeFormat(int(row.ID), v), nil
	})
}

func (f *Formats) Get(ctx context.Context, id int) (Format, error) {
	rec, err := f.r.detail(ctx, id)
	if err != nil {
		return Format{}, err
	}
	return decodeFormat(rec.ID, rec.Values), nil
}

// Compatibility is an application a product works with.
type Compatibility struct {
	ID    int
	Title string
	Alias string
	Color string
}

type Compatibilities struct {
	r resource
}

func newCompatibilities(c *nova.Client) *Compatibilities {
	return &Compatibilities{r: resource{client: c, name: "compatibilities"}}
}

func decodeCompatibility(id int, v nova.Values) Compatibility {
	return Compatibility{
		ID:    id,
		Title: v.String("title"),
		Alias: v.String("alias"),
		Color: v.String("color"),
	}
}

func (c *Compatibilities) List(ctx context.Context, opts ListOptions) (nova.Listing[Compatibility], error) {
	return listResource(ctx, c.r, opts, nil, func(row nova.Row, v nova.Values) (Compatibility, error) {
		return decodeCompatibility(int(row.ID), v), nil
	})
}

func (c *Compatibilities) Get(ctx context.Context, id int) (Compatibility, error) {
	rec, err := c.r.detail(ctx, id)
	if err != nil {
		return Compatibility{}, err
	}
	return decodeCompatibility(rec.ID, rec.Values), nil
}

// Licence is a public licence products are published under.
type Licence struct {
	ID   int
	Name string
	URL  string
}

type Licences struct {
	r resource
}

func newLicences(c *nova.Client) *Licences {
	return &Licences{r: resource{client: c, name: "licenses"}}
}

func (l *Licences) List(ctx context.Context, opts ListOptions) (nova.Listing[Licence], error) {
	return listResource(ctx, l.r, opts, nil, func(row nova.Row, v nova.Values) (Licence, error) {
		return Licence{
			ID:   int(row.ID),
			Name: v.String("name"),
			URL:  v.String("url"),
		}, nil
	})
}
