package pbadmin

import (
	"context"

	"github.com/vcslav-v/pb-admin/lib/nova"
)

type Category struct {
	ID           int
	Title        string
	DisplayMenu  bool
	Headline     string
	Sort         *int
	ShowInFilter bool
	Image        *nova.Image
	ImageRetina  *nova.Image
}

type Categories struct {
	r resource
}

func newCategories(c *nova.Client) *Categories {
	return &Categories{r: resource{
		client: c,
		name:   "categories",
		kinds: nova.Kinds{
			"category_image":        nova.Media,
			"category_image_retina": nova.Media,
		},
	}}
}

func (c *Categories) decode(id int, v nova.Values) (Category, error) {
	image, err := v.Image("category_image")
	if err != nil {
		return Category{}, err
	}
	retina, err := v.Image("category_image_retina")
	if err != nil {
		return Category{}, err
	}
	return Category{
		ID:           id,
		Title:        v.String("title"),
		DisplayMenu:  v.Bool("display_menu"),
		Headline:     v.String("headline"),
		Sort:         v.IntPtr("sort"),
		ShowInFilter: v.Bool("show_in_filter"),
		Image:        image,
		ImageRetina:  retina,
	}, nil
}

func (c *Categories) List(ctx context.Context, opts ListOptions) (nova.Listing[Category], error) {
	return listResource(ctx, c.r, opts, nil, func(row nova.Row, v nova.Values) (Category, error) {
		return c.decode(int(row.ID), v)
	})
}

func (c *Categories) Get(ctx context.Context, id int) (Category, error) {
	rec, err := c.r.detail(ctx, id)
	if err != nil {
		return Category{}, err
	}
	return c.decode(rec.ID, rec.Values)
}

// PageID returns the site page of a category.
func (c Category) PageID() (int, bool) {
	id, ok := CategoryPageMap[c.ID]
	return id, ok
}
