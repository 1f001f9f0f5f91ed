package pbadmin

import (
	"context"
	"fmt"

	"github.com/vcslav-v/pb-admin/lib/imageutil"
	"github.com/vcslav-v/pb-admin/lib/nova"
)

type Creator struct {
	ID          int
	Name        string
	Link        string
	Description string
	// nil in listings
	Avatar *nova.Image
}

type Creators struct {
	r resource
}

func newCreators(c *nova.Client) *Creators {
	return &Creators{r: resource{
		client: c,
		name:   "creators",
		kinds:  nova.Kinds{"avatar": nova.Media},
	}}
}

func (c *Creators) List(ctx context.Context, opts ListOptions) (nova.Listing[Creator], error) {
	return listResource(ctx, c.r, opts, nil, func(row nova.Row, v nova.Values) (Creator, error) {
		return Creator{
			ID:   int(row.ID),
			Name: v.String("name"),
			Link: v.String("link"),
		}, nil
	})
}

func (c *Creators) Get(ctx context.Context, id int) (Creator, error) {
	rec, err := c.r.detail(ctx, id)
	if err != nil {
		return Creator{}, err
	}
	avatar, err := rec.Values.Image("avatar")
	if err != nil {
		return Creator{}, fmt.Errorf("creator %d: %w", id, err)
	}
	return Creator{
		ID:          id,
		Name:        rec.Values.String("name"),
		Link:        rec.Values.String("link"),
		Description: rec.Values.String("description"),
		Avatar:      avatar,
	}, nil
}

func (c *Creators) form(ctx context.Context, creator *Creator) (*nova.Form, error) {
	err := c.r.prepareImages(ctx, imageutil.Bounds{}, creator.Avatar)
	if err != nil {
		return nil, err
	}
	form := nova.NewForm().
		Set("name", creator.Name).
		Set("description", creator.Description).
		Set("link", creator.Link)
	err = form.SetImage("avatar", 0, creator.Avatar)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// Create stores a new creator. Unless lite is set the stored creator is
// returned.
func (c *Creators) Create(ctx context.Context, creator Creator, lite bool) (*Creator, error) {
	if err := c.r.client.RequireWrite("create creators"); err != nil {
		return nil, err
	}
	if err := requireNew(c.r.name, creator.ID); err != nil {
		return nil, err
	}

	form, err := c.form(ctx, &creator)
	if err != nil {
		return nil, err
	}
	id, err := c.r.create(ctx, form)
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (c *Creators) Update(ctx context.Context, creator Creator, lite bool) (*Creator, error) {
	if err := c.r.client.RequireWrite("update creators"); err != nil {
		return nil, err
	}
	if err := requireID(c.r.name, creator.ID); err != nil {
		return nil, err
	}

	form, err := c.form(ctx, &creator)
	if err != nil {
		return nil, err
	}
	err = c.r.update(ctx, creator.ID, form)
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := c.Get(ctx, creator.ID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
