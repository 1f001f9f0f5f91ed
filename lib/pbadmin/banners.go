package pbadmin

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vcslav-v/pb-admin/lib/imageutil"
	"github.com/vcslav-v/pb-admin/lib/nova"
)

const (
	defaultBannerColor  = "#FFFFFF"
	defaultBannerHeight = 100
)

var bannerGroups = nova.Relation{
	Resource:        "user-groups",
	ViaResource:     "banners",
	ViaRelationship: "groups",
	Type:            nova.MorphToMany,
}

// BannerLite is a banner as it appears in listings.
type BannerLite struct {
	ID           int
	Type         BannerType
	Enabled      bool
	Weight       int
	Images       []nova.Image
	ImagesRetina []nova.Image
}

// Banner is a full banner as read by Get. Update sends Link and
// OpenInNewTab as they are, so they must come from Get.
type Banner struct {
	BannerLite

	Link         string
	OpenInNewTab bool
	Color        string
	Height       *int
	// nil leaves the groups untouched on Update
	GroupIDs []int
}

type Banners struct {
	r resource
}

func newBanners(c *nova.Client) *Banners {
	return &Banners{r: resource{
		client: c,
		name:   "banners",
		kinds: nova.Kinds{
			"banner_images":        nova.Media,
			"banner_images_retina": nova.Media,
		},
	}}
}

func (b *Banners) decode(id int, v nova.Values) (BannerLite, error) {
	images, err := v.Images("banner_images")
	if err != nil {
		return BannerLite{}, err
	}
	retina, err := v.Images("banner_images_retina")
	if err != nil {
		return BannerLite{}, err
	}
	return BannerLite{
		ID:           id,
		Type:         BannerType(v.String("type")),
		Enabled:      v.Bool("is_enabled"),
		Weight:       v.Int("order_index"),
		Images:       images,
		ImagesRetina: retina,
	}, nil
}

// List reads banners without their links and groups. A banner whose
// images do not decode is handled by opts.Policy.
func (b *Banners) List(ctx context.Context, opts ListOptions) (nova.Listing[BannerLite], error) {
	return listResource(ctx, b.r, opts, nil, func(row nova.Row, v nova.Values) (BannerLite, error) {
		return b.decode(int(row.ID), v)
	})
}

func (b *Banners) Get(ctx context.Context, id int) (Banner, error) {
	rec, err := b.r.detail(ctx, id)
	if err != nil {
		return Banner{}, err
	}
	v := rec.Values
	lite, err := b.decode(id, v)
	if err != nil {
		return Banner{}, fmt.Errorf("banner %d: %w", id, err)
	}
	banner := Banner{BannerLite: lite}
	banner.Link = v.String("link")
	banner.OpenInNewTab = v.Bool("link_blank")
	banner.Color = v.String("options->color")
	if height := v.String("options->height"); height != "" {
		h, err := strconv.Atoi(height)
		if err != nil {
			return Banner{}, &nova.DataShapeError{
				Resource:  b.r.name,
				Attribute: "options->height",
				Reason:    fmt.Sprintf("height %q is not a number", height),
			}
		}
		banner.Height = &h
	}

	banner.GroupIDs, err = b.r.client.CurrentEdges(ctx, bannerGroups, id)
	if err != nil {
		return Banner{}, err
	}
	return banner, nil
}

func (b *Banners) form(ctx context.Context, banner *Banner) (*nova.Form, error) {
	images := make([]*nova.Image, 0, len(banner.Images)+len(banner.ImagesRetina))
	for i := range banner.Images {
		images = append(images, &banner.Images[i])
	}
	for i := range banner.ImagesRetina {
		images = append(images, &banner.ImagesRetina[i])
	}
	err := b.r.prepareImages(ctx, imageutil.Bounds{}, images...)
	if err != nil {
		return nil, err
	}

	form := nova.NewForm().
		Set("type", string(banner.Type)).
		SetBool("is_enabled", banner.Enabled).
		Set("link", banner.Link).
		SetBool("link_blank", banner.OpenInNewTab).
		SetInt("order_index", banner.Weight)

	if banner.Type == BannerTop {
		color := banner.Color
		if color == "" {
			color = defaultBannerColor
		}
		height := defaultBannerHeight
		if banner.Height != nil && *banner.Height > 0 {
			height = *banner.Height
		}
		form.Set("options->color", color).SetInt("options->height", height)
	}

	err = form.SetImages("banner_images", banner.Images)
	if err != nil {
		return nil, err
	}
	err = form.SetImages("banner_images_retina", banner.ImagesRetina)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// Create stores a new banner and attaches it to its groups. Unless lite is
// set the stored banner is returned.
func (b *Banners) Create(ctx context.Context, banner Banner, lite bool) (*Banner, error) {
	if err := b.r.client.RequireWrite("create banners"); err != nil {
		return nil, err
	}
	if err := requireNew(b.r.name, banner.ID); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "banners:Create")
	defer span.End()

	form, err := b.form(ctx, &banner)
	if err != nil {
		return nil, err
	}
	id, err := b.r.create(ctx, form)
	if err != nil {
		return nil, err
	}
	if len(banner.GroupIDs) > 0 {
		err = b.r.client.Attach(ctx, bannerGroups, id, banner.GroupIDs)
		if err != nil {
			return nil, err
		}
	}
	if lite {
		return nil, nil
	}
	stored, err := b.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update stores banner and reconciles its groups with GroupIDs. A nil
// GroupIDs keeps the current groups, an empty one detaches them all.
func (b *Banners) Update(ctx context.Context, banner Banner, lite bool) (*Banner, error) {
	if err := b.r.client.RequireWrite("update banners"); err != nil {
		return nil, err
	}
	if err := requireID(b.r.name, banner.ID); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "banners:Update")
	defer span.End()

	form, err := b.form(ctx, &banner)
	if err != nil {
		return nil, err
	}
	err = b.r.update(ctx, banner.ID, form)
	if err != nil {
		return nil, err
	}
	if banner.GroupIDs != nil {
		_, err = b.r.client.Reconcile(ctx, bannerGroups, banner.ID, banner.GroupIDs)
		if err != nil {
			return nil, err
		}
	}
	if lite {
		return nil, nil
	}
	stored, err := b.Get(ctx, banner.ID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (b *Banners) Delete(ctx context.Context, ids ...int) error {
	return b.r.destroy(ctx, ids...)
}
