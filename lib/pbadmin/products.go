package pbadmin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/vcslav-v/pb-admin/lib/imageutil"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/textutil"
)

const panelTimeLayout = "2006-01-02 15:04:05"

var (
	productTags = nova.Relation{
		Resource:        "tags",
		ViaResource:     "products",
		ViaRelationship: "tags",
		Type:            nova.MorphToMany,
	}
	productFonts = nova.Relation{
		Resource:        "fonts",
		ViaResource:     "products",
		ViaRelationship: "fonts",
		Type:            nova.MorphToMany,
	}
)

// ProductLite is a product as it appears in listings.
type ProductLite struct {
	ID         int
	Title      string
	Type       ProductType
	CreatedAt  *time.Time
	Live       bool
	CreatorID  *int
	CategoryID *int
	Special    bool
}

type PlaceholderLayout string

const (
	LayoutImage PlaceholderLayout = "image"
	LayoutVideo PlaceholderLayout = "video"
)

// Placeholder is one cell of the product presentation grid. Image cells
// point at a stored image by ImageID, or at Product.Images by ImageIndex
// when the image is uploaded along with the product.
type Placeholder struct {
	Layout     PlaceholderLayout
	Key        string
	ImageID    *int
	ImageIndex *int
	Title      string
	Link       string
}

// LoginDownloads are the registered users who downloaded a product.
type LoginDownloads struct {
	UserIDs []int
	Total   int
}

type Product struct {
	ID                     int
	Title                  string
	Slug                   string
	CreatedAt              *time.Time
	ExpiresAt              *time.Time
	TimeLimitedSubtitle    string
	Type                   ProductType
	Live                   bool
	Special                bool
	OnlyRegisteredDownload bool
	CreatorID              *int
	CategoryID             *int
	Size                   string
	Excerpt                string
	Description            string

	PriceCommercialCents     *int
	PriceExtendedCents       *int
	PriceCommercialSaleCents *int
	PriceExtendedSaleCents   *int

	Thumbnail    *nova.Image
	PushImage    *nova.Image
	Images       []nova.Image
	ImageBorder  bool
	Presentation [][]Placeholder

	VPSPath string
	S3Path  string

	Formats          string
	CustomButtonText string
	CustomButtonURL  string
	MetaTitle        string
	MetaDescription  string
	MetaKeywords     string

	TagIDs  []int
	FontIDs []int

	CountDownloads       *int
	CountDownloadsUnique *int

	// set by GetWithDownloads only
	Downloads *LoginDownloads
}

type Products struct {
	r resource
}

func newProducts(c *nova.Client) *Products {
	return &Products{r: resource{
		client: c,
		name:   "products",
		kinds: nova.Kinds{
			"creator":      nova.BelongsTo,
			"category":     nova.BelongsTo,
			"thumbnail":    nova.Media,
			"push_image":   nova.Media,
			"images":       nova.Media,
			"presentation": nova.Flexible,
		},
	}}
}

// liveStatus reads a status that is either a "Live" label or a flag.
func liveStatus(v nova.Values, name string) bool {
	return v.String(name) == "Live" || v.Bool(name)
}

func (p *Products) decodeLite(id int, v nova.Values) (ProductLite, error) {
	createdAt, err := timeValue(v, p.r.name, "created_at")
	if err != nil {
		return ProductLite{}, err
	}
	return ProductLite{
		ID:         id,
		Title:      v.String("title"),
		Type:       ProductType(v.Select("type")),
		CreatedAt:  createdAt,
		Live:       liveStatus(v, "status"),
		CreatorID:  v.IntPtr("creator"),
		CategoryID: v.IntPtr("category"),
		Special:    v.Bool("special"),
	}, nil
}

func (p *Products) List(ctx context.Context, opts ListOptions) (nova.Listing[ProductLite], error) {
	return listResource(ctx, p.r, opts, nil, func(row nova.Row, v nova.Values) (ProductLite, error) {
		return p.decodeLite(int(row.ID), v)
	})
}

func decodePresentation(v nova.Values) ([][]Placeholder, error) {
	blocks, err := v.Blocks("presentation")
	if err != nil {
		return nil, err
	}
	var rows [][]Placeholder
	for i, b := range blocks {
		if i == 0 || b.Bool("new_row") {
			rows = append(rows, nil)
		}
		placeholder := Placeholder{
			Layout: PlaceholderLayout(b.Layout),
			Key:    b.Key,
		}
		switch placeholder.Layout {
		case LayoutImage:
			placeholder.ImageID = b.OptionID("image")
		case LayoutVideo:
			placeholder.Title = b.String("title")
			placeholder.Link = b.String("link")
		default:
			slog.Warn("unknown presentation layout", "layout", b.Layout, "key", b.Key)
			continue
		}
		rows[len(rows)-1] = append(rows[len(rows)-1], placeholder)
	}
	return rows, nil
}

// fileFields collects the file-field components. The edit form repeats
// s3_path and vps_path as display fields after them.
func fileFields(fields nova.FieldList) []nova.Field {
	var out []nova.Field
	for _, f := range fields {
		if f.Component == "file-field" {
			out = append(out, f)
			continue
		}
		out = append(out, fileFields(f.Fields)...)
	}
	return out
}

func (p *Products) decode(rec record) (Product, error) {
	v := rec.Values
	lite, err := p.decodeLite(rec.ID, v)
	if err != nil {
		return Product{}, err
	}
	files, err := nova.Decode(fileFields(rec.Fields), p.r.kinds)
	if err != nil {
		return Product{}, err
	}
	product := Product{
		ID:                     rec.ID,
		Title:                  lite.Title,
		Slug:                   v.String("slug"),
		CreatedAt:              lite.CreatedAt,
		TimeLimitedSubtitle:    v.String("time_limited_subtitle"),
		Type:                   lite.Type,
		Live:                   lite.Live,
		Special:                lite.Special,
		OnlyRegisteredDownload: v.Bool("only_registered_download"),
		CreatorID:              lite.CreatorID,
		CategoryID:             lite.CategoryID,
		Size:                   v.String("size"),
		Excerpt:                v.String("excerpt"),
		Description:            v.String("description"),

		PriceCommercialCents:     cents(v, "price_commercial"),
		PriceExtendedCents:       cents(v, "price_extended"),
		PriceCommercialSaleCents: cents(v, "price_commercial_sale"),
		PriceExtendedSaleCents:   cents(v, "price_extended_sale"),

		ImageBorder: v.Bool("image_border"),
		VPSPath:     files.String("vps_path"),
		S3Path:      files.String("s3_path"),

		Formats:          v.String("formats"),
		CustomButtonText: v.String("custom_btn_text"),
		CustomButtonURL:  v.String("custom_btn_url"),
		MetaTitle:        v.String("meta_title"),
		MetaDescription:  v.String("meta_description"),
		MetaKeywords:     v.String("meta_keywords"),

		CountDownloads:       v.IntPtr("count_downloads"),
		CountDownloadsUnique: v.IntPtr("count_downloads_unique"),
	}

	product.ExpiresAt, err = timeValue(v, p.r.name, "expires_at")
	if err != nil {
		return Product{}, err
	}
	product.Thumbnail, err = v.SingleImage("thumbnail")
	if err != nil {
		return Product{}, err
	}
	product.PushImage, err = v.SingleImage("push_image")
	if err != nil {
		return Product{}, err
	}
	product.Images, err = v.Images("images")
	if err != nil {
		return Product{}, err
	}
	product.Presentation, err = decodePresentation(v)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

// Get reads a product from its edit form along with its tags and fonts.
func (p *Products) Get(ctx context.Context, id int) (Product, error) {
	rec, err := p.r.updateFields(ctx, id)
	if err != nil {
		return Product{}, err
	}
	product, err := p.decode(rec)
	if err != nil {
		return Product{}, fmt.Errorf("product %d: %w", id, err)
	}
	product.TagIDs, err = p.r.client.CurrentEdges(ctx, productTags, id)
	if err != nil {
		return Product{}, err
	}
	product.FontIDs, err = p.r.client.CurrentEdges(ctx, productFonts, id)
	if err != nil {
		return Product{}, err
	}
	return product, nil
}

// GetWithDownloads is Get plus the users who downloaded the product.
func (p *Products) GetWithDownloads(ctx context.Context, id int) (Product, error) {
	product, err := p.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	downloads, err := p.LoginDownloads(ctx, id)
	if err != nil {
		return Product{}, err
	}
	product.Downloads = &downloads
	return product, nil
}

func (p *Products) LoginDownloads(ctx context.Context, id int) (LoginDownloads, error) {
	ctx, span := tracer.Start(ctx, "products:LoginDownloads")
	defer span.End()

	params := url.Values{}
	params.Set("search", "")
	params.Set("trashed", "")
	params.Set("viaResource", p.r.name)
	params.Set("viaResourceId", strconv.Itoa(id))
	params.Set("viaRelationship", "downloadedUsers")
	params.Set("relationshipType", string(nova.BelongsToMany))

	downloads := LoginDownloads{UserIDs: []int{}}
	w := p.r.client.Walk(apiRoot+"users", params, nova.WalkOptions{PageSize: 5})
	for w.Next(ctx) {
		downloads.UserIDs = append(downloads.UserIDs, int(w.Row().ID))
	}
	if err := w.Err(); err != nil {
		return LoginDownloads{}, err
	}
	downloads.Total = w.Total()
	return downloads, nil
}

func presentationBlocks(rows [][]Placeholder, images []nova.Image) ([]nova.Block, error) {
	var blocks []nova.Block
	for r, row := range rows {
		for i, placeholder := range row {
			block := nova.NewBlock(string(placeholder.Layout), placeholder.Key)
			switch placeholder.Layout {
			case LayoutImage:
				id, err := placeholderImage(placeholder, images)
				if err != nil {
					return nil, err
				}
				block = block.With("image", id)
			case LayoutVideo:
				block = block.
					With("title", placeholder.Title).
					With("link", placeholder.Link)
			default:
				return nil, &nova.ValidationError{
					Resource: "products",
					Reason:   fmt.Sprintf("unknown presentation layout %q", placeholder.Layout),
				}
			}
			blocks = append(blocks, block.With("new_row", r > 0 && i == 0))
		}
	}
	return blocks, nil
}

func placeholderImage(placeholder Placeholder, images []nova.Image) (int, error) {
	if placeholder.ImageID != nil {
		return *placeholder.ImageID, nil
	}
	if placeholder.ImageIndex != nil {
		n := *placeholder.ImageIndex
		if n >= 0 && n < len(images) && images[n].IsReference() {
			return images[n].ID, nil
		}
	}
	return 0, &nova.ValidationError{
		Resource: "products",
		Reason:   "presentation image refers to no stored image",
	}
}

// needsStoredImages reports whether the presentation refers to images
// that only get an identity once the product is stored.
func (product Product) needsStoredImages() bool {
	for _, row := range product.Presentation {
		for _, placeholder := range row {
			if placeholder.Layout != LayoutImage || placeholder.ImageID != nil || placeholder.ImageIndex == nil {
				continue
			}
			n := *placeholder.ImageIndex
			if n >= 0 && n < len(product.Images) && !product.Images[n].IsReference() {
				return true
			}
		}
	}
	return false
}

func timeField(t *time.Time, fallback string) string {
	if t == nil {
		return fallback
	}
	return t.Format(panelTimeLayout)
}

func (p *Products) form(ctx context.Context, product *Product, withPresentation bool) (*nova.Form, error) {
	images := []*nova.Image{product.Thumbnail, product.PushImage}
	for i := range product.Images {
		images = append(images, &product.Images[i])
	}
	err := p.r.prepareImages(ctx, imageutil.Bounds{}, images...)
	if err != nil {
		return nil, err
	}

	slug := product.Slug
	if slug == "" {
		slug = product.Title
	}
	creator, category := 0, 0
	if product.CreatorID != nil {
		creator = *product.CreatorID
	}
	if product.CategoryID != nil {
		category = *product.CategoryID
	}

	form := nova.NewForm().
		Set("title", product.Title).
		Set("created_at", timeField(product.CreatedAt, time.Now().UTC().Format(panelTimeLayout))).
		Set("expires_at", timeField(product.ExpiresAt, "")).
		Set("time_limited_subtitle", product.TimeLimitedSubtitle).
		Set("slug", textutil.Slugify(slug)).
		SetBool("status", product.Live).
		Set("type", string(product.Type)).
		SetBool("only_registered_download", product.OnlyRegisteredDownload).
		SetBelongsTo("creator", creator, false).
		SetBool("special", product.Special).
		Set("excerpt", product.Excerpt).
		Set("description", product.Description).
		Set("size", product.Size).
		SetPtr("price_commercial", units(product.PriceCommercialCents)).
		SetPtr("price_extended", units(product.PriceExtendedCents)).
		SetPtr("price_commercial_sale", units(product.PriceCommercialSaleCents)).
		SetPtr("price_extended_sale", units(product.PriceExtendedSaleCents)).
		Set("vps_path", product.VPSPath).
		Set("s3_path", product.S3Path).
		SetBelongsTo("category", category, false).
		SetRelation("tags", product.TagIDs).
		SetRelation("fonts", product.FontIDs).
		SetBool("options[image_border]", product.ImageBorder).
		SetOption("formats", product.Formats).
		SetOption("custom_btn_text", product.CustomButtonText).
		SetOption("custom_btn_url", product.CustomButtonURL).
		SetOption("meta_title", product.MetaTitle).
		SetOption("meta_description", product.MetaDescription).
		SetOption("meta_keywords", product.MetaKeywords)

	var blocks []nova.Block
	if withPresentation {
		blocks, err = presentationBlocks(product.Presentation, product.Images)
		if err != nil {
			return nil, err
		}
	}
	err = form.SetFlexible("presentation", blocks)
	if err != nil {
		return nil, err
	}

	err = form.SetImage("thumbnail", 0, product.Thumbnail)
	if err != nil {
		return nil, err
	}
	err = form.SetImage("push_image", 0, product.PushImage)
	if err != nil {
		return nil, err
	}
	err = form.SetImages("images", product.Images)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// Create stores a new product. When the presentation refers to images
// uploaded with the product, the product is stored first and the
// presentation is added by an update once the images have identities.
// Unless lite is set the stored product is returned.
func (p *Products) Create(ctx context.Context, product Product, lite bool) (*Product, error) {
	if err := p.r.client.RequireWrite("create products"); err != nil {
		return nil, err
	}
	if err := requireNew(p.r.name, product.ID); err != nil {
		return nil, err
	}

	twoStep := product.needsStoredImages()
	form, err := p.form(ctx, &product, !twoStep)
	if err != nil {
		return nil, err
	}
	id, err := p.r.create(ctx, form)
	if err != nil {
		return nil, err
	}

	if twoStep {
		stored, err := p.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		stored.Presentation = product.Presentation
		return p.Update(ctx, stored, lite)
	}

	if lite {
		return nil, nil
	}
	stored, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (p *Products) Update(ctx context.Context, product Product, lite bool) (*Product, error) {
	if err := p.r.client.RequireWrite("update products"); err != nil {
		return nil, err
	}
	if err := requireID(p.r.name, product.ID); err != nil {
		return nil, err
	}

	form, err := p.form(ctx, &product, true)
	if err != nil {
		return nil, err
	}
	err = p.r.update(ctx, product.ID, form)
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := p.Get(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (p *Products) Delete(ctx context.Context, ids ...int) error {
	return p.r.destroy(ctx, ids...)
}

// FillByPolicy derives the SEO fields of a product from its title.
func (product Product) FillByPolicy() Product {
	if product.Slug == "" {
		product.Slug = textutil.Slugify(product.Title)
	}
	if product.MetaTitle == "" {
		product.MetaTitle = fmt.Sprintf("%s - Free Download on Pixelbuddha", product.Title)
	}
	if product.MetaDescription == "" && product.Excerpt != "" {
		product.MetaDescription = product.Excerpt
	}
	return product
}
