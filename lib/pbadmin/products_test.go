package pbadmin

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/testutil"
)

func intPtr(n int) *int {
	return &n
}

func TestCreateProductSubmitsOnceThenReads(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.SetNextID("products", 42)

	ctx := context.Background()
	product, err := c.Products.Create(ctx, Product{Title: "Foo"}, false)
	require.NoError(t, err)
	require.Equal(t, 42, product.ID)
	require.Equal(t, "Foo", product.Title)
	require.Equal(t, "foo", product.Slug)

	reqs := panel.Requests()
	require.GreaterOrEqual(t, len(reqs), 2)
	require.Equal(t, http.MethodPost, reqs[0].Method)
	require.Equal(t, "/nova-api/products", reqs[0].Path)
	require.Equal(t, "create", reqs[0].Query.Get("editMode"))
	require.Equal(t, http.MethodGet, reqs[1].Method)
	require.Equal(t, "/nova-api/products/42/update-fields", reqs[1].Path)

	require.Len(t, panel.RequestsTo(http.MethodPost, "/nova-api/"), 1)
}

func TestCreateProductLite(t *testing.T) {
	c, panel := newTestClient(t, true)

	product, err := c.Products.Create(context.Background(), Product{Title: "Foo"}, true)
	require.NoError(t, err)
	require.Nil(t, product)
	require.Len(t, panel.Requests(), 1)
}

func TestCreateProductRejectsIdentity(t *testing.T) {
	c, panel := newTestClient(t, true)

	_, err := c.Products.Create(context.Background(), Product{ID: 9, Title: "Foo"}, true)
	require.ErrorIs(t, err, nova.ErrValidation)
	require.Empty(t, panel.Requests())
}

func TestProductScalarsRoundTrip(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.SetNextID("products", 7)

	createdAt := time.Date(2024, 3, 9, 12, 30, 0, 0, time.UTC)
	input := Product{
		Title:                  "Retro Mockup Kit",
		CreatedAt:              &createdAt,
		Type:                   ProductPremium,
		Live:                   true,
		Special:                true,
		OnlyRegisteredDownload: true,
		CreatorID:              intPtr(12),
		CategoryID:             intPtr(39),
		Size:                   "120 MB",
		Excerpt:                "Mockups for print",
		Description:            "<p>Long text</p>",
		PriceCommercialCents:   intPtr(1900),
		PriceExtendedCents:     intPtr(9900),
		ImageBorder:            true,
		VPSPath:                "/srv/products/retro.zip",
		S3Path:                 "products/retro.zip",
		Formats:                "PSD, AI",
		MetaTitle:              "Retro Mockup Kit",
	}

	ctx := context.Background()
	stored, err := c.Products.Create(ctx, input, false)
	require.NoError(t, err)

	expect := input
	expect.ID = 7
	expect.Slug = "retro-mockup-kit"
	expect.TagIDs = []int{}
	expect.FontIDs = []int{}
	if d := cmp.Diff(expect, *stored); d != "" {
		t.Fatal(d)
	}

	rec, ok := panel.Get("products", 7)
	require.True(t, ok)
	require.Equal(t, "19", rec.Value("price_commercial"))
	require.Equal(t, "2024-03-09 12:30:00", rec.Value("created_at"))
}

func TestGetProductReadsRelations(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put(
		"products", 5,
		testutil.Value("title", "Brushes"),
		testutil.Select("type", "freebie", testutil.Option{Label: "Freebie", Value: "freebie"}),
		testutil.Value("status", "Live"),
		testutil.BelongsTo("creator", 3),
		testutil.BelongsTo("category", 0),
		testutil.Value("price_commercial", "12.5"),
		testutil.Flexible(
			"presentation",
			testutil.Block{Layout: "image", Key: "k1", Attributes: map[string]any{"k1__image": 900, "k1__new_row": "0"}},
			testutil.Block{Layout: "video", Key: "k2", Attributes: map[string]any{"k2__title": "Demo", "k2__link": "https://v.example/1", "k2__new_row": "0"}},
			testutil.Block{Layout: "image", Key: "k3", Attributes: map[string]any{"k3__image": 901, "k3__new_row": "1"}},
		),
	)
	panel.SetEdges("products", 5, "tags", 11, 12)
	panel.SetEdges("products", 5, "fonts", 2)

	product, err := c.Products.Get(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, ProductFreebie, product.Type)
	require.True(t, product.Live)
	require.Equal(t, intPtr(3), product.CreatorID)
	require.Nil(t, product.CategoryID)
	require.Equal(t, intPtr(1250), product.PriceCommercialCents)
	require.Equal(t, []int{11, 12}, product.TagIDs)
	require.Equal(t, []int{2}, product.FontIDs)

	expect := [][]Placeholder{
		{
			{Layout: LayoutImage, Key: "k1", ImageID: intPtr(900)},
			{Layout: LayoutVideo, Key: "k2", Title: "Demo", Link: "https://v.example/1"},
		},
		{
			{Layout: LayoutImage, Key: "k3", ImageID: intPtr(901)},
		},
	}
	if d := cmp.Diff(expect, product.Presentation); d != "" {
		t.Fatal(d)
	}
}

func TestGetProductPathsFromFileFields(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put(
		"products", 6,
		testutil.Value("title", "Fonts"),
		testutil.Value("status", "Live"),
		testutil.Container("panel",
			testutil.FileField("s3_path", "products/fonts.zip"),
			testutil.FileField("vps_path", "/srv/products/fonts.zip"),
		),
		testutil.Value("s3_path", "https://cdn.example/products/fonts.zip"),
		testutil.Value("vps_path", "fonts.zip (12 MB)"),
	)

	product, err := c.Products.Get(context.Background(), 6)
	require.NoError(t, err)
	require.Equal(t, "products/fonts.zip", product.S3Path)
	require.Equal(t, "/srv/products/fonts.zip", product.VPSPath)
}

func TestUpdateProductPresentation(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.Put("products", 8, testutil.Value("title", "Icons"))

	product := Product{
		ID:     8,
		Title:  "Icons",
		Images: []nova.Image{{ID: 501}, {ID: 502}},
		Presentation: [][]Placeholder{
			{{Layout: LayoutImage, Key: "a", ImageIndex: intPtr(1)}},
			{{Layout: LayoutImage, Key: "b", ImageID: intPtr(501)}},
		},
	}
	_, err := c.Products.Update(context.Background(), product, true)
	require.NoError(t, err)

	updates := panel.RequestsTo(http.MethodPost, "/nova-api/products/8")
	require.Len(t, updates, 1)
	form := updates[0].Form
	require.Equal(t, "PUT", form.Get("_method"))
	require.Equal(t, "501", form.Get("__media__[images][0]"))
	require.Equal(t, "502", form.Get("__media__[images][1]"))
	require.JSONEq(t, `[
		{"layout": "image", "key": "a", "attributes": {"a__image": 502, "a__new_row": "0"}},
		{"layout": "image", "key": "b", "attributes": {"b__image": 501, "b__new_row": "1"}}
	]`, form.Get("presentation"))
	require.JSONEq(t, `["presentation"]`, form.Get("___nova_flexible_content_fields"))
}

func TestPresentationWithoutImage(t *testing.T) {
	_, err := presentationBlocks([][]Placeholder{{{Layout: LayoutImage, Key: "x"}}}, nil)
	require.ErrorIs(t, err, nova.ErrValidation)
}

func TestLoginDownloads(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.SetEdges("products", 4, "downloadedUsers", 1, 2, 3, 4, 5, 6, 7)

	downloads, err := c.Products.LoginDownloads(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, downloads.UserIDs)
	require.Equal(t, 7, downloads.Total)
	// five users per page
	require.Len(t, panel.RequestsTo(http.MethodGet, "/nova-api/users"), 2)
}

func TestListProductsWalksEveryPage(t *testing.T) {
	c, panel := newTestClient(t, false)
	for i := 1; i <= 237; i++ {
		panel.Put("products", i, testutil.Value("title", "product"), testutil.Value("status", "1"))
	}

	ctx := context.Background()
	listing, err := c.Products.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, listing.Items, 237)
	require.Empty(t, listing.Skipped)
	require.Len(t, panel.RequestsTo(http.MethodGet, "/nova-api/products"), 3)

	panel.ResetRequests()
	listing, err = c.Products.List(ctx, ListOptions{Limit: 50})
	require.NoError(t, err)
	require.Len(t, listing.Items, 50)
	require.Len(t, panel.RequestsTo(http.MethodGet, "/nova-api/products"), 1)
}

func TestProductFillByPolicy(t *testing.T) {
	product := Product{Title: "Grunge Textures", Excerpt: "Dirty textures"}.FillByPolicy()
	require.Equal(t, "grunge-textures", product.Slug)
	require.Equal(t, "Grunge Textures - Free Download on Pixelbuddha", product.MetaTitle)
	require.Equal(t, "Dirty textures", product.MetaDescription)

	kept := Product{Title: "X", Slug: "custom", MetaTitle: "Mine"}.FillByPolicy()
	require.Equal(t, "custom", kept.Slug)
	require.Equal(t, "Mine", kept.MetaTitle)
}
