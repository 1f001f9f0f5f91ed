package pbadmin

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/testutil"
)

func TestReadOnlyResources(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put("formats", 1, testutil.Value("title", "PSD"))
	panel.Put("compatibilities", 2, testutil.Value("title", "Figma"), testutil.Value("alias", "figma"), testutil.Value("color", "#F24E1E"))
	panel.Put("licenses", 3, testutil.Value("name", "Commercial"), testutil.Value("url", "https://pixelbuddha.example/license"))
	panel.Put("users", 4, testutil.Value("name", "Ann"), testutil.Value("email", "ann@example.com"))
	panel.Put(
		"categories", 39,
		testutil.Value("title", "Mockups"),
		testutil.Value("display_menu", true),
		testutil.Value("sort", 3),
		testutil.Media("category_image", testutil.MediaItem{ID: 800, FileName: "mockups.png"}),
	)

	ctx := context.Background()

	format, err := c.Formats.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, Format{ID: 1, Title: "PSD"}, format)

	compatibilities, err := c.Compatibilities.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []Compatibility{{ID: 2, Title: "Figma", Alias: "figma", Color: "#F24E1E"}}, compatibilities.Items)

	licences, err := c.Licences.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []Licence{{ID: 3, Name: "Commercial", URL: "https://pixelbuddha.example/license"}}, licences.Items)

	user, err := c.Users.Get(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, User{ID: 4, Name: "Ann", Email: "ann@example.com"}, user)

	category, err := c.Categories.Get(ctx, 39)
	require.NoError(t, err)
	require.True(t, category.DisplayMenu)
	require.Equal(t, intPtr(3), category.Sort)
	require.NotNil(t, category.Image)
	require.Equal(t, 800, category.Image.ID)
	require.Nil(t, category.ImageRetina)
	page, ok := category.PageID()
	require.True(t, ok)
	require.Equal(t, 28, page)
}

func TestListUsersWithSearch(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put("users", 1, testutil.Value("name", "Ann"), testutil.Value("email", "ann@example.com"))
	panel.Put("users", 2, testutil.Value("name", "Bob"), testutil.Value("email", "bob@example.com"))

	listing, err := c.Users.List(context.Background(), ListOptions{Search: "bob"})
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	require.Equal(t, 2, listing.Items[0].ID)

	reqs := panel.RequestsTo(http.MethodGet, "/nova-api/users")
	require.Len(t, reqs, 1)
	require.Equal(t, "bob", reqs[0].Query.Get("search"))
}

func TestPayments(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put(
		"payments", 6,
		testutil.Value("order", 3),
		testutil.Value("price", "24.99"),
		testutil.Select("status", "paid", testutil.Option{Label: "Paid", Value: "paid"}),
		testutil.Value("created_at", "2024-04-01 10:00:00"),
	)
	panel.Put("payments", 7, testutil.Value("price", nil), testutil.Value("status", "refunded"))

	listing, err := c.Payments.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	require.Len(t, listing.Items, 2)

	paid := listing.Items[0]
	require.Equal(t, intPtr(3), paid.OrderID)
	require.Equal(t, intPtr(2499), paid.PriceCents)
	require.Equal(t, PaymentStatus("paid"), paid.Status)
	require.Equal(t, time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC), *paid.CreatedAt)

	refunded := listing.Items[1]
	require.Nil(t, refunded.PriceCents)
	require.Nil(t, refunded.CreatedAt)
	require.Equal(t, PaymentStatus("refunded"), refunded.Status)
}

func TestSubscriptionsSkipMalformedRows(t *testing.T) {
	c, panel := newTestClient(t, false)
	panel.Put(
		"subscriptions", 1,
		testutil.Value("subscription_id", "sub_1"),
		testutil.BelongsTo("user", 4),
		testutil.Value("start_date", "2024-01-01"),
		testutil.Value("resubscribe", true),
	)
	panel.Put("subscriptions", 2, testutil.Value("subscription_id", "sub_2"), testutil.Value("end_date", "31/12/2024"))

	ctx := context.Background()
	listing, err := c.Subscriptions.List(ctx, ListOptions{Policy: nova.SkipAndRecord})
	require.NoError(t, err)
	require.Len(t, listing.Items, 1)
	require.Equal(t, "sub_1", listing.Items[0].SubscriptionID)
	require.Equal(t, intPtr(4), listing.Items[0].UserID)
	require.True(t, listing.Items[0].Resubscribe)
	require.Len(t, listing.Skipped, 1)
	require.Equal(t, 2, listing.Skipped[0].RowID)
	require.ErrorIs(t, listing.Skipped[0], nova.ErrDataShape)

	_, err = c.Subscriptions.Get(ctx, 2)
	require.ErrorIs(t, err, nova.ErrDataShape)
}

func TestCreatorRoundTrip(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.SetNextID("creators", 12)

	ctx := context.Background()
	creator, err := c.Creators.Create(ctx, Creator{
		Name:        "Studio North",
		Link:        "https://north.example",
		Description: "Type foundry",
		Avatar: &nova.Image{
			FileName: "avatar.png",
			MimeType: "image/png",
			Data:     []byte("png bytes"),
			Prepared: true,
		},
	}, false)
	require.NoError(t, err)
	require.Equal(t, 12, creator.ID)
	require.Equal(t, "Studio North", creator.Name)
	require.NotNil(t, creator.Avatar)
	require.NotZero(t, creator.Avatar.ID)
	require.Equal(t, "avatar.png", creator.Avatar.FileName)

	creates := panel.RequestsTo(http.MethodPost, "/nova-api/creators")
	require.Len(t, creates, 1)
	require.Equal(t, []byte("png bytes"), creates[0].Files["__media__[avatar][0]"].Data)

	creator.Description = "Type and lettering"
	updated, err := c.Creators.Update(ctx, *creator, false)
	require.NoError(t, err)
	require.Equal(t, "Type and lettering", updated.Description)
	require.Equal(t, creator.Avatar.ID, updated.Avatar.ID)

	listing, err := c.Creators.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []Creator{{ID: 12, Name: "Studio North", Link: "https://north.example"}}, listing.Items)
}

func TestFonts(t *testing.T) {
	c, panel := newTestClient(t, true)
	panel.SetNextID("fonts", 3)

	ctx := context.Background()
	font, err := c.Fonts.Create(ctx, Font{
		Title: "Mono",
		Size:  36,
		File:  &nova.FilePart{FileName: "mono.ttf", MimeType: "font/ttf", Data: []byte("ttf")},
	}, false)
	require.NoError(t, err)
	require.Equal(t, Font{ID: 3, Title: "Mono", Size: 36, Indent: 0, FileName: "mono.ttf"}, *font)
	require.Len(t, panel.RequestsTo(http.MethodGet, "/nova-api/fonts/3/update-fields"), 1)

	panel.Put("fonts", 4, testutil.Value("title", "Serif"))
	font2, err := c.Fonts.Get(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, defaultFontSize, font2.Size)
	require.Equal(t, defaultFontIndent, font2.Indent)

	_, err = c.Fonts.Create(ctx, Font{Title: "Empty"}, true)
	require.ErrorIs(t, err, nova.ErrValidation)
}
