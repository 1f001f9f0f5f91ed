package pbadmin

import (
	"context"
	"fmt"
	"time"

	"github.com/vcslav-v/pb-admin/lib/imageutil"
	"github.com/vcslav-v/pb-admin/lib/nova"
)

// ArticleBlock is one block of article content: a TextBlock, CardBlock,
// VideoBlock, QuoteBlock or ImageBlock.
type ArticleBlock interface {
	BlockKey() string
	block() nova.Block
}

type TextBlock struct {
	Key  string
	Text string
}

type CardBlock struct {
	Key         string
	Title       string
	Description string
	ButtonText  string
	LinkURL     string
	LinkText    string
}

type VideoBlock struct {
	Key   string
	Title string
	Link  string
}

type QuoteBlock struct {
	Key        string
	Text       string
	LinkText   string
	AuthorLink string
	AuthorJob  string
}

type ImageBlock struct {
	Key        string
	ImageLink  string
	InNewTab   bool
	Nofollow   bool
	ImageAlt   string
	ImageTitle string
}

func (b TextBlock) BlockKey() string  { return b.Key }
func (b CardBlock) BlockKey() string  { return b.Key }
func (b VideoBlock) BlockKey() string { return b.Key }
func (b QuoteBlock) BlockKey() string { return b.Key }
func (b ImageBlock) BlockKey() string { return b.Key }

func (b TextBlock) block() nova.Block {
	return nova.NewBlock("text", b.Key).With("text", b.Text)
}

func (b CardBlock) block() nova.Block {
	return nova.NewBlock("card", b.Key).
		With("title", b.Title).
		With("description", b.Description).
		With("button_text", b.ButtonText).
		With("link_url", b.LinkURL).
		With("link_text", b.LinkText)
}

func (b VideoBlock) block() nova.Block {
	return nova.NewBlock("video", b.Key).
		With("title", b.Title).
		With("link", b.Link)
}

func (b QuoteBlock) block() nova.Block {
	return nova.NewBlock("quote", b.Key).
		With("text", b.Text).
		With("link_text", b.LinkText).
		With("author_link", b.AuthorLink).
		With("author_job", b.AuthorJob)
}

func (b ImageBlock) block() nova.Block {
	return nova.NewBlock("image", b.Key).
		With("image_link", b.ImageLink).
		With("in_new_tab", b.InNewTab).
		With("nofollow", b.Nofollow).
		With("image_alt", b.ImageAlt).
		With("image_title", b.ImageTitle)
}

func decodeArticleBlock(b nova.Block) (ArticleBlock, error) {
	switch b.Layout {
	case "text":
		return TextBlock{Key: b.Key, Text: b.String("text")}, nil
	case "card":
		return CardBlock{
			Key:         b.Key,
			Title:       b.String("title"),
			Description: b.String("description"),
			ButtonText:  b.String("button_text"),
			LinkURL:     b.String("link_url"),
			LinkText:    b.String("link_text"),
		}, nil
	case "video":
		return VideoBlock{Key: b.Key, Title: b.String("title"), Link: b.String("link")}, nil
	case "quote":
		return QuoteBlock{
			Key:        b.Key,
			Text:       b.String("text"),
			LinkText:   b.String("link_text"),
			AuthorLink: b.String("author_link"),
			AuthorJob:  b.String("author_job"),
		}, nil
	case "image":
		return ImageBlock{
			Key:        b.Key,
			ImageLink:  b.String("image_link"),
			InNewTab:   b.Bool("in_new_tab"),
			Nofollow:   b.Bool("nofollow"),
			ImageAlt:   b.String("image_alt"),
			ImageTitle: b.String("image_title"),
		}, nil
	}
	return nil, &nova.DataShapeError{
		Resource:  "articles",
		Attribute: "content",
		Reason:    fmt.Sprintf("unknown block layout %q", b.Layout),
	}
}

// EncodeArticleContent renders blocks the way the content field is
// submitted. Blocks without a key get a fresh one.
func EncodeArticleContent(form *nova.Form, content []ArticleBlock) error {
	blocks := make([]nova.Block, len(content))
	for i, b := range content {
		blocks[i] = b.block()
	}
	return form.SetFlexible("content", blocks)
}

// DecodeArticleContent is the inverse of EncodeArticleContent.
func DecodeArticleContent(v nova.Values) ([]ArticleBlock, error) {
	blocks, err := v.Blocks("content")
	if err != nil {
		return nil, err
	}
	content := make([]ArticleBlock, 0, len(blocks))
	for _, b := range blocks {
		decoded, err := decodeArticleBlock(b)
		if err != nil {
			return nil, err
		}
		content = append(content, decoded)
	}
	return content, nil
}

type ArticleLite struct {
	ID         int
	CreatedAt  *time.Time
	Title      string
	Slug       string
	Live       bool
	Sponsored  bool
	ShowStats  bool
	CountViews *int
	AuthorID   *int
}

type Article struct {
	ArticleLite

	ShortDescription string
	MetaTitle        string
	MetaDescription  string
	MetaKeywords     string

	Thumbnail       *nova.Image
	ThumbnailRetina *nova.Image
	PushImage       *nova.Image
	MainImage       *nova.Image
	MainImageRetina *nova.Image

	CategoryIDs []int
	Content     []ArticleBlock
}

type Articles struct {
	r resource
}

func newArticles(c *nova.Client) *Articles {
	return &Articles{r: resource{
		client: c,
		name:   "articles",
		kinds: nova.Kinds{
			"author":                nova.BelongsTo,
			"options":               nova.OptionGroup,
			"material_image":        nova.Media,
			"material_image_retina": nova.Media,
			"push_image":            nova.Media,
			"article_main":          nova.Media,
			"article_main_retina":   nova.Media,
			"content":               nova.Flexible,
		},
	}}
}

func (a *Articles) decodeLite(id int, v nova.Values) (ArticleLite, error) {
	createdAt, err := timeValue(v, a.r.name, "created_at")
	if err != nil {
		return ArticleLite{}, err
	}
	return ArticleLite{
		ID:         id,
		CreatedAt:  createdAt,
		Title:      v.String("title"),
		Slug:       v.String("slug"),
		Live:       liveStatus(v, "status"),
		Sponsored:  v.Bool("sponsored"),
		ShowStats:  v.Bool("show_stats"),
		CountViews: v.IntPtr("count_views"),
		AuthorID:   v.IntPtr("author"),
	}, nil
}

func (a *Articles) List(ctx context.Context, opts ListOptions) (nova.Listing[ArticleLite], error) {
	return listResource(ctx, a.r, opts, nil, func(row nova.Row, v nova.Values) (ArticleLite, error) {
		return a.decodeLite(int(row.ID), v)
	})
}

// Get reads an article with its content and categories.
func (a *Articles) Get(ctx context.Context, id int) (Article, error) {
	rec, err := a.r.detail(ctx, id)
	if err != nil {
		return Article{}, err
	}
	v := rec.Values
	lite, err := a.decodeLite(id, v)
	if err != nil {
		return Article{}, err
	}
	article := Article{
		ArticleLite:      lite,
		ShortDescription: v.String("short_description"),
		MetaTitle:        v.String("meta_title"),
		MetaDescription:  v.String("meta_description"),
		MetaKeywords:     v.String("meta_keywords"),
	}

	images := []struct {
		field string
		dst   **nova.Image
	}{
		{"material_image", &article.Thumbnail},
		{"material_image_retina", &article.ThumbnailRetina},
		{"push_image", &article.PushImage},
		{"article_main", &article.MainImage},
		{"article_main_retina", &article.MainImageRetina},
	}
	for _, img := range images {
		*img.dst, err = v.Image(img.field)
		if err != nil {
			return Article{}, fmt.Errorf("article %d: %w", id, err)
		}
	}

	article.Content, err = DecodeArticleContent(v)
	if err != nil {
		return Article{}, fmt.Errorf("article %d: %w", id, err)
	}
	article.CategoryIDs, err = a.r.attachable(ctx, id, "categories")
	if err != nil {
		return Article{}, err
	}
	return article, nil
}

func (a *Articles) form(ctx context.Context, article *Article) (*nova.Form, error) {
	err := a.r.prepareImages(
		ctx, imageutil.Bounds{},
		article.Thumbnail,
		article.ThumbnailRetina,
		article.PushImage,
		article.MainImage,
		article.MainImageRetina,
	)
	if err != nil {
		return nil, err
	}

	createdAt := ""
	if article.CreatedAt != nil {
		createdAt = article.CreatedAt.Format(time.DateOnly)
	}
	author := 0
	if article.AuthorID != nil {
		author = *article.AuthorID
	}

	form := nova.NewForm().
		Set("title", article.Title).
		Set("created_at", createdAt).
		Set("slug", article.Slug).
		SetBool("status", article.Live).
		SetBool("sponsored", article.Sponsored).
		SetBool("show_stats", article.ShowStats).
		Set("short_description", article.ShortDescription).
		SetIntPtr("count_views", article.CountViews).
		SetBelongsTo("author", author, false).
		SetRelation("categories", article.CategoryIDs).
		SetOption("meta_title", article.MetaTitle).
		SetOption("meta_description", article.MetaDescription).
		SetOption("meta_keywords", article.MetaKeywords)

	err = EncodeArticleContent(form, article.Content)
	if err != nil {
		return nil, err
	}

	media := []struct {
		field string
		img   *nova.Image
	}{
		{"material_image", article.Thumbnail},
		{"material_image_retina", article.ThumbnailRetina},
		{"push_image", article.PushImage},
		{"article_main", article.MainImage},
		{"article_main_retina", article.MainImageRetina},
	}
	for _, m := range media {
		err = form.SetImage(m.field, 0, m.img)
		if err != nil {
			return nil, err
		}
	}
	return form, nil
}

// Update stores article. Unless lite is set the stored article is
// returned.
func (a *Articles) Update(ctx context.Context, article Article, lite bool) (*Article, error) {
	if err := a.r.client.RequireWrite("update articles"); err != nil {
		return nil, err
	}
	if err := requireID(a.r.name, article.ID); err != nil {
		return nil, err
	}

	form, err := a.form(ctx, &article)
	if err != nil {
		return nil, err
	}
	err = a.r.update(ctx, article.ID, form)
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := a.Get(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
