package pbadmin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vcslav-v/pb-admin/lib/imageutil"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/textutil"
)

// tag meta images are always 1920x1080
var tagImageBounds = imageutil.Exact(1920, 1080)

// DefaultMatchThreshold is the Jaro-Winkler similarity a tag name has to
// reach to be resolved.
const DefaultMatchThreshold = 0.92

type Tag struct {
	ID              int
	Name            string
	Title           string
	Description     string
	MetaTitle       string
	MetaDescription string
	NoIndex         bool
	Image           *nova.Image
	RelevantTagIDs  []int
	SubtagIDs       []int
	IsGroup         bool
}

type Tags struct {
	r resource
}

func newTags(c *nova.Client) *Tags {
	return &Tags{r: resource{
		client: c,
		name:   "tags",
		kinds:  nova.Kinds{"meta_image": nova.Media},
	}}
}

func decodeTag(id int, v nova.Values) Tag {
	return Tag{
		ID:              id,
		Name:            v.String("name"),
		Title:           v.String("title"),
		Description:     v.String("description"),
		MetaTitle:       v.String("meta_title"),
		MetaDescription: v.String("meta_description"),
		NoIndex:         v.Bool("no_index"),
		IsGroup:         v.Bool("group_size") || v.Int("group_size") > 0,
	}
}

func (t *Tags) List(ctx context.Context, opts ListOptions) (nova.Listing[Tag], error) {
	return listResource(ctx, t.r, opts, nil, func(row nova.Row, v nova.Values) (Tag, error) {
		return decodeTag(int(row.ID), v), nil
	})
}

// Get reads a tag with its meta image, relevant tags and subtags.
func (t *Tags) Get(ctx context.Context, id int) (Tag, error) {
	rec, err := t.r.detail(ctx, id)
	if err != nil {
		return Tag{}, err
	}
	tag := decodeTag(rec.ID, rec.Values)
	tag.Image, err = rec.Values.SingleImage("meta_image")
	if err != nil {
		return Tag{}, fmt.Errorf("tag %d: %w", id, err)
	}
	tag.RelevantTagIDs, err = t.r.attachable(ctx, id, "tags")
	if err != nil {
		return Tag{}, err
	}
	tag.SubtagIDs, err = t.r.attachable(ctx, id, "subtags")
	if err != nil {
		return Tag{}, err
	}
	tag.IsGroup = len(tag.SubtagIDs) > 0
	return tag, nil
}

func (t *Tags) form(ctx context.Context, tag *Tag) (*nova.Form, error) {
	err := t.r.prepareImages(ctx, tagImageBounds, tag.Image)
	if err != nil {
		return nil, err
	}
	form := nova.NewForm().
		Set("name", tag.Name).
		Set("title", tag.Title).
		Set("description", tag.Description).
		Set("meta_title", tag.MetaTitle).
		Set("meta_description", tag.MetaDescription).
		SetBool("no_index", tag.NoIndex).
		SetRelation("tags", tag.RelevantTagIDs).
		SetRelation("subtags", tag.SubtagIDs)
	err = form.SetImage("meta_image", 0, tag.Image)
	if err != nil {
		return nil, err
	}
	return form, nil
}

// Create stores a new tag. A pending meta image is fetched and normalized
// first. Unless lite is set the stored tag is returned.
func (t *Tags) Create(ctx context.Context, tag Tag, lite bool) (*Tag, error) {
	if err := t.r.client.RequireWrite("create tags"); err != nil {
		return nil, err
	}
	if err := requireNew(t.r.name, tag.ID); err != nil {
		return nil, err
	}

	form, err := t.form(ctx, &tag)
	if err != nil {
		return nil, err
	}
	id, err := t.r.create(ctx, form)
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := t.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (t *Tags) Update(ctx context.Context, tag Tag, lite bool) (*Tag, error) {
	if err := t.r.client.RequireWrite("update tags"); err != nil {
		return nil, err
	}
	if err := requireID(t.r.name, tag.ID); err != nil {
		return nil, err
	}

	form, err := t.form(ctx, &tag)
	if err != nil {
		return nil, err
	}
	err = t.r.update(ctx, tag.ID, form)
	if err != nil {
		return nil, err
	}
	if lite {
		return nil, nil
	}
	stored, err := t.Get(ctx, tag.ID)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (t *Tags) Delete(ctx context.Context, ids ...int) error {
	return t.r.destroy(ctx, ids...)
}

// FillByPolicy derives the title and SEO fields of a tag from its name.
func (tag Tag) FillByPolicy() Tag {
	title := textutil.Capitalize(tag.Name)
	tag.Name = strings.ToLower(tag.Name)
	tag.Title = title
	tag.MetaTitle = fmt.Sprintf("%s - Free Download on Pixelbuddha", title)
	tag.MetaDescription = fmt.Sprintf(
		"Get The Best Free %s on Pixelbuddha. ⬆️ 1000+ High-Quality Products ⬆️ Editable PSDs ⬆️ Exclusive Deals Today 💸",
		title,
	)
	return tag
}

type TagMatch struct {
	Tag        Tag
	Similarity float64
}

// MatchTag finds the tag whose name is most similar to name.
func MatchTag(name string, tags []Tag, threshold float64) (TagMatch, bool) {
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	match, ok := textutil.BestMatch(name, names, threshold)
	if !ok {
		return TagMatch{}, false
	}
	return TagMatch{Tag: tags[match.Index], Similarity: match.Similarity}, true
}

// Resolve maps free-text names onto existing tags, listing the tags once.
// Names that match no tag are returned in unresolved.
func (t *Tags) Resolve(ctx context.Context, names []string, threshold float64) (resolved map[string]TagMatch, unresolved []string, err error) {
	ctx, span := tracer.Start(ctx, "tags:Resolve")
	defer span.End()

	listing, err := t.List(ctx, ListOptions{})
	if err != nil {
		return nil, nil, err
	}

	resolved = map[string]TagMatch{}
	for _, name := range names {
		match, ok := MatchTag(name, listing.Items, threshold)
		if !ok {
			unresolved = append(unresolved, name)
			continue
		}
		resolved[name] = match
	}

	slog.DebugContext(
		ctx, "resolved tag names",
		"names", len(names),
		"resolved", len(resolved),
		"unresolved", len(unresolved),
	)
	return resolved, unresolved, nil
}
