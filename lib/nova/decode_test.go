package nova

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const orderDetail = `{
	"resource": {
		"id": {"value": 77},
		"fields": [
			{"attribute": "id", "value": 77},
			{"attribute": "user", "component": "belongs-to-field", "belongsToId": 5, "value": "jane@example.com"},
			{"attribute": "Orderable", "component": "morph-to-field", "morphToId": 42, "resourceName": "products", "value": "Retro Mockup"},
			{"attribute": "coupon", "component": "belongs-to-field", "belongsToId": null, "value": null},
			{"attribute": "payed", "value": "Payed"},
			{"attribute": "count", "value": "2"},
			{"attribute": "price", "value": 12.5},
			{"attribute": "created_at", "value": "2024-03-01T10:20:30.000000Z"},
			{"attribute": "extended", "value": true}
		]
	}
}`

func TestDecodeDetail(t *testing.T) {
	var detail Detail
	require.NoError(t, json.Unmarshal([]byte(orderDetail), &detail))
	require.Equal(t, ID(77), detail.Resource.ID)

	v, err := Decode(detail.Resource.Fields, Kinds{"Orderable": MorphTo})
	require.NoError(t, err)

	require.Equal(t, 5, v.Int("user"))
	require.Equal(t, 42, v.Int(MorphKey("Orderable", "products")))
	require.False(t, v.Has(MorphKey("Orderable", "subscriptions")))
	require.Nil(t, v.IntPtr("coupon"))
	require.Equal(t, "Payed", v.String("payed"))
	require.Equal(t, 2, v.Int("count"))
	require.Equal(t, 12.5, v.Float("price"))
	require.True(t, v.Bool("extended"))
	require.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), v.Time("created_at"))

	require.ErrorIs(t, v.Require("orders", "user", "missing"), ErrDataShape)
}

const productUpdateFields = `{
	"fields": [
		{
			"component": "panel",
			"attribute": "",
			"fields": [
				{"attribute": "title", "value": "Retro Mockup"},
				{"attribute": "type", "component": "select-field", "value": "freebie", "options": [
					{"label": "Freebie", "value": "freebie"},
					{"label": "Premium", "value": "premium"}
				]},
				{"attribute": "status", "component": "select-field", "value": "Live", "options": [
					{"label": "Draft", "value": 1},
					{"label": "Live", "value": 2}
				]},
				{"attribute": "expires_at", "value": null},
				{"attribute": "thumbnail", "value": [
					{"id": 301, "mime_type": "image/jpeg", "original_url": "https://cdn.example.com/301/t.jpg", "file_name": "t.jpg", "custom_properties": {"alt": "front"}}
				]},
				{"attribute": "images", "value": [
					{"id": 302, "mime_type": "image/png", "original_url": "https://cdn.example.com/302/a.png", "file_name": "a.png", "custom_properties": []},
					{"id": 303, "mime_type": "image/png", "original_url": "https://cdn.example.com/303/b.png", "file_name": "b.png", "custom_properties": []}
				]},
				{"attribute": "options", "fields": [
					{"attribute": "meta_title", "value": "Retro"},
					{"attribute": "image_border", "value": true}
				]},
				{"attribute": "", "component": "nova-dependency-container", "fields": [
					{"attribute": "s3_path", "component": "file-field", "value": "products/retro.zip"}
				]},
				{"attribute": "fonts", "value": "[3, 4]"},
				{"attribute": "presentation", "component": "nova-flexible-content", "value": [
					{"layout": "image", "key": "k1", "attributes": [
						{"attribute": "k1__image", "value": "Second", "options": [
							{"label": "First", "value": 0},
							{"label": "Second", "value": 1}
						]}
					]},
					{"layout": "video", "key": "k2", "attributes": {"k2__title": "Teaser", "k2__link": "https://youtu.be/x"}}
				]}
			]
		}
	]
}`

func TestDecodeUpdateFields(t *testing.T) {
	var fields UpdateFields
	require.NoError(t, json.Unmarshal([]byte(productUpdateFields), &fields))

	v, err := Decode(fields.Fields, Kinds{
		"thumbnail":    Media,
		"images":       Media,
		"presentation": Flexible,
	})
	require.NoError(t, err)

	require.Equal(t, "Retro Mockup", v.String("title"))
	require.Equal(t, "freebie", v.Select("type"))
	require.Equal(t, 2, v.SelectInt("status"))
	require.Nil(t, v.StringPtr("expires_at"))
	require.Equal(t, "Retro", v.String("meta_title"))
	require.True(t, v.Bool("image_border"))
	require.Equal(t, "products/retro.zip", v.String("s3_path"))
	require.Equal(t, []int{3, 4}, v.IntList("fonts"))

	thumb, err := v.SingleImage("thumbnail")
	require.NoError(t, err)
	expected := &Image{
		ID:          301,
		MimeType:    "image/jpeg",
		OriginalURL: "https://cdn.example.com/301/t.jpg",
		FileName:    "t.jpg",
		Alt:         "front",
	}
	if d := cmp.Diff(expected, thumb); d != "" {
		t.Fatal(d)
	}

	images, err := v.Images("images")
	require.NoError(t, err)
	require.Len(t, images, 2)
	require.Equal(t, 303, images[1].ID)
	_, err = v.SingleImage("images")
	require.ErrorIs(t, err, ErrDataShape)

	blocks, err := v.Blocks("presentation")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, "image", blocks[0].Layout)
	require.Equal(t, 1, *blocks[0].OptionID("image"))
	require.Equal(t, "video", blocks[1].Layout)
	require.Equal(t, "Teaser", blocks[1].String("title"))
	require.Equal(t, "https://youtu.be/x", blocks[1].String("link"))
}

func TestDecodeOptionGroupValue(t *testing.T) {
	fields := []Field{
		{Attribute: "title", Value: json.RawMessage(`"Students"`)},
		{Attribute: "options", Value: json.RawMessage(`{"segment_id": "17"}`)},
	}
	v, err := Decode(fields, Kinds{"options": OptionGroup})
	require.NoError(t, err)
	require.Equal(t, 17, v.Int("segment_id"))

	fields[1].Value = json.RawMessage(`[]`)
	v, err = Decode(fields, Kinds{"options": OptionGroup})
	require.NoError(t, err)
	require.Nil(t, v.IntPtr("segment_id"))

	fields[1].Value = json.RawMessage(`"oops"`)
	_, err = Decode(fields, Kinds{"options": OptionGroup})
	require.ErrorIs(t, err, ErrDataShape)
}

func TestFieldListObjectForm(t *testing.T) {
	var fields UpdateFields
	err := json.Unmarshal([]byte(`{"fields": {
		"title": {"attribute": "title", "value": "Inter"},
		"size": {"attribute": "size", "value": null},
		"file": {"attribute": "file", "value": "inter.zip"}
	}}`), &fields)
	require.NoError(t, err)

	require.Len(t, fields.Fields, 3)
	require.Equal(t, "title", fields.Fields[0].Attribute)
	require.Equal(t, "file", fields.Fields[2].Attribute)
}

func TestIDForms(t *testing.T) {
	cases := map[string]ID{
		`12`:            12,
		`"12"`:          12,
		`{"value": 12}`: 12,
		`{"value":"7"}`: 7,
		`null`:          0,
		`12.0`:          12,
	}
	for raw, expect := range cases {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(raw), &id), raw)
		require.Equal(t, expect, id, raw)
	}

	var id ID
	require.Error(t, json.Unmarshal([]byte(`"twelve"`), &id))
}

func TestCreatedIdentity(t *testing.T) {
	var created Created
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "resource": {"id": 42}}`), &created))
	require.Equal(t, 42, created.Identity())

	created = Created{}
	require.NoError(t, json.Unmarshal([]byte(`{"resource": {"id": {"value": 9}}}`), &created))
	require.Equal(t, 9, created.Identity())
}

func TestBlocksStoredAsString(t *testing.T) {
	raw, err := json.Marshal(`[{"layout":"text","key":"a1","attributes":{"a1__text":"hello"}}]`)
	require.NoError(t, err)

	blocks, err := decodeBlocks("content", raw)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "hello", blocks[0].String("text"))

	_, err = decodeBlocks("content", json.RawMessage(`[{"key":"a1"}]`))
	require.ErrorIs(t, err, ErrDataShape)
}
