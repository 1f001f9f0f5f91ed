package nova

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Values is the flattened attribute map of one resource instance.
type Values struct {
	attrs   map[string]json.RawMessage
	options map[string]json.RawMessage
}

// MorphKey is the key under which a morph-to field stores its identity,
// e.g. MorphKey("Orderable", "products").
func MorphKey(attribute, resourceName string) string {
	return attribute + "." + resourceName
}

// Decode flattens a field list into Values, dispatching on the kind of
// every field. It performs no I/O.
func Decode(fields []Field, kinds Kinds) (Values, error) {
	v := Values{
		attrs:   map[string]json.RawMessage{},
		options: map[string]json.RawMessage{},
	}
	err := v.decode(fields, kinds)
	return v, err
}

func (v Values) decode(fields []Field, kinds Kinds) error {
	for _, f := range fields {
		switch kinds.of(f) {
		case BelongsTo:
			v.attrs[f.Attribute] = f.BelongsToID
		case MorphTo:
			if f.ResourceName == "" {
				v.attrs[f.Attribute] = f.MorphToID
				continue
			}
			v.attrs[MorphKey(f.Attribute, f.ResourceName)] = f.MorphToID
		case OptionGroup:
			if err := v.decodeOptionGroup(f, kinds); err != nil {
				return err
			}
		case Container:
			if err := v.decode(f.Fields, kinds); err != nil {
				return err
			}
		default:
			v.attrs[f.Attribute] = f.Value
			if len(f.Options) > 0 && !isNull(f.Options) {
				v.options[f.Attribute] = f.Options
			}
		}
	}
	return nil
}

func (v Values) decodeOptionGroup(f Field, kinds Kinds) error {
	if len(f.Fields) > 0 {
		return v.decode(f.Fields, kinds)
	}
	if isNull(f.Value) {
		return nil
	}
	raw := bytes.TrimSpace(f.Value)
	if raw[0] == '[' {
		// an empty option group is serialized as an empty list
		return nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return &DataShapeError{Attribute: f.Attribute, Reason: fmt.Sprintf("option group is not an object: %s", err)}
	}
	for k, val := range nested {
		v.attrs[k] = val
	}
	return nil
}

func (v Values) Has(name string) bool {
	_, ok := v.attrs[name]
	return ok
}

func (v Values) Raw(name string) json.RawMessage {
	return v.attrs[name]
}

// Require returns a DataShapeError when the attribute is absent.
func (v Values) Require(resource string, names ...string) error {
	for _, name := range names {
		if !v.Has(name) {
			return &DataShapeError{Resource: resource, Attribute: name, Reason: "missing attribute"}
		}
	}
	return nil
}

func (v Values) String(name string) string {
	s, _ := rawString(v.attrs[name])
	return s
}

// StringPtr is nil when the attribute is absent or null.
func (v Values) StringPtr(name string) *string {
	s, ok := rawString(v.attrs[name])
	if !ok {
		return nil
	}
	return &s
}

func (v Values) Int(name string) int {
	n, _ := rawInt(v.attrs[name])
	return n
}

func (v Values) IntPtr(name string) *int {
	n, ok := rawInt(v.attrs[name])
	if !ok {
		return nil
	}
	return &n
}

func (v Values) Float(name string) float64 {
	f, _ := rawFloat(v.attrs[name])
	return f
}

func (v Values) Bool(name string) bool {
	return rawBool(v.attrs[name])
}

func (v Values) Time(name string) time.Time {
	t, _ := rawTime(v.attrs[name])
	return t
}

func (v Values) TimePtr(name string) *time.Time {
	t, ok := rawTime(v.attrs[name])
	if !ok {
		return nil
	}
	return &t
}

func (v Values) IntList(name string) []int {
	return rawIntList(v.attrs[name])
}

// Select resolves a select field through its option list, matching the
// stored value against both option values and labels.
func (v Values) Select(name string) string {
	options, ok := v.options[name]
	if ok {
		resolved, ok := resolveOption(v.attrs[name], options)
		if ok {
			s, _ := rawString(resolved)
			return s
		}
	}
	return v.String(name)
}

// SelectInt is Select for integer-valued options.
func (v Values) SelectInt(name string) int {
	n, _ := parseInt([]byte(v.Select(name)))
	return n
}

type wireMedia struct {
	ID               ID              `json:"id"`
	MimeType         string          `json:"mime_type"`
	OriginalURL      string          `json:"original_url"`
	FileName         string          `json:"file_name"`
	CustomProperties json.RawMessage `json:"custom_properties"`
}

func (m wireMedia) image() Image {
	img := Image{
		ID:          int(m.ID),
		MimeType:    m.MimeType,
		OriginalURL: m.OriginalURL,
		FileName:    m.FileName,
	}
	raw := bytes.TrimSpace(m.CustomProperties)
	if len(raw) > 0 && raw[0] == '{' {
		var props struct {
			Alt string `json:"alt"`
		}
		if json.Unmarshal(raw, &props) == nil {
			img.Alt = props.Alt
		}
	}
	return img
}

// Images decodes a media field into image references.
func (v Values) Images(name string) ([]Image, error) {
	raw := v.attrs[name]
	if isNull(raw) {
		return nil, nil
	}
	var media []wireMedia
	if err := json.Unmarshal(raw, &media); err != nil {
		return nil, &DataShapeError{Attribute: name, Reason: fmt.Sprintf("media field is not a list: %s", err)}
	}
	out := make([]Image, len(media))
	for i, m := range media {
		out[i] = m.image()
	}
	return out, nil
}

// Image returns the first image of a media field, or nil.
func (v Values) Image(name string) (*Image, error) {
	images, err := v.Images(name)
	if err != nil || len(images) == 0 {
		return nil, err
	}
	return &images[0], nil
}

// SingleImage is Image for fields that must carry at most one entry.
func (v Values) SingleImage(name string) (*Image, error) {
	images, err := v.Images(name)
	if err != nil {
		return nil, err
	}
	switch len(images) {
	case 0:
		return nil, nil
	case 1:
		return &images[0], nil
	}
	return nil, &DataShapeError{
		Attribute: name,
		Reason:    fmt.Sprintf("expected a single image, got %d", len(images)),
	}
}

// Blocks decodes a flexible content field.
func (v Values) Blocks(name string) ([]Block, error) {
	return decodeBlocks(name, v.attrs[name])
}
