package testutil

import "fmt"

// Field is one field descriptor as the panel serializes it.
type Field map[string]any

func (f Field) Attribute() string {
	s, _ := f["attribute"].(string)
	return s
}

func Value(attribute string, value any) Field {
	return Field{"attribute": attribute, "value": value}
}

func FileField(attribute, path string) Field {
	return Field{"attribute": attribute, "component": "file-field", "value": path}
}

func BelongsTo(attribute string, id int) Field {
	var belongsTo any
	var label any
	if id != 0 {
		belongsTo = id
		label = fmt.Sprintf("%s #%d", attribute, id)
	}
	return Field{
		"attribute":   attribute,
		"component":   "belongs-to-field",
		"belongsToId": belongsTo,
		"value":       label,
	}
}

func MorphTo(attribute, resourceName string, id int) Field {
	return Field{
		"attribute":    attribute,
		"component":    "morph-to-field",
		"morphToId":    id,
		"resourceName": resourceName,
		"value":        fmt.Sprintf("%s #%d", resourceName, id),
	}
}

type Option struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

func Select(attribute string, value any, options ...Option) Field {
	return Field{
		"attribute": attribute,
		"component": "select-field",
		"value":     value,
		"options":   options,
	}
}

type MediaItem struct {
	ID               int            `json:"id"`
	MimeType         string         `json:"mime_type"`
	OriginalURL      string         `json:"original_url"`
	FileName         string         `json:"file_name"`
	CustomProperties map[string]any `json:"custom_properties"`
}

func Media(attribute string, items ...MediaItem) Field {
	if items == nil {
		items = []MediaItem{}
	}
	return Field{
		"attribute": attribute,
		"component": "advanced-media-library-field",
		"value":     items,
	}
}

// OptionGroup nests fields under the "options" attribute.
func OptionGroup(fields ...Field) Field {
	return Field{"attribute": "options", "fields": fields}
}

// Container groups fields without an attribute of its own, like update
// field panels and dependency containers.
func Container(component string, fields ...Field) Field {
	return Field{"attribute": "", "component": component, "fields": fields}
}

// Block is a flexible content entry in its stored form.
type Block struct {
	Layout     string         `json:"layout"`
	Key        string         `json:"key"`
	Attributes map[string]any `json:"attributes"`
}

func Flexible(attribute string, blocks ...Block) Field {
	if blocks == nil {
		blocks = []Block{}
	}
	return Field{
		"attribute": attribute,
		"component": "nova-flexible-content",
		"value":     blocks,
	}
}
