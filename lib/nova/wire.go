package nova

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is one field descriptor of a panel resource as it appears in
// listing rows, detail responses and update-field panels.
type Field struct {
	Attribute    string          `json:"attribute"`
	Component    string          `json:"component,omitempty"`
	Value        json.RawMessage `json:"value,omitempty"`
	BelongsToID  json.RawMessage `json:"belongsToId,omitempty"`
	MorphToID    json.RawMessage `json:"morphToId,omitempty"`
	ResourceName string          `json:"resourceName,omitempty"`
	Options      json.RawMessage `json:"options,omitempty"`
	Fields       FieldList       `json:"fields,omitempty"`
}

// FieldList accepts both the array form and the keyed object form the
// panel uses for field collections.
type FieldList []Field

func (l *FieldList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var fields []Field
		if err := json.Unmarshal(data, &fields); err != nil {
			return err
		}
		*l = fields
		return nil
	}

	// keyed object, decoded token by token to keep the panel's order
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var fields []Field
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		var f Field
		if err := dec.Decode(&f); err != nil {
			return err
		}
		fields = append(fields, f)
	}
	*l = fields
	return nil
}

// ID is a resource identity as the panel serializes it: a number, a
// numeric string, or an object of the form {"value": 1}.
type ID int

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}
	if data[0] == '{' {
		var wrapped struct {
			Value ID `json:"value"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		*id = wrapped.Value
		return nil
	}
	n, err := parseInt(data)
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", string(data), err)
	}
	*id = ID(n)
	return nil
}

// Row is one entry of a listing response.
type Row struct {
	ID     ID        `json:"id"`
	Fields FieldList `json:"fields"`
}

// Page is a listing response.
type Page struct {
	Resources   []Row   `json:"resources"`
	NextPageURL *string `json:"next_page_url"`
	Total       int     `json:"total"`
}

// Detail is the response of /nova-api/{resource}/{id}.
type Detail struct {
	Resource struct {
		ID     ID        `json:"id"`
		Fields FieldList `json:"fields"`
	} `json:"resource"`
}

// UpdateFields is the response of /nova-api/{resource}/{id}/update-fields,
// fields are usually grouped into panels.
type UpdateFields struct {
	Fields FieldList `json:"fields"`
}

// Created is the response of a create request. Depending on the resource
// the identity is either top-level or nested under "resource".
type Created struct {
	ID       ID `json:"id"`
	Resource struct {
		ID ID `json:"id"`
	} `json:"resource"`
}

func (c Created) Identity() int {
	if c.Resource.ID != 0 {
		return int(c.Resource.ID)
	}
	return int(c.ID)
}

// Kind selects how a field is decoded.
type Kind int

const (
	Scalar Kind = iota
	BelongsTo
	MorphTo
	Media
	OptionGroup
	Flexible
	Container
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case BelongsTo:
		return "belongs-to"
	case MorphTo:
		return "morph-to"
	case Media:
		return "media"
	case OptionGroup:
		return "option-group"
	case Flexible:
		return "flexible-content"
	case Container:
		return "container"
	}
	return "unknown"
}

// Kinds is the field table of a resource: attribute name to wire kind.
// Attributes missing from the table are decoded by inspecting the field.
type Kinds map[string]Kind

func (k Kinds) of(f Field) Kind {
	if kind, ok := k[f.Attribute]; ok {
		return kind
	}
	switch {
	case f.Attribute == "" && len(f.Fields) > 0:
		return Container
	case len(f.MorphToID) > 0:
		return MorphTo
	case len(f.BelongsToID) > 0:
		return BelongsTo
	case f.Attribute == "options" && len(f.Fields) > 0:
		return OptionGroup
	}
	return Scalar
}

func parseInt(data []byte) (int, error) {
	s := string(bytes.Trim(data, `"`))
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, err
	}
	return int(f), nil
}
