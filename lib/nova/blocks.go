package nova

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Block is one entry of a flexible content field. Attributes are keyed by
// the bare sub-field name, the "<key>__" prefix is added when encoding.
type Block struct {
	Layout     string
	Key        string
	Attributes map[string]json.RawMessage

	options map[string]json.RawMessage
}

func NewBlock(layout, key string) Block {
	return Block{Layout: layout, Key: key, Attributes: map[string]json.RawMessage{}}
}

// NewBlockKey returns a fresh block key: a random token followed by a
// layout suffix.
func NewBlockKey(suffix string) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	if suffix == "" {
		return token
	}
	return token + "-" + suffix
}

// With sets a sub-attribute. Booleans are stored as "1"/"0".
func (b Block) With(sub string, value any) Block {
	if b.Attributes == nil {
		b.Attributes = map[string]json.RawMessage{}
	}
	switch val := value.(type) {
	case bool:
		value = boolString(val)
	case json.RawMessage:
		b.Attributes[sub] = val
		return b
	}
	raw, err := json.Marshal(value)
	if err != nil {
		raw = null
	}
	b.Attributes[sub] = raw
	return b
}

func (b Block) String(sub string) string {
	s, _ := rawString(b.Attributes[sub])
	return s
}

func (b Block) Bool(sub string) bool {
	return rawBool(b.Attributes[sub])
}

func (b Block) Int(sub string) int {
	n, _ := rawInt(b.Attributes[sub])
	return n
}

func (b Block) Has(sub string) bool {
	_, ok := b.Attributes[sub]
	return ok
}

// OptionID resolves a select sub-attribute against its option list, it is
// nil when the value matches no option.
func (b Block) OptionID(sub string) *int {
	options, ok := b.options[sub]
	if !ok {
		n, ok := rawInt(b.Attributes[sub])
		if !ok {
			return nil
		}
		return &n
	}
	resolved, ok := resolveOption(b.Attributes[sub], options)
	if !ok {
		return nil
	}
	n, ok := rawInt(resolved)
	if !ok {
		return nil
	}
	return &n
}

type wireBlock struct {
	Layout     string          `json:"layout"`
	Key        string          `json:"key"`
	Attributes json.RawMessage `json:"attributes"`
}

func decodeBlocks(name string, raw json.RawMessage) ([]Block, error) {
	if isNull(raw) {
		return nil, nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] == '"' {
		// the field was stored as the encoded JSON string
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s == "" {
			return nil, nil
		}
		raw = json.RawMessage(s)
	}

	var wire []wireBlock
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &DataShapeError{Attribute: name, Reason: fmt.Sprintf("flexible content is not a list: %s", err)}
	}

	blocks := make([]Block, 0, len(wire))
	for i, w := range wire {
		if w.Layout == "" {
			return nil, &DataShapeError{Attribute: name, Reason: fmt.Sprintf("block %d has no layout", i)}
		}
		b := Block{
			Layout:     w.Layout,
			Key:        w.Key,
			Attributes: map[string]json.RawMessage{},
			options:    map[string]json.RawMessage{},
		}
		if err := b.decodeAttributes(w.Attributes); err != nil {
			return nil, &DataShapeError{Attribute: name, Reason: fmt.Sprintf("block %q: %s", w.Key, err)}
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func (b Block) subName(attribute string) string {
	prefix := b.Key + "__"
	if b.Key != "" && strings.HasPrefix(attribute, prefix) {
		return attribute[len(prefix):]
	}
	return attribute
}

func (b Block) decodeAttributes(raw json.RawMessage) error {
	if isNull(raw) {
		return nil
	}
	raw = bytes.TrimSpace(raw)
	if raw[0] == '{' {
		var keyed map[string]json.RawMessage
		if err := json.Unmarshal(raw, &keyed); err != nil {
			return err
		}
		for attr, val := range keyed {
			b.Attributes[b.subName(attr)] = val
		}
		return nil
	}

	var fields []Field
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for _, f := range fields {
		sub := b.subName(f.Attribute)
		b.Attributes[sub] = f.Value
		if len(f.Options) > 0 && !isNull(f.Options) {
			b.options[sub] = f.Options
		}
	}
	return nil
}

// MarshalJSON writes the block in the form the panel accepts on submit.
func (b Block) MarshalJSON() ([]byte, error) {
	attrs := make(map[string]json.RawMessage, len(b.Attributes))
	for sub, val := range b.Attributes {
		if len(val) == 0 {
			val = json.RawMessage(`""`)
		}
		attrs[b.Key+"__"+sub] = val
	}
	return json.Marshal(struct {
		Layout     string                     `json:"layout"`
		Key        string                     `json:"key"`
		Attributes map[string]json.RawMessage `json:"attributes"`
	}{b.Layout, b.Key, attrs})
}
