package nova

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

var null = []byte("null")

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, null)
}

func rawString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "1", true
		}
		return "0", true
	}
	// numbers and anything else keep their literal form
	return string(bytes.TrimSpace(raw)), true
}

func rawInt(raw json.RawMessage) (int, bool) {
	s, ok := rawString(raw)
	if !ok || s == "" {
		return 0, false
	}
	n, err := parseInt([]byte(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func rawFloat(raw json.RawMessage) (float64, bool) {
	s, ok := rawString(raw)
	if !ok || s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func rawBool(raw json.RawMessage) bool {
	s, ok := rawString(raw)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000000Z",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func rawTime(raw json.RawMessage) (time.Time, bool) {
	s, ok := rawString(raw)
	if !ok || s == "" {
		return time.Time{}, false
	}
	return parseTime(s)
}

func rawIntList(raw json.RawMessage) []int {
	if isNull(raw) {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		// a relation list serialized as a string, "[1, 2]"
		s, ok := rawString(raw)
		if !ok || json.Unmarshal([]byte(s), &list) != nil {
			return nil
		}
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		n, ok := rawInt(item)
		if ok {
			out = append(out, n)
		}
	}
	return out
}

type selectOption struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
}

// resolveOption maps a select value onto its option list. A value equal
// to an option's label or value resolves to that option's value.
func resolveOption(value json.RawMessage, options json.RawMessage) (json.RawMessage, bool) {
	var opts []selectOption
	if err := json.Unmarshal(options, &opts); err != nil {
		var keyed map[string]string
		if err := json.Unmarshal(options, &keyed); err != nil {
			return nil, false
		}
		for v, label := range keyed {
			opts = append(opts, selectOption{Label: label, Value: json.RawMessage(strconv.Quote(v))})
		}
	}
	s, ok := rawString(value)
	if !ok {
		return nil, false
	}
	for _, o := range opts {
		ov, _ := rawString(o.Value)
		if ov == s || o.Label == s {
			return o.Value, true
		}
	}
	return nil, false
}
