package contentful

import (
	"encoding/json"
	"strconv"
	"time"
)

// The accessors below never fail: a missing or malformed field yields the
// zero value so rendering can continue with defaults.

// Raw returns the undecoded field, or nil.
func (e Entry) Raw(name string) json.RawMessage {
	return e.Fields[name]
}

// Has reports whether the field is present and not null.
func (e Entry) Has(name string) bool {
	raw, ok := e.Fields[name]
	return ok && len(raw) > 0 && string(raw) != "null"
}

// String returns a text field.
func (e Entry) String(name string) string {
	var s string
	if json.Unmarshal(e.Fields[name], &s) == nil {
		return s
	}
	return ""
}

// Strings returns a list-of-text field. A single string becomes a one-item list.
func (e Entry) Strings(name string) []string {
	raw := e.Fields[name]
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}
	var one string
	if json.Unmarshal(raw, &one) == nil && one != "" {
		return []string{one}
	}
	return nil
}

// Bool returns a boolean field; def is used when it is missing.
func (e Entry) Bool(name string, def bool) bool {
	var b bool
	if json.Unmarshal(e.Fields[name], &b) == nil {
		return b
	}
	return def
}

// Int returns an integer field. Numeric strings are accepted.
func (e Entry) Int(name string) int {
	f := e.Float(name)
	return int(f)
}

// Float returns a number field. Numeric strings are accepted.
func (e Entry) Float(name string) float64 {
	raw := e.Fields[name]
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	}
	return 0
}

// Time parses an RFC 3339 or date-only field.
func (e Entry) Time(name string) time.Time {
	s := e.String(name)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Link returns a single-link field.
func (e Entry) Link(name string) (Link, bool) {
	var l Link
	if json.Unmarshal(e.Fields[name], &l) != nil || l.Sys.ID == "" {
		return Link{}, false
	}
	return l, true
}

// Links returns a list-of-links field, skipping malformed items.
func (e Entry) Links(name string) []Link {
	var raw []json.RawMessage
	if json.Unmarshal(e.Fields[name], &raw) != nil {
		return nil
	}
	out := make([]Link, 0, len(raw))
	for _, r := range raw {
		var l Link
		if json.Unmarshal(r, &l) == nil && l.Sys.ID != "" {
			out = append(out, l)
		}
	}
	return out
}

// StringMap returns an object field whose values are rendered as strings.
func (e Entry) StringMap(name string) map[string]string {
	var obj map[string]any
	if json.Unmarshal(e.Fields[name], &obj) != nil {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case float64:
			out[k] = strconv.FormatFloat(tv, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(tv)
		case nil:
		default:
			if b, err := json.Marshal(tv); err == nil {
				out[k] = string(b)
			}
		}
	}
	return out
}
