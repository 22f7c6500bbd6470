package vectorstore

import (
	"encoding/json"
	"strconv"
	"time"
)

// Payload is the schema-less attribute map stored with every record.
type Payload map[string]interface{}

// BasePayload returns the discriminator and timestamps every entity carries.
func BasePayload(recordType string, now time.Time) Payload {
	ts := FormatTime(now)
	return Payload{
		"type":       recordType,
		"created_at": ts,
		"updated_at": ts,
	}
}

// FormatTime renders t as the ISO-8601 UTC form used in payloads.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// Touch refreshes updated_at.
func (p Payload) Touch(now time.Time) {
	p["updated_at"] = FormatTime(now)
}

// Clone returns a shallow copy.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge copies src over p and returns p.
func (p Payload) Merge(src Payload) Payload {
	for k, v := range src {
		p[k] = v
	}
	return p
}

// Str returns the first non-empty string among keys. Aliases for renamed
// fields are passed as extra keys.
func (p Payload) Str(keys ...string) string {
	for _, k := range keys {
		switch v := p[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// StrPtr is Str returning nil when no key holds a non-empty string.
func (p Payload) StrPtr(keys ...string) *string {
	if s := p.Str(keys...); s != "" {
		return &s
	}
	return nil
}

// Float returns the first numeric value among keys, or 0.
func (p Payload) Float(keys ...string) float64 {
	for _, k := range keys {
		if f, ok := toFloat(p[k]); ok && f != 0 {
			return f
		}
	}
	return 0
}

func (p Payload) Int(keys ...string) int {
	return int(p.Float(keys...))
}

// Bool returns true when any key holds a truthy value.
func (p Payload) Bool(keys ...string) bool {
	for _, k := range keys {
		switch v := p[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if v != "" {
				return true
			}
		default:
			if f, ok := toFloat(v); ok && f != 0 {
				return true
			}
		}
	}
	return false
}

// Time parses the first parseable timestamp among keys.
func (p Payload) Time(keys ...string) (time.Time, bool) {
	for _, k := range keys {
		s, ok := p[k].(string)
		if !ok || s == "" {
			continue
		}
		if t, ok := ParseTime(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// Map returns the value at key when it is a JSON object.
func (p Payload) Map(key string) map[string]interface{} {
	if m, ok := p[key].(map[string]interface{}); ok {
		return m
	}
	if m, ok := p[key].(Payload); ok {
		return m
	}
	return nil
}

// ParseTime accepts RFC3339 with or without fractional seconds and offsets,
// plus the offset-less form some older records carry.
func ParseTime(s string) (time.Time, bool) {
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Number returns the numeric value at key.
func (p Payload) Number(key string) (float64, bool) {
	return toFloat(p[key])
}
