package reverb

import (
	"strings"
)

// Payload is a decoded JSON object from the remote API. The API returns
// inconsistent and partially populated shapes across endpoints, so access
// goes through total accessors that treat wrong-typed or missing values as
// absent rather than failing.
type Payload = map[string]any

// Str returns the string at key, or "" and false when the key is missing,
// the value is not a string, or the string is blank.
func Str(p Payload, key string) (string, bool) {
	if p == nil {
		return "", false
	}
	s, ok := p[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Num returns the number at key. JSON numbers decode as float64.
func Num(p Payload, key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Bool returns the bool at key.
func Bool(p Payload, key string) (bool, bool) {
	if p == nil {
		return false, false
	}
	b, ok := p[key].(bool)
	return b, ok
}

// Obj returns the nested object at key.
func Obj(p Payload, key string) (Payload, bool) {
	if p == nil {
		return nil, false
	}
	o, ok := p[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return o, true
}

// List returns the array of objects at key. Non-object elements are skipped.
func List(p Payload, key string) ([]Payload, bool) {
	if p == nil {
		return nil, false
	}
	raw, ok := p[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Payload, 0, len(raw))
	for _, item := range raw {
		if o, ok := item.(map[string]any); ok {
			out = append(out, o)
		}
	}
	return out, true
}

// Dig walks a chain of nested objects and returns the object at the end.
func Dig(p Payload, keys ...string) (Payload, bool) {
	cur := p
	for _, key := range keys {
		next, ok := Obj(cur, key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// DigStr walks nested objects and returns the string at the final key.
func DigStr(p Payload, keys ...string) (string, bool) {
	if len(keys) == 0 {
		return "", false
	}
	parent := p
	if len(keys) > 1 {
		var ok bool
		parent, ok = Dig(p, keys[:len(keys)-1]...)
		if !ok {
			return "", false
		}
	}
	return Str(parent, keys[len(keys)-1])
}

// SelfLink returns the href of the payload's self link, when present.
func SelfLink(p Payload) (string, bool) {
	return DigStr(p, "_links", "self", "href")
}

// Collection extracts a list of objects from a HAL-style response: a
// top-level array field first, then the same field one level down inside
// an "_embedded" wrapper.
func Collection(p Payload, key string) []Payload {
	if items, ok := List(p, key); ok {
		return items
	}
	if embedded, ok := Obj(p, "_embedded"); ok {
		if items, ok := List(embedded, key); ok {
			return items
		}
	}
	return nil
}
