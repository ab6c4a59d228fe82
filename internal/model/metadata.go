package model

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"

	"github.com/rotisserie/eris"
)

// MetadataKind tags the variant held by a MetadataValue.
type MetadataKind int

// Metadata variants. The zero value is MetadataNull.
const (
	MetadataNull MetadataKind = iota
	MetadataString
	MetadataBool
	MetadataNumber
	MetadataList
	MetadataMap
)

// String returns the lowercase variant name.
func (k MetadataKind) String() string {
	switch k {
	case MetadataString:
		return "string"
	case MetadataBool:
		return "bool"
	case MetadataNumber:
		return "number"
	case MetadataList:
		return "list"
	case MetadataMap:
		return "map"
	default:
		return "null"
	}
}

// MetadataValue is an arbitrarily nested vendor metadata value: a string,
// bool, number, list, map, or null. Only the field matching Kind is set.
type MetadataValue struct {
	Kind MetadataKind
	Str  string
	Bool bool
	Num  float64
	List []MetadataValue
	Map  map[string]MetadataValue
}

// String builds a string metadata value.
func String(s string) MetadataValue {
	return MetadataValue{Kind: MetadataString, Str: s}
}

// Bool builds a boolean metadata value.
func Bool(b bool) MetadataValue {
	return MetadataValue{Kind: MetadataBool, Bool: b}
}

// Number builds a numeric metadata value.
func Number(n float64) MetadataValue {
	return MetadataValue{Kind: MetadataNumber, Num: n}
}

// List builds a list metadata value.
func List(items ...MetadataValue) MetadataValue {
	return MetadataValue{Kind: MetadataList, List: items}
}

// Map builds a map metadata value.
func Map(entries map[string]MetadataValue) MetadataValue {
	return MetadataValue{Kind: MetadataMap, Map: entries}
}

// Null returns the null metadata value.
func Null() MetadataValue {
	return MetadataValue{}
}

// MetadataFromAny converts a decoded JSON or YAML value into a MetadataValue.
// Unsupported types become null.
func MetadataFromAny(v any) MetadataValue {
	switch t := v.(type) {
	case nil:
		return Null()
	case MetadataValue:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Number(f)
	case []any:
		items := make([]MetadataValue, 0, len(t))
		for _, item := range t {
			items = append(items, MetadataFromAny(item))
		}
		return List(items...)
	case []string:
		items := make([]MetadataValue, 0, len(t))
		for _, item := range t {
			items = append(items, String(item))
		}
		return List(items...)
	case map[string]any:
		entries := make(map[string]MetadataValue, len(t))
		for k, item := range t {
			entries[k] = MetadataFromAny(item)
		}
		return Map(entries)
	case map[any]any:
		// yaml.v2-style maps; non-string keys are dropped.
		entries := make(map[string]MetadataValue, len(t))
		for k, item := range t {
			if ks, ok := k.(string); ok {
				entries[ks] = MetadataFromAny(item)
			}
		}
		return Map(entries)
	default:
		return Null()
	}
}

// Any converts the value back to plain Go types.
func (m MetadataValue) Any() any {
	switch m.Kind {
	case MetadataString:
		return m.Str
	case MetadataBool:
		return m.Bool
	case MetadataNumber:
		return m.Num
	case MetadataList:
		out := make([]any, 0, len(m.List))
		for _, item := range m.List {
			out = append(out, item.Any())
		}
		return out
	case MetadataMap:
		out := make(map[string]any, len(m.Map))
		for k, item := range m.Map {
			out[k] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether two metadata values are structurally equal.
func (m MetadataValue) Equal(o MetadataValue) bool {
	if m.Kind != o.Kind {
		return false
	}
	switch m.Kind {
	case MetadataNumber:
		return m.Num == o.Num || (math.IsNaN(m.Num) && math.IsNaN(o.Num))
	default:
		return reflect.DeepEqual(m.Any(), o.Any())
	}
}

// MarshalJSON encodes the value as plain JSON.
func (m MetadataValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Any())
}

// UnmarshalJSON decodes any JSON value.
func (m *MetadataValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: decode metadata value")
	}
	*m = MetadataFromAny(raw)
	return nil
}

// MetadataFromMap converts a decoded metadata object into typed metadata.
func MetadataFromMap(raw map[string]any) map[string]MetadataValue {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string]MetadataValue, len(raw))
	for k, v := range raw {
		out[k] = MetadataFromAny(v)
	}
	return out
}

// SortedKeys returns the keys of a metadata map in ascending order.
func SortedKeys(m map[string]MetadataValue) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
