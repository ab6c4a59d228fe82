package model

import (
	"encoding/json"
	"sort"
)

// StringSet is an unordered set of strings. Empty strings are never stored.
type StringSet map[string]struct{}

// NewStringSet returns a set holding the given non-empty values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts v unless it is empty.
func (s StringSet) Add(v string) {
	if v == "" {
		return
	}
	s[v] = struct{}{}
}

// Has reports whether v is in the set.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of members.
func (s StringSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of strings into the set.
func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}

// ExtractedSignals is the normalized, deduplicated evidence derived from a
// VendorInput. Every member of every set is lowercase, whitespace-collapsed,
// and non-empty.
type ExtractedSignals struct {
	WebsiteTokens         StringSet `json:"website_tokens"`
	MetadataValues        StringSet `json:"metadata_values"`
	ProductTags           StringSet `json:"product_tags"`
	WebsiteTextNormalized string    `json:"website_text_normalized"`
}
