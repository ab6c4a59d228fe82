// Package signal turns a raw vendor record into normalized, deduplicated
// evidence for scoring.
package signal

import (
	"regexp"
	"strings"

	"github.com/sells-group/saas-classifier/internal/model"
)

// MinTokenLength is the shortest token kept by Tokenize.
const MinTokenLength = 2

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

// Normalize lowercases s, collapses whitespace runs to a single space, and
// trims the ends.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Tokenize returns the runs of [a-z0-9_] in the normalized text that are at
// least MinTokenLength long and not purely digits. Order is preserved and
// duplicates are kept.
func Tokenize(s string) []string {
	norm := Normalize(s)
	if norm == "" {
		return nil
	}
	var out []string
	for _, tok := range tokenPattern.FindAllString(norm, -1) {
		if len(tok) < MinTokenLength || allDigits(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Extract derives ExtractedSignals from a vendor record. It never fails:
// absent fields contribute nothing.
func Extract(in model.VendorInput) model.ExtractedSignals {
	var parts []string
	for _, p := range []string{in.WebsiteText, in.Description, in.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	text := Normalize(strings.Join(parts, " "))

	tokens := model.NewStringSet(Tokenize(text)...)

	meta := model.StringSet{}
	for k, v := range in.Metadata {
		addAll(meta, flattenString(k))
		addAll(meta, Flatten(v))
	}

	tags := model.StringSet{}
	for _, tag := range in.ProductTags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		norm := Normalize(tag)
		tags.Add(norm)
		addAll(tags, Tokenize(norm))
	}

	return model.ExtractedSignals{
		WebsiteTokens:         tokens,
		MetadataValues:        meta,
		ProductTags:           tags,
		WebsiteTextNormalized: text,
	}
}

// Flatten turns a metadata value into normalized strings. Strings yield
// their normalized form followed by their tokens; lists recurse over
// elements; maps recurse over keys and values; bools, numbers, and nulls
// yield nothing.
func Flatten(v model.MetadataValue) []string {
	switch v.Kind {
	case model.MetadataString:
		return flattenString(v.Str)
	case model.MetadataList:
		var out []string
		for _, item := range v.List {
			out = append(out, Flatten(item)...)
		}
		return out
	case model.MetadataMap:
		var out []string
		for _, k := range model.SortedKeys(v.Map) {
			out = append(out, flattenString(k)...)
			out = append(out, Flatten(v.Map[k])...)
		}
		return out
	default:
		return nil
	}
}

func flattenString(s string) []string {
	norm := Normalize(s)
	if norm == "" {
		return nil
	}
	return append([]string{norm}, Tokenize(norm)...)
}

func addAll(set model.StringSet, values []string) {
	for _, v := range values {
		set.Add(v)
	}
}
