package domain

import (
	"sort"
	"strings"
)

// TagDelimiter separates tag tokens in free text and in the persisted catalog
const TagDelimiter = ";"

// TagSet is a set of tag tokens kept in first-seen order.
// Tokens are trimmed and never empty; comparison is case-sensitive.
type TagSet []string

// ParseTags normalizes free tag text into a TagSet
// " hero ; ;Leader" -> {"hero", "Leader"}
func ParseTags(text string) TagSet {
	return NormalizeTags(strings.Split(text, TagDelimiter))
}

// ParseTokens parses each token as tag text, so "a;b" yields two tags
func ParseTokens(tokens []string) TagSet {
	var parts []string
	for _, token := range tokens {
		parts = append(parts, strings.Split(token, TagDelimiter)...)
	}
	return NormalizeTags(parts)
}

// NormalizeTags trims, drops empty tokens and removes duplicates
func NormalizeTags(tokens []string) TagSet {
	set := make(TagSet, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		set = append(set, token)
	}

	return set
}

// String joins the set back into its persisted form
func (s TagSet) String() string {
	return strings.Join(s, TagDelimiter)
}

// Has checks membership of a single token
func (s TagSet) Has(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Intersects reports whether any token of s is in other
func (s TagSet) Intersects(other map[string]struct{}) bool {
	for _, t := range s {
		if _, ok := other[t]; ok {
			return true
		}
	}
	return false
}

// Equal compares two sets ignoring order
func (s TagSet) Equal(other TagSet) bool {
	a := s.Sorted()
	b := other.Sorted()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Sorted returns a lexicographically sorted, deduplicated copy
func (s TagSet) Sorted() []string {
	out := NormalizeTags(s)
	sort.Strings(out)
	return out
}

// Clone copies the set; a nil set clones to an empty one
func (s TagSet) Clone() TagSet {
	out := make(TagSet, len(s))
	copy(out, s)
	return out
}

// Add returns a set with the given tokens appended where missing
func (s TagSet) Add(tokens ...string) TagSet {
	return NormalizeTags(append(s.Clone(), ParseTokens(tokens)...))
}

// Remove returns a set without the given tokens
func (s TagSet) Remove(tokens ...string) TagSet {
	drop := ToLookup(tokens)
	out := make(TagSet, 0, len(s))
	for _, t := range s {
		if _, ok := drop[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

// ToLookup builds a membership map from raw tokens using the same normalization as ParseTags
func ToLookup(tokens []string) map[string]struct{} {
	normalized := ParseTokens(tokens)
	lookup := make(map[string]struct{}, len(normalized))
	for _, t := range normalized {
		lookup[t] = struct{}{}
	}
	return lookup
}
