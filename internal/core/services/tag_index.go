package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

// MatchMode selects how a selected tag is compared to an asset's tags
type MatchMode string

const (
	// MatchExact compares whole tokens (default)
	MatchExact MatchMode = "exact"
	// MatchSubstring matches any token containing the selected text.
	// Opt-in only: "cat" matches "category" in this mode.
	MatchSubstring MatchMode = "substring"
)

// ParseMatchMode validates a configured mode; empty means exact
func ParseMatchMode(value string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", MatchExact:
		return MatchExact, nil
	case MatchSubstring:
		return MatchSubstring, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (expected %s or %s)", value, MatchExact, MatchSubstring)
	}
}

// AllTags returns the sorted union of every record's normalized tags
func AllTags(records []domain.AssetRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, t := range domain.ParseTokens(r.Tags) {
			seen[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Matches reports whether a record passes an any-of filter.
// An empty selection applies no filter.
func Matches(record domain.AssetRecord, selected map[string]struct{}) bool {
	if len(selected) == 0 {
		return true
	}
	return domain.ParseTokens(record.Tags).Intersects(selected)
}

// TagIndex maps each tag to a posting list of catalog positions.
// It is immutable once built; rebuild it after the catalog changes.
type TagIndex struct {
	mode     MatchMode
	size     int
	postings map[string]*roaring.Bitmap
	tags     []string
}

// BuildTagIndex indexes records by their position in the slice
func BuildTagIndex(records []domain.AssetRecord, mode MatchMode) *TagIndex {
	if mode == "" {
		mode = MatchExact
	}

	idx := &TagIndex{
		mode:     mode,
		size:     len(records),
		postings: make(map[string]*roaring.Bitmap),
	}

	for pos, r := range records {
		for _, t := range domain.ParseTokens(r.Tags) {
			bm, ok := idx.postings[t]
			if !ok {
				bm = roaring.New()
				idx.postings[t] = bm
			}
			bm.Add(uint32(pos))
		}
	}

	idx.tags = make([]string, 0, len(idx.postings))
	for t, bm := range idx.postings {
		bm.RunOptimize()
		idx.tags = append(idx.tags, t)
	}
	sort.Strings(idx.tags)

	return idx
}

// Mode returns the match mode the index was built with
func (idx *TagIndex) Mode() MatchMode {
	return idx.mode
}

// Tags returns the sorted distinct tags
func (idx *TagIndex) Tags() []string {
	out := make([]string, len(idx.tags))
	copy(out, idx.tags)
	return out
}

// Count returns how many records carry tag
func (idx *TagIndex) Count(tag string) uint64 {
	if bm, ok := idx.postings[tag]; ok {
		return bm.GetCardinality()
	}
	return 0
}

// Select returns the ascending catalog positions matching any selected tag.
// An empty selection (after normalization) returns every position.
func (idx *TagIndex) Select(selected []string) []int {
	terms := domain.ParseTokens(selected)
	if len(terms) == 0 {
		all := make([]int, idx.size)
		for i := range all {
			all[i] = i
		}
		return all
	}

	var lists []*roaring.Bitmap
	for _, term := range terms {
		lists = append(lists, idx.postingsFor(term)...)
	}
	if len(lists) == 0 {
		return []int{}
	}

	union := roaring.FastOr(lists...)
	out := make([]int, 0, union.GetCardinality())
	it := union.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

func (idx *TagIndex) postingsFor(term string) []*roaring.Bitmap {
	if idx.mode != MatchSubstring {
		if bm, ok := idx.postings[term]; ok {
			return []*roaring.Bitmap{bm}
		}
		return nil
	}

	var lists []*roaring.Bitmap
	for _, t := range idx.tags {
		if strings.Contains(t, term) {
			lists = append(lists, idx.postings[t])
		}
	}
	return lists
}
