package domain

import (
	"reflect"
	"testing"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		text     string
		expected TagSet
	}{
		{" hero ; ;Leader", TagSet{"hero", "Leader"}},
		{"hero;leader", TagSet{"hero", "leader"}},
		{"", TagSet{}},
		{" ; ;; ", TagSet{}},
		{"cat;cat; cat ", TagSet{"cat"}},
		{"Cat;cat", TagSet{"Cat", "cat"}}, // case preserved, not folded
		{"night sky; city", TagSet{"night sky", "city"}},
	}

	for _, tt := range tests {
		got := ParseTags(tt.text)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("ParseTags(%q) = %#v, want %#v", tt.text, got, tt.expected)
		}
	}
}

func TestTagSet_Equal(t *testing.T) {
	tests := []struct {
		a, b  TagSet
		equal bool
	}{
		{TagSet{"hero", "leader"}, TagSet{"leader", "hero"}, true},
		{TagSet{}, nil, true},
		{TagSet{"hero"}, TagSet{"hero", "leader"}, false},
		{TagSet{"Hero"}, TagSet{"hero"}, false},
	}

	for _, tt := range tests {
		if got := tt.a.Equal(tt.b); got != tt.equal {
			t.Errorf("%v.Equal(%v) = %v, want %v", tt.a, tt.b, got, tt.equal)
		}
	}
}

func TestTagSet_Intersects(t *testing.T) {
	tags := TagSet{"category", "night"}

	if tags.Intersects(ToLookup([]string{"cat"})) {
		t.Error("cat must not match category")
	}
	if !tags.Intersects(ToLookup([]string{"cat", " night "})) {
		t.Error("night should match after trimming")
	}
	if tags.Intersects(ToLookup(nil)) {
		t.Error("empty lookup never intersects")
	}
}

func TestTagSet_AddRemove(t *testing.T) {
	tags := TagSet{"hero"}

	added := tags.Add("leader", "hero", " ")
	if !reflect.DeepEqual(added, TagSet{"hero", "leader"}) {
		t.Errorf("Add = %v", added)
	}
	if len(tags) != 1 {
		t.Error("Add must not modify the receiver")
	}

	removed := added.Remove("hero")
	if !reflect.DeepEqual(removed, TagSet{"leader"}) {
		t.Errorf("Remove = %v", removed)
	}
}

func TestParseTokens(t *testing.T) {
	tests := []struct {
		tokens   []string
		expected TagSet
	}{
		{[]string{"a;b"}, TagSet{"a", "b"}},
		{[]string{" hero ", "", "hero; villain"}, TagSet{"hero", "villain"}},
		{[]string{" ; ", ""}, TagSet{}},
		{nil, TagSet{}},
	}

	for _, tt := range tests {
		got := ParseTokens(tt.tokens)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("ParseTokens(%q) = %#v, want %#v", tt.tokens, got, tt.expected)
		}
	}
}

func TestTagSet_AddRemoveDelimitedTokens(t *testing.T) {
	added := TagSet{"hero"}.Add("a;b")
	if !reflect.DeepEqual(added, TagSet{"hero", "a", "b"}) {
		t.Errorf("Add(\"a;b\") = %v", added)
	}

	removed := added.Remove("hero;b")
	if !reflect.DeepEqual(removed, TagSet{"a"}) {
		t.Errorf("Remove(\"hero;b\") = %v", removed)
	}
}

func TestTagSet_String(t *testing.T) {
	if got := (TagSet{"hero", "leader"}).String(); got != "hero;leader" {
		t.Errorf("String() = %q", got)
	}
	if got := (TagSet{}).String(); got != "" {
		t.Errorf("empty String() = %q", got)
	}
}
