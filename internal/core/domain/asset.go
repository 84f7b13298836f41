package domain

import (
	"fmt"
	"path"
	"strings"
)

// TagSource records who produced the current tag set of an asset
type TagSource string

const (
	// TagSourceAI marks tags suggested by a machine (the default for new assets)
	TagSourceAI TagSource = "ai"
	// TagSourceManual marks tags confirmed or edited by a person
	TagSourceManual TagSource = "manual"
)

// ParseTagSource converts a stored value into a TagSource.
// An empty value is treated as ai so catalogs written before provenance existed still load.
func ParseTagSource(value string) (TagSource, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(TagSourceAI):
		return TagSourceAI, nil
	case string(TagSourceManual):
		return TagSourceManual, nil
	default:
		return "", fmt.Errorf("%w: unknown tag source %q", ErrMalformedCatalog, value)
	}
}

// AssetRecord represents one cataloged image
type AssetRecord struct {
	Project      string    `json:"project"`
	Filename     string    `json:"filename"`
	RelativePath string    `json:"relative_path"` // project/filename, unique key
	Tags         TagSet    `json:"tags"`
	TagSource    TagSource `json:"tag_source"`
}

// NewAssetRecord creates a freshly discovered record with no tags
func NewAssetRecord(project, filename string) AssetRecord {
	return AssetRecord{
		Project:      project,
		Filename:     filename,
		RelativePath: RelativePathFor(project, filename),
		Tags:         TagSet{},
		TagSource:    TagSourceAI,
	}
}

// RelativePathFor builds the catalog key for an asset.
// Keys always use forward slashes regardless of the host OS.
func RelativePathFor(project, filename string) string {
	return path.Join(project, filename)
}

// Clone returns a deep copy so callers can't mutate catalog state through the tag slice
func (r AssetRecord) Clone() AssetRecord {
	r.Tags = r.Tags.Clone()
	return r
}

// IsManual reports whether a person has edited the tags
func (r AssetRecord) IsManual() bool {
	return r.TagSource == TagSourceManual
}

// IsUntagged reports whether the record has no tags at all
func (r AssetRecord) IsUntagged() bool {
	return len(r.Tags) == 0
}

// WithTags returns a copy carrying the new tag set.
// Provenance becomes manual; there is no transition back to ai.
func (r AssetRecord) WithTags(tags TagSet) AssetRecord {
	r.Tags = tags.Clone()
	r.TagSource = TagSourceManual
	return r
}

// GetTagsString returns tags as a display string
func (r AssetRecord) GetTagsString() string {
	if len(r.Tags) == 0 {
		return "-"
	}
	return strings.Join(r.Tags, ", ")
}
