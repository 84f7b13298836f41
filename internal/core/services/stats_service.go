package services

import (
	"sort"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

// TagCount pairs a tag with the number of assets carrying it
type TagCount struct {
	Tag   string
	Count int
}

// CatalogStats summarizes a catalog
type CatalogStats struct {
	TotalAssets int
	Untagged    int
	BySource    map[domain.TagSource]int
	ByProject   map[string]int
	Tags        []TagCount // most used first, then by name
}

// ComputeStats aggregates tag, provenance and project counts
func ComputeStats(records []domain.AssetRecord) CatalogStats {
	stats := CatalogStats{
		TotalAssets: len(records),
		BySource:    make(map[domain.TagSource]int),
		ByProject:   make(map[string]int),
	}

	counts := make(map[string]int)
	for _, r := range records {
		stats.ByProject[r.Project]++

		source := r.TagSource
		if source == "" {
			source = domain.TagSourceAI
		}
		stats.BySource[source]++

		tags := domain.NormalizeTags(r.Tags)
		if len(tags) == 0 {
			stats.Untagged++
		}
		for _, t := range tags {
			counts[t]++
		}
	}

	stats.Tags = make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		stats.Tags = append(stats.Tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(stats.Tags, func(i, j int) bool {
		if stats.Tags[i].Count != stats.Tags[j].Count {
			return stats.Tags[i].Count > stats.Tags[j].Count
		}
		return stats.Tags[i].Tag < stats.Tags[j].Tag
	})

	return stats
}

// Top returns at most n of the most used tags
func (s CatalogStats) Top(n int) []TagCount {
	if n <= 0 || n >= len(s.Tags) {
		return s.Tags
	}
	return s.Tags[:n]
}

// SortedProjects returns project names in lexicographic order
func (s CatalogStats) SortedProjects() []string {
	projects := make([]string, 0, len(s.ByProject))
	for p := range s.ByProject {
		projects = append(projects, p)
	}
	sort.Strings(projects)
	return projects
}
