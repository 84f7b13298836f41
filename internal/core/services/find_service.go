package services

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

// FindRequest represents a fuzzy lookup of assets by name
type FindRequest struct {
	Query string
	Limit int // 0 means no limit
}

// FindResponse represents ranked matches, best first
type FindResponse struct {
	Records []domain.AssetRecord
	Total   int
}

// Find ranks catalog records against a free-text query.
// Filename matches beat relative path matches, which beat tag matches.
func (s *CatalogService) Find(ctx context.Context, req FindRequest) (*FindResponse, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	matches := FuzzyFind(records, req.Query)
	if req.Limit > 0 && len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	return &FindResponse{
		Records: matches,
		Total:   len(matches),
	}, nil
}

// Resolve maps user input to a single cataloged relative path.
// An exact relative path wins; otherwise the best fuzzy match is used.
func (s *CatalogService) Resolve(ctx context.Context, input string) (domain.AssetRecord, error) {
	if r, err := s.Get(ctx, input); err == nil {
		return r, nil
	}

	resp, err := s.Find(ctx, FindRequest{Query: input, Limit: 1})
	if err != nil {
		return domain.AssetRecord{}, err
	}
	if resp.Total == 0 {
		return s.Get(ctx, input)
	}
	return resp.Records[0], nil
}

type fuzzyMatch struct {
	record domain.AssetRecord
	pos    int
	score  int
}

// FuzzyFind returns records matching query ordered by score.
// Equal scores keep catalog order. An empty query returns records unchanged.
func FuzzyFind(records []domain.AssetRecord, query string) []domain.AssetRecord {
	query = strings.TrimSpace(query)
	if query == "" {
		return records
	}

	var matches []fuzzyMatch
	for pos, r := range records {
		if score := fuzzyMatchScore(r.Filename, query); score > 0 {
			matches = append(matches, fuzzyMatch{record: r, pos: pos, score: score + 1000})
			continue
		}

		if score := fuzzyMatchScore(r.RelativePath, query); score > 0 {
			matches = append(matches, fuzzyMatch{record: r, pos: pos, score: score + 500})
			continue
		}

		for _, tag := range r.Tags {
			if score := fuzzyMatchScore(tag, query); score > 0 {
				matches = append(matches, fuzzyMatch{record: r, pos: pos, score: score + 200})
				break
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	result := make([]domain.AssetRecord, len(matches))
	for i, m := range matches {
		result[i] = m.record
	}
	return result
}

// fuzzyMatchScore scores query against text; 0 means no match
func fuzzyMatchScore(text, query string) int {
	if text == "" || query == "" {
		return 0
	}

	textLower := strings.ToLower(text)
	queryLower := strings.ToLower(query)

	if text == query {
		return 10000
	}
	if textLower == queryLower {
		return 9000
	}

	if strings.Contains(textLower, queryLower) {
		score := 5000
		if strings.HasPrefix(textLower, queryLower) {
			score += 2000
		}
		return score
	}

	// Character-by-character subsequence match
	score := 0
	textRunes := []rune(textLower)
	queryRunes := []rune(queryLower)

	queryIdx := 0
	consecutive := 0
	lastMatchIdx := -1

	for textIdx := 0; textIdx < len(textRunes) && queryIdx < len(queryRunes); textIdx++ {
		if textRunes[textIdx] != queryRunes[queryIdx] {
			continue
		}

		score += 100

		if textIdx == lastMatchIdx+1 {
			consecutive++
			score += consecutive * 50
		} else {
			consecutive = 0
		}

		if textIdx == 0 || isWordBoundary(textRunes[textIdx-1]) {
			score += 200
		}
		if textIdx == 0 {
			score += 300
		}

		lastMatchIdx = textIdx
		queryIdx++
	}

	if queryIdx != len(queryRunes) {
		return 0
	}

	// Penalize gaps between matched characters
	score -= (lastMatchIdx + 1 - len(queryRunes)) * 10
	if score < 1 {
		score = 1
	}

	return score
}

func isWordBoundary(r rune) bool {
	switch r {
	case '-', '_', '.', '/':
		return true
	}
	return unicode.IsSpace(r)
}
