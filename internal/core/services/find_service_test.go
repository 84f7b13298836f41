package services

import (
	"context"
	"errors"
	"testing"

	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/ports/mocks"
)

func TestFuzzyMatchScore(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		query    string
		minScore int // 0 means should not match
	}{
		{name: "exact match", text: "hero_shot.jpg", query: "hero_shot.jpg", minScore: 9000},
		{name: "case insensitive exact match", text: "Hero_Shot.JPG", query: "hero_shot.jpg", minScore: 9000},
		{name: "substring match", text: "final_hero_shot.jpg", query: "hero", minScore: 5000},
		{name: "prefix match", text: "hero_shot.jpg", query: "hero", minScore: 7000},
		{name: "fuzzy consecutive", text: "hero_shot.jpg", query: "hrs", minScore: 1},
		{name: "fuzzy word boundaries", text: "night-city-wide.png", query: "ncw", minScore: 1},
		{name: "no match missing characters", text: "hero_shot.jpg", query: "xyz", minScore: 0},
		{name: "no match wrong order", text: "hero_shot.jpg", query: "sh_h", minScore: 0},
		{name: "empty query", text: "hero_shot.jpg", query: "", minScore: 0},
		{name: "empty text", text: "", query: "hero", minScore: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := fuzzyMatchScore(tt.text, tt.query)
			if tt.minScore == 0 {
				if score != 0 {
					t.Errorf("Expected no match (score=0), got score=%d", score)
				}
			} else if score < tt.minScore {
				t.Errorf("Expected score >= %d, got %d", tt.minScore, score)
			}
		})
	}
}

func TestFuzzyFind_Ranking(t *testing.T) {
	byTag := domain.NewAssetRecord("Misc", "dsc0001.jpg")
	byTag.Tags = domain.TagSet{"heroic"}
	records := []domain.AssetRecord{
		byTag,
		domain.NewAssetRecord("hero-pack", "cover.png"),
		domain.NewAssetRecord("A", "hero.png"),
		domain.NewAssetRecord("B", "unrelated.png"),
	}

	got := FuzzyFind(records, "hero")
	if len(got) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(got))
	}

	want := []string{"A/hero.png", "hero-pack/cover.png", "Misc/dsc0001.jpg"}
	for i, rel := range want {
		if got[i].RelativePath != rel {
			t.Errorf("Position %d: expected %s, got %s", i, rel, got[i].RelativePath)
		}
	}
}

func TestFuzzyFind_EmptyQuery(t *testing.T) {
	records := []domain.AssetRecord{domain.NewAssetRecord("A", "x.jpg")}
	if got := FuzzyFind(records, "  "); len(got) != 1 {
		t.Errorf("Expected records unchanged, got %d", len(got))
	}
}

func TestCatalogService_FindAndResolve(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(
		domain.NewAssetRecord("ProjectA", "sunset_beach.jpg"),
		domain.NewAssetRecord("ProjectA", "beach.png"),
	)
	svc := newTestService(store, mocks.NewMockScanner())

	resp, err := svc.Find(ctx, FindRequest{Query: "beach", Limit: 1})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if resp.Total != 1 || resp.Records[0].Filename != "beach.png" {
		t.Errorf("Expected beach.png as best match, got %+v", resp.Records)
	}

	r, err := svc.Resolve(ctx, "ProjectA/sunset_beach.jpg")
	if err != nil || r.Filename != "sunset_beach.jpg" {
		t.Errorf("Expected exact path to resolve, got %v / %v", r.RelativePath, err)
	}

	r, err = svc.Resolve(ctx, "sunset")
	if err != nil || r.Filename != "sunset_beach.jpg" {
		t.Errorf("Expected fuzzy resolve to sunset_beach.jpg, got %v / %v", r.RelativePath, err)
	}

	if _, err := svc.Resolve(ctx, "zzz"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
