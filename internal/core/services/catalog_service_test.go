package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamal-hamza/pictag/internal/adapters/repository"
	"github.com/kamal-hamza/pictag/internal/adapters/scanner"
	"github.com/kamal-hamza/pictag/internal/core/domain"
	"github.com/kamal-hamza/pictag/internal/core/ports/mocks"
)

func heroRecord() domain.AssetRecord {
	r := domain.NewAssetRecord("ProjectA", "x.jpg")
	r.Tags = domain.TagSet{"hero"}
	return r
}

func newTestService(store *mocks.MockCatalogStore, scan *mocks.MockScanner) *CatalogService {
	return NewCatalogService(store, scan, "/assets", MatchExact, nil)
}

func TestCatalogService_RefreshMerge(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	scan := mocks.NewMockScanner([2]string{"ProjectA", "x.jpg"}, [2]string{"ProjectA", "y.png"})
	svc := newTestService(store, scan)

	resp, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Added)
	assert.Equal(t, 2, resp.Total)

	persisted := store.Records()
	require.Len(t, persisted, 2)
	assert.Equal(t, "ProjectA/x.jpg", persisted[0].RelativePath)
	assert.Equal(t, domain.TagSet{"hero"}, persisted[0].Tags)
	assert.Equal(t, "ProjectA/y.png", persisted[1].RelativePath)
	assert.Empty(t, persisted[1].Tags)
	assert.Equal(t, domain.TagSourceAI, persisted[1].TagSource)
}

func TestCatalogService_RefreshIdempotent(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStore()
	scan := mocks.NewMockScanner([2]string{"ProjectA", "x.jpg"})
	svc := newTestService(store, scan)

	first, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Added)
	assert.Equal(t, 1, store.SaveCalls())

	second, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Added)
	assert.Equal(t, 1, store.SaveCalls(), "no-op refresh must not persist")
}

func TestCatalogService_RefreshEmptyRootDoesNotCreateCatalog(t *testing.T) {
	store := mocks.NewMockCatalogStore()
	svc := newTestService(store, mocks.NewMockScanner())

	resp, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Added)
	assert.Equal(t, 0, store.SaveCalls())
}

func TestCatalogService_RefreshKeepsStaleRecords(t *testing.T) {
	ctx := context.Background()
	stale := domain.NewAssetRecord("Old", "gone.jpg").WithTags(domain.TagSet{"archive"})
	store := mocks.NewMockCatalogStoreWith(stale)
	scan := mocks.NewMockScanner([2]string{"New", "a.png"})
	svc := newTestService(store, scan)

	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	persisted := store.Records()
	require.Len(t, persisted, 2)
	assert.Equal(t, stale, persisted[0])
}

func TestCatalogService_RefreshPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	scan := mocks.NewMockScanner([2]string{"ProjectA", "x.jpg"})
	svc := newTestService(store, scan)

	_, err := svc.Refresh(ctx)
	require.NoError(t, err)

	scan.AddFile("ProjectA", "y.png")
	store.SetShouldFail(true, errors.New("disk full"))

	_, err = svc.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistFailure)

	records, err := svc.Records(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1, "failed persist must leave memory unchanged")
}

func TestCatalogService_RefreshScanError(t *testing.T) {
	scan := mocks.NewMockScanner()
	scan.SetError(domain.ErrAssetRootMissing)
	svc := newTestService(mocks.NewMockCatalogStore(), scan)

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, domain.ErrAssetRootMissing)
}

func TestCatalogService_Query(t *testing.T) {
	ctx := context.Background()
	villain := domain.NewAssetRecord("ProjectA", "v.jpg")
	villain.Tags = domain.TagSet{"villain"}
	category := domain.NewAssetRecord("ProjectB", "c.jpg")
	category.Tags = domain.TagSet{"category"}
	untagged := domain.NewAssetRecord("ProjectB", "u.jpg")

	store := mocks.NewMockCatalogStoreWith(heroRecord(), category, villain, untagged)
	svc := newTestService(store, mocks.NewMockScanner())

	all, err := svc.Query(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, store.Records(), all, "empty filter returns the catalog unchanged, in order")

	matched, err := svc.Query(ctx, []string{"villain", "hero"})
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "ProjectA/x.jpg", matched[0].RelativePath)
	assert.Equal(t, "ProjectA/v.jpg", matched[1].RelativePath)

	none, err := svc.Query(ctx, []string{"cat"})
	require.NoError(t, err)
	assert.Empty(t, none)

	resp, err := svc.Search(ctx, QueryRequest{Project: "ProjectB"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total)

	resp, err = svc.Search(ctx, QueryRequest{Untagged: true})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "ProjectB/u.jpg", resp.Records[0].RelativePath)
}

func TestCatalogService_QueryMissingStore(t *testing.T) {
	svc := newTestService(mocks.NewMockCatalogStore(), mocks.NewMockScanner())

	records, err := svc.Query(context.Background(), []string{"hero"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCatalogService_QueryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(mocks.NewMockCatalogStoreWith(heroRecord()), mocks.NewMockScanner())

	records, err := svc.Query(ctx, nil)
	require.NoError(t, err)
	records[0].Tags[0] = "mutated"

	again, err := svc.Query(ctx, []string{"hero"})
	require.NoError(t, err)
	assert.Len(t, again, 1)
}

func TestCatalogService_UpdateTags(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	svc := newTestService(store, mocks.NewMockScanner())

	changed, err := svc.UpdateTags(ctx, "ProjectA/x.jpg", "hero;leader")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, store.SaveCalls())

	r, err := svc.Get(ctx, "ProjectA/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, domain.TagSet{"hero", "leader"}, r.Tags)
	assert.Equal(t, domain.TagSourceManual, r.TagSource)
	assert.Equal(t, r, store.Records()[0])

	// Same set in a different spelling: no write
	changed, err = svc.UpdateTags(ctx, "ProjectA/x.jpg", " leader ; hero;;")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, store.SaveCalls())
}

func TestCatalogService_UpdateTagsSameSetKeepsAISource(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	svc := newTestService(store, mocks.NewMockScanner())

	changed, err := svc.UpdateTags(ctx, "ProjectA/x.jpg", "hero")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.TagSourceAI, store.Records()[0].TagSource)
	assert.Equal(t, 0, store.SaveCalls())
}

func TestCatalogService_UpdateTagsManualIsTerminal(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	svc := newTestService(store, mocks.NewMockScanner())

	_, err := svc.UpdateTags(ctx, "ProjectA/x.jpg", "a")
	require.NoError(t, err)
	_, err = svc.UpdateTags(ctx, "ProjectA/x.jpg", "")
	require.NoError(t, err)

	r := store.Records()[0]
	assert.Empty(t, r.Tags)
	assert.Equal(t, domain.TagSourceManual, r.TagSource)

	// A later refresh must not reset provenance
	_, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TagSourceManual, store.Records()[0].TagSource)
}

func TestCatalogService_UpdateTagsNotFound(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	svc := newTestService(store, mocks.NewMockScanner())

	changed, err := svc.UpdateTags(ctx, "ProjectA/missing.jpg", "hero")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, changed)
	assert.Equal(t, 0, store.SaveCalls())
	assert.Equal(t, []domain.AssetRecord{heroRecord()}, store.Records())
}

func TestCatalogService_UpdateTagsPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	svc := newTestService(store, mocks.NewMockScanner())
	store.SetShouldFail(true, nil)

	_, err := svc.UpdateTags(ctx, "ProjectA/x.jpg", "villain")
	assert.ErrorIs(t, err, domain.ErrPersistFailure)

	r, err := svc.Get(ctx, "ProjectA/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, domain.TagSet{"hero"}, r.Tags)
	assert.Equal(t, domain.TagSourceAI, r.TagSource)
}

func TestCatalogService_AddRemoveTags(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	svc := newTestService(store, mocks.NewMockScanner())

	changed, err := svc.AddTags(ctx, "ProjectA/x.jpg", []string{"leader", "hero"})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.RemoveTags(ctx, "ProjectA/x.jpg", []string{" hero "})
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.RemoveTags(ctx, "ProjectA/x.jpg", []string{"absent"})
	require.NoError(t, err)
	assert.False(t, changed)

	assert.Equal(t, domain.TagSet{"leader"}, store.Records()[0].Tags)
	assert.Equal(t, 2, store.SaveCalls())
}

func TestCatalogService_AddTagsSplitsDelimitedTokens(t *testing.T) {
	ctx := context.Background()
	catalog := filepath.Join(t.TempDir(), "image_tags.csv")
	store := repository.NewCSVCatalogStore(catalog, nil)
	require.NoError(t, store.SaveAll(ctx, []domain.AssetRecord{heroRecord()}))
	svc := NewCatalogService(store, mocks.NewMockScanner(), "/assets", MatchExact, nil)

	changed, err := svc.AddTags(ctx, "ProjectA/x.jpg", []string{"a;b"})
	require.NoError(t, err)
	assert.True(t, changed)

	inMemory, err := svc.Get(ctx, "ProjectA/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, domain.TagSet{"hero", "a", "b"}, inMemory.Tags)

	onDisk, err := repository.NewCSVCatalogStore(catalog, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, inMemory.Tags, onDisk[0].Tags)

	hits, err := svc.Query(ctx, []string{"a"})
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	changed, err = svc.RemoveTags(ctx, "ProjectA/x.jpg", []string{"a;hero"})
	require.NoError(t, err)
	assert.True(t, changed)

	r, err := svc.Get(ctx, "ProjectA/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, domain.TagSet{"b"}, r.Tags)
}

func TestCatalogService_QueryNormalizesSelection(t *testing.T) {
	ctx := context.Background()
	padded := domain.NewAssetRecord("ProjectB", "y.png")
	padded.Tags = domain.TagSet{" hero ", "", "villain"}
	other := domain.NewAssetRecord("ProjectB", "z.png")
	other.Tags = domain.TagSet{"crowd"}
	svc := newTestService(mocks.NewMockCatalogStoreWith(heroRecord(), padded, other), mocks.NewMockScanner())

	hits, err := svc.Query(ctx, []string{" hero ", ""})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "ProjectA/x.jpg", hits[0].RelativePath)
	assert.Equal(t, "ProjectB/y.png", hits[1].RelativePath)

	all, err := svc.Query(ctx, []string{"", "  ", " ; "})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCatalogService_ReadOnlyEditAdoptsSharedStore(t *testing.T) {
	ctx := context.Background()
	store := mocks.NewMockCatalogStoreWith(heroRecord())
	first := newTestService(store, mocks.NewMockScanner())
	second := newTestService(store, mocks.NewMockScanner())

	_, err := first.Records(ctx)
	require.NoError(t, err)

	changed, err := second.UpdateTags(ctx, "ProjectA/x.jpg", "villain")
	require.NoError(t, err)
	assert.True(t, changed)

	_, err = first.UpdateTags(ctx, "ProjectA/missing.jpg", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, store.SaveCalls())

	r, err := first.Get(ctx, "ProjectA/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, domain.TagSet{"villain"}, r.Tags)
	assert.Equal(t, domain.TagSourceManual, r.TagSource)

	changed, err = first.UpdateTags(ctx, "ProjectA/x.jpg", " villain ")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, store.SaveCalls())
}

func TestCatalogService_ConcurrentEditsAndRefresh(t *testing.T) {
	ctx := context.Background()
	var seed []domain.AssetRecord
	var files [][2]string
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg", "e.jpg", "f.jpg", "g.jpg", "h.jpg"} {
		seed = append(seed, domain.NewAssetRecord("P", name))
		files = append(files, [2]string{"P", name})
	}
	store := mocks.NewMockCatalogStoreWith(seed...)
	scan := mocks.NewMockScanner(files...)
	svc := newTestService(store, scan)

	var wg sync.WaitGroup
	for i, r := range seed {
		wg.Add(2)
		go func(rel string, tag string) {
			defer wg.Done()
			_, err := svc.UpdateTags(ctx, rel, tag)
			assert.NoError(t, err)
		}(r.RelativePath, string(rune('a'+i)))
		go func(n int) {
			defer wg.Done()
			scan.AddFile("Q", string(rune('a'+n))+".png")
			_, err := svc.Refresh(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	persisted := store.Records()
	assert.Len(t, persisted, 16, "every discovered file survives")
	for i := range seed {
		assert.Equal(t, domain.TagSet{string(rune('a' + i))}, persisted[i].Tags, "no edit was lost")
		assert.Equal(t, domain.TagSourceManual, persisted[i].TagSource)
	}
}

func TestCatalogService_AllTagsAndProjects(t *testing.T) {
	ctx := context.Background()
	second := domain.NewAssetRecord("Alpha", "y.png")
	second.Tags = domain.TagSet{"villain", "hero"}
	svc := newTestService(mocks.NewMockCatalogStoreWith(heroRecord(), second), mocks.NewMockScanner())

	tags, err := svc.AllTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"hero", "villain"}, tags)

	n, err := svc.TagCount(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	projects, err := svc.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "ProjectA"}, projects)

	assert.Equal(t, filepath.Join("/assets", "ProjectA", "x.jpg"), svc.AssetPath("ProjectA\\x.jpg"))
}

// End-to-end over the real CSV store and filesystem scanner
func TestCatalogService_CSVRefreshIsByteStable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	root := filepath.Join(dir, "precedents")
	for _, p := range []string{"ProjectA/x.jpg", "ProjectA/y.png", "ProjectB/z.JPEG"} {
		full := filepath.Join(root, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, nil, 0644))
	}
	catalog := filepath.Join(dir, "image_tags.csv")
	require.NoError(t, os.WriteFile(catalog, []byte(
		"project,filename,relative_path,tags,tag_source\nProjectA,x.jpg,ProjectA/x.jpg,hero,ai\n"), 0644))

	svc := NewCatalogService(
		repository.NewCSVCatalogStore(catalog, nil),
		scanner.NewFSScanner(nil, nil),
		root, MatchExact, nil)

	resp, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Added)

	before, err := os.ReadFile(catalog)
	require.NoError(t, err)
	assert.Equal(t,
		"project,filename,relative_path,tags,tag_source\n"+
			"ProjectA,x.jpg,ProjectA/x.jpg,hero,ai\n"+
			"ProjectA,y.png,ProjectA/y.png,,ai\n"+
			"ProjectB,z.JPEG,ProjectB/z.JPEG,,ai\n",
		string(before))

	resp, err = svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Added)

	after, err := os.ReadFile(catalog)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	changed, err := svc.UpdateTags(ctx, "ProjectA/x.jpg", "hero;leader")
	require.NoError(t, err)
	assert.True(t, changed)

	reloaded, err := repository.NewCSVCatalogStore(catalog, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TagSet{"hero", "leader"}, reloaded[0].Tags)
	assert.Equal(t, domain.TagSourceManual, reloaded[0].TagSource)
}
