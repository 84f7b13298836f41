package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamal-hamza/pictag/internal/core/domain"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image_tags.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVCatalogStore_LoadMissing(t *testing.T) {
	store := NewCSVCatalogStore(filepath.Join(t.TempDir(), "missing.csv"), nil)

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCSVCatalogStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "image_tags.csv")
	store := NewCSVCatalogStore(path, nil)

	records := []domain.AssetRecord{
		{Project: "ProjectA", Filename: "x.jpg", RelativePath: "ProjectA/x.jpg", Tags: domain.TagSet{"hero", "night sky"}, TagSource: domain.TagSourceManual},
		domain.NewAssetRecord("ProjectB", "y, z.png"),
	}
	require.NoError(t, store.SaveAll(ctx, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"project,filename,relative_path,tags,tag_source\n"+
			"ProjectA,x.jpg,ProjectA/x.jpg,hero;night sky,manual\n"+
			"ProjectB,\"y, z.png\",\"ProjectB/y, z.png\",,ai\n",
		string(data))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestCSVCatalogStore_LegacyWithoutTagSource(t *testing.T) {
	path := writeCatalog(t, "project,filename,relative_path,tags\n"+
		"ProjectA,x.jpg,ProjectA/x.jpg,hero; ;Leader\n"+
		"ProjectA,y.png,ProjectA\\y.png,\n")

	loaded, err := NewCSVCatalogStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, domain.TagSourceAI, loaded[0].TagSource)
	assert.Equal(t, domain.TagSet{"hero", "Leader"}, loaded[0].Tags)
	assert.Equal(t, "ProjectA/y.png", loaded[1].RelativePath)
	assert.Empty(t, loaded[1].Tags)
}

func TestCSVCatalogStore_ColumnOrderAndDerivedPath(t *testing.T) {
	path := writeCatalog(t, "tags,filename,project\n"+
		"hero,x.jpg,ProjectA\n")

	loaded, err := NewCSVCatalogStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "ProjectA/x.jpg", loaded[0].RelativePath)
	assert.Equal(t, domain.TagSet{"hero"}, loaded[0].Tags)
}

func TestCSVCatalogStore_DuplicateRowsKeepFirst(t *testing.T) {
	path := writeCatalog(t, "project,filename,relative_path,tags,tag_source\n"+
		"ProjectA,x.jpg,ProjectA/x.jpg,hero,manual\n"+
		"ProjectA,x.jpg,ProjectA/x.jpg,villain,ai\n")

	loaded, err := NewCSVCatalogStore(path, nil).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, domain.TagSet{"hero"}, loaded[0].Tags)
	assert.Equal(t, domain.TagSourceManual, loaded[0].TagSource)
}

func TestCSVCatalogStore_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown tag source", "project,filename,relative_path,tags,tag_source\nA,x.jpg,A/x.jpg,,robot\n"},
		{"no key columns", "tags,notes\nhero,whatever\n"},
		{"row without key", "project,filename,relative_path,tags\n,,,hero\nA,,,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCSVCatalogStore(writeCatalog(t, tt.content), nil).Load(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedCatalog)
		})
	}
}

func TestCSVCatalogStore_EmptyFile(t *testing.T) {
	loaded, err := NewCSVCatalogStore(writeCatalog(t, ""), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCSVCatalogStore_SaveFailureKeepsPreviousFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "image_tags.csv")
	store := NewCSVCatalogStore(path, nil)

	require.NoError(t, store.SaveAll(ctx, []domain.AssetRecord{domain.NewAssetRecord("A", "x.jpg")}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0555))
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	err = store.SaveAll(ctx, []domain.AssetRecord{domain.NewAssetRecord("A", "y.jpg")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistFailure)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCSVCatalogStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewCSVCatalogStore(filepath.Join(dir, "image_tags.csv"), nil)

	require.NoError(t, store.SaveAll(context.Background(), []domain.AssetRecord{domain.NewAssetRecord("A", "x.jpg")}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "image_tags.csv", entries[0].Name())
}
