package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calibancode/gifforge/internal/domain"
)

func testMedia(fingerprint string) *domain.SourceMedia {
	return &domain.SourceMedia{
		Path:        "/videos/clip.mp4",
		Fingerprint: fingerprint,
		Duration:    9.5,
		Width:       1280,
		Height:      720,
		FrameRate:   30,
		FormatName:  "mov,mp4,m4a,3gp,3g2,mj2",
		SizeBytes:   1 << 20,
	}
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cache, err := New(dir)
	require.NoError(t, err)

	_, ok := cache.Get("fp1")
	assert.False(t, ok, "empty cache misses")

	media := testMedia("fp1")
	require.NoError(t, cache.Put(media))

	got, ok := cache.Get("fp1")
	require.True(t, ok)
	assert.Equal(t, media, got)
}

func TestCachePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, first.Put(testMedia("fp1")))

	second, err := New(dir)
	require.NoError(t, err)

	got, ok := second.Get("fp1")
	require.True(t, ok)
	assert.Equal(t, "/videos/clip.mp4", got.Path)
	assert.Equal(t, 1280, got.Width)
}

func TestCacheToleratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "probecache.json"), []byte("{not json"), 0644))

	cache, err := New(dir)
	require.NoError(t, err, "a corrupt cache must not fail startup")

	_, ok := cache.Get("fp1")
	assert.False(t, ok)

	require.NoError(t, cache.Put(testMedia("fp1")))
	_, ok = cache.Get("fp1")
	assert.True(t, ok, "cache recovers by rewriting")
}

func TestCacheEviction(t *testing.T) {
	dir := t.TempDir()
	cache, err := New(dir)
	require.NoError(t, err)

	for i := 0; i < maxEntries; i++ {
		media := testMedia(string(rune('a'+i%26)) + string(rune('0'+i/26)))
		require.NoError(t, cache.Put(media))
	}
	// Crossing the cap clears the map rather than growing unbounded.
	require.NoError(t, cache.Put(testMedia("overflow")))

	got, ok := cache.Get("overflow")
	require.True(t, ok)
	assert.Equal(t, "overflow", got.Fingerprint)
}
