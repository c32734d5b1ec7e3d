package scanner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ravenshaw3/watch-media-server/internal/catalog"
)

func catalogItem(path string, size int64, mod time.Time) *catalog.MediaItem {
	return &catalog.MediaItem{
		ID:         uuid.New(),
		FilePath:   path,
		FileName:   "file.mkv",
		MediaType:  catalog.MediaTypeMovie,
		FileSize:   size,
		ModifiedAt: mod,
	}
}

func TestDiff(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	r := NewReconciler(nil)

	existing := []*catalog.MediaItem{
		catalogItem("/lib/unchanged.mkv", 100, now),
		catalogItem("/lib/resized.mkv", 100, now),
		catalogItem("/lib/touched.mkv", 100, now),
		catalogItem("/lib/gone.mkv", 100, now),
	}
	walked := []WalkedFile{
		{Path: "/lib/unchanged.mkv", Size: 100, ModTime: now},
		{Path: "/lib/resized.mkv", Size: 200, ModTime: now},
		{Path: "/lib/touched.mkv", Size: 100, ModTime: now.Add(time.Minute)},
		{Path: "/lib/brand-new.mkv", Size: 50, ModTime: now},
	}

	delta := r.Diff(walked, existing)

	require.Len(t, delta.New, 1)
	assert.Equal(t, "/lib/brand-new.mkv", delta.New[0].Path)

	require.Len(t, delta.Changed, 2)
	changedPaths := []string{delta.Changed[0].File.Path, delta.Changed[1].File.Path}
	assert.ElementsMatch(t, []string{"/lib/resized.mkv", "/lib/touched.mkv"}, changedPaths)
	for _, c := range delta.Changed {
		assert.NotNil(t, c.Existing)
	}

	require.Len(t, delta.Removed, 1)
	assert.Equal(t, "/lib/gone.mkv", delta.Removed[0].FilePath)

	assert.Equal(t, 1, delta.Unchanged)
	assert.Equal(t, 3, delta.Pending())
}

func TestDiffEmptyCatalog(t *testing.T) {
	r := NewReconciler(nil)
	walked := []WalkedFile{{Path: "/lib/a.mkv"}, {Path: "/lib/b.mkv"}}

	delta := r.Diff(walked, nil)

	assert.Len(t, delta.New, 2)
	assert.Empty(t, delta.Changed)
	assert.Empty(t, delta.Removed)
	assert.Zero(t, delta.Unchanged)
}

func TestDiffIgnoresSubsecondModTime(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	r := NewReconciler(nil)

	existing := []*catalog.MediaItem{catalogItem("/lib/a.mkv", 100, now)}
	walked := []WalkedFile{{Path: "/lib/a.mkv", Size: 100, ModTime: now.Add(300 * time.Millisecond)}}

	delta := r.Diff(walked, existing)
	assert.Equal(t, 1, delta.Unchanged)
	assert.Empty(t, delta.Changed)
}

func TestBuildItemNewFile(t *testing.T) {
	mod := time.Now().Truncate(time.Second)
	f := WalkedFile{Path: "/lib/Inception (2010).mkv", Name: "Inception (2010).mkv", Size: 1234, ModTime: mod}
	year := 2010
	desc := Descriptor{Type: catalog.MediaTypeMovie, Title: "Inception", Year: &year}
	probe := &ProbeResult{
		Format:  FormatInfo{Duration: "5400.5", Bitrate: "8000000"},
		Streams: []StreamInfo{{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080}},
	}

	item := BuildItem(f, desc, probe, nil)

	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.Equal(t, "/lib/Inception (2010).mkv", item.FilePath)
	assert.Equal(t, catalog.MediaTypeMovie, item.MediaType)
	assert.Equal(t, "Inception", item.Title)
	assert.Equal(t, int64(1234), item.FileSize)
	assert.Equal(t, mod, item.ModifiedAt)
	require.NotNil(t, item.DurationSeconds)
	assert.Equal(t, 5400, *item.DurationSeconds)
	require.NotNil(t, item.Resolution)
	assert.Equal(t, "1080p", *item.Resolution)
	require.NotNil(t, item.Codec)
	assert.Equal(t, "h264", *item.Codec)
	require.NotNil(t, item.Bitrate)
	assert.Equal(t, int64(8000000), *item.Bitrate)
}

func TestBuildItemPreservesIdentityAndStaleMetadata(t *testing.T) {
	mod := time.Now().Truncate(time.Second)
	existing := catalogItem("/lib/movie.mkv", 100, mod.Add(-time.Hour))
	dur := 3600
	res := "720p"
	existing.DurationSeconds = &dur
	existing.Resolution = &res

	f := WalkedFile{Path: "/lib/movie.mkv", Name: "movie.mkv", Size: 200, ModTime: mod}
	desc := Descriptor{Type: catalog.MediaTypeUnknown, Title: "movie"}

	// Re-probe failed: identity and previous technical metadata survive.
	item := BuildItem(f, desc, nil, existing)

	assert.Equal(t, existing.ID, item.ID)
	assert.Equal(t, int64(200), item.FileSize)
	assert.Equal(t, mod, item.ModifiedAt)
	assert.Equal(t, &dur, item.DurationSeconds)
	assert.Equal(t, &res, item.Resolution)
}

func TestBuildItemProbeOverridesStale(t *testing.T) {
	existing := catalogItem("/lib/movie.mkv", 100, time.Now())
	dur := 3600
	existing.DurationSeconds = &dur

	probe := &ProbeResult{Format: FormatInfo{Duration: "7200"}}
	item := BuildItem(WalkedFile{Path: "/lib/movie.mkv"}, Descriptor{Type: catalog.MediaTypeUnknown}, probe, existing)

	require.NotNil(t, item.DurationSeconds)
	assert.Equal(t, 7200, *item.DurationSeconds)
}
