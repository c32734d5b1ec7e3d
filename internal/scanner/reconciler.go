package scanner

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Ravenshaw3/watch-media-server/internal/catalog"
)

// CatalogStore is the persistence surface the scan pipeline needs. Each
// operation is individually atomic; no multi-row transactions are required.
type CatalogStore interface {
	List() ([]*catalog.MediaItem, error)
	Upsert(item *catalog.MediaItem) error
	Delete(filePath string) error
}

// ChangedFile pairs a walked file with the stale catalog row it replaces.
type ChangedFile struct {
	File     WalkedFile
	Existing *catalog.MediaItem
}

// Delta is the three-way difference between a walk snapshot and the catalog.
// The sets are disjoint; unchanged files appear only as a count because they
// need no work at all.
type Delta struct {
	New       []WalkedFile
	Changed   []ChangedFile
	Removed   []*catalog.MediaItem
	Unchanged int
}

// Pending returns the number of files that need classify/probe/apply work.
func (d *Delta) Pending() int {
	return len(d.New) + len(d.Changed)
}

// Reconciler computes and applies the difference between a filesystem walk
// and the persisted catalog.
type Reconciler struct {
	store CatalogStore
}

func NewReconciler(store CatalogStore) *Reconciler {
	return &Reconciler{store: store}
}

// Diff splits the walk snapshot into new, changed, and removed sets against
// the given catalog rows. Files whose fingerprint matches are counted as
// unchanged and skipped entirely; that skip is what keeps incremental scans
// cheap on large libraries.
func (r *Reconciler) Diff(walked []WalkedFile, existing []*catalog.MediaItem) Delta {
	byPath := make(map[string]*catalog.MediaItem, len(existing))
	for _, item := range existing {
		byPath[item.FilePath] = item
	}

	var delta Delta
	seen := make(map[string]bool, len(walked))
	for _, f := range walked {
		seen[f.Path] = true
		item, ok := byPath[f.Path]
		if !ok {
			delta.New = append(delta.New, f)
			continue
		}
		if fingerprintMatches(item, f) {
			delta.Unchanged++
			continue
		}
		delta.Changed = append(delta.Changed, ChangedFile{File: f, Existing: item})
	}

	for _, item := range existing {
		if !seen[item.FilePath] {
			delta.Removed = append(delta.Removed, item)
		}
	}

	return delta
}

// fingerprintMatches compares size and mtime at second granularity; the
// database round-trip does not preserve sub-second precision.
func fingerprintMatches(item *catalog.MediaItem, f WalkedFile) bool {
	return item.FileSize == f.Size && item.ModifiedAt.Unix() == f.ModTime.Unix()
}

// BuildItem assembles the catalog row for a walked file from its descriptor
// and probe result. For changed files the existing row's id is preserved and
// stale technical metadata is carried over when the re-probe failed, so a
// transient probe error does not erase data we already had.
func BuildItem(f WalkedFile, desc Descriptor, probe *ProbeResult, existing *catalog.MediaItem) *catalog.MediaItem {
	item := &catalog.MediaItem{
		ID:         uuid.New(),
		FilePath:   f.Path,
		FileName:   f.Name,
		MediaType:  desc.Type,
		Title:      desc.Title,
		Year:       desc.Year,
		Season:     desc.Season,
		Episode:    desc.Episode,
		FileSize:   f.Size,
		ModifiedAt: f.ModTime,
	}

	if existing != nil {
		item.ID = existing.ID
		item.DurationSeconds = existing.DurationSeconds
		item.Resolution = existing.Resolution
		item.Codec = existing.Codec
		item.Bitrate = existing.Bitrate
	}

	if probe != nil {
		if dur := probe.GetDurationSeconds(); dur > 0 {
			item.DurationSeconds = &dur
		}
		if res := probe.GetResolution(); res != "" {
			item.Resolution = &res
		}
		if codec := probe.GetVideoCodec(); codec != "" {
			item.Codec = &codec
		}
		if br := probe.GetBitrate(); br > 0 {
			item.Bitrate = &br
		}
	}

	return item
}

// ApplyUpsert writes one row; atomic per file.
func (r *Reconciler) ApplyUpsert(item *catalog.MediaItem) error {
	if err := r.store.Upsert(item); err != nil {
		return fmt.Errorf("upsert %s: %w", item.FilePath, err)
	}
	return nil
}

// ApplyRemoval deletes one row; atomic per file.
func (r *Reconciler) ApplyRemoval(filePath string) error {
	if err := r.store.Delete(filePath); err != nil {
		return fmt.Errorf("delete %s: %w", filePath, err)
	}
	return nil
}
