package catalog

import (
	"time"

	"github.com/google/uuid"
)

// MediaType classifies a catalog row by what the filename told us it is.
type MediaType string

const (
	MediaTypeMovie     MediaType = "movie"
	MediaTypeTVEpisode MediaType = "tv_episode"
	MediaTypeUnknown   MediaType = "unknown"
)

// MediaItem is one catalog row per media file. The id is assigned on first
// insertion and never reused; file_path is the reconciliation key.
type MediaItem struct {
	ID        uuid.UUID `json:"id"`
	FilePath  string    `json:"file_path"`
	FileName  string    `json:"file_name"`
	MediaType MediaType `json:"media_type"`
	Title     string    `json:"title"`
	Year      *int      `json:"year,omitempty"`
	Season    *int      `json:"season,omitempty"`
	Episode   *int      `json:"episode,omitempty"`

	// Fingerprint fields: a file whose size and mtime both match the stored
	// values is assumed unchanged and is not re-probed.
	FileSize   int64     `json:"file_size"`
	ModifiedAt time.Time `json:"modified_at"`

	// Technical metadata, null until the file has been probed successfully.
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	Resolution      *string `json:"resolution,omitempty"`
	Codec           *string `json:"codec,omitempty"`
	Bitrate         *int64  `json:"bitrate,omitempty"`

	ScannedAt time.Time `json:"scanned_at"`
	AddedAt   time.Time `json:"added_at"`
}

// LibraryInfo summarizes the catalog for the UI dashboard.
type LibraryInfo struct {
	LibraryPath  string  `json:"library_path"`
	TotalFiles   int     `json:"total_files"`
	TotalSizeGB  float64 `json:"total_size_gb"`
	MoviesCount  int     `json:"movies_count"`
	TVCount      int     `json:"tv_episodes_count"`
	UnknownCount int     `json:"unknown_count"`
}
