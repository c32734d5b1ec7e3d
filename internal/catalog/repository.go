package catalog

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// mediaColumns is the standard SELECT list for media_items
const mediaColumns = `id, file_path, file_name, media_type, title, year, season, episode,
	file_size, modified_at, duration_seconds, resolution, codec, bitrate,
	scanned_at, added_at`

func scanMediaItem(row interface{ Scan(dest ...interface{}) error }) (*MediaItem, error) {
	item := &MediaItem{}
	err := row.Scan(
		&item.ID, &item.FilePath, &item.FileName, &item.MediaType, &item.Title,
		&item.Year, &item.Season, &item.Episode,
		&item.FileSize, &item.ModifiedAt,
		&item.DurationSeconds, &item.Resolution, &item.Codec, &item.Bitrate,
		&item.ScannedAt, &item.AddedAt,
	)
	return item, err
}

// GetByPath returns the catalog row for a file path, or nil if not cataloged.
func (r *Repository) GetByPath(filePath string) (*MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE file_path = $1`
	item, err := scanMediaItem(r.db.QueryRow(query, filePath))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) GetByID(id uuid.UUID) (*MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE id = $1`
	item, err := scanMediaItem(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("media item not found")
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// List returns every catalog row, ordered by path so scan diffs are stable.
func (r *Repository) List() ([]*MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items ORDER BY file_path`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListPage returns a page of catalog rows for the API, newest first,
// optionally filtered by media type.
func (r *Repository) ListPage(mediaType MediaType, limit, offset int) ([]*MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items`
	args := []interface{}{}
	if mediaType != "" {
		query += ` WHERE media_type = $1`
		args = append(args, mediaType)
	}
	query += fmt.Sprintf(` ORDER BY added_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*MediaItem
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Upsert inserts a catalog row, or updates it in place when the path already
// exists. The stored id is preserved on conflict so external references
// survive a re-scan of a changed file.
func (r *Repository) Upsert(item *MediaItem) error {
	query := `
		INSERT INTO media_items (
			id, file_path, file_name, media_type, title, year, season, episode,
			file_size, modified_at, duration_seconds, resolution, codec, bitrate,
			scanned_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			CURRENT_TIMESTAMP
		)
		ON CONFLICT (file_path) DO UPDATE SET
			file_name = $3, media_type = $4, title = $5, year = $6,
			season = $7, episode = $8, file_size = $9, modified_at = $10,
			duration_seconds = $11, resolution = $12, codec = $13, bitrate = $14,
			scanned_at = CURRENT_TIMESTAMP
		RETURNING id, scanned_at, added_at`

	return r.db.QueryRow(query,
		item.ID, item.FilePath, item.FileName, item.MediaType, item.Title,
		item.Year, item.Season, item.Episode,
		item.FileSize, item.ModifiedAt,
		item.DurationSeconds, item.Resolution, item.Codec, item.Bitrate,
	).Scan(&item.ID, &item.ScannedAt, &item.AddedAt)
}

// Delete removes a catalog row by path. Deleting a path that is already gone
// is not an error.
func (r *Repository) Delete(filePath string) error {
	_, err := r.db.Exec(`DELETE FROM media_items WHERE file_path = $1`, filePath)
	return err
}

// Info aggregates catalog counts and total size for the library dashboard.
func (r *Repository) Info() (*LibraryInfo, error) {
	info := &LibraryInfo{}
	var totalSize sql.NullInt64
	err := r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(file_size), 0),
		       COUNT(*) FILTER (WHERE media_type = 'movie'),
		       COUNT(*) FILTER (WHERE media_type = 'tv_episode'),
		       COUNT(*) FILTER (WHERE media_type = 'unknown')
		FROM media_items`,
	).Scan(&info.TotalFiles, &totalSize, &info.MoviesCount, &info.TVCount, &info.UnknownCount)
	if err != nil {
		return nil, err
	}
	info.TotalSizeGB = float64(totalSize.Int64) / (1024 * 1024 * 1024)
	return info, nil
}
