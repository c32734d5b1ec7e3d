package settings

import (
	"database/sql"
)

// Keys the server itself reads. Other keys are stored and served verbatim.
const (
	KeyLibraryPath      = "library_path"
	KeyAutoScan         = "auto_scan"
	KeyScanInterval     = "scan_interval"
	KeySupportedFormats = "supported_formats"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a setting value by key. Returns empty string if not found.
func (r *Repository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT setting_value FROM library_settings WHERE setting_key = $1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Set upserts a setting key-value pair.
func (r *Repository) Set(key, value string) error {
	query := `INSERT INTO library_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = $2`
	_, err := r.db.Exec(query, key, value)
	return err
}

// GetAll returns all settings as a map.
func (r *Repository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT setting_key, setting_value FROM library_settings ORDER BY setting_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		values[k] = v
	}
	return values, rows.Err()
}
