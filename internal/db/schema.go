package db

import (
	"fmt"
	"log"
)

// schemaStatements bootstraps the catalog schema. Statements are idempotent
// so they can run on every startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS media_items (
		id UUID PRIMARY KEY,
		file_path TEXT UNIQUE NOT NULL,
		file_name TEXT NOT NULL,
		media_type TEXT NOT NULL DEFAULT 'unknown',
		title TEXT NOT NULL DEFAULT '',
		year INTEGER,
		season INTEGER,
		episode INTEGER,
		file_size BIGINT NOT NULL DEFAULT 0,
		modified_at TIMESTAMPTZ NOT NULL,
		duration_seconds INTEGER,
		resolution TEXT,
		codec TEXT,
		bitrate BIGINT,
		scanned_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		added_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_media_items_media_type ON media_items(media_type)`,
	`CREATE INDEX IF NOT EXISTS idx_media_items_added_at ON media_items(added_at)`,
	`CREATE TABLE IF NOT EXISTS library_settings (
		setting_key TEXT PRIMARY KEY,
		setting_value TEXT NOT NULL
	)`,
}

// defaultSettings seeds library_settings on first run; existing values are
// left untouched.
var defaultSettings = map[string]string{
	"auto_scan":         "true",
	"scan_interval":     "3600",
	"supported_formats": "mp4,avi,mkv,mov,wmv,flv,webm,m4v,ts,mpg,mpeg",
}

// InitSchema creates tables and seeds default settings.
func (d *DB) InitSchema() error {
	for _, stmt := range schemaStatements {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("schema init: %w", err)
		}
	}

	for key, value := range defaultSettings {
		_, err := d.Exec(`INSERT INTO library_settings (setting_key, setting_value)
			VALUES ($1, $2) ON CONFLICT (setting_key) DO NOTHING`, key, value)
		if err != nil {
			return fmt.Errorf("seed setting %s: %w", key, err)
		}
	}

	log.Println("DB: schema initialized")
	return nil
}
