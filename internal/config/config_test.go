package config

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/media", cfg.LibraryPath)
	assert.Equal(t, 4, cfg.ScanWorkers)
	assert.Equal(t, 30*time.Second, cfg.ProbeTimeout)
	assert.True(t, cfg.AutoScan)
	assert.Equal(t, time.Hour, cfg.ScanInterval)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MEDIA_LIBRARY_PATH", "/mnt/library")
	t.Setenv("SCAN_WORKERS", "8")
	t.Setenv("AUTO_SCAN", "false")
	t.Setenv("SUPPORTED_FORMATS", "MKV, .mp4 ,avi")

	cfg := Load()

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/mnt/library", cfg.LibraryPath)
	assert.Equal(t, 8, cfg.ScanWorkers)
	assert.False(t, cfg.AutoScan)
	assert.Equal(t, []string{"mkv", "mp4", "avi"}, cfg.SupportedFormats)
}

func TestMergeFromDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT setting_key, setting_value FROM library_settings`).
		WillReturnRows(sqlmock.NewRows([]string{"setting_key", "setting_value"}).
			AddRow("library_path", "/mnt/library").
			AddRow("auto_scan", "false").
			AddRow("scan_interval", "600").
			AddRow("supported_formats", "MKV, .mp4").
			AddRow("scan_workers", "2").
			AddRow("unrelated_key", "ignored"))

	cfg := &Config{
		LibraryPath:  "/media",
		AutoScan:     true,
		ScanInterval: time.Hour,
		ScanWorkers:  4,
	}
	cfg.MergeFromDB(db)

	assert.Equal(t, "/mnt/library", cfg.LibraryPath)
	assert.False(t, cfg.AutoScan)
	assert.Equal(t, 10*time.Minute, cfg.ScanInterval)
	assert.Equal(t, []string{"mkv", "mp4"}, cfg.SupportedFormats)
	assert.Equal(t, 2, cfg.ScanWorkers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeFromDBIgnoresBlankAndInvalidValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT setting_key, setting_value FROM library_settings`).
		WillReturnRows(sqlmock.NewRows([]string{"setting_key", "setting_value"}).
			AddRow("library_path", "").
			AddRow("scan_interval", "0").
			AddRow("scan_workers", "-1"))

	cfg := &Config{LibraryPath: "/media", ScanInterval: time.Hour, ScanWorkers: 4}
	cfg.MergeFromDB(db)

	assert.Equal(t, "/media", cfg.LibraryPath)
	assert.Equal(t, time.Hour, cfg.ScanInterval)
	assert.Equal(t, 4, cfg.ScanWorkers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMergeFromDBSkipsOnQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT setting_key, setting_value FROM library_settings`).
		WillReturnError(errors.New("relation does not exist"))

	cfg := &Config{LibraryPath: "/media", AutoScan: true}
	cfg.MergeFromDB(db)

	// Overlay failure leaves the env-derived values intact.
	assert.Equal(t, "/media", cfg.LibraryPath)
	assert.True(t, cfg.AutoScan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatsFallback(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, defaultFormats, cfg.Formats())

	cfg.SupportedFormats = []string{"mkv"}
	assert.Equal(t, []string{"mkv"}, cfg.Formats())
}

func TestSplitFormats(t *testing.T) {
	assert.Nil(t, splitFormats(""))
	assert.Equal(t, []string{"mkv", "mp4"}, splitFormats(".MKV, mp4"))
	assert.Equal(t, []string{"avi"}, splitFormats("avi,,  ,"))
}
