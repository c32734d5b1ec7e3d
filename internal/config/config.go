package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

type Config struct {
	Port        int
	DatabaseURL string
	RedisAddr   string

	// Library scanning
	LibraryPath      string
	SupportedFormats []string
	ScanWorkers      int
	ProbeTimeout     time.Duration
	AutoScan         bool
	ScanInterval     time.Duration

	FFprobePath string
}

// defaultFormats matches the original server's supported_formats setting.
var defaultFormats = []string{"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm", "m4v", "ts", "mpg", "mpeg"}

func Load() *Config {
	return &Config{
		Port:             envInt("PORT", 8080),
		DatabaseURL:      env("DATABASE_URL", "postgres://watch:watch@db:5432/watch?sslmode=disable"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		LibraryPath:      env("MEDIA_LIBRARY_PATH", "/media"),
		SupportedFormats: splitFormats(env("SUPPORTED_FORMATS", "")),
		ScanWorkers:      envInt("SCAN_WORKERS", 4),
		ProbeTimeout:     time.Duration(envInt("PROBE_TIMEOUT_SECONDS", 30)) * time.Second,
		AutoScan:         env("AUTO_SCAN", "true") == "true",
		ScanInterval:     time.Duration(envInt("SCAN_INTERVAL_SECONDS", 3600)) * time.Second,
		FFprobePath:      env("FFPROBE_PATH", "ffprobe"),
	}
}

// MergeFromDB overlays persisted library_settings onto the env-derived config.
// Settings changed through the API win over environment defaults.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT setting_key, setting_value FROM library_settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "library_path":
			if value != "" {
				c.LibraryPath = value
			}
		case "auto_scan":
			c.AutoScan = cast.ToBool(value)
		case "scan_interval":
			if secs := cast.ToInt(value); secs > 0 {
				c.ScanInterval = time.Duration(secs) * time.Second
			}
		case "supported_formats":
			if formats := splitFormats(value); len(formats) > 0 {
				c.SupportedFormats = formats
			}
		case "scan_workers":
			if n := cast.ToInt(value); n > 0 {
				c.ScanWorkers = n
			}
		}
	}
}

// Formats returns the extension allow-list, falling back to the defaults.
func (c *Config) Formats() []string {
	if len(c.SupportedFormats) > 0 {
		return c.SupportedFormats
	}
	return defaultFormats
}

func splitFormats(s string) []string {
	if s == "" {
		return nil
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(f, ".")))
		if f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
