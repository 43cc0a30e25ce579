package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/cesargomez89/powerhour/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Port              string
	DBPath            string
	DataDir           string
	FFmpegPath        string
	RenderSampleRate  int
	LibraryExpiryDays int
	LogLevel          string
	LogFormat         string
}

// Load loads configuration from a .env file (if present) and environment
// variables with defaults
func Load() *Config {
	// Missing .env is fine; env vars and defaults still apply.
	_ = godotenv.Load()

	home, _ := os.UserHomeDir()
	defaultData := filepath.Join(home, constants.DefaultDataDir)

	return &Config{
		Port:              getEnv("PORT", constants.DefaultPort),
		DBPath:            getEnv("DB_PATH", constants.DefaultDBPath),
		DataDir:           getEnv("DATA_DIR", defaultData),
		FFmpegPath:        getEnv("FFMPEG_PATH", constants.DefaultFFmpegPath),
		RenderSampleRate:  getEnvInt("RENDER_SAMPLE_RATE", constants.DefaultRenderRate),
		LibraryExpiryDays: getEnvInt("LIBRARY_EXPIRY_DAYS", constants.DefaultLibraryExpiryDays),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns detailed errors
func (c *Config) Validate() error {
	var errors []string

	if c.Port == "" {
		errors = append(errors, "PORT cannot be empty")
	} else {
		port, err := strconv.Atoi(c.Port)
		if err != nil {
			errors = append(errors, fmt.Sprintf("PORT must be a valid number, got: %s", c.Port))
		} else if port < 1 || port > 65535 {
			errors = append(errors, fmt.Sprintf("PORT must be between 1 and 65535, got: %d", port))
		}
	}

	if c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty")
	}

	if c.DataDir == "" {
		errors = append(errors, "DATA_DIR cannot be empty")
	}

	if c.FFmpegPath == "" {
		errors = append(errors, "FFMPEG_PATH cannot be empty")
	}

	if c.RenderSampleRate < 8000 || c.RenderSampleRate > 192000 {
		errors = append(errors, fmt.Sprintf("RENDER_SAMPLE_RATE must be between 8000 and 192000, got: %d", c.RenderSampleRate))
	}

	if c.LibraryExpiryDays < 1 {
		errors = append(errors, fmt.Sprintf("LIBRARY_EXPIRY_DAYS must be at least 1, got: %d", c.LibraryExpiryDays))
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: debug, info, warn, error, got: %s", c.LogLevel))
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[c.LogFormat] {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: text, json, got: %s", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// MixesPath returns the folder holding {id}.wav + {id}.json mix pairs.
func (c *Config) MixesPath() string {
	return filepath.Join(c.DataDir, constants.MixesDir)
}

// BackupsPath returns the per-mix backup folder root.
func (c *Config) BackupsPath() string {
	return filepath.Join(c.DataDir, constants.BackupsDir)
}

// ClipsPath returns the permanent per-clip folder root.
func (c *Config) ClipsPath() string {
	return filepath.Join(c.DataDir, constants.ClipsDir)
}

// TempClipsPath returns the flat temp-clip folder.
func (c *Config) TempClipsPath() string {
	return filepath.Join(c.DataDir, constants.TempClipsDir)
}

// PlaylistsPath returns the playlists folder.
func (c *Config) PlaylistsPath() string {
	return filepath.Join(c.DataDir, constants.PlaylistsDir)
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
