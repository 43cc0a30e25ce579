package store

import (
	"database/sql"
	"errors"
	"time"
)

// Setting keys used by the services.
const (
	SettingCurrentLibrary   = "current_library_id"
	SettingInterstitialPath = "interstitial_sound_path"
)

// GetSetting returns the stored value for a key, or sql.ErrNoRows wrapped as
// an empty miss.
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.Get(&value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

func (db *DB) DeleteSetting(key string) error {
	_, err := db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}
