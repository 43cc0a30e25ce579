package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
)

// libraryRow is the flat sqlite shape of a domain.Library; the song list is
// stored as one JSON column and replaced wholesale on rescan.
type libraryRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Path        string    `db:"path"`
	Songs       string    `db:"songs"`
	LastScanned time.Time `db:"last_scanned"`
	SongCount   int       `db:"song_count"`
	TotalSize   int64     `db:"total_size"`
	Version     int       `db:"version"`
}

// LibraryID derives the stable record id for a root folder: the sha256 hex
// of the case-folded, slash-normalized path.
func LibraryID(path string) string {
	sum := sha256.Sum256([]byte(normalizePath(path)))
	return hex.EncodeToString(sum[:])
}

// LegacyLibraryID is the previous shorter-form derivation (truncated hash).
// Records keyed this way are migrated on load.
func LegacyLibraryID(path string) string {
	return LibraryID(path)[:16]
}

func normalizePath(path string) string {
	p := filepath.ToSlash(path)
	p = strings.TrimRight(p, "/")
	return strings.ToLower(p)
}

// SaveLibrary stores or overwrites the record for lib.ID. A write that hits
// a full store triggers one eviction of the oldest quarter of records by
// last_scanned, then one retry; a second failure surfaces ErrStorageFull.
func (db *DB) SaveLibrary(lib *domain.Library) error {
	songs, err := json.Marshal(lib.Songs)
	if err != nil {
		return fmt.Errorf("failed to marshal songs: %w", err)
	}

	row := libraryRow{
		ID:          lib.ID,
		Name:        lib.Name,
		Path:        lib.Path,
		Songs:       string(songs),
		LastScanned: lib.LastScanned,
		SongCount:   lib.SongCount,
		TotalSize:   lib.TotalSize,
		Version:     lib.Version,
	}

	if err := db.upsertLibrary(&row); err != nil {
		if !isStoreFull(err) {
			return fmt.Errorf("failed to save library: %w", err)
		}
		if evictErr := db.EvictOldestLibraries(constants.EvictFraction); evictErr != nil {
			return fmt.Errorf("%w: eviction failed: %v", domain.ErrStorageFull, evictErr)
		}
		if err := db.upsertLibrary(&row); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStorageFull, err)
		}
	}
	return nil
}

func (db *DB) upsertLibrary(row *libraryRow) error {
	_, err := db.NamedExec(`
		INSERT INTO libraries (id, name, path, songs, last_scanned, song_count, total_size, version)
		VALUES (:id, :name, :path, :songs, :last_scanned, :song_count, :total_size, :version)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, path = excluded.path, songs = excluded.songs,
			last_scanned = excluded.last_scanned, song_count = excluded.song_count,
			total_size = excluded.total_size, version = excluded.version
	`, row)
	return err
}

// isStoreFull reports whether a sqlite write failed for lack of space
// (SQLITE_FULL surfaces as "database or disk is full").
func isStoreFull(err error) bool {
	return err != nil && strings.Contains(err.Error(), "full")
}

// GetLibrary loads a record by id. Returns domain.ErrNotFound when absent.
func (db *DB) GetLibrary(id string) (*domain.Library, error) {
	var row libraryRow
	err := db.Get(&row, "SELECT * FROM libraries WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rowToLibrary(&row)
}

// GetLibraryByPath loads the record for a root folder, transparently
// migrating a record still keyed under the legacy id derivation: the row is
// re-keyed under the current id and the current-library pointer is updated
// if it referenced the old key.
func (db *DB) GetLibraryByPath(path string) (*domain.Library, error) {
	id := LibraryID(path)
	lib, err := db.GetLibrary(id)
	if err == nil {
		return lib, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	legacy := LegacyLibraryID(path)
	lib, err = db.GetLibrary(legacy)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("UPDATE libraries SET id = ? WHERE id = ?", id, legacy); err != nil {
		return nil, fmt.Errorf("failed to migrate library id: %w", err)
	}
	if current, err := db.GetSetting(SettingCurrentLibrary); err == nil && current == legacy {
		if err := db.SetSetting(SettingCurrentLibrary, id); err != nil {
			return nil, fmt.Errorf("failed to update current library pointer: %w", err)
		}
	}
	lib.ID = id
	return lib, nil
}

// DeleteLibrary removes a record. Deleting the current library clears the
// current pointer; the caller picks a replacement.
func (db *DB) DeleteLibrary(id string) error {
	if _, err := db.Exec("DELETE FROM libraries WHERE id = ?", id); err != nil {
		return err
	}
	if current, err := db.GetSetting(SettingCurrentLibrary); err == nil && current == id {
		return db.DeleteSetting(SettingCurrentLibrary)
	}
	return nil
}

// ListLibraries returns all records ordered by last scan, oldest first,
// without their song lists.
func (db *DB) ListLibraries() ([]domain.Library, error) {
	var rows []libraryRow
	err := db.Select(&rows, `
		SELECT id, name, path, '[]' AS songs, last_scanned, song_count, total_size, version
		FROM libraries ORDER BY last_scanned ASC
	`)
	if err != nil {
		return nil, err
	}

	libs := make([]domain.Library, 0, len(rows))
	for i := range rows {
		lib, err := rowToLibrary(&rows[i])
		if err != nil {
			return nil, err
		}
		libs = append(libs, *lib)
	}
	return libs, nil
}

// EvictOldestLibraries deletes the given fraction (rounded up, at least one)
// of records, least-recently-scanned first. The current pointer is cleared
// when it names an evicted record.
func (db *DB) EvictOldestLibraries(fraction float64) error {
	var total int
	if err := db.Get(&total, "SELECT COUNT(*) FROM libraries"); err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	n := int(float64(total) * fraction)
	if n < 1 {
		n = 1
	}

	var ids []string
	if err := db.Select(&ids, "SELECT id FROM libraries ORDER BY last_scanned ASC LIMIT ?", n); err != nil {
		return err
	}

	query, args, err := sqlx.In("DELETE FROM libraries WHERE id IN (?)", ids)
	if err != nil {
		return err
	}
	if _, err := db.Exec(query, args...); err != nil {
		return err
	}

	if current, err := db.GetSetting(SettingCurrentLibrary); err == nil {
		for _, id := range ids {
			if id == current {
				return db.DeleteSetting(SettingCurrentLibrary)
			}
		}
	}
	return nil
}

func rowToLibrary(row *libraryRow) (*domain.Library, error) {
	lib := &domain.Library{
		ID:          row.ID,
		Name:        row.Name,
		Path:        row.Path,
		LastScanned: row.LastScanned,
		SongCount:   row.SongCount,
		TotalSize:   row.TotalSize,
		Version:     row.Version,
	}
	if err := json.Unmarshal([]byte(row.Songs), &lib.Songs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal songs for library %s: %w", row.ID, err)
	}
	return lib, nil
}
