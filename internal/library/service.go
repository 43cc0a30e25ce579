// Package library implements the multi-library persistence service: cached
// scan results per root folder with TTL refresh, explicit removal and a
// single process-wide current-library pointer.
package library

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/store"
)

// MetadataPatch updates individual tag fields of a cached song. Nil fields
// are left untouched.
type MetadataPatch struct {
	Title  *string `json:"title,omitempty"`
	Artist *string `json:"artist,omitempty"`
	Album  *string `json:"album,omitempty"`
	Genre  *string `json:"genre,omitempty"`
	Year   *int    `json:"year,omitempty"`
}

type Service struct {
	db         *store.DB
	expiryDays int
	log        *logger.Logger
	now        func() time.Time
}

func NewService(db *store.DB, expiryDays int, log *logger.Logger) *Service {
	return &Service{
		db:         db,
		expiryDays: expiryDays,
		log:        log.WithComponent("library"),
		now:        time.Now,
	}
}

// Save stores the scan result for a root folder, replacing any previous
// record wholesale. TotalSize is a fold over the song sizes. An empty name
// defaults to the folder's base name.
func (s *Service) Save(path string, songs []domain.Song, name string, makeCurrent bool) (*domain.Library, error) {
	if name == "" {
		name = filepath.Base(path)
	}

	lib := &domain.Library{
		ID:          store.LibraryID(path),
		Name:        name,
		Path:        path,
		Songs:       songs,
		LastScanned: s.now(),
		Version:     1,
	}
	lib.Recount()

	if err := s.db.SaveLibrary(lib); err != nil {
		return nil, err
	}
	if makeCurrent {
		if err := s.db.SetSetting(store.SettingCurrentLibrary, lib.ID); err != nil {
			return nil, fmt.Errorf("failed to set current library: %w", err)
		}
	}

	s.log.WithLibrary(lib.ID, path).Info("Library saved", "songs", lib.SongCount, "total_size", lib.TotalSize)
	return lib, nil
}

// Load returns the cached song list for a root folder, or nil when no
// record exists.
func (s *Service) Load(path string, makeCurrent bool) ([]domain.Song, error) {
	lib, err := s.db.GetLibraryByPath(path)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if makeCurrent {
		if err := s.db.SetSetting(store.SettingCurrentLibrary, lib.ID); err != nil {
			return nil, fmt.Errorf("failed to set current library: %w", err)
		}
	}
	return lib.Songs, nil
}

// Get returns the full cached record for a root folder.
func (s *Service) Get(path string) (*domain.Library, error) {
	return s.db.GetLibraryByPath(path)
}

// List returns every cached library without song lists.
func (s *Service) List() ([]domain.Library, error) {
	return s.db.ListLibraries()
}

// NeedsRefresh reports whether a root folder has no cached record or one
// older than the configured expiry.
func (s *Service) NeedsRefresh(path string) bool {
	lib, err := s.db.GetLibraryByPath(path)
	if err != nil {
		return true
	}
	age := s.now().Sub(lib.LastScanned)
	return age > time.Duration(s.expiryDays)*24*time.Hour
}

// Remove deletes the cached record for a root folder. If it was current the
// pointer is cleared; selecting a replacement is the caller's concern.
func (s *Service) Remove(path string) error {
	lib, err := s.db.GetLibraryByPath(path)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.db.DeleteLibrary(lib.ID)
}

// CurrentID returns the current-library pointer, empty when unset.
func (s *Service) CurrentID() (string, error) {
	return s.db.GetSetting(store.SettingCurrentLibrary)
}

// AddSong appends one song to a cached record in place. A library that is
// not cached is a warned no-op.
func (s *Service) AddSong(path string, song domain.Song) error {
	lib, err := s.db.GetLibraryByPath(path)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("AddSong on uncached library", "path", path)
		return nil
	}
	if err != nil {
		return err
	}

	lib.Songs = append(lib.Songs, song)
	lib.Recount()
	return s.db.SaveLibrary(lib)
}

// UpdateSongMetadata patches the tags of one cached song, matched by file
// path. A library that is not cached is a warned no-op; an unknown song
// path within a cached library is too.
func (s *Service) UpdateSongMetadata(path, songPath string, patch MetadataPatch) error {
	lib, err := s.db.GetLibraryByPath(path)
	if errors.Is(err, domain.ErrNotFound) {
		s.log.Warn("UpdateSongMetadata on uncached library", "path", path)
		return nil
	}
	if err != nil {
		return err
	}

	found := false
	for i := range lib.Songs {
		if lib.Songs[i].Path != songPath {
			continue
		}
		applyPatch(&lib.Songs[i].Metadata, patch)
		found = true
		break
	}
	if !found {
		s.log.Warn("UpdateSongMetadata on unknown song", "path", path, "song", songPath)
		return nil
	}

	lib.Recount()
	return s.db.SaveLibrary(lib)
}

func applyPatch(md *domain.Metadata, patch MetadataPatch) {
	if patch.Title != nil {
		md.Title = *patch.Title
	}
	if patch.Artist != nil {
		md.Artist = *patch.Artist
	}
	if patch.Album != nil {
		md.Album = *patch.Album
	}
	if patch.Genre != nil {
		md.Genre = *patch.Genre
	}
	if patch.Year != nil {
		md.Year = *patch.Year
	}
}
