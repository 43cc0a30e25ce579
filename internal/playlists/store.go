// Package playlists persists reusable clip lists as {id}.json files with an
// optional {id}_assets folder for imported interstitial sounds.
package playlists

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/storage"
)

type Store struct {
	dir string
	log *logger.Logger
}

func NewStore(dir string, log *logger.Logger) *Store {
	return &Store{
		dir: dir,
		log: log.WithComponent("playlist-store"),
	}
}

// Save writes or overwrites one playlist. A clip list beyond the cap is
// truncated; the extra references are dropped, never stored.
func (s *Store) Save(pl *domain.Playlist) error {
	if err := storage.EnsureDir(s.dir); err != nil {
		return err
	}
	if len(pl.Clips) > constants.MaxMixClips {
		s.log.Warn("Truncating playlist to clip cap", "playlist_id", pl.ID, "clips", len(pl.Clips))
		pl.Clips = pl.Clips[:constants.MaxMixClips]
	}

	data, err := json.MarshalIndent(pl, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}
	if err := storage.WriteFile(s.jsonPath(pl.ID), data); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}

func (s *Store) Load(id string) (*domain.Playlist, error) {
	data, err := os.ReadFile(s.jsonPath(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: playlist %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var pl domain.Playlist
	if err := json.Unmarshal(data, &pl); err != nil {
		return nil, fmt.Errorf("failed to parse playlist %s: %w", id, err)
	}
	return &pl, nil
}

// List returns every stored playlist ordered by name.
func (s *Store) List() ([]domain.Playlist, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var list []domain.Playlist
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn("Skipping unreadable playlist", "file", entry.Name(), "error", err)
			continue
		}
		var pl domain.Playlist
		if err := json.Unmarshal(data, &pl); err != nil {
			s.log.Warn("Skipping malformed playlist", "file", entry.Name(), "error", err)
			continue
		}
		list = append(list, pl)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// Delete removes the playlist and its assets folder.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.jsonPath(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: playlist %s", domain.ErrNotFound, id)
		}
		return err
	}
	return os.RemoveAll(s.AssetsDir(id))
}

// AssetsDir returns the playlist-specific asset folder.
func (s *Store) AssetsDir(id string) string {
	return filepath.Join(s.dir, id+"_assets")
}

func (s *Store) jsonPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}
