// Package mixes persists rendered mixes as {id}.wav + {id}.json pairs, with
// per-mix backup folders for original source provenance.
package mixes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/storage"
)

type Store struct {
	dir        string
	backupsDir string
	log        *logger.Logger
}

func NewStore(dir, backupsDir string, log *logger.Logger) *Store {
	return &Store{
		dir:        dir,
		backupsDir: backupsDir,
		log:        log.WithComponent("mix-store"),
	}
}

// Save writes the mix pair. Saving over an existing id moves the previous
// pair into the mix's backup folder first.
func (s *Store) Save(mix *domain.Mix, audio []byte) error {
	if err := storage.EnsureDir(s.dir); err != nil {
		return err
	}

	wavPath := filepath.Join(s.dir, mix.ID+".wav")
	if _, err := os.Stat(wavPath); err == nil {
		backup := s.BackupDir(mix.ID)
		if err := storage.EnsureDir(backup); err == nil {
			_ = storage.MoveFile(wavPath, filepath.Join(backup, mix.ID+".wav"))
			_ = storage.MoveFile(filepath.Join(s.dir, mix.ID+".json"), filepath.Join(backup, mix.ID+".json"))
		}
	}

	if err := storage.WriteFile(wavPath, audio); err != nil {
		return fmt.Errorf("failed to write mix audio: %w", err)
	}
	return s.writeMeta(mix)
}

// Replace deletes the files of a superseded mix and writes the new pair,
// which may carry a different id.
func (s *Store) Replace(oldID string, mix *domain.Mix, audio []byte) error {
	if oldID != "" && oldID != mix.ID {
		if err := s.Delete(oldID); err != nil {
			s.log.Warn("Failed to remove superseded mix", "mix_id", oldID, "error", err)
		}
	}
	return s.Save(mix, audio)
}

func (s *Store) writeMeta(mix *domain.Mix) error {
	data, err := json.MarshalIndent(mix, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mix metadata: %w", err)
	}
	if err := storage.WriteFile(filepath.Join(s.dir, mix.ID+".json"), data); err != nil {
		return fmt.Errorf("failed to write mix metadata: %w", err)
	}
	return nil
}

// Load reads a mix by id or legacy name, falling back through the resolver
// chain when the direct path misses.
func (s *Store) Load(key string) (*domain.Mix, error) {
	jsonPath, ok := resolveJSON(s.dir, key)
	if !ok {
		return nil, fmt.Errorf("%w: mix %s", domain.ErrNotFound, key)
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var mix domain.Mix
	if err := json.Unmarshal(data, &mix); err != nil {
		return nil, fmt.Errorf("failed to parse mix sidecar %s: %w", jsonPath, err)
	}
	return &mix, nil
}

// AudioPath resolves a mix's audio file through the same chain as Load.
func (s *Store) AudioPath(key string) (string, error) {
	jsonPath, ok := resolveJSON(s.dir, key)
	if !ok {
		return "", fmt.Errorf("%w: mix %s", domain.ErrNotFound, key)
	}
	wavPath := strings.TrimSuffix(jsonPath, ".json") + ".wav"
	if _, err := os.Stat(wavPath); err != nil {
		return "", fmt.Errorf("%w: mix audio for %s", domain.ErrNotFound, key)
	}
	return wavPath, nil
}

// List returns every stored mix, newest first.
func (s *Store) List() ([]domain.Mix, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var list []domain.Mix
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn("Skipping unreadable mix sidecar", "file", entry.Name(), "error", err)
			continue
		}
		var mix domain.Mix
		if err := json.Unmarshal(data, &mix); err != nil {
			s.log.Warn("Skipping malformed mix sidecar", "file", entry.Name(), "error", err)
			continue
		}
		list = append(list, mix)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

// Delete removes the mix pair and any backup folder keyed by the same id.
func (s *Store) Delete(key string) error {
	mix, err := s.Load(key)
	if err != nil {
		return err
	}

	jsonPath, _ := resolveJSON(s.dir, key)
	wavPath := strings.TrimSuffix(jsonPath, ".json") + ".wav"
	_ = storage.RemoveFile(wavPath)
	if err := storage.RemoveFile(jsonPath); err != nil {
		return err
	}
	return os.RemoveAll(s.BackupDir(mix.ID))
}

// Rename updates just the display name.
func (s *Store) Rename(key, newName string) (*domain.Mix, error) {
	mix, err := s.Load(key)
	if err != nil {
		return nil, err
	}
	mix.Name = newName
	if err := s.writeMeta(mix); err != nil {
		return nil, err
	}
	return mix, nil
}

// UpdateMeta rewrites the sidecar for an existing mix.
func (s *Store) UpdateMeta(mix *domain.Mix) error {
	if _, err := s.Load(mix.ID); err != nil {
		return err
	}
	return s.writeMeta(mix)
}

// BackupDir returns the backup folder for one mix id.
func (s *Store) BackupDir(id string) string {
	return filepath.Join(s.backupsDir, id)
}

// BackupSource copies an original source file into the mix's backup folder.
// A file already backed up with identical contents is left alone.
func (s *Store) BackupSource(id, srcPath string) error {
	dst := filepath.Join(s.BackupDir(id), filepath.Base(srcPath))
	if _, err := os.Stat(dst); err == nil {
		srcHash, err := storage.HashFile(srcPath)
		if err != nil {
			return err
		}
		dstHash, err := storage.HashFile(dst)
		if err != nil {
			return err
		}
		if srcHash == dstHash {
			return nil
		}
	}
	return storage.CopyFile(srcPath, dst)
}
