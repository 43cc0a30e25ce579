package clips

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

// Store persists clips on disk. The temp folder is the flat working set
// ({id}.wav + {id}.json); the permanent folder keeps one subfolder per clip
// (clips/{id}/{id}.wav + {id}.json) for clips referenced by playlists.
type Store struct {
	tempDir string
	permDir string
	log     *logger.Logger
}

func NewStore(tempDir, permDir string, log *logger.Logger) *Store {
	return &Store{
		tempDir: tempDir,
		permDir: permDir,
		log:     log.WithComponent("clip-store"),
	}
}

// SaveTemp writes a clip pair into the flat working folder.
func (s *Store) SaveTemp(clip *domain.Clip, wav []byte) error {
	if err := storage.EnsureDir(s.tempDir); err != nil {
		return err
	}
	return s.writePair(filepath.Join(s.tempDir, clip.ID+".wav"),
		filepath.Join(s.tempDir, clip.ID+".json"), clip, wav)
}

// SavePermanent writes a clip pair into its own per-clip folder.
func (s *Store) SavePermanent(clip *domain.Clip, wav []byte) error {
	dir := filepath.Join(s.permDir, clip.ID)
	if err := storage.EnsureDir(dir); err != nil {
		return err
	}
	return s.writePair(filepath.Join(dir, clip.ID+".wav"),
		filepath.Join(dir, clip.ID+".json"), clip, wav)
}

func (s *Store) writePair(wavPath, jsonPath string, clip *domain.Clip, wav []byte) error {
	if err := storage.WriteFile(wavPath, wav); err != nil {
		return fmt.Errorf("failed to write clip audio: %w", err)
	}
	meta, err := json.MarshalIndent(clip, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal clip metadata: %w", err)
	}
	if err := storage.WriteFile(jsonPath, meta); err != nil {
		return fmt.Errorf("failed to write clip metadata: %w", err)
	}
	return nil
}

// AudioPath resolves the canonical location of a clip's audio, permanent
// folder first, then the temp working set.
func (s *Store) AudioPath(id string) (string, error) {
	candidates := []string{
		filepath.Join(s.permDir, id, id+".wav"),
		filepath.Join(s.tempDir, id+".wav"),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: clip %s", domain.ErrNotFound, id)
}

// LoadMeta reads the clip sidecar, permanent folder first.
func (s *Store) LoadMeta(id string) (*domain.Clip, error) {
	candidates := []string{
		filepath.Join(s.permDir, id, id+".json"),
		filepath.Join(s.tempDir, id+".json"),
	}
	for _, p := range candidates {
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		var clip domain.Clip
		if err := json.Unmarshal(data, &clip); err != nil {
			return nil, fmt.Errorf("failed to parse clip sidecar %s: %w", p, err)
		}
		return &clip, nil
	}
	return nil, fmt.Errorf("%w: clip %s", domain.ErrNotFound, id)
}

// List returns the working set, ordered by name.
func (s *Store) List() ([]domain.Clip, error) {
	entries, err := os.ReadDir(s.tempDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var clips []domain.Clip
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.tempDir, entry.Name()))
		if err != nil {
			s.log.Warn("Skipping unreadable clip sidecar", "file", entry.Name(), "error", err)
			continue
		}
		var clip domain.Clip
		if err := json.Unmarshal(data, &clip); err != nil {
			s.log.Warn("Skipping malformed clip sidecar", "file", entry.Name(), "error", err)
			continue
		}
		clips = append(clips, clip)
	}

	sort.Slice(clips, func(i, j int) bool { return clips[i].Name < clips[j].Name })
	return clips, nil
}

// Delete removes a clip from both stores. Unknown ids are a no-op.
func (s *Store) Delete(id string) error {
	_ = storage.RemoveFile(filepath.Join(s.tempDir, id+".wav"))
	_ = storage.RemoveFile(filepath.Join(s.tempDir, id+".json"))
	return os.RemoveAll(filepath.Join(s.permDir, id))
}

// DeleteAllTemp clears the working set.
func (s *Store) DeleteAllTemp() error {
	if err := os.RemoveAll(s.tempDir); err != nil {
		return err
	}
	return storage.EnsureDir(s.tempDir)
}

// Promote moves a clip from the temp working set into its permanent
// folder. Already-permanent clips are a no-op. Returns the permanent audio
// path.
func (s *Store) Promote(id string) (string, error) {
	permWav := filepath.Join(s.permDir, id, id+".wav")
	if _, err := os.Stat(permWav); err == nil {
		return permWav, nil
	}

	tempWav := filepath.Join(s.tempDir, id+".wav")
	if _, err := os.Stat(tempWav); err != nil {
		return "", fmt.Errorf("%w: clip %s", domain.ErrNotFound, id)
	}
	if err := storage.EnsureDir(filepath.Join(s.permDir, id)); err != nil {
		return "", err
	}
	if err := storage.MoveFile(tempWav, permWav); err != nil {
		return "", err
	}
	tempJSON := filepath.Join(s.tempDir, id+".json")
	if _, err := os.Stat(tempJSON); err == nil {
		permJSON := filepath.Join(s.permDir, id, id+".json")
		if err := storage.MoveFile(tempJSON, permJSON); err != nil {
			return "", err
		}
	}
	return permWav, nil
}

// ImportAudio copies an external clip audio file into a fresh per-clip
// folder under the given id, writing a sidecar (repairing it when the
// archive shipped none). Returns the new canonical audio path.
func (s *Store) ImportAudio(clip *domain.Clip, srcPath string) (string, error) {
	dir := filepath.Join(s.permDir, clip.ID)
	if err := storage.EnsureDir(dir); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, clip.ID+".wav")
	if err := storage.CopyFile(srcPath, dst); err != nil {
		return "", fmt.Errorf("failed to import clip audio: %w", err)
	}

	meta, err := json.MarshalIndent(clip, "", "  ")
	if err != nil {
		return "", err
	}
	if err := storage.WriteFile(filepath.Join(dir, clip.ID+".json"), meta); err != nil {
		return "", fmt.Errorf("failed to write clip sidecar: %w", err)
	}
	return dst, nil
}
