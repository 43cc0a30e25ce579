// Package scanner walks a music folder tree and produces the flat song list
// cached in the library store.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/metacache"
	"github.com/cesargomez89/powerhour/internal/tagging"
)

// audioExtensions is the fixed allow-list of scannable file types.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".flac": true,
	".aac":  true,
}

// Progress is reported to the caller every few processed files.
type Progress struct {
	ProcessedCount  int    `json:"processed_count"`
	CurrentFileName string `json:"current_file_name"`
}

// ProgressFunc receives incremental scan progress. May be nil.
type ProgressFunc func(Progress)

// Scanner discovers audio files under a root folder, reading tags through
// the metadata cache.
type Scanner struct {
	cache     *metacache.Cache
	extractor tagging.Extractor
	log       *logger.Logger
}

func New(cache *metacache.Cache, extractor tagging.Extractor, log *logger.Logger) *Scanner {
	return &Scanner{
		cache:     cache,
		extractor: extractor,
		log:       log.WithComponent("scanner"),
	}
}

type walkState struct {
	songs      []domain.Song
	processed  int
	onProgress ProgressFunc
}

// Scan walks root recursively, depth-unbounded, and returns every audio file
// found as a song record. Cancellation is cooperative, checked before each
// directory entry; a cancelled scan returns domain.ErrScanCancelled and no
// partial list. An unreadable subdirectory is logged and skipped; a file
// whose tags cannot be read gets empty tag fields. Neither aborts the scan.
func (s *Scanner) Scan(ctx context.Context, root string, onProgress ProgressFunc) ([]domain.Song, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, domain.ErrNotFound
	}

	state := &walkState{onProgress: onProgress}
	if err := s.walk(ctx, root, state); err != nil {
		return nil, err
	}

	sort.Slice(state.songs, func(i, j int) bool {
		return state.songs[i].Path < state.songs[j].Path
	})
	return state.songs, nil
}

func (s *Scanner) walk(ctx context.Context, dir string, state *walkState) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Skip the unreadable subtree, keep scanning the rest.
		s.log.Warn("Skipping unreadable directory", "dir", dir, "error", err)
		return nil
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return domain.ErrScanCancelled
		}

		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := s.walk(ctx, path, state); err != nil {
				return err
			}
			continue
		}

		if !audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			s.log.Warn("Skipping unreadable file", "path", path, "error", err)
			continue
		}

		state.songs = append(state.songs, s.record(path, info))
		state.processed++
		if state.onProgress != nil && state.processed%constants.ScanProgressInterval == 0 {
			state.onProgress(Progress{
				ProcessedCount:  state.processed,
				CurrentFileName: entry.Name(),
			})
		}
	}
	return nil
}

// record builds the song record for one file, consulting the metadata cache
// by fingerprint before falling back to tag extraction.
func (s *Scanner) record(path string, info os.FileInfo) domain.Song {
	fp := domain.Fingerprint(path, info.ModTime(), info.Size())

	md, hit := s.cache.Get(fp)
	if !hit {
		var err error
		md, err = s.extractor.Extract(path)
		if err != nil {
			// One bad file never aborts the scan.
			s.log.Warn("Tag extraction failed", "path", path, "error", err)
			md = domain.Metadata{}
		}
		s.cache.Put(fp, md)
	}

	return domain.Song{
		Path:        path,
		DisplayName: tagging.DisplayName(path, md),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Metadata:    md,
	}
}
