// Package tagging extracts tag metadata (title/artist/album/genre/year)
// from audio files.
package tagging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/cesargomez89/powerhour/internal/domain"
)

// Extractor is the tag-extraction capability consumed by the library
// scanner. Implementations must tolerate broken files by returning an error
// rather than panicking; the scanner falls back to empty tags.
type Extractor interface {
	Extract(path string) (domain.Metadata, error)
}

// TagReader reads embedded metadata from MP3 (ID3), FLAC/OGG (Vorbis
// comments) and M4A/AAC (MP4 atoms) containers.
type TagReader struct{}

func NewTagReader() *TagReader {
	return &TagReader{}
}

// Extract opens the file and reads its tags. Files with no recognizable tag
// block return empty metadata without an error; unreadable files error.
func (r *TagReader) Extract(path string) (domain.Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if err == tag.ErrNoTagsFound {
			return domain.Metadata{}, nil
		}
		return domain.Metadata{}, fmt.Errorf("failed to read tags from %s: %w", path, err)
	}

	return domain.Metadata{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
		Year:   m.Year(),
	}, nil
}

// DisplayName returns the human-facing name for a scanned file: the tag
// title when present, else the file name without extension.
func DisplayName(path string, md domain.Metadata) string {
	if md.Title != "" {
		return md.Title
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
