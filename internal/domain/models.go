package domain

import (
	"fmt"
	"time"
)

// Metadata holds the tag fields extracted from an audio file.
type Metadata struct {
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
}

// Song is an audio file discovered during a library scan. Identity is the
// absolute file path; freshness is validated by Fingerprint.
type Song struct {
	Path        string    `json:"path"`
	DisplayName string    `json:"display_name"`
	Size        int64     `json:"size"`
	ModTime     time.Time `json:"mod_time"`
	Metadata
}

// Fingerprint is the cache invalidation key for a song file. Any change to
// the modification time or byte size produces a different fingerprint even
// when the path is unchanged.
func Fingerprint(path string, modTime time.Time, size int64) string {
	return fmt.Sprintf("%s:%d:%d", path, modTime.UnixMilli(), size)
}

// Fingerprint returns the song's current cache key.
func (s *Song) Fingerprint() string {
	return Fingerprint(s.Path, s.ModTime, s.Size)
}

// Library is the cached scan result for one root folder.
type Library struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Path        string    `json:"path" db:"path"`
	Songs       []Song    `json:"songs"`
	LastScanned time.Time `json:"last_scanned" db:"last_scanned"`
	SongCount   int       `json:"song_count" db:"song_count"`
	TotalSize   int64     `json:"total_size" db:"total_size"`
	Version     int       `json:"version" db:"version"`
}

// Recount restores the invariant that SongCount and TotalSize are a fold
// over Songs. Call after any mutation of the song list.
func (l *Library) Recount() {
	l.SongCount = len(l.Songs)
	l.TotalSize = 0
	for i := range l.Songs {
		l.TotalSize += l.Songs[i].Size
	}
}

// ClipRef is an entry in a mix or playlist: a pointer to a stored clip plus
// the display fields needed without loading the clip itself.
type ClipRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	SongName string  `json:"song_name"`
	// ClipPath is the absolute location of the rendered clip audio, when
	// known. Archive import rewrites it; render falls back to the canonical
	// per-clip folder when it is empty or stale.
	ClipPath string `json:"clip_path,omitempty"`
}

// Clip is a rendered audio segment cut from a song.
type Clip struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	SourceSongName string  `json:"source_song_name"`
	Start          float64 `json:"start"`
	Duration       float64 `json:"duration"`
	// Extensions carries unrecognized sidecar fields through load/save so
	// newer archives survive a round trip.
	Extensions map[string]string `json:"extensions,omitempty"`
}

// Ref converts a clip to the reference form stored in mixes and playlists.
func (c *Clip) Ref() ClipRef {
	return ClipRef{
		ID:       c.ID,
		Name:     c.Name,
		Start:    c.Start,
		Duration: c.Duration,
		SongName: c.SourceSongName,
	}
}

// Mix is a named, pre-rendered composite: one audio file plus its metadata
// sidecar, both keyed by ID.
type Mix struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	CreatedAt       time.Time         `json:"created_at"`
	Clips           []ClipRef         `json:"clips"`
	HasInterstitial bool              `json:"has_interstitial"`
	SourceProject   []byte            `json:"source_project_data,omitempty"`
	Extensions      map[string]string `json:"extensions,omitempty"`
}

// AddClip appends a clip reference, enforcing the clip cap. Returns false
// when the mix is already full; the reference is ignored.
func (m *Mix) AddClip(ref ClipRef, maxClips int) bool {
	if len(m.Clips) >= maxClips {
		return false
	}
	m.Clips = append(m.Clips, ref)
	return true
}

// PlaylistExportInfo records what an export actually packed.
type PlaylistExportInfo struct {
	TotalClips int       `json:"total_clips"`
	ValidClips int       `json:"valid_clips"`
	ExportedAt time.Time `json:"exported_at"`
}

// PlaylistImportInfo records where a playlist came from and how much of it
// survived the import.
type PlaylistImportInfo struct {
	TotalClips int       `json:"total_clips"`
	ValidClips int       `json:"valid_clips"`
	SourceFile string    `json:"source_file"`
	ImportedAt time.Time `json:"imported_at"`
}

// Playlist is a reusable ordered clip list, rendered on demand rather than
// stored as audio.
type Playlist struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	CreatedAt        time.Time           `json:"created_at"`
	Clips            []ClipRef           `json:"clips"`
	InterstitialPath string              `json:"interstitial_path,omitempty"`
	ExportInfo       *PlaylistExportInfo `json:"export_info,omitempty"`
	ImportInfo       *PlaylistImportInfo `json:"import_info,omitempty"`
	Extensions       map[string]string   `json:"extensions,omitempty"`
}

// AddClip appends a clip reference, enforcing the clip cap. Returns false
// when the playlist is already full; the reference is ignored.
func (p *Playlist) AddClip(ref ClipRef, maxClips int) bool {
	if len(p.Clips) >= maxClips {
		return false
	}
	p.Clips = append(p.Clips, ref)
	return true
}
