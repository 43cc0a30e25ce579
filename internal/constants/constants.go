// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort       = "8080"
	DefaultDBPath     = "powerhour.db"
	DefaultDataDir    = "powerhour-data"
	DefaultFFmpegPath = "ffmpeg"
	DefaultRenderRate = 44100
)

// Caching
const (
	MetadataCacheTTL         = 24 * time.Hour
	DefaultLibraryExpiryDays = 7
	// EvictFraction is the share of library records dropped (oldest first by
	// last_scanned) when a persistence write hits a full store.
	EvictFraction = 0.25
)

// Composition limits
const (
	MaxMixClips          = 60
	WildCardClipSeconds  = 60.0
	ScanProgressInterval = 10
)

// Folder names under the data directory
const (
	MixesDir     = "mixes"
	BackupsDir   = "backups"
	ClipsDir     = "clips"
	TempClipsDir = "temp-clips"
	PlaylistsDir = "playlists"
)

// Archive format
const (
	ProjectManifestType = "power-hour-project"
	ArchiveVersion      = 1
	ProjectArchiveExt   = ".phproject"
	PlaylistArchiveExt  = ".phpl"

	ManifestFileName     = "manifest.json"
	MixJSONName          = "mix.json"
	MixAudioName         = "mix.wav"
	PlaylistJSONName     = "playlist.json"
	OriginalFilesDirName = "original_files"
	ArchiveClipsDirName  = "clips"
	DrinkingDirName      = "drinking"
)

// Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)
