package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/storage"
)

// ExportPlaylist packs a playlist into an archive at outPath: clip audio and
// sidecar metadata under clips/, the interstitial sound at the archive root,
// and playlist.json describing the order. Clips whose audio cannot be found
// are recorded with an empty path and excluded from the valid count.
func (p *Packager) ExportPlaylist(playlistID, outPath string) (*domain.Playlist, error) {
	pl, err := p.playlists.Load(playlistID)
	if err != nil {
		return nil, err
	}
	log := p.log.With("playlist_id", pl.ID, "playlist_name", pl.Name)
	outPath = resolveOutPath(outPath, pl.Name, constants.PlaylistArchiveExt)

	stage, err := os.MkdirTemp("", "ph-export-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(stage)

	clipsDir := filepath.Join(stage, constants.ArchiveClipsDirName)
	valid := 0
	for i := range pl.Clips {
		ref := &pl.Clips[i]
		src := ref.ClipPath
		if src == "" || !fileExists(src) {
			src, err = p.clips.AudioPath(ref.ID)
			if err != nil {
				log.Warn("Clip audio unresolvable, marking invalid", "clip_id", ref.ID, "clip_name", ref.Name)
				ref.ClipPath = ""
				continue
			}
		}
		if err := storage.CopyFile(src, filepath.Join(clipsDir, ref.ID+".wav")); err != nil {
			log.Warn("Failed to pack clip audio", "clip_id", ref.ID, "error", err)
			ref.ClipPath = ""
			continue
		}
		if err := p.writeClipSidecar(clipsDir, *ref); err != nil {
			log.Warn("Failed to pack clip metadata", "clip_id", ref.ID, "error", err)
		}
		ref.ClipPath = filepath.ToSlash(filepath.Join(constants.ArchiveClipsDirName, ref.ID+".wav"))
		valid++
	}

	if pl.InterstitialPath != "" {
		name := filepath.Base(pl.InterstitialPath)
		if err := storage.CopyFile(pl.InterstitialPath, filepath.Join(stage, name)); err != nil {
			log.Warn("Failed to pack drinking sound", "path", pl.InterstitialPath, "error", err)
			pl.InterstitialPath = ""
		} else {
			pl.InterstitialPath = name
		}
	}

	pl.ExportInfo = &domain.PlaylistExportInfo{
		TotalClips: len(pl.Clips),
		ValidClips: valid,
		ExportedAt: p.now().UTC(),
	}
	plJSON, err := json.MarshalIndent(pl, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := storage.WriteFile(filepath.Join(stage, constants.PlaylistJSONName), plJSON); err != nil {
		return nil, err
	}

	if err := zipDir(stage, outPath); err != nil {
		return nil, err
	}
	log.Info("Exported playlist archive", "path", outPath, "valid_clips", valid, "total_clips", len(pl.Clips))
	return pl, nil
}

// writeClipSidecar copies the stored clip metadata next to the archived
// audio, reconstructing it from the reference when the store has none.
func (p *Packager) writeClipSidecar(clipsDir string, ref domain.ClipRef) error {
	clip, err := p.clips.LoadMeta(ref.ID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		clip = &domain.Clip{
			ID:             ref.ID,
			Name:           ref.Name,
			SourceSongName: ref.SongName,
			Start:          ref.Start,
			Duration:       ref.Duration,
		}
	}
	data, err := json.MarshalIndent(clip, "", "  ")
	if err != nil {
		return err
	}
	return storage.WriteFile(filepath.Join(clipsDir, ref.ID+".json"), data)
}

// ImportPlaylist restores a playlist archive under a freshly minted playlist
// id, keeping the original clip ids. Archived clip audio lands in the
// canonical per-clip store and each reference is rewritten to point there;
// the interstitial sound is copied into the playlist's assets folder.
func (p *Packager) ImportPlaylist(archivePath string) (*domain.Playlist, error) {
	if !isZipFile(archivePath) {
		return nil, fmt.Errorf("%w: not a playlist archive", domain.ErrInvalidArchive)
	}

	stage, err := os.MkdirTemp("", "ph-import-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(stage)

	if err := unzip(archivePath, stage); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(stage, constants.PlaylistJSONName))
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidArchive, constants.PlaylistJSONName)
	}
	var pl domain.Playlist
	if err := json.Unmarshal(data, &pl); err != nil {
		return nil, fmt.Errorf("%w: malformed playlist metadata: %v", domain.ErrInvalidArchive, err)
	}

	pl.ID = uuid.New().String()
	log := p.log.With("playlist_id", pl.ID, "playlist_name", pl.Name)

	clipsDir := filepath.Join(stage, constants.ArchiveClipsDirName)
	valid := 0
	for i := range pl.Clips {
		ref := &pl.Clips[i]
		src := filepath.Join(clipsDir, ref.ID+".wav")
		if !fileExists(src) {
			log.Warn("Archived clip audio missing", "clip_id", ref.ID, "clip_name", ref.Name)
			ref.ClipPath = ""
			continue
		}
		clip := readArchivedClip(filepath.Join(clipsDir, ref.ID+".json"), *ref)
		newPath, err := p.clips.ImportAudio(clip, src)
		if err != nil {
			log.Warn("Failed to restore clip", "clip_id", ref.ID, "error", err)
			ref.ClipPath = ""
			continue
		}
		ref.ClipPath = newPath
		valid++
	}

	if pl.InterstitialPath != "" {
		src := filepath.Join(stage, filepath.Base(pl.InterstitialPath))
		dst := filepath.Join(p.playlists.AssetsDir(pl.ID), filepath.Base(pl.InterstitialPath))
		if err := storage.CopyFile(src, dst); err != nil {
			log.Warn("Drinking sound missing from archive", "name", pl.InterstitialPath)
			pl.InterstitialPath = ""
		} else {
			pl.InterstitialPath = dst
		}
	}

	pl.ImportInfo = &domain.PlaylistImportInfo{
		TotalClips: len(pl.Clips),
		ValidClips: valid,
		SourceFile: filepath.Base(archivePath),
		ImportedAt: p.now().UTC(),
	}
	if err := p.playlists.Save(&pl); err != nil {
		return nil, err
	}
	log.Info("Imported playlist archive", "source", filepath.Base(archivePath), "valid_clips", valid, "total_clips", len(pl.Clips))
	return &pl, nil
}

// readArchivedClip loads the archived sidecar, falling back to the reference
// fields when the archive shipped none.
func readArchivedClip(path string, ref domain.ClipRef) *domain.Clip {
	if data, err := os.ReadFile(path); err == nil {
		var clip domain.Clip
		if json.Unmarshal(data, &clip) == nil && clip.ID == ref.ID {
			return &clip
		}
	}
	return &domain.Clip{
		ID:             ref.ID,
		Name:           ref.Name,
		SourceSongName: ref.SongName,
		Start:          ref.Start,
		Duration:       ref.Duration,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
