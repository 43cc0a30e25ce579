package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/storage"
)

// ExportProject packs one mix into a project archive at outPath: the rendered
// audio and its sidecar, the backed-up original source files, the per-clip
// audio for every clip the mix references, and the configured drinking sound.
// Missing optional assets are logged and skipped; only the mix itself is
// required.
func (p *Packager) ExportProject(mixKey, drinkingSoundPath, outPath string) (*Manifest, error) {
	mix, err := p.mixes.Load(mixKey)
	if err != nil {
		return nil, err
	}
	log := p.log.WithMix(mix.ID, mix.Name)
	outPath = resolveOutPath(outPath, mix.Name, constants.ProjectArchiveExt)

	stage, err := os.MkdirTemp("", "ph-export-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(stage)

	manifest := &Manifest{
		Type:    constants.ProjectManifestType,
		Version: constants.ArchiveVersion,
		Created: p.now().UTC(),
		MixID:   mix.ID,
		MixName: mix.Name,
	}

	meta, err := json.MarshalIndent(mix, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := storage.WriteFile(filepath.Join(stage, constants.MixJSONName), meta); err != nil {
		return nil, err
	}
	wavPath, err := p.mixes.AudioPath(mix.ID)
	if err != nil {
		return nil, fmt.Errorf("mix audio missing: %w", err)
	}
	if err := storage.CopyFile(wavPath, filepath.Join(stage, constants.MixAudioName)); err != nil {
		return nil, err
	}

	backupDir := p.mixes.BackupDir(mix.ID)
	if info, err := os.Stat(backupDir); err == nil && info.IsDir() {
		dst := filepath.Join(stage, constants.OriginalFilesDirName)
		if err := storage.CopyDir(backupDir, dst); err != nil {
			log.Warn("Failed to pack original files", "error", err)
		} else {
			manifest.HasOriginalFiles = true
		}
	}

	clipsDir := filepath.Join(stage, constants.ArchiveClipsDirName)
	for _, ref := range mix.Clips {
		src, err := p.clips.AudioPath(ref.ID)
		if err != nil {
			log.Warn("Clip audio missing, skipping from archive", "clip_id", ref.ID, "clip_name", ref.Name)
			continue
		}
		if err := storage.CopyFile(src, filepath.Join(clipsDir, ref.ID+".wav")); err != nil {
			log.Warn("Failed to pack clip audio", "clip_id", ref.ID, "error", err)
			continue
		}
		manifest.ClipCount++
	}

	if drinkingSoundPath != "" {
		dst := filepath.Join(stage, constants.DrinkingDirName, filepath.Base(drinkingSoundPath))
		if err := storage.CopyFile(drinkingSoundPath, dst); err != nil {
			log.Warn("Failed to pack drinking sound", "path", drinkingSoundPath, "error", err)
		} else {
			manifest.HasDrinkingSound = true
		}
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := storage.WriteFile(filepath.Join(stage, constants.ManifestFileName), manifestJSON); err != nil {
		return nil, err
	}

	if err := zipDir(stage, outPath); err != nil {
		return nil, err
	}
	log.Info("Exported project archive", "path", outPath, "clips", manifest.ClipCount)
	return manifest, nil
}

// ImportProject restores a project archive, storing the mix under a freshly
// minted id. Clip audio retains its original clip ids so the restored mix's
// references keep resolving.
func (p *Packager) ImportProject(archivePath string) (*domain.Mix, error) {
	stage, err := os.MkdirTemp("", "ph-import-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(stage)

	if err := unzip(archivePath, stage); err != nil {
		return nil, err
	}

	manifest, err := readManifest(filepath.Join(stage, constants.ManifestFileName))
	if err != nil {
		return nil, err
	}
	if manifest.Type != constants.ProjectManifestType {
		return nil, fmt.Errorf("%w: unexpected manifest type %q", domain.ErrInvalidArchive, manifest.Type)
	}

	mix, err := readMixJSON(filepath.Join(stage, constants.MixJSONName))
	if err != nil {
		return nil, err
	}

	oldID := mix.ID
	mix.ID = uuid.New().String()
	log := p.log.WithMix(mix.ID, mix.Name)

	audio, err := os.ReadFile(filepath.Join(stage, constants.MixAudioName))
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidArchive, constants.MixAudioName)
	}
	if err := p.mixes.Save(mix, audio); err != nil {
		return nil, err
	}

	originals := filepath.Join(stage, constants.OriginalFilesDirName)
	if info, err := os.Stat(originals); err == nil && info.IsDir() {
		if err := storage.CopyDir(originals, p.mixes.BackupDir(mix.ID)); err != nil {
			log.Warn("Failed to restore original files", "error", err)
		}
	}

	p.restoreClips(mix, filepath.Join(stage, constants.ArchiveClipsDirName), log)

	log.Info("Imported project archive", "source", filepath.Base(archivePath), "previous_id", oldID)
	return mix, nil
}

// restoreClips copies every archived clip wav into the temp clip store under
// its original id, synthesizing sidecar metadata from the matching mix
// reference when one exists. Unreferenced clips are restored too so nothing
// carried by the archive is lost.
func (p *Packager) restoreClips(mix *domain.Mix, clipsDir string, log *logger.Logger) {
	refs := make(map[string]domain.ClipRef, len(mix.Clips))
	for _, ref := range mix.Clips {
		refs[ref.ID] = ref
	}

	entries, err := os.ReadDir(clipsDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".wav" {
			continue
		}
		id := name[:len(name)-len(".wav")]
		wav, err := os.ReadFile(filepath.Join(clipsDir, name))
		if err != nil {
			log.Warn("Failed to read archived clip", "clip_id", id, "error", err)
			continue
		}
		clip := &domain.Clip{ID: id, Name: id}
		if ref, ok := refs[id]; ok {
			clip.Name = ref.Name
			clip.SourceSongName = ref.SongName
			clip.Start = ref.Start
			clip.Duration = ref.Duration
		}
		if err := p.clips.SaveTemp(clip, wav); err != nil {
			log.Warn("Failed to restore clip", "clip_id", id, "error", err)
		}
	}
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidArchive, constants.ManifestFileName)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: malformed manifest: %v", domain.ErrInvalidArchive, err)
	}
	return &m, nil
}

func readMixJSON(path string) (*domain.Mix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", domain.ErrInvalidArchive, constants.MixJSONName)
	}
	var mix domain.Mix
	if err := json.Unmarshal(data, &mix); err != nil {
		return nil, fmt.Errorf("%w: malformed mix metadata: %v", domain.ErrInvalidArchive, err)
	}
	return &mix, nil
}
