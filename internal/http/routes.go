package httpapp

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cesargomez89/powerhour/internal/audio"
	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/http/dto"
	"github.com/cesargomez89/powerhour/internal/library"
	"github.com/cesargomez89/powerhour/internal/mixer"
	"github.com/cesargomez89/powerhour/internal/store"
	"github.com/cesargomez89/powerhour/internal/tagging"
)

// StartScan kicks off a background folder scan, unless a fresh cached
// record already exists and the caller did not force a rescan.
func (h *Handler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req dto.ScanRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	if !req.Force && !h.Library.NeedsRefresh(req.Path) {
		if _, err := h.Library.Load(req.Path, req.MakeCurrent); err == nil {
			if lib, err := h.Library.Get(req.Path); err == nil {
				h.respondJSON(w, http.StatusOK, lib)
				return
			}
		}
	}

	scanID := h.Scans.Start(req.Path, func(songs []domain.Song) {
		if _, err := h.Library.Save(req.Path, songs, req.Name, req.MakeCurrent); err != nil {
			h.Logger.Error("Failed to persist scan result", "path", req.Path, "error", err)
		}
	})
	h.respondJSON(w, http.StatusAccepted, dto.ScanStartedResponse{ScanID: scanID})
}

func (h *Handler) ScanStatus(w http.ResponseWriter, r *http.Request) {
	st, err := h.Scans.Status(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.NewScanStatusResponse(st))
}

func (h *Handler) CancelScan(w http.ResponseWriter, r *http.Request) {
	if err := h.Scans.Cancel(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusAccepted, nil)
}

func (h *Handler) ListLibraries(w http.ResponseWriter, r *http.Request) {
	libs, err := h.Library.List()
	if err != nil {
		h.respondError(w, err)
		return
	}
	currentID, _ := h.Library.CurrentID()

	summaries := make([]dto.LibrarySummary, 0, len(libs))
	for i := range libs {
		summaries = append(summaries, dto.NewLibrarySummary(&libs[i], currentID))
	}
	h.respondJSON(w, http.StatusOK, summaries)
}

func (h *Handler) CurrentLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := h.currentLibrary()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, lib)
}

func (h *Handler) SetCurrentLibrary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.DB.GetLibrary(req.ID); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.DB.SetSetting(store.SettingCurrentLibrary, req.ID); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) GetLibrary(w http.ResponseWriter, r *http.Request) {
	lib, err := h.DB.GetLibrary(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, lib)
}

func (h *Handler) DeleteLibrary(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.DeleteLibrary(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) AddSong(w http.ResponseWriter, r *http.Request) {
	var req dto.AddSongRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	libPath, err := h.resolveLibraryPath(req.LibraryPath)
	if err != nil {
		h.respondError(w, err)
		return
	}

	info, err := os.Stat(req.Path)
	if err != nil {
		h.respondError(w, fmt.Errorf("%w: %s", domain.ErrNotFound, req.Path))
		return
	}
	md, err := h.Tags.Extract(req.Path)
	if err != nil {
		h.Logger.Warn("Tag extraction failed, keeping song untagged", "path", req.Path, "error", err)
		md = domain.Metadata{}
	}
	song := domain.Song{
		Path:        req.Path,
		DisplayName: tagging.DisplayName(req.Path, md),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		Metadata:    md,
	}

	if err := h.Library.AddSong(libPath, song); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, song)
}

func (h *Handler) UpdateSongMetadata(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateMetadataRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	libPath, err := h.resolveLibraryPath(req.LibraryPath)
	if err != nil {
		h.respondError(w, err)
		return
	}

	patch := library.MetadataPatch{
		Title:  req.Title,
		Artist: req.Artist,
		Album:  req.Album,
		Genre:  req.Genre,
		Year:   req.Year,
	}
	if err := h.Library.UpdateSongMetadata(libPath, req.Path, patch); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ExtractClip(w http.ResponseWriter, r *http.Request) {
	var req dto.ExtractClipRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	clip, wav, err := h.Engine.Extract(req.SourcePath, req.SourceName, req.Start, req.Duration)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Clips.SaveTemp(clip, wav); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, clip)
}

// WildCardClips cuts one randomly placed clip from every song in the
// current library. Per-song failures are skipped inside the engine.
func (h *Handler) WildCardClips(w http.ResponseWriter, r *http.Request) {
	lib, err := h.currentLibrary()
	if err != nil {
		h.respondError(w, err)
		return
	}

	results := h.Engine.WildCard(lib.Songs)
	saved := make([]*domain.Clip, 0, len(results))
	for _, res := range results {
		if err := h.Clips.SaveTemp(res.Clip, res.Audio); err != nil {
			h.Logger.Warn("Failed to save wildcard clip", "clip_id", res.Clip.ID, "error", err)
			continue
		}
		saved = append(saved, res.Clip)
	}
	h.respondJSON(w, http.StatusCreated, saved)
}

func (h *Handler) ListClips(w http.ResponseWriter, r *http.Request) {
	list, err := h.Clips.List()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) DeleteClip(w http.ResponseWriter, r *http.Request) {
	if err := h.Clips.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ClearClips(w http.ResponseWriter, r *http.Request) {
	if err := h.Clips.DeleteAllTemp(); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

// ComposeMix renders a new mix and promotes the clips it uses out of the
// temp working set, so clearing temp clips later cannot orphan the mix.
func (h *Handler) ComposeMix(w http.ResponseWriter, r *http.Request) {
	var req dto.ComposeMixRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	mix, skipped, err := h.renderMix(req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, dto.MixComposedResponse{Mix: mix, Skipped: skipped})
}

// RecomposeMix re-renders an existing mix under a fresh id, deleting the
// superseded one.
func (h *Handler) RecomposeMix(w http.ResponseWriter, r *http.Request) {
	oldID := chi.URLParam(r, "id")
	existing, err := h.Mixes.Load(oldID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req dto.ComposeMixRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		req.Name = existing.Name
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	mix, result, err := h.composeMix(req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.Mixes.Replace(existing.ID, mix, result.Audio); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.MixComposedResponse{Mix: mix, Skipped: result.Skipped})
}

func (h *Handler) renderMix(req dto.ComposeMixRequest) (*domain.Mix, int, error) {
	mix, result, err := h.composeMix(req)
	if err != nil {
		return nil, 0, err
	}
	if err := h.Mixes.Save(mix, result.Audio); err != nil {
		return nil, 0, err
	}
	return mix, result.Skipped, nil
}

// composeMix renders the clip list and builds the mix record, enforcing
// the clip cap through the domain model. HasInterstitial reflects what the
// renderer actually composed, not what was requested.
func (h *Handler) composeMix(req dto.ComposeMixRequest) (*domain.Mix, *mixer.RenderResult, error) {
	interstitial := h.interstitialFor(req.UseInterstitial)
	result, err := h.Renderer.Render(req.Clips, interstitial)
	if err != nil {
		return nil, nil, err
	}
	h.promoteClips(result.ValidClips)

	mix := &domain.Mix{
		ID:              uuid.New().String(),
		Name:            req.Name,
		CreatedAt:       time.Now().UTC(),
		HasInterstitial: result.InterstitialUsed,
	}
	for _, ref := range result.ValidClips {
		if !mix.AddClip(ref, constants.MaxMixClips) {
			break
		}
	}
	return mix, result, nil
}

func (h *Handler) promoteClips(refs []domain.ClipRef) {
	for _, ref := range refs {
		if _, err := h.Clips.Promote(ref.ID); err != nil {
			h.Logger.Warn("Failed to promote clip", "clip_id", ref.ID, "error", err)
		}
	}
}

// interstitialFor returns the configured drinking sound path when the
// caller asked for one, empty otherwise.
func (h *Handler) interstitialFor(use bool) string {
	if !use {
		return ""
	}
	path, err := h.DB.GetSetting(store.SettingInterstitialPath)
	if err != nil {
		h.Logger.Warn("Failed to read interstitial setting", "error", err)
		return ""
	}
	return path
}

func (h *Handler) ListMixes(w http.ResponseWriter, r *http.Request) {
	list, err := h.Mixes.List()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) GetMix(w http.ResponseWriter, r *http.Request) {
	mix, err := h.Mixes.Load(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mix)
}

func (h *Handler) MixAudio(w http.ResponseWriter, r *http.Request) {
	path, err := h.Mixes.AudioPath(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeFile(w, r, path)
}

func (h *Handler) RenameMix(w http.ResponseWriter, r *http.Request) {
	var req dto.RenameRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	mix, err := h.Mixes.Rename(chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, mix)
}

// UpdateMixMetadata rewrites a mix sidecar without re-rendering the audio.
// The id in the URL wins over whatever the body carries.
func (h *Handler) UpdateMixMetadata(w http.ResponseWriter, r *http.Request) {
	var mix domain.Mix
	if !h.decode(w, r, &mix) {
		return
	}
	mix.ID = chi.URLParam(r, "id")

	if err := h.Mixes.UpdateMeta(&mix); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, &mix)
}

func (h *Handler) DeleteMix(w http.ResponseWriter, r *http.Request) {
	if err := h.Mixes.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ExportProject(w http.ResponseWriter, r *http.Request) {
	var req dto.ArchivePathRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	drinking, _ := h.DB.GetSetting(store.SettingInterstitialPath)
	manifest, err := h.Packager.ExportProject(chi.URLParam(r, "id"), drinking, req.Path)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, manifest)
}

// ExportMixMP3 converts a rendered mix to a tagged mp3 at the requested
// location.
func (h *Handler) ExportMixMP3(w http.ResponseWriter, r *http.Request) {
	var req dto.ArchivePathRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	id := chi.URLParam(r, "id")
	mix, err := h.Mixes.Load(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	wavPath, err := h.Mixes.AudioPath(mix.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.FFmpeg.ConcatToMP3([]string{wavPath}, req.Path, "192k"); err != nil {
		h.respondError(w, err)
		return
	}
	if err := audio.TagMP3(req.Path, mix.Name, "Power Hour"); err != nil {
		h.Logger.Warn("Failed to tag exported mp3", "path", req.Path, "error", err)
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"path": req.Path})
}

func (h *Handler) ImportProject(w http.ResponseWriter, r *http.Request) {
	var req dto.ArchivePathRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	mix, err := h.Packager.ImportProject(req.Path)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, mix)
}

func (h *Handler) SavePlaylist(w http.ResponseWriter, r *http.Request) {
	var req dto.SavePlaylistRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	pl := &domain.Playlist{
		ID:               uuid.New().String(),
		Name:             req.Name,
		CreatedAt:        time.Now().UTC(),
		Clips:            req.Clips,
		InterstitialPath: req.InterstitialPath,
	}
	if err := h.Playlists.Save(pl); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, pl)
}

func (h *Handler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	list, err := h.Playlists.List()
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, list)
}

func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	pl, err := h.Playlists.Load(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pl)
}

func (h *Handler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	if err := h.Playlists.Delete(chi.URLParam(r, "id")); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) ExportPlaylist(w http.ResponseWriter, r *http.Request) {
	var req dto.ArchivePathRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	pl, err := h.Packager.ExportPlaylist(chi.URLParam(r, "id"), req.Path)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, pl)
}

func (h *Handler) ImportPlaylist(w http.ResponseWriter, r *http.Request) {
	var req dto.ArchivePathRequest
	if !h.decode(w, r, &req) {
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		h.respondValidation(w, errs)
		return
	}

	pl, err := h.Packager.ImportPlaylist(req.Path)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, pl)
}

func (h *Handler) GetInterstitial(w http.ResponseWriter, r *http.Request) {
	path, err := h.DB.GetSetting(store.SettingInterstitialPath)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"value": path})
}

// SetInterstitial stores the drinking sound path. An empty value clears it.
func (h *Handler) SetInterstitial(w http.ResponseWriter, r *http.Request) {
	var req dto.SettingRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Value == "" {
		if err := h.DB.DeleteSetting(store.SettingInterstitialPath); err != nil {
			h.respondError(w, err)
			return
		}
		h.respondJSON(w, http.StatusNoContent, nil)
		return
	}

	if _, err := os.Stat(req.Value); err != nil {
		h.respondError(w, fmt.Errorf("%w: %s", domain.ErrNotFound, req.Value))
		return
	}
	if err := h.DB.SetSetting(store.SettingInterstitialPath, req.Value); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusNoContent, nil)
}

// currentLibrary resolves the current-library pointer to its full record.
func (h *Handler) currentLibrary() (*domain.Library, error) {
	id, err := h.Library.CurrentID()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: no current library", domain.ErrNotFound)
	}
	return h.DB.GetLibrary(id)
}

// resolveLibraryPath defaults an empty library path to the current
// library's root folder.
func (h *Handler) resolveLibraryPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	lib, err := h.currentLibrary()
	if err != nil {
		return "", err
	}
	return lib.Path, nil
}
