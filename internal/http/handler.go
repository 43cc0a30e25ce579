// Package httpapp exposes the application services as a JSON HTTP API.
package httpapp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/powerhour/internal/archive"
	"github.com/cesargomez89/powerhour/internal/audio"
	"github.com/cesargomez89/powerhour/internal/clips"
	"github.com/cesargomez89/powerhour/internal/config"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/http/dto"
	"github.com/cesargomez89/powerhour/internal/library"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/mixer"
	"github.com/cesargomez89/powerhour/internal/mixes"
	"github.com/cesargomez89/powerhour/internal/playlists"
	"github.com/cesargomez89/powerhour/internal/scanner"
	"github.com/cesargomez89/powerhour/internal/store"
	"github.com/cesargomez89/powerhour/internal/tagging"
)

type Handler struct {
	Config    *config.Config
	DB        *store.DB
	Library   *library.Service
	Scans     *scanner.Manager
	Tags      tagging.Extractor
	FFmpeg    *audio.FFmpegDecoder
	Engine    *clips.Engine
	Clips     *clips.Store
	Renderer  *mixer.Renderer
	Mixes     *mixes.Store
	Playlists *playlists.Store
	Packager  *archive.Packager
	Logger    *logger.Logger
}

func NewHandler(cfg *config.Config, db *store.DB, lib *library.Service, scans *scanner.Manager, tags tagging.Extractor, ffmpeg *audio.FFmpegDecoder, engine *clips.Engine, clipStore *clips.Store, renderer *mixer.Renderer, mixStore *mixes.Store, playlistStore *playlists.Store, packager *archive.Packager, log *logger.Logger) *Handler {
	return &Handler{
		Config:    cfg,
		DB:        db,
		Library:   lib,
		Scans:     scans,
		Tags:      tags,
		FFmpeg:    ffmpeg,
		Engine:    engine,
		Clips:     clipStore,
		Renderer:  renderer,
		Mixes:     mixStore,
		Playlists: playlistStore,
		Packager:  packager,
		Logger:    log.WithComponent("http"),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/scans", h.StartScan)
		r.Get("/scans/{id}", h.ScanStatus)
		r.Post("/scans/{id}/cancel", h.CancelScan)

		r.Get("/libraries", h.ListLibraries)
		r.Get("/libraries/current", h.CurrentLibrary)
		r.Put("/libraries/current", h.SetCurrentLibrary)
		r.Get("/libraries/{id}", h.GetLibrary)
		r.Delete("/libraries/{id}", h.DeleteLibrary)
		r.Post("/libraries/songs", h.AddSong)
		r.Patch("/libraries/songs/metadata", h.UpdateSongMetadata)

		r.Post("/clips", h.ExtractClip)
		r.Post("/clips/wildcard", h.WildCardClips)
		r.Get("/clips", h.ListClips)
		r.Delete("/clips/{id}", h.DeleteClip)
		r.Delete("/clips", h.ClearClips)

		r.Post("/mixes", h.ComposeMix)
		r.Get("/mixes", h.ListMixes)
		r.Get("/mixes/{id}", h.GetMix)
		r.Get("/mixes/{id}/audio", h.MixAudio)
		r.Put("/mixes/{id}", h.RecomposeMix)
		r.Put("/mixes/{id}/name", h.RenameMix)
		r.Patch("/mixes/{id}/metadata", h.UpdateMixMetadata)
		r.Delete("/mixes/{id}", h.DeleteMix)
		r.Post("/mixes/{id}/export", h.ExportProject)
		r.Post("/mixes/{id}/export-mp3", h.ExportMixMP3)
		r.Post("/projects/import", h.ImportProject)

		r.Post("/playlists", h.SavePlaylist)
		r.Get("/playlists", h.ListPlaylists)
		r.Get("/playlists/{id}", h.GetPlaylist)
		r.Delete("/playlists/{id}", h.DeletePlaylist)
		r.Post("/playlists/{id}/export", h.ExportPlaylist)
		r.Post("/playlists/import", h.ImportPlaylist)

		r.Get("/settings/interstitial", h.GetInterstitial)
		r.Put("/settings/interstitial", h.SetInterstitial)
	})
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

// respondError maps the error taxonomy onto status codes. Anything outside
// the known sentinels is a 500 with the detail kept in the log.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrInvalidArchive):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrStorageFull):
		status = http.StatusInsufficientStorage
	case errors.Is(err, domain.ErrScanCancelled):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("Request failed", "error", err)
		h.respondJSON(w, status, dto.ErrorResponse{Error: "internal error"})
		return
	}
	h.respondJSON(w, status, dto.ErrorResponse{Error: err.Error()})
}

func (h *Handler) respondValidation(w http.ResponseWriter, errs []dto.ValidationError) {
	h.respondJSON(w, http.StatusBadRequest, dto.ErrorResponse{
		Error:  dto.ToResponse(errs),
		Fields: dto.ToMap(errs),
	})
}

// decode parses a JSON request body, rejecting unparseable payloads.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
