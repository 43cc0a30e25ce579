package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cesargomez89/powerhour/internal/archive"
	"github.com/cesargomez89/powerhour/internal/audio"
	"github.com/cesargomez89/powerhour/internal/clips"
	"github.com/cesargomez89/powerhour/internal/config"
	httpapp "github.com/cesargomez89/powerhour/internal/http"
	"github.com/cesargomez89/powerhour/internal/library"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/metacache"
	"github.com/cesargomez89/powerhour/internal/mixer"
	"github.com/cesargomez89/powerhour/internal/mixes"
	"github.com/cesargomez89/powerhour/internal/playlists"
	"github.com/cesargomez89/powerhour/internal/scanner"
	"github.com/cesargomez89/powerhour/internal/storage"
	"github.com/cesargomez89/powerhour/internal/store"
	"github.com/cesargomez89/powerhour/internal/tagging"
)

func main() {
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Initialize Logger
	appLogger := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	// Initialize DB
	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to init DB", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Prepare the data directory layout
	for _, dir := range []string{
		cfg.MixesPath(), cfg.BackupsPath(), cfg.ClipsPath(),
		cfg.TempClipsPath(), cfg.PlaylistsPath(),
	} {
		if err := storage.EnsureDir(dir); err != nil {
			appLogger.Error("Failed to create data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// Initialize Services
	decoder := audio.NewFFmpegDecoder(cfg.FFmpegPath, appLogger)
	tags := tagging.NewTagReader()
	sc := scanner.New(metacache.New(), tags, appLogger)
	scans := scanner.NewManager(sc, appLogger)
	defer scans.Shutdown()

	libraryService := library.NewService(db, cfg.LibraryExpiryDays, appLogger)
	clipStore := clips.NewStore(cfg.TempClipsPath(), cfg.ClipsPath(), appLogger)
	engine := clips.NewEngine(decoder, cfg.RenderSampleRate, appLogger)
	renderer := mixer.NewRenderer(clipStore, decoder, cfg.RenderSampleRate, appLogger)
	mixStore := mixes.NewStore(cfg.MixesPath(), cfg.BackupsPath(), appLogger)
	playlistStore := playlists.NewStore(cfg.PlaylistsPath(), appLogger)
	packager := archive.NewPackager(mixStore, clipStore, playlistStore, appLogger)

	// Initialize Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Routes
	h := httpapp.NewHandler(cfg, db, libraryService, scans, tags, decoder, engine, clipStore, renderer, mixStore, playlistStore, packager, appLogger)
	h.RegisterRoutes(r)

	// Start Server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
