package archive

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cesargomez89/powerhour/internal/clips"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/mixes"
	"github.com/cesargomez89/powerhour/internal/playlists"
)

type fixture struct {
	packager *Packager
	mixes    *mixes.Store
	clips    *clips.Store
	lists    *playlists.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	log := logger.Default()

	mixStore := mixes.NewStore(filepath.Join(root, "mixes"), filepath.Join(root, "backups"), log)
	clipStore := clips.NewStore(filepath.Join(root, "temp-clips"), filepath.Join(root, "clips"), log)
	listStore := playlists.NewStore(filepath.Join(root, "playlists"), log)

	return &fixture{
		packager: NewPackager(mixStore, clipStore, listStore, log),
		mixes:    mixStore,
		clips:    clipStore,
		lists:    listStore,
	}
}

func storeClip(t *testing.T, f *fixture, id, name string) domain.ClipRef {
	t.Helper()
	clip := &domain.Clip{ID: id, Name: name, SourceSongName: name + " Song", Start: 10, Duration: 60}
	if err := f.clips.SaveTemp(clip, []byte("wav-"+id)); err != nil {
		t.Fatalf("SaveTemp() error = %v", err)
	}
	return clip.Ref()
}

func TestProjectRoundTrip(t *testing.T) {
	src := newFixture(t)

	refA := storeClip(t, src, "clip-a", "Alpha")
	refB := storeClip(t, src, "clip-b", "Beta")
	mix := &domain.Mix{
		ID:        "mix-1",
		Name:      "Friday Mix",
		CreatedAt: time.Now().UTC(),
		Clips:     []domain.ClipRef{refA, refB},
	}
	if err := src.mixes.Save(mix, []byte("mix-audio")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := src.mixes.BackupSource("mix-1", writeTempFile(t, "original.mp3", "source-bytes")); err != nil {
		t.Fatalf("BackupSource() error = %v", err)
	}
	drinking := writeTempFile(t, "drink.wav", "drink-bytes")

	archivePath := filepath.Join(t.TempDir(), "friday.phproject")
	manifest, err := src.packager.ExportProject("mix-1", drinking, archivePath)
	if err != nil {
		t.Fatalf("ExportProject() error = %v", err)
	}
	if manifest.ClipCount != 2 {
		t.Errorf("manifest.ClipCount = %d, want 2", manifest.ClipCount)
	}
	if !manifest.HasOriginalFiles || !manifest.HasDrinkingSound {
		t.Errorf("manifest flags = %+v, want original files and drinking sound", manifest)
	}

	dst := newFixture(t)
	imported, err := dst.packager.ImportProject(archivePath)
	if err != nil {
		t.Fatalf("ImportProject() error = %v", err)
	}
	if imported.ID == "mix-1" {
		t.Error("imported mix kept the archived id, want a fresh one")
	}
	if imported.Name != "Friday Mix" {
		t.Errorf("imported.Name = %q, want %q", imported.Name, "Friday Mix")
	}
	if len(imported.Clips) != 2 || imported.Clips[0].ID != "clip-a" || imported.Clips[1].ID != "clip-b" {
		t.Fatalf("imported.Clips = %+v, want clip-a then clip-b", imported.Clips)
	}

	loaded, err := dst.mixes.Load(imported.ID)
	if err != nil {
		t.Fatalf("Load(imported) error = %v", err)
	}
	if len(loaded.Clips) != 2 {
		t.Errorf("persisted mix has %d clips, want 2", len(loaded.Clips))
	}
	for _, id := range []string{"clip-a", "clip-b"} {
		if _, err := dst.clips.AudioPath(id); err != nil {
			t.Errorf("AudioPath(%q) error = %v, want restored clip audio", id, err)
		}
	}
	if entries, err := os.ReadDir(dst.mixes.BackupDir(imported.ID)); err != nil || len(entries) == 0 {
		t.Errorf("backup dir after import: entries=%d err=%v, want restored originals", len(entries), err)
	}
}

func TestImportProjectRestoresUnreferencedClips(t *testing.T) {
	f := newFixture(t)

	stage := t.TempDir()
	writeFile(t, filepath.Join(stage, "manifest.json"), `{"type":"power-hour-project","version":1}`)
	mixJSON := `{"id":"mix-1","name":"Hand Packed","clips":[{"id":"clip-a","name":"Alpha"}]}`
	writeFile(t, filepath.Join(stage, "mix.json"), mixJSON)
	writeFile(t, filepath.Join(stage, "mix.wav"), "mix-audio")
	writeFile(t, filepath.Join(stage, "clips", "clip-a.wav"), "alpha-audio")
	writeFile(t, filepath.Join(stage, "clips", "extra.wav"), "extra-audio")
	writeFile(t, filepath.Join(stage, "clips", "notes.txt"), "not audio")

	archivePath := filepath.Join(t.TempDir(), "hand.phproject")
	if err := zipDir(stage, archivePath); err != nil {
		t.Fatalf("zipDir() error = %v", err)
	}

	if _, err := f.packager.ImportProject(archivePath); err != nil {
		t.Fatalf("ImportProject() error = %v", err)
	}

	// Every archived wav is restored, referenced by the mix or not.
	for _, id := range []string{"clip-a", "extra"} {
		if _, err := f.clips.AudioPath(id); err != nil {
			t.Errorf("AudioPath(%q) error = %v, want restored clip audio", id, err)
		}
	}
	if _, err := f.clips.AudioPath("notes"); err == nil {
		t.Error("AudioPath(notes) resolved, want non-wav entries skipped")
	}
}

func TestImportProjectRejectsBadArchives(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		build func(t *testing.T, stage string)
	}{
		{
			name:  "missing manifest",
			build: func(t *testing.T, stage string) {},
		},
		{
			name: "wrong manifest type",
			build: func(t *testing.T, stage string) {
				writeFile(t, filepath.Join(stage, "manifest.json"), `{"type":"something-else","version":1}`)
			},
		},
		{
			name: "missing mix metadata",
			build: func(t *testing.T, stage string) {
				writeFile(t, filepath.Join(stage, "manifest.json"), `{"type":"power-hour-project","version":1}`)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage := t.TempDir()
			writeFile(t, filepath.Join(stage, "placeholder.txt"), "x")
			tt.build(t, stage)

			archivePath := filepath.Join(t.TempDir(), "bad.phproject")
			if err := zipDir(stage, archivePath); err != nil {
				t.Fatalf("zipDir() error = %v", err)
			}

			_, err := f.packager.ImportProject(archivePath)
			if !errors.Is(err, domain.ErrInvalidArchive) {
				t.Fatalf("ImportProject() error = %v, want ErrInvalidArchive", err)
			}
			mixList, err := f.mixes.List()
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(mixList) != 0 {
				t.Errorf("mix store has %d records after failed import, want 0", len(mixList))
			}
		})
	}
}

func TestPlaylistRoundTrip(t *testing.T) {
	src := newFixture(t)

	good := storeClip(t, src, "clip-good", "Good")
	missing := domain.ClipRef{ID: "clip-missing", Name: "Gone", Start: 5, Duration: 60, SongName: "Gone Song"}
	pl := &domain.Playlist{
		ID:               "pl-1",
		Name:             "Warmup",
		CreatedAt:        time.Now().UTC(),
		Clips:            []domain.ClipRef{good, missing},
		InterstitialPath: writeTempFile(t, "drink.wav", "drink-bytes"),
	}
	if err := src.lists.Save(pl); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	archivePath := filepath.Join(t.TempDir(), "warmup.phpl")
	exported, err := src.packager.ExportPlaylist("pl-1", archivePath)
	if err != nil {
		t.Fatalf("ExportPlaylist() error = %v", err)
	}
	if exported.ExportInfo == nil || exported.ExportInfo.ValidClips != 1 || exported.ExportInfo.TotalClips != 2 {
		t.Fatalf("ExportInfo = %+v, want 1 valid of 2", exported.ExportInfo)
	}
	if exported.Clips[1].ClipPath != "" {
		t.Errorf("unresolvable clip path = %q, want empty", exported.Clips[1].ClipPath)
	}

	dst := newFixture(t)
	imported, err := dst.packager.ImportPlaylist(archivePath)
	if err != nil {
		t.Fatalf("ImportPlaylist() error = %v", err)
	}
	if imported.ID == "pl-1" {
		t.Error("imported playlist kept the archived id, want a fresh one")
	}
	if len(imported.Clips) != 2 || imported.Clips[0].ID != "clip-good" || imported.Clips[1].ID != "clip-missing" {
		t.Fatalf("imported.Clips = %+v, want original clip ids in order", imported.Clips)
	}
	if imported.Clips[0].ClipPath == "" || !fileExists(imported.Clips[0].ClipPath) {
		t.Errorf("restored clip path %q does not exist", imported.Clips[0].ClipPath)
	}
	if imported.Clips[1].ClipPath != "" {
		t.Errorf("missing clip path = %q, want empty", imported.Clips[1].ClipPath)
	}
	if imported.ImportInfo == nil || imported.ImportInfo.ValidClips != 1 || imported.ImportInfo.TotalClips != 2 {
		t.Fatalf("ImportInfo = %+v, want 1 valid of 2", imported.ImportInfo)
	}
	assets := dst.lists.AssetsDir(imported.ID)
	if imported.InterstitialPath == "" || filepath.Dir(imported.InterstitialPath) != assets {
		t.Errorf("InterstitialPath = %q, want file under %q", imported.InterstitialPath, assets)
	}
	if !fileExists(imported.InterstitialPath) {
		t.Errorf("interstitial %q does not exist", imported.InterstitialPath)
	}

	if _, err := dst.lists.Load(imported.ID); err != nil {
		t.Errorf("Load(imported) error = %v", err)
	}

	meta, err := dst.clips.LoadMeta("clip-good")
	if err != nil {
		t.Fatalf("LoadMeta() error = %v", err)
	}
	if meta.SourceSongName != "Good Song" || meta.Start != 10 {
		t.Errorf("restored sidecar = %+v, want archived metadata", meta)
	}
}

func TestImportPlaylistRejectsNonZip(t *testing.T) {
	f := newFixture(t)
	notZip := writeTempFile(t, "fake.phpl", "this is not an archive")

	_, err := f.packager.ImportPlaylist(notZip)
	if !errors.Is(err, domain.ErrInvalidArchive) {
		t.Fatalf("ImportPlaylist() error = %v, want ErrInvalidArchive", err)
	}
}

func TestImportPlaylistRequiresPlaylistJSON(t *testing.T) {
	f := newFixture(t)

	stage := t.TempDir()
	writeFile(t, filepath.Join(stage, "readme.txt"), "nothing here")
	archivePath := filepath.Join(t.TempDir(), "empty.phpl")
	if err := zipDir(stage, archivePath); err != nil {
		t.Fatalf("zipDir() error = %v", err)
	}

	_, err := f.packager.ImportPlaylist(archivePath)
	if !errors.Is(err, domain.ErrInvalidArchive) {
		t.Fatalf("ImportPlaylist() error = %v, want ErrInvalidArchive", err)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	writeFile(t, path, content)
	return path
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", path, err)
	}
}

func TestResolveOutPath(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		outPath string
		record  string
		want    string
	}{
		{"directory target gets derived name", dir, "Friday: Mix?", filepath.Join(dir, "Friday Mix.phproject")},
		{"bare path gets extension", filepath.Join(dir, "custom"), "ignored", filepath.Join(dir, "custom.phproject")},
		{"explicit file path kept", filepath.Join(dir, "my.phproject"), "ignored", filepath.Join(dir, "my.phproject")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveOutPath(tt.outPath, tt.record, ".phproject")
			if got != tt.want {
				t.Errorf("resolveOutPath(%q) = %q, want %q", tt.outPath, got, tt.want)
			}
		})
	}
}
