package clips

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	return NewStore(filepath.Join(root, "temp-clips"), filepath.Join(root, "clips"), logger.Default())
}

func sampleClip(id, name string) *domain.Clip {
	return &domain.Clip{
		ID:             id,
		Name:           name,
		SourceSongName: "Song",
		Start:          10,
		Duration:       60,
	}
}

func TestStore_TempRoundTrip(t *testing.T) {
	s := newTestStore(t)

	clip := sampleClip("c1", "Song [00:10 - 01:10]")
	if err := s.SaveTemp(clip, []byte("RIFF-fake")); err != nil {
		t.Fatalf("SaveTemp failed: %v", err)
	}

	loaded, err := s.LoadMeta("c1")
	if err != nil {
		t.Fatalf("LoadMeta failed: %v", err)
	}
	if loaded.Name != clip.Name || loaded.Start != 10 || loaded.Duration != 60 {
		t.Errorf("Loaded clip mismatch: %+v", loaded)
	}

	path, err := s.AudioPath("c1")
	if err != nil {
		t.Fatalf("AudioPath failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "RIFF-fake" {
		t.Errorf("Audio content mismatch: %q, %v", data, err)
	}
}

func TestStore_PermanentPreferredOverTemp(t *testing.T) {
	s := newTestStore(t)

	clip := sampleClip("c1", "Clip")
	if err := s.SaveTemp(clip, []byte("temp-bytes")); err != nil {
		t.Fatal(err)
	}
	if err := s.SavePermanent(clip, []byte("perm-bytes")); err != nil {
		t.Fatal(err)
	}

	path, err := s.AudioPath("c1")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "perm-bytes" {
		t.Errorf("Expected permanent copy to win, got %q", data)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	s := newTestStore(t)

	if err := s.SaveTemp(sampleClip("c2", "B clip"), []byte("b")); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTemp(sampleClip("c1", "A clip"), []byte("a")); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 clips, got %d", len(list))
	}
	if list[0].Name != "A clip" || list[1].Name != "B clip" {
		t.Errorf("Expected name ordering, got %s, %s", list[0].Name, list[1].Name)
	}

	if err := s.Delete("c1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.AudioPath("c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	list, _ = s.List()
	if len(list) != 1 {
		t.Errorf("Expected 1 clip after delete, got %d", len(list))
	}
}

func TestStore_ListEmptyWhenMissingDir(t *testing.T) {
	s := newTestStore(t)
	list, err := s.List()
	if err != nil {
		t.Fatalf("List on missing dir errored: %v", err)
	}
	if list != nil {
		t.Errorf("Expected nil list, got %v", list)
	}
}

func TestStore_ImportAudio(t *testing.T) {
	s := newTestStore(t)

	src := filepath.Join(t.TempDir(), "incoming.wav")
	if err := os.WriteFile(src, []byte("imported"), 0644); err != nil {
		t.Fatal(err)
	}

	clip := sampleClip("c9", "Imported clip")
	dst, err := s.ImportAudio(clip, src)
	if err != nil {
		t.Fatalf("ImportAudio failed: %v", err)
	}

	resolved, err := s.AudioPath("c9")
	if err != nil {
		t.Fatalf("AudioPath after import failed: %v", err)
	}
	if resolved != dst {
		t.Errorf("Expected canonical path %s, got %s", dst, resolved)
	}

	// The sidecar was written alongside.
	meta, err := s.LoadMeta("c9")
	if err != nil {
		t.Fatalf("LoadMeta after import failed: %v", err)
	}
	if meta.Name != "Imported clip" {
		t.Errorf("Sidecar mismatch: %+v", meta)
	}
}

func TestStore_Promote(t *testing.T) {
	s := newTestStore(t)

	clip := sampleClip("c5", "Keeper")
	if err := s.SaveTemp(clip, []byte("RIFF-fake")); err != nil {
		t.Fatalf("SaveTemp failed: %v", err)
	}

	permPath, err := s.Promote("c5")
	if err != nil {
		t.Fatalf("Promote failed: %v", err)
	}
	if filepath.Dir(permPath) != filepath.Join(s.permDir, "c5") {
		t.Errorf("Promoted path %s is not in the permanent folder", permPath)
	}
	if _, err := os.Stat(filepath.Join(s.tempDir, "c5.wav")); !os.IsNotExist(err) {
		t.Error("Temp audio still present after promotion")
	}

	// Sidecar moved with the audio.
	meta, err := s.LoadMeta("c5")
	if err != nil {
		t.Fatalf("LoadMeta after promote failed: %v", err)
	}
	if meta.Name != "Keeper" {
		t.Errorf("Sidecar mismatch: %+v", meta)
	}

	// Promoting again is a no-op.
	again, err := s.Promote("c5")
	if err != nil || again != permPath {
		t.Errorf("Second Promote = (%s, %v), want (%s, nil)", again, err, permPath)
	}

	if _, err := s.Promote("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Promote(missing) error = %v, want ErrNotFound", err)
	}
}
