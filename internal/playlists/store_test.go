package playlists

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), logger.Default())
}

func TestStore_SaveLoadDelete(t *testing.T) {
	s := newTestStore(t)

	pl := &domain.Playlist{
		ID:   "p1",
		Name: "Warmup",
		Clips: []domain.ClipRef{
			{ID: "c1", Name: "One", Duration: 60},
		},
		InterstitialPath: "/sounds/drink.wav",
	}
	if err := s.Save(pl); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load("p1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "Warmup" || len(loaded.Clips) != 1 || loaded.InterstitialPath != "/sounds/drink.wav" {
		t.Errorf("Loaded playlist mismatch: %+v", loaded)
	}

	// Delete removes the json plus assets folder.
	if err := os.MkdirAll(s.AssetsDir("p1"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("p1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load("p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if _, err := os.Stat(s.AssetsDir("p1")); !os.IsNotExist(err) {
		t.Error("Expected assets folder removed")
	}

	if err := s.Delete("p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for double delete, got %v", err)
	}
}

func TestStore_ClipCap(t *testing.T) {
	s := newTestStore(t)

	pl := &domain.Playlist{ID: "p1", Name: "Big"}
	for i := 0; i < constants.MaxMixClips; i++ {
		if ok := pl.AddClip(domain.ClipRef{ID: fmt.Sprintf("c%d", i)}, constants.MaxMixClips); !ok {
			t.Fatalf("Add %d rejected below the cap", i)
		}
	}

	// The 61st add is ignored.
	if ok := pl.AddClip(domain.ClipRef{ID: "c-extra"}, constants.MaxMixClips); ok {
		t.Error("Expected 61st add to be rejected")
	}
	if len(pl.Clips) != constants.MaxMixClips {
		t.Fatalf("Expected %d clips, got %d", constants.MaxMixClips, len(pl.Clips))
	}

	// A list forced past the cap is truncated on save.
	pl.Clips = append(pl.Clips, domain.ClipRef{ID: "c-forced"})
	if err := s.Save(pl); err != nil {
		t.Fatal(err)
	}
	loaded, err := s.Load("p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Clips) != constants.MaxMixClips {
		t.Errorf("Expected stored count capped at %d, got %d", constants.MaxMixClips, len(loaded.Clips))
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"Zeta", "Alpha"} {
		if err := s.Save(&domain.Playlist{ID: name, Name: name}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 playlists, got %d", len(list))
	}
	if list[0].Name != "Alpha" || list[1].Name != "Zeta" {
		t.Errorf("Expected name ordering, got %s, %s", list[0].Name, list[1].Name)
	}
}
