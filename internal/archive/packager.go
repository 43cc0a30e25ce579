// Package archive packs mixes and playlists into portable zip archives and
// restores them, minting fresh record ids on import so restored work never
// collides with local state.
package archive

import (
	"time"

	"github.com/cesargomez89/powerhour/internal/clips"
	"github.com/cesargomez89/powerhour/internal/logger"
	"github.com/cesargomez89/powerhour/internal/mixes"
	"github.com/cesargomez89/powerhour/internal/playlists"
)

// Manifest describes a project archive. Type identifies the format and is
// validated on import before anything else is read.
type Manifest struct {
	Type             string    `json:"type"`
	Version          int       `json:"version"`
	Created          time.Time `json:"created"`
	MixID            string    `json:"mixId"`
	MixName          string    `json:"mixName"`
	HasOriginalFiles bool      `json:"hasOriginalFiles"`
	ClipCount        int       `json:"clipCount"`
	HasDrinkingSound bool      `json:"hasDrinkingSound"`
}

type Packager struct {
	mixes     *mixes.Store
	clips     *clips.Store
	playlists *playlists.Store
	log       *logger.Logger
	now       func() time.Time
}

func NewPackager(mixStore *mixes.Store, clipStore *clips.Store, playlistStore *playlists.Store, log *logger.Logger) *Packager {
	return &Packager{
		mixes:     mixStore,
		clips:     clipStore,
		playlists: playlistStore,
		log:       log.WithComponent("archive"),
		now:       time.Now,
	}
}
