package mixer

import (
	"fmt"
	"os"

	"github.com/cesargomez89/powerhour/internal/audio"
	"github.com/cesargomez89/powerhour/internal/clips"
	"github.com/cesargomez89/powerhour/internal/codec"
	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
)

// Renderer resolves clip references to audio, reconciles sample rates and
// produces the final encoded mix.
type Renderer struct {
	store      *clips.Store
	decoder    audio.Decoder
	compositor *Compositor
	renderRate int
	log        *logger.Logger
}

func NewRenderer(store *clips.Store, decoder audio.Decoder, renderRate int, log *logger.Logger) *Renderer {
	return &Renderer{
		store:      store,
		decoder:    decoder,
		compositor: NewCompositor(renderRate),
		renderRate: renderRate,
		log:        log.WithComponent("mixer"),
	}
}

// RenderResult reports what went into a rendered mix. InterstitialUsed is
// true only when the interstitial sound actually made it into the
// composite, not merely when one was requested.
type RenderResult struct {
	Audio            []byte
	ValidClips       []domain.ClipRef
	Skipped          int
	InterstitialUsed bool
}

// Render builds the composite for an ordered clip list. A reference that
// does not resolve to an existing clip file is skipped, never fatal; only a
// render with zero resolvable clips fails. The interstitial path may be
// empty. Lists beyond the clip cap are truncated.
func (r *Renderer) Render(refs []domain.ClipRef, interstitialPath string) (*RenderResult, error) {
	if len(refs) > constants.MaxMixClips {
		refs = refs[:constants.MaxMixClips]
	}

	result := &RenderResult{}
	var buffers []*codec.Buffer
	for _, ref := range refs {
		buf, err := r.loadClip(ref)
		if err != nil {
			r.log.Warn("Skipping unresolvable clip", "clip_id", ref.ID, "error", err)
			result.Skipped++
			continue
		}
		buffers = append(buffers, buf)
		result.ValidClips = append(result.ValidClips, ref)
	}

	if len(buffers) == 0 {
		return nil, fmt.Errorf("%w: no valid clips to render", domain.ErrNotFound)
	}

	var interstitial *codec.Buffer
	if interstitialPath != "" {
		var err error
		interstitial, err = r.decoder.Decode(interstitialPath, r.renderRate)
		if err != nil {
			// A missing interstitial degrades the mix, it does not abort it.
			r.log.Warn("Interstitial sound unavailable", "path", interstitialPath, "error", err)
			interstitial = nil
		}
		// A single-clip mix has no gap for the interstitial to fill.
		result.InterstitialUsed = interstitial != nil && len(buffers) > 1
	}

	composite := r.compositor.Compose(buffers, interstitial)
	result.Audio = codec.Encode(composite)
	return result, nil
}

// loadClip resolves a reference to a sample buffer at the render rate.
// The declared clip path is tried first, then the canonical store location.
// Clips stored at another rate are resampled on ingest through the decoder.
func (r *Renderer) loadClip(ref domain.ClipRef) (*codec.Buffer, error) {
	path := ref.ClipPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if path == "" {
		var err error
		path, err = r.store.AudioPath(ref.ID)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	buf, err := codec.Decode(data)
	if err == nil && buf.SampleRate == r.renderRate {
		return buf, nil
	}
	// Non-canonical WAV or mismatched rate: let the decoder resample.
	return r.decoder.Decode(path, r.renderRate)
}
