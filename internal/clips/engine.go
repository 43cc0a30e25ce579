// Package clips implements clip extraction (cutting a window out of a song
// and rendering it to WAV) and the on-disk clip stores.
package clips

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/cesargomez89/powerhour/internal/audio"
	"github.com/cesargomez89/powerhour/internal/codec"
	"github.com/cesargomez89/powerhour/internal/constants"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
)

// Engine cuts clips out of source songs through the offline decoder.
type Engine struct {
	decoder    audio.Decoder
	renderRate int
	log        *logger.Logger
	// randFloat is swapped in tests to pin wild-card windows.
	randFloat func() float64
}

func NewEngine(decoder audio.Decoder, renderRate int, log *logger.Logger) *Engine {
	return &Engine{
		decoder:    decoder,
		renderRate: renderRate,
		log:        log.WithComponent("clips"),
		randFloat:  rand.Float64,
	}
}

// Extract cuts [start, start+requested) out of the source file and renders
// it to WAV at the engine's render rate. The duration is clamped to the
// source length; a window starting at or past the end is ErrInvalidRange,
// and a container the decoder cannot handle is ErrUnsupportedFormat before
// any decode is attempted.
func (e *Engine) Extract(sourcePath, sourceName string, start, requested float64) (*domain.Clip, []byte, error) {
	if !audio.IsDecodable(sourcePath) {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(sourcePath))
	}
	if start < 0 || requested <= 0 {
		return nil, nil, fmt.Errorf("%w: start=%g duration=%g", domain.ErrInvalidRange, start, requested)
	}

	info, err := e.decoder.Probe(sourcePath)
	if err != nil {
		return nil, nil, err
	}
	if start >= info.Duration {
		return nil, nil, fmt.Errorf("%w: start %.2fs beyond source length %.2fs",
			domain.ErrInvalidRange, start, info.Duration)
	}

	duration := requested
	if remaining := info.Duration - start; duration > remaining {
		duration = remaining
	}

	decoded, err := e.decoder.Decode(sourcePath, e.renderRate)
	if err != nil {
		return nil, nil, err
	}

	sliced := slice(decoded, start, duration)

	if sourceName == "" {
		sourceName = baseName(sourcePath)
	}
	clip := &domain.Clip{
		ID:             uuid.NewString(),
		Name:           clipName(sourcePath, start, start+duration),
		SourceSongName: sourceName,
		Start:          start,
		Duration:       sliced.Duration(),
	}

	e.log.WithClip(clip.ID).Debug("Clip extracted", "source", sourcePath, "start", start, "duration", clip.Duration)
	return clip, codec.Encode(sliced), nil
}

// WildCardResult pairs a source song with its extraction outcome.
type WildCardResult struct {
	Clip  *domain.Clip
	Audio []byte
}

// WildCard extracts one randomly placed clip (up to 60s) from each song.
// A failure on one song is logged and that song skipped; the batch never
// fails as a whole.
func (e *Engine) WildCard(songs []domain.Song) []WildCardResult {
	results := make([]WildCardResult, 0, len(songs))
	for i := range songs {
		song := &songs[i]

		info, err := e.decoder.Probe(song.Path)
		if err != nil {
			e.log.Warn("Wild card probe failed, skipping song", "path", song.Path, "error", err)
			continue
		}

		window := info.Duration - constants.WildCardClipSeconds
		if window < 0 {
			window = 0
		}
		start := e.randFloat() * window

		duration := constants.WildCardClipSeconds
		if remaining := info.Duration - start; duration > remaining {
			duration = remaining
		}

		clip, wav, err := e.Extract(song.Path, song.DisplayName, start, duration)
		if err != nil {
			e.log.Warn("Wild card extraction failed, skipping song", "path", song.Path, "error", err)
			continue
		}
		results = append(results, WildCardResult{Clip: clip, Audio: wav})
	}
	return results
}

// slice copies the exact sample range [start*rate, (start+duration)*rate)
// from each channel into a new buffer.
func slice(buf *codec.Buffer, start, duration float64) *codec.Buffer {
	rate := buf.SampleRate
	from := int(start * float64(rate))
	to := from + int(duration*float64(rate))
	if to > buf.Length() {
		to = buf.Length()
	}
	if from > to {
		from = to
	}

	out := codec.NewBuffer(len(buf.Channels), to-from, rate)
	for ch := range buf.Channels {
		copy(out.Channels[ch], buf.Channels[ch][from:to])
	}
	return out
}

// clipName renders the derived display name: "{base} [{mm:ss} - {mm:ss}]".
func clipName(sourcePath string, start, end float64) string {
	return fmt.Sprintf("%s [%s - %s]", baseName(sourcePath), formatTime(start), formatTime(end))
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func formatTime(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
