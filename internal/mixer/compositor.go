// Package mixer composes rendered clips into one continuous mix buffer,
// with an interstitial sound between consecutive clips.
package mixer

import (
	"github.com/cesargomez89/powerhour/internal/codec"
)

// Compositor concatenates sample buffers at a fixed render sample rate.
type Compositor struct {
	renderRate int
}

func NewCompositor(renderRate int) *Compositor {
	return &Compositor{renderRate: renderRate}
}

// Compose concatenates the clips in order, inserting the interstitial sound
// between (never after) consecutive clips. The output channel count is the
// maximum across all inputs; inputs with fewer channels contribute their
// channel 0 to the missing channels. Inputs are assumed to already be at
// the render rate; callers resample on ingest.
func (c *Compositor) Compose(clips []*codec.Buffer, interstitial *codec.Buffer) *codec.Buffer {
	if len(clips) == 0 {
		return codec.NewBuffer(1, 0, c.renderRate)
	}

	channels := 0
	total := 0
	for _, clip := range clips {
		if n := len(clip.Channels); n > channels {
			channels = n
		}
		total += clip.Length()
	}
	if interstitial != nil {
		if n := len(interstitial.Channels); n > channels {
			channels = n
		}
		total += (len(clips) - 1) * interstitial.Length()
	}

	out := codec.NewBuffer(channels, total, c.renderRate)

	offset := 0
	for i, clip := range clips {
		offset = copyInto(out, clip, offset)
		if interstitial != nil && i < len(clips)-1 {
			offset = copyInto(out, interstitial, offset)
		}
	}
	return out
}

// copyInto writes src at the given sample offset of dst and returns the new
// offset. Destination channels beyond src's own duplicate src channel 0.
func copyInto(dst, src *codec.Buffer, offset int) int {
	length := src.Length()
	for ch := range dst.Channels {
		from := src.Channels[0]
		if ch < len(src.Channels) {
			from = src.Channels[ch]
		}
		copy(dst.Channels[ch][offset:offset+length], from)
	}
	return offset + length
}
