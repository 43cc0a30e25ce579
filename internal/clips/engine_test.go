package clips

import (
	"errors"
	"math"
	"testing"

	"github.com/cesargomez89/powerhour/internal/audio"
	"github.com/cesargomez89/powerhour/internal/codec"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
)

// rampDecoder simulates sources whose sample value equals its index scaled
// into [0, 1), which makes slice boundaries checkable.
type rampDecoder struct {
	durations map[string]float64
	probes    int
	decodes   int
}

func (d *rampDecoder) Probe(path string) (audio.Info, error) {
	d.probes++
	dur, ok := d.durations[path]
	if !ok {
		return audio.Info{}, errors.New("probe failed")
	}
	return audio.Info{Duration: dur, SampleRate: 100, Channels: 1}, nil
}

func (d *rampDecoder) Decode(path string, sampleRate int) (*codec.Buffer, error) {
	d.decodes++
	dur, ok := d.durations[path]
	if !ok {
		return nil, errors.New("decode failed")
	}
	length := int(dur * float64(sampleRate))
	buf := codec.NewBuffer(1, length, sampleRate)
	for i := 0; i < length; i++ {
		buf.Channels[0][i] = float64(i) / float64(length)
	}
	return buf, nil
}

func newTestEngine(dec audio.Decoder) *Engine {
	return NewEngine(dec, 100, logger.Default())
}

func TestExtract_ClampsDuration(t *testing.T) {
	dec := &rampDecoder{durations: map[string]float64{"/music/a.mp3": 180}}
	e := newTestEngine(dec)

	clip, wav, err := e.Extract("/music/a.mp3", "a", 170, 60)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if math.Abs(clip.Duration-10) > 0.02 {
		t.Errorf("Expected clamped duration 10, got %g", clip.Duration)
	}
	if clip.Start != 170 {
		t.Errorf("Expected start 170, got %g", clip.Start)
	}
	if clip.ID == "" {
		t.Error("Expected minted clip id")
	}

	decoded, err := codec.Decode(wav)
	if err != nil {
		t.Fatalf("Encoded clip is not valid WAV: %v", err)
	}
	if decoded.Length() != 1000 {
		t.Errorf("Expected 1000 samples (10s at 100Hz), got %d", decoded.Length())
	}
}

func TestExtract_InvalidRange(t *testing.T) {
	dec := &rampDecoder{durations: map[string]float64{"/music/b.wav": 90}}
	e := newTestEngine(dec)

	tests := []struct {
		start, duration float64
	}{
		{100, 60}, // past the end
		{90, 10},  // exactly at the end
		{-1, 10},  // negative start
		{10, 0},   // zero duration
	}

	for _, tt := range tests {
		_, _, err := e.Extract("/music/b.wav", "b", tt.start, tt.duration)
		if !errors.Is(err, domain.ErrInvalidRange) {
			t.Errorf("Extract(start=%g, dur=%g): expected ErrInvalidRange, got %v", tt.start, tt.duration, err)
		}
	}
}

func TestExtract_UnsupportedFormatBeforeDecode(t *testing.T) {
	dec := &rampDecoder{durations: map[string]float64{"/music/locked.wma": 200}}
	e := newTestEngine(dec)

	_, _, err := e.Extract("/music/locked.wma", "locked", 0, 60)
	if !errors.Is(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("Expected ErrUnsupportedFormat, got %v", err)
	}
	if dec.probes != 0 || dec.decodes != 0 {
		t.Error("Expected rejection before any probe/decode call")
	}
}

func TestExtract_SliceRange(t *testing.T) {
	dec := &rampDecoder{durations: map[string]float64{"/music/a.mp3": 10}}
	e := newTestEngine(dec)

	_, wav, err := e.Extract("/music/a.mp3", "a", 2, 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	decoded, err := codec.Decode(wav)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Length() != 300 {
		t.Fatalf("Expected 300 samples, got %d", decoded.Length())
	}

	// Source sample at index 200 has value 200/1000; the slice starts there.
	if math.Abs(decoded.Channels[0][0]-0.2) > 0.001 {
		t.Errorf("Expected slice to start at source index 200 (value 0.2), got %g", decoded.Channels[0][0])
	}
	last := decoded.Channels[0][299]
	if math.Abs(last-0.499) > 0.002 {
		t.Errorf("Expected slice to end before source index 500, got %g", last)
	}
}

func TestClipName(t *testing.T) {
	tests := []struct {
		path       string
		start, end float64
		expected   string
	}{
		{"/music/Song One.mp3", 170, 180, "Song One [02:50 - 03:00]"},
		{"/music/b.wav", 0, 60, "b [00:00 - 01:00]"},
		{"/x/Track.flac", 65.7, 90.2, "Track [01:05 - 01:30]"},
	}

	for _, tt := range tests {
		got := clipName(tt.path, tt.start, tt.end)
		if got != tt.expected {
			t.Errorf("clipName(%q, %g, %g) = %q, want %q", tt.path, tt.start, tt.end, got, tt.expected)
		}
	}
}

func TestWildCard_SkipsFailures(t *testing.T) {
	dec := &rampDecoder{durations: map[string]float64{
		"/music/long.mp3":  200,
		"/music/short.mp3": 30,
	}}
	e := newTestEngine(dec)
	e.randFloat = func() float64 { return 0.5 }

	songs := []domain.Song{
		{Path: "/music/long.mp3", DisplayName: "long"},
		{Path: "/music/broken.mp3", DisplayName: "broken"},
		{Path: "/music/short.mp3", DisplayName: "short"},
	}

	results := e.WildCard(songs)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results (broken skipped), got %d", len(results))
	}

	// long.mp3: window 140, start 70, full 60s clip.
	if math.Abs(results[0].Clip.Start-70) > 0.001 {
		t.Errorf("Expected start 70, got %g", results[0].Clip.Start)
	}
	if math.Abs(results[0].Clip.Duration-60) > 0.02 {
		t.Errorf("Expected 60s clip, got %g", results[0].Clip.Duration)
	}

	// short.mp3: shorter than 60s, so the clip covers the remainder.
	if results[1].Clip.Start != 0 {
		t.Errorf("Expected start 0 for short song, got %g", results[1].Clip.Start)
	}
	if math.Abs(results[1].Clip.Duration-30) > 0.02 {
		t.Errorf("Expected 30s clip, got %g", results[1].Clip.Duration)
	}
}
