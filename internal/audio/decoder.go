// Package audio wraps the external decode/render capability. Arbitrary
// source containers are decoded through ffmpeg into raw float samples; FLAC
// stream info is probed natively to skip an ffprobe round trip.
package audio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mewkiz/flac"

	"github.com/cesargomez89/powerhour/internal/codec"
	"github.com/cesargomez89/powerhour/internal/domain"
	"github.com/cesargomez89/powerhour/internal/logger"
)

// Info describes a source file as reported by the prober.
type Info struct {
	Duration   float64
	SampleRate int
	Channels   int
}

// Decoder is the decode/render capability consumed by the clip engine and
// the compositor. Decode renders the whole file at the requested sample
// rate (resampling is the decoder's job, not the caller's).
type Decoder interface {
	Probe(path string) (Info, error)
	Decode(path string, sampleRate int) (*codec.Buffer, error)
}

// undecodable lists container extensions the decoder is known to choke on;
// they are rejected up front with a clear error instead of a confusing
// ffmpeg failure.
var undecodable = map[string]bool{
	".wma": true,
}

// IsDecodable reports whether the file's container can be decoded at all.
func IsDecodable(path string) bool {
	return !undecodable[strings.ToLower(filepath.Ext(path))]
}

// FFmpegDecoder shells out to ffmpeg/ffprobe.
type FFmpegDecoder struct {
	ffmpegPath string
	log        *logger.Logger
}

func NewFFmpegDecoder(ffmpegPath string, log *logger.Logger) *FFmpegDecoder {
	return &FFmpegDecoder{
		ffmpegPath: ffmpegPath,
		log:        log.WithComponent("decoder"),
	}
}

func (d *FFmpegDecoder) ffprobePath() string {
	return strings.Replace(d.ffmpegPath, "ffmpeg", "ffprobe", 1)
}

// Probe returns duration, sample rate and channel count for a source file.
func (d *FFmpegDecoder) Probe(path string) (Info, error) {
	if !IsDecodable(path) {
		return Info{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	if strings.EqualFold(filepath.Ext(path), ".flac") {
		if info, err := probeFLAC(path); err == nil {
			return info, nil
		}
		// Corrupt metadata blocks fall through to ffprobe.
	}

	args := []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=sample_rate,channels:format=duration",
		"-of", "json",
		path,
	}

	cmd := exec.Command(d.ffprobePath(), args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Info{}, fmt.Errorf("ffprobe failed for %s: %w: %s", path, err, stderr.String())
	}

	var probeData struct {
		Streams []struct {
			SampleRate string `json:"sample_rate"`
			Channels   int    `json:"channels"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out.Bytes(), &probeData); err != nil {
		return Info{}, fmt.Errorf("failed to unmarshal ffprobe output for %s: %w", path, err)
	}
	if len(probeData.Streams) == 0 {
		return Info{}, fmt.Errorf("%w: no audio streams in %s", domain.ErrUnsupportedFormat, path)
	}

	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return Info{}, fmt.Errorf("failed to parse duration %q for %s: %w", probeData.Format.Duration, path, err)
	}
	rate, _ := strconv.Atoi(probeData.Streams[0].SampleRate)

	return Info{
		Duration:   duration,
		SampleRate: rate,
		Channels:   probeData.Streams[0].Channels,
	}, nil
}

// probeFLAC reads StreamInfo straight from the container.
func probeFLAC(path string) (Info, error) {
	stream, err := flac.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer stream.Close()

	si := stream.Info
	if si.SampleRate == 0 {
		return Info{}, fmt.Errorf("flac stream info missing sample rate in %s", path)
	}
	return Info{
		Duration:   float64(si.NSamples) / float64(si.SampleRate),
		SampleRate: int(si.SampleRate),
		Channels:   int(si.NChannels),
	}, nil
}

// Decode renders the whole source file to raw float samples at the given
// sample rate, preserving the source channel layout.
func (d *FFmpegDecoder) Decode(path string, sampleRate int) (*codec.Buffer, error) {
	if !IsDecodable(path) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	info, err := d.Probe(path)
	if err != nil {
		return nil, err
	}
	channels := info.Channels
	if channels < 1 {
		channels = 1
	}

	args := []string{
		"-v", "error",
		"-i", path,
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channels),
		"-",
	}

	cmd := exec.Command(d.ffmpegPath, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	d.log.Debug("Decoding source", "path", path, "sample_rate", sampleRate, "channels", channels)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed for %s: %w: %s", path, err, stderr.String())
	}

	return deinterleave(out.Bytes(), channels, sampleRate), nil
}

// deinterleave splits an interleaved f32le stream into per-channel floats.
func deinterleave(raw []byte, channels, sampleRate int) *codec.Buffer {
	frames := len(raw) / (4 * channels)
	buf := codec.NewBuffer(channels, frames, sampleRate)

	pos := 0
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			bits := binary.LittleEndian.Uint32(raw[pos : pos+4])
			buf.Channels[ch][i] = float64(math.Float32frombits(bits))
			pos += 4
		}
	}
	return buf
}
