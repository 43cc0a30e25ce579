package audio

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

// Fixed intermediate format for the compressed concatenation path. Every
// input is normalized to this layout before the concat demuxer sees it, so
// mismatched sources cannot corrupt the joint.
const (
	concatSampleRate = 44100
	concatChannels   = 2
)

// ConcatToMP3 concatenates the inputs (in order) into one MP3 file. Unlike
// the in-memory WAV composition this path is wholly delegated to ffmpeg:
// each input is first normalized to 44.1kHz stereo s16 WAV, then joined via
// the concat demuxer and encoded at the given bitrate (e.g. "192k").
func (d *FFmpegDecoder) ConcatToMP3(inputs []string, output, bitrate string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("nothing to concatenate")
	}

	workDir, err := os.MkdirTemp("", "powerhour-concat-")
	if err != nil {
		return fmt.Errorf("failed to create concat staging dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	listPath := filepath.Join(workDir, "inputs.txt")
	var list bytes.Buffer
	for i, input := range inputs {
		normalized := filepath.Join(workDir, "part"+strconv.Itoa(i)+".wav")
		if err := d.normalize(input, normalized); err != nil {
			return fmt.Errorf("failed to normalize %s: %w", input, err)
		}
		fmt.Fprintf(&list, "file '%s'\n", normalized)
	}
	if err := os.WriteFile(listPath, list.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}

	args := []string{
		"-v", "error",
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c:a", "libmp3lame",
		"-b:a", bitrate,
		output,
	}

	cmd := exec.Command(d.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w: %s", err, stderr.String())
	}

	d.log.Info("Compressed export written", "output", output, "inputs", len(inputs))
	return nil
}

// normalize transcodes one input to the fixed intermediate layout.
func (d *FFmpegDecoder) normalize(input, output string) error {
	args := []string{
		"-v", "error",
		"-y",
		"-i", input,
		"-ar", strconv.Itoa(concatSampleRate),
		"-ac", strconv.Itoa(concatChannels),
		"-acodec", "pcm_s16le",
		output,
	}

	cmd := exec.Command(d.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg normalize failed: %w: %s", err, stderr.String())
	}
	return nil
}

// TagMP3 writes ID3v2 title/artist frames onto an exported MP3.
func TagMP3(path, title, artist string) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if title != "" {
		tag.SetTitle(title)
	}
	if artist != "" {
		tag.SetArtist(artist)
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags to %s: %w", path, err)
	}
	return nil
}
