// Package codec implements the PCM/WAV byte format used for rendered clips
// and mixes: a canonical 44-byte header followed by interleaved 16-bit
// signed samples. Encoding and decoding are pure; container parsing for
// other formats is the decoder's job, not this package's.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Buffer is a multi-channel float sample buffer. Samples are in [-1, 1];
// all channels have equal length.
type Buffer struct {
	Channels   [][]float64
	SampleRate int
}

// NewBuffer allocates a silent buffer of the given shape.
func NewBuffer(channels, length, sampleRate int) *Buffer {
	chs := make([][]float64, channels)
	for i := range chs {
		chs[i] = make([]float64, length)
	}
	return &Buffer{Channels: chs, SampleRate: sampleRate}
}

// Length returns the per-channel sample count.
func (b *Buffer) Length() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Length()) / float64(b.SampleRate)
}

const (
	headerSize     = 44
	pcmFormatTag   = 1
	bitsPerSample  = 16
	bytesPerSample = 2
)

// Encode writes the buffer as a 16-bit PCM WAV byte stream: RIFF/WAVE/fmt /
// data chunks, then interleaved samples clamped from [-1,1] to int16.
func Encode(buf *Buffer) []byte {
	channels := len(buf.Channels)
	length := buf.Length()
	dataLen := length * channels * bytesPerSample

	out := make([]byte, headerSize+dataLen)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataLen))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormatTag)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(buf.SampleRate*channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:34], uint16(channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataLen))

	pos := headerSize
	for i := 0; i < length; i++ {
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(out[pos:pos+2], uint16(quantize(buf.Channels[ch][i])))
			pos += 2
		}
	}

	return out
}

// quantize clamps a float sample to [-1, 1] and maps it to int16.
func quantize(sample float64) int16 {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	if sample < 0 {
		return int16(math.Round(sample * 32768))
	}
	return int16(math.Round(sample * 32767))
}

// Decode parses a canonical 16-bit PCM WAV stream produced by Encode (or any
// plain PCM WAV with a 44-byte header) back into a float buffer.
func Decode(data []byte) (*Buffer, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("wav stream too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE stream")
	}
	if tag := binary.LittleEndian.Uint16(data[20:22]); tag != pcmFormatTag {
		return nil, fmt.Errorf("unsupported wav format tag %d", tag)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != bitsPerSample {
		return nil, fmt.Errorf("unsupported bit depth %d", bits)
	}

	channels := int(binary.LittleEndian.Uint16(data[22:24]))
	sampleRate := int(binary.LittleEndian.Uint32(data[24:28]))
	if channels == 0 {
		return nil, fmt.Errorf("wav stream declares zero channels")
	}

	dataLen := int(binary.LittleEndian.Uint32(data[40:44]))
	if dataLen > len(data)-headerSize {
		dataLen = len(data) - headerSize
	}
	length := dataLen / (channels * bytesPerSample)

	buf := NewBuffer(channels, length, sampleRate)
	pos := headerSize
	for i := 0; i < length; i++ {
		for ch := 0; ch < channels; ch++ {
			v := int16(binary.LittleEndian.Uint16(data[pos : pos+2]))
			pos += 2
			if v < 0 {
				buf.Channels[ch][i] = float64(v) / 32768
			} else {
				buf.Channels[ch][i] = float64(v) / 32767
			}
		}
	}

	return buf, nil
}
