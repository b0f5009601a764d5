// Package media holds the audio collaborators of the pipeline: WAV
// decoding into a shared sample buffer, and a wall-clock playback
// simulation that stands in for an audio output device.
package media

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a decoded recording: first channel only, samples normalized
// to [-1, 1].
type Clip struct {
	Samples    []float64
	SampleRate int
	Duration   float64 // sec
}

// DecodeWAV reads a PCM WAV file into a Clip.
func DecodeWAV(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("decode wav: missing format")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	rate := buf.Format.SampleRate

	// Keep the first channel; drop the rest.
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 || bitDepth > 32 {
		bitDepth = 16
	}
	scale := float64(uint64(1) << uint(bitDepth-1))
	for i := 0; i < frames; i++ {
		samples[i] = float64(buf.Data[i*channels]) / scale
	}

	return &Clip{
		Samples:    samples,
		SampleRate: rate,
		Duration:   float64(frames) / float64(rate),
	}, nil
}

// EncodeWAV renders samples as 16-bit mono PCM WAV bytes. The encoder
// needs a seekable target to back-patch chunk sizes, so it goes
// through a temp file.
func EncodeWAV(samples []float64, sampleRate int) ([]byte, error) {
	f, err := os.CreateTemp("", "clip-*.wav")
	if err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		data[i] = int(s * (1<<15 - 1))
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	return os.ReadFile(f.Name())
}
