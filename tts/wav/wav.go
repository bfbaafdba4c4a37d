// Package wav assembles raw PCM audio into a canonical RIFF/WAVE container.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// HeaderSize is the size of the canonical PCM WAV header in bytes.
const HeaderSize = 44

// ErrInvalidFormat is returned for formats that cannot describe PCM audio.
var ErrInvalidFormat = errors.New("invalid audio format")

// Format describes raw PCM audio as reported by the server.
type Format struct {
	Rate     int // Sample rate in Hz
	Width    int // Bytes per sample (1, 2, 3 or 4)
	Channels int // Number of channels
}

// Validate checks the format fields. The client only hands over formats the
// server declared, but this is the last guard before output.
func (f Format) Validate() error {
	if f.Rate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, f.Rate)
	}
	if f.Width < 1 || f.Width > 4 {
		return fmt.Errorf("%w: sample width %d bytes", ErrInvalidFormat, f.Width)
	}
	if f.Channels < 1 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, f.Channels)
	}
	return nil
}

// BlockAlign returns the size of one frame (all channels) in bytes.
func (f Format) BlockAlign() int {
	return f.Channels * f.Width
}

// ByteRate returns the number of audio bytes per second.
func (f Format) ByteRate() int {
	return f.Rate * f.Channels * f.Width
}

// Duration returns the playing time of n bytes of PCM in this format.
func (f Format) Duration(n int) time.Duration {
	if f.ByteRate() == 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(f.ByteRate()) * float64(time.Second))
}

// Assemble wraps pcm in a WAV container. The output is deterministic: the
// same format and samples always produce byte-identical results, and the
// total length is always HeaderSize + len(pcm).
func Assemble(f Format, pcm []byte) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(pcm))

	// RIFF chunk
	buf.WriteString("RIFF")
	writeUint32(&buf, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	// fmt chunk: PCM, no extension
	buf.WriteString("fmt ")
	writeUint32(&buf, 16)
	writeUint16(&buf, 1) // audio format: PCM
	writeUint16(&buf, uint16(f.Channels))
	writeUint32(&buf, uint32(f.Rate))
	writeUint32(&buf, uint32(f.ByteRate()))
	writeUint16(&buf, uint16(f.BlockAlign()))
	writeUint16(&buf, uint16(f.Width*8))

	// data chunk
	buf.WriteString("data")
	writeUint32(&buf, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
