package midisynth

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"
)

type (
	// ExportFormat tells how a recorded interleaved stereo buffer is written.
	ExportFormat struct {
		Container Container
		PCM16     bool // 16-bit signed samples instead of 32-bit floats
	}

	Container int

	// wavFmt is the body of the "fmt " chunk.
	wavFmt struct {
		FormatTag     uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
	}

	// chunkWriter writes little-endian values and keeps the first error.
	chunkWriter struct {
		w   io.Writer
		err error
	}
)

const (
	WavContainer Container = iota // RIFF .wav file
	RawContainer                  // headerless samples
)

const (
	wavPCM   = 1
	wavFloat = 3
)

// ExportFormatFor picks the container from the file extension: .raw and .pcm
// get headerless samples, everything else a .wav file.
func ExportFormatFor(path string, pcm16 bool) ExportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".raw", ".pcm":
		return ExportFormat{Container: RawContainer, PCM16: pcm16}
	}
	return ExportFormat{Container: WavContainer, PCM16: pcm16}
}

// Export writes buffer, interleaved stereo at sampleRate, to w.
func Export(w io.Writer, buffer []float32, sampleRate int, format ExportFormat) error {
	c := &chunkWriter{w: w}
	if format.Container == WavContainer {
		c.wavHeader(len(buffer), sampleRate, format.PCM16)
	}
	if format.PCM16 {
		c.put(toPCM16(buffer))
	} else {
		c.put(buffer)
	}
	if c.err != nil {
		return fmt.Errorf("could not export audio: %w", c.err)
	}
	return nil
}

func toPCM16(buffer []float32) []int16 {
	ret := make([]int16, len(buffer))
	for i, v := range buffer {
		ret[i] = int16(max(math.MinInt16, min(math.MaxInt16, int(v*math.MaxInt16))))
	}
	return ret
}

// wavHeader writes the RIFF header for numSamples values (L + R). Float
// files have the extended fmt chunk and a fact chunk.
func (c *chunkWriter) wavHeader(numSamples, sampleRate int, pcm16 bool) {
	// Refer to: http://www-mmsp.ece.mcgill.ca/Documents/AudioFormats/WAVE/WAVE.html
	const numChannels = 2
	bytesPerSample := 4
	f := wavFmt{FormatTag: wavFloat}
	fmtSize := 18
	if pcm16 {
		bytesPerSample = 2
		f.FormatTag = wavPCM
		fmtSize = 16
	}
	f.Channels = numChannels
	f.SampleRate = uint32(sampleRate)
	f.ByteRate = uint32(sampleRate * numChannels * bytesPerSample)
	f.BlockAlign = uint16(numChannels * bytesPerSample)
	f.BitsPerSample = uint16(8 * bytesPerSample)
	dataSize := bytesPerSample * numSamples
	riffSize := 4 + 8 + fmtSize + 8 + dataSize
	if !pcm16 {
		riffSize += 12
	}
	c.id("RIFF")
	c.put(uint32(riffSize))
	c.id("WAVE")
	c.id("fmt ")
	c.put(uint32(fmtSize))
	c.put(f)
	if !pcm16 {
		c.put(uint16(0)) // size of extension
		c.id("fact")
		c.put(uint32(4))
		c.put(uint32(numSamples / numChannels)) // frames
	}
	c.id("data")
	c.put(uint32(dataSize))
}

func (c *chunkWriter) id(s string) {
	c.put([]byte(s))
}

func (c *chunkWriter) put(v any) {
	if c.err == nil {
		c.err = binary.Write(c.w, binary.LittleEndian, v)
	}
}
