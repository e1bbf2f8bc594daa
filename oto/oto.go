// Package oto plays audio sources with github.com/ebitengine/oto/v3.
package oto

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/midisynth"
)

type (
	// OtoContext is the audio device. Oto supports only one context per
	// process.
	OtoContext struct {
		context    *oto.Context
		sampleRate int
	}

	// OtoOutput is a source being played.
	OtoOutput struct {
		player *oto.Player
		reader *Reader
	}

	// Reader adapts an AudioSource to the io.Reader oto pulls bytes from.
	// After the source returns an error, Reader returns io.EOF.
	Reader struct {
		source midisynth.AudioSource
		buffer []float32
		err    error
		done   chan struct{}
		once   sync.Once
	}
)

const otoBufferSize = 4096 // frames

var ErrReaderClosed = errors.New("reader closed")

// NewContext opens the default audio device at the given sample rate.
func NewContext(sampleRate int) (*OtoContext, error) {
	if sampleRate == 0 {
		sampleRate = midisynth.DefaultSampleRate
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context, sampleRate: sampleRate}, nil
}

func (c *OtoContext) SampleRate() int { return c.sampleRate }

// Close suspends the device. Oto cannot open a second context, so the
// context itself stays alive.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Play starts pulling audio from source.
func (c *OtoContext) Play(source midisynth.AudioSource) (midisynth.CloseWaiter, error) {
	r := NewReader(source)
	player := c.context.NewPlayer(r)
	player.SetBufferSize(otoBufferSize * 2 * 4)
	player.Play()
	return &OtoOutput{player: player, reader: r}, nil
}

// Close stops playing. The source is not read anymore after Close returns.
func (o *OtoOutput) Close() error {
	o.reader.finish(ErrReaderClosed)
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// Wait blocks until the source has ended or the output was closed.
func (o *OtoOutput) Wait() {
	<-o.reader.done
}

func NewReader(source midisynth.AudioSource) *Reader {
	return &Reader{
		source: source,
		buffer: make([]float32, 2*otoBufferSize),
		done:   make(chan struct{}),
	}
}

func (r *Reader) Read(p []byte) (n int, err error) {
	select {
	case <-r.done:
		return 0, io.EOF
	default:
	}
	numSamples := len(p) / 4
	if cap(r.buffer) < numSamples {
		r.buffer = make([]float32, numSamples)
	}
	samples := r.buffer[:numSamples]
	if err := r.source.ReadAudio(samples); err != nil {
		r.finish(err)
	}
	FloatBufferToBytes(p, samples)
	return numSamples * 4, nil
}

// Err returns the error that ended the source, io.EOF if it ended normally.
func (r *Reader) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}

func (r *Reader) finish(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}
