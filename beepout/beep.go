// Package beepout plays audio sources through the github.com/gopxl/beep
// speaker.
package beepout

import (
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/vsariola/midisynth"
)

type (
	// Speaker is the audio device. beep has a single speaker per process.
	Speaker struct {
		sampleRate beep.SampleRate
	}

	// Streamer adapts an AudioSource to a beep.Streamer. It drains once the
	// source returns an error or the streamer is closed.
	Streamer struct {
		source midisynth.AudioSource
		buffer []float32
		closed bool
		err    error
	}

	output struct {
		streamer *Streamer
		done     chan struct{}
	}
)

// NewSpeaker initializes the speaker. latency is the length of the speaker
// buffer.
func NewSpeaker(sampleRate int, latency time.Duration) (*Speaker, error) {
	if sampleRate == 0 {
		sampleRate = midisynth.DefaultSampleRate
	}
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(latency)); err != nil {
		return nil, fmt.Errorf("cannot initialize beep speaker: %w", err)
	}
	return &Speaker{sampleRate: sr}, nil
}

func (s *Speaker) SampleRate() int { return int(s.sampleRate) }

func (s *Speaker) Play(source midisynth.AudioSource) (midisynth.CloseWaiter, error) {
	o := &output{streamer: NewStreamer(source), done: make(chan struct{})}
	speaker.Play(beep.Seq(o.streamer, beep.Callback(func() { close(o.done) })))
	return o, nil
}

// Close shuts the speaker down.
func (s *Speaker) Close() error {
	speaker.Close()
	return nil
}

func (o *output) Close() error {
	speaker.Lock()
	o.streamer.closed = true
	speaker.Unlock()
	return nil
}

func (o *output) Wait() {
	<-o.done
}

func NewStreamer(source midisynth.AudioSource) *Streamer {
	return &Streamer{source: source}
}

func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	if s.closed || s.err != nil {
		return 0, false
	}
	if cap(s.buffer) < 2*len(samples) {
		s.buffer = make([]float32, 2*len(samples))
	}
	buf := s.buffer[:2*len(samples)]
	if err := s.source.ReadAudio(buf); err != nil {
		s.err = err
		return 0, false
	}
	for i := range samples {
		samples[i][0] = float64(buf[2*i])
		samples[i][1] = float64(buf[2*i+1])
	}
	return len(samples), true
}

// Err returns the error that ended the source, io.EOF if it ended normally.
func (s *Streamer) Err() error {
	return s.err
}
