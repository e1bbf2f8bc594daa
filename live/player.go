package live

import (
	"errors"
	"fmt"
	"io"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/midisynth"
)

type (
	// Player is the output side of the synthesizer, run in the audio thread.
	// Before rendering each buffer, it drains the broker's queue and applies
	// the messages to its voices and channels. The player owns its voice pool
	// and channel table; nothing else touches them while it runs.
	//
	// When the player pops a SystemReset, it silences everything, clears its
	// state, completes the shutdown handshake and exits: Process returns
	// false from then on and Finished is closed.
	Player struct {
		broker   *Broker
		voices   *VoicePool
		channels *ChannelTable
		gain     float32
		out      []float32
		exited   bool
		finished chan struct{}
	}

	PlayerOptions struct {
		Voices     int              // polyphony; DefaultVoices if zero
		SampleRate int              // midisynth.DefaultSampleRate if zero
		Tuning     midisynth.Tuning // midisynth.EqualTemperament if nil
		BendRange  float32          // semitones; midisynth.DefaultBendRange if zero
		Gain       float32          // master gain; DefaultGain if zero
	}
)

// ErrPlayerAttached is returned by NewPlayer when the broker already serves a
// player that has not exited.
var ErrPlayerAttached = errors.New("broker already has a running player")

const (
	DefaultVoices = 10
	DefaultGain   = 0.5
)

func NewPlayer(broker *Broker, opts PlayerOptions) (*Player, error) {
	if opts.Voices == 0 {
		opts.Voices = DefaultVoices
	}
	if opts.SampleRate == 0 {
		opts.SampleRate = midisynth.DefaultSampleRate
	}
	if opts.BendRange == 0 {
		opts.BendRange = midisynth.DefaultBendRange
	}
	if opts.Gain == 0 {
		opts.Gain = DefaultGain
	}
	voices, err := NewVoicePool(opts.Voices, float32(opts.SampleRate), opts.Tuning)
	if err != nil {
		return nil, fmt.Errorf("NewPlayer: %w", err)
	}
	if !broker.shutdown.attach() {
		return nil, ErrPlayerAttached
	}
	return &Player{
		broker:   broker,
		voices:   voices,
		channels: NewChannelTable(opts.BendRange),
		gain:     opts.Gain,
		finished: make(chan struct{}),
	}, nil
}

// Process applies the queued messages and renders one interleaved stereo
// buffer. Returns false once the player has exited; the buffer is then
// filled with silence.
func (p *Player) Process(buffer []float32) bool {
	if p.exited {
		clear(buffer)
		return false
	}
	programs := p.broker.Programs()
	// only take what is queued now, so a busy producer cannot starve the audio
	for n := p.broker.Queue.Len(); n > 0; n-- {
		msg, ok := p.broker.Queue.TryPop()
		if !ok {
			break
		}
		if msg.Kind == midisynth.SystemReset {
			p.exit(buffer)
			return false
		}
		p.handle(msg, programs)
	}
	p.voices.Render(buffer, p.channels)
	if len(buffer) == 0 {
		return true
	}
	vek32.MulNumber_Inplace(buffer, p.gain)
	vek32.MinimumNumber_Inplace(buffer, 1)
	vek32.MaximumNumber_Inplace(buffer, -1)
	peak := max(vek32.Max(buffer), -vek32.Min(buffer))
	TrySend(p.broker.Status, Status{ActiveVoices: p.voices.Active(), Peak: peak})
	return true
}

// ReadAudio implements midisynth.AudioSource. It returns io.EOF once the
// player has exited.
func (p *Player) ReadAudio(buffer []float32) error {
	if !p.Process(buffer) {
		return io.EOF
	}
	return nil
}

// Render processes frames frames and returns them as an interleaved stereo
// buffer. The buffer is reused by the next call.
func (p *Player) Render(frames int) []float32 {
	if cap(p.out) < 2*frames {
		p.out = make([]float32, 2*frames)
	}
	p.out = p.out[:2*frames]
	p.Process(p.out)
	return p.out
}

// Finished is closed when the player has exited.
func (p *Player) Finished() <-chan struct{} {
	return p.finished
}

// Voices returns the voice pool. It may only be inspected from the audio
// thread, or after the player has exited.
func (p *Player) Voices() *VoicePool { return p.voices }

// Channels returns the channel table, with the same restrictions as Voices.
func (p *Player) Channels() *ChannelTable { return p.channels }

func (p *Player) handle(msg midisynth.Message, programs midisynth.ProgramTable) {
	switch msg.Kind {
	case midisynth.NoteOn:
		p.voices.Trigger(msg.Channel, msg.Note, msg.Velocity, programs, p.channels)
	case midisynth.NoteOff:
		p.voices.Release(msg.Channel, msg.Note)
	case midisynth.PitchBend:
		p.channels.SetBend(msg.Channel, msg.Bend)
	case midisynth.ProgramChange:
		if err := p.channels.SetProgram(msg.Channel, int(msg.Program), len(programs)); err != nil {
			p.SendAlert("ProgramChange", err.Error(), Warning)
		}
	case midisynth.AllNotesOff:
		p.voices.ReleaseAll(msg.Channel, false)
	case midisynth.AllSoundOff:
		p.voices.ReleaseAll(msg.Channel, true)
	}
}

// exit clears all state and completes the shutdown. Messages that were queued
// together with the reset are dropped, so they do not leak into the next
// player using the same broker.
func (p *Player) exit(buffer []float32) {
	p.broker.shutdown.begin()
	p.voices.Clear()
	p.channels.Reset()
	for n := p.broker.Queue.Len(); n > 0; n-- {
		if _, ok := p.broker.Queue.TryPop(); !ok {
			break
		}
	}
	p.broker.shutdown.complete()
	clear(buffer)
	p.exited = true
	close(p.finished)
}

func (p *Player) SendAlert(name, message string, priority AlertPriority) {
	TrySend(p.broker.Alerts, Alert{
		Name:     name,
		Message:  message,
		Priority: priority,
	})
}
