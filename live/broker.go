package live

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vsariola/midisynth"
)

type (
	// Broker connects the producers of messages (MIDI input, keyboards,
	// software) to the player, and the player back to whoever watches it.
	// Messages to the player go through a lock-free Queue, so producers never
	// block the audio thread. Messages from the player go through buffered
	// channels with TrySend: if nobody is listening, they are dropped.
	//
	// The broker also has a sync.Pool of audio buffers, from which the player
	// side can get buffers to pass around without allocating new memory every
	// time.
	Broker struct {
		Queue  *Queue
		Alerts chan Alert
		Status chan Status

		shutdown   Shutdown
		programs   atomic.Pointer[midisynth.ProgramTable]
		bufferPool sync.Pool
	}

	// Alert is a problem the player ran into, for example a program change
	// to a program that does not exist.
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
	}

	AlertPriority int

	// Status is sent by the player after every processed buffer.
	Status struct {
		ActiveVoices int
		Peak         float32 // largest absolute sample value of the buffer
	}
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

func NewBroker(programs midisynth.ProgramTable) (*Broker, error) {
	b := &Broker{
		Queue:      NewQueue(),
		Alerts:     make(chan Alert, 64),
		Status:     make(chan Status, 16),
		bufferPool: sync.Pool{New: func() any { return &[]float32{} }},
	}
	b.shutdown.detach()
	if err := b.SetPrograms(programs); err != nil {
		return nil, fmt.Errorf("NewBroker: %w", err)
	}
	return b, nil
}

// Programs returns the current program table. The player loads it once per
// buffer.
func (b *Broker) Programs() midisynth.ProgramTable {
	p := b.programs.Load()
	if p == nil {
		return nil
	}
	return *p
}

// SetPrograms replaces the program table. Notes already sounding keep their
// generators; channels pointing past the end of a shorter table use its last
// program.
func (b *Broker) SetPrograms(programs midisynth.ProgramTable) error {
	t, err := midisynth.NewProgramTable(programs...)
	if err != nil {
		return err
	}
	b.programs.Store(&t)
	return nil
}

// Send validates msg and queues it for the player. Program changes to a
// program the table does not have are rejected here, before they reach the
// player.
func (b *Broker) Send(msg midisynth.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if msg.Kind == midisynth.ProgramChange {
		if n := len(b.Programs()); int(msg.Program) >= n {
			return &midisynth.MessageError{Message: msg, Err: fmt.Errorf("table has %d programs: %w", n, ErrProgramOutOfRange)}
		}
	}
	b.Queue.Push(msg)
	return nil
}

func (b *Broker) NoteOn(channel, note, velocity uint8) error {
	return b.Send(midisynth.NoteOnMsg(channel, note, velocity))
}

func (b *Broker) NoteOff(channel, note uint8) error {
	return b.Send(midisynth.NoteOffMsg(channel, note))
}

func (b *Broker) PitchBend(channel uint8, value uint16) error {
	return b.Send(midisynth.PitchBendMsg(channel, value))
}

func (b *Broker) ProgramChange(channel, program uint8) error {
	return b.Send(midisynth.ProgramChangeMsg(channel, program))
}

func (b *Broker) AllNotesOff(channel uint8) error {
	return b.Send(midisynth.AllNotesOffMsg(channel))
}

func (b *Broker) AllSoundOff(channel uint8) error {
	return b.Send(midisynth.AllSoundOffMsg(channel))
}

// RequestReset is the input side of the shutdown handshake, see
// Shutdown.Request. It does nothing and returns false when no player is
// attached.
func (b *Broker) RequestReset() bool {
	return b.shutdown.Request(b.Queue)
}

// Stop requests a reset and waits until finished is closed, typically the
// player's Finished channel. Returns false if the wait timed out.
func (b *Broker) Stop(finished <-chan struct{}, timeout time.Duration) bool {
	b.RequestReset()
	select {
	case <-finished:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Quit reports whether a shutdown is in progress.
func (b *Broker) Quit() bool {
	return b.shutdown.Quit()
}

func (b *Broker) ShutdownState() ShutdownState {
	return b.shutdown.State()
}

// GetAudioBuffer returns an audio buffer from the buffer pool. The buffer is
// guaranteed to be empty. After using the buffer, it should be returned to the
// pool with PutAudioBuffer.
func (b *Broker) GetAudioBuffer() *[]float32 {
	return b.bufferPool.Get().(*[]float32)
}

// PutAudioBuffer returns an audio buffer to the buffer pool. If the buffer is
// not empty, its length is resetted (but capacity kept) before returning it to
// the pool.
func (b *Broker) PutAudioBuffer(buf *[]float32) {
	if len(*buf) > 0 {
		*buf = (*buf)[:0]
	}
	b.bufferPool.Put(buf)
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}

func (p AlertPriority) String() string {
	switch p {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}
