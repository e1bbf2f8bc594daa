package midisynth

import (
	"errors"
	"fmt"
)

type (
	// Message is a single instruction to the synthesizer, passed from the MIDI
	// input or from software to the audio thread. It is a tagged union: Kind
	// tells which of the other fields are meaningful. It is a plain value so
	// that queueing and dequeuing a message never boxes it to an interface.
	Message struct {
		Kind     MessageKind
		Channel  uint8
		Note     uint8  // NoteOn, NoteOff
		Velocity uint8  // NoteOn
		Program  uint8  // ProgramChange
		Bend     uint16 // PitchBend, 14-bit, BendCenter means no bend
	}

	MessageKind int

	// MessageError tells which message failed validation and why. Err is one
	// of the ErrInvalidXXX sentinels, so errors.Is works on it.
	MessageError struct {
		Message Message
		Err     error
	}
)

const (
	NoteOff MessageKind = iota
	NoteOn
	PitchBend
	ProgramChange
	AllNotesOff
	AllSoundOff
	SystemReset
	numMessageKinds
)

const (
	NumChannels     = 16
	MaxMIDIValue    = 127
	NumMIDIValues   = MaxMIDIValue + 1
	BendCenter      = 8192
	MaxBend         = 16383
	NumProgramSlots = NumMIDIValues
)

var (
	ErrInvalidChannel  = errors.New("channel out of range")
	ErrInvalidNote     = errors.New("note out of range")
	ErrInvalidVelocity = errors.New("velocity out of range")
	ErrInvalidProgram  = errors.New("program out of range")
	ErrInvalidBend     = errors.New("pitch bend out of range")
	ErrUnknownKind     = errors.New("unknown message kind")
)

// NoteOnMsg returns a NoteOn message. A velocity of zero means note off in
// MIDI, so in that case a NoteOff message is returned instead; nothing
// downstream needs to check the velocity again.
func NoteOnMsg(channel, note, velocity uint8) Message {
	if velocity == 0 {
		return NoteOffMsg(channel, note)
	}
	return Message{Kind: NoteOn, Channel: channel, Note: note, Velocity: velocity}
}

func NoteOffMsg(channel, note uint8) Message {
	return Message{Kind: NoteOff, Channel: channel, Note: note}
}

// PitchBendMsg returns a pitch bend message; value is the 14-bit MIDI value,
// BendCenter being no bend.
func PitchBendMsg(channel uint8, value uint16) Message {
	return Message{Kind: PitchBend, Channel: channel, Bend: value}
}

func ProgramChangeMsg(channel, program uint8) Message {
	return Message{Kind: ProgramChange, Channel: channel, Program: program}
}

// AllNotesOffMsg releases all notes of a channel, letting their release tails
// ring out.
func AllNotesOffMsg(channel uint8) Message {
	return Message{Kind: AllNotesOff, Channel: channel}
}

// AllSoundOffMsg silences all notes of a channel immediately.
func AllSoundOffMsg(channel uint8) Message {
	return Message{Kind: AllSoundOff, Channel: channel}
}

func SystemResetMsg() Message {
	return Message{Kind: SystemReset}
}

// Validate checks that all the fields used by the message kind are within
// the MIDI ranges. Messages from the MIDI parser are valid by construction;
// messages injected by software should be validated before queueing.
func (m Message) Validate() error {
	var err error
	switch {
	case m.Kind < 0 || m.Kind >= numMessageKinds:
		err = ErrUnknownKind
	case m.Kind == SystemReset:
		return nil
	case m.Channel >= NumChannels:
		err = ErrInvalidChannel
	case (m.Kind == NoteOn || m.Kind == NoteOff) && m.Note > MaxMIDIValue:
		err = ErrInvalidNote
	case m.Kind == NoteOn && m.Velocity > MaxMIDIValue:
		err = ErrInvalidVelocity
	case m.Kind == ProgramChange && m.Program > MaxMIDIValue:
		err = ErrInvalidProgram
	case m.Kind == PitchBend && m.Bend > MaxBend:
		err = ErrInvalidBend
	}
	if err != nil {
		return &MessageError{Message: m, Err: err}
	}
	return nil
}

func (m Message) String() string {
	switch m.Kind {
	case NoteOn:
		return fmt.Sprintf("NoteOn{ch %d, note %d, vel %d}", m.Channel, m.Note, m.Velocity)
	case NoteOff:
		return fmt.Sprintf("NoteOff{ch %d, note %d}", m.Channel, m.Note)
	case PitchBend:
		return fmt.Sprintf("PitchBend{ch %d, value %d}", m.Channel, m.Bend)
	case ProgramChange:
		return fmt.Sprintf("ProgramChange{ch %d, program %d}", m.Channel, m.Program)
	case AllNotesOff:
		return fmt.Sprintf("AllNotesOff{ch %d}", m.Channel)
	case AllSoundOff:
		return fmt.Sprintf("AllSoundOff{ch %d}", m.Channel)
	case SystemReset:
		return "SystemReset"
	}
	return fmt.Sprintf("Message{kind %d}", int(m.Kind))
}

func (k MessageKind) String() string {
	switch k {
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case PitchBend:
		return "PitchBend"
	case ProgramChange:
		return "ProgramChange"
	case AllNotesOff:
		return "AllNotesOff"
	case AllSoundOff:
		return "AllSoundOff"
	case SystemReset:
		return "SystemReset"
	}
	return fmt.Sprintf("MessageKind(%d)", int(k))
}

func (e *MessageError) Error() string {
	return fmt.Sprintf("invalid %v: %v", e.Message, e.Err)
}

func (e *MessageError) Unwrap() error { return e.Err }
