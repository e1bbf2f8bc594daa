package live

import (
	"errors"
	"strings"
)

type (
	// MIDIContext lists the MIDI input devices of a driver. Closing the
	// context is the input side of the shutdown: it requests a reset from the
	// player and stops reading the device.
	MIDIContext interface {
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

var ErrNoMIDIInput = errors.New("no MIDI input found")

// OpenMIDIInput opens the first input whose name starts with prefix, or the
// first input of all if takeFirst is true.
func OpenMIDIInput(c MIDIContext, prefix string, takeFirst bool) (MIDIInputDevice, error) {
	for input := range c.Inputs {
		if takeFirst || strings.HasPrefix(input.String(), prefix) {
			if err := input.Open(); err != nil {
				return nil, err
			}
			return input, nil
		}
	}
	return nil, ErrNoMIDIInput
}

// MIDIInputNames returns the names of all inputs of the context.
func MIDIInputNames(c MIDIContext) []string {
	var ret []string
	for input := range c.Inputs {
		ret = append(ret, input.String())
	}
	return ret
}

func (s MIDISupport) String() string {
	switch s {
	case MIDISupportNotCompiled:
		return "not compiled"
	case MIDISupportNoDriver:
		return "no driver"
	default:
		return "supported"
	}
}

// NullMIDIContext is a MIDIContext without any devices, used when the
// program was built without MIDI support. Closing it still requests the
// player to reset, if it has a broker.
type NullMIDIContext struct {
	Broker *Broker
}

func (m NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}
func (m NullMIDIContext) Support() MIDISupport                          { return MIDISupportNotCompiled }
func (m NullMIDIContext) Close() {
	if m.Broker != nil {
		m.Broker.RequestReset()
	}
}
