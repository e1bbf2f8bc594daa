//go:build !cgo

package cmd

import (
	"github.com/vsariola/midisynth/live"
)

func NewMidiContext(broker *live.Broker) live.MIDIContext {
	// with no cgo, we cannot use MIDI, so return a null context
	return live.NullMIDIContext{Broker: broker}
}
