//go:build cgo

package cmd

import (
	"github.com/vsariola/midisynth/live"
	"github.com/vsariola/midisynth/live/gomidi"
)

func NewMidiContext(broker *live.Broker) live.MIDIContext {
	return gomidi.NewContext(broker)
}
