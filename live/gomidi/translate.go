// Package gomidi reads MIDI input devices with gitlab.com/gomidi/midi/v2 and
// feeds the messages to a live.Broker.
package gomidi

import (
	"github.com/vsariola/midisynth"
	"gitlab.com/gomidi/midi/v2"
)

const (
	ccAllSoundOff = 120
	ccAllNotesOff = 123
	systemReset   = 0xFF
)

// Translate converts a raw MIDI message to a synthesizer message. ok is false
// for messages the synthesizer does not use.
func Translate(msg midi.Message) (ret midisynth.Message, ok bool) {
	var channel, key, velocity, program, controller, value uint8
	var relative int16
	var absolute uint16
	switch {
	case len(msg) == 1 && msg[0] == systemReset:
		return midisynth.SystemResetMsg(), true
	case msg.GetNoteOn(&channel, &key, &velocity):
		return midisynth.NoteOnMsg(channel, key, velocity), true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return midisynth.NoteOffMsg(channel, key), true
	case msg.GetPitchBend(&channel, &relative, &absolute):
		return midisynth.PitchBendMsg(channel, absolute), true
	case msg.GetProgramChange(&channel, &program):
		return midisynth.ProgramChangeMsg(channel, program), true
	case msg.GetControlChange(&channel, &controller, &value):
		switch controller {
		case ccAllSoundOff:
			return midisynth.AllSoundOffMsg(channel), true
		case ccAllNotesOff:
			return midisynth.AllNotesOffMsg(channel), true
		}
	}
	return midisynth.Message{}, false
}
