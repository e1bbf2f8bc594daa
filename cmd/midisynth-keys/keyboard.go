package main

import (
	"time"

	"github.com/vsariola/midisynth"
	"github.com/vsariola/midisynth/live"
)

// noteMap gives the semitone offsets of the keys from the C of the current
// octave, laid out like a piano on two rows of a QWERTY keyboard.
var noteMap = map[rune]int{
	'z': -12,
	's': -11,
	'x': -10,
	'd': -9,
	'c': -8,
	'v': -7,
	'g': -6,
	'b': -5,
	'h': -4,
	'n': -3,
	'j': -2,
	'm': -1,
	',': 0,
	'l': 1,
	'.': 2,
	'q': 0,
	'2': 1,
	'w': 2,
	'3': 3,
	'e': 4,
	'r': 5,
	'5': 6,
	't': 7,
	'6': 8,
	'y': 9,
	'7': 10,
	'u': 11,
	'i': 12,
	'9': 13,
	'o': 14,
	'0': 15,
	'p': 16,
}

// keyboard turns key presses into messages. Terminals do not report key
// releases, so a note is released when its key has not repeated for hold.
type keyboard struct {
	broker  *live.Broker
	channel uint8
	octave  int
	program int
	hold    time.Duration
	playing map[uint8]*time.Timer // release timers by note
	keys    map[rune]uint8        // note last played by each key
	last    string
}

func newKeyboard(broker *live.Broker, channel uint8) *keyboard {
	return &keyboard{
		broker:  broker,
		channel: channel,
		octave:  4,
		hold:    400 * time.Millisecond,
		playing: make(map[uint8]*time.Timer),
		keys:    make(map[rune]uint8),
	}
}

func noteValue(octave, offset int) (uint8, bool) {
	n := 12*(octave+1) + offset
	if n < 0 || n > midisynth.MaxMIDIValue {
		return 0, false
	}
	return uint8(n), true
}

// key handles a rune key. Returns false if the key does nothing.
func (k *keyboard) key(r rune) bool {
	switch r {
	case '-':
		k.octave = max(k.octave-1, -1)
		return true
	case '=', '+':
		k.octave = min(k.octave+1, 9)
		return true
	case '[':
		return k.setProgram(k.program - 1)
	case ']':
		return k.setProgram(k.program + 1)
	case ' ':
		k.send(k.broker.AllNotesOff(k.channel))
		return true
	}
	offset, ok := noteMap[r]
	if !ok {
		return false
	}
	note, ok := noteValue(k.octave, offset)
	if !ok {
		return false
	}
	if prev, ok := k.keys[r]; ok && prev != note {
		// the octave changed while the key was repeating
		k.release(prev)
	}
	k.keys[r] = note
	if t, ok := k.playing[note]; ok && t.Reset(k.hold) {
		// key repeat of a note that is still sounding
		return true
	}
	k.send(k.broker.NoteOn(k.channel, note, 100))
	channel := k.channel
	k.playing[note] = time.AfterFunc(k.hold, func() {
		k.broker.NoteOff(channel, note)
	})
	return true
}

// release sends the note off now if its timer has not done so already.
func (k *keyboard) release(note uint8) {
	t, ok := k.playing[note]
	if !ok {
		return
	}
	delete(k.playing, note)
	if t.Stop() {
		k.send(k.broker.NoteOff(k.channel, note))
	}
}

func (k *keyboard) setProgram(program int) bool {
	n := len(k.broker.Programs())
	program = (program + n) % n
	if err := k.broker.ProgramChange(k.channel, uint8(program)); err != nil {
		k.last = err.Error()
		return false
	}
	k.program = program
	return true
}

func (k *keyboard) send(err error) {
	if err != nil {
		k.last = err.Error()
	}
}

// silence releases everything at once and stops the pending note offs.
func (k *keyboard) silence() {
	for note, t := range k.playing {
		t.Stop()
		delete(k.playing, note)
	}
	clear(k.keys)
	k.send(k.broker.AllSoundOff(k.channel))
}
