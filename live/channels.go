package live

import (
	"errors"
	"fmt"

	"github.com/vsariola/midisynth"
)

type (
	// ChannelState is what the synth remembers of a MIDI channel between
	// notes.
	ChannelState struct {
		Program int     // program used by new notes on this channel
		Bend    float32 // normalized pitch bend, -1..1
		factor  float32 // frequency multiplier for Bend
	}

	// ChannelTable holds the state of all MIDI channels. It is owned by the
	// player and only touched from the audio thread.
	ChannelTable struct {
		channels  [midisynth.NumChannels]ChannelState
		bendRange float32
	}
)

var ErrProgramOutOfRange = errors.New("program out of range")

// NewChannelTable returns a table with every channel on program 0 and no
// bend. bendRange is the number of semitones of a full pitch bend.
func NewChannelTable(bendRange float32) *ChannelTable {
	c := &ChannelTable{bendRange: bendRange}
	c.Reset()
	return c
}

func (c *ChannelTable) Reset() {
	for i := range c.channels {
		c.channels[i] = ChannelState{factor: 1}
	}
}

// SetProgram selects the program for new notes on the channel. Out of range
// programs are rejected and the channel keeps its previous program.
func (c *ChannelTable) SetProgram(channel uint8, program, numPrograms int) error {
	if int(channel) >= len(c.channels) {
		return fmt.Errorf("SetProgram: %w", midisynth.ErrInvalidChannel)
	}
	if program < 0 || program >= numPrograms {
		return fmt.Errorf("program %d on channel %d, table has %d programs: %w", program, channel, numPrograms, ErrProgramOutOfRange)
	}
	c.channels[channel].Program = program
	return nil
}

// SetBend stores the 14-bit pitch bend value for the channel. It affects the
// notes already sounding on the channel as well as new ones.
func (c *ChannelTable) SetBend(channel uint8, value uint16) {
	if int(channel) >= len(c.channels) {
		return
	}
	b := midisynth.NormalizedBend(value)
	c.channels[channel].Bend = b
	c.channels[channel].factor = midisynth.BendFactor(b, c.bendRange)
}

func (c *ChannelTable) State(channel uint8) ChannelState {
	if int(channel) >= len(c.channels) {
		return ChannelState{factor: 1}
	}
	return c.channels[channel]
}

// BendFactor returns the frequency multiplier of the channel's current bend.
func (c *ChannelTable) BendFactor(channel uint8) float32 {
	return c.State(channel).Factor()
}

// Factor returns the frequency multiplier of the bend.
func (s ChannelState) Factor() float32 {
	if s.factor == 0 {
		return 1
	}
	return s.factor
}
