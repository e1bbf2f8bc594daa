package midisynth

import (
	"errors"
	"fmt"
)

type (
	// Generator is one sounding instance of a program, owned by a single
	// voice. Generators are created on NoteOn and dropped when they finish,
	// so they do not need to support being triggered twice.
	Generator interface {
		// Trigger starts the sound at the given frequency in Hz. velocity is
		// normalized to 0..1.
		Trigger(freq, velocity float32)
		// Release starts the release tail of the sound.
		Release()
		// Render overwrites buffer with len(buffer)/2 interleaved stereo
		// frames. bend multiplies the triggered frequency.
		Render(buffer []float32, bend float32)
		// Finished reports that the generator will only produce silence from
		// now on.
		Finished() bool
	}

	// Factory creates a new Generator for the given sample rate.
	Factory func(sampleRate float32) Generator

	// Program is a named sound, selectable with MIDI program change.
	Program struct {
		Name    string
		Factory Factory
	}

	// ProgramTable lists the programs in the order of their MIDI program
	// numbers. Once built it is never mutated; replacing the sounds means
	// replacing the whole table.
	ProgramTable []Program
)

var ErrEmptyProgramTable = errors.New("program table is empty")

// NewProgramTable validates programs and returns them as a ProgramTable. The
// table must have at least one and at most NumProgramSlots programs, each
// with a name and a factory.
func NewProgramTable(programs ...Program) (ProgramTable, error) {
	if len(programs) == 0 {
		return nil, ErrEmptyProgramTable
	}
	if len(programs) > NumProgramSlots {
		return nil, fmt.Errorf("program table has %d programs, at most %d can be addressed by MIDI", len(programs), NumProgramSlots)
	}
	for i, p := range programs {
		if p.Name == "" {
			return nil, fmt.Errorf("program %d has no name", i)
		}
		if p.Factory == nil {
			return nil, fmt.Errorf("program %d (%s) has no factory", i, p.Name)
		}
	}
	ret := make(ProgramTable, len(programs))
	copy(ret, programs)
	return ret, nil
}

// Lookup returns the program with the given number. Numbers past the end of
// the table return the last program, numbers below zero the first.
func (t ProgramTable) Lookup(program int) Program {
	if program >= len(t) {
		program = len(t) - 1
	}
	if program < 0 {
		program = 0
	}
	return t[program]
}

// Names returns the program names in program number order.
func (t ProgramTable) Names() []string {
	ret := make([]string, len(t))
	for i, p := range t {
		ret[i] = p.Name
	}
	return ret
}
