// Package sounds has the generators of the synthesizer: simple oscillators
// shaped by an envelope and an optional swept low-pass filter. A Patch
// describes a sound and can be read from yaml or json; its Factory creates
// the generators for the voices.
package sounds

import (
	"errors"
	"fmt"

	"github.com/vsariola/midisynth"
)

type (
	// Patch describes one program. The zero Envelope is a gate: full level
	// while the note is held, silence right after release.
	Patch struct {
		Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
		Wave     Waveform `yaml:"wave" json:"wave"`
		Duty     float32  `yaml:"duty,omitempty" json:"duty,omitempty"`         // pulse width, 0..1; 0.5 if unset
		PWMRate  float32  `yaml:"pwmrate,omitempty" json:"pwmrate,omitempty"`   // Hz
		PWMDepth float32  `yaml:"pwmdepth,omitempty" json:"pwmdepth,omitempty"` // added to the duty at the modulation peak
		Detune   float32  `yaml:"detune,omitempty" json:"detune,omitempty"`     // semitones
		Gain     float32  `yaml:"gain,omitempty" json:"gain,omitempty"`         // 1 if unset
		Envelope Envelope `yaml:"envelope,omitempty" json:"envelope,omitempty"`
		Filter   *Filter  `yaml:"filter,omitempty" json:"filter,omitempty"`
	}

	// Envelope is an ADSR envelope. Times are in seconds.
	Envelope struct {
		Attack  float32 `yaml:"attack,omitempty" json:"attack,omitempty"`
		Decay   float32 `yaml:"decay,omitempty" json:"decay,omitempty"`
		Sustain float32 `yaml:"sustain,omitempty" json:"sustain,omitempty"`
		Release float32 `yaml:"release,omitempty" json:"release,omitempty"`
	}

	// Filter is a resonant low-pass filter whose cutoff moves exponentially
	// from Cutoff to CutoffEnd in Sweep seconds after the note starts.
	Filter struct {
		Cutoff    float32 `yaml:"cutoff" json:"cutoff"`                           // Hz
		CutoffEnd float32 `yaml:"cutoffend,omitempty" json:"cutoffend,omitempty"` // Hz; Cutoff if unset
		Sweep     float32 `yaml:"sweep,omitempty" json:"sweep,omitempty"`
		Resonance float32 `yaml:"resonance,omitempty" json:"resonance,omitempty"` // 0..1
	}

	Waveform string
)

const (
	Sine     Waveform = "sine"
	Triangle Waveform = "triangle"
	Saw      Waveform = "saw"
	Pulse    Waveform = "pulse"
	Noise    Waveform = "noise"
)

var ErrInvalidPatch = errors.New("invalid patch")

func (p *Patch) Validate() error {
	switch p.Wave {
	case Sine, Triangle, Saw, Pulse, Noise:
	default:
		return fmt.Errorf("%w %q: unknown wave %q", ErrInvalidPatch, p.Name, p.Wave)
	}
	if p.Duty < 0 || p.Duty > 1 {
		return fmt.Errorf("%w %q: duty %v not in 0..1", ErrInvalidPatch, p.Name, p.Duty)
	}
	if p.PWMRate < 0 || p.Gain < 0 {
		return fmt.Errorf("%w %q: negative pwm rate or gain", ErrInvalidPatch, p.Name)
	}
	e := p.Envelope
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 || e.Sustain < 0 || e.Sustain > 1 {
		return fmt.Errorf("%w %q: envelope %+v out of range", ErrInvalidPatch, p.Name, e)
	}
	if f := p.Filter; f != nil {
		if f.Cutoff <= 0 || f.CutoffEnd < 0 || f.Sweep < 0 {
			return fmt.Errorf("%w %q: filter %+v out of range", ErrInvalidPatch, p.Name, *f)
		}
		if f.Resonance < 0 || f.Resonance > 1 {
			return fmt.Errorf("%w %q: resonance %v not in 0..1", ErrInvalidPatch, p.Name, f.Resonance)
		}
	}
	return nil
}

// Factory returns a factory of generators playing the patch. The patch is
// copied, so changing it later does not affect the factory.
func (p Patch) Factory() midisynth.Factory {
	if p.Filter != nil {
		f := *p.Filter
		p.Filter = &f
	}
	return func(sampleRate float32) midisynth.Generator {
		return newVoice(&p, sampleRate)
	}
}

// Program returns the patch as a named program.
func (p Patch) Program() midisynth.Program {
	return midisynth.Program{Name: p.Name, Factory: p.Factory()}
}

// Programs validates the patches and builds a program table of them, in
// order.
func Programs(patches ...Patch) (midisynth.ProgramTable, error) {
	programs := make([]midisynth.Program, len(patches))
	for i := range patches {
		if err := patches[i].Validate(); err != nil {
			return nil, fmt.Errorf("program %d: %w", i, err)
		}
		programs[i] = patches[i].Program()
	}
	return midisynth.NewProgramTable(programs...)
}
