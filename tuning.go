package midisynth

import "math"

// Tuning converts a MIDI note number to a frequency in Hz.
type Tuning func(note byte) float32

// DefaultBendRange is the pitch bend range in semitones, up and down.
const DefaultBendRange = 1

// EqualTemperament is the usual twelve-tone equal temperament with A4 (note
// 69) at 440 Hz.
func EqualTemperament(note byte) float32 {
	return float32(440 * math.Exp2((float64(note)-69)/12))
}

// C-1 of the well temperament; chosen so that A4 is 440 Hz
const wellCMinus1 = 8.20354352009375

var wellRatios = [12]float64{
	1.0,
	1.058267369,
	1.119929822,
	1.187864957,
	1.254242807,
	1.3363480780010195,
	1.411023157998401,
	1.4966160640051305,
	1.5856094859970158,
	1.6761049619985275,
	1.7797864719968166,
	1.8813642110048348,
}

// WellTemperament is believed to be Bach's well temperament, see Table 8.3 of
// https://www.historicaltuning.com/Chapter8.pdf
func WellTemperament(note byte) float32 {
	octave := float64(note / 12)
	return float32(math.Exp2(octave) * wellCMinus1 * wellRatios[note%12])
}

// NormalizedBend maps a 14-bit MIDI pitch bend value to -1..1, 0 being no
// bend. See https://sites.uci.edu/camp2014/2014/04/30/managing-midi-pitchbend-messages/
func NormalizedBend(value uint16) float32 {
	if value > MaxBend {
		value = MaxBend
	}
	return (float32(value) - BendCenter) / BendCenter
}

// BendFactor converts a normalized bend to a frequency multiplier when the
// full bend spans the given number of semitones.
func BendFactor(normalized, semitones float32) float32 {
	return float32(math.Exp2(float64(normalized*semitones) / 12))
}
