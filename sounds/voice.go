package sounds

import (
	"math"
)

type (
	// voice is the Generator of a Patch. The oscillator is mono and written
	// to both channels.
	voice struct {
		patch      *Patch
		sampleRate float32
		freq       float32
		velocity   float32
		detune     float32
		phase      float32
		pwmPhase   float32
		randSeed   uint32
		env        envelope
		filter     filter
		time       float32 // seconds since trigger
	}

	envelope struct {
		state   envState
		level   float32
		attack  float32 // level change per sample
		decay   float32
		sustain float32
		release float32
	}

	envState int

	// filter is a state-variable filter, of which the low-pass output is
	// used.
	filter struct {
		low, band float32
	}
)

const (
	envStateAttack envState = iota
	envStateDecay
	envStateRelease
	envStateDone
)

func newVoice(p *Patch, sampleRate float32) *voice {
	v := &voice{
		patch:      p,
		sampleRate: sampleRate,
		randSeed:   1,
		detune:     float32(math.Exp2(float64(p.Detune / 12))),
	}
	v.env = newEnvelope(p.Envelope, sampleRate)
	return v
}

func newEnvelope(e Envelope, sampleRate float32) envelope {
	if e == (Envelope{}) {
		// gate
		return envelope{attack: 1, sustain: 1, release: 1}
	}
	return envelope{
		attack:  rate(e.Attack, sampleRate),
		decay:   rate(e.Decay, sampleRate),
		sustain: e.Sustain,
		release: rate(e.Release, sampleRate),
	}
}

// rate returns the level change per sample of a full 0..1 ramp lasting the
// given number of seconds.
func rate(seconds, sampleRate float32) float32 {
	if seconds*sampleRate <= 1 {
		return 1
	}
	return 1 / (seconds * sampleRate)
}

func (v *voice) Trigger(freq, velocity float32) {
	v.freq = freq
	v.velocity = velocity
	v.env.state = envStateAttack
	v.env.level = 0
}

func (v *voice) Release() {
	if v.env.state != envStateDone {
		v.env.state = envStateRelease
	}
}

func (v *voice) Finished() bool {
	return v.env.state == envStateDone
}

func (v *voice) Render(buffer []float32, bend float32) {
	gain := v.patch.Gain
	if gain == 0 {
		gain = 1
	}
	omega := v.freq * bend * v.detune / v.sampleRate
	dt := 1 / v.sampleRate
	for i := 0; i+1 < len(buffer); i += 2 {
		if v.env.state == envStateDone {
			buffer[i], buffer[i+1] = 0, 0
			continue
		}
		s := v.oscillator()
		if v.patch.Filter != nil {
			s = v.filter.lowpass(s, v.cutoff(), v.patch.Filter.Resonance, v.sampleRate)
		}
		out := s * v.env.next() * v.velocity * gain
		buffer[i], buffer[i+1] = out, out
		v.phase += omega
		v.phase -= float32(math.Floor(float64(v.phase)))
		v.time += dt
	}
	if len(buffer)%2 == 1 {
		buffer[len(buffer)-1] = 0
	}
}

func (v *voice) oscillator() float32 {
	p := v.phase
	switch v.patch.Wave {
	case Sine:
		return float32(math.Sin(2 * math.Pi * float64(p)))
	case Triangle:
		return 4*abs(p-0.5) - 1
	case Saw:
		return 2*p - 1
	case Pulse:
		if p < v.duty() {
			return 1
		}
		return -1
	case Noise:
		v.randSeed *= 16007
		return float32(int32(v.randSeed)) / -2147483648.0
	}
	return 0
}

func (v *voice) duty() float32 {
	d := v.patch.Duty
	if d == 0 {
		d = 0.5
	}
	if v.patch.PWMRate > 0 {
		d += v.patch.PWMDepth * float32(math.Sin(2*math.Pi*float64(v.pwmPhase)))
		v.pwmPhase += v.patch.PWMRate / v.sampleRate
		v.pwmPhase -= float32(math.Floor(float64(v.pwmPhase)))
	}
	return min(max(d, 0.01), 0.99)
}

func (v *voice) cutoff() float32 {
	f := v.patch.Filter
	if f.CutoffEnd == 0 || f.Sweep == 0 {
		return f.Cutoff
	}
	t := min(v.time/f.Sweep, 1)
	return f.Cutoff * float32(math.Pow(float64(f.CutoffEnd/f.Cutoff), float64(t)))
}

func (e *envelope) next() float32 {
	switch e.state {
	case envStateAttack:
		e.level += e.attack
		if e.level >= 1 {
			e.level = 1
			e.state = envStateDecay
		}
	case envStateDecay:
		e.level -= e.decay
		if e.level <= e.sustain {
			e.level = e.sustain
		}
	case envStateRelease:
		e.level -= e.release
		if e.level <= 0 {
			e.level = 0
			e.state = envStateDone
		}
	}
	return e.level
}

func (f *filter) lowpass(input, cutoff, resonance, sampleRate float32) float32 {
	freq := 2 * float32(math.Sin(math.Pi*float64(min(cutoff, sampleRate/6)/sampleRate)))
	damping := 2 - 2*min(resonance, 0.98)
	// stable while freq² + 2·freq·damping < 4
	freq = min(freq, 0.9*(float32(math.Sqrt(float64(damping*damping+4)))-damping))
	f.low += freq * f.band
	high := input - f.low - damping*f.band
	f.band += freq * high
	return f.low
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
