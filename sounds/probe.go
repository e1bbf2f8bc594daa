package sounds

import (
	"fmt"
	"time"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/midisynth"
)

// ProbeResult summarizes the samples of one channel of an offline render.
type ProbeResult struct {
	Frames int
	Min    float32
	Max    float32
	Mean   float32
}

// Probe renders program playing note at full velocity for the given
// duration, releasing the note halfway through, and reports the range of the
// left channel. It is useful for checking that a program makes any sound.
func Probe(program midisynth.Program, note byte, sampleRate int, duration time.Duration) (ProbeResult, error) {
	frames := int(duration.Seconds() * float64(sampleRate))
	if frames < 1 {
		return ProbeResult{}, fmt.Errorf("probe of %q: duration %v is shorter than a frame", program.Name, duration)
	}
	g := program.Factory(float32(sampleRate))
	if g == nil {
		return ProbeResult{}, fmt.Errorf("probe of %q: factory returned no generator", program.Name)
	}
	g.Trigger(midisynth.EqualTemperament(note), 1)
	buf := make([]float32, 2*frames)
	split := frames / 2 * 2
	g.Render(buf[:split], 1)
	g.Release()
	g.Render(buf[split:], 1)
	left := make([]float32, frames)
	for i := range left {
		left[i] = buf[2*i]
	}
	return ProbeResult{
		Frames: frames,
		Min:    vek32.Min(left),
		Max:    vek32.Max(left),
		Mean:   vek32.Mean(left),
	}, nil
}

func (r ProbeResult) String() string {
	return fmt.Sprintf("%d frames, min %.3f, max %.3f, mean %.3f", r.Frames, r.Min, r.Max, r.Mean)
}
