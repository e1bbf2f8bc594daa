package live

import (
	"errors"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/midisynth"
)

type (
	// VoicePool is a fixed array of voices. A voice plays at most one note at
	// a time; when all voices are busy, the voice that was triggered first is
	// taken over by the new note.
	VoicePool struct {
		voices     []voice
		counter    uint64
		scratch    []float32
		sampleRate float32
		tuning     midisynth.Tuning
	}

	voice struct {
		generator midisynth.Generator // nil when the voice is idle
		note      byte
		held      bool // note is down: a NoteOff for (channel, note) releases this voice
		channel   uint8
		order     uint64 // activation order, for finding the oldest voice
	}

	// VoiceInfo is a snapshot of a voice, for inspection outside the audio
	// thread.
	VoiceInfo struct {
		Index   int
		Active  bool
		Held    bool
		Channel uint8
		Note    byte
		Order   uint64
	}
)

// MaxFrames is the number of frames the scratch buffer holds initially.
const MaxFrames = 4096

var ErrNoVoices = errors.New("voice pool needs at least one voice")

func NewVoicePool(numVoices int, sampleRate float32, tuning midisynth.Tuning) (*VoicePool, error) {
	if numVoices < 1 {
		return nil, ErrNoVoices
	}
	if tuning == nil {
		tuning = midisynth.EqualTemperament
	}
	return &VoicePool{
		voices:     make([]voice, numVoices),
		scratch:    make([]float32, 2*MaxFrames),
		sampleRate: sampleRate,
		tuning:     tuning,
	}, nil
}

// Trigger starts note on channel with the channel's current program. An idle
// voice is used if there is one; otherwise the oldest voice is reclaimed. A
// note already held on the channel keeps sounding and its voice index is
// returned unchanged. Returns -1 if nothing could be triggered.
func (p *VoicePool) Trigger(channel, note, velocity uint8, programs midisynth.ProgramTable, channels *ChannelTable) int {
	if len(programs) == 0 {
		return -1
	}
	if i := p.find(channel, note); i >= 0 {
		return i
	}
	i := p.idle()
	if i < 0 {
		i = p.oldest()
	}
	p.voices[i] = voice{}
	factory := programs.Lookup(channels.State(channel).Program).Factory
	generator := factory(p.sampleRate)
	if generator == nil {
		return -1
	}
	generator.Trigger(p.tuning(note), float32(velocity)/midisynth.MaxMIDIValue)
	p.voices[i] = voice{
		generator: generator,
		note:      note,
		held:      true,
		channel:   channel,
		order:     p.counter,
	}
	p.counter++
	return i
}

// Release releases the voice holding note on channel. Releasing a note that
// is not held does nothing.
func (p *VoicePool) Release(channel, note uint8) {
	if i := p.find(channel, note); i >= 0 {
		p.release(i)
	}
}

// ReleaseAll releases every voice on the channel. If silenceImmediately is
// false, the voices play their release tails (All Notes Off); if true, they
// are stopped at once (All Sound Off).
func (p *VoicePool) ReleaseAll(channel uint8, silenceImmediately bool) {
	for i := range p.voices {
		v := &p.voices[i]
		if v.generator == nil || v.channel != channel {
			continue
		}
		if silenceImmediately {
			*v = voice{}
		} else if v.held {
			p.release(i)
		}
	}
}

// Clear stops all voices on all channels immediately.
func (p *VoicePool) Clear() {
	for i := range p.voices {
		p.voices[i] = voice{}
	}
}

// Render sums all active voices into mix, which is interleaved stereo.
// Voices whose generator has finished become idle.
func (p *VoicePool) Render(mix []float32, channels *ChannelTable) {
	clear(mix)
	if cap(p.scratch) < len(mix) {
		p.scratch = make([]float32, len(mix))
	}
	scratch := p.scratch[:len(mix)]
	for i := range p.voices {
		v := &p.voices[i]
		if v.generator == nil {
			continue
		}
		if v.generator.Finished() {
			*v = voice{}
			continue
		}
		v.generator.Render(scratch, channels.BendFactor(v.channel))
		vek32.Add_Inplace(mix, scratch)
		if v.generator.Finished() {
			*v = voice{}
		}
	}
}

// Active returns the number of voices producing sound.
func (p *VoicePool) Active() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].active() {
			n++
		}
	}
	return n
}

func (p *VoicePool) Capacity() int { return len(p.voices) }

func (p *VoicePool) Voices() []VoiceInfo {
	ret := make([]VoiceInfo, len(p.voices))
	for i, v := range p.voices {
		ret[i] = VoiceInfo{Index: i, Active: v.active(), Held: v.held, Channel: v.channel, Note: v.note, Order: v.order}
	}
	return ret
}

// HeldNotes returns the notes currently held on the channel, in voice order.
func (p *VoicePool) HeldNotes(channel uint8) []byte {
	var ret []byte
	for _, v := range p.voices {
		if v.held && v.channel == channel && v.active() {
			ret = append(ret, v.note)
		}
	}
	return ret
}

func (v *voice) active() bool {
	return v.generator != nil && !v.generator.Finished()
}

func (p *VoicePool) find(channel, note uint8) int {
	for i, v := range p.voices {
		if v.held && v.channel == channel && v.note == note && v.generator != nil {
			return i
		}
	}
	return -1
}

func (p *VoicePool) idle() int {
	for i := range p.voices {
		if !p.voices[i].active() {
			return i
		}
	}
	return -1
}

// oldest returns the voice with the smallest activation order. The counter
// is never reused, so there are no ties.
func (p *VoicePool) oldest() int {
	oldest := 0
	for i := range p.voices {
		if p.voices[i].order < p.voices[oldest].order {
			oldest = i
		}
	}
	return oldest
}

func (p *VoicePool) release(i int) {
	v := &p.voices[i]
	v.held = false
	v.generator.Release()
	if v.generator.Finished() {
		*v = voice{}
	}
}
