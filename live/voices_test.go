package live_test

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/vsariola/midisynth"
	"github.com/vsariola/midisynth/live"
)

func newPool(t *testing.T, n int) *live.VoicePool {
	t.Helper()
	p, err := live.NewVoicePool(n, 44100, nil)
	if err != nil {
		t.Fatalf("NewVoicePool(%d) failed: %v", n, err)
	}
	return p
}

func heldSorted(p *live.VoicePool, channel uint8) []byte {
	notes := p.HeldNotes(channel)
	slices.Sort(notes)
	return notes
}

func TestNewVoicePoolNeedsVoices(t *testing.T) {
	if _, err := live.NewVoicePool(0, 44100, nil); !errors.Is(err, live.ErrNoVoices) {
		t.Fatalf("NewVoicePool(0): got %v, want ErrNoVoices", err)
	}
}

func TestOldestVoiceIsReclaimed(t *testing.T) {
	var b bank
	programs := b.table(t, 1)
	channels := live.NewChannelTable(1)
	p := newPool(t, 2)
	for _, note := range []uint8{60, 64, 67} {
		p.Trigger(0, note, 100, programs, channels)
	}
	if got, want := heldSorted(p, 0), []byte{64, 67}; !slices.Equal(got, want) {
		t.Fatalf("held notes: got %v, want %v", got, want)
	}
	if p.Active() != 2 {
		t.Fatalf("active voices: got %d, want 2", p.Active())
	}
	// releasing the stolen note must not touch the voice that took it over
	p.Release(0, 60)
	if got, want := heldSorted(p, 0), []byte{64, 67}; !slices.Equal(got, want) {
		t.Fatalf("held notes after releasing stolen note: got %v, want %v", got, want)
	}
}

func TestIdleVoicesArePreferred(t *testing.T) {
	var b bank
	programs := b.table(t, 1)
	channels := live.NewChannelTable(1)
	p := newPool(t, 3)
	p.Trigger(0, 60, 100, programs, channels)
	p.Trigger(0, 62, 100, programs, channels)
	p.Release(0, 60)
	p.Trigger(0, 64, 100, programs, channels)
	p.Trigger(0, 65, 100, programs, channels)
	if got, want := heldSorted(p, 0), []byte{62, 64, 65}; !slices.Equal(got, want) {
		t.Fatalf("held notes: got %v, want %v", got, want)
	}
}

func TestCapacityIsNeverExceeded(t *testing.T) {
	var b bank
	b.tail = 3
	programs := b.table(t, 2)
	channels := live.NewChannelTable(1)
	p := newPool(t, 4)
	r := rand.New(rand.NewSource(1))
	buf := make([]float32, 4)
	for i := 0; i < 2000; i++ {
		channel := uint8(r.Intn(3))
		note := uint8(r.Intn(12) + 60)
		switch r.Intn(4) {
		case 0, 1:
			p.Trigger(channel, note, 100, programs, channels)
		case 2:
			p.Release(channel, note)
		case 3:
			p.Render(buf, channels)
		}
		if a := p.Active(); a > p.Capacity() {
			t.Fatalf("step %d: %d active voices in a pool of %d", i, a, p.Capacity())
		}
		for channel := uint8(0); channel < 3; channel++ {
			notes := heldSorted(p, channel)
			if len(slices.Compact(slices.Clone(notes))) != len(notes) {
				t.Fatalf("step %d: note held twice on channel %d: %v", i, channel, notes)
			}
		}
	}
}

func TestDuplicateNoteOnIsIgnored(t *testing.T) {
	var b bank
	b.tail = 100
	programs := b.table(t, 1)
	channels := live.NewChannelTable(1)
	p := newPool(t, 4)
	first := p.Trigger(0, 60, 100, programs, channels)
	if again := p.Trigger(0, 60, 50, programs, channels); again != first {
		t.Fatalf("duplicate note on: got voice %d, want %d", again, first)
	}
	if got := p.HeldNotes(0); !slices.Equal(got, []byte{60}) {
		t.Fatalf("held notes: got %v, want [60]", got)
	}
	if p.Active() != 1 || len(b.gens) != 1 {
		t.Fatalf("got %d active voices and %d generators, want 1 and 1", p.Active(), len(b.gens))
	}
	if b.gens[0].released || b.gens[0].velocity != float32(100)/127 {
		t.Fatalf("first generator changed: released %v, velocity %v", b.gens[0].released, b.gens[0].velocity)
	}
	// once released, the same note starts a new voice
	p.Release(0, 60)
	p.Trigger(0, 60, 100, programs, channels)
	if p.Active() != 2 || len(b.gens) != 2 {
		t.Fatalf("note on after release: got %d active voices and %d generators, want 2 and 2", p.Active(), len(b.gens))
	}
}

func TestReleaseTail(t *testing.T) {
	var b bank
	b.tail = 4
	programs := b.table(t, 1)
	channels := live.NewChannelTable(1)
	p := newPool(t, 2)
	p.Trigger(0, 60, 100, programs, channels)
	p.Release(0, 60)
	if len(p.HeldNotes(0)) != 0 {
		t.Fatal("note still held after release")
	}
	buf := make([]float32, 4)
	p.Render(buf, channels)
	if p.Active() != 1 {
		t.Fatalf("voice stopped before its tail ended")
	}
	if buf[0] != testLevel {
		t.Fatalf("tail sample: got %v, want %v", buf[0], testLevel)
	}
	p.Render(buf, channels)
	if p.Active() != 0 {
		t.Fatalf("voice still active after its tail ended")
	}
}

func TestReleaseUnheldNoteDoesNothing(t *testing.T) {
	var b bank
	programs := b.table(t, 1)
	channels := live.NewChannelTable(1)
	p := newPool(t, 2)
	p.Trigger(0, 60, 100, programs, channels)
	p.Release(1, 60)
	p.Release(0, 61)
	if got := p.HeldNotes(0); !slices.Equal(got, []byte{60}) {
		t.Fatalf("held notes: got %v, want [60]", got)
	}
}

func TestReleaseAll(t *testing.T) {
	var b bank
	b.tail = 1000
	programs := b.table(t, 1)
	channels := live.NewChannelTable(1)
	p := newPool(t, 8)
	for _, note := range []uint8{60, 62, 64} {
		p.Trigger(0, note, 100, programs, channels)
		p.Trigger(1, note, 100, programs, channels)
	}
	p.ReleaseAll(0, false)
	if len(p.HeldNotes(0)) != 0 {
		t.Fatal("notes still held on channel 0 after all notes off")
	}
	if p.Active() != 6 {
		t.Fatalf("all notes off should leave tails sounding: %d active, want 6", p.Active())
	}
	p.ReleaseAll(0, true)
	buf := make([]float32, 8)
	p.Render(buf, channels)
	if p.Active() != 3 {
		t.Fatalf("all sound off on channel 0: %d active, want 3", p.Active())
	}
	if got, want := heldSorted(p, 1), []byte{60, 62, 64}; !slices.Equal(got, want) {
		t.Fatalf("channel 1 affected: got %v, want %v", got, want)
	}
	p.Clear()
	if p.Active() != 0 {
		t.Fatalf("Clear left %d voices active", p.Active())
	}
}

func TestAllNotesOffTailsFinish(t *testing.T) {
	var b bank
	b.tail = 3
	programs := b.table(t, 1)
	channels := live.NewChannelTable(1)
	p := newPool(t, 4)
	p.Trigger(0, 60, 100, programs, channels)
	p.Trigger(0, 64, 100, programs, channels)
	p.ReleaseAll(0, false)
	buf := make([]float32, 4)
	p.Render(buf, channels)
	if p.Active() != 2 {
		t.Fatalf("tails stopped early: %d active, want 2", p.Active())
	}
	p.Render(buf, channels)
	if p.Active() != 0 {
		t.Fatalf("%d voices active after their tails ended", p.Active())
	}
	if i := p.Trigger(0, 67, 100, programs, channels); i != 0 {
		t.Fatalf("finished voice not reused: got voice %d, want 0", i)
	}
}

func TestTriggerUsesChannelProgramAndTuning(t *testing.T) {
	var b bank
	programs := b.table(t, 4)
	channels := live.NewChannelTable(1)
	if err := channels.SetProgram(2, 3, len(programs)); err != nil {
		t.Fatalf("SetProgram failed: %v", err)
	}
	p := newPool(t, 2)
	p.Trigger(2, 69, 127, programs, channels)
	g := b.last()
	if g.program != 3 {
		t.Fatalf("program: got %d, want 3", g.program)
	}
	if math.Abs(float64(g.freq-440)) > 1e-3 {
		t.Fatalf("frequency: got %v, want 440", g.freq)
	}
	if g.velocity != 1 {
		t.Fatalf("velocity: got %v, want 1", g.velocity)
	}
}

func TestRenderMixesAndBends(t *testing.T) {
	var b bank
	programs := b.table(t, 1)
	channels := live.NewChannelTable(2)
	channels.SetBend(0, midisynth.MaxBend)
	p := newPool(t, 4)
	p.Trigger(0, 60, 100, programs, channels)
	p.Trigger(1, 60, 100, programs, channels)
	buf := make([]float32, 2*live.MaxFrames+2)
	p.Render(buf, channels)
	for i, v := range buf {
		if v != 2*testLevel {
			t.Fatalf("sample %d: got %v, want %v", i, v, 2*testLevel)
		}
	}
	if got, want := b.gens[0].bend, channels.BendFactor(0); got != want {
		t.Fatalf("bend of channel 0: got %v, want %v", got, want)
	}
	if b.gens[1].bend != 1 {
		t.Fatalf("bend of channel 1: got %v, want 1", b.gens[1].bend)
	}
}

func TestTriggerWithoutProgramsDoesNothing(t *testing.T) {
	p := newPool(t, 2)
	if i := p.Trigger(0, 60, 100, nil, live.NewChannelTable(1)); i != -1 {
		t.Fatalf("Trigger with no programs returned %d, want -1", i)
	}
	if p.Active() != 0 {
		t.Fatal("voice triggered without programs")
	}
}
