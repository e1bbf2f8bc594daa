package live_test

import (
	"fmt"
	"testing"

	"github.com/vsariola/midisynth"
)

// testGen outputs a constant level until it is released, then keeps sounding
// for tail frames.
type testGen struct {
	program  int
	freq     float32
	velocity float32
	bend     float32
	tail     int
	released bool
	finished bool
}

const testLevel = 0.25

func (g *testGen) Trigger(freq, velocity float32) {
	g.freq, g.velocity = freq, velocity
}

func (g *testGen) Release() {
	g.released = true
	if g.tail <= 0 {
		g.finished = true
	}
}

func (g *testGen) Render(buffer []float32, bend float32) {
	g.bend = bend
	for i := 0; i+1 < len(buffer); i += 2 {
		if g.finished {
			buffer[i], buffer[i+1] = 0, 0
			continue
		}
		buffer[i], buffer[i+1] = testLevel, testLevel
		if g.released {
			g.tail--
			if g.tail <= 0 {
				g.finished = true
			}
		}
	}
}

func (g *testGen) Finished() bool { return g.finished }

// bank creates programs whose generators it remembers, in creation order.
type bank struct {
	tail int
	gens []*testGen
}

func (b *bank) table(t *testing.T, n int) midisynth.ProgramTable {
	t.Helper()
	programs := make([]midisynth.Program, n)
	for i := range programs {
		index := i
		programs[i] = midisynth.Program{
			Name: fmt.Sprintf("program %d", i),
			Factory: func(sampleRate float32) midisynth.Generator {
				g := &testGen{program: index, tail: b.tail}
				b.gens = append(b.gens, g)
				return g
			},
		}
	}
	table, err := midisynth.NewProgramTable(programs...)
	if err != nil {
		t.Fatalf("NewProgramTable failed: %v", err)
	}
	return table
}

func (b *bank) last() *testGen {
	if len(b.gens) == 0 {
		return nil
	}
	return b.gens[len(b.gens)-1]
}
