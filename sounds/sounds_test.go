package sounds_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/vsariola/midisynth"
	"github.com/vsariola/midisynth/sounds"
)

const sampleRate = 44100

func render(g midisynth.Generator, frames int) []float32 {
	buf := make([]float32, 2*frames)
	g.Render(buf, 1)
	return buf
}

func peak(buf []float32) float32 {
	var p float32
	for _, v := range buf {
		p = max(p, float32(math.Abs(float64(v))))
	}
	return p
}

func TestEveryWaveSounds(t *testing.T) {
	for _, wave := range []sounds.Waveform{sounds.Sine, sounds.Triangle, sounds.Saw, sounds.Pulse, sounds.Noise} {
		t.Run(string(wave), func(t *testing.T) {
			g := sounds.Patch{Name: "test", Wave: wave}.Factory()(sampleRate)
			g.Trigger(440, 1)
			buf := render(g, 1000)
			if p := peak(buf); p < 0.5 || p > 1 {
				t.Fatalf("peak: got %v, want 0.5..1", p)
			}
			for i := 0; i < len(buf); i += 2 {
				if buf[i] != buf[i+1] {
					t.Fatalf("frame %d: left %v and right %v differ", i/2, buf[i], buf[i+1])
				}
			}
		})
	}
}

func TestGateEnvelope(t *testing.T) {
	g := sounds.Patch{Name: "gate", Wave: sounds.Saw}.Factory()(sampleRate)
	g.Trigger(220, 0.5)
	if p := peak(render(g, 500)); p > 0.5 || p < 0.4 {
		t.Fatalf("peak at velocity 0.5: got %v", p)
	}
	g.Release()
	render(g, 1)
	if !g.Finished() {
		t.Fatal("gate not finished right after release")
	}
	if p := peak(render(g, 100)); p != 0 {
		t.Fatalf("finished generator produced %v", p)
	}
}

func TestADSREnvelope(t *testing.T) {
	p := sounds.Patch{
		Name:     "adsr",
		Wave:     sounds.Pulse,
		Envelope: sounds.Envelope{Attack: 0.1, Decay: 0.2, Sustain: 0.4, Release: 0.4},
	}
	g := p.Factory()(sampleRate)
	g.Trigger(110, 1)
	attack := render(g, sampleRate/100)
	if peak(attack) > 0.2 {
		t.Fatalf("attack too fast: peak %v after 10 ms", peak(attack))
	}
	render(g, sampleRate) // well into sustain
	sustain := render(g, 1000)
	if got := peak(sustain); math.Abs(float64(got-0.4)) > 1e-3 {
		t.Fatalf("sustain level: got %v, want 0.4", got)
	}
	g.Release()
	render(g, sampleRate/10)
	if g.Finished() {
		t.Fatal("release ended too early")
	}
	render(g, sampleRate/2)
	if !g.Finished() {
		t.Fatal("release did not end")
	}
}

func TestBendRaisesPitch(t *testing.T) {
	crossings := func(bend float32) int {
		g := sounds.Patch{Name: "sine", Wave: sounds.Sine}.Factory()(sampleRate)
		g.Trigger(441, 1)
		buf := make([]float32, 2*sampleRate)
		g.Render(buf, bend)
		n := 0
		for i := 2; i < len(buf); i += 2 {
			if buf[i-2] < 0 && buf[i] >= 0 {
				n++
			}
		}
		return n
	}
	if n := crossings(1); n < 439 || n > 443 {
		t.Fatalf("unbent: %d cycles per second, want 441", n)
	}
	if n := crossings(2); n < 880 || n > 884 {
		t.Fatalf("bent an octave up: %d cycles per second, want 882", n)
	}
}

func TestFilterDampensNoise(t *testing.T) {
	open := sounds.Patch{Name: "open", Wave: sounds.Noise}.Factory()(sampleRate)
	closed := sounds.Patch{Name: "closed", Wave: sounds.Noise, Filter: &sounds.Filter{Cutoff: 200}}.Factory()(sampleRate)
	open.Trigger(440, 1)
	closed.Trigger(440, 1)
	energy := func(buf []float32) (e float64) {
		for _, v := range buf {
			e += float64(v * v)
		}
		return e
	}
	if eo, ec := energy(render(open, 4096)), energy(render(closed, 4096)); ec > eo/4 {
		t.Fatalf("low-passed noise has energy %v, unfiltered %v", ec, eo)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		patch sounds.Patch
		ok    bool
	}{
		{"triangle", sounds.Patch{Wave: sounds.Triangle}, true},
		{"unknown wave", sounds.Patch{Wave: "organ"}, false},
		{"duty", sounds.Patch{Wave: sounds.Pulse, Duty: 1.5}, false},
		{"sustain", sounds.Patch{Wave: sounds.Saw, Envelope: sounds.Envelope{Sustain: 2}}, false},
		{"negative release", sounds.Patch{Wave: sounds.Saw, Envelope: sounds.Envelope{Release: -1}}, false},
		{"zero cutoff", sounds.Patch{Wave: sounds.Saw, Filter: &sounds.Filter{}}, false},
		{"resonance", sounds.Patch{Wave: sounds.Saw, Filter: &sounds.Filter{Cutoff: 100, Resonance: 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if !tt.ok && !errors.Is(err, sounds.ErrInvalidPatch) {
				t.Fatalf("Validate: got %v, want ErrInvalidPatch", err)
			}
		})
	}
}

func TestBuiltinPresets(t *testing.T) {
	presets := sounds.BuiltinPresets()
	if len(presets) < 5 {
		t.Fatalf("only %d built-in presets", len(presets))
	}
	if presets[0].Patch.Name != "simple triangle" {
		t.Fatalf("first preset: got %q, want simple triangle", presets[0].Patch.Name)
	}
	if i, ok := presets.Find("MOOG"); !ok || presets[i].Patch.Filter == nil {
		t.Fatal("moog preset with a filter not found")
	}
	table, err := presets.Programs()
	if err != nil {
		t.Fatalf("Programs failed: %v", err)
	}
	for _, program := range table {
		result, err := sounds.Probe(program, 60, sampleRate, 2*time.Second)
		if err != nil {
			t.Fatalf("Probe failed: %v", err)
		}
		if result.Max <= 0 || result.Min >= 0 {
			t.Fatalf("program %q is silent: %v", program.Name, result)
		}
		if result.Max > 1.5 || result.Min < -1.5 {
			t.Fatalf("program %q is too loud: %v", program.Name, result)
		}
	}
}

func TestReadPresets(t *testing.T) {
	fsys := fstest.MapFS{
		"presets/bass/01_deep_bass.yml": {Data: []byte("wave: sine\nenvelope: {release: 0.1}\n")},
		"presets/02_buzz.yml":           {Data: []byte("wave: saw\n")},
		"presets/broken.yml":            {Data: []byte("wave: saw\ncolour: red\n")},
		"presets/invalid.yml":           {Data: []byte("wave: organ\n")},
		"presets/readme.txt":            {Data: []byte("not a preset")},
	}
	presets := sounds.ReadPresets(fsys, true)
	if len(presets) != 2 {
		t.Fatalf("read %d presets, want 2", len(presets))
	}
	if presets[0].Patch.Name != "buzz" || presets[1].Patch.Name != "deep bass" {
		t.Fatalf("names: got %q and %q", presets[0].Patch.Name, presets[1].Patch.Name)
	}
	if !presets[0].User {
		t.Fatal("preset not marked as user preset")
	}
}

func TestParsePrograms(t *testing.T) {
	yml := `
programs:
  - name: lead
    wave: saw
    envelope: {attack: 0.01, decay: 0.2, sustain: 0.5, release: 0.3}
  - wave: pulse
    duty: 0.25
`
	patches, err := sounds.ParsePrograms([]byte(yml))
	if err != nil {
		t.Fatalf("ParsePrograms(yml) failed: %v", err)
	}
	if len(patches) != 2 || patches[0].Name != "lead" || patches[1].Name != "program 1" || patches[1].Duty != 0.25 {
		t.Fatalf("parsed %+v", patches)
	}
	json := `{"programs": [{"name": "sub", "wave": "sine", "filter": {"cutoff": 300}}]}`
	patches, err = sounds.ParsePrograms([]byte(json))
	if err != nil {
		t.Fatalf("ParsePrograms(json) failed: %v", err)
	}
	if len(patches) != 1 || patches[0].Filter == nil || patches[0].Filter.Cutoff != 300 {
		t.Fatalf("parsed %+v", patches)
	}
	if _, err := sounds.ParsePrograms([]byte("programs:\n  - wave: saw\n    volume: 3\n")); err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestReadProgramFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "programs.yml")
	if err := os.WriteFile(path, []byte("programs:\n  - {name: a, wave: sine}\n  - {name: b, wave: organ}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := sounds.ReadProgramFile(path); !errors.Is(err, sounds.ErrInvalidPatch) {
		t.Fatalf("ReadProgramFile with invalid wave: got %v, want ErrInvalidPatch", err)
	}
	if err := os.WriteFile(path, []byte("programs:\n  - {name: a, wave: sine}\n  - {name: b, wave: saw}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	presets, err := sounds.ReadProgramFile(path)
	if err != nil {
		t.Fatalf("ReadProgramFile failed: %v", err)
	}
	if len(presets) != 2 || !presets[1].User {
		t.Fatalf("presets: got %+v", presets)
	}
	table, err := presets.Programs()
	if err != nil {
		t.Fatalf("Programs failed: %v", err)
	}
	if names := table.Names(); len(names) != 2 || names[1] != "b" {
		t.Fatalf("names: got %v", names)
	}
	if _, err := sounds.ReadProgramFile(filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatal("missing file loaded")
	}
}

func TestWriteListing(t *testing.T) {
	var sb strings.Builder
	presets := sounds.Presets{
		{Patch: sounds.Patch{Name: "simple triangle", Wave: sounds.Triangle}},
		{User: true, Patch: sounds.Patch{Name: "moog", Wave: sounds.Saw, Filter: &sounds.Filter{Cutoff: 1100, CutoffEnd: 11000}}},
	}
	if err := sounds.WriteListing(&sb, presets); err != nil {
		t.Fatalf("WriteListing failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("listing has %d lines, want 2:\n%s", len(lines), sb.String())
	}
	for _, want := range []string{"0", "Simple Triangle", "TRIANGLE"} {
		if !strings.Contains(lines[0], want) {
			t.Fatalf("line %q does not contain %q", lines[0], want)
		}
	}
	for _, want := range []string{"1", "Moog", "SAW", "lowpass 1100..11000 Hz", "(user)"} {
		if !strings.Contains(lines[1], want) {
			t.Fatalf("line %q does not contain %q", lines[1], want)
		}
	}
}

func TestProbeRejectsEmptyDuration(t *testing.T) {
	program := sounds.Patch{Name: "sine", Wave: sounds.Sine}.Program()
	if _, err := sounds.Probe(program, 60, sampleRate, 0); err == nil {
		t.Fatal("Probe with zero duration succeeded")
	}
}
