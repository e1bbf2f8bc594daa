package cmd_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vsariola/midisynth/cmd"
)

func TestTuning(t *testing.T) {
	for _, name := range []string{"equal", "well"} {
		tuning, err := cmd.Tuning(name)
		if err != nil {
			t.Fatalf("Tuning(%q) failed: %v", name, err)
		}
		if f := tuning(69); f < 439 || f > 441 {
			t.Fatalf("%s tuning of A4: got %v", name, f)
		}
	}
	if _, err := cmd.Tuning("pythagorean"); err == nil {
		t.Fatal("unknown tuning accepted")
	}
}

func TestNewAudioHostRejectsUnknownBackend(t *testing.T) {
	if _, err := cmd.NewAudioHost("jack", 44100); err == nil {
		t.Fatal("unknown backend accepted")
	}
}

func TestLoadPresets(t *testing.T) {
	presets, err := cmd.LoadPresets("")
	if err != nil || len(presets) == 0 {
		t.Fatalf("built-in presets: got %d, %v", len(presets), err)
	}
	path := filepath.Join(t.TempDir(), "programs.json")
	if err := os.WriteFile(path, []byte(`{"programs": [{"name": "a", "wave": "saw"}, {"wave": "sine"}]}`), 0644); err != nil {
		t.Fatal(err)
	}
	presets, err = cmd.LoadPresets(path)
	if err != nil {
		t.Fatalf("LoadPresets failed: %v", err)
	}
	if len(presets) != 2 || presets[0].Patch.Name != "a" || !presets[1].User {
		t.Fatalf("presets: got %+v", presets)
	}
	if _, err := presets.Programs(); err != nil {
		t.Fatalf("Programs failed: %v", err)
	}
}
