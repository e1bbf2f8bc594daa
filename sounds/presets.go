package sounds

import (
	"embed"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/vsariola/midisynth"
	"gopkg.in/yaml.v2"
)

//go:embed presets/*
var presetFS embed.FS

type (
	Preset struct {
		User  bool
		Patch Patch
	}

	// Presets are ordered by file name, built-in presets first; the order
	// gives their program numbers.
	Presets []Preset
)

// LoadPresets returns the built-in presets followed by the user presets in
// the midisynth/presets directory of the user's config directory, if there
// are any.
func LoadPresets() Presets {
	ret := BuiltinPresets()
	if configDir, err := os.UserConfigDir(); err == nil {
		ret = append(ret, ReadPresets(os.DirFS(filepath.Join(configDir, "midisynth")), true)...)
	}
	return ret
}

func BuiltinPresets() Presets {
	return ReadPresets(presetFS, false)
}

// ReadPresets reads the .yml files under the presets directory of fsys.
// Files that do not parse strictly as a valid Patch are skipped.
func ReadPresets(fsys fs.FS, user bool) Presets {
	var ret Presets
	fs.WalkDir(fsys, "presets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil
		}
		var patch Patch
		if yaml.UnmarshalStrict(data, &patch) != nil {
			return nil
		}
		if patch.Name == "" {
			patch.Name = filenameToPresetName(path)
		}
		if patch.Validate() != nil {
			return nil
		}
		ret = append(ret, Preset{User: user, Patch: patch})
		return nil
	})
	return ret
}

// filenameToPresetName turns "presets/03_pwm_pulse.yml" into "pwm pulse".
func filenameToPresetName(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.IndexByte(name, '_'); i > 0 && strings.IndexFunc(name[:i], func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		name = name[i+1:]
	}
	return strings.ReplaceAll(name, "_", " ")
}

// Programs builds a program table of the presets. Presets past the last
// MIDI program number are left out.
func (p Presets) Programs() (midisynth.ProgramTable, error) {
	patches := make([]Patch, 0, min(len(p), midisynth.NumProgramSlots))
	for _, preset := range p {
		if len(patches) == midisynth.NumProgramSlots {
			break
		}
		patches = append(patches, preset.Patch)
	}
	return Programs(patches...)
}

// Find returns the index of the first preset whose name contains s, ignoring
// case.
func (p Presets) Find(s string) (int, bool) {
	s = strings.ToLower(s)
	for i, preset := range p {
		if strings.Contains(strings.ToLower(preset.Patch.Name), s) {
			return i, true
		}
	}
	return -1, false
}
