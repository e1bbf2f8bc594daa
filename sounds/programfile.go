package sounds

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProgramFile is a list of patches, in program number order:
//
//	programs:
//	  - name: lead
//	    wave: saw
//	    envelope: {attack: 0.01, decay: 0.2, sustain: 0.5, release: 0.3}
type ProgramFile struct {
	Programs []Patch `yaml:"programs" json:"programs"`
}

// ParsePrograms parses a program file given as .json or .yml. Unknown fields
// are errors in both formats.
func ParsePrograms(data []byte) ([]Patch, error) {
	var file ProgramFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if errJSON := dec.Decode(&file); errJSON != nil {
		file = ProgramFile{}
		ydec := yaml.NewDecoder(bytes.NewReader(data))
		ydec.KnownFields(true)
		if errYaml := ydec.Decode(&file); errYaml != nil {
			return nil, fmt.Errorf("the programs could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	for i := range file.Programs {
		if file.Programs[i].Name == "" {
			file.Programs[i].Name = fmt.Sprintf("program %d", i)
		}
	}
	return file.Programs, nil
}

// ReadProgramFile reads a program file as user presets. All the patches must
// be valid.
func ReadProgramFile(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read program file %v: %w", path, err)
	}
	patches, err := ParsePrograms(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	presets := make(Presets, len(patches))
	for i := range patches {
		if err := patches[i].Validate(); err != nil {
			return nil, fmt.Errorf("%v: %w", path, err)
		}
		presets[i] = Preset{User: true, Patch: patches[i]}
	}
	return presets, nil
}
