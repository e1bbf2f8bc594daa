// Package cmd has the parts shared by the midisynth commands.
package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vsariola/midisynth"
	"github.com/vsariola/midisynth/beepout"
	"github.com/vsariola/midisynth/oto"
	"github.com/vsariola/midisynth/sounds"
)

var Tunings = map[string]midisynth.Tuning{
	"equal": midisynth.EqualTemperament,
	"well":  midisynth.WellTemperament,
}

// Backends lists the names accepted by NewAudioHost.
var Backends = []string{"oto", "beep"}

// speakerLatency is the buffer length of the beep speaker.
const speakerLatency = 50 * time.Millisecond

func NewAudioHost(backend string, sampleRate int) (midisynth.AudioHost, error) {
	switch backend {
	case "oto":
		c, err := oto.NewContext(sampleRate)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "beep":
		s, err := beepout.NewSpeaker(sampleRate, speakerLatency)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown audio backend %q, expected one of %s", backend, strings.Join(Backends, ", "))
}

func Tuning(name string) (midisynth.Tuning, error) {
	if t, ok := Tunings[name]; ok {
		return t, nil
	}
	names := make([]string, 0, len(Tunings))
	for k := range Tunings {
		names = append(names, k)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown tuning %q, expected one of %s", name, strings.Join(names, ", "))
}

// LoadPresets returns the presets of a program file, or the built-in and user
// presets if path is empty.
func LoadPresets(path string) (sounds.Presets, error) {
	if path == "" {
		return sounds.LoadPresets(), nil
	}
	return sounds.ReadProgramFile(path)
}
