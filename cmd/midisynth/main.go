package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/vsariola/midisynth"
	"github.com/vsariola/midisynth/cmd"
	"github.com/vsariola/midisynth/live"
	"github.com/vsariola/midisynth/sounds"
	"github.com/vsariola/midisynth/version"
)

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var midiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
var firstInput = flag.Bool("first", false, "connect to the first MIDI input device")
var programsFile = flag.String("programs", "", "read the programs from a .yml or .json `file` instead of the presets")
var list = flag.Bool("list", false, "list the programs and MIDI inputs, then exit")
var probe = flag.Bool("probe", false, "render every program offline and print its sample range, then exit")
var backend = flag.String("backend", "oto", "audio backend: "+strings.Join(cmd.Backends, " or "))
var sampleRate = flag.Int("rate", midisynth.DefaultSampleRate, "sample rate in Hz")
var voices = flag.Int("voices", live.DefaultVoices, "maximum number of notes sounding at once")
var tuningName = flag.String("tuning", "equal", "tuning: equal or well")
var bendRange = flag.Float64("bend", midisynth.DefaultBendRange, "pitch bend range in semitones")
var gain = flag.Float64("gain", live.DefaultGain, "master gain")
var record = flag.String("record", "", "record the output to a .wav `file`, or to headerless samples if it ends with .raw or .pcm")
var pcm = flag.Bool("c", false, "record 16-bit signed PCM instead of floats")
var versionFlag = flag.Bool("v", false, "print version")

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	presets, err := cmd.LoadPresets(*programsFile)
	if err != nil {
		log.Fatal(err)
	}
	programs, err := presets.Programs()
	if err != nil {
		log.Fatal(err)
	}
	if *list {
		if err := sounds.WriteListing(os.Stdout, presets); err != nil {
			log.Fatal(err)
		}
		listInputs(programs)
		os.Exit(0)
	}
	if *probe {
		for _, p := range programs {
			result, err := sounds.Probe(p, 60, *sampleRate, 2*time.Second)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("%-20s %v\n", p.Name, result)
		}
		os.Exit(0)
	}
	tuning, err := cmd.Tuning(*tuningName)
	if err != nil {
		log.Fatal(err)
	}
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer f.Close()
		defer pprof.StopCPUProfile()
	}
	if err := run(programs, tuning); err != nil {
		log.Fatal(err)
	}
}

func run(programs midisynth.ProgramTable, tuning midisynth.Tuning) error {
	host, err := cmd.NewAudioHost(*backend, *sampleRate)
	if err != nil {
		return err
	}
	defer func() {
		if err := host.Close(); err != nil {
			log.Printf("closing audio host: %v", err)
		}
	}()
	broker, err := live.NewBroker(programs)
	if err != nil {
		return err
	}
	player, err := live.NewPlayer(broker, live.PlayerOptions{
		Voices:     *voices,
		SampleRate: host.SampleRate(),
		Tuning:     tuning,
		BendRange:  float32(*bendRange),
		Gain:       float32(*gain),
	})
	if err != nil {
		return err
	}
	midiContext := cmd.NewMidiContext(broker)
	input, err := live.OpenMIDIInput(midiContext, *midiInput, *firstInput || *midiInput == "")
	if err != nil {
		err = fmt.Errorf("could not open MIDI input (MIDI support: %v, inputs: %q): %w", midiContext.Support(), live.MIDIInputNames(midiContext), err)
		midiContext.Close()
		return err
	}
	log.Printf("listening to MIDI input %s", input)

	var source midisynth.AudioSource = player
	var recorder *live.Recorder
	if *record != "" {
		recorder = live.NewRecorder(player, broker)
		source = recorder
	}
	output, err := host.Play(source)
	if err != nil {
		midiContext.Close()
		return err
	}
	go func() {
		for {
			select {
			case a := <-broker.Alerts:
				log.Printf("%v: %s: %s", a.Priority, a.Name, a.Message)
			case <-player.Finished():
				return
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
		log.Print("stopping")
	case <-player.Finished():
		log.Print("MIDI input sent a system reset")
	}
	// closing the context requests the player to reset and stops the input
	midiContext.Close()
	select {
	case <-player.Finished():
	case <-time.After(3 * time.Second):
		log.Print("player did not finish in time")
	}
	if err := output.Close(); err != nil {
		log.Printf("closing audio output: %v", err)
	}
	if recorder != nil {
		return writeRecording(recorder.Close(), host.SampleRate())
	}
	return nil
}

func writeRecording(data []float32, sampleRate int) error {
	f, err := os.Create(*record)
	if err != nil {
		return fmt.Errorf("could not create file %v: %w", *record, err)
	}
	w := bufio.NewWriter(f)
	err = midisynth.Export(w, data, sampleRate, midisynth.ExportFormatFor(*record, *pcm))
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("could not write file %v: %w", *record, err)
	}
	log.Printf("wrote %v", *record)
	return nil
}

func listInputs(programs midisynth.ProgramTable) {
	broker, err := live.NewBroker(programs)
	if err != nil {
		return
	}
	midiContext := cmd.NewMidiContext(broker)
	defer midiContext.Close()
	fmt.Printf("\nMIDI inputs (%v):\n", midiContext.Support())
	for _, name := range live.MIDIInputNames(midiContext) {
		fmt.Printf("  %s\n", name)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Polyphonic synthesizer playing notes from a MIDI input.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
