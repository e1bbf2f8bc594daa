package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/vsariola/midisynth"
	"github.com/vsariola/midisynth/cmd"
	"github.com/vsariola/midisynth/live"
	"github.com/vsariola/midisynth/version"
)

var programsFile = flag.String("programs", "", "read the programs from a .yml or .json `file` instead of the presets")
var backend = flag.String("backend", "oto", "audio backend: "+strings.Join(cmd.Backends, " or "))
var sampleRate = flag.Int("rate", midisynth.DefaultSampleRate, "sample rate in Hz")
var voices = flag.Int("voices", live.DefaultVoices, "maximum number of notes sounding at once")
var tuningName = flag.String("tuning", "equal", "tuning: equal or well")
var gain = flag.Float64("gain", live.DefaultGain, "master gain")
var channel = flag.Uint("channel", 0, "MIDI channel the keys play on")
var startProgram = flag.String("program", "", "start with the first program whose name contains `text`")
var versionFlag = flag.Bool("v", false, "print version")

const help = "keys play notes  -/= octave  [/] program  space notes off  backspace sound off  esc quit"

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if *channel >= midisynth.NumChannels {
		log.Fatalf("channel %d out of range", *channel)
	}
	presets, err := cmd.LoadPresets(*programsFile)
	if err != nil {
		log.Fatal(err)
	}
	programs, err := presets.Programs()
	if err != nil {
		log.Fatal(err)
	}
	tuning, err := cmd.Tuning(*tuningName)
	if err != nil {
		log.Fatal(err)
	}
	start := 0
	if *startProgram != "" {
		i, ok := presets.Find(*startProgram)
		if !ok || i >= len(programs) {
			log.Fatalf("no program matching %q", *startProgram)
		}
		start = i
	}
	if err := run(programs, tuning, start); err != nil {
		log.Fatal(err)
	}
}

func run(programs midisynth.ProgramTable, tuning midisynth.Tuning, start int) error {
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
		Gain:       float32(*gain),
	})
	if err != nil {
		return err
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	output, err := host.Play(player)
	if err != nil {
		screen.Fini()
		return err
	}
	keys := newKeyboard(broker, uint8(*channel))
	keys.setProgram(start)
	go func() {
		for {
			select {
			case s := <-broker.Status:
				screen.PostEvent(tcell.NewEventInterrupt(s))
			case a := <-broker.Alerts:
				screen.PostEvent(tcell.NewEventInterrupt(a))
			case <-player.Finished():
				return
			}
		}
	}()

	var status live.Status
	draw := func() {
		screen.Clear()
		drawText(screen, 0, 0, fmt.Sprintf("midisynth %s", version.VersionOrHash))
		drawText(screen, 0, 1, help)
		name := programs.Lookup(keys.program).Name
		drawText(screen, 0, 3, fmt.Sprintf("channel %d  octave %d  program %d %s", keys.channel, keys.octave, keys.program, name))
		drawText(screen, 0, 4, fmt.Sprintf("voices %d/%d  peak %.2f", status.ActiveVoices, *voices, status.Peak))
		drawText(screen, 0, 6, keys.last)
		screen.Show()
	}
	draw()
loop:
	for {
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventKey:
			switch ev.Key() {
			case tcell.KeyEscape, tcell.KeyCtrlC:
				break loop
			case tcell.KeyBackspace, tcell.KeyBackspace2:
				keys.silence()
			case tcell.KeyRune:
				keys.key(ev.Rune())
			}
		case *tcell.EventInterrupt:
			switch d := ev.Data().(type) {
			case live.Status:
				status = d
			case live.Alert:
				keys.last = fmt.Sprintf("%v: %s", d.Priority, d.Message)
			}
		case *tcell.EventResize:
			screen.Sync()
		}
		draw()
	}
	screen.Fini()
	keys.silence()
	if !broker.Stop(player.Finished(), 3*time.Second) {
		log.Print("player did not finish in time")
	}
	if err := output.Close(); err != nil {
		log.Printf("closing audio output: %v", err)
	}
	return nil
}

func drawText(screen tcell.Screen, x, y int, text string) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, tcell.StyleDefault)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Plays the synthesizer from the computer keyboard.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
