//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vsariola/midisynth/live"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext listens to one MIDI input at a time and pushes the
	// translated messages to the broker's queue. The driver calls
	// HandleMessage from its own thread.
	RTMIDIContext struct {
		driver             *rtmididrv.Driver
		broker             *live.Broker
		inputDevices       []RTMIDIDevice
		devicesInitialized bool

		mu        sync.Mutex
		currentIn drivers.In
		stop      func()
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}
)

// Open the driver.
func NewContext(broker *live.Broker) *RTMIDIContext {
	m := RTMIDIContext{broker: broker}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) Inputs(yield func(live.MIDIInputDevice) bool) {
	if !m.devicesInitialized {
		m.initInputDevices()
	}
	for _, device := range m.inputDevices {
		if !yield(device) {
			break
		}
	}
}

func (m *RTMIDIContext) initInputDevices() {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		m.inputDevices = append(m.inputDevices, RTMIDIDevice{context: m, in: in})
	}
	m.devicesInitialized = true
}

func (m *RTMIDIContext) Support() live.MIDISupport {
	if m.driver == nil {
		return live.MIDISupportNoDriver
	}
	return live.MIDISupported
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentIn == d.in {
		return nil
	}
	if c.driver == nil {
		return errors.New("no driver available")
	}
	c.closeCurrent()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, c.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	c.currentIn = d.in
	c.stop = stop
	return nil
}

func (d RTMIDIDevice) Close() error {
	c := d.context
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentIn != d.in {
		return d.in.Close()
	}
	return c.closeCurrent()
}

func (d RTMIDIDevice) IsOpen() bool   { return d.in.IsOpen() }
func (d RTMIDIDevice) String() string { return d.in.String() }

// HandleMessage translates msg and queues it for the player. Input is ignored
// once a shutdown has been requested.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	if c.broker.Quit() {
		return
	}
	if m, ok := Translate(msg); ok {
		c.broker.Queue.Push(m)
	}
}

// Close is the input side of the shutdown: it requests the player to reset,
// stops listening and closes the driver.
func (c *RTMIDIContext) Close() {
	c.broker.RequestReset()
	c.mu.Lock()
	c.closeCurrent()
	c.mu.Unlock()
	if c.driver != nil {
		c.driver.Close()
	}
}

func (c *RTMIDIContext) closeCurrent() error {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn == nil {
		return nil
	}
	in := c.currentIn
	c.currentIn = nil
	if !in.IsOpen() {
		return nil
	}
	return in.Close()
}
