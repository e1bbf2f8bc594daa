package live

import (
	"sync/atomic"

	"github.com/vsariola/midisynth"
)

type (
	// Shutdown coordinates stopping the synthesizer between the input side and
	// the player. The input side calls Request, which raises the quit flag and
	// queues one SystemReset. The player, when it pops the reset, clears its
	// state, lowers the flag again and exits. After that the same queue and
	// flag can serve a new player.
	//
	// A Shutdown owned by a Broker starts detached: requests are refused until
	// a player attaches, and the player detaches again when it exits. The zero
	// Shutdown is attached and Running.
	Shutdown struct {
		state atomic.Int32
	}

	ShutdownState int32
)

const (
	Running        ShutdownState = iota // no shutdown in progress
	ResetRequested                      // the input side asked the player to reset and exit
	Resetting                           // the player is clearing its state
)

const (
	stateMask = 0x3
	detached  = 0x4 // no player is consuming the queue
)

// Request starts the shutdown handshake: the state moves from Running to
// ResetRequested and a SystemReset is pushed to q. Returns false, and pushes
// nothing, if a shutdown is already in progress or no player is attached.
func (s *Shutdown) Request(q *Queue) bool {
	if !s.state.CompareAndSwap(int32(Running), int32(ResetRequested)) {
		return false
	}
	q.Push(midisynth.SystemResetMsg())
	return true
}

// Quit reports whether a shutdown is in progress. Input loops poll it and
// stop reading their device once it is true.
func (s *Shutdown) Quit() bool {
	return s.State() != Running
}

func (s *Shutdown) State() ShutdownState {
	return ShutdownState(s.state.Load() & stateMask)
}

func (s *Shutdown) detach() {
	s.state.Store(int32(Running) | detached)
}

// attach is called when a player starts serving the queue. It fails if
// another player is attached.
func (s *Shutdown) attach() bool {
	return s.state.CompareAndSwap(int32(Running)|detached, int32(Running))
}

// begin is called by the player when it pops a SystemReset, whoever sent it.
func (s *Shutdown) begin() {
	s.state.Store(int32(Resetting))
}

// complete is called by the player once its state has been cleared. The
// player exits, so the shutdown becomes detached.
func (s *Shutdown) complete() {
	s.detach()
}

func (s ShutdownState) String() string {
	switch s {
	case Running:
		return "running"
	case ResetRequested:
		return "reset requested"
	case Resetting:
		return "resetting"
	}
	return "unknown"
}
