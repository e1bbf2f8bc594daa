package live

import (
	"sync/atomic"

	"github.com/vsariola/midisynth"
)

type (
	// Queue is an unbounded lock-free multi-producer single-consumer FIFO of
	// synthesizer messages.
	//
	// Thread-safety:
	//   - Push: any number of goroutines, never blocks, never fails
	//   - TryPop: a single consumer (the player), never blocks
	//
	// Messages pushed by one goroutine are popped in the order they were
	// pushed; there is no ordering between different producers.
	Queue struct {
		head  atomic.Pointer[queueNode] // last pushed node, swapped by producers
		tail  *queueNode                // consumer-owned stub; its next is the oldest message
		count atomic.Int64
	}

	queueNode struct {
		next atomic.Pointer[queueNode]
		msg  midisynth.Message
	}
)

func NewQueue() *Queue {
	stub := &queueNode{}
	q := &Queue{tail: stub}
	q.head.Store(stub)
	return q
}

// Push appends msg to the queue. Push allocates one node, so it should not be
// called from the audio thread.
func (q *Queue) Push(msg midisynth.Message) {
	n := &queueNode{msg: msg}
	q.count.Add(1)
	prev := q.head.Swap(n)
	// between the swap and the store, the consumer sees the queue end at prev;
	// n becomes visible once linked
	prev.next.Store(n)
}

// TryPop removes and returns the oldest message. ok is false if the queue
// was empty, or if the next producer had not yet finished linking its node;
// in that case the message is returned by a later call.
func (q *Queue) TryPop() (msg midisynth.Message, ok bool) {
	next := q.tail.next.Load()
	if next == nil {
		return midisynth.Message{}, false
	}
	q.tail = next
	msg = next.msg
	next.msg = midisynth.Message{}
	q.count.Add(-1)
	return msg, true
}

// Len returns the approximate number of messages waiting in the queue.
func (q *Queue) Len() int {
	n := q.count.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
