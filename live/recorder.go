package live

import (
	"sync"
	"sync/atomic"

	"github.com/vsariola/midisynth"
)

// Recorder is an AudioSource that passes the audio of another source through
// and keeps a copy of it. The copy is handed from the audio thread to a
// collecting goroutine in pooled buffers; if the goroutine falls behind,
// buffers are dropped rather than blocking the audio.
type Recorder struct {
	source  midisynth.AudioSource
	broker  *Broker
	buffers chan *[]float32
	close   chan struct{}
	done    chan struct{}
	dropped atomic.Int64

	mu   sync.Mutex
	data []float32
}

func NewRecorder(source midisynth.AudioSource, broker *Broker) *Recorder {
	r := &Recorder{
		source:  source,
		broker:  broker,
		buffers: make(chan *[]float32, 256),
		close:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go r.collect()
	return r
}

func (r *Recorder) ReadAudio(buffer []float32) error {
	err := r.source.ReadAudio(buffer)
	b := r.broker.GetAudioBuffer()
	*b = append(*b, buffer...)
	if !TrySend(r.buffers, b) {
		r.broker.PutAudioBuffer(b)
		r.dropped.Add(1)
	}
	return err
}

// Close stops recording and returns everything recorded so far.
func (r *Recorder) Close() []float32 {
	TrySend(r.close, struct{}{})
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.data
}

// Dropped returns the number of buffers that were lost because the
// collecting goroutine was too slow.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) collect() {
	for {
		select {
		case b := <-r.buffers:
			r.add(b)
		case <-r.close:
			for {
				select {
				case b := <-r.buffers:
					r.add(b)
				default:
					close(r.done)
					return
				}
			}
		}
	}
}

func (r *Recorder) add(b *[]float32) {
	r.mu.Lock()
	r.data = append(r.data, *b...)
	r.mu.Unlock()
	r.broker.PutAudioBuffer(b)
}
