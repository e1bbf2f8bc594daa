package midisynth

// AudioSource produces interleaved stereo float32 audio. Audio hosts call
// ReadAudio from their real-time thread once per buffer. Once the source has
// nothing more to play, it returns io.EOF; the buffer is then filled with
// silence.
type AudioSource interface {
	ReadAudio(buffer []float32) error
}

// AudioHost plays an AudioSource until the source returns an error or the
// returned closer is closed. Close releases the audio device once nothing is
// playing.
type AudioHost interface {
	Play(source AudioSource) (CloseWaiter, error)
	SampleRate() int
	Close() error
}

type CloseWaiter interface {
	Close() error
	// Wait blocks until the host has stopped pulling audio from the source.
	Wait()
}

// DefaultSampleRate is used when the host does not dictate otherwise.
const DefaultSampleRate = 44100
