package oto_test

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/vsariola/midisynth/oto"
)

type ramp struct {
	calls int
	limit int
}

func (r *ramp) ReadAudio(buffer []float32) error {
	r.calls++
	for i := range buffer {
		buffer[i] = float32(i) / float32(len(buffer))
	}
	if r.calls >= r.limit {
		return io.EOF
	}
	return nil
}

func TestFloatBufferToBytes(t *testing.T) {
	src := []float32{0, 0.5, -2, 3}
	dst := make([]byte, 16)
	oto.FloatBufferToBytes(dst, src)
	want := []float32{0, 0.5, -1, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(dst[4*i:]))
		if got != w {
			t.Fatalf("sample %d: got %v, want %v", i, got, w)
		}
	}
}

func TestReaderEndsWithSource(t *testing.T) {
	r := oto.NewReader(&ramp{limit: 2})
	p := make([]byte, 64)
	for i := 0; i < 2; i++ {
		n, err := r.Read(p)
		if n != len(p) || err != nil {
			t.Fatalf("read %d: got %d, %v", i, n, err)
		}
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(p[4:])); got != 1.0/16 {
		t.Fatalf("second sample: got %v, want %v", got, 1.0/16)
	}
	if r.Err() != io.EOF {
		t.Fatalf("Err after source ended: got %v, want io.EOF", r.Err())
	}
	if n, err := r.Read(p); n != 0 || err != io.EOF {
		t.Fatalf("read after end: got %d, %v", n, err)
	}
}
