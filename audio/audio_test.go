package audio

import (
	"math"
	"testing"
	"time"

	"dictaria/encoder"
)

func TestRecorderRoundTrip(t *testing.T) {
	pcm := make([]int16, encoder.SampleRate/2) // half a second
	for i := range pcm {
		pcm[i] = int16(i % 5000)
	}

	rec := NewRecorder(NewFakeContext(pcm), nil, nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !rec.Recording() {
		t.Fatal("Recording() = false after Start")
	}

	buf, dropped := rec.Stop()
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(buf.Samples) != len(pcm) {
		t.Fatalf("captured %d samples, want %d", len(buf.Samples), len(pcm))
	}
	for i := range pcm {
		if buf.Samples[i] != pcm[i] {
			t.Fatalf("sample %d = %d, want %d", i, buf.Samples[i], pcm[i])
		}
	}

	want := 500 * time.Millisecond
	if d := buf.Duration(); d != want {
		t.Errorf("Duration = %v, want %v", d, want)
	}
	if rec.Recording() {
		t.Error("Recording() = true after Stop")
	}
}

// The fake capture pushes its whole burst through the data callback from
// inside Start, like a backend delivering on the caller's thread. Start must
// not hold the recorder lock across that call.
func TestRecorderStartSynchronousCallback(t *testing.T) {
	pcm := make([]int16, 2048)
	for i := range pcm {
		pcm[i] = int16(i)
	}
	rec := NewRecorder(NewFakeContext(pcm), nil, nil)

	started := make(chan error, 1)
	go func() { started <- rec.Start() }()
	select {
	case err := <-started:
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start blocked on its own lock during the capture callback")
	}

	buf, _ := rec.Stop()
	if len(buf.Samples) != len(pcm) {
		t.Fatalf("captured %d samples, want %d", len(buf.Samples), len(pcm))
	}
}

func TestRecorderLevelCallback(t *testing.T) {
	pcm := make([]int16, 1024)
	for i := range pcm {
		pcm[i] = 16384
	}

	var gotLevel float64
	levels := make(chan float64, 8)
	rec := NewRecorder(NewFakeContext(pcm), nil, func(level float64) {
		select {
		case levels <- level:
		default:
		}
	})
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case gotLevel = <-levels:
	case <-time.After(2 * time.Second):
		t.Fatal("no level callback")
	}
	rec.Stop()

	if math.Abs(gotLevel-0.5) > 0.01 {
		t.Errorf("level = %v, want ~0.5", gotLevel)
	}
}

func TestRecorderStartUnavailable(t *testing.T) {
	rec := NewRecorder(NewUnavailableContext(), nil, nil)
	if err := rec.Start(); err == nil {
		t.Fatal("expected error from unavailable device")
	}
	if rec.Recording() {
		t.Error("Recording() = true after failed Start")
	}
}

func TestRecorderDoubleStart(t *testing.T) {
	rec := NewRecorder(NewFakeContext(nil), nil, nil)
	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Start(); err == nil {
		t.Fatal("expected error from second Start")
	}
	rec.Stop()
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(NewFakeContext(nil), nil, nil)
	buf, dropped := rec.Stop()
	if len(buf.Samples) != 0 || dropped != 0 {
		t.Errorf("Stop without Start returned %d samples, %d dropped", len(buf.Samples), dropped)
	}
}

func TestBufferRMS(t *testing.T) {
	if got := (Buffer{}).RMS(); got != 0 {
		t.Errorf("empty RMS = %v, want 0", got)
	}

	silence := Buffer{Samples: make([]int16, 1000)}
	if got := silence.RMS(); got != 0 {
		t.Errorf("silence RMS = %v, want 0", got)
	}

	loud := Buffer{Samples: make([]int16, 1000)}
	for i := range loud.Samples {
		loud.Samples[i] = 16384
	}
	if got := loud.RMS(); math.Abs(got-0.5) > 0.01 {
		t.Errorf("loud RMS = %v, want ~0.5", got)
	}
}

func TestIsBluetooth(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"MacBook Pro Microphone", false},
		{"AirPods Pro", true},
		{"Sony WH-1000XM4", true},
		{"USB Audio Device", false},
		{"Headset (Bluetooth)", true},
	}
	for _, tc := range cases {
		if got := IsBluetooth(tc.name); got != tc.want {
			t.Errorf("IsBluetooth(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
