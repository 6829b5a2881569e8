package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"dictaria/encoder"
)

// queueDepth bounds the chunk channel between the capture callback and the
// drain goroutine. The callback runs on the platform audio thread and must
// never block, so a full queue drops the chunk instead.
const queueDepth = 64

// Buffer is the PCM captured during one recording.
type Buffer struct {
	Samples []int16
}

// Duration reports the captured length at the capture sample rate.
func (b Buffer) Duration() time.Duration {
	return time.Duration(float64(len(b.Samples)) / float64(encoder.SampleRate) * float64(time.Second))
}

// RMS is the root-mean-square level of the whole buffer, normalized to [0,1].
func (b Buffer) RMS() float64 {
	if len(b.Samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range b.Samples {
		normalized := float64(s) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(b.Samples)))
}

// LevelFunc receives the RMS level of each captured chunk, for live meters.
type LevelFunc func(level float64)

// Recorder accumulates PCM from a capture device. One recording at a time:
// Start arms the device, Stop tears it down and returns everything heard
// in between.
type Recorder struct {
	ctx     Context
	device  *DeviceInfo
	onLevel LevelFunc

	mu      sync.Mutex
	capture CaptureDevice
	chunks  chan []int16
	drained chan struct{}
	samples []int16
	dropped int
}

func NewRecorder(ctx Context, device *DeviceInfo, onLevel LevelFunc) *Recorder {
	return &Recorder{ctx: ctx, device: device, onLevel: onLevel}
}

// Recording reports whether a capture is currently armed.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capture != nil
}

// Start opens the capture device and begins accumulating PCM. The capture
// backend may invoke the data callback from inside Start, so the lock is
// released before the device is armed.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.capture != nil {
		r.mu.Unlock()
		return fmt.Errorf("recorder already started")
	}

	capture, err := r.ctx.NewCapture(r.device, CaptureConfig{
		SampleRate: encoder.SampleRate,
		Channels:   encoder.Channels,
	})
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("opening capture device: %w", err)
	}

	chunks := make(chan []int16, queueDepth)
	drained := make(chan struct{})
	r.chunks = chunks
	r.drained = drained
	r.samples = nil
	r.dropped = 0
	r.mu.Unlock()

	capture.SetCallback(func(data []byte, frameCount uint32) {
		if len(data) < 2 {
			return
		}
		chunk := make([]int16, len(data)/2)
		for i := range chunk {
			chunk[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
		r.mu.Lock()
		// Stop invalidates the queue before closing it, so a late callback
		// must not touch a channel that is no longer ours.
		if r.chunks != chunks {
			r.mu.Unlock()
			return
		}
		select {
		case chunks <- chunk:
		default:
			r.dropped++
		}
		r.mu.Unlock()
	})

	go func() {
		defer close(drained)
		for chunk := range chunks {
			r.mu.Lock()
			r.samples = append(r.samples, chunk...)
			r.mu.Unlock()
			if r.onLevel != nil {
				r.onLevel(Buffer{Samples: chunk}.RMS())
			}
		}
	}()

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		r.mu.Lock()
		r.chunks = nil
		r.drained = nil
		r.mu.Unlock()
		close(chunks)
		<-drained
		return fmt.Errorf("starting capture: %w", err)
	}

	r.mu.Lock()
	r.capture = capture
	r.mu.Unlock()
	return nil
}

// Stop tears down the capture and returns the accumulated buffer along with
// the number of chunks dropped by the bounded queue.
func (r *Recorder) Stop() (Buffer, int) {
	r.mu.Lock()
	capture := r.capture
	chunks := r.chunks
	drained := r.drained
	r.capture = nil
	r.chunks = nil
	r.drained = nil
	r.mu.Unlock()

	if capture == nil {
		return Buffer{}, 0
	}

	capture.ClearCallback()
	capture.Stop()
	capture.Close()
	close(chunks)
	<-drained

	r.mu.Lock()
	defer r.mu.Unlock()
	buf := Buffer{Samples: r.samples}
	r.samples = nil
	return buf, r.dropped
}
