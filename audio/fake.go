package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// FakeContext is a test capture backend that replays canned PCM through the
// normal callback path. StartErr simulates an unavailable device.
type FakeContext struct {
	pcm      []int16
	StartErr error
}

func NewFakeContext(pcm []int16) *FakeContext {
	return &FakeContext{pcm: pcm}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake capture"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, startErr: f.StartErr}, nil
}

type FakeCapture struct {
	pcm      []int16
	startErr error

	mu      sync.Mutex
	cb      DataCallback
	started bool
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

// Start feeds the canned PCM synchronously in one burst. Tests that need
// more arriving later can call SimChunk.
func (f *FakeCapture) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	f.SimChunk(f.pcm)
	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	f.started = false
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {}

// SimChunk pushes extra samples through the callback, as the platform audio
// thread would.
func (f *FakeCapture) SimChunk(samples []int16) {
	if len(samples) == 0 {
		return
	}
	f.mu.Lock()
	cb := f.cb
	started := f.started
	f.mu.Unlock()
	if cb == nil || !started {
		return
	}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	cb(data, uint32(len(samples)))
}

var errFakeDevice = fmt.Errorf("fake device unavailable")

// NewUnavailableContext returns a context whose captures always fail to start.
func NewUnavailableContext() *FakeContext {
	return &FakeContext{StartErr: errFakeDevice}
}
