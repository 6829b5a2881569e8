package transcriber

import (
	"context"
	"sync"
	"time"
)

// FakeEngine returns canned results and records what it was asked. Delay
// keeps the engine "busy" so tests can observe the transcribing window.
type FakeEngine struct {
	Text  string
	Err   error
	Delay time.Duration

	mu       sync.Mutex
	calls    int
	lastLang string
}

func NewFakeEngine(text string, err error) *FakeEngine {
	return &FakeEngine{Text: text, Err: err}
}

func (f *FakeEngine) Name() string { return "fake" }

func (f *FakeEngine) Transcribe(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	f.calls++
	f.lastLang = req.Language
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	return &Result{Text: f.Text, Elapsed: f.Delay}, nil
}

// Calls reports how many transcriptions were requested.
func (f *FakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastLanguage reports the language of the most recent request.
func (f *FakeEngine) LastLanguage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastLang
}
