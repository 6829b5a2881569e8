package session

import (
	"context"

	"dictaria/hotkey"
	"dictaria/log"
)

// Source tags where a toggle came from.
type Source int

const (
	SourceUI Source = iota
	SourceHotkey
)

func (s Source) String() string {
	if s == SourceHotkey {
		return "hotkey"
	}
	return "ui"
}

// ToggleEvent is a single toggle intent, consumed exactly once.
type ToggleEvent struct {
	Source Source
}

// Dispatcher serializes everything that may move the session: UI toggles,
// hotkey presses, language changes and task completions all funnel through
// one select loop, so session methods never run concurrently.
type Dispatcher struct {
	sess    *Session
	signal  hotkey.Signal // nil when hotkeys are unavailable
	toggles chan ToggleEvent
	langs   chan string
	done    chan struct{}
}

// NewDispatcher wires a session to its event sources. A nil signal means
// hotkeys were unavailable; that is logged once and the dispatcher runs on
// UI toggles alone.
func NewDispatcher(sess *Session, signal hotkey.Signal) *Dispatcher {
	if signal == nil {
		log.Warn("hotkey unavailable, toggles limited to the UI")
	}
	return &Dispatcher{
		sess:    sess,
		signal:  signal,
		toggles: make(chan ToggleEvent, 8),
		langs:   make(chan string, 8),
		done:    make(chan struct{}),
	}
}

// Toggle queues a UI-originated toggle. Never blocks; if the queue is full
// the intent is dropped, which only happens when the user outruns the loop.
func (d *Dispatcher) Toggle(src Source) {
	select {
	case d.toggles <- ToggleEvent{Source: src}:
	default:
		log.Warnf("toggle from %s dropped, queue full", src)
	}
}

// SetLanguage queues a language change.
func (d *Dispatcher) SetLanguage(code string) {
	select {
	case d.langs <- code:
	default:
		log.Warn("language change dropped, queue full")
	}
}

// Done closes when Run has returned.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Run drives the session until ctx is cancelled. It is the only goroutine
// that touches session state.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	var presses <-chan struct{}
	if d.signal != nil {
		presses = d.signal.Presses()
	}

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case ev := <-d.toggles:
			log.Info("toggle from " + ev.Source.String())
			d.sess.toggle()
		case <-presses:
			log.Info("toggle from hotkey")
			d.sess.toggle()
		case code := <-d.langs:
			d.sess.setLanguage(code)
		case out := <-d.sess.completions:
			d.sess.complete(out)
		}
	}
}

// drain waits out an in-flight transcription so its goroutine does not leak
// past shutdown. The result still lands in the history and logs.
func (d *Dispatcher) drain() {
	if d.sess.State() != Transcribing {
		return
	}
	out := <-d.sess.completions
	d.sess.complete(out)
}
