//go:build linux

package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

var combo = []string{"ctrl", "shift", "space"}

type hookSignal struct {
	presses chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newNative() (Signal, error) {
	s := &hookSignal{
		presses: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	hook.Register(hook.KeyDown, combo, func(e hook.Event) {
		select {
		case s.presses <- struct{}{}:
		default: // previous press still unread
		}
	})

	evChan := hook.Start()
	go func() {
		<-s.done
		hook.End()
	}()
	go func() {
		<-hook.Process(evChan)
	}()

	return s, nil
}

func (s *hookSignal) Presses() <-chan struct{} { return s.presses }

func (s *hookSignal) Close() {
	s.once.Do(func() { close(s.done) })
}
