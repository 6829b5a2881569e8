//go:build !linux

package hotkey

import (
	"sync"

	"golang.design/x/hotkey"
)

type xSignal struct {
	hk      *hotkey.Hotkey
	presses chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newNative() (Signal, error) {
	hk := hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace)
	if err := hk.Register(); err != nil {
		return nil, err
	}

	s := &xSignal{
		hk:      hk,
		presses: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-hk.Keydown():
				select {
				case s.presses <- struct{}{}:
				default:
				}
			}
		}
	}()

	return s, nil
}

func (s *xSignal) Presses() <-chan struct{} { return s.presses }

func (s *xSignal) Close() {
	s.once.Do(func() {
		close(s.done)
		s.hk.Unregister()
	})
}
