package hotkey

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const pollInterval = 100 * time.Millisecond

// fileSignal polls for a signal file dropped by an external tool. Each time
// the file appears it is removed and one press is emitted.
type fileSignal struct {
	path    string
	presses chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSignalFile(path string) (Signal, error) {
	if path == "" {
		return nil, fmt.Errorf("no signal file configured")
	}
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("signal file directory: %w", err)
	}
	// A stale file from a previous run would fire immediately.
	os.Remove(path)

	s := &fileSignal{
		path:    path,
		presses: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.poll()
	return s, nil
}

func (s *fileSignal) poll() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if _, err := os.Stat(s.path); err != nil {
				continue
			}
			os.Remove(s.path)
			select {
			case s.presses <- struct{}{}:
			default:
			}
		}
	}
}

func (s *fileSignal) Presses() <-chan struct{} { return s.presses }

func (s *fileSignal) Close() {
	s.once.Do(func() { close(s.done) })
}
