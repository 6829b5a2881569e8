// Package hotkey turns a global key combo into toggle presses.
//
// The binding is Ctrl+Shift+Space everywhere. When no native backend can be
// registered (missing permissions, headless session) a signal-file poller
// stands in, so external tools can still trigger a toggle by touching a file.
package hotkey

import "fmt"

// Signal delivers one value per hotkey press. Implementations never block
// the platform event thread: a press that arrives while the previous one is
// still unread is dropped.
type Signal interface {
	Presses() <-chan struct{}
	Close()
}

type Config struct {
	// Backend selects the implementation: "auto", "native", "file" or "none".
	Backend string
	// SignalFile is the path watched by the file backend.
	SignalFile string
}

// Open builds a Signal per config. "auto" tries the native backend first and
// falls back to the signal file. A nil Signal with nil error means hotkeys
// are disabled and the app runs UI-only.
func Open(cfg Config) (Signal, error) {
	switch cfg.Backend {
	case "none":
		return nil, nil
	case "native":
		return newNative()
	case "file":
		return newSignalFile(cfg.SignalFile)
	case "", "auto":
		sig, err := newNative()
		if err == nil {
			return sig, nil
		}
		fileSig, fileErr := newSignalFile(cfg.SignalFile)
		if fileErr != nil {
			return nil, fmt.Errorf("native backend failed (%v), file backend failed: %w", err, fileErr)
		}
		return fileSig, nil
	default:
		return nil, fmt.Errorf("unknown hotkey backend %q", cfg.Backend)
	}
}
