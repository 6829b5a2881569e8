package main

import "dictaria/session"

// EventSink abstracts the display layer so the Bubble Tea TUI and the Fyne
// GUI can receive the same session events.
type EventSink interface {
	RecordingStart(language string)
	Transcribing(language string)
	Idle(reason session.Reason, err error)
	Result(res session.Result)
	AudioLevel(level float64)
	Language(code string)
	StatusLine(text string)
	SilenceWarning(on bool)
}
