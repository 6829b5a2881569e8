//go:build gui

package gui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"dictaria/lang"
	"dictaria/session"
)

// App is the optional desktop window. It mirrors the TUI's event surface so
// the core never knows which frontend is attached.
type App struct {
	fyneApp fyne.App
	window  fyne.Window

	status     *widget.Label
	record     *widget.Button
	langSelect *widget.Select
	lastText   *widget.Label

	onReady    func()
	onToggle   func()
	onLanguage func(code string)
}

func NewApp(onReady, onToggle func(), onLanguage func(string)) *App {
	return &App{onReady: onReady, onToggle: onToggle, onLanguage: onLanguage}
}

func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.dictaria.gui")
	a.fyneApp.Settings().SetTheme(newAppTheme("dark"))
	a.window = a.fyneApp.NewWindow("dictaria")

	a.status = widget.NewLabel("○ idle")
	a.lastText = widget.NewLabel("No transcriptions yet")
	a.lastText.Wrapping = fyne.TextWrapWord

	a.record = widget.NewButton("Record", func() {
		if a.onToggle != nil {
			a.onToggle()
		}
	})

	var options []string
	for _, l := range lang.All() {
		options = append(options, l.Flag+" "+l.Code)
	}
	a.langSelect = widget.NewSelect(options, func(selected string) {
		if a.onLanguage == nil {
			return
		}
		// Options are "<flag> <code>"; the code is the trailing field.
		for _, l := range lang.All() {
			if selected == l.Flag+" "+l.Code {
				a.onLanguage(l.Code)
				return
			}
		}
	})

	a.window.SetContent(container.NewVBox(
		a.status,
		a.langSelect,
		a.record,
		widget.NewSeparator(),
		a.lastText,
	))
	a.window.Resize(fyne.NewSize(380, 240))
	a.window.Show()

	go a.onReady()

	a.fyneApp.Run()
	return nil
}

// SetTheme switches the window between the light and dark palettes. Called
// once the settings file has been read, which happens after the window is up.
func (a *App) SetTheme(name string) {
	fyne.Do(func() {
		a.fyneApp.Settings().SetTheme(newAppTheme(name))
	})
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}

// EventSink implementation. Calls arrive off the fyne event loop, so every
// widget touch goes through fyne.Do.

func (a *App) RecordingStart(language string) {
	fyne.Do(func() {
		a.status.SetText("● recording (" + language + ")")
		a.record.SetText("Stop")
	})
}

func (a *App) Transcribing(language string) {
	fyne.Do(func() {
		a.status.SetText("… transcribing (" + language + ")")
		a.record.SetText("Record")
	})
}

func (a *App) Idle(reason session.Reason, err error) {
	fyne.Do(func() {
		switch reason {
		case session.ReasonCompleted:
			a.status.SetText("○ idle")
		case session.ReasonNoLanguageSelected:
			a.status.SetText("select a language first")
		case session.ReasonDeviceUnavailable:
			a.status.SetText("microphone unavailable")
		case session.ReasonNoAudioCaptured:
			a.status.SetText("no audio captured")
		case session.ReasonNoTextRecognized:
			a.status.SetText("no speech recognized")
		case session.ReasonEngineFailure:
			a.status.SetText("transcription failed")
		}
		a.record.SetText("Record")
	})
}

func (a *App) Result(res session.Result) {
	fyne.Do(func() {
		a.lastText.SetText(fmt.Sprintf("%s\n(%s, %.1fs audio)", res.Text, res.Language, res.Audio.Seconds()))
	})
}

func (a *App) AudioLevel(level float64) {}

func (a *App) Language(code string) {
	fyne.Do(func() {
		for _, l := range lang.All() {
			if l.Code == code {
				a.langSelect.SetSelected(l.Flag + " " + l.Code)
				return
			}
		}
	})
}

func (a *App) StatusLine(text string) {}

func (a *App) SilenceWarning(on bool) {
	fyne.Do(func() {
		if on {
			a.status.SetText("● recording — ⚠ no voice detected")
		}
	})
}
