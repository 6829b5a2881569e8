//go:build gui

package main

import (
	"runtime"

	"dictaria/gui"
)

var guiApp *gui.App

func initGUI() {
	guiMode = true

	// Lock this goroutine to the OS thread for Fyne/GLFW.
	runtime.LockOSThread()

	guiApp = gui.NewApp(
		run,
		func() {
			if uiToggle != nil {
				uiToggle()
			}
		},
		func(code string) {
			if uiSelectLanguage != nil {
				uiSelectLanguage(code)
			}
		},
	)
	sink = guiApp
	guiTheme = guiApp.SetTheme
	if err := gui.Run(guiApp); err != nil {
		panic(err)
	}
}
