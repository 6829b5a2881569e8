//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Crash logging first, before malgo or the hotkey hook spin up any
	// native code.
	initCrashLog()

	if wantsGUI(os.Args[1:]) {
		initGUI() // takes the main thread, calls run() in a goroutine
		return
	}

	// The native hotkey backend needs the main thread on macOS.
	mainthread.Init(run)
}
