//go:build linux

package main

import "os"

func main() {
	// Crash logging first, before pulse or gohook spin up any native code.
	initCrashLog()

	if wantsGUI(os.Args[1:]) {
		initGUI()
		return
	}
	run()
}
