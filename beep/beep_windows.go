//go:build windows

package beep

// No tone playback on Windows.

func Init()      {}
func PlayStart() {}
func PlayEnd()   {}
func PlayError() {}
