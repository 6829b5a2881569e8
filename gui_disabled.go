//go:build !gui

package main

func initGUI() {
	panic("dictaria: built without GUI support (rebuild with -tags gui)")
}
