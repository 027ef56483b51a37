// Package main is the entry point of the transcription study server. It
// records subjects' transcription results over HTTP and maintains running
// error statistics per alphabet.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
