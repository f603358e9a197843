// Command wakeengine runs the real-time streaming wake-word detection
// engine described in this repository: a cascaded mel-spectrogram,
// speech-embedding, and keyword-detector inference pipeline over raw PCM
// audio from standard input or a websocket.
package main

import (
	"fmt"
	"os"

	"github.com/kestrelaudio/wakeengine/cmd/wakeengine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
