// deckysend - LocalSend client for the Steam Deck.
package main

import (
	"os"

	"github.com/decky-localsend/deckysend/internal/cli"
	"github.com/decky-localsend/deckysend/internal/version"
)

// Version information
var (
	Version   = "v1.0.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime
	cli.Version = Version
	cli.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
