// Package cli provides the command-line interface for deckysend.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/decky-localsend/deckysend/internal/logging"
)

var (
	// Global flags
	cfgFile string
	baseURL string
	verbose bool

	// Global logger
	logger *logging.Logger
)

// Version information - set by main package at startup.
var (
	Version   = "v1.0.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deckysend",
		Short: "deckysend - LocalSend client for the Steam Deck",
		Long: `deckysend ` + Version + ` - Built: ` + BuildTime + `
Command-line client for the LocalSend backend: device discovery,
file/text/folder sending, share links, and transfer notifications.

The heavy lifting (mDNS discovery, the LocalSend protocol, byte
transfer) happens in the backend process; deckysend drives it over
its local API and listens for its push events.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger("cli")
			if verbose {
				logging.SetGlobalLevel(-1)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&baseURL, "backend-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(
		newScanCmd(),
		newDevicesCmd(),
		newSendCmd(),
		newCancelCmd(),
		newFavoritesCmd(),
		newConfigCmd(),
		newShareCmd(),
		newReceiveCmd(),
		newListenCmd(),
		newStatusCmd(),
	)

	return rootCmd
}
