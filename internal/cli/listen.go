package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newListenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Run the notification bridge in the foreground",
		Long: `Bind the backend's notification socket and react to its push events:
device discovery updates, inbound transfer confirmations, progress
reports, and desktop notifications. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			br, ln := app.newBridge()
			br.Start()
			if err := ln.Start(); err != nil {
				br.Stop()
				return fmt.Errorf("failed to bind %s: %w", app.cfg.Backend.NotifySocket, err)
			}
			app.share.Start()

			logger.Info().Str("socket", app.cfg.Backend.NotifySocket).Msg("Bridge running, press Ctrl+C to stop")
			<-ctx.Done()

			app.share.Stop()
			ln.Stop()
			br.Stop()
			return nil
		},
	}
	return cmd
}
