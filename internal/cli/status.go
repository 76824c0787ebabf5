package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show backend reachability and basic state",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			cfg, err := app.client.BackendConfig(cmd.Context())
			if err != nil {
				fmt.Printf("backend:  unreachable (%v)\n", err)
				fmt.Printf("url:      %s\n", app.cfg.Backend.BaseURL)
				return nil
			}

			devices, _ := app.client.ScanCurrent(cmd.Context())
			favorites, _ := app.client.Favorites(cmd.Context())

			fmt.Printf("backend:    running\n")
			fmt.Printf("url:        %s\n", app.cfg.Backend.BaseURL)
			fmt.Printf("alias:      %s\n", cfg.Alias)
			fmt.Printf("downloads:  %s\n", cfg.DownloadFolder)
			fmt.Printf("devices:    %d known\n", len(devices))
			fmt.Printf("favorites:  %d pinned\n", len(favorites))
			return nil
		},
	}
	return cmd
}
