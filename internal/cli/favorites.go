package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage pinned devices",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List favorite devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			favorites, err := app.client.Favorites(cmd.Context())
			if err != nil {
				return err
			}
			app.store.SetFavorites(favorites)
			if len(favorites) == 0 {
				fmt.Println("No favorites.")
				return nil
			}

			// Online state is computed against the live device list.
			devices, err := app.client.ScanCurrent(cmd.Context())
			if err != nil {
				return err
			}
			online := make(map[string]bool, len(devices))
			for _, d := range devices {
				online[d.Fingerprint] = true
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ALIAS\tFINGERPRINT\tSTATE")
			for _, f := range favorites {
				state := "offline"
				if online[f.Fingerprint] {
					state = "online"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", f.Alias, f.Fingerprint, state)
			}
			w.Flush()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <fingerprint> [alias]",
		Short: "Pin a device",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			alias := ""
			if len(args) > 1 {
				alias = args[1]
			}
			if err := app.client.AddFavorite(cmd.Context(), args[0], alias); err != nil {
				return err
			}
			fmt.Println("Added.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <fingerprint>",
		Short: "Unpin a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.client.RemoveFavorite(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Removed.")
			return nil
		},
	})

	return cmd
}
