package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/decky-localsend/deckysend/internal/services"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Host files behind a download link",
	}

	var (
		pin        string
		autoAccept bool
	)
	create := &cobra.Command{
		Use:   "create [files or folders...]",
		Short: "Create a share link for the given paths",
		Long: `Create a share session hosting the given paths. Other devices can pull
the files from the printed link; the link expires after one hour.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			for _, path := range args {
				item, err := itemForPath(path)
				if err != nil {
					return err
				}
				app.store.AddItem(item)
			}
			app.store.SetPendingShare(app.store.Queue())

			sess, err := app.share.CreateShare(cmd.Context(), services.ShareOptions{PIN: pin, AutoAccept: autoAccept})
			if err != nil {
				return err
			}
			fmt.Printf("Share link: %s\n", sess.DownloadURL)
			fmt.Printf("Session:    %s (expires in 1h)\n", sess.SessionID)
			return nil
		},
	}
	create.Flags().StringVar(&pin, "pin", "", "Require this PIN for downloads")
	create.Flags().BoolVar(&autoAccept, "auto-accept", false, "Serve downloads without asking for confirmation")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a share session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.share.CloseShare(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Closed.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List active share sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			sessions, err := app.client.ShareSessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No active share sessions.")
				return nil
			}
			for _, sess := range sessions {
				fmt.Printf("%s\t%s\n", sess.SessionID, sess.DownloadURL)
			}
			return nil
		},
	})

	var confirmed bool
	confirm := &cobra.Command{
		Use:   "confirm <session-id> <client-key>",
		Short: "Answer a pending download request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			return app.client.ConfirmDownload(cmd.Context(), args[0], args[1], confirmed)
		},
	}
	confirm.Flags().BoolVar(&confirmed, "accept", true, "Accept (true) or reject (false) the request")
	cmd.AddCommand(confirm)

	return cmd
}
