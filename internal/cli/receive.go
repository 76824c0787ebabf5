package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReceiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Answer inbound transfer requests",
	}

	var confirmed bool
	confirm := &cobra.Command{
		Use:   "confirm <session-id>",
		Short: "Accept or reject a pending inbound transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			if err := app.client.ConfirmReceive(cmd.Context(), args[0], confirmed); err != nil {
				return err
			}
			if confirmed {
				fmt.Println("Accepted.")
			} else {
				fmt.Println("Rejected.")
			}
			return nil
		},
	}
	confirm.Flags().BoolVar(&confirmed, "accept", true, "Accept (true) or reject (false) the transfer")
	cmd.AddCommand(confirm)

	return cmd
}
