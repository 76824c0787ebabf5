package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/decky-localsend/deckysend/internal/models"
)

func newScanCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Trigger a device scan and list the results",
		Long: `Trigger a backend device scan, wait briefly for answers, and print
the devices the backend currently knows about.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			ctx := cmd.Context()
			if err := app.client.ScanNow(ctx); err != nil {
				return err
			}

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}

			devices, err := app.client.ScanCurrent(ctx)
			if err != nil {
				return err
			}
			app.store.SetDevices(devices)
			printDevices(devices)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 2*time.Second, "How long to wait for scan answers")
	return cmd
}

func printDevices(devices []models.Device) {
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ALIAS\tADDRESS\tTYPE\tFINGERPRINT")
	for _, d := range devices {
		fmt.Fprintf(w, "%s\t%s:%d\t%s\t%s\n", d.DisplayName(), d.IPAddress, d.Port, d.DeviceType, d.Fingerprint)
	}
	w.Flush()
}
