package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/decky-localsend/deckysend/internal/models"
)

func newDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List known devices without rescanning",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			devices, err := app.client.ScanCurrent(cmd.Context())
			if err != nil {
				return err
			}
			printDevices(devices)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "interfaces",
		Short: "List the backend's network interfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			ifaces, err := app.client.NetworkInterfaces(cmd.Context())
			if err != nil {
				return err
			}
			for _, iface := range ifaces {
				fmt.Printf("%s\t%s\n", iface.InterfaceName, iface.IPAddress)
			}
			return nil
		},
	})

	return cmd
}

// matchDevice finds a device by alias (case-insensitive) or fingerprint.
func matchDevice(devices []models.Device, target string) *models.Device {
	for i := range devices {
		if devices[i].Fingerprint == target {
			return &devices[i]
		}
	}
	for i := range devices {
		if strings.EqualFold(devices[i].Alias, target) {
			return &devices[i]
		}
	}
	return nil
}
