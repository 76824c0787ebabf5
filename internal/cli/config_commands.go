package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/decky-localsend/deckysend/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the local client configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			path := cfgFile
			if path == "" {
				path, _ = config.DefaultPath()
			}
			fmt.Printf("config file:            %s\n", path)
			fmt.Printf("backend.base_url:       %s\n", cfg.Backend.BaseURL)
			fmt.Printf("backend.notify_socket:  %s\n", cfg.Backend.NotifySocket)
			fmt.Printf("send.safety_timeout:    %ds\n", cfg.Send.SafetyTimeoutSeconds)
			fmt.Printf("notifications.enabled:  %t\n", cfg.Notifications.Enabled)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a config file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(config.New(), cfgFile); err != nil {
				return err
			}
			path := cfgFile
			if path == "" {
				path, _ = config.DefaultPath()
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "backend",
		Short: "Show the backend configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			cfg, err := app.client.BackendConfig(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	})

	cmd.AddCommand(newConfigSetCmd())
	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one backend configuration value",
		Long: `Change one backend configuration value and push the full config back.

Supported keys: alias, download_folder, pin, auto_save,
auto_save_from_favorites, use_https, notify_on_download,
save_receive_history, scan_timeout`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()

			key, value := args[0], args[1]
			cfg, err := app.client.BackendConfig(cmd.Context())
			if err != nil {
				return err
			}

			parseBool := func() (bool, error) { return strconv.ParseBool(value) }
			switch key {
			case "alias":
				cfg.Alias = value
			case "download_folder":
				cfg.DownloadFolder = value
			case "pin":
				cfg.PIN = value
			case "auto_save":
				if cfg.AutoSave, err = parseBool(); err != nil {
					return err
				}
			case "auto_save_from_favorites":
				if cfg.AutoSaveFromFavorites, err = parseBool(); err != nil {
					return err
				}
			case "use_https":
				if cfg.UseHTTPS, err = parseBool(); err != nil {
					return err
				}
			case "notify_on_download":
				if cfg.NotifyOnDownload, err = parseBool(); err != nil {
					return err
				}
			case "save_receive_history":
				if cfg.SaveReceiveHistory, err = parseBool(); err != nil {
					return err
				}
			case "scan_timeout":
				if cfg.ScanTimeout, err = strconv.Atoi(value); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown key %q", key)
			}

			if err := app.client.SetBackendConfig(cmd.Context(), *cfg); err != nil {
				return err
			}
			fmt.Println("Updated.")
			return nil
		},
	}
}
