package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/models"
	"github.com/decky-localsend/deckysend/internal/progress"
	"github.com/decky-localsend/deckysend/internal/services"
	"github.com/decky-localsend/deckysend/internal/validation"
)

func newSendCmd() *cobra.Command {
	var (
		target   string
		texts    []string
		textName string
		pin      string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "send [files or folders...]",
		Short: "Send files, folders, or text to a device",
		Long: `Queue the given paths (and any --text snippets) and send them to the
target device. Folders are sent as a unit; the backend expands their
contents. Text snippets are pushed one by one, everything else goes out
in a single batch.`,
		Example: `  deckysend send --to "Living Room PC" photo.jpg notes.txt
  deckysend send --to 1a2b3c --text "see you at 5" ~/Videos/clip.mp4
  deckysend send --to Phone --pin 123456 ~/Documents`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(texts) == 0 {
				return services.ErrNoItemsQueued
			}

			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.close()
			ctx := cmd.Context()

			devices, err := app.client.ScanCurrent(ctx)
			if err != nil {
				return err
			}
			device := matchDevice(devices, target)
			if device == nil {
				return fmt.Errorf("no device matches %q, run 'deckysend scan' first", target)
			}

			for _, path := range args {
				item, err := itemForPath(path)
				if err != nil {
					return err
				}
				app.store.AddItem(item)
			}
			if textName != "" {
				if err := validation.ValidateFilename(textName); err != nil {
					return err
				}
			}
			for _, text := range texts {
				app.store.AddItem(models.NewInlineText(textName, text))
			}

			var reporter progress.Reporter = progress.NewCLIProgress()
			if quiet {
				reporter = progress.NullProgress{}
			}

			finished := app.bus.Subscribe(events.EventSendFinished)
			progressed := app.bus.Subscribe(events.EventSendProgress)

			queued := len(app.store.Queue())
			reporter.Start(queued, fmt.Sprintf("Sending %d item(s) to %s", queued, device.DisplayName()))

			if _, err := app.send.Send(ctx, services.SendOptions{Device: device, PIN: pin}); err != nil {
				reporter.Error(err)
				return err
			}

			deadline := time.After(time.Duration(app.cfg.Send.SafetyTimeoutSeconds+5) * time.Second)
			for {
				select {
				case ev := <-progressed:
					if pe, ok := ev.(*events.SendProgressEvent); ok {
						reporter.Update(pe.CompletedCount)
					}
				case ev := <-finished:
					fe, ok := ev.(*events.SendFinishedEvent)
					if !ok {
						continue
					}
					reporter.Finish()
					return reportOutcome(fe)
				case <-deadline:
					reporter.Finish()
					return fmt.Errorf("send did not complete in time")
				case <-ctx.Done():
					_ = app.send.Cancel(cmd.Context())
					return ctx.Err()
				}
			}
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "Target device alias or fingerprint (required)")
	cmd.Flags().StringArrayVar(&texts, "text", nil, "Text snippet to send (repeatable)")
	cmd.Flags().StringVar(&textName, "text-name", "", "File name for text snippets (default text.txt)")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN for the target device")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the progress bar")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func reportOutcome(fe *events.SendFinishedEvent) error {
	switch fe.Outcome {
	case events.OutcomeSuccess:
		fmt.Printf("Sent %d item(s).\n", fe.SuccessCount)
		return nil
	case events.OutcomePartial:
		return fmt.Errorf("%d item(s) failed, %d sent", fe.FailedCount, fe.SuccessCount)
	case events.OutcomeCancelled:
		return fmt.Errorf("transfer cancelled")
	default:
		return fmt.Errorf("transfer failed")
	}
}

// itemForPath builds a queue item for a path: folders become folder bundles,
// everything else a regular file.
func itemForPath(path string) (models.Item, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateSourcePath(abs); err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		count, err := countFiles(abs)
		if err != nil {
			return nil, err
		}
		return models.NewFolderBundle(abs, count), nil
	}
	return models.NewRegularFile(abs, info.Size()), nil
}

func countFiles(root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			count++
		}
		return nil
	})
	return count, err
}
