// Package notify provides desktop notifications for transfer outcomes.
// It uses github.com/gen2brain/beeep for cross-platform notification support.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/decky-localsend/deckysend/internal/logging"
)

// Sender delivers one notification. Tests swap it for a recorder.
type Sender func(title, message string) error

// Notifier sends desktop notifications for transfer lifecycle events.
type Notifier struct {
	logger  *logging.Logger
	send    Sender
	enabled bool
	mu      sync.RWMutex
}

// NewNotifier creates a notifier backed by beeep.
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{
		logger:  logging.NewLogger("notify"),
		enabled: enabled,
		send: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// SetSender replaces the delivery function. Used in tests.
func (n *Notifier) SetSender(send Sender) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
}

// SetEnabled enables or disables notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

func (n *Notifier) notify(title, message string) {
	n.mu.RLock()
	enabled, send := n.enabled, n.send
	n.mu.RUnlock()
	if !enabled {
		return
	}
	if err := send(title, message); err != nil {
		n.logger.Warn().Err(err).Str("title", title).Msg("Failed to send notification")
	}
}

// UploadComplete announces a fully successful send.
func (n *Notifier) UploadComplete(deviceAlias string, fileCount int) {
	n.notify("Send Complete", fmt.Sprintf("Sent %d item(s) to %s.", fileCount, truncate(deviceAlias, 40)))
}

// UploadPartial announces a send where some items failed.
func (n *Notifier) UploadPartial(deviceAlias string, successCount, failedCount int) {
	n.notify("Send Incomplete", fmt.Sprintf("Sent to %s. Success: %d, Failed: %d.", truncate(deviceAlias, 40), successCount, failedCount))
}

// UploadFailed announces a send that never got off the ground.
func (n *Notifier) UploadFailed(deviceAlias string, errorMsg string) {
	n.notify("Send Failed", fmt.Sprintf("Could not send to %s:\n%s", truncate(deviceAlias, 40), truncate(errorMsg, 100)))
}

// UploadCancelled announces a cancelled session.
func (n *Notifier) UploadCancelled(message string) {
	if message == "" {
		message = "The transfer was cancelled."
	}
	n.notify("Transfer Cancelled", truncate(message, 100))
}

// PinRequired tells the user the peer wants a PIN.
func (n *Notifier) PinRequired(message string) {
	if message == "" {
		message = "The target device requires a PIN."
	}
	n.notify("PIN Required", truncate(message, 100))
}

// ReceiveRequest announces an inbound transfer awaiting confirmation.
func (n *Notifier) ReceiveRequest(sender, title, message string) {
	if title == "" {
		title = "Incoming Transfer"
	}
	if message == "" {
		message = fmt.Sprintf("%s wants to send you files.", truncate(sender, 40))
	}
	n.notify(title, truncate(message, 100))
}

// DownloadRequest announces a remote device asking to pull shared files.
func (n *Notifier) DownloadRequest(title, message string) {
	if title == "" {
		title = "Download Request"
	}
	n.notify(title, truncate(message, 100))
}

// ReceiveComplete announces a finished inbound session.
func (n *Notifier) ReceiveComplete(title, message string) {
	if title == "" {
		title = "Transfer Complete"
	}
	n.notify(title, truncate(message, 100))
}

// ShareLinkExpired announces that a share link hit its TTL.
func (n *Notifier) ShareLinkExpired() {
	n.notify("Share Link Expired", "The share link is no longer valid.")
}

// Generic forwards an arbitrary backend message.
func (n *Notifier) Generic(title, message string) {
	if title == "" {
		title = "LocalSend"
	}
	n.notify(title, truncate(message, 100))
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
