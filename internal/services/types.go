// Package services contains the orchestration layer: the send workflow that
// drives the backend gateway and the shared store, and the share-link
// lifecycle. Services own all multi-step state transitions; the store stays
// a dumb container.
package services

import (
	"context"
	"errors"

	"github.com/decky-localsend/deckysend/internal/gateway"
	"github.com/decky-localsend/deckysend/internal/models"
)

// Service validation errors.
var (
	ErrNoDeviceSelected = errors.New("no target device selected")
	ErrNoItemsQueued    = errors.New("no items queued for sending")
	ErrSendInFlight     = errors.New("a send is already in progress")
	ErrNoActiveSession  = errors.New("no active upload session")
	ErrPinRequired      = errors.New("target device requires a pin and none was provided")
	ErrNothingToShare   = errors.New("no items staged for sharing")
)

// Gateway is the slice of backend operations the send workflow needs.
// *gateway.Client satisfies it; tests substitute a fake.
type Gateway interface {
	PrepareUpload(ctx context.Context, req gateway.PrepareRequest) (*gateway.PrepareResult, error)
	UploadText(ctx context.Context, sessionID, itemID, token string, data []byte) error
	UploadBatch(ctx context.Context, req gateway.BatchRequest) (*gateway.BatchResult, error)
	CancelUpload(ctx context.Context, sessionID string) error
}

// ShareGateway is the slice of backend operations the share workflow needs.
type ShareGateway interface {
	CreateShareSession(ctx context.Context, files map[string]gateway.ShareFileMeta, pin string, autoAccept bool) (*gateway.ShareResult, error)
	CloseShareSession(ctx context.Context, sessionID string) error
}

// Prompter asks the user for a PIN when a target device demands one.
// A nil Prompter means PIN challenges fail immediately.
type Prompter interface {
	PromptPIN(ctx context.Context) (string, error)
}

// SendOptions tunes a single Send call.
type SendOptions struct {
	// Device overrides the store's selected device for this send. The
	// override also becomes the new selection.
	Device *models.Device

	// PIN is a pre-supplied PIN, skipping the interactive prompt on the
	// first attempt.
	PIN string
}

// ShareOptions tunes a CreateShare call.
type ShareOptions struct {
	PIN        string
	AutoAccept bool
}
