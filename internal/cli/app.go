package cli

import (
	"fmt"
	"time"

	"github.com/decky-localsend/deckysend/internal/bridge"
	"github.com/decky-localsend/deckysend/internal/config"
	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/gateway"
	"github.com/decky-localsend/deckysend/internal/notify"
	"github.com/decky-localsend/deckysend/internal/services"
	"github.com/decky-localsend/deckysend/internal/store"
)

// app bundles the wired components one command invocation needs.
type app struct {
	cfg      *config.Config
	bus      *events.Bus
	store    *store.Store
	client   *gateway.Client
	notifier *notify.Notifier
	send     *services.SendService
	share    *services.ShareService
}

// newApp loads configuration and wires the component graph.
func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.Backend.BaseURL = baseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	bus := events.NewBus(0)
	st := store.New(bus)
	client := gateway.NewClient(cfg.Backend.BaseURL)
	notifier := notify.NewNotifier(cfg.Notifications.Enabled)

	safetyTimeout := time.Duration(cfg.Send.SafetyTimeoutSeconds) * time.Second
	sendSvc := services.NewSendService(st, client, bus, notifier, newTerminalPrompter(), safetyTimeout)
	shareSvc := services.NewShareService(st, client, notifier)

	return &app{
		cfg:      cfg,
		bus:      bus,
		store:    st,
		client:   client,
		notifier: notifier,
		send:     sendSvc,
		share:    shareSvc,
	}, nil
}

// newBridge wires the push-event pipeline for long-running commands.
func (a *app) newBridge() (*bridge.Bridge, *bridge.Listener) {
	br := bridge.NewBridge(a.store, a.bus, a.notifier)
	ln := bridge.NewListener(a.cfg.Backend.NotifySocket, br.In(), a.store)
	return br, ln
}

func (a *app) close() {
	a.bus.Close()
}
