package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidequest-dev/sidequest/internal/api"
	"github.com/sidequest-dev/sidequest/internal/config"
	"github.com/sidequest-dev/sidequest/internal/engine"
	"github.com/sidequest-dev/sidequest/internal/model"
	"github.com/sidequest-dev/sidequest/internal/netmon"
	"github.com/sidequest-dev/sidequest/internal/store"
	"github.com/sidequest-dev/sidequest/internal/token"
	"github.com/sidequest-dev/sidequest/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "sq",
	Short: "Offline-first personal quest tracker",
	Long: `sq tracks daily quests, points and streaks.

All commands work offline: changes are saved to a local database first
and pushed to the sync server whenever it is reachable. Writes made
while offline are queued and replayed automatically on reconnect.

Force offline mode by creating the marker file (default ~/.sidequest/offline):
  touch ~/.sidequest/offline`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// app bundles the wired components behind every command.
type app struct {
	cfg     *config.Config
	store   *store.Store
	tokens  *token.Manager
	client  *api.Client
	monitor *netmon.ProbeMonitor
	engine  *engine.Engine
	theme   *ui.Theme

	ctx    context.Context
	cancel context.CancelFunc
}

// openApp wires the full stack: config, store, token manager, API
// client, connectivity monitor and sync engine. sink may be nil.
func openApp(sink engine.EventSink) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	tokens := token.NewManager(st)
	client := api.New(cfg.ServerURL, tokens, cfg.NewLogger("api"))

	// The monitor probes the configured URL verbatim; it may point at a
	// different host or path than the API itself.
	monitor, err := netmon.New(netmon.Config{
		Prober:       api.NewProber(cfg.ProbeURL),
		Interval:     cfg.ProbeInterval,
		OverridePath: cfg.OfflinePath,
		Logger:       cfg.NewLogger("netmon"),
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	eng, err := engine.New(engine.Config{
		Store:   st,
		Client:  client,
		Monitor: monitor,
		Sink:    sink,
		Logger:  cfg.NewLogger("engine"),
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := monitor.Start(ctx); err != nil {
		cancel()
		st.Close()
		return nil, fmt.Errorf("failed to start connectivity monitor: %w", err)
	}
	eng.Start(ctx)

	mode, err := st.Theme(ctx)
	if err != nil {
		mode = model.ThemeSystem
	}

	return &app{
		cfg:     cfg,
		store:   st,
		tokens:  tokens,
		client:  client,
		monitor: monitor,
		engine:  eng,
		theme:   ui.ForMode(mode),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// close tears the stack down in reverse order.
func (a *app) close() {
	a.engine.Stop()
	_ = a.monitor.Stop()
	a.cancel()
	_ = a.store.Close()
}
