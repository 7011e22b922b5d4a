package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sidequest-dev/sidequest/internal/config"
	"github.com/sidequest-dev/sidequest/internal/dashboard"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the sync daemon with a live dashboard",
	Long: `Run sq in the foreground as a sync daemon.

The daemon keeps the connectivity monitor and sync engine alive so
queued operations replay the moment the server becomes reachable, and
serves a WebSocket dashboard broadcasting sync activity.

WebSocket messages include:
- sync_pushed: a value was pushed to the server
- sync_queued: a push failed and was queued for replay
- drain_complete: a reconnect drain pass finished
- connectivity: the online flag flipped
- stats: running totals

Example usage:
  sq sync                   # dashboard on the configured port
  sq sync --port 9000       # dashboard on a custom port

Connect with a WebSocket client:
  ws://localhost:8990/ws`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")

		// The dashboard must exist before the engine so it can be the
		// engine's event sink.
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if port == 0 {
			port = cfg.DashboardPort
		}

		server := dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Logger: cfg.NewLogger("dashboard"),
		})
		handler := dashboard.NewHandler(server, cfg.NewLogger("dashboard"))

		a, err := openApp(handler)
		if err != nil {
			return err
		}
		defer a.close()

		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start dashboard: %w", err)
		}

		fmt.Printf("Sync daemon running, dashboard on http://localhost%s\n", server.GetAddr())
		fmt.Println("Press Ctrl+C to stop...")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		<-ctx.Done()

		fmt.Println("\nShutting down...")
		if err := server.Stop(); err != nil {
			return fmt.Errorf("error during dashboard shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().IntP("port", "p", 0, "Dashboard port (default from config)")
	rootCmd.AddCommand(syncCmd)
}
