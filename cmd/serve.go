package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-arp/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Play the configured rig headless, controlled over HTTP",
	Long: `Play the configured rig without a UI and serve the HTTP API.

Example:
  go-arp serve --addr :8080
  curl -X PATCH localhost:8080/players/arp -d '{"playing":true}'`,
	RunE: runServe,
}

func init() {
	addPlayFlags(serveCmd)
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	a.start(ctx)

	fmt.Printf("go-arp listening on %s (%s)\n", cfg.Addr, a.status())
	err = server.New(a.rig).Run(ctx, cfg.Addr)

	cancel()
	a.close()
	return err
}
