package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-arp/debug"
	"go-arp/server"
	"go-arp/theme"
	"go-arp/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Play the configured rig with a terminal UI",
	Long: `Play the configured rig with a terminal UI. Players and phrase players
can be started and stopped from the UI; with --addr the HTTP API runs
alongside it.

Examples:
  go-arp run
  go-arp run --out "IAC Driver" --in "Keystation" --tempo 96`,
	RunE: runRun,
}

func init() {
	addPlayFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Error("theme", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a.start(ctx)
	if cfg.Addr != "" {
		go func() {
			if err := server.New(a.rig).Run(ctx, cfg.Addr); err != nil {
				debug.Error("server", err)
			}
		}()
	}

	m := tui.NewModel(a.rig, theme.New(palette), a.status())
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	cancel()
	a.close()
	if errors.Is(err, tea.ErrProgramKilled) {
		// interrupted by a signal
		return nil
	}
	return err
}
