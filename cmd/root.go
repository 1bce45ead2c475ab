package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-arp/config"
	"go-arp/debug"
)

var (
	configPath string
	debugOn    bool
	debugPath  string
	tempo      int
	outPort    string
	inPort     string
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "go-arp",
	Short: "Live arpeggiator and phrase looper for MIDI",
	Long: `go-arp plays arpeggios built from nested, composable arps on a MIDI
output, and records what you play on a MIDI keyboard into phrases that loop
every bar.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !debugOn {
			return nil
		}
		return debug.Enable(debugPath)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		debug.Disable()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ~/.config/go-arp/config.json)")
	flags.BoolVar(&debugOn, "debug", false, "write a debug log")
	flags.StringVar(&debugPath, "debug-log", debug.DefaultPath(), "debug log path")
}

// addPlayFlags registers the flags that override the config file
func addPlayFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&tempo, "tempo", 0, "tempo in BPM")
	cmd.Flags().StringVar(&outPort, "out", "", "MIDI output port (name or part of it)")
	cmd.Flags().StringVar(&inPort, "in", "", "MIDI input port to record from")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080")
}

// loadConfig reads the config file and applies command-line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("tempo") {
		cfg.Tempo = tempo
	}
	if flags.Changed("out") {
		cfg.Output.PortName = outPort
	}
	if flags.Changed("in") {
		cfg.Input.PortName = inPort
	}
	if flags.Changed("addr") {
		cfg.Addr = addr
	}
	return cfg, nil
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
