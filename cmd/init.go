package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go-arp/config"
)

var force bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			p, err := config.ConfigPath()
			if err != nil {
				return err
			}
			path = p
		}
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s exists (use --force to overwrite)", path)
		}
		cfg := config.DefaultConfig()
		save := cfg.Save
		if configPath != "" {
			save = func() error { return cfg.SaveTo(configPath) }
		}
		if err := save(); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Println("wrote", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}
