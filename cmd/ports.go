package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-arp/midi"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input and output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := midi.Scan(midi.ScanTimeout)
		if err != nil {
			return fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
		}
		defer midi.CloseDriver()

		fmt.Println("=== MIDI Input Ports ===")
		for i, name := range ports.InNames() {
			fmt.Printf("  %d: %s\n", i, name)
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, name := range ports.OutNames() {
			fmt.Printf("  %d: %s\n", i, name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
