// Command praos is an operator tool for the consensus crypto primitives:
// VRF key generation, proving and verifying, and key-evolving signatures
// across their period schedule.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "praos",
		Short:         "VRF and KES operations for Praos consensus keys",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newVRFCommand())
	root.AddCommand(newKESCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "praos: %v\n", err)
		os.Exit(1)
	}
}
