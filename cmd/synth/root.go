package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the synth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize construct manifests into declarative templates",
		Long: `synth builds a construct tree from a YAML or JSON manifest and renders it
as a resource template (JSON, YAML or HCL).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewKindsCmd())

	return cmd
}
