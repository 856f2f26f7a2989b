package main

import (
	"github.com/spf13/cobra"

	"github.com/json-to-terraform/constructs/internal/registry"
)

// NewKindsCmd creates the kinds subcommand.
func NewKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the construct kinds a manifest can use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, k := range registry.Default.ListSupportedKinds() {
				cmd.Println(k)
			}
			return nil
		},
	}
}
