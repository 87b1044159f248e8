package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expharness/internal/build"
	"expharness/internal/tactile"
)

// buildCmd compiles the program without running anything.
var buildCmd = &cobra.Command{
	Use:         "build",
	Short:       "Compile the optimization program for the configured U_size",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{needsConfig: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		b := build.NewBuilder(tactile.NewDirectExecutor(), cfg, workspace)
		bin, err := b.Build(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), bin)
		return nil
	},
}
