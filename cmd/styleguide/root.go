package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "styleguide",
		Short:         "Serve the REBASE mobile styleguide",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file path")

	root.AddCommand(newServeCmd(&cfgFile))
	root.AddCommand(newIconsCmd(&cfgFile))
	return root
}
