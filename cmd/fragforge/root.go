package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "fragforge",
		Short:         "Fragforge assembles fragment shaders from plugin function libraries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "fragforge.yaml", "Path to the configuration file")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newFunctionsCmd(flags))
	cmd.AddCommand(newCompileCmd(flags))
	cmd.AddCommand(newServeCmd(flags))

	return cmd
}
