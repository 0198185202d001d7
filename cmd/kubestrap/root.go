package main

import (
	"github.com/spf13/cobra"

	"github.com/kimama4423/kubestrap/internal/logger"
)

type rootFlags struct {
	verbose        bool
	nonInteractive bool
}

func newRootCmd(log *logger.Logger) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "kubestrap",
		Short:         "kubestrap provisions a single-node Kubernetes and JupyterHub host",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.nonInteractive, "non-interactive", false, "Never prompt; require decision_override for existing components")

	cmd.AddCommand(newProvisionCmd(flags, log))
	cmd.AddCommand(newPreflightCmd(flags, log))
	cmd.AddCommand(newDetectCmd(flags, log))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
