package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/engine"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
)

type detectOptions struct {
	ConfigPath string
}

var detectCmdRunner = runDetect

func newDetectCmd(_ *rootFlags, log *logger.Logger) *cobra.Command {
	opts := detectOptions{}

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Report the detected state of every configured component",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateConfigPath(opts.ConfigPath); err != nil {
				return err
			}
			return detectCmdRunner(opts, log)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runDetect(opts detectOptions, log *logger.Logger) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	detector := engine.NewDetector(log)
	ctx := context.Background()

	for i := range cfg.Components {
		spec := &cfg.Components[i]

		exec, err := executor.New(spec)
		if err != nil {
			return err
		}

		state, version := detector.Detect(ctx, exec, spec.DesiredVersion)
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(os.Stdout, "%-20s %-22s %s\n", spec.Name, state, version)
	}

	return nil
}
