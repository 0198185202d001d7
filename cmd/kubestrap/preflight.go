package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kimama4423/kubestrap/internal/checks"
	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/engine"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
)

type preflightOptions struct {
	ConfigPath string
}

var preflightCmdRunner = runPreflight

func newPreflightCmd(_ *rootFlags, log *logger.Logger) *cobra.Command {
	opts := preflightOptions{}

	cmd := &cobra.Command{
		Use:   "preflight",
		Short: "Run the prerequisite checks without mutating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateConfigPath(opts.ConfigPath); err != nil {
				return err
			}
			return preflightCmdRunner(opts, log)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runPreflight(opts preflightOptions, log *logger.Logger) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	policy, err := cfg.Settings.Policy()
	if err != nil {
		return err
	}

	checklist := checks.Builtin(cfg.Settings.Prechecks)
	results := engine.RunChecks(context.Background(), checklist)

	for _, check := range results {
		fmt.Fprintf(os.Stdout, "%-10s %-24s %s\n", check.Severity, check.ID, check.Message)
	}

	if blocking := model.Blocking(results, policy.CheckSeverityGate); len(blocking) > 0 {
		log.Warn("blocking prerequisite checks found; provisioning would not proceed")
		exitCode = 1
	}

	return nil
}
