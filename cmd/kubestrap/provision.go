package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kimama4423/kubestrap/internal/checks"
	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/engine"
	"github.com/kimama4423/kubestrap/internal/logger"
)

const (
	defaultBackupRoot = "/var/lib/kubestrap/backups"
	defaultReportDir  = "/var/lib/kubestrap/reports"
)

type provisionOptions struct {
	ConfigPath     string
	Verbose        bool
	NonInteractive bool
}

var provisionCmdRunner = runProvision

// The decision prompt reads stdin, so stdin is what decides whether the
// run may block on a prompt; piping stdout elsewhere must not disable it.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newProvisionCmd(root *rootFlags, log *logger.Logger) *cobra.Command {
	opts := provisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision every component in the configuration, in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Verbose = root.verbose
			opts.NonInteractive = root.nonInteractive || !stdinIsTerminal()

			if err := validateConfigPath(opts.ConfigPath); err != nil {
				return err
			}

			return provisionCmdRunner(opts, log)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runProvision(opts provisionOptions, log *logger.Logger) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	policy, err := cfg.Settings.Policy()
	if err != nil {
		return err
	}
	if opts.NonInteractive {
		policy.NonInteractive = true
	}

	effectiveVerbose := opts.Verbose || cfg.Settings.Verbose
	if effectiveVerbose {
		log, err = logger.New(logger.Options{Level: "debug", HumanReadable: true})
		if err != nil {
			return err
		}
	}

	// An interrupt is honoured at phase boundaries only; the engine never
	// kills a mutation mid-flight.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backupRoot := cfg.Settings.BackupRoot
	if backupRoot == "" {
		backupRoot = defaultBackupRoot
	}
	reportDir := cfg.Settings.ReportDir
	if reportDir == "" {
		reportDir = defaultReportDir
	}

	var prompter engine.Prompter
	if !policy.NonInteractive {
		prompter = newHuhPrompter()
	}

	backups := engine.NewBackupManager(backupRoot, log)
	orchestrator := engine.NewOrchestrator(policy, backups, prompter, log)
	runner := engine.NewRunner(orchestrator, log)
	checklist := checks.Builtin(cfg.Settings.Prechecks)

	reports := runner.RunAll(ctx, cfg, checklist)

	for _, report := range reports {
		path, err := engine.WriteReport(reportDir, report)
		if err != nil {
			log.Error(err, "could not persist run report")
			continue
		}
		log.WithFields(map[string]any{"path": path}).Debug("run report persisted")
	}

	fmt.Fprintln(os.Stdout, engine.RenderSummary(reports))
	exitCode = engine.ExitCode(reports)

	return nil
}
