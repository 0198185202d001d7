package engine

import (
	"context"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
)

// Runner sequences independent components strictly one at a time, in
// config order. Ordering matters on this host: the runtime must exist
// before cluster init, the cluster before the CNI, and so on, so the safe
// default is the only mode implemented.
type Runner struct {
	orchestrator *Orchestrator
	log          *logger.Logger
}

// NewRunner creates a runner around an orchestrator.
func NewRunner(orchestrator *Orchestrator, log *logger.Logger) *Runner {
	return &Runner{orchestrator: orchestrator, log: log}
}

// RunAll provisions every component in order and returns the collected
// reports. The sequence stops at the first component that ends Failed or
// RolledBack (later components depend on it) and at an operator abort.
// Executor construction failures are reported as failed runs rather than
// panics so the operator always receives a report.
func (r *Runner) RunAll(ctx context.Context, cfg *config.Config, checklist []CheckFunc) []*model.RunReport {
	reports := make([]*model.RunReport, 0, len(cfg.Components))

	for i := range cfg.Components {
		spec := &cfg.Components[i]

		exec, err := executor.New(spec)
		if err != nil {
			reports = append(reports, &model.RunReport{
				Component:     spec.Name,
				ComponentType: spec.Type,
				FinalStatus:   model.StatusFailed,
				Reason:        err.Error(),
			})
			break
		}

		report := r.orchestrator.Run(ctx, spec, exec, checklist)
		reports = append(reports, report)

		if report.FinalStatus == model.StatusFailed || report.FinalStatus == model.StatusRolledBack {
			r.log.WithComponent(spec.Name).Warn("stopping run, later components depend on this one")
			break
		}
		if report.Decision == model.DecisionAbort {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
	}

	return reports
}

// ExitCode maps the collected reports to the process exit code: the worst
// final status wins.
func ExitCode(reports []*model.RunReport) int {
	code := 0
	for _, report := range reports {
		if c := report.FinalStatus.ExitCode(); c > code {
			code = c
		}
	}
	return code
}
