// Package monitoringexec deploys the monitoring/alerting/logging stack
// from a pinned manifests repository.
package monitoringexec

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/executors/internalexec"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

const (
	defaultCloneDir  = "/var/lib/kubestrap/monitoring"
	defaultNamespace = "monitoring"
)

type monitoringExecutor struct {
	spec *config.Component
	cfg  *config.MonitoringComponent
	log  *logger.Logger
}

// New returns the executor factory for the monitoring component type.
func New(log *logger.Logger) executor.Factory {
	return func(spec *config.Component) (executor.Executor, error) {
		if spec.Monitoring == nil {
			return nil, kuberrors.NewExecutorError("monitoring", fmt.Errorf("monitoring configuration missing for %s", spec.Name))
		}
		if spec.Monitoring.RepoURL == "" {
			return nil, kuberrors.NewExecutorError("monitoring", fmt.Errorf("repo_url is required for %s", spec.Name))
		}
		return &monitoringExecutor{spec: spec, cfg: spec.Monitoring, log: log.WithComponent(spec.Name)}, nil
	}
}

var _ executor.Executor = (*monitoringExecutor)(nil)

func (e *monitoringExecutor) Metadata() executor.Metadata {
	return executor.Metadata{
		Name:        "monitoring",
		Version:     "1.0.0",
		Type:        "monitoring",
		Description: "Clones the pinned manifests repository and applies the monitoring stack.",
	}
}

func (e *monitoringExecutor) cloneDir() string {
	if e.cfg.CloneDir != "" {
		return e.cfg.CloneDir
	}
	return defaultCloneDir
}

func (e *monitoringExecutor) manifestDir() string {
	return filepath.Join(e.cloneDir(), e.cfg.Path)
}

func (e *monitoringExecutor) kubectlArgs(args ...string) []string {
	if e.cfg.Kubeconfig != "" {
		return append([]string{"--kubeconfig", e.cfg.Kubeconfig}, args...)
	}
	return args
}

func (e *monitoringExecutor) Plan(_ context.Context, spec *config.Component) (*model.InstallPlan, error) {
	cloneDir := e.cloneDir()

	steps := []model.PlanStep{
		{
			Name: "clone-manifests",
			Done: func(_ context.Context) (bool, error) {
				_, err := git.PlainOpen(cloneDir)
				return err == nil, nil
			},
			Run: func(ctx context.Context) error {
				options := &git.CloneOptions{URL: e.cfg.RepoURL, Depth: 1}
				if e.cfg.Ref != "" {
					options.ReferenceName = referenceName(e.cfg.Ref)
					options.SingleBranch = true
				}
				_, err := git.PlainCloneContext(ctx, cloneDir, false, options)
				return err
			},
		},
		{
			Name: "apply-manifests",
			Run: func(ctx context.Context) error {
				_, err := internalexec.Run(ctx, "kubectl",
					e.kubectlArgs("apply", "--recursive", "-f", e.manifestDir())...)
				return err
			},
		},
	}

	return &model.InstallPlan{Component: spec.Name, Steps: steps}, nil
}

func (e *monitoringExecutor) Apply(ctx context.Context, plan *model.InstallPlan) error {
	return executor.ApplyPlan(ctx, e.log, plan)
}

func (e *monitoringExecutor) Probe(ctx context.Context) (bool, string) {
	_, err := internalexec.Output(ctx, "kubectl", e.kubectlArgs(
		"wait", "--for=condition=Available", "deployment", "--all",
		"-n", defaultNamespace, "--timeout=1s")...)
	if err != nil {
		return false, fmt.Sprintf("monitoring deployments not available: %v", err)
	}
	return true, "all monitoring deployments available"
}

func (e *monitoringExecutor) CurrentVersion(ctx context.Context) (string, error) {
	out, err := internalexec.Output(ctx, "kubectl", e.kubectlArgs("-n", defaultNamespace,
		"get", "deployment", "prometheus-operator",
		"-o", "jsonpath={.spec.template.spec.containers[0].image}")...)
	if err != nil {
		return "", err
	}

	if _, tag, found := strings.Cut(out, ":"); found {
		return strings.TrimPrefix(tag, "v"), nil
	}
	return "", nil
}

func (e *monitoringExecutor) StatePaths() []string {
	return []string{e.cloneDir()}
}

// referenceName turns the configured ref into a full git reference.
// Version-shaped refs are treated as tags, anything else as a branch; a
// fully qualified ref passes through unchanged.
func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	if strings.HasPrefix(ref, "v") {
		return plumbing.NewTagReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}
