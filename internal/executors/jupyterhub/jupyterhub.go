// Package jupyterhubexec deploys the JupyterHub manifests and probes the
// hub's health endpoint.
package jupyterhubexec

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/executors/internalexec"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

const (
	defaultNamespace = "jupyterhub"
	defaultHealthURL = "http://127.0.0.1:8000/hub/health"
)

type jupyterhubExecutor struct {
	spec *config.Component
	cfg  *config.JupyterHubComponent
	log  *logger.Logger
}

// New returns the executor factory for the jupyterhub component type.
func New(log *logger.Logger) executor.Factory {
	return func(spec *config.Component) (executor.Executor, error) {
		if spec.JupyterHub == nil {
			return nil, kuberrors.NewExecutorError("jupyterhub", fmt.Errorf("jupyterhub configuration missing for %s", spec.Name))
		}
		if spec.JupyterHub.ManifestPath == "" {
			return nil, kuberrors.NewExecutorError("jupyterhub", fmt.Errorf("manifest_path is required for %s", spec.Name))
		}
		return &jupyterhubExecutor{spec: spec, cfg: spec.JupyterHub, log: log.WithComponent(spec.Name)}, nil
	}
}

var _ executor.Executor = (*jupyterhubExecutor)(nil)

func (e *jupyterhubExecutor) Metadata() executor.Metadata {
	return executor.Metadata{
		Name:        "jupyterhub",
		Version:     "1.0.0",
		Type:        "jupyterhub",
		Description: "Applies the JupyterHub manifests and watches the hub health endpoint.",
	}
}

func (e *jupyterhubExecutor) namespace() string {
	if e.cfg.Namespace != "" {
		return e.cfg.Namespace
	}
	return defaultNamespace
}

func (e *jupyterhubExecutor) healthURL() string {
	if e.cfg.HealthURL != "" {
		return e.cfg.HealthURL
	}
	return defaultHealthURL
}

func (e *jupyterhubExecutor) kubectlArgs(args ...string) []string {
	if e.cfg.Kubeconfig != "" {
		return append([]string{"--kubeconfig", e.cfg.Kubeconfig}, args...)
	}
	return args
}

func (e *jupyterhubExecutor) Plan(_ context.Context, spec *config.Component) (*model.InstallPlan, error) {
	namespace := e.namespace()

	steps := []model.PlanStep{
		{
			Name: "create-namespace",
			Done: func(ctx context.Context) (bool, error) {
				_, err := internalexec.Output(ctx, "kubectl", e.kubectlArgs("get", "namespace", namespace)...)
				return err == nil, nil
			},
			Run: func(ctx context.Context) error {
				_, err := internalexec.Run(ctx, "kubectl", e.kubectlArgs("create", "namespace", namespace)...)
				return err
			},
		},
		{
			Name: "apply-manifests",
			Run: func(ctx context.Context) error {
				_, err := internalexec.Run(ctx, "kubectl",
					e.kubectlArgs("-n", namespace, "apply", "-f", e.cfg.ManifestPath)...)
				return err
			},
		},
	}

	return &model.InstallPlan{Component: spec.Name, Steps: steps}, nil
}

func (e *jupyterhubExecutor) Apply(ctx context.Context, plan *model.InstallPlan) error {
	return executor.ApplyPlan(ctx, e.log, plan)
}

func (e *jupyterhubExecutor) Probe(ctx context.Context) (bool, string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.healthURL(), nil)
	if err != nil {
		return false, err.Error()
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Sprintf("hub health endpoint unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("hub health endpoint returned %s", resp.Status)
	}
	return true, "hub healthy"
}

func (e *jupyterhubExecutor) CurrentVersion(ctx context.Context) (string, error) {
	out, err := internalexec.Output(ctx, "kubectl", e.kubectlArgs("-n", e.namespace(),
		"get", "deployment", "hub", "-o", "jsonpath={.spec.template.spec.containers[0].image}")...)
	if err != nil {
		return "", err
	}

	if _, tag, found := strings.Cut(out, ":"); found {
		return strings.TrimPrefix(tag, "v"), nil
	}
	return "", nil
}

func (e *jupyterhubExecutor) StatePaths() []string {
	return []string{e.cfg.ManifestPath}
}
