// Package containerdexec installs and configures the containerd runtime.
package containerdexec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/executors/internalexec"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

const (
	defaultConfigPath = "/etc/containerd/config.toml"
	defaultService    = "containerd"
)

type containerdExecutor struct {
	spec *config.Component
	cfg  *config.ContainerdComponent
	log  *logger.Logger
}

// New returns the executor factory for the containerd component type.
func New(log *logger.Logger) executor.Factory {
	return func(spec *config.Component) (executor.Executor, error) {
		if spec.Containerd == nil {
			return nil, kuberrors.NewExecutorError("containerd", fmt.Errorf("containerd configuration missing for %s", spec.Name))
		}
		return &containerdExecutor{spec: spec, cfg: spec.Containerd, log: log.WithComponent(spec.Name)}, nil
	}
}

var _ executor.Executor = (*containerdExecutor)(nil)

func (e *containerdExecutor) Metadata() executor.Metadata {
	return executor.Metadata{
		Name:        "containerd",
		Version:     "1.0.0",
		Type:        "containerd",
		Description: "Installs the containerd runtime, writes its config and enables the service.",
	}
}

func (e *containerdExecutor) configPath() string {
	if e.cfg.ConfigPath != "" {
		return e.cfg.ConfigPath
	}
	return defaultConfigPath
}

func (e *containerdExecutor) service() string {
	if e.cfg.Service != "" {
		return e.cfg.Service
	}
	return defaultService
}

func (e *containerdExecutor) Plan(_ context.Context, spec *config.Component) (*model.InstallPlan, error) {
	configPath := e.configPath()
	service := e.service()

	steps := []model.PlanStep{
		{
			Name: "install-package",
			Done: func(ctx context.Context) (bool, error) {
				// Presence alone does not satisfy the step: a stale package
				// must be reinstalled, so the postcondition also holds the
				// binary to the desired version.
				if _, err := exec.LookPath("containerd"); err != nil {
					return false, nil
				}
				installed, err := e.CurrentVersion(ctx)
				if err != nil {
					return false, nil
				}
				return model.VersionCompatible(installed, spec.DesiredVersion), nil
			},
			Run: func(ctx context.Context) error {
				_, err := internalexec.Run(ctx, "apt-get", "install", "-y", "containerd")
				return err
			},
		},
		{
			Name: "write-config",
			Done: func(_ context.Context) (bool, error) {
				_, err := os.Stat(configPath)
				return err == nil, nil
			},
			Run: func(ctx context.Context) error {
				rendered, err := internalexec.Output(ctx, "containerd", "config", "default")
				if err != nil {
					return err
				}
				if e.cfg.SandboxImage != "" {
					rendered = rewriteSandboxImage(rendered, e.cfg.SandboxImage)
				}
				if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
					return err
				}
				return os.WriteFile(configPath, []byte(rendered+"\n"), 0o644)
			},
		},
		{
			Name: "enable-service",
			Done: func(ctx context.Context) (bool, error) {
				_, err := internalexec.Output(ctx, "systemctl", "is-active", "--quiet", service)
				return err == nil, nil
			},
			Run: func(ctx context.Context) error {
				_, err := internalexec.Run(ctx, "systemctl", "enable", "--now", service)
				return err
			},
		},
	}

	return &model.InstallPlan{Component: spec.Name, Steps: steps}, nil
}

func (e *containerdExecutor) Apply(ctx context.Context, plan *model.InstallPlan) error {
	return executor.ApplyPlan(ctx, e.log, plan)
}

func (e *containerdExecutor) Probe(ctx context.Context) (bool, string) {
	if _, err := internalexec.Output(ctx, "ctr", "version"); err != nil {
		return false, fmt.Sprintf("ctr cannot reach the daemon: %v", err)
	}
	return true, "daemon responding"
}

func (e *containerdExecutor) CurrentVersion(ctx context.Context) (string, error) {
	out, err := internalexec.Output(ctx, "containerd", "--version")
	if err != nil {
		return "", err
	}

	// Output shape: "containerd github.com/containerd/containerd v1.7.2 <sha>".
	fields := strings.Fields(out)
	if len(fields) >= 3 {
		return fields[2], nil
	}
	return out, nil
}

func (e *containerdExecutor) StatePaths() []string {
	return []string{filepath.Dir(e.configPath())}
}

func rewriteSandboxImage(rendered, image string) string {
	lines := strings.Split(rendered, "\n")
	for i, line := range lines {
		if strings.Contains(line, "sandbox_image") {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			lines[i] = fmt.Sprintf("%ssandbox_image = %q", indent, image)
		}
	}
	return strings.Join(lines, "\n")
}
