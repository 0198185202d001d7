// Package kubeadmexec initialises the single-node control plane with
// kubeadm.
package kubeadmexec

import (
	"context"
	"fmt"
	"os"
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
	defaultAdminConf  = "/etc/kubernetes/admin.conf"
	defaultKubeconfig = "/root/.kube/config"
)

type kubeadmExecutor struct {
	spec *config.Component
	cfg  *config.KubeadmComponent
	log  *logger.Logger

	// adminConfPath is overridable in tests; kubeadm itself always writes
	// to /etc/kubernetes/admin.conf.
	adminConfPath string
}

// New returns the executor factory for the kubeadm component type.
func New(log *logger.Logger) executor.Factory {
	return func(spec *config.Component) (executor.Executor, error) {
		if spec.Kubeadm == nil {
			return nil, kuberrors.NewExecutorError("kubeadm", fmt.Errorf("kubeadm configuration missing for %s", spec.Name))
		}
		return &kubeadmExecutor{spec: spec, cfg: spec.Kubeadm, log: log.WithComponent(spec.Name)}, nil
	}
}

var _ executor.Executor = (*kubeadmExecutor)(nil)

func (e *kubeadmExecutor) Metadata() executor.Metadata {
	return executor.Metadata{
		Name:        "kubeadm",
		Version:     "1.0.0",
		Type:        "kubeadm",
		Description: "Runs kubeadm init and places the admin kubeconfig for a single-node cluster.",
	}
}

func (e *kubeadmExecutor) kubeconfig() string {
	if e.cfg.KubeconfigPath != "" {
		return e.cfg.KubeconfigPath
	}
	return defaultKubeconfig
}

func (e *kubeadmExecutor) adminConf() string {
	if e.adminConfPath != "" {
		return e.adminConfPath
	}
	return defaultAdminConf
}

func (e *kubeadmExecutor) Plan(_ context.Context, spec *config.Component) (*model.InstallPlan, error) {
	kubeconfig := e.kubeconfig()

	steps := []model.PlanStep{
		{
			Name: "pull-images",
			Run: func(ctx context.Context) error {
				_, err := internalexec.Run(ctx, "kubeadm", "config", "images", "pull")
				return err
			},
		},
		{
			Name: "kubeadm-init",
			Done: func(ctx context.Context) (bool, error) {
				// An existing cluster satisfies the step only at the desired
				// version; a stale control plane must be upgraded, not kept.
				if _, err := os.Stat(e.adminConf()); err != nil {
					return false, nil
				}
				current, err := e.CurrentVersion(ctx)
				if err != nil {
					return false, nil
				}
				return model.VersionCompatible(current, spec.DesiredVersion), nil
			},
			Run: func(ctx context.Context) error {
				if _, err := os.Stat(e.adminConf()); err == nil {
					return e.upgrade(ctx, spec.DesiredVersion)
				}
				args := []string{"init"}
				if e.cfg.PodNetworkCIDR != "" {
					args = append(args, "--pod-network-cidr", e.cfg.PodNetworkCIDR)
				}
				if e.cfg.AdvertiseAddress != "" {
					args = append(args, "--apiserver-advertise-address", e.cfg.AdvertiseAddress)
				}
				_, err := internalexec.Run(ctx, "kubeadm", args...)
				return err
			},
		},
		{
			Name: "install-kubeconfig",
			Done: func(_ context.Context) (bool, error) {
				_, err := os.Stat(kubeconfig)
				return err == nil, nil
			},
			Run: func(_ context.Context) error {
				data, err := os.ReadFile(e.adminConf())
				if err != nil {
					return err
				}
				if err := os.MkdirAll(filepath.Dir(kubeconfig), 0o755); err != nil {
					return err
				}
				return os.WriteFile(kubeconfig, data, 0o600)
			},
		},
	}

	if e.cfg.SchedulableControlPlane {
		steps = append(steps, model.PlanStep{
			Name: "untaint-control-plane",
			Run: func(ctx context.Context) error {
				out, err := internalexec.Run(ctx, "kubectl", "--kubeconfig", kubeconfig,
					"taint", "nodes", "--all", "node-role.kubernetes.io/control-plane-")
				// A taint that is already gone is the desired end state.
				if err != nil && strings.Contains(out, "not found") {
					return nil
				}
				return err
			},
		})
	}

	return &model.InstallPlan{Component: spec.Name, Steps: steps}, nil
}

func (e *kubeadmExecutor) Apply(ctx context.Context, plan *model.InstallPlan) error {
	return executor.ApplyPlan(ctx, e.log, plan)
}

func (e *kubeadmExecutor) Probe(ctx context.Context) (bool, string) {
	out, err := internalexec.Output(ctx, "kubectl", "--kubeconfig", e.kubeconfig(), "get", "--raw", "/readyz")
	if err != nil {
		return false, fmt.Sprintf("apiserver readyz unreachable: %v", err)
	}
	if strings.TrimSpace(out) != "ok" {
		return false, "apiserver readyz reported: " + out
	}
	return true, "apiserver ready"
}

func (e *kubeadmExecutor) CurrentVersion(ctx context.Context) (string, error) {
	// The control plane counts as present only once init has produced the
	// admin kubeconfig; the kubeadm binary alone is a prerequisite, not an
	// installation.
	if _, err := os.Stat(e.adminConf()); err != nil {
		return "", err
	}
	return internalexec.Output(ctx, "kubeadm", "version", "-o", "short")
}

// upgrade moves an existing control plane to the desired release in place.
func (e *kubeadmExecutor) upgrade(ctx context.Context, desired string) error {
	args := []string{"upgrade", "apply", "-y"}
	if desired != "" {
		args = append(args, "v"+strings.TrimPrefix(desired, "v"))
	}
	_, err := internalexec.Run(ctx, "kubeadm", args...)
	return err
}

func (e *kubeadmExecutor) StatePaths() []string {
	return []string{"/etc/kubernetes", filepath.Dir(e.kubeconfig())}
}
