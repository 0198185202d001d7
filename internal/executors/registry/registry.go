// Package registryexec stands up the local image registry inside the
// cluster.
package registryexec

import (
	"context"
	"fmt"
	"net/http"
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
	defaultPort      = 5000
	defaultNamespace = "registry"
	defaultDataDir   = "/var/lib/registry"
)

const manifestTemplate = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: registry
  namespace: %[1]s
spec:
  replicas: 1
  selector:
    matchLabels:
      app: registry
  template:
    metadata:
      labels:
        app: registry
    spec:
      containers:
        - name: registry
          image: registry:2
          ports:
            - containerPort: 5000
          volumeMounts:
            - name: data
              mountPath: /var/lib/registry
      volumes:
        - name: data
          hostPath:
            path: %[2]s
            type: DirectoryOrCreate
---
apiVersion: v1
kind: Service
metadata:
  name: registry
  namespace: %[1]s
spec:
  selector:
    app: registry
  ports:
    - port: %[3]d
      targetPort: 5000
      nodePort: %[3]d
  type: NodePort
`

type registryExecutor struct {
	spec *config.Component
	cfg  *config.RegistryComponent
	log  *logger.Logger
}

// New returns the executor factory for the registry component type.
func New(log *logger.Logger) executor.Factory {
	return func(spec *config.Component) (executor.Executor, error) {
		if spec.Registry == nil {
			return nil, kuberrors.NewExecutorError("registry", fmt.Errorf("registry configuration missing for %s", spec.Name))
		}
		return &registryExecutor{spec: spec, cfg: spec.Registry, log: log.WithComponent(spec.Name)}, nil
	}
}

var _ executor.Executor = (*registryExecutor)(nil)

func (e *registryExecutor) Metadata() executor.Metadata {
	return executor.Metadata{
		Name:        "registry",
		Version:     "1.0.0",
		Type:        "registry",
		Description: "Deploys an in-cluster image registry exposed on a node port.",
	}
}

func (e *registryExecutor) port() int {
	if e.cfg.Port > 0 {
		return e.cfg.Port
	}
	return defaultPort
}

func (e *registryExecutor) namespace() string {
	if e.cfg.Namespace != "" {
		return e.cfg.Namespace
	}
	return defaultNamespace
}

func (e *registryExecutor) dataDir() string {
	if e.cfg.DataDir != "" {
		return e.cfg.DataDir
	}
	return defaultDataDir
}

func (e *registryExecutor) kubectlArgs(args ...string) []string {
	if e.cfg.Kubeconfig != "" {
		return append([]string{"--kubeconfig", e.cfg.Kubeconfig}, args...)
	}
	return args
}

func (e *registryExecutor) Plan(_ context.Context, spec *config.Component) (*model.InstallPlan, error) {
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
			Name: "apply-manifest",
			Run: func(ctx context.Context) error {
				manifest := fmt.Sprintf(manifestTemplate, namespace, e.dataDir(), e.port())

				tmp, err := os.CreateTemp("", "registry-*.yaml")
				if err != nil {
					return err
				}
				defer os.Remove(tmp.Name())

				if _, err := tmp.WriteString(manifest); err != nil {
					tmp.Close()
					return err
				}
				if err := tmp.Close(); err != nil {
					return err
				}

				_, err = internalexec.Run(ctx, "kubectl", e.kubectlArgs("apply", "-f", tmp.Name())...)
				return err
			},
		},
	}

	return &model.InstallPlan{Component: spec.Name, Steps: steps}, nil
}

func (e *registryExecutor) Apply(ctx context.Context, plan *model.InstallPlan) error {
	return executor.ApplyPlan(ctx, e.log, plan)
}

func (e *registryExecutor) Probe(ctx context.Context) (bool, string) {
	url := fmt.Sprintf("http://127.0.0.1:%d/v2/", e.port())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err.Error()
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, fmt.Sprintf("registry endpoint unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Sprintf("registry endpoint returned %s", resp.Status)
	}
	return true, "registry API responding"
}

func (e *registryExecutor) CurrentVersion(ctx context.Context) (string, error) {
	out, err := internalexec.Output(ctx, "kubectl", e.kubectlArgs("-n", e.namespace(),
		"get", "deployment", "registry", "-o", "jsonpath={.spec.template.spec.containers[0].image}")...)
	if err != nil {
		return "", err
	}

	if _, tag, found := strings.Cut(out, ":"); found {
		return tag, nil
	}
	return "", nil
}

func (e *registryExecutor) StatePaths() []string {
	return []string{filepath.Clean(e.dataDir())}
}
