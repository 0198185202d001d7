package main

import (
	"github.com/kimama4423/kubestrap/internal/executor"
	cniexec "github.com/kimama4423/kubestrap/internal/executors/cni"
	containerdexec "github.com/kimama4423/kubestrap/internal/executors/containerd"
	jupyterhubexec "github.com/kimama4423/kubestrap/internal/executors/jupyterhub"
	kubeadmexec "github.com/kimama4423/kubestrap/internal/executors/kubeadm"
	monitoringexec "github.com/kimama4423/kubestrap/internal/executors/monitoring"
	registryexec "github.com/kimama4423/kubestrap/internal/executors/registry"
	tlsexec "github.com/kimama4423/kubestrap/internal/executors/tls"
	"github.com/kimama4423/kubestrap/internal/logger"
)

// registerExecutors wires every concrete installer into the registry for
// the CLI binary.
func registerExecutors(log *logger.Logger) error {
	factories := map[string]executor.Factory{
		"containerd": containerdexec.New(log),
		"kubeadm":    kubeadmexec.New(log),
		"cni":        cniexec.New(log),
		"registry":   registryexec.New(log),
		"tls":        tlsexec.New(log),
		"monitoring": monitoringexec.New(log),
		"jupyterhub": jupyterhubexec.New(log),
	}

	for componentType, factory := range factories {
		if err := executor.Register(componentType, factory); err != nil {
			return err
		}
	}
	return nil
}
