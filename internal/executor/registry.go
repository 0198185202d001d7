package executor

import (
	"fmt"
	"sync"

	"github.com/kimama4423/kubestrap/internal/config"
	kuberrors "github.com/kimama4423/kubestrap/pkg/errors"
)

// Factory constructs an executor bound to one component spec.
type Factory func(spec *config.Component) (Executor, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds an executor factory for the provided component type.
func Register(componentType string, factory Factory) error {
	if factory == nil {
		return kuberrors.NewExecutorError(componentType, fmt.Errorf("factory is nil"))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[componentType]; exists {
		return kuberrors.NewExecutorError(componentType, fmt.Errorf("executor already registered"))
	}

	registry[componentType] = factory
	return nil
}

// New builds an executor for the component spec by type lookup.
func New(spec *config.Component) (Executor, error) {
	if spec == nil {
		return nil, kuberrors.NewExecutorError("", fmt.Errorf("component spec is nil"))
	}

	registryMu.RLock()
	factory, ok := registry[spec.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, kuberrors.NewExecutorError(spec.Type, fmt.Errorf("no executor registered"))
	}

	return factory(spec)
}

// ResetRegistry clears executor registrations (for tests).
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Factory)
}
