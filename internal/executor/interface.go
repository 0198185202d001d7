package executor

import (
	"context"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/model"
)

// Metadata describes an executor for logging and diagnostics.
type Metadata struct {
	Name        string
	Version     string
	Type        string
	Description string
}

// Executor is the contract every concrete installer implements. The engine
// treats Apply as an opaque, potentially slow, potentially
// partially-effective operation and never depends on installer-specific
// command syntax. Recovery from a failed Apply is delegated to the backup
// and rollback machinery, not to retries.
type Executor interface {
	// Metadata returns the executor's identity.
	Metadata() Metadata

	// Plan computes the ordered, idempotent sub-operations for the
	// component. Plan is read-only: it must not mutate anything.
	Plan(ctx context.Context, spec *config.Component) (*model.InstallPlan, error)

	// Apply performs the plan's mutations. It is not retried automatically.
	Apply(ctx context.Context, plan *model.InstallPlan) error

	// Probe reports whether the component is currently healthy, with a
	// human-readable detail for diagnosis.
	Probe(ctx context.Context) (healthy bool, detail string)

	// CurrentVersion returns the installed version observed through the
	// component's own introspection surface. It must be safe to call
	// repeatedly and must not mutate anything.
	CurrentVersion(ctx context.Context) (string, error)

	// StatePaths lists the on-disk paths that constitute the component's
	// persisted state, for the backup manager to snapshot.
	StatePaths() []string
}
