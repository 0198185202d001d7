package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kimama4423/kubestrap/internal/config"
	"github.com/kimama4423/kubestrap/internal/executor"
	"github.com/kimama4423/kubestrap/internal/logger"
	"github.com/kimama4423/kubestrap/internal/model"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(logger.Options{Level: "disabled", Writer: io.Discard})
	require.NoError(t, err)
	return log
}

// fakeExecutor is a scriptable executor for engine tests.
type fakeExecutor struct {
	mu sync.Mutex

	version    string
	versionErr error

	planErr  error
	applyErr error
	applyFn  func(ctx context.Context) error

	healthy     bool
	probeDetail string

	statePaths []string

	versionCalls int
	applyCalls   int
	probeCalls   int
}

var _ executor.Executor = (*fakeExecutor)(nil)

func (f *fakeExecutor) Metadata() executor.Metadata {
	return executor.Metadata{Name: "fake", Version: "0.0.0", Type: "fake"}
}

func (f *fakeExecutor) Plan(_ context.Context, spec *config.Component) (*model.InstallPlan, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &model.InstallPlan{Component: spec.Name}, nil
}

func (f *fakeExecutor) Apply(ctx context.Context, _ *model.InstallPlan) error {
	f.mu.Lock()
	f.applyCalls++
	f.mu.Unlock()

	if f.applyFn != nil {
		return f.applyFn(ctx)
	}
	return f.applyErr
}

func (f *fakeExecutor) Probe(_ context.Context) (bool, string) {
	f.mu.Lock()
	f.probeCalls++
	f.mu.Unlock()

	detail := f.probeDetail
	if detail == "" {
		detail = fmt.Sprintf("healthy=%v", f.healthy)
	}
	return f.healthy, detail
}

func (f *fakeExecutor) CurrentVersion(_ context.Context) (string, error) {
	f.mu.Lock()
	f.versionCalls++
	f.mu.Unlock()

	return f.version, f.versionErr
}

func (f *fakeExecutor) StatePaths() []string {
	return f.statePaths
}

// fakePrompter returns a canned decision.
type fakePrompter struct {
	decision model.Decision
	err      error
	calls    int
}

func (p *fakePrompter) Choose(_ context.Context, _ model.Component) (model.Decision, error) {
	p.calls++
	return p.decision, p.err
}

func okCheck(id string) CheckFunc {
	return func(_ context.Context) model.Check {
		return model.Check{ID: id, Severity: model.SeverityOK, Message: "fine"}
	}
}

func warningCheck(id string) CheckFunc {
	return func(_ context.Context) model.Check {
		return model.Check{ID: id, Severity: model.SeverityWarning, Message: "degraded"}
	}
}

func errorCheck(id string) CheckFunc {
	return func(_ context.Context) model.Check {
		return model.Check{ID: id, Severity: model.SeverityError, Message: "broken"}
	}
}
